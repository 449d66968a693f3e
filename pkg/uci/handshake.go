// Copyright © 2024 Rak Laptudirm <rak@laptudirm.com>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package uci

import (
	"context"
	"sync/atomic"
)

// HandshakeState is the progress of a Handshake.
type HandshakeState int32

const (
	HandshakeUninitialized HandshakeState = iota
	HandshakeAwaitingReady
	HandshakeAwaitingUCIAck
	HandshakeReady
)

func (state HandshakeState) String() string {
	switch state {
	case HandshakeUninitialized:
		return "uninitialized"
	case HandshakeAwaitingReady:
		return "awaiting readyok"
	case HandshakeAwaitingUCIAck:
		return "awaiting uciok"
	case HandshakeReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Handshake brings a freshly launched engine to the point where it
// accepts commands: isready/readyok first, then uci/uciok.
type Handshake struct {
	registry *Registry
	send     func(line string) error

	state atomic.Int32
}

func NewHandshake(registry *Registry, send func(line string) error) *Handshake {
	return &Handshake{registry: registry, send: send}
}

func (handshake *Handshake) State() HandshakeState {
	return HandshakeState(handshake.state.Load())
}

// Run performs the handshake. An acknowledgement that arrives before it is
// awaited is not remembered, so an engine replying out of order leaves Run
// waiting until ctx is done. Run is not retried on failure.
func (handshake *Handshake) Run(ctx context.Context) error {
	if err := handshake.exchange(ctx, "isready", "readyok", HandshakeAwaitingReady); err != nil {
		return err
	}

	if err := handshake.exchange(ctx, "uci", "uciok", HandshakeAwaitingUCIAck); err != nil {
		return err
	}

	handshake.state.Store(int32(HandshakeReady))
	return nil
}

func (handshake *Handshake) exchange(ctx context.Context, command, ack string, state HandshakeState) error {
	waiter := handshake.registry.Expect(Equals(ack))
	if err := handshake.send(command); err != nil {
		waiter.Close()
		return err
	}

	handshake.state.Store(int32(state))
	_, err := waiter.Wait(ctx)
	return err
}
