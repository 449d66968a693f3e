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
	"errors"
	"fmt"
)

var (
	// ErrUnsupported is returned when the current environment cannot host
	// the configured engine. It is reported before any process is spawned.
	ErrUnsupported = errors.New("uci: environment cannot host the engine")

	// ErrChannelClosed is reported to everything waiting on an engine whose
	// connection has gone away, whether it crashed or was destroyed.
	ErrChannelClosed = errors.New("uci: engine channel closed")

	ErrHandshakeTimeout = errors.New("uci: handshake timed out")
	ErrDestroyed        = errors.New("uci: engine destroyed")
	ErrWaiterClosed     = errors.New("uci: waiter closed")

	// ErrInvalidState is reported when the engine is asked to move between
	// states it can't move between.
	ErrInvalidState = errors.New("uci: invalid engine state")
)

// OpError describes a failed operation on the engine's process.
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string {
	return "uci: " + e.Op + ": " + e.Err.Error()
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// ParseError is returned for an info line whose moves could not be decoded
// against the analysed position, which means the engine and lookout
// disagree about the position.
type ParseError struct {
	Line string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("uci: parse %q: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
