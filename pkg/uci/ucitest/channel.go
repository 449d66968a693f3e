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

// Package ucitest provides an in-memory engine channel for testing code
// built on top of package uci.
package ucitest

import (
	"errors"
	"sync"
)

var ErrClosed = errors.New("ucitest: channel closed")

// Channel is a scripted, in-memory engine connection. It records every
// command it is sent and replies according to the registered handlers.
type Channel struct {
	mu       sync.Mutex
	sent     []string
	handlers map[string]func(*Channel)

	lines  chan string
	closed bool
	err    error

	terminated chan struct{}
	terminate  sync.Once
}

// NewChannel returns an open Channel without any replies registered.
func NewChannel() *Channel {
	return &Channel{
		handlers:   make(map[string]func(*Channel)),
		lines:      make(chan string, 256),
		terminated: make(chan struct{}),
	}
}

// NewEngine returns a Channel which completes the startup handshake.
func NewEngine() *Channel {
	channel := NewChannel()
	channel.Reply("isready", "readyok")
	channel.Reply("uci", "uciok")
	return channel
}

// On calls handler every time command is sent. It replaces any previous
// handler for the same command.
func (channel *Channel) On(command string, handler func(*Channel)) {
	channel.mu.Lock()
	defer channel.mu.Unlock()
	channel.handlers[command] = handler
}

// Reply makes the channel emit lines every time command is sent.
func (channel *Channel) Reply(command string, lines ...string) {
	channel.On(command, func(channel *Channel) {
		channel.Emit(lines...)
	})
}

// Emit delivers lines as if the engine had printed them.
func (channel *Channel) Emit(lines ...string) {
	channel.mu.Lock()
	defer channel.mu.Unlock()

	if channel.closed {
		return
	}

	for _, line := range lines {
		channel.lines <- line
	}
}

// Fail closes the channel with err, as if the engine had crashed.
func (channel *Channel) Fail(err error) {
	channel.mu.Lock()
	defer channel.mu.Unlock()

	if channel.closed {
		return
	}

	channel.closed = true
	channel.err = err
	close(channel.lines)
}

func (channel *Channel) Send(line string) error {
	channel.mu.Lock()
	if channel.closed {
		channel.mu.Unlock()
		return ErrClosed
	}

	channel.sent = append(channel.sent, line)
	handler := channel.handlers[line]
	channel.mu.Unlock()

	if handler != nil {
		handler(channel)
	}

	return nil
}

func (channel *Channel) Lines() <-chan string {
	return channel.lines
}

func (channel *Channel) Err() error {
	channel.mu.Lock()
	defer channel.mu.Unlock()
	return channel.err
}

func (channel *Channel) Terminate() error {
	channel.Fail(nil)
	channel.terminate.Do(func() { close(channel.terminated) })
	return nil
}

// Terminated is closed once Terminate has been called.
func (channel *Channel) Terminated() <-chan struct{} {
	return channel.terminated
}

// Sent returns every command sent so far, in order.
func (channel *Channel) Sent() []string {
	channel.mu.Lock()
	defer channel.mu.Unlock()
	return append([]string(nil), channel.sent...)
}

// Count returns how many times command has been sent.
func (channel *Channel) Count(command string) int {
	count := 0
	for _, sent := range channel.Sent() {
		if sent == command {
			count++
		}
	}

	return count
}
