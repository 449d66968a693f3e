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
	"strings"
	"sync"
)

// Predicate selects the engine lines a Waiter is interested in.
type Predicate func(line string) bool

// Equals matches lines identical to token.
func Equals(token string) Predicate {
	return func(line string) bool { return line == token }
}

// HasPrefix matches lines starting with prefix.
func HasPrefix(prefix string) Predicate {
	return func(line string) bool { return strings.HasPrefix(line, prefix) }
}

// Any matches every line.
func Any(string) bool { return true }

// Registry correlates engine lines with the callers waiting for them. Every
// pending Waiter is tested against every dispatched line, and a single line
// may satisfy several waiters at once.
type Registry struct {
	mu      sync.Mutex
	waiters []*Waiter
	err     error
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Expect registers a Waiter for the next line matching predicate. The
// Waiter is removed from the registry once it has been satisfied.
//
// Register the Waiter before sending the command that produces the awaited
// line, otherwise the reply may arrive before anyone is listening for it.
func (registry *Registry) Expect(predicate Predicate) *Waiter {
	return registry.register(predicate, false)
}

// Follow registers a Waiter which stays registered and queues every
// matching line until it is closed.
func (registry *Registry) Follow(predicate Predicate) *Waiter {
	return registry.register(predicate, true)
}

func (registry *Registry) register(predicate Predicate, follow bool) *Waiter {
	waiter := &Waiter{
		registry:  registry,
		predicate: predicate,
		follow:    follow,
		signal:    make(chan struct{}, 1),
	}

	registry.mu.Lock()
	defer registry.mu.Unlock()

	if registry.err != nil {
		waiter.err = registry.err
		return waiter
	}

	registry.waiters = append(registry.waiters, waiter)
	return waiter
}

// Dispatch delivers line to every pending Waiter whose predicate matches
// it. Waiters which don't match stay pending for later lines.
func (registry *Registry) Dispatch(line string) {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	remaining := registry.waiters[:0]
	for _, waiter := range registry.waiters {
		if !waiter.predicate(line) {
			remaining = append(remaining, waiter)
			continue
		}

		waiter.deliver(line)
		if waiter.follow {
			remaining = append(remaining, waiter)
		} else {
			waiter.closed = true
		}
	}

	clear(registry.waiters[len(remaining):])
	registry.waiters = remaining
}

// Fail rejects every pending Waiter with err and clears the registry. Any
// Waiter registered afterwards fails immediately with the same error.
func (registry *Registry) Fail(err error) {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	if registry.err == nil {
		registry.err = err
	}

	for _, waiter := range registry.waiters {
		waiter.err = registry.err
		waiter.notify()
	}

	registry.waiters = nil
}

func (registry *Registry) pending() int {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	return len(registry.waiters)
}

func (registry *Registry) remove(waiter *Waiter) {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	waiter.closed = true
	waiter.notify()

	for i, w := range registry.waiters {
		if w == waiter {
			registry.waiters = append(registry.waiters[:i], registry.waiters[i+1:]...)
			return
		}
	}
}

// Waiter is a caller's interest in engine lines. Its fields are guarded by
// the owning registry's lock.
type Waiter struct {
	registry  *Registry
	predicate Predicate
	follow    bool

	queue  []string
	signal chan struct{}
	err    error
	closed bool
}

func (waiter *Waiter) deliver(line string) {
	waiter.queue = append(waiter.queue, line)
	waiter.notify()
}

func (waiter *Waiter) notify() {
	select {
	case waiter.signal <- struct{}{}:
	default:
	}
}

// Wait returns the next line delivered to the Waiter. It fails with the
// registry's error if the engine's channel went away, with ErrWaiterClosed
// once the Waiter has nothing more to deliver, or with ctx's error. A
// one-shot Waiter is unregistered when ctx is done.
func (waiter *Waiter) Wait(ctx context.Context) (string, error) {
	registry := waiter.registry
	for {
		registry.mu.Lock()
		switch {
		case len(waiter.queue) > 0:
			line := waiter.queue[0]
			waiter.queue = waiter.queue[1:]
			registry.mu.Unlock()
			return line, nil

		case waiter.err != nil:
			registry.mu.Unlock()
			return "", waiter.err

		case waiter.closed:
			registry.mu.Unlock()
			return "", ErrWaiterClosed
		}
		registry.mu.Unlock()

		select {
		case <-waiter.signal:
		case <-ctx.Done():
			if !waiter.follow {
				registry.remove(waiter)
			}

			return "", ctx.Err()
		}
	}
}

// Close unregisters the Waiter. Pending and future calls to Wait return
// any lines already delivered, then ErrWaiterClosed.
func (waiter *Waiter) Close() {
	waiter.registry.remove(waiter)
}
