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

// Package uci drives an external analysis engine over the Universal Chess
// Interface, turning its asynchronous output into a stream of evaluations.
package uci

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Engine is a handle to a single engine. It owns the engine's channel for
// its whole lifetime and runs at most one evaluation at a time.
type Engine struct {
	config  EngineConfig
	channel Channel

	registry  *Registry
	handshake *Handshake
	state     stateCell

	ready    chan struct{}
	readyErr error

	done chan struct{}
	err  error

	// lifetime is cancelled when the engine is destroyed.
	lifetime context.Context
	destroy  context.CancelFunc

	// begin serializes the start of evaluation runs.
	begin sync.Mutex

	mu     sync.Mutex
	active *run
	settle *Waiter

	destroyOnce sync.Once

	logger *logrus.Entry
}

// Start checks that the environment can host the engine, launches it and
// returns a handle to it. The check happens before anything is spawned, so
// an unsupported environment fails fast with ErrUnsupported.
func Start(config EngineConfig) (*Engine, error) {
	if err := Supported(config); err != nil {
		return nil, err
	}

	process, err := StartProcess(config)
	if err != nil {
		return nil, err
	}

	return New(process, config), nil
}

// New attaches an Engine to an already open channel and starts the
// handshake in the background. Use Ready or WaitReady to wait for it.
func New(channel Channel, config EngineConfig) *Engine {
	config = config.withDefaults()

	engine := &Engine{
		config:   config,
		channel:  channel,
		registry: NewRegistry(),
		ready:    make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logrus.WithField("engine", config.Name),
	}

	engine.lifetime, engine.destroy = context.WithCancel(context.Background())
	engine.handshake = NewHandshake(engine.registry, engine.send)

	go engine.dispatch()
	go engine.initialize()

	return engine
}

// dispatch feeds the engine's lines into the registry, and fails it once
// the channel closes.
func (engine *Engine) dispatch() {
	for line := range engine.channel.Lines() {
		engine.logger.Debugf("(%s)> %s", engine.config.Name, line)
		engine.registry.Dispatch(line)
	}

	err := ErrChannelClosed
	if cause := engine.channel.Err(); cause != nil {
		err = fmt.Errorf("%w: %w", ErrChannelClosed, cause)
	}

	engine.logger.WithError(err).Debug("engine channel closed")

	engine.err = err
	engine.registry.Fail(err)
	close(engine.done)
}

func (engine *Engine) initialize() {
	ctx := engine.lifetime
	if engine.config.HandshakeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, engine.config.HandshakeTimeout)
		defer cancel()
	}

	err := engine.handshake.Run(ctx)
	switch {
	case err == nil:
		engine.mu.Lock()
		if !engine.state.transition(Initializing, Idle) {
			err = fmt.Errorf("%w: handshake finished while %s", ErrInvalidState, engine.state.Load())
		}
		engine.mu.Unlock()

		if err == nil {
			engine.logger.Debug("engine is ready")
		}

	case errors.Is(err, context.DeadlineExceeded):
		err = ErrHandshakeTimeout
	case errors.Is(err, context.Canceled):
		err = ErrDestroyed
	}

	if err != nil {
		engine.logger.WithError(err).Error("engine handshake failed")
	}

	engine.readyErr = err
	close(engine.ready)
}

// Ready is closed once the handshake has finished, successfully or not.
func (engine *Engine) Ready() <-chan struct{} {
	return engine.ready
}

// WaitReady waits for the handshake to finish and reports its outcome.
func (engine *Engine) WaitReady(ctx context.Context) error {
	select {
	case <-engine.ready:
		return engine.readyErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State returns the engine's current state.
func (engine *Engine) State() State {
	return engine.state.Load()
}

// Done is closed once the engine's channel has closed.
func (engine *Engine) Done() <-chan struct{} {
	return engine.done
}

// Err returns the reason the engine's channel closed, or nil while it is
// still open.
func (engine *Engine) Err() error {
	select {
	case <-engine.done:
		return engine.err
	default:
		return nil
	}
}

// Destroy asks the engine to quit and terminates its channel once the
// grace period has passed, whether the engine complied or not. Operations
// still in flight then fail with ErrChannelClosed.
func (engine *Engine) Destroy() {
	engine.destroyOnce.Do(func() {
		engine.destroy()

		if err := engine.send("quit"); err != nil {
			engine.logger.WithError(err).Debug("unable to send quit")
		}

		time.AfterFunc(engine.config.GracePeriod, func() {
			select {
			case <-engine.done:
				return
			default:
			}

			engine.logger.Debug("grace period over, terminating engine")
			if err := engine.channel.Terminate(); err != nil {
				engine.logger.WithError(err).Error("unable to terminate engine")
			}
		})
	})
}

func (engine *Engine) send(line string) error {
	engine.logger.Debugf("(%s)< %s", engine.config.Name, line)
	return engine.channel.Send(line)
}
