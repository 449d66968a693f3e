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
	"errors"
	"fmt"
	"iter"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

// EvalOption configures a call to Evaluate.
type EvalOption func(*evalOptions)

type evalOptions struct {
	depth int
}

// WithDepth limits the search to the given depth.
func WithDepth(depth int) EvalOption {
	return func(options *evalOptions) {
		if depth > 0 {
			options.depth = depth
		}
	}
}

// run is a single evaluation of a position.
type run struct {
	engine *Engine
	lines  *Waiter
	cancel context.CancelFunc

	// searching is set while the engine owes a bestmove for the run.
	searching atomic.Bool
	once      sync.Once
}

// Evaluate analyses position, yielding an evaluation for every info line
// the engine reports until it settles on a best move or ctx is done.
//
// The sequence is lazy: the engine is only contacted once iteration
// starts, and every iteration is a fresh run which pre-empts any run still
// active on the engine. When an info line can't be parsed, the last good
// evaluation is yielded again, which is nil if there hasn't been one yet.
//
// Cancellation ends the sequence without an error. Any other failure is
// yielded once as an error and ends the sequence. However the run ends,
// the engine is told to stop and returns to Idle.
func (engine *Engine) Evaluate(ctx context.Context, position string, options ...EvalOption) iter.Seq2[*Evaluation, error] {
	opts := evalOptions{depth: engine.config.Depth}
	for _, option := range options {
		option(&opts)
	}

	return func(yield func(*Evaluation, error) bool) {
		if ctx.Err() != nil {
			return
		}

		if err := engine.WaitReady(ctx); err != nil {
			if ctx.Err() == nil {
				yield(nil, err)
			}

			return
		}

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		r, err := engine.start(ctx, cancel, position, opts.depth)
		if err != nil {
			if ctx.Err() == nil {
				yield(nil, err)
			}

			return
		}
		defer r.finish()

		var last *Evaluation
		for {
			line, err := r.lines.Wait(ctx)
			if err != nil {
				if ctx.Err() == nil {
					yield(nil, err)
				}

				return
			}

			// cancelled while the line was in flight
			if ctx.Err() != nil {
				return
			}

			switch {
			case strings.HasPrefix(line, "info"):
				evaluation, err := ParseInfo(position, line)
				if err != nil {
					yield(nil, err)
					return
				}

				if evaluation != nil {
					last = evaluation
				}

				if !yield(last, nil) {
					return
				}

			case strings.HasPrefix(line, "bestmove"):
				r.searching.Store(false)
				return
			}
		}
	}
}

// start pre-empts any active run and begins a new one on position.
func (engine *Engine) start(ctx context.Context, cancel context.CancelFunc, position string, depth int) (*run, error) {
	engine.begin.Lock()
	defer engine.begin.Unlock()

	engine.mu.Lock()
	previous := engine.active
	engine.mu.Unlock()

	if previous != nil {
		engine.logger.Debug("pre-empting active evaluation")
		previous.cancel()
		previous.finish()
	}

	if err := engine.settlePrevious(ctx); err != nil {
		return nil, err
	}

	r := &run{
		engine: engine,
		lines:  engine.registry.Follow(Any),
		cancel: cancel,
	}

	engine.mu.Lock()
	if !engine.state.transition(Idle, Evaluating) {
		state := engine.state.Load()
		engine.mu.Unlock()

		r.lines.Close()
		engine.logger.WithField("state", state).Error("unable to start evaluation")
		return nil, fmt.Errorf("%w: cannot evaluate while %s", ErrInvalidState, state)
	}

	engine.active = r
	engine.mu.Unlock()

	r.searching.Store(true)

	for _, command := range []string{
		"position fen " + position,
		"go depth " + strconv.Itoa(depth),
	} {
		if err := engine.send(command); err != nil {
			r.finish()
			return nil, err
		}
	}

	return r, nil
}

// settlePrevious waits for the bestmove owed by a previously stopped
// search, so that it can't be mistaken for the end of the next run.
func (engine *Engine) settlePrevious(ctx context.Context) error {
	engine.mu.Lock()
	settle := engine.settle
	engine.settle = nil
	engine.mu.Unlock()

	if settle == nil {
		return nil
	}

	defer settle.Close()

	waitCtx, cancel := context.WithTimeout(ctx, engine.config.StopTimeout)
	defer cancel()

	_, err := settle.Wait(waitCtx)
	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(err, context.DeadlineExceeded):
		engine.logger.Debug("stopped search never reported a bestmove")
		return nil
	default:
		return err
	}
}

// finish stops the run's search and returns the engine to Idle. It is
// safe to call more than once.
func (r *run) finish() {
	r.once.Do(func() {
		engine := r.engine

		// The bestmove a stopped search still owes is collected by the
		// next run.
		var settle *Waiter
		if r.searching.Load() {
			settle = engine.registry.Expect(HasPrefix("bestmove"))
		}

		if err := engine.send("stop"); err != nil {
			engine.logger.WithError(err).Debug("unable to send stop")
		}

		r.lines.Close()

		// The state must be Idle by the time a concurrent start can see
		// that no run is active.
		engine.mu.Lock()
		if !engine.state.transition(Evaluating, Idle) {
			engine.logger.WithField("state", engine.state.Load()).Error("evaluation finished outside of Evaluating")
		}

		if engine.active == r {
			engine.active = nil
		}

		if settle != nil {
			if engine.settle != nil {
				engine.settle.Close()
			}

			engine.settle = settle
		}
		engine.mu.Unlock()
	})
}
