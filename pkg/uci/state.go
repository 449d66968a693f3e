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

import "sync/atomic"

// State is the state of an Engine.
type State int32

const (
	Initializing State = iota // handshake in progress
	Idle                      // ready for an evaluation
	Evaluating                // an evaluation run is active
)

func (state State) String() string {
	switch state {
	case Initializing:
		return "initializing"
	case Idle:
		return "idle"
	case Evaluating:
		return "evaluating"
	default:
		return "unknown"
	}
}

// stateCell holds a State which only moves along the legal transitions
// Initializing -> Idle -> Evaluating -> Idle.
type stateCell struct {
	value atomic.Int32
}

func (cell *stateCell) Load() State {
	return State(cell.value.Load())
}

// transition moves the state from from to to, reporting whether it did.
func (cell *stateCell) transition(from, to State) bool {
	switch {
	case from == Initializing && to == Idle:
	case from == Idle && to == Evaluating:
	case from == Evaluating && to == Idle:
	default:
		return false
	}

	return cell.value.CompareAndSwap(int32(from), int32(to))
}
