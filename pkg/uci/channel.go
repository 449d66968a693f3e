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

// Channel is a line oriented connection to an engine. Lines carry no
// request identifiers, so replies are matched to requests by content.
type Channel interface {
	// Send writes a single command to the engine.
	Send(line string) error

	// Lines returns the engine's output, one line per value, in arrival
	// order. It is closed once the connection is gone, after which Err
	// reports the reason, or nil for an orderly exit.
	Lines() <-chan string
	Err() error

	// Terminate forcibly closes the connection.
	Terminate() error
}
