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

// Package chess wraps the chess rules libraries used by lookout to validate
// positions and to decode the moves an engine reports for them.
package chess

import (
	"errors"
	"fmt"

	notnil "github.com/notnil/chess"
)

// DefaultPosition is the FEN string of the standard starting position.
const DefaultPosition = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

var ErrMalformedFEN = errors.New("chess: malformed fen string")

// ValidateFEN checks that fen is a well-formed FEN string.
func ValidateFEN(fen string) error {
	if _, err := notnil.FEN(fen); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedFEN, err)
	}

	return nil
}
