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

package chess

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	notnil "github.com/notnil/chess"
	"laptudirm.com/x/mess/pkg/board"
	"laptudirm.com/x/mess/pkg/board/move"
	"laptudirm.com/x/mess/pkg/formats/fen"
)

var ErrIllegalMove = errors.New("chess: illegal move")

// Move is a decoded engine move.
type Move struct {
	From, To  string // Source and target squares, like "e2".
	Promotion string // Promoted piece in lowercase, empty if none.

	SAN string // Standard algebraic notation in the position it was played.
}

// String returns the move in the engine's long algebraic notation.
func (m Move) String() string {
	return m.From + m.To + m.Promotion
}

// DecodeMoves decodes the given UCI move tokens, each one played in the
// position reached after the previous one, starting from position.
func DecodeMoves(position string, tokens ...string) ([]Move, error) {
	oracle, err := newOracle(position)
	if err != nil {
		return nil, err
	}

	moves := make([]Move, 0, len(tokens))
	for _, token := range tokens {
		m, err := oracle.play(token)
		if err != nil {
			return nil, err
		}

		moves = append(moves, m)
	}

	return moves, nil
}

// oracle tracks a position while moves are played on it. Legality is
// decided by mess' move generator, while notnil provides the notation.
type oracle struct {
	board *board.Board
	moves []move.Move

	position *notnil.Position
}

func newOracle(fenstr string) (*oracle, error) {
	game, err := notnil.FEN(fenstr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFEN, err)
	}

	oracle := &oracle{
		board:    board.New(board.FEN(fen.FromString(fenstr))),
		position: notnil.NewGame(game).Position(),
	}

	oracle.moves = oracle.board.GenerateMoves(false)
	return oracle, nil
}

func (oracle *oracle) play(token string) (Move, error) {
	if len(token) < 4 || len(token) > 5 {
		return Move{}, fmt.Errorf("%w: %q", ErrIllegalMove, token)
	}

	index := slices.IndexFunc(oracle.moves, func(m move.Move) bool {
		return strings.EqualFold(m.String(), token)
	})

	if index == -1 {
		return Move{}, fmt.Errorf("%w: %q", ErrIllegalMove, token)
	}

	san, err := oracle.notate(strings.ToLower(token))
	if err != nil {
		return Move{}, err
	}

	oracle.board.MakeMove(oracle.moves[index])
	oracle.moves = oracle.board.GenerateMoves(false)

	token = strings.ToLower(token)
	return Move{
		From:      token[0:2],
		To:        token[2:4],
		Promotion: token[4:],
		SAN:       san,
	}, nil
}

// notate finds the SAN of the given move and advances the notation position.
func (oracle *oracle) notate(token string) (string, error) {
	for _, m := range oracle.position.ValidMoves() {
		if (notnil.UCINotation{}).Encode(oracle.position, m) != token {
			continue
		}

		san := notnil.AlgebraicNotation{}.Encode(oracle.position, m)
		oracle.position = oracle.position.Update(m)
		return san, nil
	}

	return "", fmt.Errorf("%w: %q", ErrIllegalMove, token)
}
