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
	"fmt"
	"time"

	"laptudirm.com/x/lookout/pkg/chess"
)

// ScoreKind is the unit of a Score.
type ScoreKind int

const (
	Centipawns ScoreKind = iota
	Mate
)

func (kind ScoreKind) String() string {
	switch kind {
	case Centipawns:
		return "cp"
	case Mate:
		return "mate"
	default:
		return "unknown"
	}
}

func parseScoreKind(token string) (ScoreKind, bool) {
	switch token {
	case "cp":
		return Centipawns, true
	case "mate":
		return Mate, true
	default:
		return 0, false
	}
}

// Score is an engine's opinion of a position from the side to move's
// point of view: either in centipawns, or the number of moves to a forced
// mate, negative if the side to move is getting mated.
type Score struct {
	Kind  ScoreKind
	Value int
}

func (score Score) String() string {
	if score.Kind == Mate {
		return fmt.Sprintf("#%d", score.Value)
	}

	return fmt.Sprintf("%+.2f", float64(score.Value)/100)
}

// Evaluation is the engine's analysis of a position at a given depth.
type Evaluation struct {
	Depth int
	Time  time.Duration
	Score Score

	// Position is the FEN of the analysed position.
	Position string

	BestMove   chess.Move
	PonderMove chess.Move
}

func (evaluation *Evaluation) String() string {
	return fmt.Sprintf(
		"depth %d score %s best %s ponder %s time %s",
		evaluation.Depth, evaluation.Score,
		evaluation.BestMove, evaluation.PonderMove,
		evaluation.Time,
	)
}
