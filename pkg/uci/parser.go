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
	"strconv"
	"strings"
	"time"

	"laptudirm.com/x/lookout/pkg/chess"
)

// info lines are expected in exactly this shape:
// info depth 1 seldepth 2 multipv 1 score cp 0 nodes 20 nps 2222 hashfull 0 time 9 pv d2d4 d7d5
const (
	depthField     = 2
	selDepthField  = 4
	multiPVField   = 6
	scoreKindField = 8
	scoreField     = 9
	nodesField     = 11
	npsField       = 13
	hashFullField  = 15
	timeField      = 17
	pvField        = 19
)

// ParseInfo parses an info line reported while analysing position. It
// returns nil for lines which are not info lines, which are not in the
// expected shape, or which don't carry both a best and a ponder move yet.
// Moves which can't be played in position are reported as a *ParseError.
func ParseInfo(position, line string) (*Evaluation, error) {
	if !strings.HasPrefix(line, "info") {
		return nil, nil
	}

	fields := strings.Split(line, " ")
	field := func(i int) string {
		if i < len(fields) {
			return fields[i]
		}

		return ""
	}

	var moves []string
	if len(fields) > pvField {
		moves = fields[pvField:]
	}

	// Rebuild the line from the extracted fields; any difference means the
	// line doesn't have the expected shape.
	expected := fmt.Sprintf(
		"info depth %s seldepth %s multipv %s score %s %s nodes %s nps %s hashfull %s time %s pv %s",
		field(depthField), field(selDepthField), field(multiPVField),
		field(scoreKindField), field(scoreField),
		field(nodesField), field(npsField), field(hashFullField),
		field(timeField), strings.Join(moves, " "),
	)

	if expected != line {
		return nil, nil
	}

	depth, err := strconv.Atoi(field(depthField))
	if err != nil || depth < 0 {
		return nil, nil
	}

	millis, err := strconv.Atoi(field(timeField))
	if err != nil || millis < 0 {
		return nil, nil
	}

	kind, ok := parseScoreKind(field(scoreKindField))
	if !ok {
		return nil, nil
	}

	value, err := strconv.Atoi(field(scoreField))
	if err != nil {
		return nil, nil
	}

	// no principal variation yet
	if len(moves) < 2 || moves[0] == "" || moves[1] == "" {
		return nil, nil
	}

	decoded, err := chess.DecodeMoves(position, moves[0], moves[1])
	if err != nil {
		return nil, &ParseError{Line: line, Err: err}
	}

	return &Evaluation{
		Depth:      depth,
		Time:       time.Duration(millis) * time.Millisecond,
		Score:      Score{Kind: kind, Value: value},
		Position:   position,
		BestMove:   decoded[0],
		PonderMove: decoded[1],
	}, nil
}
