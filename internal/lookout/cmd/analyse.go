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

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"laptudirm.com/x/lookout/internal/util"
	"laptudirm.com/x/lookout/pkg/chess"
	"laptudirm.com/x/lookout/pkg/uci"
)

func Analyse() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyse [fen]",
		Short: "Analyse a position with the configured engine",
		Args:  cobra.MaximumNArgs(1),
		Long: heredoc.Doc(`analyse starts the configured engine and prints its
			evaluations of the given position as they arrive, until the
			engine settles on a best move or the analysis is interrupted.

			The position is given as a FEN string and defaults to the
			standard starting position. Pressing Ctrl-C stops the analysis
			and shuts the engine down cleanly.`),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			position := chess.DefaultPosition
			if len(args) == 1 {
				position = args[0]
			}

			if err := chess.ValidateFEN(position); err != nil {
				return fmt.Errorf("the provided FEN string is malformed: %w", err)
			}

			if cmd.Flag("depth").Changed {
				config.Engine.Depth, _ = cmd.Flags().GetInt("depth")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			return analyse(ctx, config.Engine, position)
		},
	}

	cmd.Flags().IntP("depth", "d", uci.DefaultDepth, "Depth to search the position to")
	return cmd
}

func analyse(ctx context.Context, config uci.EngineConfig, position string) error {
	engine, err := uci.Start(config)
	if err != nil {
		return err
	}

	defer func() {
		engine.Destroy()
		<-engine.Done()
	}()

	util.StartSpinner("Waiting for the engine...")
	err = engine.WaitReady(ctx)
	util.PauseSpinner()

	switch {
	case ctx.Err() != nil:
		return nil
	case err != nil:
		return err
	}

	logrus.Infof("Analysing \x1b[33m%s\x1b[0m", position)

	var last *uci.Evaluation
	for evaluation, err := range engine.Evaluate(ctx, position) {
		if err != nil {
			return err
		}

		// the engine repeats its last evaluation for lines it can't parse
		if evaluation == nil || evaluation == last {
			continue
		}

		last = evaluation
		fmt.Printf(
			"depth %3d  score %7s  best %-7s ponder %-7s time %s\n",
			evaluation.Depth, evaluation.Score,
			evaluation.BestMove.SAN, evaluation.PonderMove.SAN,
			evaluation.Time,
		)
	}

	if last != nil {
		fmt.Printf("\nBest move \x1b[92m%s\x1b[0m (%s)\n", last.BestMove.SAN, last.BestMove)
	}

	return nil
}
