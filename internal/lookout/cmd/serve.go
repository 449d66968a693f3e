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
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"laptudirm.com/x/lookout/internal/lookout/server"
	"laptudirm.com/x/lookout/internal/util"
	"laptudirm.com/x/lookout/pkg/uci"
)

func Serve() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve engine evaluations over HTTP",
		Args:  cobra.NoArgs,
		Long: heredoc.Doc(`serve starts the configured engine and exposes it over
			HTTP. GET /evaluate?fen=<fen>&depth=<n> streams evaluations
			of the position as server-sent events, and GET /health
			reports the state of the engine.

			Only one position is analysed at a time: a new request
			stops the analysis of the previous one. The port is taken
			from the configuration or the PORT environment variable.`),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			if !logrus.IsLevelEnabled(logrus.DebugLevel) {
				gin.SetMode(gin.ReleaseMode)
			}

			engine, err := uci.Start(config.Engine)
			if err != nil {
				return err
			}

			defer func() {
				engine.Destroy()
				<-engine.Done()
			}()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			util.StartSpinner("Waiting for the engine...")
			err = engine.WaitReady(ctx)
			util.PauseSpinner()
			if err != nil {
				return err
			}

			srv := &http.Server{
				Addr:    net.JoinHostPort("", config.Server.Port),
				Handler: server.NewRouter(engine, config.Server),
			}

			group, ctx := errgroup.WithContext(ctx)
			group.Go(func() error {
				logrus.Infof("Serving on \x1b[34mhttp://localhost:%s\x1b[0m", config.Server.Port)
				if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					return err
				}

				return nil
			})

			group.Go(func() error {
				select {
				case <-ctx.Done():
				case <-engine.Done():
					logrus.WithError(engine.Err()).Error("engine exited")
				}

				shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(shutdown)
			})

			return group.Wait()
		},
	}
}
