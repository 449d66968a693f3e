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

// Package server exposes an engine over HTTP, streaming evaluations to
// browsers as server-sent events.
package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"laptudirm.com/x/lookout/pkg/chess"
	"laptudirm.com/x/lookout/pkg/config"
	"laptudirm.com/x/lookout/pkg/uci"
)

const malformedFENMessage = "The provided FEN string is malformed."

type Server struct {
	engine *uci.Engine
}

// NewRouter builds the HTTP router serving engine.
func NewRouter(engine *uci.Engine, config config.ServerConfig) *gin.Engine {
	server := &Server{engine: engine}

	origins := config.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())
	router.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{"GET", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Accept", "Cache-Control"},
		MaxAge:       12 * time.Hour,
	}))
	router.Use(isolation)

	router.GET("/health", server.Health)
	router.GET("/evaluate", server.Evaluate)

	return router
}

// isolation sets the cross-origin isolation headers browsers require
// before they hand out shared memory to pages embedding engine builds.
func isolation(c *gin.Context) {
	c.Header("Cross-Origin-Embedder-Policy", "require-corp")
	c.Header("Cross-Origin-Opener-Policy", "same-origin")
	c.Header("Cross-Origin-Resource-Policy", "cross-origin")
	c.Next()
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logrus.WithFields(logrus.Fields{
			"status":  c.Writer.Status(),
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"latency": time.Since(start),
		}).Debug("request served")
	}
}

// Health reports the engine's state.
func (server *Server) Health(c *gin.Context) {
	status := http.StatusOK
	body := gin.H{"state": server.engine.State().String()}

	if err := server.engine.Err(); err != nil {
		status = http.StatusServiceUnavailable
		body["error"] = err.Error()
	}

	c.JSON(status, body)
}

// Evaluate streams the evaluations of the position in the fen query
// parameter. A new request pre-empts the evaluation of any earlier one.
func (server *Server) Evaluate(c *gin.Context) {
	fen := c.DefaultQuery("fen", chess.DefaultPosition)
	if err := chess.ValidateFEN(fen); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": malformedFENMessage})
		return
	}

	var options []uci.EvalOption
	if depth := c.Query("depth"); depth != "" {
		n, err := strconv.Atoi(depth)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "depth must be a positive integer"})
			return
		}

		options = append(options, uci.WithDepth(n))
	}

	c.Header("Cache-Control", "no-cache")

	var last *uci.Evaluation
	for evaluation, err := range server.engine.Evaluate(c.Request.Context(), fen, options...) {
		if err != nil {
			logrus.WithError(err).Error("evaluation failed")
			c.SSEvent("error", gin.H{"error": err.Error()})
			c.Writer.Flush()
			return
		}

		// stale evaluations are repeated for lines the engine got wrong
		if evaluation == nil || evaluation == last {
			continue
		}

		last = evaluation
		c.SSEvent("evaluation", newEvaluationView(evaluation))
		c.Writer.Flush()
	}

	c.SSEvent("done", gin.H{"state": server.engine.State().String()})
	c.Writer.Flush()
}

type scoreView struct {
	Kind  string `json:"kind"`
	Value int    `json:"value"`
}

type moveView struct {
	UCI string `json:"uci"`
	SAN string `json:"san"`
}

type evaluationView struct {
	Depth    int       `json:"depth"`
	Time     int64     `json:"time"`
	Score    scoreView `json:"score"`
	Position string    `json:"position"`
	BestMove moveView  `json:"bestMove"`
	Ponder   moveView  `json:"ponder"`
}

func newEvaluationView(evaluation *uci.Evaluation) evaluationView {
	return evaluationView{
		Depth: evaluation.Depth,
		Time:  evaluation.Time.Milliseconds(),
		Score: scoreView{
			Kind:  evaluation.Score.Kind.String(),
			Value: evaluation.Score.Value,
		},
		Position: evaluation.Position,
		BestMove: moveView{evaluation.BestMove.String(), evaluation.BestMove.SAN},
		Ponder:   moveView{evaluation.PonderMove.String(), evaluation.PonderMove.SAN},
	}
}
