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

package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"laptudirm.com/x/lookout/pkg/chess"
	"laptudirm.com/x/lookout/pkg/config"
	"laptudirm.com/x/lookout/pkg/uci"
	"laptudirm.com/x/lookout/pkg/uci/ucitest"
)

func newTestRouter(t *testing.T, channel *ucitest.Channel) (*gin.Engine, *uci.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	engine := uci.New(channel, uci.EngineConfig{
		Name:        "test",
		GracePeriod: 10 * time.Millisecond,
		StopTimeout: 10 * time.Millisecond,
	})

	t.Cleanup(func() {
		engine.Destroy()
		<-engine.Done()
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := engine.WaitReady(ctx); err != nil {
		t.Fatalf("WaitReady error: %v", err)
	}

	return NewRouter(engine, config.Default().Server), engine
}

func get(router http.Handler, target string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, target, nil))
	return recorder
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t, ucitest.NewEngine())

	response := get(router, "/health")
	if response.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", response.Code)
	}

	if !strings.Contains(response.Body.String(), `"state":"idle"`) {
		t.Errorf("body = %s, want idle state", response.Body)
	}

	for _, header := range []string{
		"Cross-Origin-Embedder-Policy",
		"Cross-Origin-Opener-Policy",
		"Cross-Origin-Resource-Policy",
	} {
		if response.Header().Get(header) == "" {
			t.Errorf("missing %s header", header)
		}
	}
}

func TestEvaluateMalformedFEN(t *testing.T) {
	router, _ := newTestRouter(t, ucitest.NewEngine())

	response := get(router, "/evaluate?fen="+url.QueryEscape("not a position"))
	if response.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", response.Code)
	}

	if !strings.Contains(response.Body.String(), malformedFENMessage) {
		t.Errorf("body = %s", response.Body)
	}
}

func TestEvaluateBadDepth(t *testing.T) {
	router, _ := newTestRouter(t, ucitest.NewEngine())

	if response := get(router, "/evaluate?depth=-2"); response.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", response.Code)
	}
}

func TestEvaluateStream(t *testing.T) {
	channel := ucitest.NewEngine()
	channel.Reply("go depth 3",
		"info depth 1 seldepth 2 multipv 1 score cp 0 nodes 20 nps 2222 hashfull 0 time 9 pv d2d4 d7d5",
		"bestmove d2d4 ponder d7d5",
	)

	router, engine := newTestRouter(t, channel)

	response := get(router, "/evaluate?depth=3&fen="+url.QueryEscape(chess.DefaultPosition))
	if response.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", response.Code)
	}

	body := response.Body.String()
	for _, want := range []string{"evaluation", `"uci":"d2d4"`, `"san":"d5"`, `"kind":"cp"`, "done"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}

	if state := engine.State(); state != uci.Idle {
		t.Errorf("state = %s, want idle", state)
	}
}

func TestEvaluateStreamSkipsRepeats(t *testing.T) {
	channel := ucitest.NewEngine()
	channel.Reply("go depth 3",
		"info depth 1 seldepth 2 multipv 1 score cp 0 nodes 20 nps 2222 hashfull 0 time 9 pv d2d4 d7d5",
		"info depth 2 score cp 5 pv e2e4",
		"info depth 2 seldepth 3 multipv 1 score cp 0 lowerbound nodes 40 nps 4000 hashfull 0 time 10 pv d2d4 d7d5",
		"bestmove d2d4 ponder d7d5",
	)

	router, _ := newTestRouter(t, channel)

	body := get(router, "/evaluate?depth=3").Body.String()
	if n := strings.Count(body, "event:evaluation"); n != 1 {
		t.Errorf("got %d evaluation events, want 1:\n%s", n, body)
	}
}
