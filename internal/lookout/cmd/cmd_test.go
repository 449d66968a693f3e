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
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"laptudirm.com/x/lookout/pkg/chess"
	"laptudirm.com/x/lookout/pkg/config"
)

func execute(args ...string) error {
	root := Root()
	root.SetArgs(args)
	return root.Execute()
}

func TestAnalyseMalformedFEN(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := config.Default().Dump(path); err != nil {
		t.Fatal(err)
	}

	err := execute("analyse", "--config", path, "not a fen")
	if err == nil || !strings.Contains(err.Error(), "malformed") {
		t.Fatalf("analyse error = %v, want a malformed FEN error", err)
	}

	if !errors.Is(err, chess.ErrMalformedFEN) {
		t.Errorf("analyse error = %v, want it to wrap chess.ErrMalformedFEN", err)
	}

	if msg := err.Error(); msg != strings.ToLower(msg[:1])+msg[1:] {
		t.Errorf("analyse error %q starts with a capital letter", msg)
	}
}

func TestAnalyseUnsupportedEngine(t *testing.T) {
	t.Setenv("LOOKOUT_ENGINE", "lookout-engine-that-does-not-exist")

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := config.Default().Dump(path); err != nil {
		t.Fatal(err)
	}

	if err := execute("analyse", "--config", path); err == nil {
		t.Fatal("analyse succeeded without an engine")
	}
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lookout", "config.yaml")

	if err := execute("config", "--init", "--config", path); err != nil {
		t.Fatalf("config --init error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("configuration not written: %v", err)
	}

	if !strings.Contains(string(data), "engine:") {
		t.Errorf("unexpected configuration:\n%s", data)
	}
}
