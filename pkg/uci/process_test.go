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
	"errors"
	"os/exec"
	"path/filepath"
	"testing"
	"time"
)

// cat echoes every command back, which is enough to exercise the pipes.
func startCat(t *testing.T) *Process {
	t.Helper()

	if _, err := exec.LookPath("cat"); err != nil {
		t.Skip("cat not available")
	}

	process, err := StartProcess(EngineConfig{Name: "cat", Cmd: "cat"})
	if err != nil {
		t.Fatalf("StartProcess error: %v", err)
	}

	t.Cleanup(func() { _ = process.Terminate() })
	return process
}

func TestProcess(t *testing.T) {
	process := startCat(t)

	if err := process.Send("readyok"); err != nil {
		t.Fatalf("Send error: %v", err)
	}

	select {
	case line := <-process.Lines():
		if line != "readyok" {
			t.Errorf("read %q, want readyok", line)
		}
	case <-time.After(time.Second):
		t.Fatal("no line read from the process")
	}
}

func TestProcessTerminate(t *testing.T) {
	process := startCat(t)

	if err := process.Terminate(); err != nil {
		t.Fatalf("Terminate error: %v", err)
	}

	if _, ok := <-process.Lines(); ok {
		t.Error("lines still open after Terminate")
	}

	if err := process.Send("isready"); !errors.Is(err, ErrChannelClosed) {
		t.Errorf("Send after Terminate = %v, want ErrChannelClosed", err)
	}
}

func TestProcessStderrFile(t *testing.T) {
	if _, err := exec.LookPath("cat"); err != nil {
		t.Skip("cat not available")
	}

	process, err := StartProcess(EngineConfig{
		Cmd:    "cat",
		Stderr: filepath.Join(t.TempDir(), "stderr.log"),
	})
	if err != nil {
		t.Fatalf("StartProcess error: %v", err)
	}

	if err := process.Terminate(); err != nil {
		t.Fatalf("Terminate error: %v", err)
	}
}

func TestSupported(t *testing.T) {
	if _, err := exec.LookPath("cat"); err != nil {
		t.Skip("cat not available")
	}

	if err := Supported(EngineConfig{Cmd: "cat"}); err != nil {
		t.Errorf("Supported(cat) = %v", err)
	}

	for _, config := range []EngineConfig{
		{},
		{Cmd: "lookout-engine-that-does-not-exist"},
		{Cmd: "./engine", Dir: t.TempDir()},
	} {
		if err := Supported(config); !errors.Is(err, ErrUnsupported) {
			t.Errorf("Supported(%+v) = %v, want ErrUnsupported", config, err)
		}
	}
}
