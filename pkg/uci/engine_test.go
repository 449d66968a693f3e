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
	"context"
	"errors"
	"testing"
	"time"

	"laptudirm.com/x/lookout/pkg/uci/ucitest"
)

func newTestEngine(t *testing.T, channel *ucitest.Channel) *Engine {
	t.Helper()

	engine := New(channel, EngineConfig{
		Name:        "test",
		GracePeriod: 50 * time.Millisecond,
		StopTimeout: 50 * time.Millisecond,
	})

	t.Cleanup(func() {
		engine.Destroy()
		<-engine.Done()
	})

	return engine
}

func waitReady(t *testing.T, engine *Engine) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := engine.WaitReady(ctx); err != nil {
		t.Fatalf("WaitReady error: %v", err)
	}
}

func TestEngineReady(t *testing.T) {
	channel := ucitest.NewEngine()
	engine := newTestEngine(t, channel)

	waitReady(t, engine)

	if state := engine.State(); state != Idle {
		t.Errorf("state = %s, want idle", state)
	}

	select {
	case <-engine.Ready():
	default:
		t.Error("Ready() not closed after WaitReady")
	}
}

func TestEngineNotReadyOutOfOrder(t *testing.T) {
	channel := ucitest.NewChannel()
	channel.Reply("isready", "uciok", "readyok")
	engine := newTestEngine(t, channel)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := engine.WaitReady(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("WaitReady error = %v, want the handshake to stay pending", err)
	}

	if state := engine.State(); state != Initializing {
		t.Errorf("state = %s, want initializing", state)
	}
}

func TestEngineHandshakeTimeout(t *testing.T) {
	engine := New(ucitest.NewChannel(), EngineConfig{
		HandshakeTimeout: 20 * time.Millisecond,
		GracePeriod:      10 * time.Millisecond,
	})
	defer engine.Destroy()

	if err := engine.WaitReady(context.Background()); !errors.Is(err, ErrHandshakeTimeout) {
		t.Fatalf("WaitReady error = %v, want ErrHandshakeTimeout", err)
	}
}

func TestEngineChannelErrorBeforeReady(t *testing.T) {
	crash := errors.New("engine crashed")

	channel := ucitest.NewChannel()
	channel.On("isready", func(channel *ucitest.Channel) {
		channel.Fail(crash)
	})

	engine := newTestEngine(t, channel)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := engine.WaitReady(ctx)
	if !errors.Is(err, ErrChannelClosed) || !errors.Is(err, crash) {
		t.Fatalf("WaitReady error = %v, want ErrChannelClosed wrapping the crash", err)
	}

	<-engine.Done()
	if !errors.Is(engine.Err(), crash) {
		t.Errorf("Err() = %v", engine.Err())
	}
}

func TestEngineDestroy(t *testing.T) {
	channel := ucitest.NewEngine()
	engine := newTestEngine(t, channel)
	waitReady(t, engine)

	start := time.Now()
	engine.Destroy()

	select {
	case <-engine.Done():
	case <-time.After(time.Second):
		t.Fatal("channel still open long after the grace period")
	}

	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("engine terminated after %s, before the grace period", elapsed)
	}

	if n := channel.Count("quit"); n != 1 {
		t.Errorf("quit sent %d times, want 1", n)
	}

	if !errors.Is(engine.Err(), ErrChannelClosed) {
		t.Errorf("Err() = %v, want ErrChannelClosed", engine.Err())
	}
}

func TestEngineDestroyCooperative(t *testing.T) {
	channel := ucitest.NewEngine()
	channel.On("quit", func(channel *ucitest.Channel) {
		channel.Fail(nil)
	})

	engine := newTestEngine(t, channel)
	waitReady(t, engine)
	engine.Destroy()

	<-engine.Done()
	time.Sleep(100 * time.Millisecond)

	select {
	case <-channel.Terminated():
		t.Error("engine which quit on its own was still terminated")
	default:
	}
}

func TestEngineDestroyBeforeReady(t *testing.T) {
	engine := newTestEngine(t, ucitest.NewChannel())
	engine.Destroy()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := engine.WaitReady(ctx); err == nil || errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("WaitReady error = %v, want the handshake to fail", err)
	}
}

func TestStartUnsupported(t *testing.T) {
	_, err := Start(EngineConfig{Cmd: "lookout-engine-that-does-not-exist"})
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("Start error = %v, want ErrUnsupported", err)
	}
}
