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
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Process is a Channel to an engine running as a child process, speaking
// over its standard input and output.
type Process struct {
	cmd *exec.Cmd

	mu     sync.Mutex
	writer *bufio.Writer
	stdin  io.Closer

	lines chan string
	done  chan struct{}
	err   error

	logger *logrus.Entry
}

var _ Channel = (*Process)(nil)

// StartProcess launches the engine described by config. Use Supported
// first to reject environments which can't run it.
func StartProcess(config EngineConfig) (*Process, error) {
	config = config.withDefaults()

	cmd := exec.Command(config.Cmd, strings.Fields(config.Arg)...)
	cmd.Dir = config.Dir

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, &OpError{Op: "stdin pipe", Err: err}
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &OpError{Op: "stdout pipe", Err: err}
	}

	var stderr io.Reader
	if config.Stderr != "" {
		file, err := os.Create(config.Stderr)
		if err != nil {
			return nil, &OpError{Op: "open stderr", Err: err}
		}

		// the child holds its own descriptor once started
		defer file.Close()
		cmd.Stderr = file
	} else if stderr, err = cmd.StderrPipe(); err != nil {
		return nil, &OpError{Op: "stderr pipe", Err: err}
	}

	if err := cmd.Start(); err != nil {
		return nil, &OpError{Op: "start process", Err: err}
	}

	process := &Process{
		cmd:    cmd,
		writer: bufio.NewWriter(stdin),
		stdin:  stdin,
		lines:  make(chan string),
		done:   make(chan struct{}),
		logger: logrus.WithField("engine", config.Name),
	}

	var group errgroup.Group
	group.Go(func() error {
		return process.readLines(stdout)
	})

	if stderr != nil {
		group.Go(func() error {
			scanner := bufio.NewScanner(stderr)
			for scanner.Scan() {
				process.logger.Debugf("stderr: %s", scanner.Text())
			}

			return scanner.Err()
		})
	}

	go func() {
		// All reads from the pipes must finish before Wait closes them.
		readErr := group.Wait()
		waitErr := cmd.Wait()

		process.mu.Lock()
		switch {
		case readErr != nil:
			process.err = &OpError{Op: "read", Err: readErr}
		case waitErr != nil:
			process.err = &OpError{Op: "wait process", Err: waitErr}
		}
		process.mu.Unlock()

		close(process.lines)
		close(process.done)
	}()

	return process, nil
}

func (process *Process) readLines(stdout io.Reader) error {
	reader := bufio.NewReader(stdout)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) {
				return nil
			}

			return err
		}

		process.lines <- strings.Trim(line, " \n\t\r")
	}
}

func (process *Process) Send(line string) error {
	process.mu.Lock()
	defer process.mu.Unlock()

	select {
	case <-process.done:
		return ErrChannelClosed
	default:
	}

	if _, err := fmt.Fprintln(process.writer, line); err != nil {
		return &OpError{Op: "send", Err: err}
	}

	if err := process.writer.Flush(); err != nil {
		return &OpError{Op: "send", Err: err}
	}

	return nil
}

func (process *Process) Lines() <-chan string {
	return process.lines
}

func (process *Process) Err() error {
	process.mu.Lock()
	defer process.mu.Unlock()
	return process.err
}

// Terminate kills the engine's process and waits for its output to be
// drained.
func (process *Process) Terminate() error {
	_ = process.stdin.Close()

	if err := process.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return &OpError{Op: "kill", Err: err}
	}

	<-process.done
	return nil
}
