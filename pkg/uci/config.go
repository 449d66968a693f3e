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

import "time"

const (
	DefaultDepth       = 15
	DefaultGracePeriod = 500 * time.Millisecond
	DefaultStopTimeout = time.Second
)

// EngineConfig describes an engine and how lookout talks to it.
type EngineConfig struct {
	Name string `yaml:"name"`
	Cmd  string `yaml:"cmd"`
	Dir  string `yaml:"dir"`
	Arg  string `yaml:"arg"`

	// File which the engine's standard error is redirected to. If empty,
	// standard error is logged at the debug level.
	Stderr string `yaml:"stderr"`

	Depth int `yaml:"depth"`

	// GracePeriod is how long a destroyed engine is given to quit before
	// it is killed.
	GracePeriod time.Duration `yaml:"grace-period"`

	// HandshakeTimeout bounds the startup handshake. Zero waits forever.
	HandshakeTimeout time.Duration `yaml:"handshake-timeout"`

	// StopTimeout bounds how long a new evaluation waits for the bestmove
	// that a stopped search still owes.
	StopTimeout time.Duration `yaml:"stop-timeout"`
}

func (config EngineConfig) withDefaults() EngineConfig {
	if config.Name == "" {
		config.Name = "engine"
	}

	if config.Depth <= 0 {
		config.Depth = DefaultDepth
	}

	if config.GracePeriod <= 0 {
		config.GracePeriod = DefaultGracePeriod
	}

	if config.StopTimeout <= 0 {
		config.StopTimeout = DefaultStopTimeout
	}

	return config
}
