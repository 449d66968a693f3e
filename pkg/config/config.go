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

// Package config loads lookout's configuration: a YAML file in the user's
// configuration directory, overridden by the environment.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"laptudirm.com/x/lookout/pkg/uci"
)

const FilePermissions = 0755

// File is the default location of lookout's configuration file.
var File = filepath.Join(xdg.ConfigHome, "lookout", "config.yaml")

type Config struct {
	Engine uci.EngineConfig `yaml:"engine"`
	Server ServerConfig     `yaml:"server"`
}

type ServerConfig struct {
	Port         string   `yaml:"port"`
	AllowOrigins []string `yaml:"allow-origins"`
}

// Default returns the configuration used when nothing else is specified.
func Default() Config {
	return Config{
		Engine: uci.EngineConfig{
			Name:        "stockfish",
			Cmd:         "stockfish",
			Depth:       uci.DefaultDepth,
			GracePeriod: uci.DefaultGracePeriod,
			StopTimeout: uci.DefaultStopTimeout,
		},

		Server: ServerConfig{
			Port:         "3000",
			AllowOrigins: []string{"*"},
		},
	}
}

// Load reads the configuration file at path on top of the defaults and
// applies environment overrides, including those from a .env file in the
// working directory. An empty path loads the default File, which may be
// missing.
func Load(path string) (Config, error) {
	config := Default()

	explicit := path != ""
	if !explicit {
		path = File
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return Config{}, err
		}

	case explicit || !errors.Is(err, fs.ErrNotExist):
		return Config{}, err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, err
	}

	return config, config.applyEnv()
}

func (config *Config) applyEnv() error {
	if cmd, ok := os.LookupEnv("LOOKOUT_ENGINE"); ok {
		config.Engine.Cmd = cmd
	}

	if arg, ok := os.LookupEnv("LOOKOUT_ENGINE_ARGS"); ok {
		config.Engine.Arg = arg
	}

	if depth, ok := os.LookupEnv("LOOKOUT_DEPTH"); ok {
		n, err := strconv.Atoi(depth)
		if err != nil {
			return errors.New("config: LOOKOUT_DEPTH must be an integer")
		}

		config.Engine.Depth = n
	}

	if port, ok := os.LookupEnv("PORT"); ok {
		config.Server.Port = port
	}

	return nil
}

// Dump writes the configuration to path, creating its directory.
func (config Config) Dump(path string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), FilePermissions); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
