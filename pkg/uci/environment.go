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
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Supported checks that the environment can host the engine described by
// config, without starting anything: the platform must be able to spawn
// processes and the engine's binary must be an executable file.
func Supported(config EngineConfig) error {
	switch runtime.GOOS {
	case "js", "wasip1":
		return fmt.Errorf("%w: %s can't spawn processes", ErrUnsupported, runtime.GOOS)
	}

	if config.Cmd == "" {
		return fmt.Errorf("%w: no engine command configured", ErrUnsupported)
	}

	// Relative paths are resolved from the engine's working directory.
	binary := config.Cmd
	if config.Dir != "" && strings.ContainsRune(binary, filepath.Separator) && !filepath.IsAbs(binary) {
		binary = filepath.Join(config.Dir, binary)
	}

	if _, err := exec.LookPath(binary); err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupported, err)
	}

	return nil
}
