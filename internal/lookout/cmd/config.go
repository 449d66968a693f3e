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
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	lookout "laptudirm.com/x/lookout/pkg/config"
)

func Config() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			if initialize, _ := cmd.Flags().GetBool("init"); initialize {
				path, _ := cmd.Flags().GetString("config")
				if path == "" {
					path = lookout.File
				}

				if err := lookout.Default().Dump(path); err != nil {
					return err
				}

				logrus.Infof("Wrote the default configuration to \x1b[33m%s\x1b[0m", path)
				return nil
			}

			config, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			data, err := yaml.Marshal(config)
			if err != nil {
				return err
			}

			fmt.Print(string(data))
			return nil
		},
	}

	cmd.Flags().Bool("init", false, "Write the default configuration file")
	return cmd
}
