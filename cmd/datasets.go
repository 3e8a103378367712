// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
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
	"strings"

	"github.com/penny-vault/brfin/data"
	"github.com/penny-vault/brfin/provider"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// datasetsCmd represents the datasets command
var datasetsCmd = &cobra.Command{
	Use:   "datasets [provider]",
	Short: "List the providers and datasets brfin imports from",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		builder := strings.Builder{}

		if len(args) > 0 {
			p, err := provider.Get(strings.ToUpper(args[0]))
			if err != nil {
				log.Fatal().Err(err).Msg("unknown provider")
			}

			builder.WriteString(fmt.Sprintf("# %s\n", p.Name()))
			builder.WriteString(p.Description())
			builder.WriteString("\n\n## Datasets\n")
			for _, dataset := range p.Datasets() {
				start, end := dataset.DateRange()
				builder.WriteString(fmt.Sprintf("- %s (%s to %s): %s\n", dataset.Name, start.Format(data.DateLayout), end.Format(data.DateLayout), dataset.Description))
			}

			builder.WriteString("\n## Configuration\n")
			for key, description := range p.ConfigDescription() {
				builder.WriteString(fmt.Sprintf("- `provider.%s`: %s\n", key, description))
			}
		} else {
			builder.WriteString("# Available Providers\n")
			for _, name := range provider.Names() {
				p := provider.Map[name]
				builder.WriteString(fmt.Sprintf("\n## %s\n", p.Name()))
				builder.WriteString(p.Description())
			}
		}

		render(builder.String())
	},
}

func init() {
	rootCmd.AddCommand(datasetsCmd)
}
