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
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/penny-vault/brfin/library"
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <name>",
	Short: "Find companies whose name contains the given text",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		src, closeSource, err := openSource(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("could not open library")
		}
		defer closeSource()

		text := strings.Join(args, " ")
		companies, err := library.Search(ctx, src, text)
		if err != nil {
			log.Fatal().Err(err).Str("Text", text).Msg("search failed")
		}

		builder := strings.Builder{}
		builder.WriteString(fmt.Sprintf("# Companies matching \"%s\"\n\n", text))

		if len(companies) == 0 {
			builder.WriteString("No companies found.\n")
		} else {
			builder.WriteString("| CVM Code | CNPJ | Name |\n|---:|---|---|\n")
			for _, company := range companies {
				builder.WriteString(fmt.Sprintf("| %d | %s | %s |\n", company.ID, company.FiscalID, company.Name))
			}
		}

		render(builder.String())
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
}
