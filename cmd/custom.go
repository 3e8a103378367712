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
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/penny-vault/brfin/report"
)

// customCmd represents the custom command
var customCmd = &cobra.Command{
	Use:   "custom <cvm code | cnpj> <account code...>",
	Short: "Build a report from a list of account codes",
	Long: `Build a report with one row per requested account code, in the order
given. Codes may come from any statement; income and cash flow codes use
last-twelve-months values in the trailing column.`,
	Args: cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		cfg, err := reportConfig()
		if err != nil {
			log.Fatal().Err(err).Msg("invalid report settings")
		}

		src, closeSource, err := openSource(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("could not open library")
		}
		defer closeSource()

		_, facts, err := companyFacts(ctx, src, args[0])
		if err != nil {
			log.Fatal().Err(err).Str("Company", args[0]).Msg("could not load company")
		}

		table, err := report.Custom(facts, args[1:], cfg)
		if err != nil {
			log.Fatal().Err(err).Strs("Codes", args[1:]).Msg("could not build custom report")
		}

		if err := writeTable(os.Stdout, table); err != nil {
			log.Fatal().Err(err).Msg("could not write report")
		}
	},
}

func init() {
	rootCmd.AddCommand(customCmd)
}
