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
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/penny-vault/brfin/report"
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report <cvm code | cnpj> <statement>",
	Short: "Build a statement report for a company",
	Long: fmt.Sprintf(`Build a statement report for a company. Columns are annual periods
followed by a last-twelve-months column for income and cash flow statements
when quarterly filings are newer than the last annual filing.

Statements: %s`, strings.Join(report.StatementNames(), ", ")),
	Args: cobra.ExactArgs(2),
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

		table, err := report.BuildNamed(facts, args[1], cfg)
		if err != nil {
			log.Fatal().Err(err).Str("Company", args[0]).Str("Statement", args[1]).Msg("could not build report")
		}

		if err := writeTable(os.Stdout, table); err != nil {
			log.Fatal().Err(err).Msg("could not write report")
		}
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
}
