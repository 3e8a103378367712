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
	"github.com/spf13/viper"

	"github.com/penny-vault/brfin/ratio"
)

// ratiosCmd represents the ratios command
var ratiosCmd = &cobra.Command{
	Use:   "ratios <cvm code | cnpj>",
	Short: "Compute operating performance ratios for a company",
	Long: `Compute margins, returns on assets, capital and equity, and the debt and
capital figures they are derived from. With --shift, returns divide by the
balance of the previous period.`,
	Args: cobra.ExactArgs(1),
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

		table, err := ratio.FromFacts(facts, cfg, viper.GetBool("ratios.shift"))
		if err != nil {
			log.Fatal().Err(err).Str("Company", args[0]).Msg("could not compute ratios")
		}

		if err := writeTable(os.Stdout, table); err != nil {
			log.Fatal().Err(err).Msg("could not write ratios")
		}
	},
}

func init() {
	rootCmd.AddCommand(ratiosCmd)

	ratiosCmd.PersistentFlags().Bool("shift", false, "divide returns by the previous period's balances")
	bindFlag(ratiosCmd, "ratios.shift", "shift")
}
