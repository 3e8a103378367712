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

	"github.com/penny-vault/brfin/data"
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import <file.csv...>",
	Short: "Load facts from CSV files into the library",
	Long: `Load facts written by 'brfin snapshot' or any CSV file with the fact
columns (company_id, company_name, fiscal_id, kind, version, period_reference,
period_begin, period_end, period_order, account_code, account_name, basis,
account_fixed, value) into the library.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		myLibrary, err := openLibrary(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("could not connect to library")
		}
		defer myLibrary.Close()

		for _, fn := range args {
			fh, err := os.Open(fn)
			if err != nil {
				log.Fatal().Err(err).Str("FileName", fn).Msg("could not open file")
			}

			facts, err := data.LoadCSV(fh)
			fh.Close()
			if err != nil {
				log.Fatal().Err(err).Str("FileName", fn).Msg("could not parse file")
			}

			if err := myLibrary.SaveFacts(ctx, facts); err != nil {
				log.Fatal().Err(err).Str("FileName", fn).Msg("could not save facts")
			}

			log.Info().Str("FileName", fn).Int("NumFacts", len(facts)).Msg("imported facts")
		}
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
