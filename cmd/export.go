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

	"github.com/penny-vault/brfin/data"
	"github.com/penny-vault/brfin/export"
	"github.com/penny-vault/brfin/library"
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export [cvm code | cnpj...]",
	Short: "Write every statement and the ratios of companies to JSON files",
	Long: `Write one JSON document per company holding every statement with data
and the ratio table. Without arguments every company in the library is
exported.`,
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

		var companies []*data.Company
		if len(args) == 0 {
			if companies, err = src.Companies(ctx); err != nil {
				log.Fatal().Err(err).Msg("could not list companies")
			}
		} else {
			resolver := library.NewResolver(src)
			for _, identifier := range args {
				company, err := resolver.Resolve(ctx, identifier)
				if err != nil {
					log.Fatal().Err(err).Str("Company", identifier).Msg("could not find company")
				}
				companies = append(companies, company)
			}
		}

		dir := viper.GetString("export.dir")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatal().Err(err).Str("Dir", dir).Msg("could not create export directory")
		}

		exporter := &export.Exporter{
			Source:        src,
			Dir:           dir,
			Config:        cfg,
			ShiftBalances: viper.GetBool("export.shift"),
			Workers:       viper.GetInt("export.workers"),
		}

		failed := 0
		for _, result := range exporter.Run(ctx, companies) {
			if result.Err != nil {
				failed++
			}
		}

		log.Info().Int("NumCompanies", len(companies)).Int("NumFailed", failed).Str("Dir", dir).Msg("export finished")
		if failed > 0 {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.PersistentFlags().StringP("out", "o", ".", "directory to write files to")
	bindFlag(exportCmd, "export.dir", "out")

	exportCmd.PersistentFlags().IntP("workers", "w", 4, "number of companies exported concurrently")
	bindFlag(exportCmd, "export.workers", "workers")

	exportCmd.PersistentFlags().Bool("shift", false, "divide returns by the previous period's balances")
	bindFlag(exportCmd, "export.shift", "shift")
}
