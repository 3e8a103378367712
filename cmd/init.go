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
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/jackc/pgx/v5"
	"github.com/pelletier/go-toml/v2"
	"github.com/penny-vault/brfin/db"
	"github.com/penny-vault/brfin/library"
	"github.com/penny-vault/brfin/provider"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type dbSettings struct {
	URL string `toml:"url"`
}

type providerSettings struct {
	RateLimit   int    `toml:"rate_limit"`
	DownloadDir string `toml:"download_dir,omitempty"`
}

// settings is the layout of the config file written by init
type settings struct {
	DB       dbSettings       `toml:"db"`
	Provider providerSettings `toml:"provider"`
	Basis    string           `toml:"basis"`
	Unit     string           `toml:"unit"`
}

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Gather database configuration and setup schema",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		myLibrary := &library.Library{}
		rateLimit := strconv.Itoa(provider.DefaultRateLimit)
		config := settings{
			Basis: "consolidated",
			Unit:  "1",
		}

		form := huh.NewForm(
			// Gather details about the library and who owns it
			huh.NewGroup(
				huh.NewInput().
					Title("Give the library a name:").
					Value(&myLibrary.Name),

				huh.NewInput().
					Title("Who owns the library?").
					Value(&myLibrary.Owner),
			),

			// Get details about the database
			huh.NewGroup(
				huh.NewInput().
					Title("Provide the DSN for connecting to your PostgreSQL database (postgres://[user[:password]@][netloc][:port][/dbname][?param1=value1&...])").
					Value(&myLibrary.DBUrl).
					Validate(func(dsn string) error {
						_, err := pgx.ParseConfig(dsn)
						return err
					}),
			),

			// Configure the CVM downloads
			huh.NewGroup(
				huh.NewInput().
					Title((&provider.CVM{}).ConfigDescription()["rate_limit"]).
					Value(&rateLimit).
					Validate(func(value string) error {
						_, err := strconv.Atoi(value)
						return err
					}),

				huh.NewInput().
					Title((&provider.CVM{}).ConfigDescription()["download_dir"]).
					Value(&config.Provider.DownloadDir),
			),

			huh.NewGroup(
				huh.NewSelect[string]().
					Title("Which statements should reports use by default?").
					Options(
						huh.NewOption("Consolidated", "consolidated"),
						huh.NewOption("Separate (individual)", "separate"),
					).
					Value(&config.Basis),

				huh.NewSelect[string]().
					Title("Report values in:").
					Options(
						huh.NewOption("Units (R$)", "1"),
						huh.NewOption("Thousands", "thousand"),
						huh.NewOption("Millions", "million"),
						huh.NewOption("Billions", "billion"),
					).
					Value(&config.Unit),
			),
		)

		err := form.Run()
		if err != nil {
			log.Fatal().Err(err).Msg("error gathering database settings")
		}

		config.DB.URL = myLibrary.DBUrl
		config.Provider.RateLimit, _ = strconv.Atoi(rateLimit)

		log.Info().Msg("creating database tables")

		// run migration
		err = db.Migrate(myLibrary.DBUrl)
		if err != nil {
			log.Fatal().Err(err).Msg("error running database migration")
		}

		log.Info().Msg("database tables created")
		log.Info().Msg("Saving library name and owner to database")

		// save library name and owner to database
		if err := myLibrary.Connect(ctx); err != nil {
			log.Fatal().Err(err).Msg("could not connect to database")
		}
		defer myLibrary.Close()

		err = myLibrary.SaveDB(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("error saving library settings to database")
		}

		// save database settings to config file
		home, err := os.UserHomeDir()
		if err != nil {
			log.Fatal().Err(err).Msg("could not determine user home directory")
		}

		configFN := filepath.Join(home, ".brfin.toml")
		log.Info().Str("ConfigFile", configFN).Msg("Saving database connection info to config file")
		configData, err := toml.Marshal(config)
		if err != nil {
			log.Fatal().Err(err).Msg("could not marshal configuration data")
		}

		err = os.WriteFile(configFN, configData, 0600)
		if err != nil {
			log.Fatal().Err(err).Str("FileName", configFN).Msg("could not save configuration to file")
		}

		log.Info().Msg("Your data library has been initialized")
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
