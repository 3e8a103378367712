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
	"time"

	"github.com/gosimple/slug"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/penny-vault/brfin/backblaze"
	"github.com/penny-vault/brfin/data"
)

// snapshotCmd represents the snapshot command
var snapshotCmd = &cobra.Command{
	Use:   "snapshot [file.parquet]",
	Short: "Save the whole library to a parquet file",
	Long: `Save every fact in the library to a zstd compressed parquet file that
other brfin commands can read with --snapshot. When backblaze credentials are
configured the file is also uploaded to the configured bucket.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		myLibrary, err := openLibrary(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("could not connect to library")
		}
		defer myLibrary.Close()

		fn := fmt.Sprintf("%s.parquet", slug.Make(fmt.Sprintf("%s %s", myLibrary.Name, time.Now().Format(data.DateLayout))))
		if len(args) > 0 {
			fn = args[0]
		}

		facts, err := myLibrary.AllFacts(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("could not load facts")
		}

		if err := data.SaveParquet(facts, fn); err != nil {
			log.Fatal().Err(err).Str("FileName", fn).Msg("could not save snapshot")
		}

		log.Info().Str("FileName", fn).Int("NumFacts", len(facts)).Msg("saved snapshot")

		b2 := backblaze.Config{
			ApplicationID:  viper.GetString("backblaze.application_id"),
			ApplicationKey: viper.GetString("backblaze.application_key"),
			Bucket:         viper.GetString("backblaze.bucket"),
			Directory:      viper.GetString("backblaze.directory"),
		}

		if !b2.Enabled() {
			return
		}

		if err := backblaze.Upload(fn, b2); err != nil {
			log.Fatal().Err(err).Str("FileName", fn).Msg("could not upload snapshot")
		}
	},
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
}
