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
	"sync"
	"time"

	"github.com/hako/durafmt"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/penny-vault/brfin/data"
	"github.com/penny-vault/brfin/healthcheck"
	"github.com/penny-vault/brfin/provider"
)

// updateCmd represents the update command
var updateCmd = &cobra.Command{
	Use:   "update [dataset...]",
	Short: "Import new and changed CVM files into the library",
	Long: `The update sub-command lists the files published by the CVM for each
dataset (DFP and ITR when none are given), downloads the files whose ETag
changed since the last import and saves their facts to the library.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := log.Logger.WithContext(context.Background())
		pingID := viper.GetString("healthchecks.ping_id")

		if err := healthcheck.Start(pingID); err != nil {
			log.Warn().Err(err).Msg("healthcheck start ping failed")
		}

		myLibrary, err := openLibrary(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("could not connect to library")
		}
		defer myLibrary.Close()

		if len(args) == 0 {
			args = []string{"DFP", "ITR"}
		}

		datasets := make([]provider.Dataset, 0, len(args))
		for _, name := range args {
			dataset, err := provider.Lookup("CVM", strings.ToUpper(name))
			if err != nil {
				log.Fatal().Err(err).Msg("unknown dataset")
			}
			datasets = append(datasets, dataset)
		}

		opts := &provider.Options{
			BaseURL:     viper.GetString("provider.base_url"),
			RateLimit:   viper.GetInt("provider.rate_limit"),
			DownloadDir: viper.GetString("provider.download_dir"),
			Ledger:      myLibrary,
		}

		queue := make(chan *data.Batch, 2)
		summaries := make(chan data.RunSummary, 10)

		wg := &sync.WaitGroup{}
		wg.Add(1)
		go myLibrary.SaveBatches(queue, wg)

		counts := make(map[data.RunStatus]int)
		numFacts := 0
		done := make(chan struct{})
		go func() {
			for summary := range summaries {
				counts[summary.Status]++
				numFacts += summary.NumFacts
				log.Debug().Object("Run", &summary).Msg("file finished")
			}
			close(done)
		}()

		startTime := time.Now()
		for _, dataset := range datasets {
			log.Info().Str("Dataset", dataset.Name).Msg("updating dataset")
			dataset.Fetch(ctx, opts, queue, summaries)
		}

		close(queue)
		close(summaries)
		wg.Wait()
		<-done

		runTime := time.Since(startTime)
		report := fmt.Sprintf("imported %d files (%d facts), skipped %d unchanged, %d failed in %s",
			counts[data.RunSuccess], numFacts, counts[data.RunSkipped], counts[data.RunFailed], durafmt.Parse(runTime).LimitFirstN(2))

		if counts[data.RunFailed] > 0 {
			if err := healthcheck.Failure(pingID, report); err != nil {
				log.Warn().Err(err).Msg("healthcheck failure ping failed")
			}
			log.Error().Str("RunTime", durafmt.Parse(runTime).String()).Msg(report)
			return
		}

		if err := healthcheck.Success(pingID, report); err != nil {
			log.Warn().Err(err).Msg("healthcheck success ping failed")
		}

		log.Info().Str("RunTime", durafmt.Parse(runTime).String()).Int("NumFacts", numFacts).Msg(report)
	},
}

func init() {
	rootCmd.AddCommand(updateCmd)
}
