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
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/penny-vault/brfin/data"
	"github.com/penny-vault/brfin/library"
)

// companyCmd represents the company command
var companyCmd = &cobra.Command{
	Use:   "company <cvm code | cnpj>",
	Short: "Show the filings available for a company",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		src, closeSource, err := openSource(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("could not open library")
		}
		defer closeSource()

		company, facts, err := companyFacts(ctx, src, args[0])
		if err != nil {
			log.Fatal().Err(err).Str("Company", args[0]).Msg("could not load company")
		}

		info, err := library.Describe(company.ID, facts)
		if err != nil {
			log.Fatal().Err(err).Str("Company", args[0]).Msg("could not describe company")
		}

		var sb strings.Builder
		keyword := func(s string) string {
			return lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Render(s)
		}

		date := func(t time.Time) string {
			if t.IsZero() {
				return "none"
			}
			return t.Format(data.DateLayout)
		}

		fmt.Fprintf(&sb,
			"%s\n\nCVM Code: %s\nCNPJ: %s\nFacts: %s\nFirst Annual Report: %s\nLast Annual Report: %s\nLast Quarterly Report: %s",
			lipgloss.NewStyle().Bold(true).Render(info.Company.Name),
			keyword(fmt.Sprint(info.Company.ID)),
			keyword(info.Company.FiscalID),
			keyword(fmt.Sprint(info.NumFacts)),
			keyword(date(info.FirstAnnual)),
			keyword(date(info.LastAnnual)),
			keyword(date(info.LastQuarterly)),
		)

		fmt.Println(
			lipgloss.NewStyle().
				Width(60).
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("63")).
				Padding(1, 2).
				Render(sb.String()),
		)
	},
}

func init() {
	rootCmd.AddCommand(companyCmd)
}
