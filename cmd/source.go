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
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/penny-vault/brfin/data"
	"github.com/penny-vault/brfin/library"
	"github.com/penny-vault/brfin/report"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type summarizer interface {
	Summary(ctx context.Context) (string, error)
}

// openSource returns the snapshot when one is configured and the database
// library otherwise
func openSource(ctx context.Context) (library.Source, func(), error) {
	if fn := viper.GetString("snapshot"); fn != "" {
		snapshot, err := library.LoadSnapshot(fn)
		if err != nil {
			return nil, nil, err
		}
		return snapshot, func() {}, nil
	}

	myLibrary, err := openLibrary(ctx)
	if err != nil {
		return nil, nil, err
	}

	return myLibrary, myLibrary.Close, nil
}

func openLibrary(ctx context.Context) (*library.Library, error) {
	dbURL := viper.GetString("db.url")
	if dbURL == "" {
		return nil, fmt.Errorf("no database configured: run 'brfin init' or pass --db-url")
	}
	return library.NewFromDB(ctx, dbURL)
}

// companyFacts resolves a CVM code or CNPJ and loads the company's facts
func companyFacts(ctx context.Context, src library.Source, identifier string) (*data.Company, []*data.Fact, error) {
	company, err := library.Resolve(ctx, src, identifier)
	if err != nil {
		return nil, nil, err
	}

	facts, err := src.FactsFor(ctx, company.ID)
	if err != nil {
		return nil, nil, err
	}

	return company, facts, nil
}

// report flags are shared by every command that builds tables, so they are
// registered once on the root command
func init() {
	addReportFlags(rootCmd)
}

func addReportFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("basis", "consolidated", "consolidated or separate statements")
	bindFlag(cmd, "basis", "basis")

	cmd.PersistentFlags().String("unit", "1", "divide values by thousand, million, billion or a number")
	bindFlag(cmd, "unit", "unit")

	cmd.PersistentFlags().String("level", "none", "maximum account code depth (none, 2, 3 or 4)")
	bindFlag(cmd, "level", "level")

	cmd.PersistentFlags().String("first", report.DefaultFirstPeriod.Format(data.DateLayout), "first period end to report (YYYY-MM-DD)")
	bindFlag(cmd, "first_period", "first")

	cmd.PersistentFlags().String("last", "", "last period end to report (YYYY-MM-DD)")
	bindFlag(cmd, "last_period", "last")

	cmd.PersistentFlags().Int("years", 0, "only keep the most recent columns")
	bindFlag(cmd, "years", "years")

	cmd.PersistentFlags().StringP("format", "f", "markdown", "output format (markdown, json or csv)")
	bindFlag(cmd, "format", "format")
}

// reportConfig reads the report settings from flags, environment and config file
func reportConfig() (report.Config, error) {
	cfg := report.DefaultConfig()

	var err error
	if cfg.Basis, err = report.ParseBasis(viper.GetString("basis")); err != nil {
		return cfg, err
	}

	if cfg.Unit, err = report.ParseUnit(viper.GetString("unit")); err != nil {
		return cfg, err
	}

	if cfg.DetailLevel, err = report.ParseDetailLevel(viper.GetString("level")); err != nil {
		return cfg, err
	}

	if cfg.FirstPeriod, err = report.ParseDate("first period", viper.GetString("first_period")); err != nil {
		return cfg, err
	}

	if cfg.LastPeriod, err = report.ParseDate("last period", viper.GetString("last_period")); err != nil {
		return cfg, err
	}

	cfg.Years = viper.GetInt("years")

	return cfg, cfg.Validate()
}

func render(markdown string) {
	r, _ := glamour.NewTermRenderer(
		// detect background color and pick either the default dark or light theme
		glamour.WithAutoStyle(),
		// wrap output at specific width (default is 80)
		glamour.WithWordWrap(80),
	)

	out, err := r.Render(markdown)
	if err != nil {
		log.Fatal().Err(err).Msg("could not render document")
	}

	fmt.Print(out)
}

func writeTable(out io.Writer, table *report.Table) error {
	switch strings.ToLower(viper.GetString("format")) {
	case "json":
		doc, err := table.JSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(doc))
		return err
	case "csv":
		return table.WriteCSV(out)
	case "markdown", "md", "":
		if out == os.Stdout {
			render(table.Markdown())
			return nil
		}
		_, err := io.WriteString(out, table.Markdown())
		return err
	default:
		return fmt.Errorf("unknown output format %q", viper.GetString("format"))
	}
}
