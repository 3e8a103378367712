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
package library

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xeonx/timeago"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type summaryStats struct {
	Title        string
	Location     string
	NumCompanies int
	TotalRecords int
	FirstPeriod  time.Time
	LastPeriod   time.Time
	LastUpdated  time.Time
	Files        []*FileRecord
}

// maxSummaryFiles limits the recent imports listed in a summary
const maxSummaryFiles = 10

func summaryDocument(stats *summaryStats) (string, error) {
	p := message.NewPrinter(language.English)
	builder := strings.Builder{}

	if _, err := builder.WriteString(fmt.Sprintf("# %s\n", stats.Title)); err != nil {
		return "", err
	}

	if _, err := builder.WriteString("## Details\n\n"); err != nil {
		return "", err
	}

	if _, err := builder.WriteString(fmt.Sprintf("%s\n\n", stats.Location)); err != nil {
		return "", err
	}

	if _, err := builder.WriteString(p.Sprintf("  * Companies: %d\n", stats.NumCompanies)); err != nil {
		return "", err
	}

	if _, err := builder.WriteString(p.Sprintf("  * Total Records: %d\n", stats.TotalRecords)); err != nil {
		return "", err
	}

	if !stats.FirstPeriod.IsZero() {
		if _, err := builder.WriteString(fmt.Sprintf("  * Periods: %s - %s\n",
			stats.FirstPeriod.Format("Jan 2006"), stats.LastPeriod.Format("Jan 2006"))); err != nil {
			return "", err
		}
	}

	builder.WriteString("\n")

	if stats.LastUpdated.IsZero() {
		if _, err := builder.WriteString("Last Updated: Never\n\n"); err != nil {
			return "", err
		}
	} else {
		age := timeago.English.Format(stats.LastUpdated)
		if _, err := builder.WriteString(fmt.Sprintf("Last Updated: %s (%s)\n\n", age, stats.LastUpdated.Local().Format("01/02/2006"))); err != nil {
			return "", err
		}
	}

	if len(stats.Files) == 0 {
		return builder.String(), nil
	}

	if _, err := builder.WriteString("## Recent imports\n\n"); err != nil {
		return "", err
	}

	for idx, file := range stats.Files {
		if idx == maxSummaryFiles {
			break
		}
		if _, err := builder.WriteString(p.Sprintf("  * %s: %d facts (%s) [%s]\n", file.Name, file.NumFacts,
			file.LastImport.Local().Format("01/02/2006"), file.RunID.String()[:6])); err != nil {
			return "", err
		}
	}

	return builder.String(), nil
}

// Summary returns a description of the library in markdown
func (myLibrary *Library) Summary(ctx context.Context) (string, error) {
	stats := &summaryStats{
		Title:    myLibrary.Name,
		Location: fmt.Sprintf("Database: %s", myLibrary.DBUrl),
	}

	var err error
	if stats.NumCompanies, err = myLibrary.NumCompanies(ctx); err != nil {
		return "", err
	}

	if stats.TotalRecords, err = myLibrary.TotalRecords(ctx); err != nil {
		return "", err
	}

	if stats.FirstPeriod, stats.LastPeriod, err = myLibrary.PeriodRange(ctx); err != nil {
		return "", err
	}

	if stats.LastUpdated, err = myLibrary.LastUpdated(ctx); err != nil {
		return "", err
	}

	if stats.Files, err = myLibrary.Files(ctx); err != nil {
		return "", err
	}

	return summaryDocument(stats)
}
