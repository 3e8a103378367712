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
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/goccy/go-json"
	"github.com/gosimple/slug"
	"github.com/rs/zerolog/log"

	"github.com/penny-vault/brfin/data"
	"github.com/penny-vault/brfin/library"
	"github.com/penny-vault/brfin/ratio"
	"github.com/penny-vault/brfin/report"
)

// Document holds every statement and the ratios of one company
type Document struct {
	CompanyID   int                        `json:"company_id"`
	CompanyName string                     `json:"company_name"`
	FiscalID    string                     `json:"fiscal_id"`
	Statements  map[string]json.RawMessage `json:"statements"`
	Ratios      json.RawMessage            `json:"ratios,omitempty"`
	Warnings    []string                   `json:"warnings,omitempty"`
}

// NewDocument builds the statements and ratios of a company. Statements
// without data are left out and reported as warnings.
func NewDocument(company *data.Company, facts []*data.Fact, cfg report.Config, shiftBalances bool) (*Document, error) {
	doc := &Document{
		CompanyID:   company.ID,
		CompanyName: company.Name,
		FiscalID:    company.FiscalID,
		Statements:  make(map[string]json.RawMessage),
	}

	for _, name := range report.StatementNames() {
		table, err := report.BuildNamed(facts, name, cfg)
		if err != nil {
			return nil, err
		}

		if table.IsEmpty() {
			for _, warning := range table.Warnings {
				doc.Warnings = append(doc.Warnings, fmt.Sprintf("%s: %s", warning.Statement, warning.Message))
			}
			continue
		}

		if doc.Statements[name], err = table.JSON(); err != nil {
			return nil, err
		}
	}

	ratios, err := ratio.FromFacts(facts, cfg, shiftBalances)
	if err != nil {
		return nil, err
	}

	if !ratios.IsEmpty() {
		if doc.Ratios, err = ratios.JSON(); err != nil {
			return nil, err
		}
	}

	return doc, nil
}

// FileName is the name of a company's export file
func FileName(company *data.Company) string {
	return fmt.Sprintf("%d-%s.json", company.ID, slug.Make(company.Name))
}

// Result is the outcome of exporting one company
type Result struct {
	Company  *data.Company
	FileName string
	Err      error
}

// Exporter writes one JSON document per company using a pool of workers
type Exporter struct {
	Source        library.Source
	Dir           string
	Config        report.Config
	ShiftBalances bool
	Workers       int
}

// Run exports every company and returns the results ordered by company id.
// Once ctx is done the remaining companies are not exported and their
// results carry the context error.
func (exporter *Exporter) Run(ctx context.Context, companies []*data.Company) []Result {
	workers := exporter.Workers
	if workers <= 0 {
		workers = 1
	}

	queue := make(chan *data.Company, workers)
	results := make(chan Result, len(companies))

	wg := &sync.WaitGroup{}
	for ii := 0; ii < workers; ii++ {
		wg.Add(1)
		go exporter.exportCompanies(ctx, queue, results, wg)
	}

enqueue:
	for idx, company := range companies {
		select {
		case queue <- company:
		case <-ctx.Done():
			for _, skipped := range companies[idx:] {
				results <- Result{Company: skipped, Err: ctx.Err()}
			}
			break enqueue
		}
	}
	close(queue)

	wg.Wait()
	close(results)

	out := make([]Result, 0, len(companies))
	for result := range results {
		out = append(out, result)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Company.ID < out[j].Company.ID
	})

	return out
}

func (exporter *Exporter) exportCompanies(ctx context.Context, queue <-chan *data.Company, results chan<- Result, wg *sync.WaitGroup) {
	defer wg.Done()

	for company := range queue {
		result := Result{Company: company}
		if err := ctx.Err(); err != nil {
			result.Err = err
			results <- result
			continue
		}

		result.FileName, result.Err = exporter.exportCompany(ctx, company)
		if result.Err != nil {
			log.Error().Err(result.Err).Int("CompanyID", company.ID).Msg("export failed")
		}
		results <- result
	}
}

func (exporter *Exporter) exportCompany(ctx context.Context, company *data.Company) (string, error) {
	facts, err := exporter.Source.FactsFor(ctx, company.ID)
	if err != nil {
		return "", err
	}

	doc, err := NewDocument(company, facts, exporter.Config, exporter.ShiftBalances)
	if err != nil {
		return "", err
	}

	contents, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", err
	}

	fn := filepath.Join(exporter.Dir, FileName(company))
	if err := os.WriteFile(fn, contents, 0o644); err != nil {
		return "", err
	}

	log.Debug().Int("CompanyID", company.ID).Str("FileName", fn).Msg("exported company")
	return fn, nil
}
