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
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/penny-vault/brfin/data"
	"github.com/rs/zerolog/log"
)

// Snapshot is an immutable in-memory fact table. Every call returns copies
// so callers can never change the snapshot.
type Snapshot struct {
	Name string

	byCompany map[int][]*data.Fact
	companies []*data.Company
	numFacts  int
	firstEnd  time.Time
	lastEnd   time.Time
	createdOn time.Time
}

// NewSnapshot indexes facts by company
func NewSnapshot(name string, facts []*data.Fact) *Snapshot {
	snapshot := &Snapshot{
		Name:      name,
		byCompany: make(map[int][]*data.Fact),
		numFacts:  len(facts),
		createdOn: time.Now(),
	}

	for _, fact := range data.Copy(facts) {
		if _, ok := snapshot.byCompany[fact.CompanyID]; !ok {
			snapshot.companies = append(snapshot.companies, data.CompanyFromFact(fact))
		}
		snapshot.byCompany[fact.CompanyID] = append(snapshot.byCompany[fact.CompanyID], fact)

		if snapshot.firstEnd.IsZero() || fact.PeriodEnd.Before(snapshot.firstEnd) {
			snapshot.firstEnd = fact.PeriodEnd
		}
		if fact.PeriodEnd.After(snapshot.lastEnd) {
			snapshot.lastEnd = fact.PeriodEnd
		}
	}

	sort.Slice(snapshot.companies, func(i, j int) bool {
		if snapshot.companies[i].Name == snapshot.companies[j].Name {
			return snapshot.companies[i].ID < snapshot.companies[j].ID
		}
		return snapshot.companies[i].Name < snapshot.companies[j].Name
	})

	return snapshot
}

// LoadSnapshot reads a parquet or CSV fact file
func LoadSnapshot(fn string) (*Snapshot, error) {
	var (
		facts []*data.Fact
		err   error
	)

	switch strings.ToLower(filepath.Ext(fn)) {
	case ".csv":
		var fh *os.File
		fh, err = os.Open(fn)
		if err != nil {
			return nil, err
		}
		defer fh.Close()
		facts, err = data.LoadCSV(fh)
	default:
		facts, err = data.LoadParquet(fn)
	}

	if err != nil {
		log.Error().Err(err).Str("FileName", fn).Msg("could not load snapshot")
		return nil, err
	}

	snapshot := NewSnapshot(filepath.Base(fn), facts)
	if info, err := os.Stat(fn); err == nil {
		snapshot.createdOn = info.ModTime()
	}

	return snapshot, nil
}

// FactsFor returns a copy of the company's facts
func (snapshot *Snapshot) FactsFor(ctx context.Context, companyID int) ([]*data.Fact, error) {
	facts, ok := snapshot.byCompany[companyID]
	if !ok {
		return nil, &NotFoundError{Identifier: strconv.Itoa(companyID)}
	}
	return data.Copy(facts), nil
}

// Companies returns copies of the companies in the snapshot ordered by name
func (snapshot *Snapshot) Companies(ctx context.Context) ([]*data.Company, error) {
	companies := make([]*data.Company, len(snapshot.companies))
	for idx, company := range snapshot.companies {
		dup := *company
		companies[idx] = &dup
	}
	return companies, nil
}

// Facts returns a copy of every fact in the snapshot
func (snapshot *Snapshot) Facts() []*data.Fact {
	facts := make([]*data.Fact, 0, snapshot.numFacts)
	for _, company := range snapshot.companies {
		facts = append(facts, data.Copy(snapshot.byCompany[company.ID])...)
	}
	return facts
}

// Summary returns a description of the snapshot in markdown
func (snapshot *Snapshot) Summary(ctx context.Context) (string, error) {
	return summaryDocument(&summaryStats{
		Title:        snapshot.Name,
		Location:     "Snapshot: " + snapshot.Name,
		NumCompanies: len(snapshot.companies),
		TotalRecords: snapshot.numFacts,
		FirstPeriod:  snapshot.firstEnd,
		LastPeriod:   snapshot.lastEnd,
		LastUpdated:  snapshot.createdOn,
	})
}
