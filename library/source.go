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
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/penny-vault/brfin/data"
)

var (
	ErrCompanyNotFound = errors.New("company not found")
)

// NotFoundError is returned when a company identifier does not match any
// company in the library
type NotFoundError struct {
	Identifier string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCompanyNotFound, e.Identifier)
}

func (e *NotFoundError) Unwrap() error {
	return ErrCompanyNotFound
}

// FactSource provides the facts of a single company. Implementations return
// facts in no particular order and the caller may modify the returned facts.
type FactSource interface {
	FactsFor(ctx context.Context, companyID int) ([]*data.Fact, error)
}

// Directory lists the companies known to a source
type Directory interface {
	Companies(ctx context.Context) ([]*data.Company, error)
}

// Source is a directory of companies and their facts
type Source interface {
	FactSource
	Directory
}

// Resolve finds a company of dir by CVM code or by CNPJ. Use a Resolver to
// look up several companies with a single directory read.
func Resolve(ctx context.Context, dir Directory, identifier string) (*data.Company, error) {
	return NewResolver(dir).Resolve(ctx, identifier)
}

// Search returns the companies whose name contains text, ignoring case,
// ordered by name
func Search(ctx context.Context, dir Directory, text string) ([]*data.Company, error) {
	companies, err := dir.Companies(ctx)
	if err != nil {
		return nil, err
	}

	needle := strings.ToUpper(strings.TrimSpace(text))
	matches := make([]*data.Company, 0)
	for _, company := range companies {
		if strings.Contains(strings.ToUpper(company.Name), needle) {
			matches = append(matches, company)
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Name == matches[j].Name {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].Name < matches[j].Name
	})

	return matches, nil
}

// CompanyInfo summarizes the filings available for a company
type CompanyInfo struct {
	Company       data.Company
	NumFacts      int
	FirstAnnual   time.Time
	LastAnnual    time.Time
	LastQuarterly time.Time
}

// Describe summarizes a company's facts. It fails with a NotFoundError when
// there are no facts.
func Describe(companyID int, facts []*data.Fact) (*CompanyInfo, error) {
	if len(facts) == 0 {
		return nil, &NotFoundError{Identifier: strconv.Itoa(companyID)}
	}

	info := &CompanyInfo{
		Company:  *data.CompanyFromFact(facts[0]),
		NumFacts: len(facts),
	}

	for _, fact := range facts {
		switch fact.Kind {
		case data.Annual:
			if info.FirstAnnual.IsZero() || fact.PeriodEnd.Before(info.FirstAnnual) {
				info.FirstAnnual = fact.PeriodEnd
			}
			if fact.PeriodEnd.After(info.LastAnnual) {
				info.LastAnnual = fact.PeriodEnd
			}
		case data.Quarterly:
			if fact.PeriodEnd.After(info.LastQuarterly) {
				info.LastQuarterly = fact.PeriodEnd
			}
		}
	}

	return info, nil
}
