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

package report

import (
	"sort"
	"strings"
	"time"

	"github.com/penny-vault/brfin/account"
	"github.com/penny-vault/brfin/data"
)

type filingKey struct {
	companyID       int
	kind            data.ReportKind
	basis           data.Basis
	periodReference time.Time
	periodBegin     time.Time
	periodEnd       time.Time
	periodOrder     int
	accountCode     string
	equityColumn    string
}

func newFilingKey(fact *data.Fact) filingKey {
	return filingKey{
		companyID:       fact.CompanyID,
		kind:            fact.Kind,
		basis:           fact.Basis,
		periodReference: fact.PeriodReference,
		periodBegin:     fact.PeriodBegin,
		periodEnd:       fact.PeriodEnd,
		periodOrder:     fact.PeriodOrder,
		accountCode:     fact.AccountCode,
		equityColumn:    fact.EquityColumn,
	}
}

type yearCodeKey struct {
	year        int
	accountCode string
}

// lessFact orders facts by period end, period reference, account code and
// version
func lessFact(a, b *data.Fact) bool {
	if !a.PeriodEnd.Equal(b.PeriodEnd) {
		return a.PeriodEnd.Before(b.PeriodEnd)
	}
	if !a.PeriodReference.Equal(b.PeriodReference) {
		return a.PeriodReference.Before(b.PeriodReference)
	}
	if cmp := account.Compare(a.AccountCode, b.AccountCode); cmp != 0 {
		return cmp < 0
	}
	return a.Version < b.Version
}

// sortFacts returns a new slice sorted with lessFact. The sort is stable so
// complete ties keep their input order.
func sortFacts(facts []*data.Fact) []*data.Fact {
	sorted := make([]*data.Fact, len(facts))
	copy(sorted, facts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return lessFact(sorted[i], sorted[j])
	})
	return sorted
}

// keepLast sorts facts and keeps the last one for each key, returning the
// survivors in sorted order
func keepLast[K comparable](facts []*data.Fact, key func(*data.Fact) K) []*data.Fact {
	sorted := sortFacts(facts)
	seen := make(map[K]bool, len(sorted))
	kept := make([]*data.Fact, 0, len(sorted))
	for idx := len(sorted) - 1; idx >= 0; idx-- {
		k := key(sorted[idx])
		if seen[k] {
			continue
		}
		seen[k] = true
		kept = append(kept, sorted[idx])
	}

	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}

	return kept
}

// ResolveVersions keeps only the highest version of each filed figure, where
// a figure is identified by its company, kind, basis, periods, account code
// and equity column. Comparative figures are resolved the same way as
// current ones.
func ResolveVersions(facts []*data.Fact) []*data.Fact {
	return keepLast(facts, newFilingKey)
}

// equityTotalColumns are the changes in equity columns that sum every
// component, most comprehensive first
var equityTotalColumns = []string{"patrimônio líquido consolidado", "patrimônio líquido"}

func equityRank(column string) int {
	column = strings.ToLower(strings.TrimSpace(column))
	for idx, total := range equityTotalColumns {
		if column == total {
			return len(equityTotalColumns) - idx
		}
	}
	return 0
}

// EquityTotals keeps one equity statement column per filed figure: the
// consolidated total, then the total, then the alphabetically first column.
// Facts without an equity column are returned as they are.
func EquityTotals(facts []*data.Fact) []*data.Fact {
	best := make(map[filingKey]int)
	out := make([]*data.Fact, 0, len(facts))
	for _, fact := range facts {
		if fact.EquityColumn == "" {
			out = append(out, fact)
			continue
		}

		key := newFilingKey(fact)
		key.equityColumn = ""

		idx, ok := best[key]
		if !ok {
			best[key] = len(out)
			out = append(out, fact)
			continue
		}

		current := out[idx]
		rank, currentRank := equityRank(fact.EquityColumn), equityRank(current.EquityColumn)
		if rank > currentRank || (rank == currentRank && fact.EquityColumn < current.EquityColumn) {
			out[idx] = fact
		}
	}
	return out
}

// Deduplicate selects one fact per financial year and account code. Only the
// latest quarterly period end survives, and only when it is newer than the
// latest annual report; otherwise every quarterly fact is dropped. Within a
// group the fact with the latest period end wins, then the latest period
// reference, then the highest version. The result is sorted and running
// Deduplicate on it again returns the same facts.
func Deduplicate(facts []*data.Fact) []*data.Fact {
	latestAnnual := data.LatestPeriodEnd(data.Filter(facts, data.ByKind(data.Annual)))
	latestQuarter := data.LatestPeriodEnd(data.Filter(facts, data.ByKind(data.Quarterly)))

	keep := data.ByKind(data.Annual)
	if latestQuarter.After(latestAnnual) {
		keep = data.Or(keep, data.And(
			data.ByKind(data.Quarterly),
			data.PeriodEndEquals(latestQuarter),
		))
	}
	current := data.Filter(facts, keep)

	return keepLast(current, func(fact *data.Fact) yearCodeKey {
		return yearCodeKey{
			year:        fact.PeriodEnd.Year(),
			accountCode: fact.AccountCode,
		}
	})
}

// latestPerCode collapses facts to one per account code using the same order
// as Deduplicate
func latestPerCode(facts []*data.Fact) map[string]*data.Fact {
	kept := keepLast(facts, func(fact *data.Fact) string {
		return fact.AccountCode
	})

	byCode := make(map[string]*data.Fact, len(kept))
	for _, fact := range kept {
		byCode[fact.AccountCode] = fact
	}
	return byCode
}
