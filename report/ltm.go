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

	"github.com/penny-vault/brfin/account"
	"github.com/penny-vault/brfin/data"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// ReconstructLTM converts the latest year-to-date quarterly flows into last
// twelve month figures:
//
//	ltm = quarter to date + last annual - prior year quarter to date
//
// The prior year figures are the comparatives filed with the latest quarterly
// report. When there is no quarterly data newer than the last annual report
// the annual facts are returned unchanged. Annual facts are always part of
// the result. The input is not modified.
func ReconstructLTM(facts []*data.Fact) []*data.Fact {
	annual := data.Filter(facts, data.ByKind(data.Annual))
	quarterly := data.Filter(facts, data.ByKind(data.Quarterly))

	lastAnnual := data.LatestPeriodEnd(annual)
	lastQuarter := data.LatestPeriodEnd(quarterly)

	result := data.Copy(annual)
	if len(quarterly) == 0 || !lastQuarter.After(lastAnnual) {
		return result
	}

	// year to date
	current := earliestBegin(data.Filter(quarterly, data.PeriodEndEquals(lastQuarter)))

	// comparatives filed with the latest quarter
	comparative := earliestBegin(data.Filter(quarterly, data.And(
		data.PeriodReferenceEquals(lastQuarter),
		func(fact *data.Fact) bool { return fact.PeriodEnd.Before(lastQuarter) },
	)))

	fullYear := data.Filter(annual, data.PeriodEndEquals(lastAnnual))

	currentByCode := latestPerCode(current)
	comparativeByCode := latestPerCode(comparative)
	fullYearByCode := latestPerCode(fullYear)

	codes := make(map[string]bool)
	for _, set := range []map[string]*data.Fact{currentByCode, comparativeByCode, fullYearByCode} {
		for code := range set {
			codes[code] = true
		}
	}

	sortedCodes := make([]string, 0, len(codes))
	for code := range codes {
		sortedCodes = append(sortedCodes, code)
	}
	sort.Slice(sortedCodes, func(i, j int) bool {
		return account.Less(sortedCodes[i], sortedCodes[j])
	})

	periodBegin := lastQuarter.AddDate(-1, 0, 0)
	for _, code := range sortedCodes {
		var template *data.Fact
		for _, candidate := range []*data.Fact{currentByCode[code], comparativeByCode[code], fullYearByCode[code]} {
			if candidate != nil {
				template = candidate
				break
			}
		}

		ltm := template.Copy()
		ltm.Kind = data.Quarterly
		ltm.PeriodReference = lastQuarter
		ltm.PeriodBegin = periodBegin
		ltm.PeriodEnd = lastQuarter
		ltm.PeriodOrder = data.CurrentPeriod
		ltm.Value = decimal.Zero
		ltm.Version = 0

		if fact, ok := currentByCode[code]; ok {
			ltm.Value = ltm.Value.Add(fact.Value)
			ltm.Version = max(ltm.Version, fact.Version)
		}
		if fact, ok := comparativeByCode[code]; ok {
			ltm.Value = ltm.Value.Sub(fact.Value)
			ltm.Version = max(ltm.Version, fact.Version)
		}
		if fact, ok := fullYearByCode[code]; ok {
			ltm.Value = ltm.Value.Add(fact.Value)
			ltm.Version = max(ltm.Version, fact.Version)
		}

		result = append(result, ltm)
	}

	log.Debug().Time("LastAnnual", lastAnnual).Time("LastQuarter", lastQuarter).
		Int("NumCodes", len(sortedCodes)).Msg("reconstructed last twelve months")

	return result
}

// earliestBegin keeps the facts whose period begin is the earliest in the set,
// i.e. the cumulative year to date figures rather than single quarter ones
func earliestBegin(facts []*data.Fact) []*data.Fact {
	if len(facts) == 0 {
		return facts
	}
	earliest := data.EarliestPeriodBegin(facts)
	return data.Filter(facts, func(fact *data.Fact) bool {
		return fact.PeriodBegin.Equal(earliest)
	})
}
