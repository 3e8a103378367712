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

package data

import (
	"time"

	"github.com/penny-vault/brfin/account"
)

// Predicate selects facts. Predicates replace ad hoc query strings so that
// every filter is type checked.
type Predicate func(*Fact) bool

// Filter returns the facts matching pred in their original order. The
// returned slice shares the fact pointers with the input.
func Filter(facts []*Fact, pred Predicate) []*Fact {
	out := make([]*Fact, 0, len(facts))
	for _, fact := range facts {
		if pred(fact) {
			out = append(out, fact)
		}
	}
	return out
}

// And matches when every predicate matches
func And(preds ...Predicate) Predicate {
	return func(fact *Fact) bool {
		for _, pred := range preds {
			if !pred(fact) {
				return false
			}
		}
		return true
	}
}

// Or matches when any predicate matches
func Or(preds ...Predicate) Predicate {
	return func(fact *Fact) bool {
		for _, pred := range preds {
			if pred(fact) {
				return true
			}
		}
		return false
	}
}

func Not(pred Predicate) Predicate {
	return func(fact *Fact) bool {
		return !pred(fact)
	}
}

func ByKind(kind ReportKind) Predicate {
	return func(fact *Fact) bool {
		return fact.Kind == kind
	}
}

func ByBasis(basis Basis) Predicate {
	return func(fact *Fact) bool {
		return fact.Basis == basis
	}
}

func ByCompany(companyID int) Predicate {
	return func(fact *Fact) bool {
		return fact.CompanyID == companyID
	}
}

// ByCodePrefix matches facts whose account code equals or descends from one
// of the prefixes. Facts with malformed codes never match.
func ByCodePrefix(prefixes ...string) Predicate {
	return func(fact *Fact) bool {
		code, err := account.Parse(fact.AccountCode)
		if err != nil {
			return false
		}
		for _, prefix := range prefixes {
			if code.HasPrefix(prefix) {
				return true
			}
		}
		return false
	}
}

// ByCodes matches facts whose account code is exactly one of codes
func ByCodes(codes ...string) Predicate {
	set := make(map[string]bool, len(codes))
	for _, code := range codes {
		set[code] = true
	}
	return func(fact *Fact) bool {
		return set[fact.AccountCode]
	}
}

// MaxDepth keeps facts whose account code has at most level segments. Zero
// disables the filter.
func MaxDepth(level int) Predicate {
	return func(fact *Fact) bool {
		code, err := account.Parse(fact.AccountCode)
		if err != nil {
			return false
		}
		return code.WithinLevel(level)
	}
}

// PeriodEndBetween matches facts with first <= period end <= last. A zero
// bound is open.
func PeriodEndBetween(first, last time.Time) Predicate {
	return func(fact *Fact) bool {
		if !first.IsZero() && fact.PeriodEnd.Before(first) {
			return false
		}
		if !last.IsZero() && fact.PeriodEnd.After(last) {
			return false
		}
		return true
	}
}

func PeriodEndEquals(date time.Time) Predicate {
	return func(fact *Fact) bool {
		return fact.PeriodEnd.Equal(date)
	}
}

func PeriodReferenceEquals(date time.Time) Predicate {
	return func(fact *Fact) bool {
		return fact.PeriodReference.Equal(date)
	}
}

func PeriodBeginEquals(date time.Time) Predicate {
	return func(fact *Fact) bool {
		return fact.PeriodBegin.Equal(date)
	}
}

// Copy deep copies facts so callers can modify the result without touching
// the source table
func Copy(facts []*Fact) []*Fact {
	out := make([]*Fact, len(facts))
	for idx, fact := range facts {
		out[idx] = fact.Copy()
	}
	return out
}

// LatestPeriodEnd returns the largest period end among facts, or the zero
// time when there are none
func LatestPeriodEnd(facts []*Fact) time.Time {
	var latest time.Time
	for _, fact := range facts {
		if fact.PeriodEnd.After(latest) {
			latest = fact.PeriodEnd
		}
	}
	return latest
}

// EarliestPeriodBegin returns the smallest period begin among facts, or the
// zero time when there are none
func EarliestPeriodBegin(facts []*Fact) time.Time {
	var earliest time.Time
	for idx, fact := range facts {
		if idx == 0 || fact.PeriodBegin.Before(earliest) {
			earliest = fact.PeriodBegin
		}
	}
	return earliest
}
