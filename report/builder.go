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
	"fmt"
	"sort"
	"time"

	"github.com/penny-vault/brfin/account"
	"github.com/penny-vault/brfin/data"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// classify checks every account code and reports the first malformed one
// together with the row it came from
func classify(facts []*data.Fact) error {
	for _, fact := range facts {
		if _, err := fact.Code(); err != nil {
			return fmt.Errorf("%w (company %d, %s %s filing for %s, version %d)", err, fact.CompanyID,
				fact.Basis, fact.Kind, fact.PeriodEnd.Format(data.DateLayout), fact.Version)
		}
	}
	return nil
}

// scale divides values by cfg.Unit in place, leaving per share figures as
// reported
func scale(facts []*data.Fact, cfg Config) {
	if cfg.Unit.Equal(decimal.NewFromInt(1)) {
		return
	}
	for _, fact := range facts {
		code, err := fact.Code()
		if err != nil || code.IsEarningsPerShare() {
			continue
		}
		fact.Value = fact.Value.Div(cfg.Unit)
	}
}

// Build assembles statement for a single company from facts. Facts outside
// the requested basis or statement are ignored; the input is never
// modified. An empty result is not an error: the table carries a
// DataGapWarning instead.
func Build(facts []*data.Fact, statement *Statement, cfg Config) (*Table, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if statement == nil {
		return nil, &ValidationError{Field: "statement", Value: "", Reason: "is required"}
	}

	if err := classify(facts); err != nil {
		return nil, err
	}

	logger := log.With().Str("Statement", statement.Name).Str("Basis", string(cfg.Basis)).Logger()

	table := &Table{
		Name:  statement.Name,
		Title: statement.Title,
	}
	if len(facts) > 0 {
		table.CompanyID = facts[0].CompanyID
		table.CompanyName = facts[0].CompanyName
	}

	scoped := data.Copy(data.Filter(facts, data.And(
		data.ByBasis(cfg.Basis),
		data.ByCodePrefix(statement.Prefixes...),
		data.MaxDepth(cfg.DetailLevel),
		data.PeriodEndBetween(time.Time{}, cfg.LastPeriod),
	)))

	if len(scoped) == 0 {
		return table.withWarning(logger, "no facts for statement and basis"), nil
	}

	scale(scoped, cfg)
	scoped = EquityTotals(ResolveVersions(scoped))

	if statement.Flow {
		scoped = ReconstructLTM(scoped)
	}

	scoped = data.Filter(scoped, data.PeriodEndBetween(cfg.FirstPeriod, cfg.LastPeriod))
	if len(scoped) == 0 {
		return table.withWarning(logger, "no facts between first and last period"), nil
	}

	pivoted := pivot(Deduplicate(scoped))
	table.Columns = pivoted.Columns
	table.Rows = pivoted.Rows

	if cfg.Years > 0 {
		table = table.Tail(cfg.Years)
	}

	logger.Debug().Int("NumRows", len(table.Rows)).Int("NumColumns", len(table.Columns)).Msg("built report")

	return table, nil
}

// BuildNamed looks up the statement by name and builds it
func BuildNamed(facts []*data.Fact, name string, cfg Config) (*Table, error) {
	statement, err := LookupStatement(name)
	if err != nil {
		return nil, err
	}
	return Build(facts, statement, cfg)
}

func (table *Table) withWarning(logger zerolog.Logger, message string) *Table {
	warning := DataGapWarning{Statement: table.Name, Message: message}
	table.Warnings = append(table.Warnings, warning)
	logger.Warn().Int("CompanyID", table.CompanyID).Msg(message)
	return table
}

// pivot turns deduplicated facts into a table with one row per account code
// and one column per period end
func pivot(facts []*data.Fact) *Table {
	sorted := sortFacts(facts)

	annualEnds := make(map[time.Time]bool)
	periodEnds := make(map[time.Time]bool)
	for _, fact := range sorted {
		periodEnds[fact.PeriodEnd] = true
		if fact.Kind == data.Annual {
			annualEnds[fact.PeriodEnd] = true
		}
	}

	columns := make([]Column, 0, len(periodEnds))
	for _, fact := range sorted {
		if !periodEnds[fact.PeriodEnd] {
			continue
		}
		delete(periodEnds, fact.PeriodEnd)
		columns = append(columns, Column{
			PeriodEnd: fact.PeriodEnd,
			Trailing:  !annualEnds[fact.PeriodEnd],
		})
	}

	columnIndex := make(map[time.Time]int, len(columns))
	for idx, col := range columns {
		columnIndex[col.PeriodEnd] = idx
	}

	// facts are sorted by period so the last fact seen for a code carries
	// its most recent metadata
	rowIndex := make(map[string]*Row)
	for _, fact := range sorted {
		row, ok := rowIndex[fact.AccountCode]
		if !ok {
			row = &Row{
				Code:   fact.AccountCode,
				Values: make([]decimal.NullDecimal, len(columns)),
			}
			rowIndex[fact.AccountCode] = row
		}
		row.Name = fact.AccountName
		row.Fixed = fact.AccountFixed
		row.Values[columnIndex[fact.PeriodEnd]] = decimal.NullDecimal{Decimal: fact.Value, Valid: true}
	}

	rows := make([]*Row, 0, len(rowIndex))
	for _, row := range rowIndex {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		return account.Less(rows[i].Code, rows[j].Code)
	})

	return &Table{Columns: columns, Rows: rows}
}

// Custom builds a table with the listed account codes, gathering each one
// from the complete statement it belongs to. Rows follow the order of codes.
func Custom(facts []*data.Fact, codes []string, cfg Config) (*Table, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var statementOrder []account.Statement
	byStatement := make(map[account.Statement][]string)
	for _, raw := range codes {
		code, err := account.Parse(raw)
		if err != nil {
			return nil, err
		}
		if _, ok := byStatement[code.Statement()]; !ok {
			statementOrder = append(statementOrder, code.Statement())
		}
		byStatement[code.Statement()] = append(byStatement[code.Statement()], code.String())
	}

	tables := make([]*Table, 0, len(statementOrder))
	for _, statementType := range statementOrder {
		full, err := Build(facts, StatementFor(statementType), cfg)
		if err != nil {
			return nil, err
		}

		selected := *full
		selected.Rows = nil
		for _, code := range byStatement[statementType] {
			if row := full.Row(code); row != nil {
				selected.Rows = append(selected.Rows, row)
			} else {
				selected.Warnings = append(selected.Warnings, DataGapWarning{
					Statement: full.Name,
					Message:   fmt.Sprintf("account %s has no data", code),
				})
			}
		}
		tables = append(tables, &selected)
	}

	merged := Merge("custom", "Custom Report", tables...)

	// restore the requested row order across statements
	ordered := make([]*Row, 0, len(merged.Rows))
	seen := make(map[string]bool, len(codes))
	for _, raw := range codes {
		code, _ := account.Parse(raw)
		if seen[code.String()] {
			continue
		}
		seen[code.String()] = true
		if row := merged.Row(code.String()); row != nil {
			ordered = append(ordered, row)
		}
	}
	merged.Rows = ordered

	return merged, nil
}
