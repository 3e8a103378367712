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

// Package ratio derives operating performance ratios from the balance sheet
// and income statement tables built by package report.
package ratio

import (
	"github.com/penny-vault/brfin/data"
	"github.com/penny-vault/brfin/report"
	"github.com/shopspring/decimal"
)

var taxRate = decimal.RequireFromString("0.34")

// TaxRate is the statutory tax rate applied to EBIT
func TaxRate() decimal.Decimal {
	return taxRate
}

const (
	RevenueCode              = "3.01"
	GrossProfitCode          = "3.03"
	EBITCode                 = "3.05"
	EBTCode                  = "3.07"
	IncomeTaxCode            = "3.08"
	NetIncomeCode            = "3.11"
	OperatingCashFlowCode    = "6.01"
	DepreciationCode         = "6.01.01.04"
	TotalAssetsCode          = "1"
	CurrentAssetsCode        = "1.01"
	CashCode                 = "1.01.01"
	ShortTermInvestmentsCode = "1.01.02"
	CurrentLiabilitiesCode   = "2.01"
	ShortTermDebtCode        = "2.01.04"
	LongTermDebtCode         = "2.02.01"
	EquityCode               = "2.03"
)

// Series is a period aligned list of values; an invalid entry is no data
type Series []decimal.NullDecimal

func valid(value decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: value, Valid: true}
}

// ShiftRight replaces each value with the one from the previous period. The
// first period has no data and the last value is dropped.
func ShiftRight(series Series) Series {
	shifted := make(Series, len(series))
	if len(series) > 1 {
		copy(shifted[1:], series[:len(series)-1])
	}
	return shifted
}

func zip(a, b Series, op func(x, y decimal.Decimal) decimal.NullDecimal) Series {
	out := make(Series, len(a))
	for idx := range a {
		if idx >= len(b) || !a[idx].Valid || !b[idx].Valid {
			continue
		}
		out[idx] = op(a[idx].Decimal, b[idx].Decimal)
	}
	return out
}

func Add(a, b Series) Series {
	return zip(a, b, func(x, y decimal.Decimal) decimal.NullDecimal { return valid(x.Add(y)) })
}

func Sub(a, b Series) Series {
	return zip(a, b, func(x, y decimal.Decimal) decimal.NullDecimal { return valid(x.Sub(y)) })
}

// Div divides a by b; a zero or missing denominator yields no data
func Div(a, b Series) Series {
	return zip(a, b, func(x, y decimal.Decimal) decimal.NullDecimal {
		if y.IsZero() {
			return decimal.NullDecimal{}
		}
		return valid(x.Div(y))
	})
}

// Scale multiplies every value by factor
func Scale(a Series, factor decimal.Decimal) Series {
	out := make(Series, len(a))
	for idx, value := range a {
		if value.Valid {
			out[idx] = valid(value.Decimal.Mul(factor))
		}
	}
	return out
}

type metric struct {
	code   string
	name   string
	values Series
}

// Compute derives the ratio table from the assets, liabilities and equity,
// and income tables of one company. Values are aligned on the union of the
// tables' periods. With shiftBalances every ratio divides by the balance of
// the previous period, so the first period of those ratios has no data.
// Cash flow based rows have no data; use ComputeWithCashFlow for those.
func Compute(assets, liabilitiesAndEquity, income *report.Table, shiftBalances bool) *report.Table {
	return ComputeWithCashFlow(assets, liabilitiesAndEquity, income, nil, shiftBalances)
}

// ComputeWithCashFlow is Compute with a cash flow table, which adds operating
// cash flow and EBITDA to the ratios
func ComputeWithCashFlow(assets, liabilitiesAndEquity, income, cashFlow *report.Table, shiftBalances bool) *report.Table {
	columns := report.UnionColumns(assets, liabilitiesAndEquity, income, cashFlow)

	series := func(table *report.Table, code string) Series {
		if table == nil {
			return make(Series, len(columns))
		}
		return table.SeriesOn(code, columns)
	}

	revenue := series(income, RevenueCode)
	grossProfit := series(income, GrossProfitCode)
	ebit := series(income, EBITCode)
	netIncome := series(income, NetIncomeCode)
	ebt := series(income, EBTCode)
	incomeTax := series(income, IncomeTaxCode)

	operatingCashFlow := series(cashFlow, OperatingCashFlowCode)
	ebitda := Add(ebit, series(cashFlow, DepreciationCode))

	totalAssets := series(assets, TotalAssetsCode)
	currentAssets := series(assets, CurrentAssetsCode)
	totalCash := Add(series(assets, CashCode), series(assets, ShortTermInvestmentsCode))

	currentLiabilities := series(liabilitiesAndEquity, CurrentLiabilitiesCode)
	equity := series(liabilitiesAndEquity, EquityCode)
	totalDebt := Add(series(liabilitiesAndEquity, ShortTermDebtCode), series(liabilitiesAndEquity, LongTermDebtCode))

	netDebt := Sub(totalDebt, totalCash)
	workingCapital := Sub(currentAssets, currentLiabilities)
	investedCapital := Add(equity, netDebt)

	afterTaxEBIT := Scale(ebit, decimal.NewFromInt(1).Sub(taxRate))

	// income tax is reported as an expense, so it is negative
	effectiveTaxRate := Div(Scale(incomeTax, decimal.NewFromInt(-1)), ebt)

	balanceAssets, balanceCapital, balanceEquity := totalAssets, investedCapital, equity
	if shiftBalances {
		balanceAssets = ShiftRight(totalAssets)
		balanceCapital = ShiftRight(investedCapital)
		balanceEquity = ShiftRight(equity)
	}

	metrics := []metric{
		{"revenues", "Revenues", revenue},
		{"operating_cash_flow", "Operating Cash Flow", operatingCashFlow},
		{"gross_profit", "Gross Profit", grossProfit},
		{"ebitda", "EBITDA", ebitda},
		{"ebit", "EBIT", ebit},
		{"net_income", "Net Income", netIncome},
		{"total_assets", "Total Assets", totalAssets},
		{"equity", "Equity", equity},
		{"total_cash", "Total Cash", totalCash},
		{"total_debt", "Total Debt", totalDebt},
		{"net_debt", "Net Debt", netDebt},
		{"working_capital", "Working Capital", workingCapital},
		{"invested_capital", "Invested Capital", investedCapital},
		{"return_on_assets", "Return on Assets", Div(afterTaxEBIT, balanceAssets)},
		{"return_on_capital", "Return on Capital", Div(afterTaxEBIT, balanceCapital)},
		{"return_on_equity", "Return on Equity", Div(netIncome, balanceEquity)},
		{"gross_margin", "Gross Margin", Div(grossProfit, revenue)},
		{"ebitda_margin", "EBITDA Margin", Div(ebitda, revenue)},
		{"operating_margin", "Operating Margin", Div(afterTaxEBIT, revenue)},
		{"net_margin", "Net Margin", Div(netIncome, revenue)},
		{"effective_tax_rate", "Effective Tax Rate", effectiveTaxRate},
	}

	table := &report.Table{
		Name:    "ratios",
		Title:   "Operating Performance",
		Columns: columns,
		Rows:    make([]*report.Row, len(metrics)),
	}

	for _, source := range []*report.Table{income, assets, liabilitiesAndEquity, cashFlow} {
		if source != nil && source.CompanyID != 0 {
			table.CompanyID = source.CompanyID
			table.CompanyName = source.CompanyName
			break
		}
	}

	for idx, m := range metrics {
		table.Rows[idx] = &report.Row{Code: m.code, Name: m.name, Values: m.values}
	}

	return table
}

// FromFacts builds the tables Compute needs from a company's facts. Ratios
// read codes below the requested detail level, so the level is ignored.
func FromFacts(facts []*data.Fact, cfg report.Config, shiftBalances bool) (*report.Table, error) {
	cfg.DetailLevel = 0

	tables := make([]*report.Table, 0, 4)
	for _, name := range []string{"assets", "liabilities_and_equity", "income", "cash_flow"} {
		table, err := report.BuildNamed(facts, name, cfg)
		if err != nil {
			return nil, err
		}
		tables = append(tables, table)
	}

	ratios := ComputeWithCashFlow(tables[0], tables[1], tables[2], tables[3], shiftBalances)
	for _, table := range tables {
		ratios.Warnings = append(ratios.Warnings, table.Warnings...)
	}

	return ratios, nil
}
