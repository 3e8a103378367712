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

package report_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/penny-vault/brfin/account"
	"github.com/penny-vault/brfin/data"
	"github.com/penny-vault/brfin/report"
)

var balance = &report.Statement{Name: "balance", Title: "Balance", Prefixes: []string{"1", "2"}}

func codesOf(table *report.Table) []string {
	codes := make([]string, len(table.Rows))
	for idx, row := range table.Rows {
		codes[idx] = row.Code
	}
	return codes
}

func labelsOf(table *report.Table) []string {
	labels := make([]string, len(table.Columns))
	for idx, col := range table.Columns {
		labels[idx] = col.Label()
	}
	return labels
}

var _ = Describe("Build", func() {
	It("builds an income statement with a trailing column", func() {
		table, err := report.BuildNamed(incomeFixture(), "income", report.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())

		Expect(table.Name).To(Equal("income"))
		Expect(table.CompanyID).To(Equal(906))
		Expect(labelsOf(table)).To(Equal([]string{"2020-12-31", "2021-12-31", "2022-06-30 (ltm)"}))
		Expect(table.Columns[2].Trailing).To(BeTrue())
		Expect(table.Columns[1].Trailing).To(BeFalse())

		Expect(codesOf(table)).To(Equal([]string{"3.01", "3.03", "3.11"}))
		Expect(valuesOf(table.Series("3.11"))).To(Equal([]string{"800", "1000", "1150"}))
		Expect(valuesOf(table.Series("3.01"))).To(Equal([]string{"no data", "2000", "2000"}))
		Expect(valuesOf(table.Series("3.03"))).To(Equal([]string{"no data", "no data", "100"}))
		Expect(table.Warnings).To(BeEmpty())
	})

	It("keeps at most the requested number of code segments", func() {
		facts := makeFacts(
			factRow{kind: data.Annual, end: "2020-12-31", code: "2.01.04.01", value: 1},
			factRow{kind: data.Annual, end: "2020-12-31", code: "2.01", value: 2},
			factRow{kind: data.Annual, end: "2020-12-31", code: "1", value: 3},
		)

		cfg := report.DefaultConfig()
		cfg.DetailLevel = 2

		table, err := report.Build(facts, balance, cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(codesOf(table)).To(Equal([]string{"1", "2.01"}))
	})

	It("orders rows by numeric code segments", func() {
		facts := makeFacts(
			factRow{kind: data.Annual, end: "2020-12-31", code: "2.10", value: 1},
			factRow{kind: data.Annual, end: "2020-12-31", code: "2.9", value: 1},
			factRow{kind: data.Annual, end: "2020-12-31", code: "1.10", value: 1},
			factRow{kind: data.Annual, end: "2020-12-31", code: "2.1", value: 1},
			factRow{kind: data.Annual, end: "2020-12-31", code: "1.2", value: 1},
		)

		table, err := report.Build(facts, balance, report.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())
		Expect(codesOf(table)).To(Equal([]string{"1.2", "1.10", "2.1", "2.9", "2.10"}))
	})

	It("keeps the newest filing version", func() {
		facts := makeFacts(
			factRow{kind: data.Annual, version: 1, end: "2020-12-31", code: "1.01", value: 500},
			factRow{kind: data.Annual, version: 2, end: "2020-12-31", code: "1.01", value: 520},
		)

		table, err := report.BuildNamed(facts, "assets", report.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())
		Expect(table.Rows).To(HaveLen(1))
		Expect(valuesOf(table.Series("1.01"))).To(Equal([]string{"520"}))
	})

	It("scales values except earnings per share", func() {
		facts := makeFacts(
			factRow{kind: data.Annual, begin: "2021-01-01", end: "2021-12-31", code: "3.01", value: 5000},
			factRow{kind: data.Annual, begin: "2021-01-01", end: "2021-12-31", code: "3.99.01.01", value: 2},
		)

		cfg := report.DefaultConfig()
		cfg.Unit = decimal.NewFromInt(1000)

		table, err := report.BuildNamed(facts, "income", cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(valuesOf(table.Series("3.01"))).To(Equal([]string{"5"}))
		Expect(valuesOf(table.Series("3.99.01.01"))).To(Equal([]string{"2"}))
		Expect(facts[0].Value.IntPart()).To(Equal(int64(5000)))
	})

	It("uses the last quarter for balance sheets without reconstructing", func() {
		facts := makeFacts(
			factRow{kind: data.Annual, end: "2021-12-31", code: "1", value: 100},
			factRow{kind: data.Quarterly, end: "2022-03-31", code: "1", value: 110},
			factRow{kind: data.Quarterly, end: "2022-06-30", code: "1", value: 120},
		)

		table, err := report.BuildNamed(facts, "assets", report.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())
		Expect(labelsOf(table)).To(Equal([]string{"2021-12-31", "2022-06-30 (ltm)"}))
		Expect(valuesOf(table.Series("1"))).To(Equal([]string{"100", "120"}))
	})

	It("has no trailing column when the annual report is the newest", func() {
		facts := makeFacts(
			factRow{kind: data.Annual, end: "2021-12-31", code: "1", value: 100},
			factRow{kind: data.Annual, end: "2021-12-31", code: "1.01", value: 40},
			factRow{kind: data.Quarterly, end: "2021-09-30", code: "1", value: 90},
			factRow{kind: data.Quarterly, end: "2021-09-30", code: "1.09", value: 5},
		)

		table, err := report.BuildNamed(facts, "assets", report.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())
		Expect(labelsOf(table)).To(Equal([]string{"2021-12-31"}))
		Expect(codesOf(table)).To(Equal([]string{"1", "1.01"}))
		Expect(table.Columns[0].Trailing).To(BeFalse())
	})

	It("reports the total column of the changes in equity statement", func() {
		facts := makeFacts(
			factRow{kind: data.Annual, begin: "2021-01-01", end: "2021-12-31", code: "5.01", value: 100},
			factRow{kind: data.Annual, begin: "2021-01-01", end: "2021-12-31", code: "5.01", value: 700},
			factRow{kind: data.Annual, begin: "2021-01-01", end: "2021-12-31", code: "5.01", value: 650},
		)
		facts[0].EquityColumn = "Capital Social Integralizado"
		facts[1].EquityColumn = "Patrimônio Líquido Consolidado"
		facts[2].EquityColumn = "Patrimônio Líquido"

		table, err := report.BuildNamed(facts, "changes_in_equity", report.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())
		Expect(table.Rows).To(HaveLen(1))
		Expect(valuesOf(table.Series("5.01"))).To(Equal([]string{"700"}))
	})

	It("restricts columns to the period window", func() {
		cfg := report.DefaultConfig()
		cfg.FirstPeriod = day("2021-01-01")

		table, err := report.BuildNamed(incomeFixture(), "income", cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(labelsOf(table)).To(Equal([]string{"2021-12-31", "2022-06-30 (ltm)"}))

		cfg = report.DefaultConfig()
		cfg.LastPeriod = day("2021-12-31")
		table, err = report.BuildNamed(incomeFixture(), "income", cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(labelsOf(table)).To(Equal([]string{"2020-12-31", "2021-12-31"}))
	})

	It("keeps the most recent years", func() {
		cfg := report.DefaultConfig()
		cfg.Years = 1

		table, err := report.BuildNamed(incomeFixture(), "income", cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(labelsOf(table)).To(Equal([]string{"2022-06-30 (ltm)"}))
		Expect(valuesOf(table.Series("3.11"))).To(Equal([]string{"1150"}))
	})

	It("returns an empty table with a warning when nothing matches", func() {
		table, err := report.BuildNamed(incomeFixture(), "cash_flow", report.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())
		Expect(table.IsEmpty()).To(BeTrue())
		Expect(table.Warnings).To(HaveLen(1))
		Expect(table.Warnings[0].Statement).To(Equal("cash_flow"))

		cfg := report.DefaultConfig()
		cfg.Basis = data.Separate
		table, err = report.BuildNamed(incomeFixture(), "income", cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(table.IsEmpty()).To(BeTrue())

		table, err = report.BuildNamed(nil, "income", report.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())
		Expect(table.IsEmpty()).To(BeTrue())
	})

	It("surfaces malformed account codes with the offending row", func() {
		facts := append(incomeFixture(), makeFact(factRow{kind: data.Annual, end: "2021-12-31", code: "X.01", value: 1}))

		_, err := report.BuildNamed(facts, "income", report.DefaultConfig())
		Expect(errors.Is(err, account.ErrMalformedCode)).To(BeTrue())

		var formatErr *account.FormatError
		Expect(errors.As(err, &formatErr)).To(BeTrue())
		Expect(formatErr.Code).To(Equal("X.01"))
		Expect(err.Error()).To(ContainSubstring("company 906"))
		Expect(err.Error()).To(ContainSubstring("2021-12-31"))
	})

	It("rejects unknown statements", func() {
		_, err := report.BuildNamed(incomeFixture(), "goodwill", report.DefaultConfig())
		Expect(errors.Is(err, report.ErrInvalidConfig)).To(BeTrue())
	})

	It("has exactly one row per account code", func() {
		table, err := report.BuildNamed(incomeFixture(), "income", report.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())

		seen := make(map[string]bool)
		for _, row := range table.Rows {
			Expect(seen).NotTo(HaveKey(row.Code))
			seen[row.Code] = true
			Expect(row.Values).To(HaveLen(len(table.Columns)))
		}
	})
})

var _ = Describe("Custom", func() {
	It("gathers codes across statements in the requested order", func() {
		facts := append(incomeFixture(),
			makeFact(factRow{kind: data.Annual, end: "2021-12-31", code: "1", value: 9000}),
			makeFact(factRow{kind: data.Annual, end: "2020-12-31", code: "1", value: 8000}),
		)

		table, err := report.Custom(facts, []string{"3.11", "1", "6.01"}, report.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())
		Expect(codesOf(table)).To(Equal([]string{"3.11", "1"}))
		Expect(labelsOf(table)).To(Equal([]string{"2020-12-31", "2021-12-31", "2022-06-30 (ltm)"}))
		Expect(valuesOf(table.Series("1"))).To(Equal([]string{"8000", "9000", "no data"}))
		Expect(valuesOf(table.Series("3.11"))).To(Equal([]string{"800", "1000", "1150"}))
		Expect(table.Warnings).NotTo(BeEmpty())
	})

	It("rejects malformed codes", func() {
		_, err := report.Custom(incomeFixture(), []string{"3..1"}, report.DefaultConfig())
		Expect(errors.Is(err, account.ErrMalformedCode)).To(BeTrue())
	})
})
