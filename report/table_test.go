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
	"bytes"
	"strings"

	"github.com/goccy/go-json"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/penny-vault/brfin/report"
)

var _ = Describe("Table", func() {
	var table *report.Table

	BeforeEach(func() {
		var err error
		table, err = report.BuildNamed(incomeFixture(), "income", report.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())
	})

	It("renders markdown with labelled columns", func() {
		doc := table.Markdown()
		Expect(doc).To(ContainSubstring("# Income Statement"))
		Expect(doc).To(ContainSubstring("| Code | Account | 2020-12-31 | 2021-12-31 | 2022-06-30 (ltm) |"))
		Expect(doc).To(ContainSubstring("| 3.11 | Conta 3.11 | 800.00 | 1,000.00 | 1,150.00 |"))
		Expect(doc).To(ContainSubstring("| 3.03 | Conta 3.03 | - | - | 100.00 |"))
	})

	It("writes csv with empty cells for missing data", func() {
		buf := &bytes.Buffer{}
		Expect(table.WriteCSV(buf)).To(Succeed())

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		Expect(lines).To(HaveLen(4))
		Expect(lines[0]).To(Equal("code,name,fixed,2020-12-31,2021-12-31,2022-06-30 (ltm)"))
		Expect(lines[2]).To(Equal("3.03,Conta 3.03,true,,,100"))
	})

	It("encodes json with null for missing data", func() {
		out, err := table.JSON()
		Expect(err).NotTo(HaveOccurred())

		decoded := map[string]any{}
		Expect(json.Unmarshal(out, &decoded)).To(Succeed())
		Expect(decoded["name"]).To(Equal("income"))
		Expect(decoded["columns"]).To(HaveLen(3))

		rows := decoded["rows"].([]any)
		first := rows[0].(map[string]any)
		Expect(first["code"]).To(Equal("3.01"))
		values := first["values"].(map[string]any)
		Expect(values["2020-12-31"]).To(BeNil())
		Expect(values["2021-12-31"]).To(Equal("2000"))
	})

	It("keeps the tail columns", func() {
		tail := table.Tail(2)
		Expect(labelsOf(tail)).To(Equal([]string{"2021-12-31", "2022-06-30 (ltm)"}))
		Expect(valuesOf(tail.Series("3.11"))).To(Equal([]string{"1000", "1150"}))
		Expect(table.Columns).To(HaveLen(3))
	})

	It("aligns series on foreign columns", func() {
		other := &report.Table{
			Columns: []report.Column{{PeriodEnd: day("2019-12-31")}, {PeriodEnd: day("2021-12-31")}},
			Rows: []*report.Row{{Code: "1", Values: []decimal.NullDecimal{
				{Decimal: decimal.NewFromInt(1), Valid: true},
				{Decimal: decimal.NewFromInt(2), Valid: true},
			}}},
		}

		columns := report.UnionColumns(table, other)
		Expect(columns).To(HaveLen(4))
		Expect(columns[0].PeriodEnd).To(Equal(day("2019-12-31")))
		Expect(columns[3].Trailing).To(BeTrue())

		Expect(valuesOf(other.SeriesOn("1", columns))).To(Equal([]string{"1", "no data", "2", "no data"}))
		Expect(valuesOf(other.SeriesOn("missing", columns))).To(Equal([]string{"no data", "no data", "no data", "no data"}))
		Expect(valueOf(other.Value("1", day("2021-12-31")))).To(Equal("2"))

		merged := report.Merge("merged", "Merged", table, other)
		Expect(codesOf(merged)).To(Equal([]string{"3.01", "3.03", "3.11", "1"}))
		Expect(valuesOf(merged.Series("3.11"))).To(Equal([]string{"no data", "800", "1000", "1150"}))
	})
})
