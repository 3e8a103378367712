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
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/brfin/data"
	"github.com/penny-vault/brfin/report"
)

var _ = Describe("Deduplicate", func() {
	It("keeps the latest version of a filed figure", func() {
		facts := makeFacts(
			factRow{kind: data.Annual, version: 2, end: "2020-12-31", code: "1.01", value: 520},
			factRow{kind: data.Annual, version: 1, end: "2020-12-31", code: "1.01", value: 500},
		)

		deduped := report.Deduplicate(facts)
		Expect(deduped).To(HaveLen(1))
		Expect(deduped[0].Value.IntPart()).To(Equal(int64(520)))
		Expect(deduped[0].Version).To(Equal(2))
	})

	It("prefers restated comparatives from later filings", func() {
		facts := makeFacts(
			factRow{kind: data.Annual, reference: "2021-12-31", end: "2020-12-31", order: data.PriorPeriod, code: "1", value: 810},
			factRow{kind: data.Annual, reference: "2020-12-31", end: "2020-12-31", code: "1", value: 800},
		)

		deduped := report.Deduplicate(facts)
		Expect(deduped).To(HaveLen(1))
		Expect(deduped[0].Value.IntPart()).To(Equal(int64(810)))
	})

	It("keeps only the latest quarterly period", func() {
		facts := makeFacts(
			factRow{kind: data.Annual, end: "2021-12-31", code: "1", value: 100},
			factRow{kind: data.Quarterly, end: "2022-03-31", code: "1", value: 110},
			factRow{kind: data.Quarterly, end: "2022-06-30", code: "1", value: 120},
		)

		deduped := report.Deduplicate(facts)
		Expect(deduped).To(HaveLen(2))
		Expect(deduped[0].PeriodEnd).To(Equal(day("2021-12-31")))
		Expect(deduped[1].PeriodEnd).To(Equal(day("2022-06-30")))
	})

	It("lets a later annual report replace a quarter of the same year", func() {
		facts := makeFacts(
			factRow{kind: data.Quarterly, end: "2022-09-30", code: "1", value: 130},
			factRow{kind: data.Annual, end: "2022-12-31", code: "1", value: 140},
		)

		deduped := report.Deduplicate(facts)
		Expect(deduped).To(HaveLen(1))
		Expect(deduped[0].Kind).To(Equal(data.Annual))
	})

	It("drops quarterly facts when the annual report is newer", func() {
		facts := makeFacts(
			factRow{kind: data.Annual, end: "2021-12-31", code: "1", value: 100},
			factRow{kind: data.Quarterly, end: "2021-09-30", code: "1", value: 90},
			factRow{kind: data.Quarterly, end: "2021-09-30", code: "1.09", value: 5},
		)

		deduped := report.Deduplicate(facts)
		Expect(deduped).To(HaveLen(1))
		Expect(deduped[0].Kind).To(Equal(data.Annual))
		Expect(deduped[0].AccountCode).To(Equal("1"))
	})

	It("is idempotent", func() {
		once := report.Deduplicate(incomeFixture())
		twice := report.Deduplicate(once)
		Expect(twice).To(Equal(once))
	})

	It("returns one fact per year and code", func() {
		seen := make(map[string]bool)
		for _, fact := range report.Deduplicate(incomeFixture()) {
			key := fact.PeriodEnd.Format("2006") + "/" + fact.AccountCode
			Expect(seen).NotTo(HaveKey(key))
			seen[key] = true
		}
	})

	It("returns nothing for nothing", func() {
		Expect(report.Deduplicate(nil)).To(BeEmpty())
	})
})

var _ = Describe("EquityTotals", func() {
	equityFact := func(column string, value int64) *data.Fact {
		fact := makeFact(factRow{kind: data.Annual, begin: "2021-01-01", end: "2021-12-31", code: "5.04", value: value})
		fact.EquityColumn = column
		return fact
	}

	It("prefers the consolidated total", func() {
		facts := []*data.Fact{
			equityFact("Capital Social Integralizado", 10),
			equityFact("Patrimônio Líquido Consolidado", 30),
			equityFact("Patrimônio Líquido", 25),
		}

		totals := report.EquityTotals(facts)
		Expect(totals).To(HaveLen(1))
		Expect(totals[0].Value.IntPart()).To(Equal(int64(30)))
	})

	It("falls back to the total and then to the first column by name", func() {
		totals := report.EquityTotals([]*data.Fact{equityFact("Reservas de Lucro", 5), equityFact("Patrimônio Líquido", 25)})
		Expect(totals).To(HaveLen(1))
		Expect(totals[0].EquityColumn).To(Equal("Patrimônio Líquido"))

		totals = report.EquityTotals([]*data.Fact{equityFact("Reservas de Lucro", 5), equityFact("Capital Social Integralizado", 10)})
		Expect(totals).To(HaveLen(1))
		Expect(totals[0].EquityColumn).To(Equal("Capital Social Integralizado"))
	})

	It("passes other statements through", func() {
		facts := incomeFixture()
		Expect(report.EquityTotals(facts)).To(Equal(facts))
	})
})

var _ = Describe("ResolveVersions", func() {
	It("collapses each filed figure to its highest version", func() {
		facts := makeFacts(
			factRow{kind: data.Quarterly, version: 1, reference: "2022-06-30", begin: "2021-01-01", end: "2021-06-30", order: data.PriorPeriod, code: "3.11", value: 450},
			factRow{kind: data.Quarterly, version: 3, reference: "2022-06-30", begin: "2021-01-01", end: "2021-06-30", order: data.PriorPeriod, code: "3.11", value: 470},
			factRow{kind: data.Quarterly, version: 2, reference: "2022-06-30", begin: "2021-01-01", end: "2021-06-30", order: data.PriorPeriod, code: "3.11", value: 460},
			factRow{kind: data.Quarterly, version: 1, begin: "2022-01-01", end: "2022-06-30", code: "3.11", value: 600},
		)

		resolved := report.ResolveVersions(facts)
		Expect(resolved).To(HaveLen(2))
		Expect(resolved[0].Value.IntPart()).To(Equal(int64(470)))
		Expect(resolved[1].Value.IntPart()).To(Equal(int64(600)))
	})
})
