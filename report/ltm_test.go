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

func byCode(facts []*data.Fact, kind data.ReportKind) map[string]*data.Fact {
	out := make(map[string]*data.Fact)
	for _, fact := range data.Filter(facts, data.ByKind(kind)) {
		out[fact.AccountCode] = fact
	}
	return out
}

var _ = Describe("ReconstructLTM", func() {
	It("adds the last annual figure and removes the prior year to date", func() {
		facts := report.ReconstructLTM(incomeFixture())

		Expect(data.Filter(facts, data.ByKind(data.Annual))).To(HaveLen(3))

		ltm := byCode(facts, data.Quarterly)
		Expect(ltm).To(HaveLen(3))

		netIncome := ltm["3.11"]
		Expect(netIncome.Value.IntPart()).To(Equal(int64(1150)))
		Expect(netIncome.PeriodEnd).To(Equal(day("2022-06-30")))
		Expect(netIncome.PeriodReference).To(Equal(day("2022-06-30")))
		Expect(netIncome.PeriodBegin).To(Equal(day("2021-06-30")))
		Expect(netIncome.PeriodOrder).To(Equal(data.CurrentPeriod))
	})

	It("takes the outer union of codes", func() {
		ltm := byCode(report.ReconstructLTM(incomeFixture()), data.Quarterly)

		// only in the annual report
		Expect(ltm["3.01"].Value.IntPart()).To(Equal(int64(2000)))
		Expect(ltm["3.01"].Kind).To(Equal(data.Quarterly))

		// only in the quarterly report
		Expect(ltm["3.03"].Value.IntPart()).To(Equal(int64(100)))
	})

	It("returns exactly the annual rows when the annual report is current", func() {
		fixture := append(incomeFixture(), makeFact(factRow{kind: data.Annual, begin: "2022-01-01", end: "2022-12-31", code: "3.11", value: 1300}))
		annual := data.Filter(fixture, data.ByKind(data.Annual))

		facts := report.ReconstructLTM(fixture)
		Expect(facts).To(HaveLen(len(annual)))
		for idx, fact := range facts {
			Expect(*fact).To(Equal(*annual[idx]))
		}
	})

	It("returns the annual rows when there is no quarterly data", func() {
		annual := data.Filter(incomeFixture(), data.ByKind(data.Annual))
		Expect(report.ReconstructLTM(annual)).To(HaveLen(len(annual)))
		Expect(report.ReconstructLTM(nil)).To(BeEmpty())
	})

	It("treats a quarter ending on the annual date as stale", func() {
		facts := makeFacts(
			factRow{kind: data.Annual, begin: "2021-01-01", end: "2021-12-31", code: "3.11", value: 1000},
			factRow{kind: data.Quarterly, begin: "2021-01-01", end: "2021-12-31", code: "3.11", value: 990},
		)
		Expect(data.Filter(report.ReconstructLTM(facts), data.ByKind(data.Quarterly))).To(BeEmpty())
	})

	It("uses the newest version of a comparative", func() {
		fixture := append(incomeFixture(), makeFact(factRow{
			kind: data.Quarterly, version: 2, reference: "2022-06-30", begin: "2021-01-01", end: "2021-06-30",
			order: data.PriorPeriod, code: "3.11", value: 460,
		}))

		ltm := byCode(report.ReconstructLTM(fixture), data.Quarterly)
		Expect(ltm["3.11"].Value.IntPart()).To(Equal(int64(1140)))
		Expect(ltm["3.11"].Version).To(Equal(2))
	})

	It("does not modify its input", func() {
		fixture := incomeFixture()
		report.ReconstructLTM(fixture)
		Expect(fixture[3].Value.IntPart()).To(Equal(int64(600)))
		Expect(fixture[3].PeriodBegin).To(Equal(day("2022-01-01")))
		Expect(fixture[6].Value.IntPart()).To(Equal(int64(450)))
	})
})
