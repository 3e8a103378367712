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

package account_test

import (
	"errors"
	"sort"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/brfin/account"
)

var _ = Describe("Code", func() {
	Describe("Parse", func() {
		It("splits the statement from the nested levels", func() {
			code, err := account.Parse("2.01.04.01")
			Expect(err).NotTo(HaveOccurred())
			Expect(code.Statement()).To(Equal(account.LiabilitiesAndEquity))
			Expect(code.Levels()).To(Equal([]int{1, 4, 1}))
			Expect(code.Depth()).To(Equal(4))
			Expect(code.String()).To(Equal("2.01.04.01"))
		})

		It("accepts a bare statement code", func() {
			code, err := account.Parse("3")
			Expect(err).NotTo(HaveOccurred())
			Expect(code.Statement()).To(Equal(account.Income))
			Expect(code.Levels()).To(BeEmpty())
			Expect(code.Depth()).To(Equal(1))
		})

		DescribeTable("rejects malformed codes",
			func(raw string) {
				_, err := account.Parse(raw)
				Expect(err).To(HaveOccurred())
				Expect(errors.Is(err, account.ErrMalformedCode)).To(BeTrue())

				var formatErr *account.FormatError
				Expect(errors.As(err, &formatErr)).To(BeTrue())
				Expect(formatErr.Code).To(Equal(raw))
			},
			Entry("empty", ""),
			Entry("blank", "   "),
			Entry("non-numeric leading segment", "A.01"),
			Entry("empty segment", "1..01"),
			Entry("trailing separator", "1.01."),
			Entry("statement out of range", "8.01"),
			Entry("statement zero", "0.01"),
			Entry("signed segment", "1.-1"),
		)
	})

	Describe("statement kinds", func() {
		It("treats income and cash flow as flows", func() {
			Expect(account.Income.IsFlow()).To(BeTrue())
			Expect(account.CashFlow.IsFlow()).To(BeTrue())
			Expect(account.Assets.IsFlow()).To(BeFalse())
			Expect(account.LiabilitiesAndEquity.IsFlow()).To(BeFalse())
		})

		It("names statements", func() {
			Expect(account.CashFlow.String()).To(Equal("cash_flow"))
			Expect(account.Statement(9).String()).To(Equal("statement(9)"))
		})
	})

	Describe("HasPrefix", func() {
		It("matches whole segments only", func() {
			code := account.MustParse("1.01.02")
			Expect(code.HasPrefix("1")).To(BeTrue())
			Expect(code.HasPrefix("1.01")).To(BeTrue())
			Expect(code.HasPrefix("1.01.02")).To(BeTrue())
			Expect(code.HasPrefix("1.0")).To(BeFalse())
			Expect(code.HasPrefix("1.01.02.01")).To(BeFalse())
			Expect(account.MustParse("1.010").HasPrefix("1.01")).To(BeFalse())
		})

		It("recognizes earnings per share accounts", func() {
			Expect(account.MustParse("3.99.01.01").IsEarningsPerShare()).To(BeTrue())
			Expect(account.MustParse("3.09").IsEarningsPerShare()).To(BeFalse())
		})
	})

	Describe("WithinLevel", func() {
		DescribeTable("keeps codes with at most the requested number of segments",
			func(raw string, level int, expected bool) {
				Expect(account.MustParse(raw).WithinLevel(level)).To(Equal(expected))
			},
			Entry("level 2 drops a 4 segment code", "2.01.04.01", 2, false),
			Entry("level 2 keeps a 2 segment code", "2.01", 2, true),
			Entry("level 2 keeps a statement code", "1", 2, true),
			Entry("level 4 keeps a 4 segment code", "2.01.04.01", 4, true),
			Entry("zero disables the filter", "2.01.04.01.99", 0, true),
		)
	})

	Describe("Compare", func() {
		It("compares segments numerically", func() {
			Expect(account.Less("1.2", "1.10")).To(BeTrue())
			Expect(account.Less("1.10", "2.1")).To(BeTrue())
			Expect(account.Less("2.9", "2.10")).To(BeTrue())
			Expect(account.Less("2.10", "2.9")).To(BeFalse())
		})

		It("sorts parents before children", func() {
			Expect(account.Compare("1.01", "1.01.01")).To(Equal(-1))
			Expect(account.Compare("1.01.01", "1.01")).To(Equal(1))
			Expect(account.Compare("1.01", "1.01")).To(Equal(0))
		})

		It("produces a stable total order", func() {
			codes := []string{"2.1", "1.10", "1.2", "1", "bad", "1.01.01", "1.01"}
			sort.Slice(codes, func(i, j int) bool { return account.Less(codes[i], codes[j]) })
			Expect(codes).To(Equal([]string{"1", "1.01", "1.01.01", "1.2", "1.10", "2.1", "bad"}))
		})
	})
})
