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

// Package account classifies CVM chart-of-accounts codes. A code is a
// dot-separated list of numeric segments; the first segment names the
// statement the account belongs to and each further segment is one level
// deeper in the account tree.
package account

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrMalformedCode = errors.New("malformed account code")
)

// FormatError is returned when an account code cannot be classified
type FormatError struct {
	Code   string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s %q: %s", ErrMalformedCode, e.Code, e.Reason)
}

func (e *FormatError) Unwrap() error {
	return ErrMalformedCode
}

// Statement is the financial statement an account code belongs to
type Statement int

const (
	Assets               Statement = 1
	LiabilitiesAndEquity Statement = 2
	Income               Statement = 3
	ComprehensiveIncome  Statement = 4
	ChangesInEquity      Statement = 5
	CashFlow             Statement = 6
	AddedValue           Statement = 7

	firstStatement = Assets
	lastStatement  = AddedValue
)

const (
	separator              = "."
	earningsPerSharePrefix = "3.99"
)

var statementNames = map[Statement]string{
	Assets:               "assets",
	LiabilitiesAndEquity: "liabilities_and_equity",
	Income:               "income",
	ComprehensiveIncome:  "comprehensive_income",
	ChangesInEquity:      "changes_in_equity",
	CashFlow:             "cash_flow",
	AddedValue:           "added_value",
}

func (s Statement) String() string {
	if name, ok := statementNames[s]; ok {
		return name
	}
	return fmt.Sprintf("statement(%d)", int(s))
}

// IsFlow reports whether values of the statement accumulate over a period
// (income statement and cash flow) rather than describe a point in time
func (s Statement) IsFlow() bool {
	return s == Income || s == CashFlow
}

// Code is a parsed account code
type Code struct {
	raw      string
	segments []string
	numbers  []int
}

// Parse validates and splits an account code
func Parse(raw string) (Code, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Code{}, &FormatError{Code: raw, Reason: "empty code"}
	}

	segments := strings.Split(trimmed, separator)
	numbers := make([]int, len(segments))
	for idx, segment := range segments {
		if segment == "" {
			return Code{}, &FormatError{Code: raw, Reason: fmt.Sprintf("segment %d is empty", idx+1)}
		}

		n, err := strconv.Atoi(segment)
		if err != nil || n < 0 || strings.ContainsAny(segment, "+-") {
			if idx == 0 {
				return Code{}, &FormatError{Code: raw, Reason: "leading segment is not numeric"}
			}
			return Code{}, &FormatError{Code: raw, Reason: fmt.Sprintf("segment %d is not numeric", idx+1)}
		}
		numbers[idx] = n
	}

	if numbers[0] < int(firstStatement) || numbers[0] > int(lastStatement) {
		return Code{}, &FormatError{Code: raw, Reason: fmt.Sprintf("unknown statement type %d", numbers[0])}
	}

	return Code{
		raw:      trimmed,
		segments: segments,
		numbers:  numbers,
	}, nil
}

// MustParse is like Parse but panics on malformed input. Only use it with
// constant codes.
func MustParse(raw string) Code {
	code, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return code
}

func (c Code) String() string {
	return c.raw
}

// Statement returns the statement type encoded in the leading segment
func (c Code) Statement() Statement {
	if len(c.numbers) == 0 {
		return 0
	}
	return Statement(c.numbers[0])
}

// Levels returns the nested level numbers below the statement
func (c Code) Levels() []int {
	if len(c.numbers) < 2 {
		return nil
	}
	levels := make([]int, len(c.numbers)-1)
	copy(levels, c.numbers[1:])
	return levels
}

// Depth is the number of segments in the code; "2.01.04" has depth 3
func (c Code) Depth() int {
	return len(c.segments)
}

// HasPrefix reports whether prefix names this code or one of its ancestors.
// Matching is per segment so "1.01" is a prefix of "1.01.02" but not of "1.010".
func (c Code) HasPrefix(prefix string) bool {
	prefixSegments := strings.Split(strings.TrimSpace(prefix), separator)
	if len(prefixSegments) > len(c.segments) {
		return false
	}

	for idx, segment := range prefixSegments {
		if c.segments[idx] != segment {
			return false
		}
	}

	return true
}

// IsEarningsPerShare reports whether the account is a per-share figure,
// which is never scaled by the report unit
func (c Code) IsEarningsPerShare() bool {
	return c.HasPrefix(earningsPerSharePrefix)
}

// WithinLevel reports whether the code is at most level segments deep. A
// level of zero disables the filter.
func (c Code) WithinLevel(level int) bool {
	return level <= 0 || c.Depth() <= level
}

// Compare orders codes segment by segment using numeric comparison, so
// "1.2" < "1.10" < "2.1". A code sorts before its own descendants. It
// returns -1, 0 or +1.
func (c Code) Compare(other Code) int {
	for idx := 0; idx < len(c.numbers) && idx < len(other.numbers); idx++ {
		switch {
		case c.numbers[idx] < other.numbers[idx]:
			return -1
		case c.numbers[idx] > other.numbers[idx]:
			return 1
		}
	}

	switch {
	case len(c.numbers) < len(other.numbers):
		return -1
	case len(c.numbers) > len(other.numbers):
		return 1
	}

	// "1.01" and "1.1" are numerically equal; keep the order total
	return strings.Compare(c.raw, other.raw)
}

// Compare orders two raw codes with Code.Compare. Codes that fail to parse
// sort after valid ones and among themselves lexically.
func Compare(a, b string) int {
	codeA, errA := Parse(a)
	codeB, errB := Parse(b)

	switch {
	case errA == nil && errB == nil:
		return codeA.Compare(codeB)
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

// Less is Compare(a, b) < 0, suitable for sort.Slice
func Less(a, b string) bool {
	return Compare(a, b) < 0
}
