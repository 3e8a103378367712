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
)

// Statement is a named report assembled from one or more account code
// prefixes
type Statement struct {
	Name     string
	Title    string
	Prefixes []string

	// Flow statements are reconstructed to the last twelve months when
	// quarterly data is newer than the last annual filing
	Flow bool
}

var Statements = map[string]*Statement{
	"assets":                  {Name: "assets", Title: "Assets", Prefixes: []string{"1"}},
	"cash":                    {Name: "cash", Title: "Cash and Short-Term Investments", Prefixes: []string{"1.01.01", "1.01.02"}},
	"current_assets":          {Name: "current_assets", Title: "Current Assets", Prefixes: []string{"1.01"}},
	"non_current_assets":      {Name: "non_current_assets", Title: "Non-Current Assets", Prefixes: []string{"1.02"}},
	"liabilities":             {Name: "liabilities", Title: "Liabilities", Prefixes: []string{"2.01", "2.02"}},
	"debt":                    {Name: "debt", Title: "Financial Debt", Prefixes: []string{"2.01.04", "2.02.01"}},
	"current_liabilities":     {Name: "current_liabilities", Title: "Current Liabilities", Prefixes: []string{"2.01"}},
	"non_current_liabilities": {Name: "non_current_liabilities", Title: "Non-Current Liabilities", Prefixes: []string{"2.02"}},
	"liabilities_and_equity":  {Name: "liabilities_and_equity", Title: "Liabilities and Equity", Prefixes: []string{"2"}},
	"equity":                  {Name: "equity", Title: "Equity", Prefixes: []string{"2.03"}},
	"income":                  {Name: "income", Title: "Income Statement", Prefixes: []string{"3"}, Flow: true},
	"earnings_per_share":      {Name: "earnings_per_share", Title: "Earnings per Share", Prefixes: []string{"3.99.01.01", "3.99.02.01"}},
	"comprehensive_income":    {Name: "comprehensive_income", Title: "Comprehensive Income", Prefixes: []string{"4"}},
	"changes_in_equity":       {Name: "changes_in_equity", Title: "Changes in Equity", Prefixes: []string{"5"}},
	"cash_flow":               {Name: "cash_flow", Title: "Cash Flow", Prefixes: []string{"6"}, Flow: true},
	"added_value":             {Name: "added_value", Title: "Added Value", Prefixes: []string{"7"}},
}

// LookupStatement finds a statement by name
func LookupStatement(name string) (*Statement, error) {
	if statement, ok := Statements[name]; ok {
		return statement, nil
	}
	return nil, &ValidationError{Field: "statement", Value: name, Reason: "is not a known statement"}
}

// StatementFor returns the complete statement that holds codes of the given
// statement type
func StatementFor(statementType account.Statement) *Statement {
	switch statementType {
	case account.Assets:
		return Statements["assets"]
	case account.LiabilitiesAndEquity:
		return Statements["liabilities_and_equity"]
	case account.Income:
		return Statements["income"]
	case account.ComprehensiveIncome:
		return Statements["comprehensive_income"]
	case account.ChangesInEquity:
		return Statements["changes_in_equity"]
	case account.CashFlow:
		return Statements["cash_flow"]
	case account.AddedValue:
		return Statements["added_value"]
	}
	return nil
}

// StatementNames lists the known statements alphabetically
func StatementNames() []string {
	names := make([]string, 0, len(Statements))
	for name := range Statements {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
