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
	"strings"
	"unicode"

	"github.com/rs/zerolog"
)

// Company identifies a filer. ID is the CVM registration code and FiscalID
// the CNPJ.
type Company struct {
	ID       int    `db:"company_id" json:"company_id"`
	Name     string `db:"name" json:"name"`
	FiscalID string `db:"fiscal_id" json:"fiscal_id"`
}

const companyUpsertSQL = `INSERT INTO %[1]s (
	"company_id",
	"name",
	"fiscal_id"
) VALUES (
	$1,
	$2,
	$3
) ON CONFLICT ON CONSTRAINT %[1]s_pkey
DO UPDATE SET
	name = EXCLUDED.name,
	fiscal_id = EXCLUDED.fiscal_id;`

func CompanyFromFact(fact *Fact) *Company {
	return &Company{
		ID:       fact.CompanyID,
		Name:     fact.CompanyName,
		FiscalID: fact.FiscalID,
	}
}

func (company *Company) args() []any {
	return []any{company.ID, company.Name, company.FiscalID}
}

func (company *Company) MarshalZerologObject(e *zerolog.Event) {
	e.Int("CompanyID", company.ID)
	e.Str("Name", company.Name)
	e.Str("FiscalID", company.FiscalID)
}

// NormalizeFiscalID strips the punctuation from a CNPJ so
// "33.000.167/0001-01" and "33000167000101" compare equal
func NormalizeFiscalID(fiscalID string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, fiscalID)
}
