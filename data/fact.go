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
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/penny-vault/brfin/account"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type ReportKind string

const (
	Annual    ReportKind = "annual"
	Quarterly ReportKind = "quarterly"
)

type Basis string

const (
	Consolidated Basis = "consolidated"
	Separate     Basis = "separate"
)

const (
	// PriorPeriod marks a comparative figure restated in a later filing
	PriorPeriod = -1
	// CurrentPeriod marks the figure the filing is about
	CurrentPeriod = 0
)

// Fact is a single reported accounting value
type Fact struct {
	CompanyID   int
	CompanyName string
	FiscalID    string

	Kind    ReportKind
	Version int

	PeriodReference time.Time
	PeriodBegin     time.Time
	PeriodEnd       time.Time
	PeriodOrder     int

	AccountCode  string
	AccountName  string
	Basis        Basis
	AccountFixed bool

	// EquityColumn names the component column of a changes in equity
	// statement; it is empty for every other statement
	EquityColumn string

	Value decimal.Decimal
}

// Copy returns a shallow copy of the fact; all fields are values so the copy
// can be modified freely
func (fact *Fact) Copy() *Fact {
	dup := *fact
	return &dup
}

// Code parses the account code of the fact
func (fact *Fact) Code() (account.Code, error) {
	return account.Parse(fact.AccountCode)
}

// IsPointInTime is true for balance sheet style facts that have no period begin
func (fact *Fact) IsPointInTime() bool {
	return fact.PeriodBegin.IsZero()
}

func (fact *Fact) MarshalZerologObject(e *zerolog.Event) {
	e.Int("CompanyID", fact.CompanyID)
	e.Str("Kind", string(fact.Kind))
	e.Int("Version", fact.Version)
	e.Time("PeriodEnd", fact.PeriodEnd)
	e.Str("AccountCode", fact.AccountCode)
	e.Str("Basis", string(fact.Basis))
	if fact.EquityColumn != "" {
		e.Str("EquityColumn", fact.EquityColumn)
	}
}

const factUpsertSQL = `INSERT INTO %[1]s (
	"company_id",
	"kind",
	"basis",
	"version",
	"period_reference",
	"period_begin",
	"period_end",
	"period_order",
	"account_code",
	"account_name",
	"account_fixed",
	"value",
	"equity_column"
) VALUES (
	$1,
	$2,
	$3,
	$4,
	$5,
	$6,
	$7,
	$8,
	$9,
	$10,
	$11,
	$12::numeric,
	$13
) ON CONFLICT ON CONSTRAINT %[1]s_pkey
DO UPDATE SET
	account_name = EXCLUDED.account_name,
	account_fixed = EXCLUDED.account_fixed,
	value = EXCLUDED.value;`

func (fact *Fact) args() []any {
	return []any{fact.CompanyID, string(fact.Kind), string(fact.Basis), fact.Version,
		fact.PeriodReference, fact.PeriodBegin, fact.PeriodEnd, fact.PeriodOrder,
		fact.AccountCode, fact.AccountName, fact.AccountFixed, fact.Value.String(), fact.EquityColumn}
}

// SaveDB upserts the fact into tbl
func (fact *Fact) SaveDB(ctx context.Context, tbl string, dbConn *pgxpool.Conn) error {
	tx, err := dbConn.Begin(ctx)
	if err != nil {
		return err
	}

	sql := fmt.Sprintf(factUpsertSQL, tbl)
	if _, err := tx.Exec(ctx, sql, fact.args()...); err != nil {
		log.Error().Err(err).Str("SQL", sql).Object("Fact", fact).Msg("error saving fact to database")
		if err := tx.Rollback(ctx); err != nil {
			log.Error().Err(err).Msg("error rolling back fact transaction")
		}
		return err
	}

	return tx.Commit(ctx)
}

// SaveFacts upserts all facts into tbl in a single transaction. Companies
// referenced by the facts are upserted into companyTbl first.
func SaveFacts(ctx context.Context, tbl, companyTbl string, dbConn *pgxpool.Conn, facts []*Fact) error {
	if len(facts) == 0 {
		return nil
	}

	tx, err := dbConn.Begin(ctx)
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	seen := make(map[int]bool)
	for _, fact := range facts {
		if !seen[fact.CompanyID] {
			seen[fact.CompanyID] = true
			company := CompanyFromFact(fact)
			batch.Queue(fmt.Sprintf(companyUpsertSQL, companyTbl), company.args()...)
		}
	}

	sql := fmt.Sprintf(factUpsertSQL, tbl)
	for _, fact := range facts {
		batch.Queue(sql, fact.args()...)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		log.Error().Err(err).Str("Table", tbl).Int("NumFacts", len(facts)).Msg("error saving facts to database")
		if err := tx.Rollback(ctx); err != nil {
			log.Error().Err(err).Msg("error rolling back fact transaction")
		}
		return err
	}

	return tx.Commit(ctx)
}
