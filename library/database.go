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
package library

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/penny-vault/brfin/data"
	"github.com/rs/zerolog/log"
)

const (
	FactsTable     = "facts"
	CompaniesTable = "companies"
	FilesTable     = "cvm_files"
)

const factColumns = `f.company_id, c.name, c.fiscal_id, f.kind, f.version,
to_char(f.period_reference, 'YYYY-MM-DD') AS period_reference,
CASE WHEN f.period_begin = '0001-01-01' THEN '' ELSE to_char(f.period_begin, 'YYYY-MM-DD') END AS period_begin,
to_char(f.period_end, 'YYYY-MM-DD') AS period_end,
f.period_order, f.account_code, f.account_name, f.basis, f.account_fixed, f.value::text AS value,
f.equity_column`

type Library struct {
	DBUrl string
	Name  string
	Owner string

	Pool *pgxpool.Pool `toml:"-"`
}

// Connect to the database configured for the library
func (myLibrary *Library) Connect(ctx context.Context) error {
	if myLibrary.Pool != nil {
		return nil
	}

	pool, err := pgxpool.New(ctx, myLibrary.DBUrl)
	if err != nil {
		return err
	}
	myLibrary.Pool = pool

	return nil
}

// Close the database pool
func (myLibrary *Library) Close() {
	if myLibrary.Pool != nil {
		myLibrary.Pool.Close()
	}
}

// NewFromDB creates a new library object with values from the database
func NewFromDB(ctx context.Context, dbURL string) (*Library, error) {
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	myLibrary := Library{
		DBUrl: dbURL,
		Pool:  pool,
	}

	if err := conn.QueryRow(ctx, "SELECT name, owner FROM library LIMIT 1").Scan(&myLibrary.Name, &myLibrary.Owner); err != nil {
		return nil, err
	}

	return &myLibrary, nil
}

// SaveDB creates a new record in the library table for this library
func (myLibrary *Library) SaveDB(ctx context.Context) error {
	conn, err := myLibrary.Pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `INSERT INTO library ("name", "owner") VALUES ($1, $2)`, myLibrary.Name, myLibrary.Owner)
	return err
}

// Companies returns every company in the library ordered by name
func (myLibrary *Library) Companies(ctx context.Context) ([]*data.Company, error) {
	var companies []*data.Company
	err := pgxscan.Select(ctx, myLibrary.Pool, &companies,
		fmt.Sprintf(`SELECT company_id, name, fiscal_id FROM %s ORDER BY name, company_id`, CompaniesTable))
	return companies, err
}

// FactsFor returns all facts filed by a company
func (myLibrary *Library) FactsFor(ctx context.Context, companyID int) ([]*data.Fact, error) {
	conn, err := myLibrary.Pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	var exists bool
	if err := conn.QueryRow(ctx, fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE company_id=$1)", CompaniesTable),
		companyID).Scan(&exists); err != nil {
		return nil, err
	}

	if !exists {
		return nil, &NotFoundError{Identifier: strconv.Itoa(companyID)}
	}

	var records []*data.FactRecord
	sql := fmt.Sprintf(`SELECT %s FROM %s f JOIN %s c ON c.company_id = f.company_id WHERE f.company_id = $1`,
		factColumns, FactsTable, CompaniesTable)
	if err := pgxscan.Select(ctx, conn, &records, sql, companyID); err != nil {
		log.Error().Err(err).Str("SQL", sql).Int("CompanyID", companyID).Msg("could not load facts")
		return nil, err
	}

	return data.FactsFromRecords(records)
}

// AllFacts returns every fact in the library
func (myLibrary *Library) AllFacts(ctx context.Context) ([]*data.Fact, error) {
	var records []*data.FactRecord
	sql := fmt.Sprintf(`SELECT %s FROM %s f JOIN %s c ON c.company_id = f.company_id ORDER BY f.company_id`,
		factColumns, FactsTable, CompaniesTable)
	if err := pgxscan.Select(ctx, myLibrary.Pool, &records, sql); err != nil {
		log.Error().Err(err).Str("SQL", sql).Msg("could not load facts")
		return nil, err
	}

	return data.FactsFromRecords(records)
}

// SaveFacts upserts facts and the companies they belong to
func (myLibrary *Library) SaveFacts(ctx context.Context, facts []*data.Fact) error {
	conn, err := myLibrary.Pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	return data.SaveFacts(ctx, FactsTable, CompaniesTable, conn, facts)
}

// NumCompanies returns the number of companies with facts in the library
func (myLibrary *Library) NumCompanies(ctx context.Context) (int, error) {
	count := 0
	err := myLibrary.Pool.QueryRow(ctx, fmt.Sprintf("SELECT count(*) FROM %s", CompaniesTable)).Scan(&count)
	return count, err
}

// TotalRecords returns the total number of facts in the library
func (myLibrary *Library) TotalRecords(ctx context.Context) (int, error) {
	count := 0
	err := myLibrary.Pool.QueryRow(ctx, fmt.Sprintf("SELECT count(*) FROM %s", FactsTable)).Scan(&count)
	return count, err
}

// PeriodRange returns the earliest and latest period end in the library
func (myLibrary *Library) PeriodRange(ctx context.Context) (time.Time, time.Time, error) {
	var first, last time.Time
	err := myLibrary.Pool.QueryRow(ctx, fmt.Sprintf(`SELECT coalesce(min(period_end), '0001-01-01'::date),
coalesce(max(period_end), '0001-01-01'::date) FROM %s`, FactsTable)).Scan(&first, &last)
	return first, last, err
}

// LastUpdated returns the date that the database was last updated
func (myLibrary *Library) LastUpdated(ctx context.Context) (time.Time, error) {
	var lastUpdated time.Time
	err := myLibrary.Pool.QueryRow(ctx,
		fmt.Sprintf("SELECT coalesce(max(last_import), '0001-01-01'::timestamp) FROM %s", FilesTable)).Scan(&lastUpdated)
	if err != nil {
		return time.Time{}, err
	}

	return lastUpdated, nil
}

// SaveBatches continuously reads parsed files from the queue and stores
// them. A file is recorded as imported only after its facts are saved.
func (myLibrary *Library) SaveBatches(queue <-chan *data.Batch, wg *sync.WaitGroup) {
	ctx := context.Background()
	defer wg.Done()

	for batch := range queue {
		logger := log.With().Str("FileName", batch.FileName).Str("RunID", batch.RunID.String()).Logger()

		if err := myLibrary.SaveFacts(ctx, batch.Facts); err != nil {
			logger.Error().Err(err).Msg("cannot save facts to database")
			continue
		}

		record := &FileRecord{
			Name:         batch.FileName,
			Size:         batch.Size,
			ETag:         batch.ETag,
			LastModified: batch.LastModified,
			LastImport:   time.Now(),
			RunID:        batch.RunID,
			NumFacts:     len(batch.Facts),
		}

		if err := myLibrary.SaveFile(ctx, record); err != nil {
			logger.Error().Err(err).Msg("cannot record imported file")
			continue
		}

		logger.Info().Int("NumFacts", len(batch.Facts)).Msg("saved facts")
	}
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
