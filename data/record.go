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
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"
)

const DateLayout = "2006-01-02"

var (
	ErrInvalidRecord = errors.New("invalid fact record")
)

// FactRecord is the flat, serializable form of a Fact used for CSV and
// parquet files
type FactRecord struct {
	CompanyID       int32  `db:"company_id" csv:"company_id" json:"company_id" parquet:"name=company_id, type=INT32"`
	CompanyName     string `db:"name" csv:"company_name" json:"company_name" parquet:"name=company_name, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	FiscalID        string `db:"fiscal_id" csv:"fiscal_id" json:"fiscal_id" parquet:"name=fiscal_id, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Kind            string `db:"kind" csv:"kind" json:"kind" parquet:"name=kind, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Version         int32  `db:"version" csv:"version" json:"version" parquet:"name=version, type=INT32"`
	PeriodReference string `db:"period_reference" csv:"period_reference" json:"period_reference" parquet:"name=period_reference, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	PeriodBegin     string `db:"period_begin" csv:"period_begin" json:"period_begin" parquet:"name=period_begin, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	PeriodEnd       string `db:"period_end" csv:"period_end" json:"period_end" parquet:"name=period_end, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	PeriodOrder     int32  `db:"period_order" csv:"period_order" json:"period_order" parquet:"name=period_order, type=INT32"`
	AccountCode     string `db:"account_code" csv:"account_code" json:"account_code" parquet:"name=account_code, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	AccountName     string `db:"account_name" csv:"account_name" json:"account_name" parquet:"name=account_name, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Basis           string `db:"basis" csv:"basis" json:"basis" parquet:"name=basis, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	AccountFixed    bool   `db:"account_fixed" csv:"account_fixed" json:"account_fixed" parquet:"name=account_fixed, type=BOOLEAN"`
	Value           string `db:"value" csv:"value" json:"value" parquet:"name=value, type=BYTE_ARRAY, convertedtype=UTF8"`
	EquityColumn    string `db:"equity_column" csv:"equity_column" json:"equity_column" parquet:"name=equity_column, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
}

func formatDate(date time.Time) string {
	if date.IsZero() {
		return ""
	}
	return date.Format(DateLayout)
}

func parseDate(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	date, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s %q", ErrInvalidRecord, field, value)
	}
	return date, nil
}

// NewFactRecord flattens a fact
func NewFactRecord(fact *Fact) *FactRecord {
	return &FactRecord{
		CompanyID:       int32(fact.CompanyID),
		CompanyName:     fact.CompanyName,
		FiscalID:        fact.FiscalID,
		Kind:            string(fact.Kind),
		Version:         int32(fact.Version),
		PeriodReference: formatDate(fact.PeriodReference),
		PeriodBegin:     formatDate(fact.PeriodBegin),
		PeriodEnd:       formatDate(fact.PeriodEnd),
		PeriodOrder:     int32(fact.PeriodOrder),
		AccountCode:     fact.AccountCode,
		AccountName:     fact.AccountName,
		Basis:           string(fact.Basis),
		AccountFixed:    fact.AccountFixed,
		Value:           fact.Value.String(),
		EquityColumn:    fact.EquityColumn,
	}
}

// Fact converts the record back into a fact
func (record *FactRecord) Fact() (*Fact, error) {
	kind := ReportKind(record.Kind)
	if kind != Annual && kind != Quarterly {
		return nil, fmt.Errorf("%w: kind %q", ErrInvalidRecord, record.Kind)
	}

	basis := Basis(record.Basis)
	if basis != Consolidated && basis != Separate {
		return nil, fmt.Errorf("%w: basis %q", ErrInvalidRecord, record.Basis)
	}

	value, err := decimal.NewFromString(record.Value)
	if err != nil {
		return nil, fmt.Errorf("%w: value %q", ErrInvalidRecord, record.Value)
	}

	fact := &Fact{
		CompanyID:    int(record.CompanyID),
		CompanyName:  record.CompanyName,
		FiscalID:     record.FiscalID,
		Kind:         kind,
		Version:      int(record.Version),
		PeriodOrder:  int(record.PeriodOrder),
		AccountCode:  record.AccountCode,
		AccountName:  record.AccountName,
		Basis:        basis,
		AccountFixed: record.AccountFixed,
		EquityColumn: record.EquityColumn,
		Value:        value,
	}

	if fact.PeriodReference, err = parseDate("period_reference", record.PeriodReference); err != nil {
		return nil, err
	}
	if fact.PeriodBegin, err = parseDate("period_begin", record.PeriodBegin); err != nil {
		return nil, err
	}
	if fact.PeriodEnd, err = parseDate("period_end", record.PeriodEnd); err != nil {
		return nil, err
	}

	return fact, nil
}

// FactsFromRecords converts records, reporting the first invalid row
func FactsFromRecords(records []*FactRecord) ([]*Fact, error) {
	facts := make([]*Fact, 0, len(records))
	for idx, record := range records {
		fact, err := record.Fact()
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", idx+1, err)
		}
		facts = append(facts, fact)
	}
	return facts, nil
}

// LoadCSV reads a comma separated fact file with a header row
func LoadCSV(in io.Reader) ([]*Fact, error) {
	records := []*FactRecord{}
	if err := gocsv.Unmarshal(in, &records); err != nil {
		return nil, err
	}
	return FactsFromRecords(records)
}

// WriteCSV writes facts as a comma separated file with a header row
func WriteCSV(out io.Writer, facts []*Fact) error {
	records := make([]*FactRecord, len(facts))
	for idx, fact := range facts {
		records[idx] = NewFactRecord(fact)
	}
	return gocsv.Marshal(records, out)
}

// SaveParquet writes facts to a zstd compressed parquet file
func SaveParquet(facts []*Fact, fn string) error {
	fh, err := local.NewLocalFileWriter(fn)
	if err != nil {
		log.Error().Err(err).Str("FileName", fn).Msg("cannot create local file")
		return err
	}
	defer fh.Close()

	pw, err := writer.NewParquetWriter(fh, new(FactRecord), 4)
	if err != nil {
		log.Error().Err(err).Msg("parquet write failed")
		return err
	}

	pw.RowGroupSize = 128 * 1024 * 1024 // 128M
	pw.PageSize = 8 * 1024              // 8k
	pw.CompressionType = parquet.CompressionCodec_ZSTD

	for _, fact := range facts {
		if err = pw.Write(NewFactRecord(fact)); err != nil {
			log.Error().Err(err).Object("Fact", fact).Msg("parquet write failed for record")
			return err
		}
	}

	if err = pw.WriteStop(); err != nil {
		log.Error().Err(err).Msg("parquet write failed")
		return err
	}

	log.Info().Int("NumRecords", len(facts)).Str("FileName", fn).Msg("parquet write finished")
	return nil
}

// LoadParquet reads a file written by SaveParquet
func LoadParquet(fn string) ([]*Fact, error) {
	fh, err := local.NewLocalFileReader(fn)
	if err != nil {
		log.Error().Err(err).Str("FileName", fn).Msg("cannot open local file")
		return nil, err
	}
	defer fh.Close()

	pr, err := reader.NewParquetReader(fh, new(FactRecord), 4)
	if err != nil {
		log.Error().Err(err).Str("FileName", fn).Msg("parquet read failed")
		return nil, err
	}
	defer pr.ReadStop()

	numRows := int(pr.GetNumRows())
	rows := make([]FactRecord, numRows)
	if err := pr.Read(&rows); err != nil {
		log.Error().Err(err).Str("FileName", fn).Msg("parquet read failed")
		return nil, err
	}

	records := make([]*FactRecord, numRows)
	for idx := range rows {
		records[idx] = &rows[idx]
	}

	return FactsFromRecords(records)
}
