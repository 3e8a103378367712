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
package provider

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/penny-vault/brfin/data"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
)

const thousandScale = "MIL"

// cvmRow is one line of a CVM statement file. Files that describe the
// filings themselves share some columns but have no account code.
type cvmRow struct {
	FiscalID        string `csv:"CNPJ_CIA"`
	PeriodReference string `csv:"DT_REFER"`
	Version         string `csv:"VERSAO"`
	CompanyName     string `csv:"DENOM_CIA"`
	CompanyID       string `csv:"CD_CVM"`
	Group           string `csv:"GRUPO_DFP"`
	Scale           string `csv:"ESCALA_MOEDA"`
	PeriodOrder     string `csv:"ORDEM_EXERC"`
	PeriodBegin     string `csv:"DT_INI_EXERC"`
	PeriodEnd       string `csv:"DT_FIM_EXERC"`
	AccountCode     string `csv:"CD_CONTA"`
	AccountName     string `csv:"DS_CONTA"`
	Value           string `csv:"VL_CONTA"`
	AccountFixed    string `csv:"ST_CONTA_FIXA"`
	EquityColumn    string `csv:"COLUNA_DF"`
}

func invalid(field, value string) error {
	return fmt.Errorf("%w: %s %q", ErrInvalidRow, field, value)
}

func parseDate(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}

	date, err := time.Parse(data.DateLayout, value)
	if err != nil {
		return time.Time{}, invalid(field, value)
	}

	return date, nil
}

func (row *cvmRow) fact(kind data.ReportKind) (*data.Fact, error) {
	fact := &data.Fact{
		CompanyName:  strings.TrimSpace(row.CompanyName),
		FiscalID:     strings.TrimSpace(row.FiscalID),
		Kind:         kind,
		AccountCode:  strings.TrimSpace(row.AccountCode),
		AccountName:  accountName(row.AccountName),
		AccountFixed: row.AccountFixed == "S",
		EquityColumn: strings.TrimSpace(row.EquityColumn),
	}

	var err error
	if fact.CompanyID, err = strconv.Atoi(strings.TrimSpace(row.CompanyID)); err != nil {
		return nil, invalid("CD_CVM", row.CompanyID)
	}

	if fact.Version, err = strconv.Atoi(strings.TrimSpace(row.Version)); err != nil {
		return nil, invalid("VERSAO", row.Version)
	}

	switch {
	case strings.HasPrefix(row.Group, "DF Con"):
		fact.Basis = data.Consolidated
	case strings.HasPrefix(row.Group, "DF Ind"):
		fact.Basis = data.Separate
	default:
		return nil, invalid("GRUPO_DFP", row.Group)
	}

	switch strings.ToUpper(strings.TrimSpace(row.PeriodOrder)) {
	case "ÚLTIMO":
		fact.PeriodOrder = data.CurrentPeriod
	case "PENÚLTIMO":
		fact.PeriodOrder = data.PriorPeriod
	default:
		return nil, invalid("ORDEM_EXERC", row.PeriodOrder)
	}

	if fact.PeriodReference, err = parseDate("DT_REFER", row.PeriodReference); err != nil {
		return nil, err
	}

	if fact.PeriodBegin, err = parseDate("DT_INI_EXERC", row.PeriodBegin); err != nil {
		return nil, err
	}

	if fact.PeriodEnd, err = parseDate("DT_FIM_EXERC", row.PeriodEnd); err != nil {
		return nil, err
	}

	if fact.PeriodEnd.IsZero() || fact.PeriodReference.IsZero() {
		return nil, invalid("DT_FIM_EXERC", row.PeriodEnd)
	}

	if fact.Value, err = decimal.NewFromString(strings.TrimSpace(row.Value)); err != nil {
		return nil, invalid("VL_CONTA", row.Value)
	}

	// earnings per share are published in units regardless of the file scale
	if strings.EqualFold(strings.TrimSpace(row.Scale), thousandScale) && !strings.HasPrefix(fact.AccountCode, "3.99") {
		fact.Value = fact.Value.Mul(decimal.NewFromInt(1000))
	}

	return fact, nil
}

// accountName harmonizes the share class labels used by some filers
func accountName(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\u00a0", " "))
	if name == "On" {
		return "ON"
	}
	return name
}

type factKey struct {
	companyID int
	kind      data.ReportKind
	basis     data.Basis
	version   int
	reference time.Time
	begin     time.Time
	end       time.Time
	order     int
	code      string
	column    string
}

// uniqueFacts drops repeated rows, keeping the last one published
func uniqueFacts(facts []*data.Fact) []*data.Fact {
	index := make(map[factKey]int, len(facts))
	unique := make([]*data.Fact, 0, len(facts))

	for _, fact := range facts {
		key := factKey{
			companyID: fact.CompanyID,
			kind:      fact.Kind,
			basis:     fact.Basis,
			version:   fact.Version,
			reference: fact.PeriodReference,
			begin:     fact.PeriodBegin,
			end:       fact.PeriodEnd,
			order:     fact.PeriodOrder,
			code:      fact.AccountCode,
			column:    fact.EquityColumn,
		}

		if idx, ok := index[key]; ok {
			unique[idx] = fact
			continue
		}

		index[key] = len(unique)
		unique = append(unique, fact)
	}

	return unique
}

// ParseStatementCSV decodes a semicolon separated ISO-8859-1 statement file.
// Rows without an account code are ignored and malformed rows are logged and
// skipped.
func ParseStatementCSV(in io.Reader, kind data.ReportKind) ([]*data.Fact, error) {
	csvReader := csv.NewReader(charmap.ISO8859_1.NewDecoder().Reader(in))
	csvReader.Comma = ';'
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1

	rows := []*cvmRow{}
	if err := gocsv.UnmarshalCSV(csvReader, &rows); err != nil {
		return nil, err
	}

	facts := make([]*data.Fact, 0, len(rows))
	for idx, row := range rows {
		if strings.TrimSpace(row.AccountCode) == "" {
			continue
		}

		fact, err := row.fact(kind)
		if err != nil {
			log.Warn().Err(err).Int("Row", idx+2).Str("CompanyID", row.CompanyID).Msg("skipping malformed row")
			continue
		}

		facts = append(facts, fact)
	}

	return facts, nil
}

// ParseZip reads every statement file in a CVM zip archive
func ParseZip(body []byte, kind data.ReportKind) ([]*data.Fact, error) {
	zipReader, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return nil, err
	}

	facts := make([]*data.Fact, 0)
	for _, zipFile := range zipReader.File {
		if !strings.EqualFold(path.Ext(zipFile.Name), ".csv") || zipFile.UncompressedSize64 == 0 {
			continue
		}

		contents, err := readZipFile(zipFile)
		if err != nil {
			return nil, err
		}

		parsed, err := ParseStatementCSV(bytes.NewReader(contents), kind)
		if err != nil {
			log.Error().Err(err).Str("FileName", zipFile.Name).Msg("could not parse statement file")
			return nil, err
		}

		log.Debug().Str("FileName", zipFile.Name).Int("NumFacts", len(parsed)).Msg("parsed statement file")
		facts = append(facts, parsed...)
	}

	return uniqueFacts(facts), nil
}

func readZipFile(zf *zip.File) ([]byte, error) {
	f, err := zf.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
