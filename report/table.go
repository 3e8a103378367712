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
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/goccy/go-json"
	"github.com/penny-vault/brfin/data"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Column is one period of a table
type Column struct {
	PeriodEnd time.Time

	// Trailing marks the last twelve months column built from quarterly data
	Trailing bool
}

func (col Column) Label() string {
	label := col.PeriodEnd.Format(data.DateLayout)
	if col.Trailing {
		label += " (ltm)"
	}
	return label
}

// Row holds the values of one account code or metric. Values align with the
// table columns; an invalid NullDecimal means there is no data for the period.
type Row struct {
	Code   string
	Name   string
	Fixed  bool
	Values []decimal.NullDecimal
}

// Table is a period indexed report
type Table struct {
	Name        string
	Title       string
	CompanyID   int
	CompanyName string

	Columns  []Column
	Rows     []*Row
	Warnings []DataGapWarning
}

// DataGapWarning reports a statement or period without any matching facts
type DataGapWarning struct {
	Statement string
	Message   string
}

func (w DataGapWarning) String() string {
	return fmt.Sprintf("%s: %s", w.Statement, w.Message)
}

// IsEmpty is true when the table has no rows or no columns
func (table *Table) IsEmpty() bool {
	return len(table.Rows) == 0 || len(table.Columns) == 0
}

// Row returns the row for code or nil
func (table *Table) Row(code string) *Row {
	for _, row := range table.Rows {
		if row.Code == code {
			return row
		}
	}
	return nil
}

// Series returns the values of code aligned with the table columns. A code
// that is not in the table yields a series with no data.
func (table *Table) Series(code string) []decimal.NullDecimal {
	return table.SeriesOn(code, table.Columns)
}

// SeriesOn returns the values of code aligned with columns, which may come
// from another table
func (table *Table) SeriesOn(code string, columns []Column) []decimal.NullDecimal {
	series := make([]decimal.NullDecimal, len(columns))
	row := table.Row(code)
	if row == nil {
		return series
	}

	index := make(map[time.Time]int, len(table.Columns))
	for idx, col := range table.Columns {
		index[col.PeriodEnd] = idx
	}

	for idx, col := range columns {
		if src, ok := index[col.PeriodEnd]; ok {
			series[idx] = row.Values[src]
		}
	}

	return series
}

// Value returns the value of code at periodEnd
func (table *Table) Value(code string, periodEnd time.Time) decimal.NullDecimal {
	series := table.SeriesOn(code, []Column{{PeriodEnd: periodEnd}})
	return series[0]
}

// Tail returns a copy of the table restricted to the last n columns
func (table *Table) Tail(n int) *Table {
	if n <= 0 || n >= len(table.Columns) {
		return table
	}

	start := len(table.Columns) - n
	out := *table
	out.Columns = append([]Column{}, table.Columns[start:]...)
	out.Rows = make([]*Row, len(table.Rows))
	for idx, row := range table.Rows {
		dup := *row
		dup.Values = append([]decimal.NullDecimal{}, row.Values[start:]...)
		out.Rows[idx] = &dup
	}

	return &out
}

// UnionColumns returns the distinct period ends of all tables in ascending
// order. A period is trailing if any table marks it so.
func UnionColumns(tables ...*Table) []Column {
	trailing := make(map[time.Time]bool)
	for _, table := range tables {
		if table == nil {
			continue
		}
		for _, col := range table.Columns {
			trailing[col.PeriodEnd] = trailing[col.PeriodEnd] || col.Trailing
		}
	}

	columns := make([]Column, 0, len(trailing))
	for periodEnd, isTrailing := range trailing {
		columns = append(columns, Column{PeriodEnd: periodEnd, Trailing: isTrailing})
	}
	sort.Slice(columns, func(i, j int) bool {
		return columns[i].PeriodEnd.Before(columns[j].PeriodEnd)
	})

	return columns
}

// Merge combines the rows of several tables on the union of their columns.
// Rows keep the order of the tables they come from.
func Merge(name, title string, tables ...*Table) *Table {
	merged := &Table{
		Name:    name,
		Title:   title,
		Columns: UnionColumns(tables...),
	}

	for _, table := range tables {
		if table == nil {
			continue
		}
		if merged.CompanyID == 0 {
			merged.CompanyID = table.CompanyID
			merged.CompanyName = table.CompanyName
		}
		for _, row := range table.Rows {
			merged.Rows = append(merged.Rows, &Row{
				Code:   row.Code,
				Name:   row.Name,
				Fixed:  row.Fixed,
				Values: table.SeriesOn(row.Code, merged.Columns),
			})
		}
		merged.Warnings = append(merged.Warnings, table.Warnings...)
	}

	return merged
}

func formatValue(p *message.Printer, value decimal.NullDecimal) string {
	if !value.Valid {
		return "-"
	}
	f, _ := value.Decimal.Round(2).Float64()
	return p.Sprintf("%.2f", f)
}

// Markdown renders the table as a markdown document
func (table *Table) Markdown() string {
	p := message.NewPrinter(language.English)
	builder := strings.Builder{}

	builder.WriteString(fmt.Sprintf("# %s\n\n", table.Title))
	if table.CompanyName != "" {
		builder.WriteString(fmt.Sprintf("%s (%d)\n\n", table.CompanyName, table.CompanyID))
	}

	if table.IsEmpty() {
		builder.WriteString("No data\n")
		for _, warning := range table.Warnings {
			builder.WriteString(fmt.Sprintf("  * %s\n", warning.Message))
		}
		return builder.String()
	}

	builder.WriteString("| Code | Account |")
	for _, col := range table.Columns {
		builder.WriteString(fmt.Sprintf(" %s |", col.Label()))
	}
	builder.WriteString("\n|---|---|")
	for range table.Columns {
		builder.WriteString("---:|")
	}
	builder.WriteString("\n")

	for _, row := range table.Rows {
		builder.WriteString(fmt.Sprintf("| %s | %s |", row.Code, row.Name))
		for _, value := range row.Values {
			builder.WriteString(fmt.Sprintf(" %s |", formatValue(p, value)))
		}
		builder.WriteString("\n")
	}

	return builder.String()
}

type jsonRow struct {
	Code   string                         `json:"code"`
	Name   string                         `json:"name"`
	Fixed  bool                           `json:"fixed"`
	Values map[string]decimal.NullDecimal `json:"values"`
}

type jsonTable struct {
	Name        string    `json:"name"`
	Title       string    `json:"title"`
	CompanyID   int       `json:"company_id,omitempty"`
	CompanyName string    `json:"company_name,omitempty"`
	Columns     []string  `json:"columns"`
	Rows        []jsonRow `json:"rows"`
	Warnings    []string  `json:"warnings,omitempty"`
}

// JSON encodes the table with one object per row keyed by column label.
// Missing values are null.
func (table *Table) JSON() ([]byte, error) {
	out := jsonTable{
		Name:        table.Name,
		Title:       table.Title,
		CompanyID:   table.CompanyID,
		CompanyName: table.CompanyName,
		Columns:     make([]string, len(table.Columns)),
		Rows:        make([]jsonRow, len(table.Rows)),
	}

	for idx, col := range table.Columns {
		out.Columns[idx] = col.Label()
	}

	for idx, row := range table.Rows {
		values := make(map[string]decimal.NullDecimal, len(row.Values))
		for colIdx, value := range row.Values {
			values[out.Columns[colIdx]] = value
		}
		out.Rows[idx] = jsonRow{Code: row.Code, Name: row.Name, Fixed: row.Fixed, Values: values}
	}

	for _, warning := range table.Warnings {
		out.Warnings = append(out.Warnings, warning.Message)
	}

	return json.MarshalIndent(out, "", "  ")
}

// WriteCSV writes one line per row with a column per period. Missing values
// are empty cells.
func (table *Table) WriteCSV(out io.Writer) error {
	writer := gocsv.DefaultCSVWriter(out)

	header := []string{"code", "name", "fixed"}
	for _, col := range table.Columns {
		header = append(header, col.Label())
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, row := range table.Rows {
		record := []string{row.Code, row.Name, fmt.Sprint(row.Fixed)}
		for _, value := range row.Values {
			if value.Valid {
				record = append(record, value.Decimal.String())
			} else {
				record = append(record, "")
			}
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
