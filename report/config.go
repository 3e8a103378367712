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
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/penny-vault/brfin/data"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidConfig = errors.New("invalid report configuration")
)

// ValidationError describes the first configuration setting that failed
// validation
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %q %s", ErrInvalidConfig, e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfig
}

// DefaultFirstPeriod is the earliest period CVM publishes standardized data for
var DefaultFirstPeriod = time.Date(2009, 12, 31, 0, 0, 0, 0, time.UTC)

var namedUnits = map[string]decimal.Decimal{
	"unit":     decimal.NewFromInt(1),
	"thousand": decimal.NewFromInt(1_000),
	"million":  decimal.NewFromInt(1_000_000),
	"billion":  decimal.NewFromInt(1_000_000_000),
}

// Config controls how a statement is assembled
type Config struct {
	Basis data.Basis

	// Unit divides every value except earnings per share
	Unit decimal.Decimal

	// DetailLevel is the maximum number of code segments kept; 0 keeps all
	DetailLevel int

	FirstPeriod time.Time
	LastPeriod  time.Time

	// Years keeps only the most recent columns when positive
	Years int
}

// DefaultConfig returns a consolidated, unscaled configuration starting at
// DefaultFirstPeriod
func DefaultConfig() Config {
	return Config{
		Basis:       data.Consolidated,
		Unit:        decimal.NewFromInt(1),
		FirstPeriod: DefaultFirstPeriod,
	}
}

// Validate checks every setting and returns a *ValidationError for the first
// invalid one
func (cfg Config) Validate() error {
	if cfg.Basis != data.Consolidated && cfg.Basis != data.Separate {
		return &ValidationError{Field: "basis", Value: string(cfg.Basis), Reason: "must be consolidated or separate"}
	}

	if !cfg.Unit.IsPositive() {
		return &ValidationError{Field: "unit", Value: cfg.Unit.String(), Reason: "must be greater than zero"}
	}

	switch cfg.DetailLevel {
	case 0, 2, 3, 4:
	default:
		return &ValidationError{Field: "detail level", Value: fmt.Sprint(cfg.DetailLevel), Reason: "must be none, 2, 3 or 4"}
	}

	if !cfg.FirstPeriod.IsZero() && !cfg.LastPeriod.IsZero() && cfg.LastPeriod.Before(cfg.FirstPeriod) {
		return &ValidationError{Field: "last period", Value: cfg.LastPeriod.Format(data.DateLayout), Reason: "is before first period"}
	}

	if cfg.Years < 0 {
		return &ValidationError{Field: "years", Value: fmt.Sprint(cfg.Years), Reason: "must not be negative"}
	}

	return nil
}

// ParseBasis accepts consolidated or separate, plus the CVM abbreviations con
// and ind
func ParseBasis(value string) (data.Basis, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "consolidated", "con":
		return data.Consolidated, nil
	case "separate", "ind", "individual":
		return data.Separate, nil
	}
	return "", &ValidationError{Field: "basis", Value: value, Reason: "must be consolidated or separate"}
}

// ParseUnit accepts a named unit (thousand, million, billion) or a positive
// number
func ParseUnit(value string) (decimal.Decimal, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return decimal.NewFromInt(1), nil
	}

	if unit, ok := namedUnits[normalized]; ok {
		return unit, nil
	}

	unit, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Zero, &ValidationError{Field: "unit", Value: value, Reason: "is not a number"}
	}

	if !unit.IsPositive() {
		return decimal.Zero, &ValidationError{Field: "unit", Value: value, Reason: "must be greater than zero"}
	}

	return unit, nil
}

// ParseDetailLevel accepts none, an empty string, or 2 through 4
func ParseDetailLevel(value string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "none", "0":
		return 0, nil
	case "2":
		return 2, nil
	case "3":
		return 3, nil
	case "4":
		return 4, nil
	}
	return 0, &ValidationError{Field: "detail level", Value: value, Reason: "must be none, 2, 3 or 4"}
}

// ParseDate parses a YYYY-MM-DD calendar date; an empty string is the zero time
func ParseDate(field, value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, nil
	}

	date, err := time.Parse(data.DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, &ValidationError{Field: field, Value: value, Reason: "is not a YYYY-MM-DD date"}
	}

	return date, nil
}
