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
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/penny-vault/brfin/data"
	"github.com/penny-vault/brfin/library"
)

var (
	ErrProviderNotFound = errors.New("provider not found")
	ErrDatasetNotFound  = errors.New("dataset not found")
	ErrStatus           = errors.New("status code is invalid")
	ErrInvalidRow       = errors.New("invalid row")
)

type Provider interface {
	Name() string
	ConfigDescription() map[string]string
	Description() string
	Datasets() map[string]Dataset
}

// Ledger reports which published files have already been imported
type Ledger interface {
	File(ctx context.Context, name string) (*library.FileRecord, error)
}

// Options configure a fetch. A nil Ledger downloads every file.
type Options struct {
	BaseURL     string
	RateLimit   int
	DownloadDir string
	Ledger      Ledger
}

type Dataset struct {
	Name        string
	Description string
	Kind        data.ReportKind
	DateRange   func() (time.Time, time.Time)

	// Fetch downloads every changed file of the dataset. Parsed files are
	// written to the batch channel and a summary of each file, including
	// skipped and failed ones, is written to the summary channel. Fetch does
	// not close either channel.
	Fetch func(context.Context, *Options, chan<- *data.Batch, chan<- data.RunSummary)
}

// Map lists the providers by name
var Map = map[string]Provider{
	"CVM": &CVM{},
}

// Get returns the named provider
func Get(name string) (Provider, error) {
	if p, ok := Map[name]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, name)
}

// Lookup returns a provider's dataset
func Lookup(providerName, datasetName string) (Dataset, error) {
	p, err := Get(providerName)
	if err != nil {
		return Dataset{}, err
	}

	if dataset, ok := p.Datasets()[datasetName]; ok {
		return dataset, nil
	}

	return Dataset{}, fmt.Errorf("%w: %s/%s", ErrDatasetNotFound, providerName, datasetName)
}

// Names returns the provider names in order
func Names() []string {
	names := make([]string, 0, len(Map))
	for name := range Map {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
