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
	"strconv"
	"strings"
	"sync"

	"github.com/alphadose/haxmap"
	"github.com/penny-vault/brfin/data"
	"github.com/rs/zerolog/log"
)

// maxCVMCodeDigits separates CVM codes from CNPJs, which always have 14 digits
const maxCVMCodeDigits = 9

func cacheKey(identifier string) string {
	if _, err := strconv.Atoi(identifier); err == nil && len(identifier) <= maxCVMCodeDigits {
		return "cvm:" + strings.TrimLeft(identifier, "0")
	}
	return "cnpj:" + data.NormalizeFiscalID(identifier)
}

// Resolver maps CVM codes and normalized CNPJs to the companies of a single
// directory. The company list is read on the first lookup and kept for the
// lifetime of the resolver.
type Resolver struct {
	dir   Directory
	cache *haxmap.Map[string, *data.Company]

	mu     sync.Mutex
	loaded bool
}

func NewResolver(dir Directory) *Resolver {
	return &Resolver{
		dir:   dir,
		cache: haxmap.New[string, *data.Company](),
	}
}

// Load reads every company of the directory into the cache
func (resolver *Resolver) Load(ctx context.Context) error {
	resolver.mu.Lock()
	defer resolver.mu.Unlock()

	companies, err := resolver.dir.Companies(ctx)
	if err != nil {
		log.Error().Err(err).Msg("could not load companies into cache")
		return err
	}

	for _, company := range companies {
		resolver.cache.Set(cacheKey(strconv.Itoa(company.ID)), company)
		if company.FiscalID != "" {
			resolver.cache.Set(cacheKey(company.FiscalID), company)
		}
	}
	resolver.loaded = true

	log.Debug().Int("NumCompanies", len(companies)).Msg("loaded company cache")
	return nil
}

func (resolver *Resolver) isLoaded() bool {
	resolver.mu.Lock()
	defer resolver.mu.Unlock()
	return resolver.loaded
}

// Resolve finds a company by CVM code or by CNPJ
func (resolver *Resolver) Resolve(ctx context.Context, identifier string) (*data.Company, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, &NotFoundError{Identifier: identifier}
	}

	if !resolver.isLoaded() {
		if err := resolver.Load(ctx); err != nil {
			return nil, err
		}
	}

	if company, ok := resolver.cache.Get(cacheKey(identifier)); ok {
		return company, nil
	}

	return nil, &NotFoundError{Identifier: identifier}
}
