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
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/penny-vault/brfin/data"
	"github.com/penny-vault/brfin/pkginfo"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	CVMBaseURL       = "https://dados.cvm.gov.br/dados/CIA_ABERTA/DOC/"
	DefaultRateLimit = 120
)

type CVM struct{}

func (cvm *CVM) Name() string {
	return "CVM"
}

func (cvm *CVM) ConfigDescription() map[string]string {
	return map[string]string{
		"rate_limit":   "Maximum number of requests per minute sent to the CVM portal:",
		"download_dir": "Directory to keep downloaded files in (leave empty to discard them):",
	}
}

func (cvm *CVM) Description() string {
	return `The Comissão de Valores Mobiliários (CVM) publishes the standardized financial statements of every Brazilian public company`
}

func (cvm *CVM) Datasets() map[string]Dataset {
	return map[string]Dataset{
		"DFP": {
			Name:        "DFP",
			Description: "Annual standardized financial statements (Demonstrações Financeiras Padronizadas).",
			Kind:        data.Annual,
			DateRange: func() (time.Time, time.Time) {
				return time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC), time.Now().UTC()
			},
			Fetch: fetchCVM("DFP", data.Annual),
		},
		"ITR": {
			Name:        "ITR",
			Description: "Quarterly financial information (Informações Trimestrais).",
			Kind:        data.Quarterly,
			DateRange: func() (time.Time, time.Time) {
				return time.Date(2011, 1, 1, 0, 0, 0, 0, time.UTC), time.Now().UTC()
			},
			Fetch: fetchCVM("ITR", data.Quarterly),
		},
	}
}

type remoteFile struct {
	Name         string
	URL          string
	Size         int64
	ETag         string
	LastModified time.Time
}

func (file *remoteFile) MarshalZerologObject(e *zerolog.Event) {
	e.Str("Name", file.Name)
	e.Int64("Size", file.Size)
	e.Str("ETag", file.ETag)
	e.Time("LastModified", file.LastModified)
}

type cvmAPI struct {
	client  *resty.Client
	limiter *rate.Limiter
}

func newCVMAPI(opts *Options) *cvmAPI {
	rateLimit := opts.RateLimit
	if rateLimit <= 0 {
		rateLimit = DefaultRateLimit
	}

	return &cvmAPI{
		client:  resty.New().SetHeader("User-Agent", pkginfo.UserAgent()).SetRetryCount(3).SetRetryWaitTime(5 * time.Second),
		limiter: rate.NewLimiter(rate.Limit(float64(rateLimit)/float64(60)), 1),
	}
}

// listFiles returns the URLs of every zip file linked from the index page
func (api *cvmAPI) listFiles(ctx context.Context, indexURL string) ([]string, error) {
	if err := api.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := api.client.R().SetContext(ctx).Get(indexURL)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode() >= 300 {
		return nil, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode())
	}

	base, err := url.Parse(indexURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	urls := make([]string, 0)
	doc.Find("a[href]").Each(func(_ int, anchor *goquery.Selection) {
		href := strings.TrimSpace(anchor.AttrOr("href", ""))
		if !strings.HasSuffix(strings.ToLower(href), ".zip") {
			return
		}

		link, err := url.Parse(href)
		if err != nil {
			return
		}

		fileURL := base.ResolveReference(link).String()
		if !seen[fileURL] {
			seen[fileURL] = true
			urls = append(urls, fileURL)
		}
	})

	sort.Strings(urls)
	return urls, nil
}

// head reads the validators of a published file
func (api *cvmAPI) head(ctx context.Context, fileURL string) (*remoteFile, error) {
	if err := api.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := api.client.R().SetContext(ctx).Head(fileURL)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode() >= 300 {
		return nil, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode())
	}

	file := &remoteFile{
		Name: path.Base(fileURL),
		URL:  fileURL,
		ETag: resp.Header().Get("ETag"),
	}

	if size, err := strconv.ParseInt(resp.Header().Get("Content-Length"), 10, 64); err == nil {
		file.Size = size
	}

	if lastModified, err := http.ParseTime(resp.Header().Get("Last-Modified")); err == nil {
		file.LastModified = lastModified.UTC()
	}

	return file, nil
}

func (api *cvmAPI) download(ctx context.Context, file *remoteFile) ([]byte, error) {
	if err := api.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := api.client.R().SetContext(ctx).Get(file.URL)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode() >= 300 {
		return nil, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode())
	}

	return resp.Body(), nil
}

func fetchCVM(dataset string, kind data.ReportKind) func(context.Context, *Options, chan<- *data.Batch, chan<- data.RunSummary) {
	return func(ctx context.Context, opts *Options, out chan<- *data.Batch, exitNotification chan<- data.RunSummary) {
		logger := zerolog.Ctx(ctx).With().Str("Dataset", dataset).Logger()
		startTime := time.Now()

		baseURL := opts.BaseURL
		if baseURL == "" {
			baseURL = CVMBaseURL
		}

		listFailed := func(fileName string) {
			exitNotification <- data.RunSummary{
				RunID:     uuid.New(),
				FileName:  fileName,
				StartTime: startTime,
				EndTime:   time.Now(),
				Status:    data.RunFailed,
			}
		}

		api := newCVMAPI(opts)
		indexURL, err := url.JoinPath(baseURL, dataset, "DADOS/")
		if err != nil {
			logger.Error().Err(err).Str("BaseURL", baseURL).Msg("invalid base url")
			listFailed(baseURL)
			return
		}

		urls, err := api.listFiles(ctx, indexURL)
		if err != nil {
			logger.Error().Err(err).Str("Url", indexURL).Msg("could not list files")
			listFailed(indexURL)
			return
		}

		logger.Info().Int("NumFiles", len(urls)).Msg("listed published files")

		for _, fileURL := range urls {
			summary := fetchFile(ctx, api, opts, kind, fileURL, out)
			summary.EndTime = time.Now()
			exitNotification <- summary
		}
	}
}

func fetchFile(ctx context.Context, api *cvmAPI, opts *Options, kind data.ReportKind, fileURL string, out chan<- *data.Batch) data.RunSummary {
	summary := data.RunSummary{
		RunID:     uuid.New(),
		FileName:  path.Base(fileURL),
		StartTime: time.Now(),
		Status:    data.RunFailed,
	}

	logger := zerolog.Ctx(ctx).With().Str("Url", fileURL).Str("RunID", summary.RunID.String()).Logger()

	file, err := api.head(ctx, fileURL)
	if err != nil {
		logger.Error().Err(err).Msg("could not read file headers")
		return summary
	}

	if opts.Ledger != nil {
		record, err := opts.Ledger.File(ctx, file.Name)
		if err != nil {
			logger.Error().Err(err).Msg("could not read file ledger")
			return summary
		}

		if !record.Changed(file.Size, file.ETag, file.LastModified) {
			logger.Debug().Object("File", file).Msg("file unchanged")
			summary.Status = data.RunSkipped
			return summary
		}
	}

	body, err := api.download(ctx, file)
	if err != nil {
		logger.Error().Err(err).Msg("download failed")
		return summary
	}

	if file.Size == 0 {
		file.Size = int64(len(body))
	}

	if opts.DownloadDir != "" {
		fn := filepath.Join(opts.DownloadDir, file.Name)
		if err := os.WriteFile(fn, body, 0o644); err != nil {
			logger.Warn().Err(err).Str("FileName", fn).Msg("could not keep downloaded file")
		}
	}

	facts, err := ParseZip(body, kind)
	if err != nil {
		logger.Error().Err(err).Msg("could not parse file")
		return summary
	}

	out <- &data.Batch{
		RunID:        summary.RunID,
		FileName:     file.Name,
		Size:         file.Size,
		ETag:         file.ETag,
		LastModified: file.LastModified,
		Facts:        facts,
	}

	summary.NumFacts = len(facts)
	summary.Status = data.RunSuccess
	logger.Info().Object("File", file).Int("NumFacts", len(facts)).Msg("parsed file")

	return summary
}
