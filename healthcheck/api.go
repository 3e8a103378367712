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
package healthcheck

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
)

var (
	ErrStatus = errors.New("status code is invalid")
)

// BaseURL is the healthchecks.io ping endpoint
var BaseURL = "https://hc-ping.com"

// Start signals that a job started
func Start(id string) error {
	return ping(id, "start", "")
}

// Success signals that a job finished, with an optional run log
func Success(id string, body string) error {
	return ping(id, "", body)
}

// Failure signals that a job failed, with an optional run log
func Failure(id string, body string) error {
	return ping(id, "fail", body)
}

func ping(id, signal, body string) error {
	if id == "" {
		return nil
	}

	url := fmt.Sprintf("%s/%s", strings.TrimSuffix(BaseURL, "/"), id)
	if signal != "" {
		url = fmt.Sprintf("%s/%s", url, signal)
	}

	client := resty.New()
	resp, err := client.R().
		SetHeader("Content-Type", "text/plain").
		SetBody(body).
		Post(url)

	if err != nil {
		return err
	}

	if resp.StatusCode() != 200 {
		return fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode())
	}

	return nil
}
