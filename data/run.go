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
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type RunStatus string

const (
	RunSuccess RunStatus = "success"
	RunFailed  RunStatus = "failed"
	RunSkipped RunStatus = "skipped"
)

// RunSummary describes one import of a published file
type RunSummary struct {
	RunID     uuid.UUID
	FileName  string
	StartTime time.Time
	EndTime   time.Time
	NumFacts  int
	Status    RunStatus
}

func (summary *RunSummary) MarshalZerologObject(e *zerolog.Event) {
	e.Str("RunID", summary.RunID.String())
	e.Str("FileName", summary.FileName)
	e.Int("NumFacts", summary.NumFacts)
	e.Str("Status", string(summary.Status))
}

// Batch is a group of facts parsed from one published file along with the
// file's HTTP validators
type Batch struct {
	RunID        uuid.UUID
	FileName     string
	Size         int64
	ETag         string
	LastModified time.Time
	Facts        []*Fact
}
