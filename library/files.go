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
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// FileRecord tracks a published file that has been imported
type FileRecord struct {
	Name         string    `db:"name"`
	Size         int64     `db:"size"`
	ETag         string    `db:"etag"`
	LastModified time.Time `db:"last_modified"`
	LastImport   time.Time `db:"last_import"`
	RunID        uuid.UUID `db:"run_id"`
	NumFacts     int       `db:"num_facts"`
}

func (record *FileRecord) MarshalZerologObject(e *zerolog.Event) {
	e.Str("Name", record.Name)
	e.Int64("Size", record.Size)
	e.Str("ETag", record.ETag)
	e.Time("LastModified", record.LastModified)
}

// Changed reports whether the remote file differs from the imported one. A
// missing ETag falls back to comparing size and modification time.
func (record *FileRecord) Changed(size int64, etag string, lastModified time.Time) bool {
	if record == nil {
		return true
	}
	if etag != "" && record.ETag != "" {
		return etag != record.ETag
	}
	return size != record.Size || !lastModified.Equal(record.LastModified)
}

// File returns the import record for a file or nil when it was never imported
func (myLibrary *Library) File(ctx context.Context, name string) (*FileRecord, error) {
	conn, err := myLibrary.Pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, fmt.Sprintf(`SELECT name, size, etag, last_modified, last_import,
coalesce(run_id, '00000000-0000-0000-0000-000000000000'::uuid) AS run_id, num_facts FROM %s WHERE name=$1`, FilesTable), name)
	if err != nil {
		return nil, err
	}

	record := &FileRecord{}
	if err := pgxscan.ScanOne(record, rows); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}

	return record, nil
}

// Files returns the import records ordered by most recent import
func (myLibrary *Library) Files(ctx context.Context) ([]*FileRecord, error) {
	var records []*FileRecord
	err := pgxscan.Select(ctx, myLibrary.Pool, &records, fmt.Sprintf(`SELECT name, size, etag, last_modified,
last_import, coalesce(run_id, '00000000-0000-0000-0000-000000000000'::uuid) AS run_id, num_facts
FROM %s ORDER BY last_import DESC, name`, FilesTable))
	return records, err
}

// SaveFile upserts an import record
func (myLibrary *Library) SaveFile(ctx context.Context, record *FileRecord) error {
	conn, err := myLibrary.Pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	sql := fmt.Sprintf(`INSERT INTO %[1]s (
	"name",
	"size",
	"etag",
	"last_modified",
	"last_import",
	"run_id",
	"num_facts"
) VALUES (
	$1,
	$2,
	$3,
	$4,
	$5,
	$6,
	$7
) ON CONFLICT ON CONSTRAINT %[1]s_pkey
DO UPDATE SET
	size = EXCLUDED.size,
	etag = EXCLUDED.etag,
	last_modified = EXCLUDED.last_modified,
	last_import = EXCLUDED.last_import,
	run_id = EXCLUDED.run_id,
	num_facts = EXCLUDED.num_facts;`, FilesTable)

	if _, err := conn.Exec(ctx, sql, record.Name, record.Size, record.ETag, record.LastModified,
		record.LastImport, record.RunID, record.NumFacts); err != nil {
		log.Error().Err(err).Str("SQL", sql).Object("File", record).Msg("error saving file record")
		return err
	}

	return nil
}
