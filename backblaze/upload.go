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
package backblaze

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kothar/go-backblaze"
	"github.com/rs/zerolog/log"
)

var (
	ErrBucketNotFound = errors.New("bucket not found")
)

// Config holds the B2 credentials and destination of snapshot uploads
type Config struct {
	ApplicationID  string
	ApplicationKey string
	Bucket         string
	Directory      string
}

// Enabled reports whether uploads are configured
func (cfg Config) Enabled() bool {
	return cfg.ApplicationID != "" && cfg.ApplicationKey != "" && cfg.Bucket != ""
}

// ObjectName is the name of the uploaded file inside the bucket
func (cfg Config) ObjectName(fn string) string {
	if cfg.Directory == "" {
		return filepath.Base(fn)
	}
	return fmt.Sprintf("%s/%s", cfg.Directory, filepath.Base(fn))
}

// Upload copies a snapshot file to the configured bucket
func Upload(fn string, cfg Config) error {
	b2, err := backblaze.NewB2(backblaze.Credentials{
		KeyID:          cfg.ApplicationID,
		ApplicationKey: cfg.ApplicationKey,
	})
	if err != nil {
		log.Error().Err(err).Str("BucketName", cfg.Bucket).Msg("authorize backblaze failed")
		return err
	}

	bucket, err := b2.Bucket(cfg.Bucket)
	if err != nil {
		log.Error().Err(err).Str("BucketName", cfg.Bucket).Msg("lookup bucket failed")
		return err
	}
	if bucket == nil {
		log.Error().Str("BucketName", cfg.Bucket).Msg("bucket does not exist")
		return ErrBucketNotFound
	}

	reader, err := os.Open(fn)
	if err != nil {
		log.Error().Err(err).Str("FileName", fn).Msg("could not open snapshot")
		return err
	}
	defer reader.Close()

	outName := cfg.ObjectName(fn)
	metadata := map[string]string{
		"kind": "brfin-snapshot",
	}

	file, err := bucket.UploadFile(outName, metadata, reader)
	if err != nil {
		log.Error().Err(err).Str("FileName", outName).Str("BucketName", cfg.Bucket).Msg("save file to backblaze failed")
		return err
	}

	log.Info().Str("FileName", file.Name).Int64("Size", file.ContentLength).Str("ID", file.ID).Msg("uploaded snapshot to backblaze")
	return nil
}
