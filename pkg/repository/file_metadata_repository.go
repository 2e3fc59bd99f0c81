/*
Copyright 2026 Veriqan Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/hebelmx/veriqan/pkg/domain"
)

// FileMetadataRepository implements the ingestion stage's MetadataLogger.
type FileMetadataRepository struct {
	DB *sqlx.DB
}

type fileMetadataRow struct {
	FileID            string `db:"file_id"`
	FileName          string `db:"file_name"`
	FilePath          string `db:"file_path"`
	SourceURL         string `db:"source_url"`
	DownloadTimestamp sql.NullTime `db:"download_timestamp"`
	Checksum          string `db:"checksum"`
	FileSizeBytes     int64  `db:"file_size_bytes"`
	Format            string `db:"format"`
}

// LogFileMetadata implements ingestion.MetadataLogger: best-effort upsert
// keyed on the content checksum, matching FileMetadata's identity
// (invariant I1).
func (r *FileMetadataRepository) LogFileMetadata(ctx context.Context, meta domain.FileMetadata) error {
	row := fileMetadataRow{
		FileID:        meta.FileID,
		FileName:      meta.FileName,
		FilePath:      meta.FilePath,
		SourceURL:     meta.SourceURL,
		Checksum:      meta.Checksum,
		FileSizeBytes: meta.FileSizeBytes,
		Format:        string(meta.Format),
	}
	if !meta.DownloadTimestamp.IsZero() {
		row.DownloadTimestamp = sql.NullTime{Time: meta.DownloadTimestamp, Valid: true}
	}
	_, err := r.DB.NamedExecContext(ctx, `
		INSERT INTO file_metadata (file_id, file_name, file_path, source_url, download_timestamp, checksum, file_size_bytes, format)
		VALUES (:file_id, :file_name, :file_path, :source_url, :download_timestamp, :checksum, :file_size_bytes, :format)
		ON CONFLICT (file_id) DO UPDATE SET
			file_path = EXCLUDED.file_path,
			download_timestamp = EXCLUDED.download_timestamp`, row)
	if err != nil {
		return fmt.Errorf("log file metadata %s: %w", meta.FileID, err)
	}
	return nil
}

// GetByChecksum looks up a previously logged file by content checksum, used
// to reconcile the redis dedupe cache (pkg/cache) against durable storage.
func (r *FileMetadataRepository) GetByChecksum(ctx context.Context, checksum string) (domain.FileMetadata, bool, error) {
	var row fileMetadataRow
	err := r.DB.GetContext(ctx, &row, `SELECT file_id, file_name, file_path, source_url, download_timestamp, checksum, file_size_bytes, format
		FROM file_metadata WHERE checksum = $1`, checksum)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.FileMetadata{}, false, nil
	}
	if err != nil {
		return domain.FileMetadata{}, false, fmt.Errorf("get file metadata by checksum: %w", err)
	}
	meta := domain.FileMetadata{
		FileID:        row.FileID,
		FileName:      row.FileName,
		FilePath:      row.FilePath,
		SourceURL:     row.SourceURL,
		Checksum:      row.Checksum,
		FileSizeBytes: row.FileSizeBytes,
		Format:        domain.FileFormat(row.Format),
	}
	if row.DownloadTimestamp.Valid {
		meta.DownloadTimestamp = row.DownloadTimestamp.Time
	}
	return meta, true, nil
}
