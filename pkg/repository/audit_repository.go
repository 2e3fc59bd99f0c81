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

// Package repository implements the Postgres-backed persistence
// collaborators named across the module: audit.Sink, sla.Store,
// decisionlogic.ReviewQueue, and the ingestion stage's MetadataLogger.
// Every repository holds a *sqlx.DB, the handle internal/database.Connect
// returns.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/hebelmx/veriqan/pkg/domain"
)

// AuditRepository implements audit.Sink over a single append-only table.
type AuditRepository struct {
	DB *sqlx.DB
}

const auditInsertSQL = `
INSERT INTO audit_records
	(audit_id, recorded_at, correlation_id, file_id, action_type, stage, user_id, success, action_details, error_message)
VALUES
	(:audit_id, :recorded_at, :correlation_id, :file_id, :action_type, :stage, :user_id, :success, :action_details, :error_message)
ON CONFLICT (audit_id) DO NOTHING`

type auditRow struct {
	AuditID       string    `db:"audit_id"`
	RecordedAt    time.Time `db:"recorded_at"`
	CorrelationID string    `db:"correlation_id"`
	FileID        string    `db:"file_id"`
	ActionType    string    `db:"action_type"`
	Stage         string    `db:"stage"`
	UserID        string    `db:"user_id"`
	Success       bool      `db:"success"`
	ActionDetails string    `db:"action_details"`
	ErrorMessage  string    `db:"error_message"`
}

func toAuditRow(rec domain.AuditRecord) auditRow {
	return auditRow{
		AuditID:       rec.AuditID,
		RecordedAt:    rec.Timestamp,
		CorrelationID: rec.CorrelationID,
		FileID:        rec.FileID,
		ActionType:    string(rec.ActionType),
		Stage:         string(rec.Stage),
		UserID:        rec.UserID,
		Success:       rec.Success,
		ActionDetails: rec.ActionDetails,
		ErrorMessage:  rec.ErrorMessage,
	}
}

func (r auditRow) toDomain() domain.AuditRecord {
	return domain.AuditRecord{
		AuditID:       r.AuditID,
		Timestamp:     r.RecordedAt,
		CorrelationID: r.CorrelationID,
		FileID:        r.FileID,
		ActionType:    domain.AuditActionType(r.ActionType),
		Stage:         domain.AuditStage(r.Stage),
		UserID:        r.UserID,
		Success:       r.Success,
		ActionDetails: r.ActionDetails,
		ErrorMessage:  r.ErrorMessage,
	}
}

// InsertAuditRecord implements audit.Sink.
func (r *AuditRepository) InsertAuditRecord(ctx context.Context, rec domain.AuditRecord) error {
	_, err := r.DB.NamedExecContext(ctx, auditInsertSQL, toAuditRow(rec))
	if err != nil {
		return fmt.Errorf("insert audit record %s: %w", rec.AuditID, err)
	}
	return nil
}

// QueryAuditRecords implements audit.Sink.
func (r *AuditRepository) QueryAuditRecords(ctx context.Context, start, end time.Time, actionType *domain.AuditActionType, userID *string) ([]domain.AuditRecord, error) {
	query := `SELECT audit_id, recorded_at, correlation_id, file_id, action_type, stage, user_id, success, action_details, error_message
		FROM audit_records WHERE recorded_at >= $1 AND recorded_at <= $2`
	args := []any{start, end}

	if actionType != nil {
		args = append(args, string(*actionType))
		query += fmt.Sprintf(" AND action_type = $%d", len(args))
	}
	if userID != nil {
		args = append(args, *userID)
		query += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	query += " ORDER BY recorded_at ASC, audit_id ASC"

	var rows []auditRow
	if err := r.DB.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query audit records: %w", err)
	}
	out := make([]domain.AuditRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
