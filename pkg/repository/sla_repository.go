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
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/hebelmx/veriqan/pkg/domain"
)

// SLARepository implements pkg/sla's Store: one row per tracked file,
// upserted on every Save.
type SLARepository struct {
	DB *sqlx.DB
}

type slaRow struct {
	FileID          string        `db:"file_id"`
	IntakeDate      time.Time     `db:"intake_date"`
	Deadline        time.Time     `db:"deadline"`
	RemainingMillis int64         `db:"remaining_millis"`
	EscalationLevel string        `db:"escalation_level"`
	IsAtRisk        bool          `db:"is_at_risk"`
	IsBreached      bool          `db:"is_breached"`
}

func (r slaRow) toDomain() domain.SLAStatus {
	return domain.SLAStatus{
		FileID:          r.FileID,
		IntakeDate:      r.IntakeDate,
		Deadline:        r.Deadline,
		RemainingTime:   time.Duration(r.RemainingMillis) * time.Millisecond,
		EscalationLevel: domain.EscalationLevel(r.EscalationLevel),
		IsAtRisk:        r.IsAtRisk,
		IsBreached:      r.IsBreached,
	}
}

func toSLARow(s domain.SLAStatus) slaRow {
	return slaRow{
		FileID:          s.FileID,
		IntakeDate:      s.IntakeDate,
		Deadline:        s.Deadline,
		RemainingMillis: s.RemainingTime.Milliseconds(),
		EscalationLevel: string(s.EscalationLevel),
		IsAtRisk:        s.IsAtRisk,
		IsBreached:      s.IsBreached,
	}
}

// Get implements sla.Store.
func (r *SLARepository) Get(ctx context.Context, fileID string) (domain.SLAStatus, bool, error) {
	var row slaRow
	err := r.DB.GetContext(ctx, &row, `SELECT file_id, intake_date, deadline, remaining_millis, escalation_level, is_at_risk, is_breached
		FROM sla_status WHERE file_id = $1`, fileID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.SLAStatus{}, false, nil
	}
	if err != nil {
		return domain.SLAStatus{}, false, fmt.Errorf("get sla status %s: %w", fileID, err)
	}
	return row.toDomain(), true, nil
}

const slaUpsertSQL = `
INSERT INTO sla_status (file_id, intake_date, deadline, remaining_millis, escalation_level, is_at_risk, is_breached)
VALUES (:file_id, :intake_date, :deadline, :remaining_millis, :escalation_level, :is_at_risk, :is_breached)
ON CONFLICT (file_id) DO UPDATE SET
	deadline = EXCLUDED.deadline,
	remaining_millis = EXCLUDED.remaining_millis,
	escalation_level = EXCLUDED.escalation_level,
	is_at_risk = EXCLUDED.is_at_risk,
	is_breached = EXCLUDED.is_breached`

// Save implements sla.Store.
func (r *SLARepository) Save(ctx context.Context, status domain.SLAStatus) error {
	_, err := r.DB.NamedExecContext(ctx, slaUpsertSQL, toSLARow(status))
	if err != nil {
		return fmt.Errorf("save sla status %s: %w", status.FileID, err)
	}
	return nil
}

// List implements sla.Store.
func (r *SLARepository) List(ctx context.Context) ([]domain.SLAStatus, error) {
	var rows []slaRow
	if err := r.DB.SelectContext(ctx, &rows, `SELECT file_id, intake_date, deadline, remaining_millis, escalation_level, is_at_risk, is_breached
		FROM sla_status ORDER BY deadline ASC`); err != nil {
		return nil, fmt.Errorf("list sla status: %w", err)
	}
	out := make([]domain.SLAStatus, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
