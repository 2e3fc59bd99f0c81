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
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/hebelmx/veriqan/pkg/domain"
)

// ReviewRepository implements pkg/decisionlogic's ReviewQueue and additionally
// persists the closing ReviewDecision.
type ReviewRepository struct {
	DB *sqlx.DB
}

type reviewCaseRow struct {
	CaseID string `db:"case_id"`
	FileID string `db:"file_id"`
	Reason string `db:"reason"`
	Status string `db:"status"`
}

// Enqueue implements decisionlogic.ReviewQueue.
func (r *ReviewRepository) Enqueue(ctx context.Context, c domain.ReviewCase) error {
	row := reviewCaseRow{CaseID: c.CaseID, FileID: c.FileID, Reason: c.Reason, Status: string(c.Status)}
	_, err := r.DB.NamedExecContext(ctx, `
		INSERT INTO review_cases (case_id, file_id, reason, status)
		VALUES (:case_id, :file_id, :reason, :status)
		ON CONFLICT (case_id) DO UPDATE SET reason = EXCLUDED.reason, status = EXCLUDED.status`, row)
	if err != nil {
		return fmt.Errorf("enqueue review case %s: %w", c.CaseID, err)
	}
	return nil
}

// UpdateStatus implements decisionlogic.ReviewQueue.
func (r *ReviewRepository) UpdateStatus(ctx context.Context, caseID string, status domain.ReviewCaseStatus) error {
	result, err := r.DB.ExecContext(ctx, `UPDATE review_cases SET status = $1 WHERE case_id = $2`, string(status), caseID)
	if err != nil {
		return fmt.Errorf("update review case %s: %w", caseID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update review case %s: %w", caseID, err)
	}
	if n == 0 {
		return fmt.Errorf("update review case %s: no such case", caseID)
	}
	return nil
}

// SaveDecision records the terminal ReviewDecision for a resolved case.
func (r *ReviewRepository) SaveDecision(ctx context.Context, d domain.ReviewDecision) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO review_decisions (decision_id, case_id, file_id, decision_type, review_reason, reviewer_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (decision_id) DO NOTHING`,
		d.DecisionID, d.CaseID, d.FileID, d.DecisionType, d.ReviewReason, d.ReviewerID)
	if err != nil {
		return fmt.Errorf("save review decision %s: %w", d.DecisionID, err)
	}
	return nil
}
