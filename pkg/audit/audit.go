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

// Package audit implements the cross-cutting audit & correlation subsystem
// (spec.md §4.2): one AuditRecord per (ActionType, Stage) per step, a
// CorrelationId minted when a stage is entered without one and propagated
// through every sub-call via context, and ordered range queries.
//
// Audit writes are best-effort and must never fail the domain operation that
// triggered them (spec.md §7 "Audit-write failures are logged only").
package audit

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/hebelmx/veriqan/pkg/domain"
)

type correlationKey struct{}

// WithCorrelationID attaches id to ctx for propagation to sub-calls.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationID returns the propagated id, or ("", false) if none is set.
func CorrelationID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(correlationKey{}).(string)
	return id, ok
}

// EnsureCorrelationID returns ctx unchanged if it already carries a
// CorrelationId, or a derived context carrying a freshly minted one
// otherwise — "generate a new CorrelationId when a stage is entered without
// one" (spec.md §4.2).
func EnsureCorrelationID(ctx context.Context) (context.Context, string) {
	if id, ok := CorrelationID(ctx); ok && id != "" {
		return ctx, id
	}
	id := uuid.NewString()
	return WithCorrelationID(ctx, id), id
}

// NewAuditID mints the opaque identifier for a new AuditRecord.
func NewAuditID() string { return uuid.NewString() }

// Logger is the collaborator contract §6 names as AuditLogger: append a
// record, and query by time range with optional ActionType/UserID filters.
type Logger interface {
	LogAudit(ctx context.Context, rec domain.AuditRecord) error
	GetAuditRecords(ctx context.Context, start, end time.Time, actionType *domain.AuditActionType, userID *string) ([]domain.AuditRecord, error)
}

// Sink is the minimal persistence contract a Logger writes through; the
// Postgres-backed implementation lives in pkg/repository, keeping this
// package free of a direct database dependency.
type Sink interface {
	InsertAuditRecord(ctx context.Context, rec domain.AuditRecord) error
	QueryAuditRecords(ctx context.Context, start, end time.Time, actionType *domain.AuditActionType, userID *string) ([]domain.AuditRecord, error)
}

// OrderRecords sorts records by Timestamp ascending, ties broken by AuditID
// (spec.md §4.2 "Ordering").
func OrderRecords(records []domain.AuditRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Timestamp.Equal(records[j].Timestamp) {
			return records[i].AuditID < records[j].AuditID
		}
		return records[i].Timestamp.Before(records[j].Timestamp)
	})
}
