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

package audit

import (
	"context"
	"sync"
	"time"

	"github.com/hebelmx/veriqan/pkg/domain"
)

// MemorySink is a Sink backed by a plain slice, used by tests and as the
// degraded-mode fallback when no durable backend is configured.
type MemorySink struct {
	mu      sync.Mutex
	records []domain.AuditRecord
}

// NewMemorySink constructs an empty MemorySink.
func NewMemorySink() *MemorySink { return &MemorySink{} }

// InsertAuditRecord appends rec unconditionally.
func (s *MemorySink) InsertAuditRecord(ctx context.Context, rec domain.AuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

// QueryAuditRecords returns every record with Timestamp in [start, end]
// matching the optional actionType/userID filters.
func (s *MemorySink) QueryAuditRecords(ctx context.Context, start, end time.Time, actionType *domain.AuditActionType, userID *string) ([]domain.AuditRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.AuditRecord, 0, len(s.records))
	for _, rec := range s.records {
		if rec.Timestamp.Before(start) || rec.Timestamp.After(end) {
			continue
		}
		if actionType != nil && rec.ActionType != *actionType {
			continue
		}
		if userID != nil && rec.UserID != *userID {
			continue
		}
		out = append(out, rec)
	}
	OrderRecords(out)
	return out, nil
}

// Len reports the number of records currently stored, mainly for tests that
// assert on flush behavior.
func (s *MemorySink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

var _ Sink = (*MemorySink)(nil)
