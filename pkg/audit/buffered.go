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

	"github.com/go-logr/logr"

	"github.com/hebelmx/veriqan/pkg/domain"
)

// BufferedStore is a non-blocking Logger that queues writes to a bounded
// in-memory buffer and flushes them to a durable Sink on a background
// interval. A caller's LogAudit call never blocks on the durable backend: a
// full buffer drops the oldest entry and logs a warning rather than
// propagating a failure into the domain operation that produced the record
// ("audit-write failures are logged only", spec.md §7).
//
// Mirrors the buffered-store design the teacher's own audit package
// documents under DD-AUDIT-002: bounded buffering, periodic flush,
// graceful degradation when the durable backend is unavailable.
type BufferedStore struct {
	sink          Sink
	log           logr.Logger
	flushInterval time.Duration

	mu      sync.Mutex
	buffer  []domain.AuditRecord
	maxSize int

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewBufferedStore constructs a BufferedStore and starts its background
// flush loop. Call Close to stop the loop and flush any remaining records.
func NewBufferedStore(sink Sink, log logr.Logger, maxSize int, flushInterval time.Duration) *BufferedStore {
	if maxSize <= 0 {
		maxSize = 1000
	}
	if flushInterval <= 0 {
		flushInterval = 5 * time.Second
	}
	s := &BufferedStore{
		sink:          sink,
		log:           log,
		flushInterval: flushInterval,
		buffer:        make([]domain.AuditRecord, 0, maxSize),
		maxSize:       maxSize,
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}
	go s.run()
	return s
}

// LogAudit enqueues rec without blocking on the durable backend. It never
// returns an error: callers that want to observe write failures should rely
// on logged warnings, not this return value, per the best-effort contract.
func (s *BufferedStore) LogAudit(ctx context.Context, rec domain.AuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.buffer) >= s.maxSize {
		s.log.Info("audit buffer full, dropping oldest record", "droppedAuditId", s.buffer[0].AuditID)
		s.buffer = s.buffer[1:]
	}
	s.buffer = append(s.buffer, rec)
	return nil
}

// GetAuditRecords delegates directly to the durable Sink: readers need the
// committed view, not whatever is still sitting in the write buffer.
func (s *BufferedStore) GetAuditRecords(ctx context.Context, start, end time.Time, actionType *domain.AuditActionType, userID *string) ([]domain.AuditRecord, error) {
	records, err := s.sink.QueryAuditRecords(ctx, start, end, actionType, userID)
	if err != nil {
		return nil, err
	}
	OrderRecords(records)
	return records, nil
}

func (s *BufferedStore) run() {
	defer close(s.doneCh)
	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.flush()
		case <-s.stopCh:
			s.flush()
			return
		}
	}
}

func (s *BufferedStore) flush() {
	s.mu.Lock()
	pending := s.buffer
	s.buffer = make([]domain.AuditRecord, 0, s.maxSize)
	s.mu.Unlock()

	for _, rec := range pending {
		if err := s.sink.InsertAuditRecord(context.Background(), rec); err != nil {
			s.log.Error(err, "audit record flush failed", "auditId", rec.AuditID)
		}
	}
}

// Close stops the flush loop after draining the current buffer.
func (s *BufferedStore) Close() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	<-s.doneCh
}

var _ Logger = (*BufferedStore)(nil)
