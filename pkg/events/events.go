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

// Package events implements Event Publication (spec.md §4.12): a
// strongly-tagged event union, synchronous best-effort dispatch, and
// subscriber isolation — one subscriber's failure or panic must never
// affect the publisher or any other subscriber.
package events

import (
	"context"
	"sync"

	"github.com/go-logr/logr"

	"github.com/hebelmx/veriqan/pkg/domain"
)

// Kind tags which concrete event a Event carries.
type Kind string

const (
	KindDocumentDownloaded      Kind = "DocumentDownloaded"
	KindExtractionCompleted     Kind = "ExtractionCompleted"
	KindClassificationCompleted Kind = "ClassificationCompleted"
	KindFieldsMatched           Kind = "FieldsMatched"
	KindReviewCaseOpened        Kind = "ReviewCaseOpened"
	KindSLAEscalated            Kind = "SLAEscalated"
	KindExportCompleted         Kind = "ExportCompleted"
)

// Event is the strongly-tagged union every subscriber receives. Exactly the
// payload field matching Kind is populated.
type Event struct {
	Kind          Kind
	CorrelationID string
	FileID        string

	DocumentDownloaded      *DocumentDownloaded
	ExtractionCompleted     *ExtractionCompleted
	ClassificationCompleted *ClassificationCompleted
	FieldsMatched           *FieldsMatched
	ReviewCaseOpened        *ReviewCaseOpened
	SLAEscalated            *SLAEscalated
	ExportCompleted         *ExportCompleted
}

// DocumentDownloaded fires only after the storage write for the file has
// been acknowledged (spec.md §5 ordering guarantee).
type DocumentDownloaded struct {
	File domain.FileMetadata
}

// ExtractionCompleted reports a completed per-source extraction.
type ExtractionCompleted struct {
	Metadata domain.ExtractedMetadata
}

// ClassificationCompleted reports a completed classification, scores
// included so subscribers never have to re-derive them.
type ClassificationCompleted struct {
	Result domain.ClassificationResult
}

// FieldsMatched reports a completed field-matching reconciliation.
type FieldsMatched struct {
	Matched domain.MatchedFields
}

// ReviewCaseOpened reports a case entering the human review queue.
type ReviewCaseOpened struct {
	Case domain.ReviewCase
}

// SLAEscalated reports an escalation-level transition.
type SLAEscalated struct {
	CaseID string
	Level  domain.EscalationLevel
}

// ExportCompleted reports a finished export of one of the export formats.
type ExportCompleted struct {
	CaseID string
	Format string
}

// Subscriber handles one Event. Errors are logged by the Publisher and
// never propagated to other subscribers or the publishing call.
type Subscriber interface {
	Handle(ctx context.Context, evt Event) error
}

// SubscriberFunc adapts a plain function to Subscriber.
type SubscriberFunc func(ctx context.Context, evt Event) error

func (f SubscriberFunc) Handle(ctx context.Context, evt Event) error { return f(ctx, evt) }

// Publisher dispatches events to its registered subscribers synchronously,
// in registration order, isolating each subscriber's failure.
type Publisher struct {
	log logr.Logger

	mu          sync.RWMutex
	subscribers []Subscriber
}

// NewPublisher constructs an empty Publisher.
func NewPublisher(log logr.Logger) *Publisher {
	return &Publisher{log: log}
}

// Subscribe registers s to receive every future Publish call. Subscribe is
// not retroactive: s does not see events published before it subscribed.
func (p *Publisher) Subscribe(s Subscriber) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subscribers = append(p.subscribers, s)
}

// Publish dispatches evt to every current subscriber. A subscriber that
// returns an error or panics is logged and skipped; Publish itself never
// returns an error, matching the "lost event is acceptable, subscriber
// failure must not affect the publisher" contract.
func (p *Publisher) Publish(ctx context.Context, evt Event) {
	p.mu.RLock()
	subs := make([]Subscriber, len(p.subscribers))
	copy(subs, p.subscribers)
	p.mu.RUnlock()

	for _, s := range subs {
		p.dispatchOne(ctx, s, evt)
	}
}

func (p *Publisher) dispatchOne(ctx context.Context, s Subscriber, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Info("event subscriber panicked", "kind", evt.Kind, "correlationId", evt.CorrelationID, "panic", r)
		}
	}()
	if err := s.Handle(ctx, evt); err != nil {
		p.log.Info("event subscriber returned an error", "kind", evt.Kind, "correlationId", evt.CorrelationID, "error", err.Error())
	}
}
