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

// Package decisionlogic implements the Decision Logic Stage (spec.md §4.7):
// resolve and dedupe person identities (sub-flow A), classify legal
// directives into compliance actions (sub-flow B), and manage the human
// review queue (sub-flow C), combined under ProcessDecisionLogic.
package decisionlogic

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/hebelmx/veriqan/pkg/audit"
	"github.com/hebelmx/veriqan/pkg/cancel"
	"github.com/hebelmx/veriqan/pkg/domain"
	"github.com/hebelmx/veriqan/pkg/outcome"
)

// IdentityResolver enriches/validates one Persona, e.g. against an external
// registry. A per-item Failure is logged and skipped rather than aborting
// the whole batch (spec.md §4.7 sub-flow A, step 1).
type IdentityResolver interface {
	Resolve(ctx context.Context, persona domain.Persona) (domain.Persona, error)
}

// DirectiveClassifier detects legal instruments in document text and
// classifies them into ComplianceActions.
type DirectiveClassifier interface {
	ClassifyDirectives(ctx context.Context, rawText string, expediente domain.Expediente) ([]domain.ComplianceAction, error)
}

// ReviewQueue persists and updates ReviewCases.
type ReviewQueue interface {
	Enqueue(ctx context.Context, c domain.ReviewCase) error
	UpdateStatus(ctx context.Context, caseID string, status domain.ReviewCaseStatus) error
}

// Service coordinates the three decision-logic sub-flows.
type Service struct {
	Resolver            IdentityResolver
	Classifier          DirectiveClassifier
	Queue               ReviewQueue
	AuditLogger         audit.Logger
	Log                 logr.Logger
	ReviewConfidenceThreshold int // a ClassificationResult below this queues a review case
}

// Result is ProcessDecisionLogic's combined output.
type Result struct {
	ResolvedPersonas []domain.Persona
	Actions          []domain.ComplianceAction
}

// ProcessDecisionLogic runs sub-flow A then sub-flow B, preserving A's
// warnings into the combined result and folding a mid-B cancellation into a
// Warned outcome carrying A's resolved personas and no actions (spec.md
// §4.7 "Combined entry point").
func (s *Service) ProcessDecisionLogic(ctx context.Context, fileID, correlationID string, personas []domain.Persona, rawText string, expediente domain.Expediente) outcome.Outcome[Result] {
	if o, cancelled := cancel.Guard[Result](ctx); cancelled {
		return o
	}

	resolveOutcome := s.ResolveIdentities(ctx, fileID, correlationID, personas)
	if resolveOutcome.IsCancelled() {
		return outcome.Cancelled[Result]()
	}
	if resolveOutcome.IsFailure() {
		return outcome.Failure[Result](resolveOutcome.Err())
	}

	resolved := resolveOutcome.Value()
	warnings := append([]string{}, resolveOutcome.Warnings()...)

	if _, cancelled := cancel.Guard[Result](ctx); cancelled {
		if resolveOutcome.IsWarned() || len(resolved) > 0 {
			warnings = append(warnings, "classification cancelled")
			return outcome.Warned(Result{ResolvedPersonas: resolved, Actions: nil}, warnings, resolveOutcome.Confidence(), resolveOutcome.MissingDataRatio())
		}
		return outcome.Cancelled[Result]()
	}

	actions, err := s.ClassifyDirectives(ctx, fileID, correlationID, rawText, expediente)
	if cancel.Requested(ctx) {
		warnings = append(warnings, "classification cancelled")
		return outcome.Warned(Result{ResolvedPersonas: resolved, Actions: nil}, warnings, resolveOutcome.Confidence(), resolveOutcome.MissingDataRatio())
	}
	if err != nil {
		return outcome.Failure[Result](err)
	}

	result := Result{ResolvedPersonas: resolved, Actions: actions}
	if resolveOutcome.IsWarned() {
		return outcome.Warned(result, warnings, resolveOutcome.Confidence(), resolveOutcome.MissingDataRatio())
	}
	return outcome.Success(result)
}

// ResolveIdentities implements sub-flow A.
func (s *Service) ResolveIdentities(ctx context.Context, fileID, correlationID string, personas []domain.Persona) outcome.Outcome[[]domain.Persona] {
	if o, cancelled := cancel.Guard[[]domain.Persona](ctx); cancelled {
		return o
	}

	var resolved []domain.Persona
	for _, p := range personas {
		if cancel.Requested(ctx) {
			break
		}
		r, err := s.Resolver.Resolve(ctx, p)
		if err != nil {
			s.Log.Info("identity resolution failed for persona, continuing", "parteId", p.ParteID, "error", err.Error())
			continue
		}
		resolved = append(resolved, r)
	}

	deduped := dedupePersonas(resolved)

	if cancel.Requested(ctx) {
		n := len(personas)
		k := len(resolved)
		if k == 0 {
			return outcome.Cancelled[[]domain.Persona]()
		}
		return cancel.PartialResult(deduped, k, n, "identity resolution cancelled mid-list")
	}

	s.auditReview(ctx, correlationID, fileID, true, fmt.Sprintf("resolved %d/%d personas", len(deduped), len(personas)))
	return outcome.Success(deduped)
}

// dedupePersonas collides two personas iff their RFCVariants sets intersect
// on a non-empty RFC; falls back to name-triplet equality when neither has
// an RFC (spec.md §4.7 sub-flow A, step 3).
func dedupePersonas(personas []domain.Persona) []domain.Persona {
	var result []domain.Persona
	seenRFCs := map[string]int{} // rfc -> index in result
	seenNames := map[string]int{}

	for _, p := range personas {
		mergedInto := -1

		for rfc := range p.RFCVariants {
			if idx, ok := seenRFCs[rfc]; ok {
				mergedInto = idx
				break
			}
		}
		if mergedInto == -1 && len(p.RFCVariants) == 0 {
			nameKey := nameTriplet(p)
			if idx, ok := seenNames[nameKey]; ok {
				mergedInto = idx
			}
		}

		if mergedInto >= 0 {
			result[mergedInto] = mergePersonas(result[mergedInto], p)
		} else {
			result = append(result, p)
			idx := len(result) - 1
			for rfc := range p.RFCVariants {
				seenRFCs[rfc] = idx
			}
			if len(p.RFCVariants) == 0 {
				seenNames[nameTriplet(p)] = idx
			}
		}
	}
	return result
}

func nameTriplet(p domain.Persona) string {
	return p.Nombre + "|" + p.Paterno + "|" + p.Materno
}

func mergePersonas(existing, incoming domain.Persona) domain.Persona {
	if existing.RFCVariants == nil {
		existing.RFCVariants = map[string]struct{}{}
	}
	for rfc := range incoming.RFCVariants {
		existing.RFCVariants[rfc] = struct{}{}
	}
	if existing.Complementarios == nil {
		existing.Complementarios = map[string]string{}
	}
	for k, v := range incoming.Complementarios {
		if _, ok := existing.Complementarios[k]; !ok {
			existing.Complementarios[k] = v
		}
	}
	return existing
}

// ClassifyDirectives implements sub-flow B.
func (s *Service) ClassifyDirectives(ctx context.Context, fileID, correlationID, rawText string, expediente domain.Expediente) ([]domain.ComplianceAction, error) {
	actions, err := s.Classifier.ClassifyDirectives(ctx, rawText, expediente)
	if err != nil {
		s.auditReview(ctx, correlationID, fileID, false, "directive classification failed: "+err.Error())
		return nil, err
	}

	for i := range actions {
		actions[i].ExpedienteOrigen = expediente.NumeroExpediente
		actions[i].OficioOrigen = expediente.NumeroOficio
	}

	s.auditReview(ctx, correlationID, fileID, true, summarizeActions(actions))
	return actions, nil
}

func summarizeActions(actions []domain.ComplianceAction) string {
	summary := fmt.Sprintf(`{"actionCount":%d,"types":[`, len(actions))
	for i, a := range actions {
		if i > 0 {
			summary += ","
		}
		summary += fmt.Sprintf("%q", a.ActionType)
	}
	summary += "]}"
	return summary
}

// IdentifyReviewCase implements sub-flow C's triage step: it returns a
// queued ReviewCase when confidence is below ReviewConfidenceThreshold, or
// ok=false when no review is warranted.
func (s *Service) IdentifyReviewCase(ctx context.Context, fileID string, classification domain.ClassificationResult) (domain.ReviewCase, bool) {
	threshold := s.ReviewConfidenceThreshold
	if threshold <= 0 {
		threshold = 60
	}
	if classification.Confidence >= threshold {
		return domain.ReviewCase{}, false
	}
	return domain.ReviewCase{
		CaseID: uuid.NewString(),
		FileID: fileID,
		Reason: fmt.Sprintf("classification confidence %d below threshold %d", classification.Confidence, threshold),
		Status: domain.ReviewOpen,
	}, true
}

// QueueReviewCase persists a review case identified by IdentifyReviewCase.
func (s *Service) QueueReviewCase(ctx context.Context, correlationID string, c domain.ReviewCase) error {
	if err := s.Queue.Enqueue(ctx, c); err != nil {
		s.auditReview(ctx, correlationID, c.FileID, false, "enqueue review case failed: "+err.Error())
		return err
	}
	s.auditReview(ctx, correlationID, c.FileID, true, "queued review case "+c.CaseID)
	return nil
}

// ProcessReviewDecision updates a review case's status per the outcome of a
// human decision (spec.md §4.7 sub-flow C), audited under ActionType=Review.
func (s *Service) ProcessReviewDecision(ctx context.Context, correlationID string, decision domain.ReviewDecision, newStatus domain.ReviewCaseStatus) error {
	if err := s.Queue.UpdateStatus(ctx, decision.CaseID, newStatus); err != nil {
		s.auditReview(ctx, correlationID, decision.FileID, false, "review decision failed: "+err.Error())
		return err
	}
	s.auditReview(ctx, correlationID, decision.FileID, true, fmt.Sprintf("review case %s -> %s by %s", decision.CaseID, newStatus, decision.ReviewerID))
	return nil
}

func (s *Service) auditReview(ctx context.Context, correlationID, fileID string, success bool, details string) {
	rec := domain.AuditRecord{
		AuditID:       audit.NewAuditID(),
		CorrelationID: correlationID,
		FileID:        fileID,
		ActionType:    domain.AuditActionReview,
		Stage:         domain.StageDecisionLogic,
		Success:       success,
		ActionDetails: details,
		Timestamp:     nowUTC(),
	}
	if !success {
		rec.ErrorMessage = details
	}
	if err := s.AuditLogger.LogAudit(ctx, rec); err != nil {
		s.Log.Info("audit write failed", "error", err.Error())
	}
}

func nowUTC() time.Time { return time.Now().UTC() }
