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

// Package sla implements the SLA Tracker (spec.md §4.9): deadline
// computation over business days, the escalation ladder, and the
// at-risk/breached cohort queries that drive workflow transitions.
package sla

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"github.com/hebelmx/veriqan/pkg/audit"
	"github.com/hebelmx/veriqan/pkg/domain"
	"github.com/hebelmx/veriqan/pkg/fieldmatching"
)

// Store persists and queries SLAStatus records, one per tracked file.
type Store interface {
	Get(ctx context.Context, fileID string) (domain.SLAStatus, bool, error)
	Save(ctx context.Context, status domain.SLAStatus) error
	List(ctx context.Context) ([]domain.SLAStatus, error)
}

// Clock abstracts "now" for deterministic tests.
type Clock func() time.Time

// Service computes deadlines, escalation levels, and serves the cohort
// queries (spec.md §4.9).
type Service struct {
	Store               Store
	Calendar            fieldmatching.BusinessDayCalendar
	EarlyWarningRatio   float64 // default 0.33 of totalWindow remaining
	CriticalRatio       float64 // default 0.10 of totalWindow remaining
	Now                 Clock
	AuditLogger         audit.Logger
	Log                 logr.Logger
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *Service) ratios() (early, critical float64) {
	early, critical = s.EarlyWarningRatio, s.CriticalRatio
	if early <= 0 {
		early = 0.33
	}
	if critical <= 0 {
		critical = 0.10
	}
	return early, critical
}

// ComputeDeadline derives Deadline = businessDaysAdd(intakeDate, daysPlazo)
// (spec.md invariant I5 / §4.9).
func (s *Service) ComputeDeadline(intakeDate time.Time, daysPlazo int) time.Time {
	return fieldmatching.AddBusinessDays(intakeDate, daysPlazo, s.Calendar)
}

// Track computes and persists the SLAStatus for a newly-ingested file.
func (s *Service) Track(ctx context.Context, fileID string, intakeDate time.Time, daysPlazo int) (domain.SLAStatus, error) {
	deadline := s.ComputeDeadline(intakeDate, daysPlazo)
	status := s.evaluate(fileID, intakeDate, deadline)
	if err := s.Store.Save(ctx, status); err != nil {
		return domain.SLAStatus{}, err
	}
	return status, nil
}

// Refresh recomputes RemainingTime/EscalationLevel for an already-tracked
// file against the current clock, without changing its Deadline.
func (s *Service) Refresh(ctx context.Context, fileID string) (domain.SLAStatus, error) {
	existing, ok, err := s.Store.Get(ctx, fileID)
	if err != nil {
		return domain.SLAStatus{}, err
	}
	if !ok {
		return domain.SLAStatus{}, fmt.Errorf("no tracked sla status for file %s", fileID)
	}
	status := s.evaluate(fileID, existing.IntakeDate, existing.Deadline)
	if err := s.Store.Save(ctx, status); err != nil {
		return domain.SLAStatus{}, err
	}
	return status, nil
}

func (s *Service) evaluate(fileID string, intakeDate, deadline time.Time) domain.SLAStatus {
	now := s.now()
	remaining := deadline.Sub(now)
	totalWindow := deadline.Sub(intakeDate)
	early, critical := s.ratios()

	level := domain.EscalationNone
	switch {
	case remaining <= 0:
		level = domain.EscalationBreached
	case totalWindow > 0 && remaining <= time.Duration(critical*float64(totalWindow)):
		level = domain.EscalationCritical
	case totalWindow > 0 && remaining <= time.Duration(early*float64(totalWindow)):
		level = domain.EscalationEarlyWarning
	}

	return domain.SLAStatus{
		FileID:          fileID,
		IntakeDate:      intakeDate,
		Deadline:        deadline,
		RemainingTime:   remaining,
		EscalationLevel: level,
		IsAtRisk:        level == domain.EscalationEarlyWarning || level == domain.EscalationCritical,
		IsBreached:      level == domain.EscalationBreached,
	}
}

// ActiveCases returns every tracked file not yet breached.
func (s *Service) ActiveCases(ctx context.Context) ([]domain.SLAStatus, error) {
	all, err := s.Store.List(ctx)
	if err != nil {
		return nil, err
	}
	var active []domain.SLAStatus
	for _, c := range all {
		if !c.IsBreached {
			active = append(active, c)
		}
	}
	return active, nil
}

// AtRiskCases returns cases whose EscalationLevel is EarlyWarning or
// Critical (spec.md §4.9).
func (s *Service) AtRiskCases(ctx context.Context) ([]domain.SLAStatus, error) {
	all, err := s.Store.List(ctx)
	if err != nil {
		return nil, err
	}
	var atRisk []domain.SLAStatus
	for _, c := range all {
		if c.IsAtRisk {
			atRisk = append(atRisk, c)
		}
	}
	return atRisk, nil
}

// BreachedCases returns cases whose Deadline has already passed.
func (s *Service) BreachedCases(ctx context.Context) ([]domain.SLAStatus, error) {
	all, err := s.Store.List(ctx)
	if err != nil {
		return nil, err
	}
	var breached []domain.SLAStatus
	for _, c := range all {
		if c.IsBreached {
			breached = append(breached, c)
		}
	}
	return breached, nil
}

// EscalateCase sets a file's EscalationLevel explicitly (e.g. a manual
// override) and audits the transition. Idempotent: re-escalating to the
// level a case already holds writes no second audit record.
func (s *Service) EscalateCase(ctx context.Context, correlationID, fileID string, level domain.EscalationLevel) error {
	existing, ok, err := s.Store.Get(ctx, fileID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no tracked sla status for file %s", fileID)
	}
	if existing.EscalationLevel == level {
		return nil
	}

	existing.EscalationLevel = level
	existing.IsAtRisk = level == domain.EscalationEarlyWarning || level == domain.EscalationCritical
	existing.IsBreached = level == domain.EscalationBreached
	if err := s.Store.Save(ctx, existing); err != nil {
		return err
	}

	s.auditEscalation(ctx, correlationID, fileID, level)
	return nil
}

func (s *Service) auditEscalation(ctx context.Context, correlationID, fileID string, level domain.EscalationLevel) {
	rec := domain.AuditRecord{
		AuditID:       audit.NewAuditID(),
		CorrelationID: correlationID,
		FileID:        fileID,
		ActionType:    domain.AuditActionReview,
		Stage:         domain.StageDecisionLogic,
		Success:       true,
		ActionDetails: fmt.Sprintf(`{"escalationLevel":%q}`, level),
		Timestamp:     s.now(),
	}
	if s.AuditLogger == nil {
		return
	}
	if err := s.AuditLogger.LogAudit(ctx, rec); err != nil {
		s.Log.Info("audit write failed", "error", err.Error())
	}
}
