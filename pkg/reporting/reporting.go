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

// Package reporting implements the Reporting component (spec.md §4.13):
// CSV and JSON export of audit records over a time window, plus an ad-hoc
// jq-style filter over the JSON envelope.
package reporting

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/go-faster/jx"
	"github.com/itchyny/gojq"

	"github.com/hebelmx/veriqan/pkg/audit"
	"github.com/hebelmx/veriqan/pkg/domain"
	"github.com/hebelmx/veriqan/pkg/outcome"
)

// Service generates reports from the audit log.
type Service struct {
	AuditLogger audit.Logger
}

var csvHeader = []string{
	"AuditId", "Timestamp", "CorrelationId", "FileId", "ActionType", "Stage", "UserId", "Success", "ActionDetails", "ErrorMessage",
}

// ExportCSV writes the fixed-header, RFC-4180-quoted audit CSV for
// [start,end) with optional ActionType/UserId filters.
func (s *Service) ExportCSV(ctx context.Context, start, end time.Time, actionType *domain.AuditActionType, userID *string, w io.Writer) outcome.Outcome[int] {
	if end.Before(start) {
		return outcome.Failure[int](fmt.Errorf("end %s is before start %s", end, start))
	}

	records, err := s.AuditLogger.GetAuditRecords(ctx, start, end, actionType, userID)
	if err != nil {
		return outcome.Failure[int](err)
	}
	audit.OrderRecords(records)

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return outcome.Failure[int](err)
	}
	for _, r := range records {
		row := []string{
			r.AuditID,
			r.Timestamp.UTC().Format(time.RFC3339),
			r.CorrelationID,
			r.FileID,
			string(r.ActionType),
			string(r.Stage),
			r.UserID,
			fmt.Sprintf("%t", r.Success),
			r.ActionDetails,
			r.ErrorMessage,
		}
		if err := cw.Write(row); err != nil {
			return outcome.Failure[int](err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return outcome.Failure[int](err)
	}
	return outcome.Success(len(records))
}

// ExportJSON writes the {StartDate, EndDate, ActionType?, UserId?,
// RecordCount, Records[]} envelope, camelCase keys, ISO-8601 `Z` timestamps,
// streamed to w via a jx.Encoder rather than building the full document in
// memory first.
func (s *Service) ExportJSON(ctx context.Context, start, end time.Time, actionType *domain.AuditActionType, userID *string, w io.Writer) outcome.Outcome[int] {
	if end.Before(start) {
		return outcome.Failure[int](fmt.Errorf("end %s is before start %s", end, start))
	}

	records, err := s.AuditLogger.GetAuditRecords(ctx, start, end, actionType, userID)
	if err != nil {
		return outcome.Failure[int](err)
	}
	audit.OrderRecords(records)

	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("startDate")
	e.Str(start.UTC().Format(isoUTC))
	e.FieldStart("endDate")
	e.Str(end.UTC().Format(isoUTC))
	if actionType != nil {
		e.FieldStart("actionType")
		e.Str(string(*actionType))
	}
	if userID != nil {
		e.FieldStart("userId")
		e.Str(*userID)
	}
	e.FieldStart("recordCount")
	e.Int(len(records))
	e.FieldStart("records")
	e.ArrStart()
	for _, r := range records {
		encodeAuditRecordJSON(&e, r)
	}
	e.ArrEnd()
	e.ObjEnd()

	if _, err := w.Write(e.Bytes()); err != nil {
		return outcome.Failure[int](err)
	}
	return outcome.Success(len(records))
}

const isoUTC = "2006-01-02T15:04:05.000Z07:00"

func encodeAuditRecordJSON(e *jx.Encoder, r domain.AuditRecord) {
	e.ObjStart()
	e.FieldStart("auditId")
	e.Str(r.AuditID)
	e.FieldStart("timestamp")
	e.Str(r.Timestamp.UTC().Format(isoUTC))
	e.FieldStart("correlationId")
	e.Str(r.CorrelationID)
	e.FieldStart("fileId")
	e.Str(r.FileID)
	e.FieldStart("actionType")
	e.Str(string(r.ActionType))
	e.FieldStart("stage")
	e.Str(string(r.Stage))
	e.FieldStart("userId")
	e.Str(r.UserID)
	e.FieldStart("success")
	e.Bool(r.Success)
	e.FieldStart("actionDetails")
	e.Str(r.ActionDetails)
	e.FieldStart("errorMessage")
	e.Str(r.ErrorMessage)
	e.ObjEnd()
}

// FilterJSON applies a jq-style expression to the JSON envelope that
// ExportJSON would produce for the same window, returning each result value
// gojq yields.
func (s *Service) FilterJSON(ctx context.Context, start, end time.Time, actionType *domain.AuditActionType, userID *string, expression string) outcome.Outcome[[]any] {
	if end.Before(start) {
		return outcome.Failure[[]any](fmt.Errorf("end %s is before start %s", end, start))
	}

	query, err := gojq.Parse(expression)
	if err != nil {
		return outcome.Failure[[]any](fmt.Errorf("invalid filter expression: %w", err))
	}

	records, err := s.AuditLogger.GetAuditRecords(ctx, start, end, actionType, userID)
	if err != nil {
		return outcome.Failure[[]any](err)
	}
	audit.OrderRecords(records)

	envelope := map[string]any{
		"startDate":   start.UTC().Format(isoUTC),
		"endDate":     end.UTC().Format(isoUTC),
		"recordCount": len(records),
		"records":     toFilterRecords(records),
	}
	if actionType != nil {
		envelope["actionType"] = string(*actionType)
	}
	if userID != nil {
		envelope["userId"] = *userID
	}

	iter := query.RunWithContext(ctx, envelope)
	var results []any
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if gojqErr, isErr := v.(error); isErr {
			return outcome.Failure[[]any](gojqErr)
		}
		results = append(results, v)
	}
	return outcome.Success(results)
}

func toFilterRecords(records []domain.AuditRecord) []map[string]any {
	out := make([]map[string]any, 0, len(records))
	for _, r := range records {
		out = append(out, map[string]any{
			"auditId":       r.AuditID,
			"timestamp":     r.Timestamp.UTC().Format(isoUTC),
			"correlationId": r.CorrelationID,
			"fileId":        r.FileID,
			"actionType":    string(r.ActionType),
			"stage":         string(r.Stage),
			"userId":        r.UserID,
			"success":       r.Success,
			"actionDetails": r.ActionDetails,
			"errorMessage":  r.ErrorMessage,
		})
	}
	return out
}
