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

// Package extraction implements the Extraction Stage (spec.md §4.5): the
// Identified → Extracted → Classified → Named → Moved state machine run
// over one downloaded file.
package extraction

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-logr/logr"
	goFasterErrors "github.com/go-faster/errors"

	apperrors "github.com/hebelmx/veriqan/internal/errors"
	"github.com/hebelmx/veriqan/pkg/audit"
	"github.com/hebelmx/veriqan/pkg/cancel"
	"github.com/hebelmx/veriqan/pkg/domain"
	"github.com/hebelmx/veriqan/pkg/outcome"
)

// State is one step of the per-file extraction state machine.
type State string

const (
	StateIdentified State = "Identified"
	StateExtracted  State = "Extracted"
	StateClassified State = "Classified"
	StateNamed      State = "Named"
	StateMoved      State = "Moved"
)

// FileTypeIdentifier performs content-based (magic-byte) format detection,
// which wins over any extension hint (spec.md §4.5 "Identify").
type FileTypeIdentifier interface {
	Identify(data []byte) (domain.FileFormat, error)
}

// MetadataExtractor extracts ExtractedMetadata from the bytes of one
// recognized format.
type MetadataExtractor interface {
	Extract(ctx context.Context, data []byte) (domain.ExtractedMetadata, error)
}

// FileClassifier produces a ClassificationResult from extracted metadata.
type FileClassifier interface {
	Classify(ctx context.Context, meta domain.ExtractedMetadata) (domain.ClassificationResult, error)
}

// FileMover relocates a file to an organized location keyed by
// classification and returns the new path.
type FileMover interface {
	Move(ctx context.Context, currentPath, safeName string, classification domain.ClassificationResult) (string, error)
}

// Result is the outcome of one file's run through the state machine.
type Result struct {
	FileID         string
	State          State
	Format         domain.FileFormat
	Metadata       domain.ExtractedMetadata
	Classification domain.ClassificationResult
	SafeName       string
	MovedPath      string
}

// Service coordinates the per-file extraction state machine.
type Service struct {
	Identifier  FileTypeIdentifier
	Extractors  map[domain.FileFormat]MetadataExtractor
	Classifier  FileClassifier
	Mover       FileMover
	AuditLogger audit.Logger
	Log         logr.Logger
}

// Process runs file through every state-machine transition, auditing each
// one. A transition failure is terminal for the file: extraction does not
// retry format parsing (spec.md §4.5 "Failure semantics").
func (s *Service) Process(ctx context.Context, file domain.FileMetadata, data []byte) outcome.Outcome[Result] {
	if o, cancelled := cancel.Guard[Result](ctx); cancelled {
		return o
	}
	ctx, correlationID := audit.EnsureCorrelationID(ctx)

	result := Result{FileID: file.FileID}

	format, err := s.Identifier.Identify(data)
	if err != nil || format == domain.FormatUnknown {
		s.audit(ctx, correlationID, file.FileID, false, "identify: unrecognized format")
		return outcome.Failure[Result](apperrors.NewValidationError("unable to identify file format from content"))
	}
	result.Format = format
	result.State = StateIdentified
	s.audit(ctx, correlationID, file.FileID, true, fmt.Sprintf("identified as %s", format))

	if o, cancelled := cancel.Guard[Result](ctx); cancelled {
		return o
	}

	extractor, ok := s.Extractors[format]
	if !ok {
		s.audit(ctx, correlationID, file.FileID, false, "extract: unsupported format "+string(format))
		return outcome.Failure[Result](apperrors.NewValidationError("unsupported format: " + string(format)))
	}
	meta, err := extractor.Extract(ctx, data)
	if err != nil {
		s.audit(ctx, correlationID, file.FileID, false, "extract: "+err.Error())
		return outcome.Failure[Result](goFasterErrors.Wrap(err, "metadata extraction failed"))
	}
	result.Metadata = meta
	result.State = StateExtracted
	s.audit(ctx, correlationID, file.FileID, true, "extracted metadata fields")

	if _, cancelled := cancel.Guard[Result](ctx); cancelled {
		return cancel.PartialResult(result, 2, 5, "cancelled after extract")
	}

	classification, err := s.Classifier.Classify(ctx, meta)
	if err != nil {
		s.audit(ctx, correlationID, file.FileID, false, "classify: "+err.Error())
		return outcome.Failure[Result](goFasterErrors.Wrap(err, "classification failed"))
	}
	result.Classification = classification
	result.State = StateClassified
	s.auditClassification(ctx, correlationID, file.FileID, classification)

	if _, cancelled := cancel.Guard[Result](ctx); cancelled {
		return cancel.PartialResult(result, 3, 5, "cancelled after classify")
	}

	safeName := SafeName(file.FileName, classification, result.Metadata)
	result.SafeName = safeName
	result.State = StateNamed
	s.audit(ctx, correlationID, file.FileID, true, "derived safe name "+safeName)

	if _, cancelled := cancel.Guard[Result](ctx); cancelled {
		return cancel.PartialResult(result, 4, 5, "cancelled before move")
	}

	movedPath, err := s.Mover.Move(ctx, file.FilePath, safeName, classification)
	if err != nil {
		s.audit(ctx, correlationID, file.FileID, false, "move: "+err.Error())
		return outcome.Failure[Result](apperrors.NewDependencyError("file mover", err))
	}
	result.MovedPath = movedPath
	result.State = StateMoved
	s.audit(ctx, correlationID, file.FileID, true, "moved to "+movedPath)

	return outcome.Success(result)
}

func (s *Service) audit(ctx context.Context, correlationID, fileID string, success bool, details string) {
	rec := domain.AuditRecord{
		AuditID:       audit.NewAuditID(),
		CorrelationID: correlationID,
		FileID:        fileID,
		ActionType:    domain.AuditActionExtraction,
		Stage:         domain.StageExtraction,
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

// auditClassification logs all six scores in ActionDetails even when
// Confidence is low (spec.md §4.5 invariant).
func (s *Service) auditClassification(ctx context.Context, correlationID, fileID string, result domain.ClassificationResult) {
	var b strings.Builder
	fmt.Fprintf(&b, "level1=%s level2=%s confidence=%d scores={", result.Level1, result.Level2, result.Confidence)
	for i, label := range domain.ClassificationLabels {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, "%s=%.4f", label, result.Scores[label])
	}
	b.WriteString("}")

	rec := domain.AuditRecord{
		AuditID:       audit.NewAuditID(),
		CorrelationID: correlationID,
		FileID:        fileID,
		ActionType:    domain.AuditActionClassification,
		Stage:         domain.StageExtraction,
		Success:       true,
		ActionDetails: b.String(),
		Timestamp:     nowUTC(),
	}
	if err := s.AuditLogger.LogAudit(ctx, rec); err != nil {
		s.Log.Info("audit write failed", "error", err.Error())
	}
}

func nowUTC() time.Time { return time.Now().UTC() }

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

const maxSafeNameLength = 120

// SafeName derives a collision-safe filename from {OriginalName,
// Classification.Level1/Level2, a short token from Expediente}, stripping
// forbidden characters and clamping length (spec.md §4.5 "SafeName").
func SafeName(originalName string, classification domain.ClassificationResult, meta domain.ExtractedMetadata) string {
	expedienteToken := "noexp"
	if v, ok := meta.Fields["Expediente"]; ok && v.Value != "" {
		token := unsafeChars.ReplaceAllString(v.Value, "")
		if len(token) > 12 {
			token = token[:12]
		}
		if token != "" {
			expedienteToken = token
		}
	}

	base := strings.TrimSuffix(originalName, extOf(originalName))
	base = unsafeChars.ReplaceAllString(base, "_")

	name := fmt.Sprintf("%s_%s_%s_%s%s",
		base, classification.Level1, sanitizeLevel2(classification.Level2), expedienteToken, extOf(originalName))

	if len(name) > maxSafeNameLength {
		name = name[:maxSafeNameLength]
	}
	return name
}

func sanitizeLevel2(level2 string) string {
	if level2 == "" {
		return "general"
	}
	return unsafeChars.ReplaceAllString(level2, "")
}

func extOf(name string) string {
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		return name[idx:]
	}
	return ""
}
