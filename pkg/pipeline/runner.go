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

// Package pipeline chains the per-stage services (pkg/ingestion,
// pkg/extraction, pkg/fieldmatching, pkg/decisionlogic, pkg/export) into
// one run over a regulator source, under a single correlation ID, the way
// spec.md §4 describes the document lifecycle end to end.
package pipeline

import (
	"context"
	"fmt"
	"os"

	"github.com/go-logr/logr"

	"github.com/hebelmx/veriqan/pkg/audit"
	"github.com/hebelmx/veriqan/pkg/decisionlogic"
	"github.com/hebelmx/veriqan/pkg/domain"
	"github.com/hebelmx/veriqan/pkg/export"
	"github.com/hebelmx/veriqan/pkg/extraction"
	"github.com/hebelmx/veriqan/pkg/fieldmatching"
	"github.com/hebelmx/veriqan/pkg/ingestion"
)

// FileReader loads back the bytes an ingestion run wrote to storage, so
// extraction can run over them. FilesystemStorage's return value is a
// plain path, so the default OSFileReader calls os.ReadFile.
type FileReader interface {
	ReadFile(path string) ([]byte, error)
}

// OSFileReader reads from the local filesystem.
type OSFileReader struct{}

func (OSFileReader) ReadFile(path string) ([]byte, error) { return os.ReadFile(path) }

// Runner drives one ingest-extract-match-decide-export pass over a
// regulator source.
type Runner struct {
	Ingestion     *ingestion.Service
	Extraction    *extraction.Service
	FieldMatching *fieldmatching.Service
	DecisionLogic *decisionlogic.Service
	Export        *export.Service
	Reader        FileReader
	AuditLogger   audit.Logger
	Log           logr.Logger
	OutputDir     string
}

// FileOutcome is one ingested file's result through every downstream stage.
type FileOutcome struct {
	File      domain.FileMetadata
	Record    domain.UnifiedMetadataRecord
	Err       error
	ExportErr error
}

// Run ingests websiteURL, then runs every downstream stage per file,
// exporting each successfully matched file as an Excel layout under
// OutputDir/<fileId>.xlsx. A per-file failure is recorded on its
// FileOutcome rather than aborting the batch, mirroring the per-file
// failure-isolation each stage already applies internally.
func (r *Runner) Run(ctx context.Context, websiteURL string, filePatterns []string) ([]FileOutcome, error) {
	ctx, correlationID := audit.EnsureCorrelationID(ctx)

	ingestOutcome := r.Ingestion.Ingest(ctx, websiteURL, filePatterns)
	if ingestOutcome.IsFailure() {
		return nil, ingestOutcome.Err()
	}
	if ingestOutcome.IsCancelled() {
		return nil, nil
	}

	files := ingestOutcome.Value()
	outcomes := make([]FileOutcome, 0, len(files))
	for _, file := range files {
		outcomes = append(outcomes, r.processFile(ctx, correlationID, file))
	}
	return outcomes, nil
}

func (r *Runner) processFile(ctx context.Context, correlationID string, file domain.FileMetadata) FileOutcome {
	result := FileOutcome{File: file}

	data, err := r.Reader.ReadFile(file.FilePath)
	if err != nil {
		result.Err = fmt.Errorf("read ingested file %s: %w", file.FilePath, err)
		return result
	}

	extractOutcome := r.Extraction.Process(ctx, file, data)
	if !extractOutcome.IsSuccess() && !extractOutcome.IsWarned() {
		if extractOutcome.IsFailure() {
			result.Err = extractOutcome.Err()
		}
		return result
	}
	extracted := extractOutcome.Value()

	matchOutcome := r.FieldMatching.Match(ctx, []fieldmatching.Observation{
		{Origin: string(extracted.Format), Fields: extracted.Metadata.Fields},
	})
	if matchOutcome.IsFailure() {
		result.Err = matchOutcome.Err()
		return result
	}
	matched := matchOutcome.Value()

	decisionOutcome := r.DecisionLogic.ProcessDecisionLogic(ctx, file.FileID, correlationID, nil, extracted.Metadata.RawText, matched.Expediente)
	if decisionOutcome.IsFailure() {
		result.Err = decisionOutcome.Err()
		return result
	}
	decision := decisionOutcome.Value()

	record := domain.UnifiedMetadataRecord{
		Expediente:        matched.Expediente,
		Classification:    extracted.Classification,
		MatchedFields:     matched.Matched,
		Personas:          decision.ResolvedPersonas,
		ComplianceActions: decision.Actions,
	}
	result.Record = record

	if r.Export != nil && r.OutputDir != "" {
		result.ExportErr = r.exportRecord(ctx, correlationID, file.FileID, record)
	}
	return result
}

func (r *Runner) exportRecord(ctx context.Context, correlationID, fileID string, record domain.UnifiedMetadataRecord) error {
	if err := os.MkdirAll(r.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create export output directory: %w", err)
	}
	outPath := fmt.Sprintf("%s/%s.xlsx", r.OutputDir, fileID)
	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create export file %s: %w", outPath, err)
	}
	defer out.Close()

	exportOutcome := r.Export.GenerateExcelLayout(ctx, correlationID, record, out)
	if exportOutcome.IsFailure() {
		return exportOutcome.Err()
	}
	return nil
}
