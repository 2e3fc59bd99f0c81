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

// Package ingestion implements the Ingestion Stage (spec.md §4.4): launch a
// browser, navigate to a regulator portal, identify downloadable files, and
// download/checksum/dedupe/store each one under a single CorrelationId.
package ingestion

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hebelmx/veriqan/internal/errors"
	"github.com/hebelmx/veriqan/pkg/audit"
	"github.com/hebelmx/veriqan/pkg/cancel"
	"github.com/hebelmx/veriqan/pkg/domain"
	"github.com/hebelmx/veriqan/pkg/events"
	"github.com/hebelmx/veriqan/pkg/outcome"
)

// Session is one logged-in browser automation session, scoped to a single
// ingestion operation. Close must be safe to call more than once and must
// run on every exit path, including panic recovery (spec.md §4.4.3).
type Session interface {
	Navigate(ctx context.Context, websiteURL string) error
	IdentifyDownloadableFiles(ctx context.Context, filePatterns []string) ([]domain.DownloadableFile, error)
	DownloadFile(ctx context.Context, file domain.DownloadableFile) ([]byte, error)
	Close() error
}

// BrowserAutomation launches a new Session.
type BrowserAutomation interface {
	LaunchBrowser(ctx context.Context) (Session, error)
}

// DownloadStorage persists downloaded bytes and returns an opaque storage
// path/token.
type DownloadStorage interface {
	SaveFile(ctx context.Context, data []byte, name string, format domain.FileFormat) (string, error)
}

// DownloadTracker answers whether a checksum has already been ingested.
type DownloadTracker interface {
	IsDuplicate(ctx context.Context, checksum string) (bool, error)
	MarkSeen(ctx context.Context, checksum string) error
}

// MetadataLogger records FileMetadata somewhere queryable by later stages.
// Failures here are non-fatal to the ingestion operation (spec.md §4.4.2).
type MetadataLogger interface {
	LogFileMetadata(ctx context.Context, meta domain.FileMetadata) error
}

// EventPublisher is the subset of events.Publisher the ingestion stage
// depends on.
type EventPublisher interface {
	Publish(ctx context.Context, evt events.Event)
}

// Service coordinates one ingestion operation's collaborators.
type Service struct {
	Browser        BrowserAutomation
	Storage        DownloadStorage
	Tracker        DownloadTracker
	MetadataLogger MetadataLogger
	AuditLogger    audit.Logger
	Publisher      EventPublisher
	Log            logr.Logger
	MaxConcurrency int
}

// Ingest runs the full algorithm of spec.md §4.4 under one CorrelationId and
// returns the FileMetadata records successfully ingested. A per-file
// failure is logged and excluded from the result rather than aborting the
// batch; an observed cancellation mid-batch folds whatever completed into a
// Warned outcome (invariant I6).
func (s *Service) Ingest(ctx context.Context, websiteURL string, filePatterns []string) outcome.Outcome[[]domain.FileMetadata] {
	if o, cancelled := cancel.Guard[[]domain.FileMetadata](ctx); cancelled {
		return o
	}
	if err := validateInputs(websiteURL, filePatterns); err != nil {
		return outcome.Failure[[]domain.FileMetadata](err)
	}

	ctx, correlationID := audit.EnsureCorrelationID(ctx)
	log := s.Log.WithValues("correlationId", correlationID)

	session, err := s.Browser.LaunchBrowser(ctx)
	if err != nil {
		s.logAudit(ctx, correlationID, "", domain.AuditActionDownload, false, fmt.Sprintf("launch browser: %v", err))
		return outcome.Failure[[]domain.FileMetadata](errors.NewDependencyError("failed to launch browser automation", err))
	}
	defer func() {
		if r := recover(); r != nil {
			session.Close()
			panic(r)
		}
	}()
	defer session.Close()

	if err := session.Navigate(ctx, websiteURL); err != nil {
		s.logAudit(ctx, correlationID, "", domain.AuditActionDownload, false, fmt.Sprintf("navigate: %v", err))
		return outcome.Failure[[]domain.FileMetadata](errors.NewDependencyError("failed to navigate to source", err))
	}
	s.logAudit(ctx, correlationID, "", domain.AuditActionDownload, true, "navigated to "+websiteURL)

	candidates, err := session.IdentifyDownloadableFiles(ctx, filePatterns)
	if err != nil {
		s.logAudit(ctx, correlationID, "", domain.AuditActionDownload, false, fmt.Sprintf("identify files: %v", err))
		return outcome.Failure[[]domain.FileMetadata](errors.NewDependencyError("failed to identify downloadable files", err))
	}
	s.logAudit(ctx, correlationID, "", domain.AuditActionDownload, true, fmt.Sprintf("identified %d candidate files", len(candidates)))

	if o, cancelled := cancel.Guard[[]domain.FileMetadata](ctx); cancelled {
		return o
	}

	results, completed, cancelled := s.downloadAll(ctx, correlationID, session, candidates)
	if cancelled && completed == 0 {
		return outcome.Cancelled[[]domain.FileMetadata]()
	}
	if cancelled {
		return cancel.PartialResult(results, completed, len(candidates), fmt.Sprintf("ingestion cancelled after %d/%d files", completed, len(candidates)))
	}

	log.Info("ingestion batch complete", "candidates", len(candidates), "ingested", len(results))
	return outcome.Success(results)
}

func (s *Service) downloadAll(ctx context.Context, correlationID string, session Session, candidates []domain.DownloadableFile) ([]domain.FileMetadata, int, bool) {
	maxConcurrency := s.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}

	type indexedResult struct {
		index int
		meta  *domain.FileMetadata
	}

	resultsCh := make(chan indexedResult, len(candidates))
	var group errgroup.Group
	group.SetLimit(maxConcurrency)

	var completedCount atomic.Int64
	cancelledMidBatch := false
	for i, candidate := range candidates {
		i, candidate := i, candidate
		if cancel.Requested(ctx) {
			cancelledMidBatch = true
			break
		}
		group.Go(func() error {
			meta, err := s.ingestOne(ctx, correlationID, session, candidate)
			completedCount.Add(1)
			if err != nil {
				s.Log.Info("ingestion of candidate failed, continuing batch", "url", candidate.URL, "error", err.Error())
				resultsCh <- indexedResult{index: i, meta: nil}
				return nil
			}
			resultsCh <- indexedResult{index: i, meta: meta}
			return nil
		})
	}
	group.Wait()
	close(resultsCh)

	ordered := make([]*domain.FileMetadata, len(candidates))
	for r := range resultsCh {
		ordered[r.index] = r.meta
	}

	results := make([]domain.FileMetadata, 0, len(candidates))
	for _, m := range ordered {
		if m != nil {
			results = append(results, *m)
		}
	}
	return results, int(completedCount.Load()), cancelledMidBatch
}

func (s *Service) ingestOne(ctx context.Context, correlationID string, session Session, candidate domain.DownloadableFile) (*domain.FileMetadata, error) {
	data, err := session.DownloadFile(ctx, candidate)
	if err != nil {
		s.logAudit(ctx, correlationID, "", domain.AuditActionDownload, false, fmt.Sprintf("download %s: %v", candidate.FileName, err))
		return nil, err
	}

	checksum := sha256Hex(data)
	duplicate, err := s.Tracker.IsDuplicate(ctx, checksum)
	if err != nil {
		s.Log.Info("dedupe check failed, proceeding as non-duplicate", "checksum", checksum, "error", err.Error())
	}
	if duplicate {
		s.logAudit(ctx, correlationID, "", domain.AuditActionDownload, true, fmt.Sprintf("skipped duplicate %s (checksum %s)", candidate.FileName, checksum))
		return nil, nil
	}

	path, err := s.Storage.SaveFile(ctx, data, candidate.FileName, candidate.Format)
	if err != nil {
		s.logAudit(ctx, correlationID, "", domain.AuditActionDownload, false, fmt.Sprintf("save %s: %v", candidate.FileName, err))
		return nil, err
	}

	meta := domain.FileMetadata{
		FileID:            uuid.NewString(),
		FileName:          candidate.FileName,
		FilePath:          path,
		SourceURL:         candidate.URL,
		DownloadTimestamp: nowUTC(),
		Checksum:          checksum,
		FileSizeBytes:     int64(len(data)),
		Format:            candidate.Format,
	}

	if err := s.MetadataLogger.LogFileMetadata(ctx, meta); err != nil {
		s.Log.Info("failed to log file metadata, continuing", "fileId", meta.FileID, "error", err.Error())
	}
	if err := s.Tracker.MarkSeen(ctx, checksum); err != nil {
		s.Log.Info("failed to mark checksum seen", "checksum", checksum, "error", err.Error())
	}

	s.logAudit(ctx, correlationID, meta.FileID, domain.AuditActionDownload, true, fmt.Sprintf("downloaded and saved %s", candidate.FileName))

	if s.Publisher != nil {
		s.Publisher.Publish(ctx, events.Event{
			Kind:               events.KindDocumentDownloaded,
			CorrelationID:      correlationID,
			FileID:             meta.FileID,
			DocumentDownloaded: &events.DocumentDownloaded{File: meta},
		})
	}

	return &meta, nil
}

func (s *Service) logAudit(ctx context.Context, correlationID, fileID string, action domain.AuditActionType, success bool, details string) {
	rec := domain.AuditRecord{
		AuditID:       audit.NewAuditID(),
		Timestamp:     nowUTC(),
		CorrelationID: correlationID,
		FileID:        fileID,
		ActionType:    action,
		Stage:         domain.StageIngestion,
		Success:       success,
		ActionDetails: details,
	}
	if !success {
		rec.ErrorMessage = details
	}
	if err := s.AuditLogger.LogAudit(ctx, rec); err != nil {
		s.Log.Info("audit write failed", "error", err.Error())
	}
}

func validateInputs(websiteURL string, filePatterns []string) error {
	parsed, err := url.Parse(websiteURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return errors.NewValidationError("websiteUrl must be an http or https URL")
	}
	if len(filePatterns) == 0 {
		return errors.NewValidationError("filePatterns must not be empty")
	}
	for _, p := range filePatterns {
		if strings.TrimSpace(p) == "" {
			return errors.NewValidationError("filePatterns must not contain blank entries")
		}
	}
	return nil
}

func nowUTC() time.Time { return time.Now().UTC() }

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
