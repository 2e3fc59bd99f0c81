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

// Command veriqan wires every pipeline stage and cross-cutting
// collaborator into one HTTP-serving process: Postgres-backed audit/SLA/
// review persistence, a redis download-dedupe cache, the Rego-backed
// classifiers, and the health/metrics/reporting/review HTTP surface.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/slack-go/slack"
	"github.com/sony/gobreaker"

	"github.com/hebelmx/veriqan/internal/config"
	"github.com/hebelmx/veriqan/internal/database"
	"github.com/hebelmx/veriqan/internal/logging"
	"github.com/hebelmx/veriqan/pkg/audit"
	"github.com/hebelmx/veriqan/pkg/cache"
	"github.com/hebelmx/veriqan/pkg/decisionlogic"
	"github.com/hebelmx/veriqan/pkg/domain"
	"github.com/hebelmx/veriqan/pkg/events"
	"github.com/hebelmx/veriqan/pkg/export"
	"github.com/hebelmx/veriqan/pkg/extraction"
	"github.com/hebelmx/veriqan/pkg/fieldmatching"
	"github.com/hebelmx/veriqan/pkg/health"
	"github.com/hebelmx/veriqan/pkg/httpapi"
	"github.com/hebelmx/veriqan/pkg/ingestion"
	"github.com/hebelmx/veriqan/pkg/notify"
	"github.com/hebelmx/veriqan/pkg/pipeline"
	"github.com/hebelmx/veriqan/pkg/reporting"
	"github.com/hebelmx/veriqan/pkg/repository"
	"github.com/hebelmx/veriqan/pkg/resilience"
	"github.com/hebelmx/veriqan/pkg/sla"
)

func main() {
	log, err := logging.New(envOr("VERIQAN_LOG_LEVEL", "info"))
	if err != nil {
		panic(err)
	}

	cfg, err := config.Load(envOr("VERIQAN_CONFIG_PATH", "config.yaml"))
	if err != nil {
		log.Error(err, "failed to load processing config")
		os.Exit(1)
	}
	if result := config.Validate(cfg); !result.IsValid {
		log.Error(nil, "invalid processing config", "errors", result.Errors)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbConfig := database.DefaultConfig()
	dbConfig.LoadFromEnv()
	db, err := database.Connect(dbConfig, log)
	if err != nil {
		log.Error(err, "failed to connect to database")
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(db, envOr("VERIQAN_MIGRATIONS_DIR", "migrations")); err != nil {
		log.Error(err, "failed to apply migrations")
		os.Exit(1)
	}

	auditRepo := &repository.AuditRepository{DB: db}
	slaRepo := &repository.SLARepository{DB: db}
	reviewRepo := &repository.ReviewRepository{DB: db}
	fileMetadataRepo := &repository.FileMetadataRepository{DB: db}

	auditLogger := audit.NewBufferedStore(auditRepo, log, 256, 2*time.Second)
	defer auditLogger.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: envOr("VERIQAN_REDIS_ADDR", "localhost:6379")})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error(err, "failed to connect to redis")
		os.Exit(1)
	}
	downloadTracker := &cache.DownloadTracker{Client: redisClient}

	breakers := resilience.NewManager(gobreaker.Settings{
		MaxRequests: 2,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	}, log)

	publisher := events.NewPublisher(log)
	if token := os.Getenv("VERIQAN_SLACK_TOKEN"); token != "" {
		escalationNotifier := notify.NewEscalationNotifier(token, envOr("VERIQAN_SLACK_CHANNEL", "#compliance-ops"), log)
		escalationNotifier.Client = breakerSlackClient{inner: escalationNotifier.Client, breakers: breakers}
		publisher.Subscribe(escalationNotifier)
	}

	classificationPolicy, err := os.ReadFile(filepath.Join(envOr("VERIQAN_POLICY_DIR", "policy"), "classification.rego"))
	if err != nil {
		log.Error(err, "failed to load classification policy")
		os.Exit(1)
	}
	directivesPolicy, err := os.ReadFile(filepath.Join(envOr("VERIQAN_POLICY_DIR", "policy"), "directives.rego"))
	if err != nil {
		log.Error(err, "failed to load directives policy")
		os.Exit(1)
	}

	extractionSvc := &extraction.Service{
		Identifier: extraction.MagicByteIdentifier{},
		Extractors: map[domain.FileFormat]extraction.MetadataExtractor{},
		Classifier: extraction.NewRegoClassifier(string(classificationPolicy), "veriqan.classification"),
		Mover: extraction.OrganizedFileMover{
			Root:     envOr("VERIQAN_ARCHIVE_ROOT", "/data/veriqan/archive"),
			Relocate: extraction.FilesystemRelocator{},
		},
		AuditLogger: auditLogger,
		Log:         log,
	}
	registerExtractors(extractionSvc)

	decisionSvc := &decisionlogic.Service{
		Classifier:                decisionlogic.NewRegoDirectiveClassifier(string(directivesPolicy), "veriqan.directives"),
		Queue:                     reviewRepo,
		AuditLogger:               auditLogger,
		Log:                       log,
		ReviewConfidenceThreshold: 60,
	}

	exportSvc := &export.Service{
		Excel:       export.ExcelizeLayoutWriter{},
		AuditLogger: auditLogger,
		Log:         log,
	}

	ingestionSvc := &ingestion.Service{
		Storage:        ingestion.FilesystemStorage{Root: envOr("VERIQAN_DOWNLOAD_ROOT", "/data/veriqan/downloads")},
		Tracker:        downloadTracker,
		MetadataLogger: fileMetadataRepo,
		AuditLogger:    auditLogger,
		Publisher:      publisher,
		Log:            log,
		MaxConcurrency: 4,
		// Browser is left unbound: no concrete browser-automation
		// collaborator is wired into this module (see DESIGN.md); a
		// deployment supplies one per regulator portal.
	}

	fieldMatchingSvc := &fieldmatching.Service{
		Calendar:                fieldmatching.NewHolidayCalendar(cfg.BusinessDaysHolidays()),
		EstimatedConclusionDays: cfg.SLA.EstimatedConclusionDays,
	}

	pipelineRunner := &pipeline.Runner{
		Ingestion:     ingestionSvc,
		Extraction:    extractionSvc,
		FieldMatching: fieldMatchingSvc,
		DecisionLogic: decisionSvc,
		Export:        exportSvc,
		Reader:        pipeline.OSFileReader{},
		AuditLogger:   auditLogger,
		Log:           log,
		OutputDir:     envOr("VERIQAN_EXPORT_ROOT", "/data/veriqan/export"),
	}

	slaSvc := &sla.Service{
		Store:             slaRepo,
		EarlyWarningRatio: cfg.SLA.EarlyWarningFraction,
		CriticalRatio:     cfg.SLA.CriticalFraction,
		AuditLogger:       auditLogger,
		Log:               log,
	}

	healthSvc := &health.Service{
		Probes: []health.Probe{
			health.ResourceProbe{MaxMemoryUsageMB: int64(cfg.MaxMemoryUsageMB)},
			health.TempFilesystemProbe{Dir: os.TempDir()},
			health.DependencyProbe{DependencyName: "postgres", Ping: func(ctx context.Context) error { return db.PingContext(ctx) }},
			health.DependencyProbe{DependencyName: "redis", Ping: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }},
		},
	}

	reportingSvc := &reporting.Service{AuditLogger: auditLogger}

	router := httpapi.NewRouter(httpapi.Config{
		Health:    healthSvc,
		Reporting: &httpapi.ReportingHandlers{Service: reportingSvc},
		Review:    &httpapi.ReviewHandlers{Service: decisionSvc},
		Ingest:    &httpapi.IngestHandlers{Runner: pipelineRunner},
		SLA:       &httpapi.SLAHandlers{Service: slaSvc},
		Log:       log,
	})

	server := &http.Server{
		Addr:    ":" + envOr("VERIQAN_HTTP_PORT", "8080"),
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error(err, "graceful shutdown failed")
		}
	}()

	log.Info("veriqan listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error(err, "server exited unexpectedly")
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// breakerSlackClient wraps a notify.SlackClient's call in the shared
// resilience.Manager, so a flapping Slack API trips a breaker named
// "slack" instead of stalling escalation delivery on every event.
type breakerSlackClient struct {
	inner    notify.SlackClient
	breakers *resilience.Manager
}

func (c breakerSlackClient) PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error) {
	var channel, timestamp string
	err := c.breakers.Execute(ctx, "slack", func(ctx context.Context) error {
		var innerErr error
		channel, timestamp, innerErr = c.inner.PostMessageContext(ctx, channelID, options...)
		return innerErr
	})
	return channel, timestamp, err
}

func registerExtractors(svc *extraction.Service) {
	svc.Extractors[domain.FormatXML] = extraction.XMLExtractor{}
	svc.Extractors[domain.FormatDocx] = extraction.DOCXExtractor{}
	// "pdf" is intentionally left unregistered: PDFExtractor's
	// Renderer/Preprocessor/OCREngine collaborators have no concrete
	// binding in this module (see DESIGN.md) and must be supplied by the
	// deployment environment.
}
