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

// Package httpapi wires the module's pkg/health, pkg/reporting and
// pkg/decisionlogic review surfaces onto a chi router: GET /health and
// GET /metrics for operators, and the reporting/review endpoints
// compliance staff use directly.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hebelmx/veriqan/pkg/health"
)

// Config controls CORS and the router's dependencies.
type Config struct {
	AllowedOrigins []string
	Health         *health.Service
	Reporting      *ReportingHandlers
	Review         *ReviewHandlers
	Ingest         *IngestHandlers
	SLA            *SLAHandlers
	Log            logr.Logger
}

// NewRouter builds the chi.Router serving every HTTP-facing component.
func NewRouter(cfg Config) chi.Router {
	r := chi.NewRouter()

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", healthHandler(cfg.Health))
	r.Handle("/metrics", promhttp.Handler())

	if cfg.Reporting != nil {
		r.Route("/reporting", func(rr chi.Router) {
			rr.Get("/csv", cfg.Reporting.ExportCSV)
			rr.Get("/json", cfg.Reporting.ExportJSON)
			rr.Get("/filter", cfg.Reporting.FilterJSON)
		})
	}

	if cfg.Review != nil {
		r.Route("/review", func(rr chi.Router) {
			rr.Post("/{caseID}/decision", cfg.Review.SubmitDecision)
		})
	}

	if cfg.Ingest != nil {
		r.Post("/ingest/run", cfg.Ingest.TriggerRun)
	}

	if cfg.SLA != nil {
		r.Route("/sla", func(rr chi.Router) {
			rr.Get("/active", cfg.SLA.Active)
			rr.Get("/at-risk", cfg.SLA.AtRisk)
			rr.Get("/breached", cfg.SLA.Breached)
		})
	}

	return r
}

func healthHandler(svc *health.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		report := svc.GetCurrentHealth(r.Context())
		status := http.StatusOK
		switch report.Overall {
		case health.Degraded:
			status = http.StatusOK
		case health.Unhealthy, health.Unknown:
			status = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		writeHealthJSON(w, report)
	}
}

func writeHealthJSON(w http.ResponseWriter, report health.Report) {
	type component struct {
		Name   string `json:"name"`
		Status string `json:"status"`
		Detail string `json:"detail,omitempty"`
	}
	type envelope struct {
		Overall    string      `json:"overall"`
		CheckedAt  time.Time   `json:"checkedAt"`
		Components []component `json:"components"`
	}
	env := envelope{Overall: string(report.Overall), CheckedAt: report.CheckedAt}
	for _, c := range report.Components {
		env.Components = append(env.Components, component{Name: c.Name, Status: string(c.Status), Detail: c.Detail})
	}
	writeJSON(w, env)
}
