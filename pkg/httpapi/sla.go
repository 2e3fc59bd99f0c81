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

package httpapi

import (
	"context"
	"net/http"

	"github.com/hebelmx/veriqan/pkg/domain"
	"github.com/hebelmx/veriqan/pkg/sla"
)

// SLAHandlers exposes the tracker's cohort queries (spec.md §4.9) for
// operator dashboards.
type SLAHandlers struct {
	Service *sla.Service
}

func (h *SLAHandlers) Active(w http.ResponseWriter, r *http.Request) {
	h.respondCohort(w, r, h.Service.ActiveCases)
}

func (h *SLAHandlers) AtRisk(w http.ResponseWriter, r *http.Request) {
	h.respondCohort(w, r, h.Service.AtRiskCases)
}

func (h *SLAHandlers) Breached(w http.ResponseWriter, r *http.Request) {
	h.respondCohort(w, r, h.Service.BreachedCases)
}

func (h *SLAHandlers) respondCohort(w http.ResponseWriter, r *http.Request, query func(ctx context.Context) ([]domain.SLAStatus, error)) {
	cases, err := query(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, cases)
}
