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
	"net/http"
	"time"

	"github.com/hebelmx/veriqan/pkg/domain"
	"github.com/hebelmx/veriqan/pkg/reporting"
)

// ReportingHandlers exposes pkg/reporting's CSV/JSON/jq export operations
// over HTTP, parsing the shared start/end/actionType/userId query
// parameters once for all three.
type ReportingHandlers struct {
	Service *reporting.Service
}

func parseRange(r *http.Request) (start, end time.Time, actionType *domain.AuditActionType, userID *string, ok bool) {
	q := r.URL.Query()
	var err error
	start, err = time.Parse(time.RFC3339, q.Get("start"))
	if err != nil {
		return time.Time{}, time.Time{}, nil, nil, false
	}
	end, err = time.Parse(time.RFC3339, q.Get("end"))
	if err != nil {
		return time.Time{}, time.Time{}, nil, nil, false
	}
	if v := q.Get("actionType"); v != "" {
		at := domain.AuditActionType(v)
		actionType = &at
	}
	if v := q.Get("userId"); v != "" {
		userID = &v
	}
	return start, end, actionType, userID, true
}

// ExportCSV handles GET /reporting/csv?start=...&end=...
func (h *ReportingHandlers) ExportCSV(w http.ResponseWriter, r *http.Request) {
	start, end, actionType, userID, ok := parseRange(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "start and end must be RFC3339 timestamps")
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	o := h.Service.ExportCSV(r.Context(), start, end, actionType, userID, w)
	if o.IsFailure() {
		writeError(w, http.StatusBadRequest, o.Err().Error())
	}
}

// ExportJSON handles GET /reporting/json?start=...&end=...
func (h *ReportingHandlers) ExportJSON(w http.ResponseWriter, r *http.Request) {
	start, end, actionType, userID, ok := parseRange(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "start and end must be RFC3339 timestamps")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	o := h.Service.ExportJSON(r.Context(), start, end, actionType, userID, w)
	if o.IsFailure() {
		writeError(w, http.StatusBadRequest, o.Err().Error())
	}
}

// FilterJSON handles GET /reporting/filter?start=...&end=...&q=<jq expression>
func (h *ReportingHandlers) FilterJSON(w http.ResponseWriter, r *http.Request) {
	start, end, actionType, userID, ok := parseRange(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "start and end must be RFC3339 timestamps")
		return
	}
	expr := r.URL.Query().Get("q")
	if expr == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	o := h.Service.FilterJSON(r.Context(), start, end, actionType, userID, expr)
	if o.IsFailure() {
		writeError(w, http.StatusBadRequest, o.Err().Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, o.Value())
}
