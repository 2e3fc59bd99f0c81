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
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hebelmx/veriqan/pkg/audit"
	"github.com/hebelmx/veriqan/pkg/decisionlogic"
	"github.com/hebelmx/veriqan/pkg/domain"
)

// ReviewHandlers exposes pkg/decisionlogic's human-review workflow over
// HTTP: a reviewer resolves a ReviewCase by POSTing a decision.
type ReviewHandlers struct {
	Service *decisionlogic.Service
}

type submitDecisionRequest struct {
	FileID       string `json:"fileId"`
	DecisionType string `json:"decisionType"`
	ReviewReason string `json:"reviewReason"`
	ReviewerID   string `json:"reviewerId"`
	NewStatus    string `json:"newStatus"`
}

// SubmitDecision handles POST /review/{caseID}/decision.
func (h *ReviewHandlers) SubmitDecision(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "caseID")

	var req submitDecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, correlationID := audit.EnsureCorrelationID(r.Context())
	decision := domain.ReviewDecision{
		DecisionID:   audit.NewAuditID(),
		CaseID:       caseID,
		FileID:       req.FileID,
		DecisionType: req.DecisionType,
		ReviewReason: req.ReviewReason,
		ReviewerID:   req.ReviewerID,
	}
	newStatus := domain.ReviewCaseStatus(req.NewStatus)
	if newStatus == "" {
		newStatus = domain.ReviewResolved
	}

	if err := h.Service.ProcessReviewDecision(ctx, correlationID, decision, newStatus); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	writeJSON(w, map[string]string{"caseId": caseID, "status": string(newStatus), "correlationId": correlationID})
}
