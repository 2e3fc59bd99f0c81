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

	"github.com/hebelmx/veriqan/pkg/pipeline"
)

// IngestHandlers exposes pkg/pipeline.Runner as an operator-triggered HTTP
// endpoint, for sources without their own scheduler.
type IngestHandlers struct {
	Runner *pipeline.Runner
}

type triggerIngestRequest struct {
	WebsiteURL   string   `json:"websiteUrl"`
	FilePatterns []string `json:"filePatterns"`
}

type fileOutcomeResponse struct {
	FileID    string `json:"fileId"`
	FileName  string `json:"fileName"`
	Error     string `json:"error,omitempty"`
	ExportErr string `json:"exportError,omitempty"`
}

// TriggerRun starts one ingest-through-export pass synchronously and
// reports each file's per-stage outcome.
func (h *IngestHandlers) TriggerRun(w http.ResponseWriter, r *http.Request) {
	var req triggerIngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.WebsiteURL == "" || len(req.FilePatterns) == 0 {
		writeError(w, http.StatusBadRequest, "websiteUrl and filePatterns are required")
		return
	}

	outcomes, err := h.Runner.Run(r.Context(), req.WebsiteURL, req.FilePatterns)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	resp := make([]fileOutcomeResponse, 0, len(outcomes))
	for _, o := range outcomes {
		item := fileOutcomeResponse{FileID: o.File.FileID, FileName: o.File.FileName}
		if o.Err != nil {
			item.Error = o.Err.Error()
		}
		if o.ExportErr != nil {
			item.ExportErr = o.ExportErr.Error()
		}
		resp = append(resp, item)
	}
	writeJSON(w, resp)
}
