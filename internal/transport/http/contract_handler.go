// Copyright 2026 The ConveyAI Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package http

import (
	"encoding/json"
	"net/http"
)

// CreateContractRequest orders a contract from the land registry. The
// snake_case fields are accepted as aliases of the documented names.
type CreateContractRequest struct {
	MatterID        string `json:"matterId"`
	FolioIdentifier string `json:"folioIdentifier"`

	MatterIDAlias        string `json:"matter_id,omitempty"`
	FolioIdentifierAlias string `json:"folio_identifier,omitempty"`
}

func (req *CreateContractRequest) normalize() {
	if req.MatterID == "" {
		req.MatterID = req.MatterIDAlias
	}
	if req.FolioIdentifier == "" {
		req.FolioIdentifier = req.FolioIdentifierAlias
	}
}

// CreateContract orders a title search contract for a matter and records the
// resulting document. The raw registry response is passed through for the
// client to inspect.
func (h *Handler) CreateContract(w http.ResponseWriter, r *http.Request) {
	tc, ok := requireTenantContext(w, r)
	if !ok {
		return
	}

	var req CreateContractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.normalize()
	if req.MatterID == "" || req.FolioIdentifier == "" {
		respondError(w, http.StatusBadRequest, "matterId and folioIdentifier are required")
		return
	}

	doc, raw, err := h.contractService.CreateContract(r.Context(), tc, req.MatterID, req.FolioIdentifier)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"document":          doc,
		"registry_response": json.RawMessage(raw),
	})
}
