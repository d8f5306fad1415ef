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

	"github.com/conveyai/conveyai/internal/audit"
	"github.com/conveyai/conveyai/internal/matter"
	"github.com/go-chi/chi/v5"
)

// CreateMatterRequest opens a new conveyancing matter
type CreateMatterRequest struct {
	Type            string  `json:"type"`
	PropertyAddress string  `json:"property_address"`
	BuyerClientID   *string `json:"buyer_client_id"`
	SellerClientID  *string `json:"seller_client_id"`
}

// CreateMatter handles matter creation
func (h *Handler) CreateMatter(w http.ResponseWriter, r *http.Request) {
	tc, ok := requireTenantContext(w, r)
	if !ok {
		return
	}

	var req CreateMatterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	m, err := h.matterService.CreateMatter(r.Context(), tc, matter.Type(req.Type), req.PropertyAddress, req.BuyerClientID, req.SellerClientID)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, m)
}

// ListMatters lists the caller's firm matters
func (h *Handler) ListMatters(w http.ResponseWriter, r *http.Request) {
	tc, ok := requireTenantContext(w, r)
	if !ok {
		return
	}

	matters, err := h.matterService.ListMatters(r.Context(), tc)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if matters == nil {
		matters = []*matter.Matter{}
	}

	respondJSON(w, http.StatusOK, matters)
}

// GetMatter retrieves a single matter
func (h *Handler) GetMatter(w http.ResponseWriter, r *http.Request) {
	tc, ok := requireTenantContext(w, r)
	if !ok {
		return
	}

	m, err := h.matterService.GetMatter(r.Context(), tc, chi.URLParam(r, "matterID"))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, m)
}

// UpdateMatterStatusRequest moves a matter through its lifecycle
type UpdateMatterStatusRequest struct {
	Status string `json:"status"`
}

// UpdateMatterStatus handles status transitions, including archival
func (h *Handler) UpdateMatterStatus(w http.ResponseWriter, r *http.Request) {
	tc, ok := requireTenantContext(w, r)
	if !ok {
		return
	}

	var req UpdateMatterStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	m, err := h.matterService.TransitionStatus(r.Context(), tc, chi.URLParam(r, "matterID"), matter.Status(req.Status))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, m)
}

// ListMatterAudit returns the matter's audit trail, oldest first. The trail
// is read-only over HTTP; there is no write, update or delete surface.
func (h *Handler) ListMatterAudit(w http.ResponseWriter, r *http.Request) {
	tc, ok := requireTenantContext(w, r)
	if !ok {
		return
	}

	// Resolve the matter first so a foreign matter id yields a 404 rather
	// than an empty trail.
	m, err := h.matterService.GetMatter(r.Context(), tc, chi.URLParam(r, "matterID"))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	entries, err := h.trail.ListByMatter(r.Context(), tc, m.ID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if entries == nil {
		entries = []*audit.Entry{}
	}

	respondJSON(w, http.StatusOK, entries)
}
