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
	"errors"
	"log/slog"
	"net/http"

	"github.com/conveyai/conveyai/internal/identity"
	"github.com/conveyai/conveyai/internal/observability/logger"
	"github.com/conveyai/conveyai/internal/tenant"
)

// RegisterRequest provisions a new firm with its first admin
type RegisterRequest struct {
	FirmName string `json:"firm_name"`
	Domain   string `json:"domain"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// Register handles firm registration: a new tenant plus its admin principal.
// The email domain must match the firm domain so logins route back here.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.FirmName == "" || req.Domain == "" || req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "firm_name, domain, email and password are required")
		return
	}

	if existing, err := h.tenantService.GetTenantByDomain(r.Context(), req.Domain); err == nil && existing != nil {
		respondError(w, http.StatusConflict, "a firm with this domain already exists")
		return
	}

	t, err := h.tenantService.CreateTenant(r.Context(), req.FirmName, req.Domain)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to create tenant",
			logger.Error(err),
		)
		respondError(w, http.StatusInternalServerError, "failed to register firm")
		return
	}

	p, err := h.identityService.CreatePrincipal(r.Context(), t.ID, req.Email, req.Name, req.Password, tenant.RoleAdmin)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to create principal",
			logger.Error(err),
			logger.TenantID(t.ID),
			logger.Email(req.Email),
		)
		if errors.Is(err, identity.ErrPrincipalExists) {
			respondError(w, http.StatusConflict, "principal already exists")
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	token, err := h.tokens.Issue(p)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"token":     token,
		"tenant":    t,
		"principal": p,
	})
}

// LoginRequest carries login credentials
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates a principal and issues a bearer token. The tenant is
// resolved from the email domain; all failures look the same to the caller.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.identityService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := h.tokens.Issue(p)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"token":     token,
		"principal": p,
	})
}

// GetCurrentPrincipal returns the authenticated principal
func (h *Handler) GetCurrentPrincipal(w http.ResponseWriter, r *http.Request) {
	tc, ok := requireTenantContext(w, r)
	if !ok {
		return
	}

	p, err := h.identityService.GetPrincipal(r.Context(), tc, tc.PrincipalID())
	if err != nil {
		respondError(w, http.StatusNotFound, "principal not found")
		return
	}

	respondJSON(w, http.StatusOK, p)
}
