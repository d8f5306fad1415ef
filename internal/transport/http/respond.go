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
	"net/http"

	"github.com/conveyai/conveyai/internal/hierarchy"
	"github.com/conveyai/conveyai/internal/matter"
	"github.com/conveyai/conveyai/internal/registry"
	"github.com/conveyai/conveyai/internal/tenant"
)

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondDomainError maps domain sentinel errors onto HTTP status codes.
// Not-found covers both absent and cross-tenant resources so the response
// never reveals whether a foreign id exists.
func respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tenant.ErrUnauthenticated):
		respondError(w, http.StatusUnauthorized, "not authenticated")
	case errors.Is(err, tenant.ErrTenantMismatch), errors.Is(err, tenant.ErrForbidden):
		respondError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, matter.ErrMatterNotFound):
		respondError(w, http.StatusNotFound, "matter not found")
	case errors.Is(err, hierarchy.ErrFolderNotFound):
		respondError(w, http.StatusNotFound, "folder not found")
	case errors.Is(err, hierarchy.ErrItemNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, tenant.ErrTenantNotFound):
		respondError(w, http.StatusNotFound, "tenant not found")
	case errors.Is(err, hierarchy.ErrInvalidHierarchy):
		respondError(w, http.StatusConflict, "invalid folder hierarchy")
	case errors.Is(err, hierarchy.ErrNameRequired),
		errors.Is(err, hierarchy.ErrContentRequired),
		errors.Is(err, hierarchy.ErrInvalidCategory),
		errors.Is(err, hierarchy.ErrMissingMatter),
		errors.Is(err, hierarchy.ErrUnexpectedScope),
		errors.Is(err, matter.ErrInvalidTransition):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, registry.ErrRejected):
		respondError(w, http.StatusInternalServerError, "registry rejected the order")
	case errors.Is(err, registry.ErrUnavailable), errors.Is(err, registry.ErrAuthFailed):
		respondError(w, http.StatusInternalServerError, "registry unavailable")
	case errors.Is(err, hierarchy.ErrInconsistent):
		respondError(w, http.StatusInternalServerError, "storage inconsistency detected")
	default:
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
