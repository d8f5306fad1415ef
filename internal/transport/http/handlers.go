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
	"net/http"
	"time"

	"github.com/conveyai/conveyai/internal/audit"
	"github.com/conveyai/conveyai/internal/contract"
	"github.com/conveyai/conveyai/internal/hierarchy"
	"github.com/conveyai/conveyai/internal/identity"
	"github.com/conveyai/conveyai/internal/matter"
	"github.com/conveyai/conveyai/internal/tenant"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Handler holds HTTP handlers and dependencies
type Handler struct {
	tenantService   *tenant.Service
	identityService *identity.Service
	tokens          *identity.TokenIssuer
	matterService   *matter.Service
	storeService    *hierarchy.Service
	contractService *contract.Service
	trail           *audit.Trail
}

// NewHandler creates a new HTTP handler
func NewHandler(
	tenantService *tenant.Service,
	identityService *identity.Service,
	tokens *identity.TokenIssuer,
	matterService *matter.Service,
	storeService *hierarchy.Service,
	contractService *contract.Service,
	trail *audit.Trail,
) *Handler {
	return &Handler{
		tenantService:   tenantService,
		identityService: identityService,
		tokens:          tokens,
		matterService:   matterService,
		storeService:    storeService,
		contractService: contractService,
		trail:           trail,
	}
}

// NewRouter creates a new HTTP router
func NewRouter(h *Handler, rateLimiter *RateLimiter) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(RateLimitMiddleware(rateLimiter))
	r.Use(func(handler http.Handler) http.Handler {
		return otelhttp.NewHandler(handler, "http_request",
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	})
	r.Use(LoggingMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check
	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		// Public endpoints
		r.Post("/auth/register", h.Register)
		r.Post("/auth/login", h.Login)

		// Protected routes: every handler below runs with a tenant context
		// resolved from the bearer token.
		r.Group(func(r chi.Router) {
			r.Use(h.AuthMiddleware)

			r.Get("/auth/me", h.GetCurrentPrincipal)

			// Firm settings
			r.Put("/tenants/{tenantID}/settings", h.UpdateTenantSettings)

			// Matters
			r.Route("/matters", func(r chi.Router) {
				r.Post("/", h.CreateMatter)
				r.Get("/", h.ListMatters)

				r.Route("/{matterID}", func(r chi.Router) {
					r.Get("/", h.GetMatter)
					r.Put("/status", h.UpdateMatterStatus)
					r.Get("/audit", h.ListMatterAudit)

					// Matter document tree
					r.Get("/folders", h.ListDocumentFolders)
					r.Post("/folders", h.CreateDocumentFolder)
					r.Get("/documents", h.ListDocuments)
					r.Post("/documents", h.UploadDocument)
				})
			})

			// Matter documents addressed by id
			r.Route("/documents/{documentID}", func(r chi.Router) {
				r.Get("/", h.GetDocument)
				r.Get("/download", h.DownloadDocument)
				r.Put("/", h.UpdateDocument)
				r.Delete("/", h.DeleteDocument)
			})

			// Precedent bank
			r.Route("/precedents", func(r chi.Router) {
				r.Get("/folders", h.ListPrecedentFolders)
				r.Post("/folders", h.CreatePrecedentFolder)
				r.Put("/folders/{folderID}", h.MovePrecedentFolder)

				r.Get("/", h.ListPrecedents)
				r.Post("/", h.UploadPrecedent)

				r.Route("/{precedentID}", func(r chi.Router) {
					r.Get("/", h.GetPrecedent)
					r.Get("/download", h.DownloadPrecedent)
					r.Put("/", h.UpdatePrecedent)
					r.Delete("/", h.DeletePrecedent)
				})
			})

			// Contract orchestration
			r.Post("/contracts", h.CreateContract)
		})
	})

	return r
}

// HealthCheck returns the health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "conveyai",
	})
}

// requireTenantContext fetches the resolved tenant context or fails the
// request. A missing context on a protected route means the middleware was
// bypassed, which is treated as unauthenticated.
func requireTenantContext(w http.ResponseWriter, r *http.Request) (tenant.Context, bool) {
	tc, ok := tenantContextFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
	}
	return tc, ok
}

// optional converts an empty string into a nil pointer for nullable fields
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// queryParam returns the first non-empty value among aliased query keys
func queryParam(r *http.Request, names ...string) string {
	for _, name := range names {
		if v := r.URL.Query().Get(name); v != "" {
			return v
		}
	}
	return ""
}

// requireItemKind checks that an item exists under the caller's tenant with
// the expected kind before a mutation. A mismatched kind answers not-found so
// the document and precedent surfaces cannot reach across each other.
func (h *Handler) requireItemKind(w http.ResponseWriter, r *http.Request, tc tenant.Context, id string, kind hierarchy.Kind) bool {
	item, err := h.storeService.GetItem(r.Context(), tc, id)
	if err != nil {
		respondDomainError(w, err)
		return false
	}
	if item.Kind != kind {
		respondDomainError(w, hierarchy.ErrItemNotFound)
		return false
	}
	return true
}
