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

package tenant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/conveyai/conveyai/internal/observability/logger"
	"github.com/google/uuid"
)

// ErrForbidden is returned when the principal's role does not permit the
// requested mutation.
var ErrForbidden = errors.New("forbidden")

// Service provides tenant management business logic
type Service struct {
	repo Repository
}

// NewService creates a new tenant service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateTenant creates a new tenant (firm). Domain is lowercased and must be
// unique; it routes logins to the tenant.
func (s *Service) CreateTenant(ctx context.Context, name, domain string) (*Tenant, error) {
	if name == "" {
		return nil, fmt.Errorf("tenant name is required")
	}
	if domain == "" {
		return nil, fmt.Errorf("tenant domain is required")
	}

	domain = strings.ToLower(domain)
	if existing, err := s.repo.GetByDomain(ctx, domain); err == nil && existing != nil {
		return nil, fmt.Errorf("tenant with domain %s already exists", domain)
	}

	now := time.Now()
	t := &Tenant{
		ID:        uuid.NewString(),
		Name:      name,
		Domain:    domain,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create tenant: %w", err)
	}

	return t, nil
}

// GetTenant retrieves a tenant by ID
func (s *Service) GetTenant(ctx context.Context, id string) (*Tenant, error) {
	return s.repo.GetByID(ctx, id)
}

// GetTenantByDomain retrieves a tenant by its login domain
func (s *Service) GetTenantByDomain(ctx context.Context, domain string) (*Tenant, error) {
	return s.repo.GetByDomain(ctx, strings.ToLower(domain))
}

// UpdateSettings updates the branding fields of a tenant. The tenant id from
// the request path must match the caller's context, and only admins may
// change firm settings.
func (s *Service) UpdateSettings(ctx context.Context, tc Context, tenantID string, settings Settings) (*Tenant, error) {
	if err := tc.CheckTenant(tenantID); err != nil {
		return nil, err
	}
	if tc.Role() != RoleAdmin {
		return nil, ErrForbidden
	}

	t, err := s.repo.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if settings.Name != "" {
		t.Name = settings.Name
	}
	if settings.LogoPath != "" {
		t.LogoPath = settings.LogoPath
	}
	if settings.PrimaryColor != "" {
		t.PrimaryColor = settings.PrimaryColor
	}
	t.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to update tenant settings: %w", err)
	}

	slog.InfoContext(ctx, "tenant settings updated",
		logger.TenantID(tenantID),
		logger.PrincipalID(tc.PrincipalID()),
	)

	return t, nil
}
