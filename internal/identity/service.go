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

package identity

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/conveyai/conveyai/internal/observability/logger"
	"github.com/conveyai/conveyai/internal/tenant"
	"github.com/google/uuid"
)

// Service provides principal management and authentication
type Service struct {
	repo       Repository
	tenantRepo tenant.Repository
	hasher     *PasswordHasher
}

// NewService creates a new identity service
func NewService(repo Repository, tenantRepo tenant.Repository, hasher *PasswordHasher) *Service {
	return &Service{
		repo:       repo,
		tenantRepo: tenantRepo,
		hasher:     hasher,
	}
}

// CreatePrincipal provisions a principal inside a tenant. The tenant id is
// fixed at creation and never changes.
func (s *Service) CreatePrincipal(ctx context.Context, tenantID, email, name, password string, role tenant.Role) (*Principal, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("valid email is required")
	}
	if !role.Valid() {
		return nil, fmt.Errorf("invalid role: %s", role)
	}

	if _, err := s.repo.GetByEmail(ctx, tenantID, email); err == nil {
		return nil, ErrPrincipalExists
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	p := &Principal{
		ID:           uuid.NewString(),
		TenantID:     tenantID,
		Email:        email,
		Name:         name,
		Role:         role,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create principal: %w", err)
	}

	return p, nil
}

// Authenticate verifies credentials for a principal. The tenant is resolved
// from the email domain, which routes each login to its firm.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Principal, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return nil, ErrInvalidCredentials
	}

	t, err := s.tenantRepo.GetByDomain(ctx, email[at+1:])
	if err != nil {
		// Indistinguishable from a bad password
		return nil, ErrInvalidCredentials
	}

	p, err := s.repo.GetByEmail(ctx, t.ID, email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	ok, err := s.hasher.Verify(password, p.PasswordHash)
	if err != nil || !ok {
		slog.WarnContext(ctx, "failed login attempt",
			logger.TenantID(t.ID),
			logger.Email(email),
		)
		return nil, ErrInvalidCredentials
	}

	return p, nil
}

// GetPrincipal retrieves a principal by id, scoped to the caller's tenant.
// A principal from another tenant is reported as not found.
func (s *Service) GetPrincipal(ctx context.Context, tc tenant.Context, id string) (*Principal, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, ErrPrincipalNotFound
	}
	if p.TenantID != tc.TenantID() {
		return nil, ErrPrincipalNotFound
	}
	return p, nil
}
