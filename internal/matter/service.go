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

package matter

import (
	"context"
	"fmt"
	"time"

	"github.com/conveyai/conveyai/internal/audit"
	"github.com/conveyai/conveyai/internal/tenant"
	"github.com/google/uuid"
)

// UnitOfWork runs fn so that every repository write performed through ctx
// commits or rolls back together.
type UnitOfWork interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service provides matter lifecycle business logic
type Service struct {
	repo  Repository
	trail audit.Recorder
	uow   UnitOfWork
}

// NewService creates a new matter service
func NewService(repo Repository, trail audit.Recorder, uow UnitOfWork) *Service {
	return &Service{repo: repo, trail: trail, uow: uow}
}

// CreateMatter opens a new matter for the caller's tenant and records the
// audit entry in the same transaction.
func (s *Service) CreateMatter(ctx context.Context, tc tenant.Context, matterType Type, propertyAddress string, buyerClientID, sellerClientID *string) (*Matter, error) {
	if !matterType.Valid() {
		return nil, fmt.Errorf("invalid matter type: %s", matterType)
	}
	if propertyAddress == "" {
		return nil, fmt.Errorf("property address is required")
	}

	now := time.Now()
	m := &Matter{
		ID:              uuid.NewString(),
		TenantID:        tc.TenantID(),
		ConveyancerID:   tc.PrincipalID(),
		Type:            matterType,
		Status:          StatusPending,
		PropertyAddress: propertyAddress,
		BuyerClientID:   buyerClientID,
		SellerClientID:  sellerClientID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err := s.uow.InTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, m); err != nil {
			return fmt.Errorf("failed to create matter: %w", err)
		}
		_, err := s.trail.Record(ctx, tc, m.ID, audit.ActionCreateMatter, audit.Details{
			"matter_type":      string(matterType),
			"property_address": propertyAddress,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	return m, nil
}

// GetMatter retrieves a matter owned by the caller's tenant
func (s *Service) GetMatter(ctx context.Context, tc tenant.Context, id string) (*Matter, error) {
	m, err := s.repo.GetByID(ctx, tc.TenantID(), id)
	if err != nil {
		return nil, ErrMatterNotFound
	}
	return m, nil
}

// ListMatters lists the tenant's matters
func (s *Service) ListMatters(ctx context.Context, tc tenant.Context) ([]*Matter, error) {
	return s.repo.List(ctx, tc.TenantID())
}

// TransitionStatus moves a matter through its lifecycle. The status write
// and its audit entry share one transaction.
func (s *Service) TransitionStatus(ctx context.Context, tc tenant.Context, id string, next Status) (*Matter, error) {
	m, err := s.repo.GetByID(ctx, tc.TenantID(), id)
	if err != nil {
		return nil, ErrMatterNotFound
	}

	if !m.Status.CanTransition(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.Status, next)
	}

	action := audit.ActionUpdateMatterStatus
	if next == StatusArchived {
		action = audit.ActionArchiveMatter
	}

	now := time.Now()
	err = s.uow.InTx(ctx, func(ctx context.Context) error {
		if err := s.repo.UpdateStatus(ctx, tc.TenantID(), id, next, now); err != nil {
			return err
		}
		_, err := s.trail.Record(ctx, tc, id, action, audit.Details{
			"from": string(m.Status),
			"to":   string(next),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	m.Status = next
	m.UpdatedAt = now
	return m, nil
}
