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

// Package contract coordinates contract generation: tenant validation,
// registry order, document record and audit entry.
package contract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/conveyai/conveyai/internal/audit"
	"github.com/conveyai/conveyai/internal/hierarchy"
	"github.com/conveyai/conveyai/internal/matter"
	"github.com/conveyai/conveyai/internal/observability/logger"
	"github.com/conveyai/conveyai/internal/registry"
	"github.com/conveyai/conveyai/internal/tenant"
)

// RegistryClient submits orders to the land registry
type RegistryClient interface {
	SubmitOrder(ctx context.Context, folioIdentifier, productCode string) (*registry.DocumentRef, error)
}

// DocumentStore records registry-generated documents in the hierarchy
type DocumentStore interface {
	CreateExternalItem(ctx context.Context, tc tenant.Context, kind hierarchy.Kind, meta hierarchy.ItemMeta, externalPath string, folderID, matterID *string) (*hierarchy.Item, error)
}

// UnitOfWork runs fn so that every repository write performed through ctx
// commits or rolls back together.
type UnitOfWork interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service is the contract orchestrator
type Service struct {
	matters  matter.Repository
	docs     DocumentStore
	trail    audit.Recorder
	registry RegistryClient
	uow      UnitOfWork
}

// NewService creates a contract orchestrator
func NewService(matters matter.Repository, docs DocumentStore, trail audit.Recorder, registryClient RegistryClient, uow UnitOfWork) *Service {
	return &Service{
		matters:  matters,
		docs:     docs,
		trail:    trail,
		registry: registryClient,
		uow:      uow,
	}
}

// CreateContract orders a contract from the land registry for a matter and
// persists the resulting document together with its audit entry.
//
// A registry failure leaves no local state behind. A local failure after the
// registry accepted the order rolls the document and audit entry back
// together and reports the dangling order id for operator reconciliation —
// the registry-side effect is never dropped silently.
func (s *Service) CreateContract(ctx context.Context, tc tenant.Context, matterID, folioIdentifier string) (*hierarchy.Item, json.RawMessage, error) {
	if matterID == "" || folioIdentifier == "" {
		return nil, nil, fmt.Errorf("matter id and folio identifier are required")
	}

	// The matter must belong to the caller's tenant; a foreign matter is
	// indistinguishable from a missing one.
	if _, err := s.matters.GetByID(ctx, tc.TenantID(), matterID); err != nil {
		return nil, nil, matter.ErrMatterNotFound
	}

	ref, err := s.registry.SubmitOrder(ctx, folioIdentifier, registry.ProductCodeTitleSearch)
	if err != nil {
		return nil, nil, err
	}

	meta := hierarchy.ItemMeta{
		Name:             "Contract - " + folioIdentifier,
		Description:      fmt.Sprintf("Contract generated via the land registry for %s", folioIdentifier),
		Category:         hierarchy.CategoryContract,
		OriginalFilename: fmt.Sprintf("contract_%s.pdf", ref.OrderID),
		MimeType:         "application/pdf",
	}

	var doc *hierarchy.Item
	err = s.uow.InTx(ctx, func(ctx context.Context) error {
		var txErr error
		doc, txErr = s.docs.CreateExternalItem(ctx, tc, hierarchy.KindDocument, meta, ref.DocumentURL, nil, &matterID)
		if txErr != nil {
			return txErr
		}
		_, txErr = s.trail.Record(ctx, tc, matterID, audit.ActionCreateContract, audit.Details{
			"document_id":       doc.ID,
			"registry_order_id": ref.OrderID,
			"folio_identifier":  folioIdentifier,
		})
		return txErr
	})
	if err != nil {
		// The order exists upstream but nothing was persisted locally.
		// Surface the order id so an operator can reconcile.
		slog.ErrorContext(ctx, "contract persisted state rolled back after registry order",
			logger.Component("contract"),
			logger.Error(err),
			logger.OrderID(ref.OrderID),
			logger.MatterID(matterID),
			logger.TenantID(tc.TenantID()),
		)
		return nil, nil, fmt.Errorf("failed to record contract for order %s: %w", ref.OrderID, err)
	}

	return doc, ref.Raw, nil
}
