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

package hierarchy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/conveyai/conveyai/internal/audit"
	"github.com/conveyai/conveyai/internal/observability/logger"
	"github.com/conveyai/conveyai/internal/storage"
	"github.com/conveyai/conveyai/internal/tenant"
	"github.com/google/uuid"
)

// UnitOfWork runs fn so that every repository write performed through ctx
// commits or rolls back together.
type UnitOfWork interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ItemMeta carries caller-supplied metadata for a new or updated item
type ItemMeta struct {
	Name             string
	Description      string
	Category         Category
	OriginalFilename string
	MimeType         string
	Content          string
}

// Service implements the hierarchical store. Re-parent operations are
// serialized per (tenant, kind) so two concurrent moves cannot splice a
// cycle past the ancestor walk.
type Service struct {
	folders FolderRepository
	items   ItemRepository
	blobs   storage.BlobStore
	trail   audit.Recorder
	uow     UnitOfWork

	mu          sync.Mutex
	reparentMus map[treeKey]*sync.Mutex
}

type treeKey struct {
	tenantID string
	kind     Kind
}

// NewService creates a hierarchical store service
func NewService(folders FolderRepository, items ItemRepository, blobs storage.BlobStore, trail audit.Recorder, uow UnitOfWork) *Service {
	return &Service{
		folders:     folders,
		items:       items,
		blobs:       blobs,
		trail:       trail,
		uow:         uow,
		reparentMus: make(map[treeKey]*sync.Mutex),
	}
}

func (s *Service) treeLock(tenantID string, kind Kind) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := treeKey{tenantID: tenantID, kind: kind}
	mu, ok := s.reparentMus[key]
	if !ok {
		mu = &sync.Mutex{}
		s.reparentMus[key] = mu
	}
	return mu
}

// validateScope checks the kind/matter pairing: document trees require a
// matter, precedent trees forbid one.
func validateScope(kind Kind, matterID *string) error {
	switch kind {
	case KindDocument:
		if matterID == nil || *matterID == "" {
			return ErrMissingMatter
		}
	case KindPrecedent:
		if matterID != nil {
			return ErrUnexpectedScope
		}
	default:
		return fmt.Errorf("unknown kind %q", kind)
	}
	return nil
}

// resolveParent loads and validates a prospective parent folder. A missing,
// cross-tenant, cross-kind or cross-matter parent is uniformly reported as
// ErrFolderNotFound so callers cannot distinguish "not yours" from "does
// not exist".
func (s *Service) resolveParent(ctx context.Context, tc tenant.Context, kind Kind, parentID string, matterID *string) (*Folder, error) {
	parent, err := s.folders.GetByID(ctx, tc.TenantID(), parentID)
	if err != nil {
		return nil, ErrFolderNotFound
	}
	if parent.Kind != kind {
		return nil, ErrFolderNotFound
	}
	if kind == KindDocument && (parent.MatterID == nil || matterID == nil || *parent.MatterID != *matterID) {
		return nil, ErrFolderNotFound
	}
	return parent, nil
}

// CreateFolder creates a folder of the given kind. For document folders
// matterID is the owning matter; precedent folders are tenant-global.
func (s *Service) CreateFolder(ctx context.Context, tc tenant.Context, kind Kind, name string, parentID, matterID *string) (*Folder, error) {
	if name == "" {
		return nil, ErrNameRequired
	}
	if err := validateScope(kind, matterID); err != nil {
		return nil, err
	}

	if parentID != nil && *parentID != "" {
		if _, err := s.resolveParent(ctx, tc, kind, *parentID, matterID); err != nil {
			return nil, err
		}
	} else {
		parentID = nil
	}

	now := time.Now()
	f := &Folder{
		ID:        uuid.NewString(),
		TenantID:  tc.TenantID(),
		Kind:      kind,
		Name:      name,
		ParentID:  parentID,
		MatterID:  matterID,
		CreatedBy: tc.PrincipalID(),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.folders.Create(ctx, f); err != nil {
		return nil, fmt.Errorf("failed to create folder: %w", err)
	}
	return f, nil
}

// ListFolders lists folders of one kind under a parent, name ascending.
// Only the caller's tenant is visible.
func (s *Service) ListFolders(ctx context.Context, tc tenant.Context, kind Kind, parentID, matterID *string) ([]*Folder, error) {
	if parentID != nil && *parentID == "" {
		parentID = nil
	}
	return s.folders.List(ctx, tc.TenantID(), kind, parentID, matterID)
}

// MoveFolder renames and/or re-parents a folder. The ancestor walk and the
// write happen under the per-(tenant, kind) lock, so no concurrent move can
// introduce a cycle behind the walk's back.
func (s *Service) MoveFolder(ctx context.Context, tc tenant.Context, id, name string, newParentID *string) (*Folder, error) {
	f, err := s.folders.GetByID(ctx, tc.TenantID(), id)
	if err != nil {
		return nil, ErrFolderNotFound
	}

	lock := s.treeLock(tc.TenantID(), f.Kind)
	lock.Lock()
	defer lock.Unlock()

	if newParentID != nil && *newParentID == "" {
		newParentID = nil
	}
	if newParentID != nil {
		if *newParentID == f.ID {
			return nil, ErrInvalidHierarchy
		}
		parent, err := s.resolveParent(ctx, tc, f.Kind, *newParentID, f.MatterID)
		if err != nil {
			return nil, err
		}
		if err := s.checkAncestry(ctx, tc, parent, f.ID); err != nil {
			return nil, err
		}
	}

	if name != "" {
		f.Name = name
	}
	f.ParentID = newParentID
	f.UpdatedAt = time.Now()

	if err := s.folders.Update(ctx, f); err != nil {
		return nil, fmt.Errorf("failed to move folder: %w", err)
	}
	return f, nil
}

// checkAncestry walks from start up to the root and fails if it encounters
// forbiddenID. The walk is bounded: a longer chain than maxDepth is treated
// as a corrupt hierarchy rather than walked forever.
func (s *Service) checkAncestry(ctx context.Context, tc tenant.Context, start *Folder, forbiddenID string) error {
	const maxDepth = 256

	current := start
	for depth := 0; current != nil; depth++ {
		if depth >= maxDepth {
			return fmt.Errorf("%w: ancestor chain exceeds %d levels", ErrInvalidHierarchy, maxDepth)
		}
		if current.ID == forbiddenID {
			return ErrInvalidHierarchy
		}
		if current.ParentID == nil {
			return nil
		}
		next, err := s.folders.GetByID(ctx, tc.TenantID(), *current.ParentID)
		if err != nil {
			return fmt.Errorf("%w: broken parent link at %s", ErrInvalidHierarchy, current.ID)
		}
		current = next
	}
	return nil
}

// CreateItem stores file content and its metadata record as one logical
// unit: the blob is written first, the record second, and the blob is
// removed again if the record cannot be persisted. A list query never sees
// partial state.
func (s *Service) CreateItem(ctx context.Context, tc tenant.Context, kind Kind, meta ItemMeta, content io.Reader, folderID, matterID *string) (*Item, error) {
	if content == nil {
		return nil, ErrContentRequired
	}
	if err := validateScope(kind, matterID); err != nil {
		return nil, err
	}
	if meta.Category == "" {
		meta.Category = CategoryGeneral
	}
	if !meta.Category.Valid() {
		return nil, ErrInvalidCategory
	}

	if folderID != nil && *folderID != "" {
		if _, err := s.resolveParent(ctx, tc, kind, *folderID, matterID); err != nil {
			return nil, err
		}
	} else {
		folderID = nil
	}

	ext, fileType := FileTypeFor(meta.OriginalFilename)
	storedName := uuid.NewString() + ext

	var key string
	if kind == KindDocument {
		key = storage.DocumentKey(tc.TenantID(), *matterID, storedName)
	} else {
		key = storage.PrecedentKey(tc.TenantID(), storedName)
	}

	size, err := s.blobs.Write(ctx, key, content)
	if err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	name := meta.Name
	if name == "" {
		name = meta.OriginalFilename
	}

	now := time.Now()
	item := &Item{
		ID:            uuid.NewString(),
		TenantID:      tc.TenantID(),
		Kind:          kind,
		Name:          name,
		Description:   meta.Description,
		Category:      meta.Category,
		FolderID:      folderID,
		MatterID:      matterID,
		Source:        SourceUpload,
		FilePath:      key,
		FileName:      storedName,
		FileType:      fileType,
		FileExtension: ext,
		FileSize:      size,
		MimeType:      meta.MimeType,
		Content:       meta.Content,
		UploadedBy:    tc.PrincipalID(),
		UploadedAt:    now,
		UpdatedAt:     now,
	}

	err = s.uow.InTx(ctx, func(ctx context.Context) error {
		if err := s.items.Create(ctx, item); err != nil {
			return err
		}
		if kind == KindDocument {
			_, err := s.trail.Record(ctx, tc, *matterID, audit.ActionUploadDocument, audit.Details{
				"document_id": item.ID,
				"file_name":   item.FileName,
				"category":    string(item.Category),
			})
			return err
		}
		return nil
	})
	if err != nil {
		// No orphaned blobs: the record never became visible, so the file
		// must go too.
		if rmErr := s.blobs.Remove(ctx, key); rmErr != nil {
			slog.ErrorContext(ctx, "failed to remove blob after metadata failure",
				logger.Error(rmErr),
				logger.FilePath(key),
				logger.TenantID(tc.TenantID()),
			)
		}
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	return item, nil
}

// CreateExternalItem records an item whose content lives outside the local
// blob store, such as a registry-generated contract. Callers own the audit
// entry; the insert joins any transaction carried by ctx.
func (s *Service) CreateExternalItem(ctx context.Context, tc tenant.Context, kind Kind, meta ItemMeta, externalPath string, folderID, matterID *string) (*Item, error) {
	if externalPath == "" {
		return nil, ErrContentRequired
	}
	if err := validateScope(kind, matterID); err != nil {
		return nil, err
	}
	if !meta.Category.Valid() {
		return nil, ErrInvalidCategory
	}

	ext, fileType := FileTypeFor(meta.OriginalFilename)
	now := time.Now()
	item := &Item{
		ID:            uuid.NewString(),
		TenantID:      tc.TenantID(),
		Kind:          kind,
		Name:          meta.Name,
		Description:   meta.Description,
		Category:      meta.Category,
		FolderID:      folderID,
		MatterID:      matterID,
		Source:        SourceRegistry,
		FilePath:      externalPath,
		FileName:      meta.OriginalFilename,
		FileType:      fileType,
		FileExtension: ext,
		MimeType:      meta.MimeType,
		UploadedBy:    tc.PrincipalID(),
		UploadedAt:    now,
		UpdatedAt:     now,
	}

	if err := s.items.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}
	return item, nil
}

// GetItem retrieves an item owned by the caller's tenant
func (s *Service) GetItem(ctx context.Context, tc tenant.Context, id string) (*Item, error) {
	item, err := s.items.GetByID(ctx, tc.TenantID(), id)
	if err != nil {
		return nil, ErrItemNotFound
	}
	return item, nil
}

// OpenItem returns the item and a reader over its stored content. Metadata
// referencing a missing blob is a storage inconsistency: it is surfaced for
// operator reconciliation, never repaired by guessing.
func (s *Service) OpenItem(ctx context.Context, tc tenant.Context, id string) (*Item, io.ReadCloser, error) {
	item, err := s.GetItem(ctx, tc, id)
	if err != nil {
		return nil, nil, err
	}
	if item.Source != SourceUpload {
		return nil, nil, fmt.Errorf("item %s content is hosted externally", id)
	}

	rc, err := s.blobs.Open(ctx, item.FilePath)
	if err != nil {
		if errors.Is(err, storage.ErrBlobNotFound) {
			slog.ErrorContext(ctx, "item metadata references missing file",
				logger.ItemID(item.ID),
				logger.FilePath(item.FilePath),
				logger.TenantID(tc.TenantID()),
			)
			return nil, nil, fmt.Errorf("%w: item %s references missing file", ErrInconsistent, id)
		}
		return nil, nil, err
	}
	return item, rc, nil
}

// ListItems lists items of one kind in a folder, name ascending
func (s *Service) ListItems(ctx context.Context, tc tenant.Context, kind Kind, folderID, matterID *string) ([]*Item, error) {
	if folderID != nil && *folderID == "" {
		folderID = nil
	}
	return s.items.List(ctx, tc.TenantID(), kind, folderID, matterID)
}

// UpdateItem edits item metadata. Document edits are audited in the same
// transaction as the write.
func (s *Service) UpdateItem(ctx context.Context, tc tenant.Context, id string, meta ItemMeta) (*Item, error) {
	item, err := s.GetItem(ctx, tc, id)
	if err != nil {
		return nil, err
	}

	if meta.Name != "" {
		item.Name = meta.Name
	}
	if meta.Description != "" {
		item.Description = meta.Description
	}
	if meta.Category != "" {
		if !meta.Category.Valid() {
			return nil, ErrInvalidCategory
		}
		item.Category = meta.Category
	}
	if meta.Content != "" {
		item.Content = meta.Content
	}
	item.UpdatedAt = time.Now()

	err = s.uow.InTx(ctx, func(ctx context.Context) error {
		if err := s.items.Update(ctx, item); err != nil {
			return err
		}
		if item.Kind == KindDocument && item.MatterID != nil {
			_, err := s.trail.Record(ctx, tc, *item.MatterID, audit.ActionUpdateDocument, audit.Details{
				"document_id": item.ID,
			})
			return err
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update item: %w", err)
	}
	return item, nil
}

// DeleteItem removes the stored file and the metadata record together. The
// blob goes first: if its removal fails the record stays, leaving at worst a
// ghost record over a live file — never a record over a missing file.
func (s *Service) DeleteItem(ctx context.Context, tc tenant.Context, id string) error {
	item, err := s.GetItem(ctx, tc, id)
	if err != nil {
		return err
	}

	if item.Source == SourceUpload {
		if err := s.blobs.Remove(ctx, item.FilePath); err != nil {
			if errors.Is(err, storage.ErrBlobNotFound) {
				return fmt.Errorf("%w: item %s references missing file", ErrInconsistent, id)
			}
			return fmt.Errorf("failed to remove file, keeping record: %w", err)
		}
	}

	return s.uow.InTx(ctx, func(ctx context.Context) error {
		if err := s.items.Delete(ctx, tc.TenantID(), id); err != nil {
			return err
		}
		if item.Kind == KindDocument && item.MatterID != nil {
			_, err := s.trail.Record(ctx, tc, *item.MatterID, audit.ActionDeleteDocument, audit.Details{
				"document_id": item.ID,
				"file_name":   item.FileName,
			})
			return err
		}
		return nil
	})
}
