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

	"github.com/conveyai/conveyai/internal/hierarchy"
	"github.com/go-chi/chi/v5"
)

// CreatePrecedentFolder creates a folder in the firm's precedent bank
func (h *Handler) CreatePrecedentFolder(w http.ResponseWriter, r *http.Request) {
	tc, ok := requireTenantContext(w, r)
	if !ok {
		return
	}

	var req CreateFolderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	f, err := h.storeService.CreateFolder(r.Context(), tc, hierarchy.KindPrecedent, req.Name, req.parent(), nil)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, f)
}

// ListPrecedentFolders lists precedent folders under a parent. An absent
// parentFolderId query parameter selects the root level.
func (h *Handler) ListPrecedentFolders(w http.ResponseWriter, r *http.Request) {
	tc, ok := requireTenantContext(w, r)
	if !ok {
		return
	}

	folders, err := h.storeService.ListFolders(r.Context(), tc, hierarchy.KindPrecedent, optional(queryParam(r, "parentFolderId", "parent_id")), nil)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if folders == nil {
		folders = []*hierarchy.Folder{}
	}

	respondJSON(w, http.StatusOK, folders)
}

// MoveFolderRequest renames and/or re-parents a folder. A null parent moves
// the folder to the root level; parent_id is accepted as an alias of
// parentFolderId.
type MoveFolderRequest struct {
	Name          string  `json:"name"`
	ParentID      *string `json:"parentFolderId"`
	ParentIDAlias *string `json:"parent_id,omitempty"`
}

func (req MoveFolderRequest) parent() *string {
	if req.ParentID != nil {
		return req.ParentID
	}
	return req.ParentIDAlias
}

// MovePrecedentFolder renames or moves a precedent folder. A move that would
// make a folder its own ancestor is rejected with a conflict.
func (h *Handler) MovePrecedentFolder(w http.ResponseWriter, r *http.Request) {
	tc, ok := requireTenantContext(w, r)
	if !ok {
		return
	}

	var req MoveFolderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	f, err := h.storeService.MoveFolder(r.Context(), tc, chi.URLParam(r, "folderID"), req.Name, req.parent())
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, f)
}

// UploadPrecedent stores a template in the firm's precedent bank
func (h *Handler) UploadPrecedent(w http.ResponseWriter, r *http.Request) {
	tc, ok := requireTenantContext(w, r)
	if !ok {
		return
	}

	meta, file, ok := readUpload(w, r)
	if !ok {
		return
	}
	defer file.Close()

	item, err := h.storeService.CreateItem(r.Context(), tc, hierarchy.KindPrecedent, meta, file, uploadFolderID(r), nil)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, item)
}

// ListPrecedents lists precedents in one folder
func (h *Handler) ListPrecedents(w http.ResponseWriter, r *http.Request) {
	tc, ok := requireTenantContext(w, r)
	if !ok {
		return
	}

	items, err := h.storeService.ListItems(r.Context(), tc, hierarchy.KindPrecedent, optional(queryParam(r, "folderId", "folder_id")), nil)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if items == nil {
		items = []*hierarchy.Item{}
	}

	respondJSON(w, http.StatusOK, items)
}

// GetPrecedent retrieves a precedent's metadata
func (h *Handler) GetPrecedent(w http.ResponseWriter, r *http.Request) {
	tc, ok := requireTenantContext(w, r)
	if !ok {
		return
	}

	item, err := h.storeService.GetItem(r.Context(), tc, chi.URLParam(r, "precedentID"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if item.Kind != hierarchy.KindPrecedent {
		respondDomainError(w, hierarchy.ErrItemNotFound)
		return
	}

	respondJSON(w, http.StatusOK, item)
}

// DownloadPrecedent streams a precedent's stored content
func (h *Handler) DownloadPrecedent(w http.ResponseWriter, r *http.Request) {
	tc, ok := requireTenantContext(w, r)
	if !ok {
		return
	}

	item, rc, err := h.storeService.OpenItem(r.Context(), tc, chi.URLParam(r, "precedentID"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if item.Kind != hierarchy.KindPrecedent {
		rc.Close()
		respondDomainError(w, hierarchy.ErrItemNotFound)
		return
	}

	serveItem(w, item, rc)
}

// UpdatePrecedent edits precedent metadata
func (h *Handler) UpdatePrecedent(w http.ResponseWriter, r *http.Request) {
	tc, ok := requireTenantContext(w, r)
	if !ok {
		return
	}

	var req UpdateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id := chi.URLParam(r, "precedentID")
	if !h.requireItemKind(w, r, tc, id, hierarchy.KindPrecedent) {
		return
	}

	item, err := h.storeService.UpdateItem(r.Context(), tc, id, req.meta())
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, item)
}

// DeletePrecedent removes a precedent and its stored file
func (h *Handler) DeletePrecedent(w http.ResponseWriter, r *http.Request) {
	tc, ok := requireTenantContext(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "precedentID")
	if !h.requireItemKind(w, r, tc, id, hierarchy.KindPrecedent) {
		return
	}

	if err := h.storeService.DeleteItem(r.Context(), tc, id); err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
