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
	"io"
	"mime/multipart"
	"net/http"

	"github.com/conveyai/conveyai/internal/hierarchy"
	"github.com/go-chi/chi/v5"
)

const maxUploadSize = 32 << 20 // 32 MiB

// readUpload parses a multipart upload into item metadata plus the file
// stream. The caller closes the file.
func readUpload(w http.ResponseWriter, r *http.Request) (hierarchy.ItemMeta, multipart.File, bool) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return hierarchy.ItemMeta{}, nil, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "file is required")
		return hierarchy.ItemMeta{}, nil, false
	}

	meta := hierarchy.ItemMeta{
		Name:             r.FormValue("name"),
		Description:      r.FormValue("description"),
		Category:         hierarchy.Category(r.FormValue("category")),
		OriginalFilename: header.Filename,
		MimeType:         header.Header.Get("Content-Type"),
		Content:          r.FormValue("content"),
	}
	return meta, file, true
}

// serveItem streams stored file content back to the client
func serveItem(w http.ResponseWriter, item *hierarchy.Item, rc io.ReadCloser) {
	defer rc.Close()

	mimeType := item.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+item.FileName+`"`)
	w.WriteHeader(http.StatusOK)
	io.Copy(w, rc)
}

// UpdateItemRequest edits item metadata
type UpdateItemRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Content     string `json:"content"`
}

func (req UpdateItemRequest) meta() hierarchy.ItemMeta {
	return hierarchy.ItemMeta{
		Name:        req.Name,
		Description: req.Description,
		Category:    hierarchy.Category(req.Category),
		Content:     req.Content,
	}
}

// CreateFolderRequest creates a folder in a tree. parent_id is accepted as
// an alias of parentFolderId.
type CreateFolderRequest struct {
	Name          string  `json:"name"`
	ParentID      *string `json:"parentFolderId"`
	ParentIDAlias *string `json:"parent_id,omitempty"`
}

func (req CreateFolderRequest) parent() *string {
	if req.ParentID != nil {
		return req.ParentID
	}
	return req.ParentIDAlias
}

// uploadFolderID reads the target folder from a parsed multipart form
func uploadFolderID(r *http.Request) *string {
	if v := r.FormValue("folderId"); v != "" {
		return &v
	}
	return optional(r.FormValue("folder_id"))
}

// CreateDocumentFolder creates a folder inside a matter's document tree
func (h *Handler) CreateDocumentFolder(w http.ResponseWriter, r *http.Request) {
	tc, ok := requireTenantContext(w, r)
	if !ok {
		return
	}
	matterID := chi.URLParam(r, "matterID")

	// The matter anchors the tree and must belong to the caller's tenant.
	if _, err := h.matterService.GetMatter(r.Context(), tc, matterID); err != nil {
		respondDomainError(w, err)
		return
	}

	var req CreateFolderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	f, err := h.storeService.CreateFolder(r.Context(), tc, hierarchy.KindDocument, req.Name, req.parent(), &matterID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, f)
}

// ListDocumentFolders lists folders under a parent in a matter's tree. An
// absent parentFolderId query parameter selects the root level.
func (h *Handler) ListDocumentFolders(w http.ResponseWriter, r *http.Request) {
	tc, ok := requireTenantContext(w, r)
	if !ok {
		return
	}
	matterID := chi.URLParam(r, "matterID")

	if _, err := h.matterService.GetMatter(r.Context(), tc, matterID); err != nil {
		respondDomainError(w, err)
		return
	}

	folders, err := h.storeService.ListFolders(r.Context(), tc, hierarchy.KindDocument, optional(queryParam(r, "parentFolderId", "parent_id")), &matterID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if folders == nil {
		folders = []*hierarchy.Folder{}
	}

	respondJSON(w, http.StatusOK, folders)
}

// UploadDocument stores an uploaded file in a matter's document tree
func (h *Handler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	tc, ok := requireTenantContext(w, r)
	if !ok {
		return
	}
	matterID := chi.URLParam(r, "matterID")

	if _, err := h.matterService.GetMatter(r.Context(), tc, matterID); err != nil {
		respondDomainError(w, err)
		return
	}

	meta, file, ok := readUpload(w, r)
	if !ok {
		return
	}
	defer file.Close()

	item, err := h.storeService.CreateItem(r.Context(), tc, hierarchy.KindDocument, meta, file, uploadFolderID(r), &matterID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, item)
}

// ListDocuments lists documents in one folder of a matter's tree
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	tc, ok := requireTenantContext(w, r)
	if !ok {
		return
	}
	matterID := chi.URLParam(r, "matterID")

	if _, err := h.matterService.GetMatter(r.Context(), tc, matterID); err != nil {
		respondDomainError(w, err)
		return
	}

	items, err := h.storeService.ListItems(r.Context(), tc, hierarchy.KindDocument, optional(queryParam(r, "folderId", "folder_id")), &matterID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if items == nil {
		items = []*hierarchy.Item{}
	}

	respondJSON(w, http.StatusOK, items)
}

// GetDocument retrieves a document's metadata
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	tc, ok := requireTenantContext(w, r)
	if !ok {
		return
	}

	item, err := h.storeService.GetItem(r.Context(), tc, chi.URLParam(r, "documentID"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if item.Kind != hierarchy.KindDocument {
		respondDomainError(w, hierarchy.ErrItemNotFound)
		return
	}

	respondJSON(w, http.StatusOK, item)
}

// DownloadDocument streams a document's stored content
func (h *Handler) DownloadDocument(w http.ResponseWriter, r *http.Request) {
	tc, ok := requireTenantContext(w, r)
	if !ok {
		return
	}

	item, rc, err := h.storeService.OpenItem(r.Context(), tc, chi.URLParam(r, "documentID"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if item.Kind != hierarchy.KindDocument {
		rc.Close()
		respondDomainError(w, hierarchy.ErrItemNotFound)
		return
	}

	serveItem(w, item, rc)
}

// UpdateDocument edits document metadata
func (h *Handler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	tc, ok := requireTenantContext(w, r)
	if !ok {
		return
	}

	var req UpdateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id := chi.URLParam(r, "documentID")
	if !h.requireItemKind(w, r, tc, id, hierarchy.KindDocument) {
		return
	}

	item, err := h.storeService.UpdateItem(r.Context(), tc, id, req.meta())
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, item)
}

// DeleteDocument removes a document and its stored file
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	tc, ok := requireTenantContext(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "documentID")
	if !h.requireItemKind(w, r, tc, id, hierarchy.KindDocument) {
		return
	}

	if err := h.storeService.DeleteItem(r.Context(), tc, id); err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
