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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/conveyai/conveyai/internal/audit"
	"github.com/conveyai/conveyai/internal/contract"
	"github.com/conveyai/conveyai/internal/hierarchy"
	"github.com/conveyai/conveyai/internal/identity"
	"github.com/conveyai/conveyai/internal/matter"
	"github.com/conveyai/conveyai/internal/registry"
	"github.com/conveyai/conveyai/internal/storage"
	"github.com/conveyai/conveyai/internal/tenant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// In-memory repositories backing a full router under httptest

type fakeTenantRepo struct {
	mu      sync.Mutex
	tenants map[string]*tenant.Tenant
}

func (r *fakeTenantRepo) Create(ctx context.Context, t *tenant.Tenant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *t
	r.tenants[t.ID] = &cp
	return nil
}

func (r *fakeTenantRepo) GetByID(ctx context.Context, id string) (*tenant.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tenants[id]
	if !ok {
		return nil, tenant.ErrTenantNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTenantRepo) GetByDomain(ctx context.Context, domain string) (*tenant.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tenants {
		if t.Domain == domain {
			cp := *t
			return &cp, nil
		}
	}
	return nil, tenant.ErrTenantNotFound
}

func (r *fakeTenantRepo) Update(ctx context.Context, t *tenant.Tenant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tenants[t.ID]; !ok {
		return tenant.ErrTenantNotFound
	}
	cp := *t
	r.tenants[t.ID] = &cp
	return nil
}

type fakePrincipalRepo struct {
	mu         sync.Mutex
	principals map[string]*identity.Principal
}

func (r *fakePrincipalRepo) Create(ctx context.Context, p *identity.Principal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.principals[p.ID] = &cp
	return nil
}

func (r *fakePrincipalRepo) GetByID(ctx context.Context, id string) (*identity.Principal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.principals[id]
	if !ok {
		return nil, identity.ErrPrincipalNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakePrincipalRepo) GetByEmail(ctx context.Context, tenantID, email string) (*identity.Principal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.principals {
		if p.TenantID == tenantID && p.Email == email {
			cp := *p
			return &cp, nil
		}
	}
	return nil, identity.ErrPrincipalNotFound
}

type fakeMatterRepo struct {
	mu      sync.Mutex
	matters map[string]*matter.Matter
}

func (r *fakeMatterRepo) Create(ctx context.Context, m *matter.Matter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *m
	r.matters[m.ID] = &cp
	return nil
}

func (r *fakeMatterRepo) GetByID(ctx context.Context, tenantID, id string) (*matter.Matter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matters[id]
	if !ok || m.TenantID != tenantID {
		return nil, matter.ErrMatterNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *fakeMatterRepo) List(ctx context.Context, tenantID string) ([]*matter.Matter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*matter.Matter
	for _, m := range r.matters {
		if m.TenantID == tenantID {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeMatterRepo) UpdateStatus(ctx context.Context, tenantID, id string, status matter.Status, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matters[id]
	if !ok || m.TenantID != tenantID {
		return matter.ErrMatterNotFound
	}
	m.Status = status
	m.UpdatedAt = updatedAt
	return nil
}

func strPtrEq(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

type fakeFolderRepo struct {
	mu      sync.Mutex
	folders map[string]*hierarchy.Folder
}

func (r *fakeFolderRepo) Create(ctx context.Context, f *hierarchy.Folder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *f
	r.folders[f.ID] = &cp
	return nil
}

func (r *fakeFolderRepo) GetByID(ctx context.Context, tenantID, id string) (*hierarchy.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.folders[id]
	if !ok || f.TenantID != tenantID {
		return nil, hierarchy.ErrFolderNotFound
	}
	cp := *f
	return &cp, nil
}

func (r *fakeFolderRepo) List(ctx context.Context, tenantID string, kind hierarchy.Kind, parentID, matterID *string) ([]*hierarchy.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*hierarchy.Folder
	for _, f := range r.folders {
		if f.TenantID != tenantID || f.Kind != kind {
			continue
		}
		if !strPtrEq(f.ParentID, parentID) || !strPtrEq(f.MatterID, matterID) {
			continue
		}
		cp := *f
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeFolderRepo) Update(ctx context.Context, f *hierarchy.Folder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.folders[f.ID]
	if !ok || existing.TenantID != f.TenantID {
		return hierarchy.ErrFolderNotFound
	}
	cp := *f
	r.folders[f.ID] = &cp
	return nil
}

type fakeItemRepo struct {
	mu    sync.Mutex
	items map[string]*hierarchy.Item
}

func (r *fakeItemRepo) Create(ctx context.Context, item *hierarchy.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *item
	r.items[item.ID] = &cp
	return nil
}

func (r *fakeItemRepo) GetByID(ctx context.Context, tenantID, id string) (*hierarchy.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok || item.TenantID != tenantID {
		return nil, hierarchy.ErrItemNotFound
	}
	cp := *item
	return &cp, nil
}

func (r *fakeItemRepo) List(ctx context.Context, tenantID string, kind hierarchy.Kind, folderID, matterID *string) ([]*hierarchy.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*hierarchy.Item
	for _, item := range r.items {
		if item.TenantID != tenantID || item.Kind != kind {
			continue
		}
		if !strPtrEq(item.FolderID, folderID) {
			continue
		}
		if matterID != nil && !strPtrEq(item.MatterID, matterID) {
			continue
		}
		cp := *item
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeItemRepo) Update(ctx context.Context, item *hierarchy.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.items[item.ID]
	if !ok || existing.TenantID != item.TenantID {
		return hierarchy.ErrItemNotFound
	}
	cp := *item
	r.items[item.ID] = &cp
	return nil
}

func (r *fakeItemRepo) Delete(ctx context.Context, tenantID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok || item.TenantID != tenantID {
		return hierarchy.ErrItemNotFound
	}
	delete(r.items, id)
	return nil
}

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []*audit.Entry
}

func (r *fakeAuditRepo) Insert(ctx context.Context, entry *audit.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *entry
	r.entries = append(r.entries, &cp)
	return nil
}

func (r *fakeAuditRepo) ListByMatter(ctx context.Context, tenantID, matterID string) ([]*audit.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*audit.Entry
	for _, e := range r.entries {
		if e.TenantID == tenantID && e.MatterID == matterID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeBlobStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func (s *fakeBlobStore) Write(ctx context.Context, key string, r io.Reader) (int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = data
	return int64(len(data)), nil
}

func (s *fakeBlobStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.blobs[key]
	if !ok {
		return nil, storage.ErrBlobNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *fakeBlobStore) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[key]; !ok {
		return storage.ErrBlobNotFound
	}
	delete(s.blobs, key)
	return nil
}

func (s *fakeBlobStore) Exists(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.blobs[key]
	return ok, nil
}

type fakeRegistryClient struct {
	mu     sync.Mutex
	orders int
	err    error
}

func (c *fakeRegistryClient) SubmitOrder(ctx context.Context, folioIdentifier, productCode string) (*registry.DocumentRef, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	c.orders++
	return &registry.DocumentRef{
		OrderID:     "CONVEYAI_HTTPTEST",
		DocumentURL: "https://registry.example/docs/CONVEYAI_HTTPTEST",
		Raw:         json.RawMessage(`{"productDetails":[{"document":"https://registry.example/docs/CONVEYAI_HTTPTEST"}]}`),
	}, nil
}

func (c *fakeRegistryClient) orderCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.orders
}

type noTxUOW struct{}

func (noTxUOW) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type testEnv struct {
	router   http.Handler
	registry *fakeRegistryClient
	identity *identity.Service
	tokens   *identity.TokenIssuer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	tenantRepo := &fakeTenantRepo{tenants: map[string]*tenant.Tenant{}}
	principalRepo := &fakePrincipalRepo{principals: map[string]*identity.Principal{}}
	matterRepo := &fakeMatterRepo{matters: map[string]*matter.Matter{}}
	folderRepo := &fakeFolderRepo{folders: map[string]*hierarchy.Folder{}}
	itemRepo := &fakeItemRepo{items: map[string]*hierarchy.Item{}}
	auditRepo := &fakeAuditRepo{}
	blobs := &fakeBlobStore{blobs: map[string][]byte{}}
	registryClient := &fakeRegistryClient{}

	trail := audit.NewTrail(auditRepo)
	hasher := identity.NewPasswordHasher(8192, 1, 1, 16, 32)
	tokens := identity.NewTokenIssuer("router-test-secret-0123456789abcdef", time.Hour)

	tenantService := tenant.NewService(tenantRepo)
	identityService := identity.NewService(principalRepo, tenantRepo, hasher)
	matterService := matter.NewService(matterRepo, trail, noTxUOW{})
	storeService := hierarchy.NewService(folderRepo, itemRepo, blobs, trail, noTxUOW{})
	contractService := contract.NewService(matterRepo, storeService, trail, registryClient, noTxUOW{})

	h := NewHandler(tenantService, identityService, tokens, matterService, storeService, contractService, trail)
	router := NewRouter(h, NewRateLimiter(1000, 1000))

	return &testEnv{
		router:   router,
		registry: registryClient,
		identity: identityService,
		tokens:   tokens,
	}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), "body: %s", w.Body.String())
	return v
}

// registerFirm registers a firm and returns the admin's bearer token plus the
// tenant id.
func (e *testEnv) registerFirm(t *testing.T, domain string) (token, tenantID string) {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/auth/register", "", RegisterRequest{
		FirmName: "Firm " + domain,
		Domain:   domain,
		Email:    "admin@" + domain,
		Name:     "Admin",
		Password: "sup3rsecret!",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decode[map[string]any](t, w)
	token = resp["token"].(string)
	tenantID = resp["tenant"].(map[string]any)["id"].(string)
	return token, tenantID
}

func TestHealthCheck(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode[map[string]string](t, w)
	assert.Equal(t, "healthy", resp["status"])
}

func TestAuthFlow(t *testing.T) {
	e := newTestEnv(t)
	token, _ := e.registerFirm(t, "firmone.com.au")

	t.Run("duplicate domain conflicts", func(t *testing.T) {
		w := e.do(t, http.MethodPost, "/api/auth/register", "", RegisterRequest{
			FirmName: "Copycat",
			Domain:   "firmone.com.au",
			Email:    "other@firmone.com.au",
			Password: "x",
		})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("login with the registered credentials", func(t *testing.T) {
		w := e.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{
			Email:    "admin@firmone.com.au",
			Password: "sup3rsecret!",
		})
		require.Equal(t, http.StatusOK, w.Code)
		resp := decode[map[string]any](t, w)
		assert.NotEmpty(t, resp["token"])
	})

	t.Run("wrong password is unauthorized", func(t *testing.T) {
		w := e.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{
			Email:    "admin@firmone.com.au",
			Password: "nope",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("me returns the principal", func(t *testing.T) {
		w := e.do(t, http.MethodGet, "/api/auth/me", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		resp := decode[map[string]any](t, w)
		assert.Equal(t, "admin@firmone.com.au", resp["email"])
	})

	t.Run("missing token is unauthorized", func(t *testing.T) {
		w := e.do(t, http.MethodGet, "/api/auth/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("garbage token is unauthorized", func(t *testing.T) {
		w := e.do(t, http.MethodGet, "/api/auth/me", "garbage", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

// TestPurpose: Validates that a tenant id smuggled in a header is rejected on
// authenticated routes.
// Scope: HTTP Test
// Security: Tenant context is derived exclusively from the bearer token.
// Expected: 400 Bad Request when X-Tenant-ID is present.
func TestTenantHeaderRejected(t *testing.T) {
	e := newTestEnv(t)
	token, _ := e.registerFirm(t, "firmone.com.au")

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Tenant-ID", "some-other-tenant")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMatterEndpoints(t *testing.T) {
	e := newTestEnv(t)
	token, _ := e.registerFirm(t, "firmone.com.au")

	w := e.do(t, http.MethodPost, "/api/matters", token, CreateMatterRequest{
		Type:            "PURCHASE",
		PropertyAddress: "1 Example St",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[matter.Matter](t, w)
	assert.Equal(t, matter.StatusPending, created.Status)

	t.Run("list includes the matter", func(t *testing.T) {
		w := e.do(t, http.MethodGet, "/api/matters", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		matters := decode[[]matter.Matter](t, w)
		require.Len(t, matters, 1)
		assert.Equal(t, created.ID, matters[0].ID)
	})

	t.Run("status transition", func(t *testing.T) {
		w := e.do(t, http.MethodPut, "/api/matters/"+created.ID+"/status", token, UpdateMatterStatusRequest{Status: "IN_PROGRESS"})
		require.Equal(t, http.StatusOK, w.Code)
		updated := decode[matter.Matter](t, w)
		assert.Equal(t, matter.StatusInProgress, updated.Status)
	})

	t.Run("illegal transition is a bad request", func(t *testing.T) {
		w := e.do(t, http.MethodPut, "/api/matters/"+created.ID+"/status", token, UpdateMatterStatusRequest{Status: "PENDING"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("audit trail lists the history", func(t *testing.T) {
		w := e.do(t, http.MethodGet, "/api/matters/"+created.ID+"/audit", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		entries := decode[[]audit.Entry](t, w)
		require.Len(t, entries, 2)
		assert.Equal(t, audit.ActionCreateMatter, entries[0].Action)
		assert.Equal(t, audit.ActionUpdateMatterStatus, entries[1].Action)
	})

	t.Run("another firm cannot see the matter", func(t *testing.T) {
		otherToken, _ := e.registerFirm(t, "firmtwo.com.au")
		w := e.do(t, http.MethodGet, "/api/matters/"+created.ID, otherToken, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestContractEndpoint(t *testing.T) {
	e := newTestEnv(t)
	token, _ := e.registerFirm(t, "firmone.com.au")

	w := e.do(t, http.MethodPost, "/api/matters", token, CreateMatterRequest{
		Type:            "SALE",
		PropertyAddress: "2 Sample Rd",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	m := decode[matter.Matter](t, w)

	t.Run("missing fields", func(t *testing.T) {
		w := e.do(t, http.MethodPost, "/api/contracts", token, CreateContractRequest{MatterID: m.ID})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown matter leaves no side effects", func(t *testing.T) {
		before := e.registry.orderCount()
		w := e.do(t, http.MethodPost, "/api/contracts", token, CreateContractRequest{
			MatterID:        "no-such-matter",
			FolioIdentifier: "1/SP12345",
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, before, e.registry.orderCount())
	})

	t.Run("happy path creates document and audit entry", func(t *testing.T) {
		w := e.do(t, http.MethodPost, "/api/contracts", token, CreateContractRequest{
			MatterID:        m.ID,
			FolioIdentifier: "1/SP12345",
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		resp := decode[map[string]any](t, w)

		doc := resp["document"].(map[string]any)
		assert.Equal(t, string(hierarchy.CategoryContract), doc["category"])
		assert.Equal(t, string(hierarchy.SourceRegistry), doc["source"])
		assert.Contains(t, resp, "registry_response")

		aw := e.do(t, http.MethodGet, "/api/matters/"+m.ID+"/audit", token, nil)
		require.Equal(t, http.StatusOK, aw.Code)
		entries := decode[[]audit.Entry](t, aw)
		assert.Equal(t, audit.ActionCreateContract, entries[len(entries)-1].Action)
	})

	t.Run("snake_case aliases accepted", func(t *testing.T) {
		w := e.do(t, http.MethodPost, "/api/contracts", token, map[string]string{
			"matter_id":        m.ID,
			"folio_identifier": "1/SP12345",
		})
		assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	})

	t.Run("registry outage maps to internal error", func(t *testing.T) {
		e.registry.err = registry.ErrUnavailable
		defer func() { e.registry.err = nil }()

		w := e.do(t, http.MethodPost, "/api/contracts", token, CreateContractRequest{
			MatterID:        m.ID,
			FolioIdentifier: "1/SP12345",
		})
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("registry rejection maps to internal error", func(t *testing.T) {
		e.registry.err = registry.ErrRejected
		defer func() { e.registry.err = nil }()

		w := e.do(t, http.MethodPost, "/api/contracts", token, CreateContractRequest{
			MatterID:        m.ID,
			FolioIdentifier: "1/SP12345",
		})
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestTenantSettingsEndpoint(t *testing.T) {
	e := newTestEnv(t)
	adminToken, tenantID := e.registerFirm(t, "firmone.com.au")

	t.Run("admin updates settings", func(t *testing.T) {
		w := e.do(t, http.MethodPut, "/api/tenants/"+tenantID+"/settings", adminToken, tenant.Settings{
			Name:         "Firm One & Partners",
			PrimaryColor: "#112233",
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		updated := decode[tenant.Tenant](t, w)
		assert.Equal(t, "Firm One & Partners", updated.Name)
	})

	t.Run("foreign tenant id is forbidden", func(t *testing.T) {
		w := e.do(t, http.MethodPut, "/api/tenants/another-tenant/settings", adminToken, tenant.Settings{Name: "X"})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("conveyancer is forbidden", func(t *testing.T) {
		p, err := e.identity.CreatePrincipal(context.Background(), tenantID, "staff@firmone.com.au", "Staff", "pw12345", tenant.RoleConveyancer)
		require.NoError(t, err)
		staffToken, err := e.tokens.Issue(p)
		require.NoError(t, err)

		w := e.do(t, http.MethodPut, "/api/tenants/"+tenantID+"/settings", staffToken, tenant.Settings{Name: "X"})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestPrecedentFolderEndpoints(t *testing.T) {
	e := newTestEnv(t)
	token, _ := e.registerFirm(t, "firmone.com.au")

	w := e.do(t, http.MethodPost, "/api/precedents/folders", token, CreateFolderRequest{Name: "Leases"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	parent := decode[hierarchy.Folder](t, w)

	w = e.do(t, http.MethodPost, "/api/precedents/folders", token, CreateFolderRequest{Name: "Commercial", ParentID: &parent.ID})
	require.Equal(t, http.StatusCreated, w.Code)
	child := decode[hierarchy.Folder](t, w)

	t.Run("listing roots excludes children", func(t *testing.T) {
		w := e.do(t, http.MethodGet, "/api/precedents/folders", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		folders := decode[[]hierarchy.Folder](t, w)
		require.Len(t, folders, 1)
		assert.Equal(t, parent.ID, folders[0].ID)
	})

	t.Run("parentFolderId filter lists children", func(t *testing.T) {
		w := e.do(t, http.MethodGet, "/api/precedents/folders?parentFolderId="+parent.ID, token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		folders := decode[[]hierarchy.Folder](t, w)
		require.Len(t, folders, 1)
		assert.Equal(t, child.ID, folders[0].ID)
	})

	t.Run("parent_id alias filters the same way", func(t *testing.T) {
		w := e.do(t, http.MethodGet, "/api/precedents/folders?parent_id="+parent.ID, token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		folders := decode[[]hierarchy.Folder](t, w)
		require.Len(t, folders, 1)
		assert.Equal(t, child.ID, folders[0].ID)
	})

	t.Run("cyclic move conflicts", func(t *testing.T) {
		w := e.do(t, http.MethodPut, "/api/precedents/folders/"+parent.ID, token, MoveFolderRequest{ParentID: &child.ID})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("rename succeeds", func(t *testing.T) {
		w := e.do(t, http.MethodPut, "/api/precedents/folders/"+child.ID, token, MoveFolderRequest{Name: "Retail", ParentID: &parent.ID})
		require.Equal(t, http.StatusOK, w.Code)
		moved := decode[hierarchy.Folder](t, w)
		assert.Equal(t, "Retail", moved.Name)
	})
}

func TestDocumentUploadAndDownload(t *testing.T) {
	e := newTestEnv(t)
	token, _ := e.registerFirm(t, "firmone.com.au")

	w := e.do(t, http.MethodPost, "/api/matters", token, CreateMatterRequest{
		Type:            "PURCHASE",
		PropertyAddress: "3 Upload Ave",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	m := decode[matter.Matter](t, w)

	content := []byte("%PDF-1.4 pretend contract")
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "contract.pdf")
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("name", "Signed Contract"))
	require.NoError(t, mw.WriteField("category", "CONTRACT"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/matters/"+m.ID+"/documents", &buf)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	doc := decode[hierarchy.Item](t, rec)
	assert.Equal(t, "Signed Contract", doc.Name)
	assert.Equal(t, hierarchy.CategoryContract, doc.Category)

	t.Run("download returns the original bytes", func(t *testing.T) {
		w := e.do(t, http.MethodGet, "/api/documents/"+doc.ID+"/download", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, content, w.Body.Bytes())
	})

	t.Run("upload is audited", func(t *testing.T) {
		w := e.do(t, http.MethodGet, "/api/matters/"+m.ID+"/audit", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		entries := decode[[]audit.Entry](t, w)
		assert.Equal(t, audit.ActionUploadDocument, entries[len(entries)-1].Action)
	})

	t.Run("delete removes document and blob", func(t *testing.T) {
		w := e.do(t, http.MethodDelete, "/api/documents/"+doc.ID, token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		w = e.do(t, http.MethodGet, "/api/documents/"+doc.ID, token, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

// uploadItem posts a multipart file to an upload endpoint
func (e *testEnv) uploadItem(t *testing.T, path, token, name, category string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name+".pdf")
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("name", name))
	require.NoError(t, mw.WriteField("category", category))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// TestPurpose: Validates that the document and precedent surfaces cannot
// mutate each other's items.
// Scope: HTTP Test
// Security: Kind confusion between the two item surfaces
// Expected: Updating or deleting a precedent through the document routes (and
// vice versa) answers 404 and leaves the item untouched.
func TestItemKindGuards(t *testing.T) {
	e := newTestEnv(t)
	token, _ := e.registerFirm(t, "firmone.com.au")

	w := e.do(t, http.MethodPost, "/api/matters", token, CreateMatterRequest{
		Type:            "PURCHASE",
		PropertyAddress: "4 Guard St",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	m := decode[matter.Matter](t, w)

	w = e.uploadItem(t, "/api/matters/"+m.ID+"/documents", token, "Deed", "GENERAL", []byte("deed"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	doc := decode[hierarchy.Item](t, w)

	w = e.uploadItem(t, "/api/precedents", token, "Lease Template", "GENERAL", []byte("lease"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	prec := decode[hierarchy.Item](t, w)

	t.Run("document routes reject a precedent id", func(t *testing.T) {
		w := e.do(t, http.MethodPut, "/api/documents/"+prec.ID, token, UpdateItemRequest{Name: "Hijacked"})
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = e.do(t, http.MethodDelete, "/api/documents/"+prec.ID, token, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = e.do(t, http.MethodGet, "/api/precedents/"+prec.ID, token, nil)
		require.Equal(t, http.StatusOK, w.Code, "precedent must survive untouched")
		got := decode[hierarchy.Item](t, w)
		assert.Equal(t, "Lease Template", got.Name)
	})

	t.Run("precedent routes reject a document id", func(t *testing.T) {
		w := e.do(t, http.MethodPut, "/api/precedents/"+doc.ID, token, UpdateItemRequest{Name: "Hijacked"})
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = e.do(t, http.MethodDelete, "/api/precedents/"+doc.ID, token, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = e.do(t, http.MethodGet, "/api/documents/"+doc.ID, token, nil)
		require.Equal(t, http.StatusOK, w.Code, "document must survive untouched")
		got := decode[hierarchy.Item](t, w)
		assert.Equal(t, "Deed", got.Name)
	})
}

func TestRespondDomainError(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{tenant.ErrUnauthenticated, http.StatusUnauthorized},
		{tenant.ErrTenantMismatch, http.StatusForbidden},
		{tenant.ErrForbidden, http.StatusForbidden},
		{matter.ErrMatterNotFound, http.StatusNotFound},
		{hierarchy.ErrFolderNotFound, http.StatusNotFound},
		{hierarchy.ErrItemNotFound, http.StatusNotFound},
		{hierarchy.ErrInvalidHierarchy, http.StatusConflict},
		{hierarchy.ErrMissingMatter, http.StatusBadRequest},
		{matter.ErrInvalidTransition, http.StatusBadRequest},
		{registry.ErrRejected, http.StatusInternalServerError},
		{registry.ErrUnavailable, http.StatusInternalServerError},
		{registry.ErrAuthFailed, http.StatusInternalServerError},
		{hierarchy.ErrInconsistent, http.StatusInternalServerError},
		{errors.New("anything else"), http.StatusInternalServerError},
	}

	for _, c := range cases {
		w := httptest.NewRecorder()
		respondDomainError(w, c.err)
		assert.Equal(t, c.status, w.Code, "error %v", c.err)
	}
}
