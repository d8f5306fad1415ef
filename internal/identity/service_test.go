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
	"strings"
	"testing"
	"time"

	"github.com/conveyai/conveyai/internal/tenant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memPrincipalRepo struct {
	principals map[string]*Principal
}

func newMemPrincipalRepo() *memPrincipalRepo {
	return &memPrincipalRepo{principals: map[string]*Principal{}}
}

func (r *memPrincipalRepo) Create(ctx context.Context, p *Principal) error {
	cp := *p
	r.principals[p.ID] = &cp
	return nil
}

func (r *memPrincipalRepo) GetByID(ctx context.Context, id string) (*Principal, error) {
	p, ok := r.principals[id]
	if !ok {
		return nil, ErrPrincipalNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memPrincipalRepo) GetByEmail(ctx context.Context, tenantID, email string) (*Principal, error) {
	for _, p := range r.principals {
		if p.TenantID == tenantID && p.Email == email {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrPrincipalNotFound
}

type memTenantRepo struct {
	tenants map[string]*tenant.Tenant
}

func (r *memTenantRepo) Create(ctx context.Context, t *tenant.Tenant) error {
	r.tenants[t.ID] = t
	return nil
}

func (r *memTenantRepo) GetByID(ctx context.Context, id string) (*tenant.Tenant, error) {
	t, ok := r.tenants[id]
	if !ok {
		return nil, tenant.ErrTenantNotFound
	}
	return t, nil
}

func (r *memTenantRepo) GetByDomain(ctx context.Context, domain string) (*tenant.Tenant, error) {
	for _, t := range r.tenants {
		if t.Domain == domain {
			return t, nil
		}
	}
	return nil, tenant.ErrTenantNotFound
}

func (r *memTenantRepo) Update(ctx context.Context, t *tenant.Tenant) error {
	r.tenants[t.ID] = t
	return nil
}

func testHasher() *PasswordHasher {
	// Minimal parameters keep the test suite fast
	return NewPasswordHasher(8192, 1, 1, 16, 32)
}

func newIdentityService() (*Service, *memTenantRepo) {
	tenants := &memTenantRepo{tenants: map[string]*tenant.Tenant{
		"tenant-1": {ID: "tenant-1", Name: "Smith Conveyancing", Domain: "smithconvey.com.au"},
	}}
	return NewService(newMemPrincipalRepo(), tenants, testHasher()), tenants
}

func TestPasswordHasher_RoundTrip(t *testing.T) {
	h := testHasher()

	hash, err := h.Hash("correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))

	ok, err := h.Verify("correct horse battery staple", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify("wrong password", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPasswordHasher_UniqueSalts(t *testing.T) {
	h := testHasher()
	a, err := h.Hash("same password")
	require.NoError(t, err)
	b, err := h.Hash("same password")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestCreatePrincipal(t *testing.T) {
	svc, _ := newIdentityService()
	ctx := context.Background()

	p, err := svc.CreatePrincipal(ctx, "tenant-1", "Jo@SmithConvey.com.au", "Jo Smith", "pass123", tenant.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, "jo@smithconvey.com.au", p.Email, "email is normalized")
	assert.NotEqual(t, "pass123", p.PasswordHash)

	t.Run("duplicate email", func(t *testing.T) {
		_, err := svc.CreatePrincipal(ctx, "tenant-1", "jo@smithconvey.com.au", "Jo", "x", tenant.RoleConveyancer)
		assert.ErrorIs(t, err, ErrPrincipalExists)
	})

	t.Run("invalid email", func(t *testing.T) {
		_, err := svc.CreatePrincipal(ctx, "tenant-1", "not-an-email", "X", "x", tenant.RoleAdmin)
		assert.Error(t, err)
	})

	t.Run("invalid role", func(t *testing.T) {
		_, err := svc.CreatePrincipal(ctx, "tenant-1", "a@smithconvey.com.au", "A", "x", "SUPERUSER")
		assert.Error(t, err)
	})
}

func TestAuthenticate(t *testing.T) {
	svc, _ := newIdentityService()
	ctx := context.Background()

	_, err := svc.CreatePrincipal(ctx, "tenant-1", "jo@smithconvey.com.au", "Jo Smith", "hunter2!", tenant.RoleConveyancer)
	require.NoError(t, err)

	t.Run("valid credentials", func(t *testing.T) {
		p, err := svc.Authenticate(ctx, "jo@smithconvey.com.au", "hunter2!")
		require.NoError(t, err)
		assert.Equal(t, "tenant-1", p.TenantID)
	})

	// All failure modes collapse to one error so a caller cannot probe for
	// registered emails or firm domains.
	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "jo@smithconvey.com.au", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "nobody@smithconvey.com.au", "hunter2!")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown domain", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "jo@unknownfirm.com.au", "hunter2!")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestGetPrincipal_TenantScoped(t *testing.T) {
	svc, tenants := newIdentityService()
	ctx := context.Background()
	tenants.tenants["tenant-2"] = &tenant.Tenant{ID: "tenant-2", Domain: "otherfirm.com.au"}

	p, err := svc.CreatePrincipal(ctx, "tenant-1", "jo@smithconvey.com.au", "Jo", "x1y2z3", tenant.RoleAdmin)
	require.NoError(t, err)

	tc1, err := tenant.NewContext("tenant-1", p.ID, tenant.RoleAdmin)
	require.NoError(t, err)
	got, err := svc.GetPrincipal(ctx, tc1, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	tc2, err := tenant.NewContext("tenant-2", "someone-else", tenant.RoleAdmin)
	require.NoError(t, err)
	_, err = svc.GetPrincipal(ctx, tc2, p.ID)
	assert.ErrorIs(t, err, ErrPrincipalNotFound)
}

func TestTokenIssuer(t *testing.T) {
	issuer := NewTokenIssuer("test-secret-at-least-32-bytes-long!", time.Hour)
	p := &Principal{ID: "principal-1", TenantID: "tenant-1", Role: tenant.RoleConveyancer}

	token, err := issuer.Issue(p)
	require.NoError(t, err)

	t.Run("valid token resolves to a tenant context", func(t *testing.T) {
		tc, err := issuer.Resolve(token)
		require.NoError(t, err)
		assert.Equal(t, "tenant-1", tc.TenantID())
		assert.Equal(t, "principal-1", tc.PrincipalID())
		assert.Equal(t, tenant.RoleConveyancer, tc.Role())
	})

	t.Run("tampered token is rejected", func(t *testing.T) {
		_, err := issuer.Resolve(token + "x")
		assert.ErrorIs(t, err, tenant.ErrUnauthenticated)
	})

	t.Run("wrong secret is rejected", func(t *testing.T) {
		other := NewTokenIssuer("a-completely-different-secret-value", time.Hour)
		_, err := other.Resolve(token)
		assert.ErrorIs(t, err, tenant.ErrUnauthenticated)
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		shortLived := NewTokenIssuer("test-secret-at-least-32-bytes-long!", -time.Minute)
		expired, err := shortLived.Issue(p)
		require.NoError(t, err)
		_, err = issuer.Resolve(expired)
		assert.ErrorIs(t, err, tenant.ErrUnauthenticated)
	})

	t.Run("garbage is rejected", func(t *testing.T) {
		_, err := issuer.Resolve("not.a.jwt")
		assert.ErrorIs(t, err, tenant.ErrUnauthenticated)
	})
}
