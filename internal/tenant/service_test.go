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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	tenants map[string]*Tenant
}

func newMemRepo() *memRepo {
	return &memRepo{tenants: map[string]*Tenant{}}
}

func (r *memRepo) Create(ctx context.Context, t *Tenant) error {
	cp := *t
	r.tenants[t.ID] = &cp
	return nil
}

func (r *memRepo) GetByID(ctx context.Context, id string) (*Tenant, error) {
	t, ok := r.tenants[id]
	if !ok {
		return nil, ErrTenantNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *memRepo) GetByDomain(ctx context.Context, domain string) (*Tenant, error) {
	for _, t := range r.tenants {
		if t.Domain == domain {
			cp := *t
			return &cp, nil
		}
	}
	return nil, ErrTenantNotFound
}

func (r *memRepo) Update(ctx context.Context, t *Tenant) error {
	if _, ok := r.tenants[t.ID]; !ok {
		return ErrTenantNotFound
	}
	cp := *t
	r.tenants[t.ID] = &cp
	return nil
}

func TestContext(t *testing.T) {
	t.Run("requires tenant and principal", func(t *testing.T) {
		_, err := NewContext("", "principal-1", RoleAdmin)
		assert.ErrorIs(t, err, ErrUnauthenticated)

		_, err = NewContext("tenant-1", "", RoleAdmin)
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("check tenant", func(t *testing.T) {
		tc, err := NewContext("tenant-1", "principal-1", RoleAdmin)
		require.NoError(t, err)

		assert.NoError(t, tc.CheckTenant("tenant-1"))
		assert.ErrorIs(t, tc.CheckTenant("tenant-2"), ErrTenantMismatch)
	})
}

func TestCreateTenant(t *testing.T) {
	svc := NewService(newMemRepo())
	ctx := context.Background()

	created, err := svc.CreateTenant(ctx, "Smith Conveyancing", "SmithConvey.com.au")
	require.NoError(t, err)
	assert.Equal(t, "smithconvey.com.au", created.Domain, "domain is lowercased")
	assert.NotEmpty(t, created.ID)

	t.Run("duplicate domain", func(t *testing.T) {
		_, err := svc.CreateTenant(ctx, "Another Firm", "smithconvey.com.au")
		assert.Error(t, err)
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := svc.CreateTenant(ctx, "", "x.com")
		assert.Error(t, err)
		_, err = svc.CreateTenant(ctx, "Firm", "")
		assert.Error(t, err)
	})
}

// TestPurpose: Validates authorization rules for firm settings.
// Scope: Unit Test
// Security: Tenant mismatch and role enforcement on settings mutation
// Expected: Mismatched tenant id and non-admin roles are both refused.
func TestUpdateSettings(t *testing.T) {
	svc := NewService(newMemRepo())
	ctx := context.Background()

	created, err := svc.CreateTenant(ctx, "Smith Conveyancing", "smithconvey.com.au")
	require.NoError(t, err)

	admin, err := NewContext(created.ID, "principal-1", RoleAdmin)
	require.NoError(t, err)

	t.Run("admin updates settings", func(t *testing.T) {
		updated, err := svc.UpdateSettings(ctx, admin, created.ID, Settings{
			Name:         "Smith & Partners",
			PrimaryColor: "#0a0a5a",
		})
		require.NoError(t, err)
		assert.Equal(t, "Smith & Partners", updated.Name)
		assert.Equal(t, "#0a0a5a", updated.PrimaryColor)
		assert.Equal(t, "smithconvey.com.au", updated.Domain, "domain is immutable")
	})

	t.Run("partial update leaves other fields", func(t *testing.T) {
		updated, err := svc.UpdateSettings(ctx, admin, created.ID, Settings{
			LogoPath: "/logos/smith.png",
		})
		require.NoError(t, err)
		assert.Equal(t, "Smith & Partners", updated.Name)
		assert.Equal(t, "/logos/smith.png", updated.LogoPath)
	})

	t.Run("tenant mismatch is forbidden", func(t *testing.T) {
		_, err := svc.UpdateSettings(ctx, admin, "some-other-tenant", Settings{Name: "X"})
		assert.ErrorIs(t, err, ErrTenantMismatch)
	})

	t.Run("conveyancer cannot change settings", func(t *testing.T) {
		conveyancer, err := NewContext(created.ID, "principal-2", RoleConveyancer)
		require.NoError(t, err)
		_, err = svc.UpdateSettings(ctx, conveyancer, created.ID, Settings{Name: "X"})
		assert.ErrorIs(t, err, ErrForbidden)
	})
}
