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
	"testing"
	"time"

	"github.com/conveyai/conveyai/internal/audit"
	"github.com/conveyai/conveyai/internal/tenant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	matters map[string]*Matter
}

func newMemRepo() *memRepo {
	return &memRepo{matters: map[string]*Matter{}}
}

func (r *memRepo) Create(ctx context.Context, m *Matter) error {
	cp := *m
	r.matters[m.ID] = &cp
	return nil
}

func (r *memRepo) GetByID(ctx context.Context, tenantID, id string) (*Matter, error) {
	m, ok := r.matters[id]
	if !ok || m.TenantID != tenantID {
		return nil, ErrMatterNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *memRepo) List(ctx context.Context, tenantID string) ([]*Matter, error) {
	var out []*Matter
	for _, m := range r.matters {
		if m.TenantID == tenantID {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memRepo) UpdateStatus(ctx context.Context, tenantID, id string, status Status, updatedAt time.Time) error {
	m, ok := r.matters[id]
	if !ok || m.TenantID != tenantID {
		return ErrMatterNotFound
	}
	m.Status = status
	m.UpdatedAt = updatedAt
	return nil
}

type trailStub struct {
	actions []audit.Action
}

func (t *trailStub) Record(ctx context.Context, tc tenant.Context, matterID string, action audit.Action, details audit.Details) (*audit.Entry, error) {
	t.actions = append(t.actions, action)
	return &audit.Entry{Action: action}, nil
}

type passUOW struct{}

func (passUOW) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestService() (*Service, *memRepo, *trailStub) {
	repo := newMemRepo()
	trail := &trailStub{}
	return NewService(repo, trail, passUOW{}), repo, trail
}

func matterCtx(t *testing.T, tenantID string) tenant.Context {
	t.Helper()
	tc, err := tenant.NewContext(tenantID, "principal-1", tenant.RoleConveyancer)
	require.NoError(t, err)
	return tc
}

func TestCreateMatter(t *testing.T) {
	svc, _, trail := newTestService()
	tc := matterCtx(t, "tenant-1")

	m, err := svc.CreateMatter(context.Background(), tc, TypePurchase, "1 Example St", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, StatusPending, m.Status)
	assert.Equal(t, "tenant-1", m.TenantID)
	assert.Equal(t, tc.PrincipalID(), m.ConveyancerID)
	require.Len(t, trail.actions, 1)
	assert.Equal(t, audit.ActionCreateMatter, trail.actions[0])

	t.Run("invalid type", func(t *testing.T) {
		_, err := svc.CreateMatter(context.Background(), tc, "LITIGATION", "1 Example St", nil, nil)
		assert.Error(t, err)
	})

	t.Run("missing address", func(t *testing.T) {
		_, err := svc.CreateMatter(context.Background(), tc, TypeSale, "", nil, nil)
		assert.Error(t, err)
	})
}

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusPending, StatusInProgress, true},
		{StatusInProgress, StatusCompleted, true},
		{StatusPending, StatusCompleted, false},
		{StatusCompleted, StatusInProgress, false},
		{StatusPending, StatusArchived, true},
		{StatusInProgress, StatusArchived, true},
		{StatusCompleted, StatusArchived, true},
		{StatusArchived, StatusArchived, false},
		{StatusArchived, StatusPending, false},
	}

	for _, c := range cases {
		assert.Equal(t, c.allowed, c.from.CanTransition(c.to), "%s -> %s", c.from, c.to)
	}
}

func TestTransitionStatus(t *testing.T) {
	svc, _, trail := newTestService()
	tc := matterCtx(t, "tenant-1")
	ctx := context.Background()

	m, err := svc.CreateMatter(ctx, tc, TypeSale, "2 Sample Rd", nil, nil)
	require.NoError(t, err)

	t.Run("legal transition is audited", func(t *testing.T) {
		updated, err := svc.TransitionStatus(ctx, tc, m.ID, StatusInProgress)
		require.NoError(t, err)
		assert.Equal(t, StatusInProgress, updated.Status)
		assert.Equal(t, audit.ActionUpdateMatterStatus, trail.actions[len(trail.actions)-1])
	})

	t.Run("illegal transition is rejected", func(t *testing.T) {
		_, err := svc.TransitionStatus(ctx, tc, m.ID, StatusPending)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("archiving records its own action", func(t *testing.T) {
		updated, err := svc.TransitionStatus(ctx, tc, m.ID, StatusArchived)
		require.NoError(t, err)
		assert.Equal(t, StatusArchived, updated.Status)
		assert.Equal(t, audit.ActionArchiveMatter, trail.actions[len(trail.actions)-1])
	})

	t.Run("archive is terminal", func(t *testing.T) {
		_, err := svc.TransitionStatus(ctx, tc, m.ID, StatusInProgress)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestMatter_TenantIsolation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	m, err := svc.CreateMatter(ctx, matterCtx(t, "tenant-1"), TypeSale, "3 Hidden Ln", nil, nil)
	require.NoError(t, err)

	other := matterCtx(t, "tenant-2")

	_, err = svc.GetMatter(ctx, other, m.ID)
	assert.ErrorIs(t, err, ErrMatterNotFound)

	_, err = svc.TransitionStatus(ctx, other, m.ID, StatusInProgress)
	assert.ErrorIs(t, err, ErrMatterNotFound)

	matters, err := svc.ListMatters(ctx, other)
	require.NoError(t, err)
	assert.Empty(t, matters)
}
