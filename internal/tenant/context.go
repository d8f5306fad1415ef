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

import "errors"

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrTenantMismatch  = errors.New("tenant mismatch")
	ErrTenantNotFound  = errors.New("tenant not found")
)

// Context is the resolved identity of an authenticated request. It is built
// once by the resolver and passed explicitly to every downstream operation;
// no component reads the current tenant from ambient state.
type Context struct {
	tenantID    string
	principalID string
	role        Role
}

// NewContext builds an immutable tenant context.
func NewContext(tenantID, principalID string, role Role) (Context, error) {
	if tenantID == "" || principalID == "" {
		return Context{}, ErrUnauthenticated
	}
	return Context{tenantID: tenantID, principalID: principalID, role: role}, nil
}

// TenantID returns the tenant the request acts on behalf of.
func (c Context) TenantID() string { return c.tenantID }

// PrincipalID returns the authenticated principal.
func (c Context) PrincipalID() string { return c.principalID }

// Role returns the principal's role.
func (c Context) Role() Role { return c.role }

// CheckTenant compares a tenant id taken from a request path against the
// context. A mismatch is reported as ErrTenantMismatch; this is the only
// place where the caller learns that a foreign tenant id was supplied.
func (c Context) CheckTenant(tenantID string) error {
	if tenantID != c.tenantID {
		return ErrTenantMismatch
	}
	return nil
}
