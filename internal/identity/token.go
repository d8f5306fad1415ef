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
	"fmt"
	"time"

	"github.com/conveyai/conveyai/internal/tenant"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carried inside a bearer token.
type Claims struct {
	TenantID string `json:"tenant_id"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and resolves signed bearer tokens. Resolve is the tenant
// context resolver: it is the single place that turns a credential into an
// immutable tenant.Context.
type TokenIssuer struct {
	secret   []byte
	lifetime time.Duration
}

// NewTokenIssuer creates a token issuer using HMAC-SHA256 signing
func NewTokenIssuer(secret string, lifetime time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), lifetime: lifetime}
}

// Issue mints a bearer token for an authenticated principal
func (i *TokenIssuer) Issue(p *Principal) (string, error) {
	now := time.Now()
	claims := Claims{
		TenantID: p.TenantID,
		Role:     string(p.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.lifetime)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Resolve validates a bearer token and produces the tenant context for the
// request. Any parse or validation failure maps to ErrUnauthenticated; the
// caller learns nothing about why the credential was rejected.
func (i *TokenIssuer) Resolve(tokenString string) (tenant.Context, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil || !token.Valid {
		return tenant.Context{}, tenant.ErrUnauthenticated
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return tenant.Context{}, tenant.ErrUnauthenticated
	}

	return tenant.NewContext(claims.TenantID, claims.Subject, tenant.Role(claims.Role))
}
