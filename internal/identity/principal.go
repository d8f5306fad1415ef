package identity

import (
	"context"
	"errors"
	"time"

	"github.com/conveyai/conveyai/internal/tenant"
)

var (
	ErrPrincipalNotFound  = errors.New("principal not found")
	ErrPrincipalExists    = errors.New("principal already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Principal is a conveyancer or firm admin. A principal belongs to exactly
// one tenant and is never transferred across tenants.
type Principal struct {
	ID           string      `json:"id"`
	TenantID     string      `json:"tenant_id"`
	Email        string      `json:"email"`
	Name         string      `json:"name"`
	Role         tenant.Role `json:"role"`
	PasswordHash string      `json:"-"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Repository defines the interface for principal storage
type Repository interface {
	Create(ctx context.Context, p *Principal) error
	GetByID(ctx context.Context, id string) (*Principal, error)
	GetByEmail(ctx context.Context, tenantID, email string) (*Principal, error)
}
