package postgres

import (
	"context"
	"fmt"

	"github.com/conveyai/conveyai/internal/identity"
	"github.com/jackc/pgx/v5"
)

// PrincipalRepository implements identity.Repository
type PrincipalRepository struct {
	db *DB
}

// NewPrincipalRepository creates a new principal repository
func NewPrincipalRepository(db *DB) *PrincipalRepository {
	return &PrincipalRepository{db: db}
}

// Create creates a new principal
func (r *PrincipalRepository) Create(ctx context.Context, p *identity.Principal) error {
	_, err := r.db.q(ctx).Exec(ctx, `
		INSERT INTO principals (id, tenant_id, email, name, role, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		p.ID, p.TenantID, p.Email, p.Name, p.Role, p.PasswordHash, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create principal: %w", err)
	}
	return nil
}

// GetByID retrieves a principal by ID
func (r *PrincipalRepository) GetByID(ctx context.Context, id string) (*identity.Principal, error) {
	return r.get(ctx, `WHERE id = $1`, id)
}

// GetByEmail retrieves a principal by email within a tenant
func (r *PrincipalRepository) GetByEmail(ctx context.Context, tenantID, email string) (*identity.Principal, error) {
	return r.get(ctx, `WHERE tenant_id = $1 AND email = $2`, tenantID, email)
}

func (r *PrincipalRepository) get(ctx context.Context, where string, args ...any) (*identity.Principal, error) {
	var p identity.Principal
	err := r.db.q(ctx).QueryRow(ctx, `
		SELECT id, tenant_id, email, name, role, password_hash, created_at, updated_at
		FROM principals `+where,
		args...,
	).Scan(&p.ID, &p.TenantID, &p.Email, &p.Name, &p.Role, &p.PasswordHash, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, identity.ErrPrincipalNotFound
		}
		return nil, fmt.Errorf("failed to get principal: %w", err)
	}
	return &p, nil
}
