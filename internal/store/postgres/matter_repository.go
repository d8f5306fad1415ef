package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/conveyai/conveyai/internal/matter"
	"github.com/jackc/pgx/v5"
)

// MatterRepository implements matter.Repository
type MatterRepository struct {
	db *DB
}

// NewMatterRepository creates a new matter repository
func NewMatterRepository(db *DB) *MatterRepository {
	return &MatterRepository{db: db}
}

// Create creates a new matter
func (r *MatterRepository) Create(ctx context.Context, m *matter.Matter) error {
	_, err := r.db.q(ctx).Exec(ctx, `
		INSERT INTO matters (id, tenant_id, conveyancer_id, matter_type, status, property_address,
			buyer_client_id, seller_client_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		m.ID, m.TenantID, m.ConveyancerID, m.Type, m.Status, m.PropertyAddress,
		m.BuyerClientID, m.SellerClientID, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create matter: %w", err)
	}
	return nil
}

// GetByID retrieves a matter by ID within a tenant. Cross-tenant ids behave
// exactly like missing ones.
func (r *MatterRepository) GetByID(ctx context.Context, tenantID, id string) (*matter.Matter, error) {
	var m matter.Matter
	err := r.db.q(ctx).QueryRow(ctx, `
		SELECT id, tenant_id, conveyancer_id, matter_type, status, property_address,
			buyer_client_id, seller_client_id, created_at, updated_at
		FROM matters
		WHERE tenant_id = $1 AND id = $2
	`, tenantID, id).Scan(
		&m.ID, &m.TenantID, &m.ConveyancerID, &m.Type, &m.Status, &m.PropertyAddress,
		&m.BuyerClientID, &m.SellerClientID, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, matter.ErrMatterNotFound
		}
		return nil, fmt.Errorf("failed to get matter: %w", err)
	}
	return &m, nil
}

// List lists a tenant's matters, newest first
func (r *MatterRepository) List(ctx context.Context, tenantID string) ([]*matter.Matter, error) {
	rows, err := r.db.q(ctx).Query(ctx, `
		SELECT id, tenant_id, conveyancer_id, matter_type, status, property_address,
			buyer_client_id, seller_client_id, created_at, updated_at
		FROM matters
		WHERE tenant_id = $1
		ORDER BY created_at DESC
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matters: %w", err)
	}
	defer rows.Close()

	var matters []*matter.Matter
	for rows.Next() {
		var m matter.Matter
		if err := rows.Scan(
			&m.ID, &m.TenantID, &m.ConveyancerID, &m.Type, &m.Status, &m.PropertyAddress,
			&m.BuyerClientID, &m.SellerClientID, &m.CreatedAt, &m.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan matter: %w", err)
		}
		matters = append(matters, &m)
	}
	return matters, rows.Err()
}

// UpdateStatus moves a matter to a new status
func (r *MatterRepository) UpdateStatus(ctx context.Context, tenantID, id string, status matter.Status, updatedAt time.Time) error {
	result, err := r.db.q(ctx).Exec(ctx, `
		UPDATE matters SET status = $3, updated_at = $4
		WHERE tenant_id = $1 AND id = $2
	`, tenantID, id, status, updatedAt)
	if err != nil {
		return fmt.Errorf("failed to update matter status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return matter.ErrMatterNotFound
	}
	return nil
}
