package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/conveyai/conveyai/internal/audit"
)

// AuditRepository implements audit.Repository. Entries are append-only:
// this repository deliberately exposes no update or delete.
type AuditRepository struct {
	db *DB
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Insert appends an entry. When ctx carries a transaction the entry shares
// its durability unit with the mutation being audited.
func (r *AuditRepository) Insert(ctx context.Context, entry *audit.Entry) error {
	details, err := entry.Details.JSON()
	if err != nil {
		return fmt.Errorf("failed to encode audit details: %w", err)
	}

	_, err = r.db.q(ctx).Exec(ctx, `
		INSERT INTO matter_audit_log (id, tenant_id, matter_id, principal_id, action, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		entry.ID, entry.TenantID, entry.MatterID, entry.PrincipalID, entry.Action, details, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

// ListByMatter returns the trail for a matter, oldest first
func (r *AuditRepository) ListByMatter(ctx context.Context, tenantID, matterID string) ([]*audit.Entry, error) {
	rows, err := r.db.q(ctx).Query(ctx, `
		SELECT id, tenant_id, matter_id, principal_id, action, details, created_at
		FROM matter_audit_log
		WHERE tenant_id = $1 AND matter_id = $2
		ORDER BY created_at ASC
	`, tenantID, matterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*audit.Entry
	for rows.Next() {
		var entry audit.Entry
		var details []byte
		if err := rows.Scan(
			&entry.ID, &entry.TenantID, &entry.MatterID, &entry.PrincipalID,
			&entry.Action, &details, &entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &entry.Details); err != nil {
				return nil, fmt.Errorf("failed to decode audit details: %w", err)
			}
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}
