package postgres

import (
	"context"
	"fmt"

	"github.com/conveyai/conveyai/internal/hierarchy"
	"github.com/jackc/pgx/v5"
)

// FolderRepository implements hierarchy.FolderRepository
type FolderRepository struct {
	db *DB
}

// NewFolderRepository creates a new folder repository
func NewFolderRepository(db *DB) *FolderRepository {
	return &FolderRepository{db: db}
}

// Create creates a new folder
func (r *FolderRepository) Create(ctx context.Context, f *hierarchy.Folder) error {
	_, err := r.db.q(ctx).Exec(ctx, `
		INSERT INTO folders (id, tenant_id, kind, name, parent_folder_id, matter_id, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		f.ID, f.TenantID, f.Kind, f.Name, f.ParentID, f.MatterID, f.CreatedBy, f.CreatedAt, f.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create folder: %w", err)
	}
	return nil
}

// GetByID retrieves a folder by ID within a tenant
func (r *FolderRepository) GetByID(ctx context.Context, tenantID, id string) (*hierarchy.Folder, error) {
	var f hierarchy.Folder
	err := r.db.q(ctx).QueryRow(ctx, `
		SELECT id, tenant_id, kind, name, parent_folder_id, matter_id, created_by, created_at, updated_at
		FROM folders
		WHERE tenant_id = $1 AND id = $2
	`, tenantID, id).Scan(
		&f.ID, &f.TenantID, &f.Kind, &f.Name, &f.ParentID, &f.MatterID, &f.CreatedBy, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, hierarchy.ErrFolderNotFound
		}
		return nil, fmt.Errorf("failed to get folder: %w", err)
	}
	return &f, nil
}

// List lists folders of one kind under a parent, name ascending
func (r *FolderRepository) List(ctx context.Context, tenantID string, kind hierarchy.Kind, parentID, matterID *string) ([]*hierarchy.Folder, error) {
	rows, err := r.db.q(ctx).Query(ctx, `
		SELECT id, tenant_id, kind, name, parent_folder_id, matter_id, created_by, created_at, updated_at
		FROM folders
		WHERE tenant_id = $1 AND kind = $2
			AND parent_folder_id IS NOT DISTINCT FROM $3
			AND matter_id IS NOT DISTINCT FROM $4
		ORDER BY name ASC
	`, tenantID, kind, parentID, matterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}
	defer rows.Close()

	var folders []*hierarchy.Folder
	for rows.Next() {
		var f hierarchy.Folder
		if err := rows.Scan(
			&f.ID, &f.TenantID, &f.Kind, &f.Name, &f.ParentID, &f.MatterID, &f.CreatedBy, &f.CreatedAt, &f.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan folder: %w", err)
		}
		folders = append(folders, &f)
	}
	return folders, rows.Err()
}

// Update updates a folder's name and parent
func (r *FolderRepository) Update(ctx context.Context, f *hierarchy.Folder) error {
	result, err := r.db.q(ctx).Exec(ctx, `
		UPDATE folders SET name = $3, parent_folder_id = $4, updated_at = $5
		WHERE tenant_id = $1 AND id = $2
	`, f.TenantID, f.ID, f.Name, f.ParentID, f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update folder: %w", err)
	}
	if result.RowsAffected() == 0 {
		return hierarchy.ErrFolderNotFound
	}
	return nil
}
