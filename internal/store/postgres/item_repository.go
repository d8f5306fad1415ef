package postgres

import (
	"context"
	"fmt"

	"github.com/conveyai/conveyai/internal/hierarchy"
	"github.com/jackc/pgx/v5"
)

// ItemRepository implements hierarchy.ItemRepository
type ItemRepository struct {
	db *DB
}

// NewItemRepository creates a new item repository
func NewItemRepository(db *DB) *ItemRepository {
	return &ItemRepository{db: db}
}

const itemColumns = `id, tenant_id, kind, name, description, category, folder_id, matter_id,
	source, file_path, file_name, file_type, file_extension, file_size, mime_type, content,
	uploaded_by, uploaded_at, updated_at`

func scanItem(row pgx.Row) (*hierarchy.Item, error) {
	var item hierarchy.Item
	err := row.Scan(
		&item.ID, &item.TenantID, &item.Kind, &item.Name, &item.Description, &item.Category,
		&item.FolderID, &item.MatterID, &item.Source, &item.FilePath, &item.FileName,
		&item.FileType, &item.FileExtension, &item.FileSize, &item.MimeType, &item.Content,
		&item.UploadedBy, &item.UploadedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Create creates a new item
func (r *ItemRepository) Create(ctx context.Context, item *hierarchy.Item) error {
	_, err := r.db.q(ctx).Exec(ctx, `
		INSERT INTO items (`+itemColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`,
		item.ID, item.TenantID, item.Kind, item.Name, item.Description, item.Category,
		item.FolderID, item.MatterID, item.Source, item.FilePath, item.FileName,
		item.FileType, item.FileExtension, item.FileSize, item.MimeType, item.Content,
		item.UploadedBy, item.UploadedAt, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}
	return nil
}

// GetByID retrieves an item by ID within a tenant
func (r *ItemRepository) GetByID(ctx context.Context, tenantID, id string) (*hierarchy.Item, error) {
	item, err := scanItem(r.db.q(ctx).QueryRow(ctx, `
		SELECT `+itemColumns+` FROM items
		WHERE tenant_id = $1 AND id = $2
	`, tenantID, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, hierarchy.ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

// List lists items of one kind in a folder, name ascending
func (r *ItemRepository) List(ctx context.Context, tenantID string, kind hierarchy.Kind, folderID, matterID *string) ([]*hierarchy.Item, error) {
	rows, err := r.db.q(ctx).Query(ctx, `
		SELECT `+itemColumns+` FROM items
		WHERE tenant_id = $1 AND kind = $2
			AND folder_id IS NOT DISTINCT FROM $3
			AND ($4::text IS NULL OR matter_id = $4)
		ORDER BY name ASC
	`, tenantID, kind, folderID, matterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var items []*hierarchy.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Update updates an item's metadata
func (r *ItemRepository) Update(ctx context.Context, item *hierarchy.Item) error {
	result, err := r.db.q(ctx).Exec(ctx, `
		UPDATE items SET name = $3, description = $4, category = $5, content = $6, updated_at = $7
		WHERE tenant_id = $1 AND id = $2
	`, item.TenantID, item.ID, item.Name, item.Description, item.Category, item.Content, item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	if result.RowsAffected() == 0 {
		return hierarchy.ErrItemNotFound
	}
	return nil
}

// Delete removes an item record
func (r *ItemRepository) Delete(ctx context.Context, tenantID, id string) error {
	result, err := r.db.q(ctx).Exec(ctx, `
		DELETE FROM items WHERE tenant_id = $1 AND id = $2
	`, tenantID, id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	if result.RowsAffected() == 0 {
		return hierarchy.ErrItemNotFound
	}
	return nil
}
