package hierarchy

import (
	"context"
)

// FolderRepository defines the interface for folder storage. Every lookup is
// tenant scoped: an id owned by another tenant behaves exactly like a
// missing one, so callers cannot probe for foreign data.
type FolderRepository interface {
	Create(ctx context.Context, f *Folder) error
	GetByID(ctx context.Context, tenantID, id string) (*Folder, error)
	// List returns folders of one kind under a parent (nil parentID means
	// roots), ordered by name ascending, case-sensitive.
	List(ctx context.Context, tenantID string, kind Kind, parentID, matterID *string) ([]*Folder, error)
	Update(ctx context.Context, f *Folder) error
}

// ItemRepository defines the interface for item storage
type ItemRepository interface {
	Create(ctx context.Context, item *Item) error
	GetByID(ctx context.Context, tenantID, id string) (*Item, error)
	// List returns items of one kind in a folder (nil folderID means the
	// root of the tree), ordered by name ascending.
	List(ctx context.Context, tenantID string, kind Kind, folderID, matterID *string) ([]*Item, error)
	Update(ctx context.Context, item *Item) error
	Delete(ctx context.Context, tenantID, id string) error
}
