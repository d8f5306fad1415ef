// Package hierarchy implements the tenant-scoped tree of folders and leaf
// items. Document folders and items are additionally scoped to one matter;
// precedent folders and items are tenant-global.
package hierarchy

import (
	"errors"
	"path/filepath"
	"strings"
	"time"
)

var (
	ErrFolderNotFound   = errors.New("folder not found")
	ErrItemNotFound     = errors.New("item not found")
	ErrInvalidHierarchy = errors.New("invalid folder hierarchy")
	ErrInconsistent     = errors.New("storage inconsistency detected")
	ErrMissingMatter    = errors.New("document hierarchy requires a matter")
	ErrUnexpectedScope  = errors.New("precedent hierarchy is tenant-global")
	ErrNameRequired     = errors.New("name is required")
	ErrContentRequired  = errors.New("file content is required")
	ErrInvalidCategory  = errors.New("invalid category")
)

// Kind separates the two folder/item trees
type Kind string

const (
	KindDocument  Kind = "DOCUMENT"
	KindPrecedent Kind = "PRECEDENT"
)

// Category is the closed set of item classifications
type Category string

const (
	CategoryGeneral     Category = "GENERAL"
	CategoryContract    Category = "CONTRACT"
	CategoryTitleSearch Category = "TITLE_SEARCH"
	CategoryAgreement   Category = "AGREEMENT"
)

// Valid reports whether c is a known category
func (c Category) Valid() bool {
	switch c {
	case CategoryGeneral, CategoryContract, CategoryTitleSearch, CategoryAgreement:
		return true
	}
	return false
}

// Source records how an item's content came to exist
type Source string

const (
	SourceUpload   Source = "UPLOAD"   // content stored in the local blob store
	SourceRegistry Source = "REGISTRY" // content hosted by the land registry
)

// Folder is a tree node. The parent, when set, belongs to the same tenant,
// the same kind and (for documents) the same matter; parent chains always
// terminate at a root.
type Folder struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Kind      Kind      `json:"kind"`
	Name      string    `json:"name"`
	ParentID  *string   `json:"parent_folder_id,omitempty"`
	MatterID  *string   `json:"matter_id,omitempty"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Item is a leaf record with file metadata. Documents carry a mandatory
// matter reference; precedents never do.
type Item struct {
	ID            string    `json:"id"`
	TenantID      string    `json:"tenant_id"`
	Kind          Kind      `json:"kind"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Category      Category  `json:"category"`
	FolderID      *string   `json:"folder_id,omitempty"`
	MatterID      *string   `json:"matter_id,omitempty"`
	Source        Source    `json:"source"`
	FilePath      string    `json:"file_path"`
	FileName      string    `json:"file_name"`
	FileType      string    `json:"file_type"`
	FileExtension string    `json:"file_extension"`
	FileSize      int64     `json:"file_size"`
	MimeType      string    `json:"mime_type,omitempty"`
	Content       string    `json:"content,omitempty"`
	UploadedBy    string    `json:"uploaded_by"`
	UploadedAt    time.Time `json:"uploaded_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// fileTypes maps extensions to human-readable file types
var fileTypes = map[string]string{
	".pdf":  "PDF",
	".doc":  "Word",
	".docx": "Word",
	".txt":  "Text",
	".rtf":  "Rich Text",
	".jpg":  "Image",
	".jpeg": "Image",
	".png":  "Image",
	".xls":  "Excel",
	".xlsx": "Excel",
	".csv":  "CSV",
	".ppt":  "PowerPoint",
	".pptx": "PowerPoint",
	".eml":  "Email",
	".msg":  "Email",
	".zip":  "Archive",
}

// FileTypeFor returns the display type for a filename's extension
func FileTypeFor(filename string) (extension, fileType string) {
	ext := strings.ToLower(filepath.Ext(filename))
	if t, ok := fileTypes[ext]; ok {
		return ext, t
	}
	return ext, "Other"
}
