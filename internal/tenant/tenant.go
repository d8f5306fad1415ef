package tenant

import (
	"time"
)

// Tenant represents an isolated conveyancing firm account
type Tenant struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Domain       string    `json:"domain"`
	LogoPath     string    `json:"logo_path,omitempty"`
	PrimaryColor string    `json:"primary_color,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Role governs a principal's write scope within its tenant
type Role string

const (
	RoleAdmin       Role = "ADMIN"
	RoleConveyancer Role = "CONVEYANCER"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleConveyancer
}

// Settings carries the mutable branding fields of a tenant
type Settings struct {
	Name         string `json:"name"`
	LogoPath     string `json:"logo_path"`
	PrimaryColor string `json:"primary_color"`
}
