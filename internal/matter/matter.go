package matter

import (
	"context"
	"errors"
	"time"
)

var (
	ErrMatterNotFound    = errors.New("matter not found")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Type is the kind of legal transaction
type Type string

const (
	TypeSale     Type = "SALE"
	TypePurchase Type = "PURCHASE"
	TypeTransfer Type = "TRANSFER"
)

// Valid reports whether t is a known matter type
func (t Type) Valid() bool {
	return t == TypeSale || t == TypePurchase || t == TypeTransfer
}

// Status is the lifecycle state of a matter
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusArchived   Status = "ARCHIVED"
)

// CanTransition reports whether a matter may move from s to next. Matters
// are never deleted; archiving is allowed from any state and is terminal.
func (s Status) CanTransition(next Status) bool {
	if next == StatusArchived {
		return s != StatusArchived
	}
	switch s {
	case StatusPending:
		return next == StatusInProgress
	case StatusInProgress:
		return next == StatusCompleted
	default:
		return false
	}
}

// Matter is a legal transaction scoped to a tenant. Buyer and seller client
// references are optional: a transfer may have only one side.
type Matter struct {
	ID              string    `json:"id"`
	TenantID        string    `json:"tenant_id"`
	ConveyancerID   string    `json:"conveyancer_id"`
	Type            Type      `json:"matter_type"`
	Status          Status    `json:"status"`
	PropertyAddress string    `json:"property_address"`
	BuyerClientID   *string   `json:"buyer_client_id,omitempty"`
	SellerClientID  *string   `json:"seller_client_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Repository defines the interface for matter storage. Lookups are tenant
// scoped: an id owned by another tenant behaves exactly like a missing one.
type Repository interface {
	Create(ctx context.Context, m *Matter) error
	GetByID(ctx context.Context, tenantID, id string) (*Matter, error)
	List(ctx context.Context, tenantID string) ([]*Matter, error)
	UpdateStatus(ctx context.Context, tenantID, id string, status Status, updatedAt time.Time) error
}
