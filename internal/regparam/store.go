package regparam

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by stores when no parameter matches.
var ErrNotFound = errors.New("regulation parameter not found")

// ListFilter narrows administrative listings.
type ListFilter struct {
	Key        string
	Category   string
	ActiveOnly bool
}

// Store persists parameter versions append-only. Values are never edited
// in place; only the activation state and approval fields may change.
type Store interface {
	// Insert appends a new parameter version. Fails with a conflict if a
	// version with the same (key, condition hash, effective_from) exists.
	Insert(ctx context.Context, p Parameter) error

	GetByID(ctx context.Context, id uuid.UUID) (*Parameter, error)

	// ListActiveByKey returns all active versions of a key, any condition.
	ListActiveByKey(ctx context.Context, key string) ([]Parameter, error)

	List(ctx context.Context, filter ListFilter) ([]Parameter, error)

	// Activate marks a pending version active and records the approver.
	Activate(ctx context.Context, id uuid.UUID, approvedBy string, approvedAt time.Time) error

	// Deactivate retires a version: is_active becomes false and the
	// effective interval is closed at effectiveTo.
	Deactivate(ctx context.Context, id uuid.UUID, effectiveTo time.Time, reason string) error
}
