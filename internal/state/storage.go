// Package state manages the persisted dialog position of every user.
package state

import (
	"context"
	"errors"
)

// ErrStateNotFound indicates that a user has no stored state yet.
var ErrStateNotFound = errors.New("user state not found")

// Storage defines the persistence contract for user sessions.
//
// Implementations store the state as an opaque string and return exactly what was written.
// No operation is transactional: a read followed by a write for the same user may interleave
// with another writer.
type Storage interface {
	// GetState returns the stored state for the user or ErrStateNotFound.
	GetState(ctx context.Context, userID int64) (State, error)
	// SetState saves the state for the user.
	SetState(ctx context.Context, userID int64, s State) error
	// GetSelectedProduct returns the product chosen on the menu, or "" when none.
	GetSelectedProduct(ctx context.Context, userID int64) (string, error)
	// SetSelectedProduct remembers the product chosen on the menu; "" clears it.
	SetSelectedProduct(ctx context.Context, userID int64, productID string) error
	// CountByState returns the number of stored sessions per raw state value.
	CountByState(ctx context.Context) (map[string]int, error)
}
