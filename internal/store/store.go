// Package store defines the durable item storage used by the list
// controller and the errors its backends return.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/idilsaglam/shoplist/internal/model"
)

// Store persists shopping items. Every mutation is durable before it
// returns, and implementations serialize concurrent callers.
type Store interface {
	// GetAllItems returns every item in a stable order (ascending ID).
	GetAllItems(ctx context.Context) ([]model.ShoppingItem, error)
	// InsertItem upserts item. A zero ID allocates a new one; an existing
	// ID is replaced. It returns the record's ID.
	InsertItem(ctx context.Context, item model.ShoppingItem) (int64, error)
	// UpdateItem overwrites the record with item.ID, or fails with ErrNotFound.
	UpdateItem(ctx context.Context, item model.ShoppingItem) error
	// DeleteItem removes the record with item.ID. Absent records are ignored.
	DeleteItem(ctx context.Context, item model.ShoppingItem) error
	Close() error
}

// ErrNotFound is returned by UpdateItem for an unknown ID.
var ErrNotFound = errors.New("item not found")

// StorageError reports that the underlying database or file could not
// be read or written.
type StorageError struct {
	Op   string // load, insert, update, delete, open, migrate
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("storage %s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsStorageError reports whether err wraps a *StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
