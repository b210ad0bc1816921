// Package dao defines the plain CRUD contract between the workflow core and
// its storage collaborators.
package dao

import (
	"context"
)

// Service stores records of T keyed by K. Implementations return ErrNotFound
// for missing keys, ErrInvalidID for zero keys and ErrNilEntity for nil
// records.
type Service[K comparable, T any] interface {
	// Save inserts or replaces the record.
	Save(ctx context.Context, t *T) error
	Load(ctx context.Context, id K) (*T, error)
	Delete(ctx context.Context, id K) error
	// List returns records in a stable order, narrowed by parameters the
	// implementation understands and ignoring the others.
	List(ctx context.Context, parameters ...*Parameter) ([]*T, error)
}
