// Package store defines the uniform contract over the relational and
// key-value backends, plus the table registry both backends render from.
package store

import (
	"context"
)

// Record is one row or item, keyed by field name
type Record map[string]any

// Key identifies exactly one record by its key fields
type Key map[string]any

// Store is implemented by every backend
type Store interface {
	// QueryByKey returns the record for key, or nil when absent
	QueryByKey(ctx context.Context, table string, key Key) (Record, error)

	// QueryByIndex returns every record whose indexed field equals value
	QueryByIndex(ctx context.Context, table, index string, value any) ([]Record, error)

	// Insert writes a record, filling generated fields, and returns it
	Insert(ctx context.Context, table string, record Record) (Record, error)

	// InsertIfAbsent writes a record unless one with the same key or unique
	// fields exists; it reports whether a write happened
	InsertIfAbsent(ctx context.Context, table string, record Record) (bool, error)

	// Update applies patch to the record identified by key; NotFound when absent
	Update(ctx context.Context, table string, key Key, patch Record) error

	// Delete removes the record identified by key and returns the deleted count
	Delete(ctx context.Context, table string, key Key) (int64, error)
}
