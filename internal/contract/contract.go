// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/huangsam/opendxi/schema"
)

// Fetcher retrieves the raw activity of an organization for a date window.
// This allows the loader to be tested without a live GitHub endpoint.
type Fetcher interface {
	Fetch(ctx context.Context, start, end time.Time) (*schema.RawAggregate, error)
}

// SprintStore persists one SprintRecord per (start_date, end_date) key.
type SprintStore interface {
	// Get returns the stored record or schema.ErrNotFound.
	Get(ctx context.Context, start, end time.Time) (*schema.SprintRecord, error)

	// Insert creates a record and returns schema.ErrConflict if the key already exists.
	Insert(ctx context.Context, rec *schema.SprintRecord) error

	// Upsert creates or replaces a record. The original created_at is preserved.
	Upsert(ctx context.Context, rec *schema.SprintRecord) error

	// List returns the stored ranges, newest start date first.
	List(ctx context.Context) ([]schema.CachedSprint, error)

	// Delete removes a record. Deleting a missing key is not an error.
	Delete(ctx context.Context, start, end time.Time) error

	// GetStatus returns status information about the store.
	GetStatus() (schema.StoreStatus, error)

	// Close closes the underlying connection.
	Close() error
}

// StoreManager hands out the process-wide sprint store.
// This allows the store layer to be mocked for testing.
type StoreManager interface {
	GetSprintStore() SprintStore
}
