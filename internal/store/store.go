// Package store persists image metadata. The table is insert-only:
// identifiers are allocated by the store on insert and never reused.
package store

import "context"

// MetadataStore is the metadata persistence contract. Implementations
// must be safe for concurrent use.
type MetadataStore interface {
	// Insert creates one row with the given tags and returns the
	// identifier the store assigned to it.
	Insert(ctx context.Context, tags string) (int64, error)

	// Count returns the number of stored rows.
	Count(ctx context.Context) (int64, error)

	// ScanIDs streams every known identifier to fn, one row at a time.
	// The scan is a snapshot of the table at call time; rows inserted
	// concurrently may or may not be visited. A non-nil error from fn
	// stops the scan and is returned as-is.
	ScanIDs(ctx context.Context, fn func(id int64) error) error
}
