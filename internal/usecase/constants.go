package usecase

import "time"

const (
	// DefaultMergeRetries bounds how often a read-modify-write merge is
	// re-run after a version conflict before surfacing
	// domain.ErrConcurrentUpdate to the caller.
	DefaultMergeRetries = 3

	// DefaultInvoiceCacheTTL is how long a projected invoice snapshot
	// stays cached. Keys embed the record version, so stale snapshots
	// only ever age out, never get served for a newer version.
	DefaultInvoiceCacheTTL = 10 * time.Minute

	// IdempotencyKeyTTL is how long idempotency keys are cached.
	IdempotencyKeyTTL = 24 * time.Hour
)
