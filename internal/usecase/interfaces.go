package usecase

import (
	"context"
	"time"

	"github.com/infisparks/gautami-ledger/internal/domain"
)

// RecordRepository defines data access for billing records. The
// aggregate is loaded whole (record row plus its service and payment
// logs); mutation paths lock the record row for the duration of the
// transaction and the record row update carries the optimistic
// version check.
type RecordRepository interface {
	Create(ctx context.Context, tx Transaction, record *domain.LedgerRecord) error
	GetByID(ctx context.Context, id string) (*domain.LedgerRecord, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.LedgerRecord, error)
	// AppendService inserts a new service line item. Items are append-only.
	AppendService(ctx context.Context, tx Transaction, recordID string, item *domain.ServiceLineItem) error
	// MarkServiceCompleted flips one item pending -> completed.
	MarkServiceCompleted(ctx context.Context, tx Transaction, itemID string, updatedAt time.Time) error
	// AppendPayment inserts a new payment entry. Entries are append-only.
	AppendPayment(ctx context.Context, tx Transaction, recordID string, entry *domain.PaymentEntry) error
	// UpdateRecord persists the record row (deposit total, discharge
	// state) guarded by record.Version; a missed compare-and-set
	// returns domain.ErrConcurrentUpdate. On success the in-memory
	// version is bumped.
	UpdateRecord(ctx context.Context, tx Transaction, record *domain.LedgerRecord) error
	List(ctx context.Context, limit, offset int) ([]*domain.LedgerRecord, error)
	// ListPendingBedReleases returns discharged records whose bed is
	// still marked occupied.
	ListPendingBedReleases(ctx context.Context) ([]*domain.LedgerRecord, error)
}

// BedRegistry exposes bed occupancy owned by the admission side. This
// core only moves beds occupied -> available, never the reverse.
type BedRegistry interface {
	GetStatus(ctx context.Context, roomType, bedID string) (domain.BedStatus, error)
	SetStatus(ctx context.Context, roomType, bedID string, status domain.BedStatus) error
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs a merge when it hits a retryable conflict
// (optimistic version miss, deadlock, serialization failure), bounded
// by a small retry budget.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyProcessing is the placeholder stored while the first
// request holding a key is still executing. A duplicate that observes
// it must be rejected, not executed.
const IdempotencyProcessing = "processing"

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a claimed key so the client may retry.
	Release(ctx context.Context, key string) error
}
