package usecase

import (
	"context"
	"time"

	"github.com/infisparks/gautami-ledger/internal/domain"
	"github.com/infisparks/gautami-ledger/internal/infrastructure/metrics"
)

// BillingUseCase handles the service ledger: appending service line
// items and completing them. Every mutation is a merge: the latest
// record is re-fetched under a row lock inside the transaction, the
// pure transformation is applied, and the write-back carries the
// optimistic version check. Conflicts are retried by the Retrier.
type BillingUseCase struct {
	txManager  TransactionManager
	recordRepo RecordRepository
	outboxRepo OutboxRepository
	retrier    Retrier
	idGen      IDGenerator
	metrics    *metrics.Metrics
}

// NewBillingUseCase creates a new BillingUseCase. metrics may be nil.
func NewBillingUseCase(
	txManager TransactionManager,
	recordRepo RecordRepository,
	outboxRepo OutboxRepository,
	retrier Retrier,
	idGen IDGenerator,
	m *metrics.Metrics,
) *BillingUseCase {
	return &BillingUseCase{
		txManager:  txManager,
		recordRepo: recordRepo,
		outboxRepo: outboxRepo,
		retrier:    retrier,
		idGen:      idGen,
		metrics:    m,
	}
}

// AddServiceInput represents input for appending a service line item.
type AddServiceInput struct {
	RecordID string
	Name     string
	Amount   domain.Money
}

// AddService appends a pending service line item to the record.
func (uc *BillingUseCase) AddService(ctx context.Context, input AddServiceInput) (*domain.LedgerRecord, error) {
	// Validate before touching storage; bad input is never persisted.
	if err := domain.ValidateServiceName(input.Name); err != nil {
		return nil, err
	}

	if !input.Amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	var updated *domain.LedgerRecord

	err := uc.retrier.Retry(ctx, func() error {
		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		record, err := uc.recordRepo.GetByIDForUpdate(ctx, tx, input.RecordID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()

		item, err := record.AddService(uc.idGen.Generate(), input.Name, input.Amount, now)
		if err != nil {
			return err
		}

		if err := uc.recordRepo.AppendService(ctx, tx, record.ID, item); err != nil {
			return err
		}

		if err := uc.recordRepo.UpdateRecord(ctx, tx, record); err != nil {
			return err
		}

		event := &domain.OutboxEvent{
			ID:            uc.idGen.Generate(),
			AggregateID:   record.ID,
			AggregateType: domain.AggregateTypeRecord,
			EventType:     domain.EventTypeServiceAdded,
			Payload: domain.ServiceAddedEvent{
				RecordID:    record.ID,
				ServiceID:   item.ID,
				Name:        item.Name,
				Amount:      item.Amount.String(),
				Outstanding: record.Outstanding().String(),
			},
			CreatedAt: now,
		}
		if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
			return err
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		updated = record

		return nil
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.ServicesAdded.Inc()
		uc.metrics.ServiceAmount.Observe(float64(input.Amount))
	}

	return updated, nil
}

// CompleteService transitions the service at index (most-recent-first)
// to completed. Completing an already-completed item returns the
// current record without an error and without a write.
func (uc *BillingUseCase) CompleteService(ctx context.Context, recordID string, index int) (*domain.LedgerRecord, error) {
	var (
		updated *domain.LedgerRecord
		moved   bool
	)

	err := uc.retrier.Retry(ctx, func() error {
		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		record, err := uc.recordRepo.GetByIDForUpdate(ctx, tx, recordID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()

		// The index is resolved to a stable item id inside the lock,
		// so a concurrent prepend cannot shift which item completes.
		item, changed, err := record.CompleteService(index, now)
		if err != nil {
			return err
		}

		if !changed {
			updated = record
			moved = false

			return tx.Commit(ctx)
		}

		if err := uc.recordRepo.MarkServiceCompleted(ctx, tx, item.ID, now); err != nil {
			return err
		}

		if err := uc.recordRepo.UpdateRecord(ctx, tx, record); err != nil {
			return err
		}

		event := &domain.OutboxEvent{
			ID:            uc.idGen.Generate(),
			AggregateID:   record.ID,
			AggregateType: domain.AggregateTypeRecord,
			EventType:     domain.EventTypeServiceCompleted,
			Payload: domain.ServiceCompletedEvent{
				RecordID:  record.ID,
				ServiceID: item.ID,
				Amount:    item.Amount.String(),
				TotalPaid: record.TotalPaid().String(),
			},
			CreatedAt: now,
		}
		if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
			return err
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		updated = record
		moved = true

		return nil
	})
	if err != nil {
		return nil, err
	}

	if moved && uc.metrics != nil {
		uc.metrics.ServicesCompleted.Inc()
	}

	return updated, nil
}
