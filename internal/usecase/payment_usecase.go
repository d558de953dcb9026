package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/infisparks/gautami-ledger/internal/domain"
	"github.com/infisparks/gautami-ledger/internal/infrastructure/metrics"
)

// PaymentUseCase handles the payment ledger. Payments are append-only;
// the running deposit total is only ever derived from the log, so
// replaying the payment sequence reproduces it exactly.
type PaymentUseCase struct {
	txManager  TransactionManager
	recordRepo RecordRepository
	outboxRepo OutboxRepository
	retrier    Retrier
	idGen      IDGenerator
	methods    domain.PaymentMethods
	metrics    *metrics.Metrics
}

// NewPaymentUseCase creates a new PaymentUseCase. metrics may be nil.
func NewPaymentUseCase(
	txManager TransactionManager,
	recordRepo RecordRepository,
	outboxRepo OutboxRepository,
	retrier Retrier,
	idGen IDGenerator,
	methods domain.PaymentMethods,
	m *metrics.Metrics,
) *PaymentUseCase {
	return &PaymentUseCase{
		txManager:  txManager,
		recordRepo: recordRepo,
		outboxRepo: outboxRepo,
		retrier:    retrier,
		idGen:      idGen,
		methods:    methods,
		metrics:    m,
	}
}

// RecordPaymentInput represents input for recording a payment.
type RecordPaymentInput struct {
	RecordID string
	Amount   domain.Money
	Method   string
}

// RecordPayment appends a payment entry and folds it into the deposit
// total.
func (uc *PaymentUseCase) RecordPayment(ctx context.Context, input RecordPaymentInput) (*domain.LedgerRecord, error) {
	if !input.Amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	if !uc.methods.Allowed(input.Method) {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidPaymentMethod, input.Method)
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

		entry, err := record.RecordPayment(uc.idGen.Generate(), input.Amount, input.Method, now)
		if err != nil {
			return err
		}

		if err := uc.recordRepo.AppendPayment(ctx, tx, record.ID, entry); err != nil {
			return err
		}

		if err := uc.recordRepo.UpdateRecord(ctx, tx, record); err != nil {
			return err
		}

		event := &domain.OutboxEvent{
			ID:            uc.idGen.Generate(),
			AggregateID:   record.ID,
			AggregateType: domain.AggregateTypeRecord,
			EventType:     domain.EventTypePaymentRecorded,
			Payload: domain.PaymentRecordedEvent{
				RecordID:     record.ID,
				PaymentID:    entry.ID,
				Amount:       entry.Amount.String(),
				Method:       entry.Method,
				DepositTotal: record.DepositTotal.String(),
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
		uc.metrics.PaymentsRecorded.WithLabelValues(domain.NormalizePaymentMethod(input.Method)).Inc()
		uc.metrics.PaymentAmount.Observe(float64(input.Amount))
	}

	return updated, nil
}
