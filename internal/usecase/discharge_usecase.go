package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/infisparks/gautami-ledger/internal/domain"
	"github.com/infisparks/gautami-ledger/internal/infrastructure/metrics"
)

// DischargeUseCase drives the two-resource discharge: mark the billing
// record terminal, then release the bed. The billing commit always
// lands first; a bed release failure afterwards is surfaced as
// PartialDischargeError, never swallowed, and can be retried without
// touching the billing record again.
type DischargeUseCase struct {
	txManager   TransactionManager
	recordRepo  RecordRepository
	bedRegistry BedRegistry
	outboxRepo  OutboxRepository
	retrier     Retrier
	idGen       IDGenerator
	logger      zerolog.Logger
	metrics     *metrics.Metrics
}

// NewDischargeUseCase creates a new DischargeUseCase. metrics may be nil.
func NewDischargeUseCase(
	txManager TransactionManager,
	recordRepo RecordRepository,
	bedRegistry BedRegistry,
	outboxRepo OutboxRepository,
	retrier Retrier,
	idGen IDGenerator,
	logger zerolog.Logger,
	m *metrics.Metrics,
) *DischargeUseCase {
	return &DischargeUseCase{
		txManager:   txManager,
		recordRepo:  recordRepo,
		bedRegistry: bedRegistry,
		outboxRepo:  outboxRepo,
		retrier:     retrier,
		idGen:       idGen,
		logger:      logger,
		metrics:     m,
	}
}

// Discharge marks the record discharged and releases its bed.
//
// Re-invoking on an already-discharged record is a no-op for the
// billing state; only the bed release is retried, and only if the bed
// is still occupied. At most one release side effect happens per bed.
func (uc *DischargeUseCase) Discharge(ctx context.Context, recordID string) (*domain.LedgerRecord, error) {
	var (
		record  *domain.LedgerRecord
		already bool
	)

	err := uc.retrier.Retry(ctx, func() error {
		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		r, err := uc.recordRepo.GetByIDForUpdate(ctx, tx, recordID)
		if err != nil {
			return err
		}

		if r.IsDischarged() {
			// Idempotent repeat: no billing write, fall through to the
			// bed-release check below.
			record = r
			already = true

			return tx.Commit(ctx)
		}

		now := time.Now().UTC()

		if err := r.MarkDischarged(now); err != nil {
			return err
		}

		if err := uc.recordRepo.UpdateRecord(ctx, tx, r); err != nil {
			return err
		}

		event := &domain.OutboxEvent{
			ID:            uc.idGen.Generate(),
			AggregateID:   r.ID,
			AggregateType: domain.AggregateTypeRecord,
			EventType:     domain.EventTypeRecordDischarged,
			Payload: domain.RecordDischargedEvent{
				RecordID:     r.ID,
				RoomType:     r.Bed.RoomType,
				BedID:        r.Bed.BedID,
				DischargedAt: now.Format(time.RFC3339),
			},
			CreatedAt: now,
		}
		if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
			return err
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		record = r
		already = false

		return nil
	})
	if err != nil {
		return nil, err
	}

	if record.Bed == nil {
		// Discharged records keep their bed ref; a missing one here
		// means the record predates bed tracking. Nothing to release.
		return record, nil
	}

	if already {
		status, err := uc.bedRegistry.GetStatus(ctx, record.Bed.RoomType, record.Bed.BedID)
		if err == nil && status == domain.BedStatusAvailable {
			return record, nil
		}
	}

	if err := uc.releaseBed(ctx, record); err != nil {
		if uc.metrics != nil {
			uc.metrics.PartialDischarges.Inc()
		}

		uc.logger.Error().
			Err(err).
			Str("record_id", record.ID).
			Str("room_type", record.Bed.RoomType).
			Str("bed_id", record.Bed.BedID).
			Msg("record discharged but bed release failed")

		return record, &domain.PartialDischargeError{
			RecordID: record.ID,
			Bed:      *record.Bed,
			Err:      err,
		}
	}

	if uc.metrics != nil {
		uc.metrics.BedsReleased.Inc()
		if !already {
			uc.metrics.Discharges.Inc()
		}
	}

	return record, nil
}

// releaseBed flips the bed to available and records a bed.released
// event. The event write is best-effort: the release itself is the
// state of truth and must not be rolled back over a bookkeeping miss.
func (uc *DischargeUseCase) releaseBed(ctx context.Context, record *domain.LedgerRecord) error {
	err := uc.bedRegistry.SetStatus(ctx, record.Bed.RoomType, record.Bed.BedID, domain.BedStatusAvailable)
	if err != nil {
		return err
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		uc.logger.Warn().Err(err).Str("record_id", record.ID).Msg("could not record bed.released event")
		return nil
	}
	defer tx.Rollback(ctx)

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   record.Bed.RoomType + "/" + record.Bed.BedID,
		AggregateType: domain.AggregateTypeBed,
		EventType:     domain.EventTypeBedReleased,
		Payload: domain.BedReleasedEvent{
			RecordID: record.ID,
			RoomType: record.Bed.RoomType,
			BedID:    record.Bed.BedID,
		},
		CreatedAt: time.Now().UTC(),
	}

	if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
		uc.logger.Warn().Err(err).Str("record_id", record.ID).Msg("could not record bed.released event")
		return nil
	}

	if err := tx.Commit(ctx); err != nil {
		uc.logger.Warn().Err(err).Str("record_id", record.ID).Msg("could not record bed.released event")
	}

	return nil
}
