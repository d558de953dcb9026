package usecase

import (
	"context"
	"time"

	"github.com/infisparks/gautami-ledger/internal/domain"
	"github.com/infisparks/gautami-ledger/internal/infrastructure/metrics"
)

// RecordUseCase handles record intake and reads. Records arrive from
// the admission side pre-populated with the opening deposit and, for
// inpatient stays, a bed reference.
type RecordUseCase struct {
	txManager  TransactionManager
	recordRepo RecordRepository
	outboxRepo OutboxRepository
	idGen      IDGenerator
	metrics    *metrics.Metrics
}

// NewRecordUseCase creates a new RecordUseCase. metrics may be nil.
func NewRecordUseCase(
	txManager TransactionManager,
	recordRepo RecordRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	m *metrics.Metrics,
) *RecordUseCase {
	return &RecordUseCase{
		txManager:  txManager,
		recordRepo: recordRepo,
		outboxRepo: outboxRepo,
		idGen:      idGen,
		metrics:    m,
	}
}

// AdmitRecordInput represents input for creating a billing record.
type AdmitRecordInput struct {
	PatientRef     string
	OpeningDeposit domain.Money
	Bed            *domain.BedRef
}

// AdmitRecord creates the billing record for a new stay. Records
// without a bed reference can never be discharged through this core;
// they represent outpatient visits.
func (uc *RecordUseCase) AdmitRecord(ctx context.Context, input AdmitRecordInput) (*domain.LedgerRecord, error) {
	if err := domain.ValidatePatientRef(input.PatientRef); err != nil {
		return nil, err
	}

	if input.OpeningDeposit.IsNegative() {
		return nil, domain.ErrNegativeDeposit
	}

	now := time.Now().UTC()

	record := &domain.LedgerRecord{
		ID:           uc.idGen.Generate(),
		PatientRef:   input.PatientRef,
		DepositTotal: input.OpeningDeposit,
		Bed:          input.Bed,
		Version:      0,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := uc.recordRepo.Create(ctx, tx, record); err != nil {
		return nil, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   record.ID,
		AggregateType: domain.AggregateTypeRecord,
		EventType:     domain.EventTypeRecordAdmitted,
		Payload: domain.RecordAdmittedEvent{
			RecordID:       record.ID,
			PatientRef:     record.PatientRef,
			OpeningDeposit: record.DepositTotal.String(),
		},
		CreatedAt: now,
	}
	if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.RecordsAdmitted.Inc()
	}

	return record, nil
}

// GetRecord retrieves a record snapshot by ID.
func (uc *RecordUseCase) GetRecord(ctx context.Context, id string) (*domain.LedgerRecord, error) {
	return uc.recordRepo.GetByID(ctx, id)
}

// ListRecordsInput represents input for listing records.
type ListRecordsInput struct {
	Limit  int
	Offset int
}

// ListRecords lists records with pagination. The listing is shallow:
// service and payment logs are loaded per record on demand.
func (uc *RecordUseCase) ListRecords(ctx context.Context, input ListRecordsInput) ([]*domain.LedgerRecord, error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)

	return uc.recordRepo.List(ctx, limit, offset)
}
