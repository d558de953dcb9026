package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/infisparks/gautami-ledger/internal/domain"
	"github.com/infisparks/gautami-ledger/internal/usecase"
	"github.com/infisparks/gautami-ledger/internal/usecase/mocks"
)

// onceRetrier runs the merge exactly once. Retry behavior is covered
// by the conflict tests below with boundedRetrier.
type onceRetrier struct{}

func (onceRetrier) Retry(ctx context.Context, operation func() error) error {
	return operation()
}

// boundedRetrier re-runs the merge on version conflicts the way the
// postgres backoff retrier does, without the backoff delays.
type boundedRetrier struct{ max int }

func (r boundedRetrier) Retry(ctx context.Context, operation func() error) error {
	var err error
	for i := 0; i < r.max; i++ {
		err = operation()
		if err == nil || !errors.Is(err, domain.ErrConcurrentUpdate) {
			return err
		}
	}
	return err
}

func admittedRecord(deposit domain.Money) *domain.LedgerRecord {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	return &domain.LedgerRecord{
		ID:           "rec-1",
		PatientRef:   "uhid-1001",
		DepositTotal: deposit,
		Bed:          &domain.BedRef{RoomType: "deluxe", BedID: "D-3"},
		Version:      2,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// expectTx wires a transaction whose Rollback is always tolerated; the
// test fails if an unexpected Commit happens.
func expectTx(ctrl *gomock.Controller, txMgr *mocks.MockTransactionManager) *mocks.MockTransaction {
	tx := mocks.NewMockTransaction(ctrl)
	txMgr.EXPECT().Begin(gomock.Any()).Return(tx, nil)
	tx.EXPECT().Rollback(gomock.Any()).Return(nil).AnyTimes()
	return tx
}

func TestBillingUseCase_AddService(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	txMgr := mocks.NewMockTransactionManager(ctrl)
	recordRepo := mocks.NewMockRecordRepository(ctrl)
	outboxRepo := mocks.NewMockOutboxRepository(ctrl)
	idGen := mocks.NewMockIDGenerator(ctrl)

	tx := expectTx(ctrl, txMgr)
	tx.EXPECT().Commit(gomock.Any()).Return(nil)

	idGen.EXPECT().Generate().Return("svc-1")
	idGen.EXPECT().Generate().Return("evt-1")

	recordRepo.EXPECT().GetByIDForUpdate(gomock.Any(), tx, "rec-1").Return(admittedRecord(500000), nil)
	recordRepo.EXPECT().AppendService(gomock.Any(), tx, "rec-1", gomock.Any()).Return(nil)
	recordRepo.EXPECT().UpdateRecord(gomock.Any(), tx, gomock.Any()).Return(nil)
	outboxRepo.EXPECT().Create(gomock.Any(), tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ usecase.Transaction, event *domain.OutboxEvent) error {
			if event.EventType != domain.EventTypeServiceAdded {
				t.Errorf("expected event type %s, got %s", domain.EventTypeServiceAdded, event.EventType)
			}
			return nil
		})

	uc := usecase.NewBillingUseCase(txMgr, recordRepo, outboxRepo, onceRetrier{}, idGen, nil)

	record, err := uc.AddService(context.Background(), usecase.AddServiceInput{
		RecordID: "rec-1",
		Name:     "X-Ray",
		Amount:   120000,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(record.Services) != 1 {
		t.Fatalf("expected 1 service, got %d", len(record.Services))
	}
	if record.Services[0].ID != "svc-1" || record.Services[0].Status != domain.ServiceStatusPending {
		t.Errorf("unexpected service item: %+v", record.Services[0])
	}
	// deposit 5000.00 + services 1200.00, nothing paid yet
	if record.Outstanding() != 620000 {
		t.Errorf("expected outstanding 620000, got %d", record.Outstanding())
	}
}

func TestBillingUseCase_AddService_Validation(t *testing.T) {
	tests := []struct {
		name    string
		input   usecase.AddServiceInput
		wantErr error
	}{
		{
			name:    "empty name",
			input:   usecase.AddServiceInput{RecordID: "rec-1", Name: "  ", Amount: 100},
			wantErr: domain.ErrInvalidServiceName,
		},
		{
			name:    "zero amount",
			input:   usecase.AddServiceInput{RecordID: "rec-1", Name: "X-Ray", Amount: 0},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "negative amount",
			input:   usecase.AddServiceInput{RecordID: "rec-1", Name: "X-Ray", Amount: -500},
			wantErr: domain.ErrInvalidAmount,
		},
	}

	// Validation fails before any collaborator is touched.
	uc := usecase.NewBillingUseCase(nil, nil, nil, nil, nil, nil)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.AddService(context.Background(), tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestBillingUseCase_AddService_DischargedRecord(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	txMgr := mocks.NewMockTransactionManager(ctrl)
	recordRepo := mocks.NewMockRecordRepository(ctrl)

	expectTx(ctrl, txMgr)

	record := admittedRecord(500000)
	dischargedAt := time.Date(2025, 3, 2, 12, 0, 0, 0, time.UTC)
	record.DischargedAt = &dischargedAt

	recordRepo.EXPECT().GetByIDForUpdate(gomock.Any(), gomock.Any(), "rec-1").Return(record, nil)

	uc := usecase.NewBillingUseCase(txMgr, recordRepo, nil, onceRetrier{}, nil, nil)

	_, err := uc.AddService(context.Background(), usecase.AddServiceInput{
		RecordID: "rec-1",
		Name:     "X-Ray",
		Amount:   120000,
	})
	if !errors.Is(err, domain.ErrRecordDischarged) {
		t.Fatalf("expected ErrRecordDischarged, got %v", err)
	}
}

func TestBillingUseCase_AddService_RetriesVersionConflict(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	txMgr := mocks.NewMockTransactionManager(ctrl)
	recordRepo := mocks.NewMockRecordRepository(ctrl)
	outboxRepo := mocks.NewMockOutboxRepository(ctrl)
	idGen := mocks.NewMockIDGenerator(ctrl)

	idGen.EXPECT().Generate().Return("gen-id").AnyTimes()

	tx := mocks.NewMockTransaction(ctrl)
	txMgr.EXPECT().Begin(gomock.Any()).Return(tx, nil).Times(2)
	tx.EXPECT().Rollback(gomock.Any()).Return(nil).AnyTimes()
	tx.EXPECT().Commit(gomock.Any()).Return(nil)

	// Each attempt re-fetches a fresh snapshot under the row lock.
	recordRepo.EXPECT().GetByIDForUpdate(gomock.Any(), tx, "rec-1").DoAndReturn(
		func(_ context.Context, _ usecase.Transaction, _ string) (*domain.LedgerRecord, error) {
			return admittedRecord(500000), nil
		}).Times(2)
	recordRepo.EXPECT().AppendService(gomock.Any(), tx, "rec-1", gomock.Any()).Return(nil).Times(2)

	attempts := 0
	recordRepo.EXPECT().UpdateRecord(gomock.Any(), tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ usecase.Transaction, _ *domain.LedgerRecord) error {
			attempts++
			if attempts == 1 {
				return domain.ErrConcurrentUpdate
			}
			return nil
		}).Times(2)
	outboxRepo.EXPECT().Create(gomock.Any(), tx, gomock.Any()).Return(nil)

	uc := usecase.NewBillingUseCase(txMgr, recordRepo, outboxRepo, boundedRetrier{max: 3}, idGen, nil)

	record, err := uc.AddService(context.Background(), usecase.AddServiceInput{
		RecordID: "rec-1",
		Name:     "X-Ray",
		Amount:   120000,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record == nil {
		t.Fatal("expected record, got nil")
	}
}

func TestBillingUseCase_AddService_ConflictExhaustsRetries(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	txMgr := mocks.NewMockTransactionManager(ctrl)
	recordRepo := mocks.NewMockRecordRepository(ctrl)
	idGen := mocks.NewMockIDGenerator(ctrl)

	idGen.EXPECT().Generate().Return("gen-id").AnyTimes()

	tx := mocks.NewMockTransaction(ctrl)
	txMgr.EXPECT().Begin(gomock.Any()).Return(tx, nil).Times(3)
	tx.EXPECT().Rollback(gomock.Any()).Return(nil).AnyTimes()

	recordRepo.EXPECT().GetByIDForUpdate(gomock.Any(), tx, "rec-1").DoAndReturn(
		func(_ context.Context, _ usecase.Transaction, _ string) (*domain.LedgerRecord, error) {
			return admittedRecord(500000), nil
		}).Times(3)
	recordRepo.EXPECT().AppendService(gomock.Any(), tx, "rec-1", gomock.Any()).Return(nil).Times(3)
	recordRepo.EXPECT().UpdateRecord(gomock.Any(), tx, gomock.Any()).Return(domain.ErrConcurrentUpdate).Times(3)

	uc := usecase.NewBillingUseCase(txMgr, recordRepo, nil, boundedRetrier{max: 3}, idGen, nil)

	_, err := uc.AddService(context.Background(), usecase.AddServiceInput{
		RecordID: "rec-1",
		Name:     "X-Ray",
		Amount:   120000,
	})
	if !errors.Is(err, domain.ErrConcurrentUpdate) {
		t.Fatalf("expected ErrConcurrentUpdate after exhausted retries, got %v", err)
	}
}

func TestBillingUseCase_CompleteService(t *testing.T) {
	t.Run("pending item completes", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		txMgr := mocks.NewMockTransactionManager(ctrl)
		recordRepo := mocks.NewMockRecordRepository(ctrl)
		outboxRepo := mocks.NewMockOutboxRepository(ctrl)
		idGen := mocks.NewMockIDGenerator(ctrl)

		tx := expectTx(ctrl, txMgr)
		tx.EXPECT().Commit(gomock.Any()).Return(nil)
		idGen.EXPECT().Generate().Return("evt-1")

		record := admittedRecord(500000)
		if _, err := record.AddService("svc-1", "X-Ray", 120000, record.CreatedAt); err != nil {
			t.Fatalf("fixture: %v", err)
		}

		recordRepo.EXPECT().GetByIDForUpdate(gomock.Any(), tx, "rec-1").Return(record, nil)
		recordRepo.EXPECT().MarkServiceCompleted(gomock.Any(), tx, "svc-1", gomock.Any()).Return(nil)
		recordRepo.EXPECT().UpdateRecord(gomock.Any(), tx, gomock.Any()).Return(nil)
		outboxRepo.EXPECT().Create(gomock.Any(), tx, gomock.Any()).Return(nil)

		uc := usecase.NewBillingUseCase(txMgr, recordRepo, outboxRepo, onceRetrier{}, idGen, nil)

		updated, err := uc.CompleteService(context.Background(), "rec-1", 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if updated.TotalPaid() != 120000 {
			t.Errorf("expected totalPaid 120000, got %d", updated.TotalPaid())
		}
		// 5000.00 + 1200.00 - 1200.00
		if updated.Outstanding() != 500000 {
			t.Errorf("expected outstanding 500000, got %d", updated.Outstanding())
		}
	})

	t.Run("already completed is a read-only no-op", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		txMgr := mocks.NewMockTransactionManager(ctrl)
		recordRepo := mocks.NewMockRecordRepository(ctrl)

		tx := expectTx(ctrl, txMgr)
		tx.EXPECT().Commit(gomock.Any()).Return(nil)

		record := admittedRecord(500000)
		if _, err := record.AddService("svc-1", "X-Ray", 120000, record.CreatedAt); err != nil {
			t.Fatalf("fixture: %v", err)
		}
		if _, _, err := record.CompleteService(0, record.CreatedAt); err != nil {
			t.Fatalf("fixture: %v", err)
		}

		// No MarkServiceCompleted, no UpdateRecord, no outbox event.
		recordRepo.EXPECT().GetByIDForUpdate(gomock.Any(), tx, "rec-1").Return(record, nil)

		uc := usecase.NewBillingUseCase(txMgr, recordRepo, nil, onceRetrier{}, nil, nil)

		updated, err := uc.CompleteService(context.Background(), "rec-1", 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if updated.TotalPaid() != 120000 {
			t.Errorf("expected totalPaid unchanged at 120000, got %d", updated.TotalPaid())
		}
	})

	t.Run("index out of range", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		txMgr := mocks.NewMockTransactionManager(ctrl)
		recordRepo := mocks.NewMockRecordRepository(ctrl)

		expectTx(ctrl, txMgr)
		recordRepo.EXPECT().GetByIDForUpdate(gomock.Any(), gomock.Any(), "rec-1").Return(admittedRecord(500000), nil)

		uc := usecase.NewBillingUseCase(txMgr, recordRepo, nil, onceRetrier{}, nil, nil)

		_, err := uc.CompleteService(context.Background(), "rec-1", 4)
		if !errors.Is(err, domain.ErrServiceNotFound) {
			t.Fatalf("expected ErrServiceNotFound, got %v", err)
		}
	})

	t.Run("record not found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		txMgr := mocks.NewMockTransactionManager(ctrl)
		recordRepo := mocks.NewMockRecordRepository(ctrl)

		expectTx(ctrl, txMgr)
		recordRepo.EXPECT().GetByIDForUpdate(gomock.Any(), gomock.Any(), "missing").Return(nil, domain.ErrRecordNotFound)

		uc := usecase.NewBillingUseCase(txMgr, recordRepo, nil, onceRetrier{}, nil, nil)

		_, err := uc.CompleteService(context.Background(), "missing", 0)
		if !errors.Is(err, domain.ErrRecordNotFound) {
			t.Fatalf("expected ErrRecordNotFound, got %v", err)
		}
	})
}
