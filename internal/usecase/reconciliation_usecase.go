package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/infisparks/gautami-ledger/internal/domain"
	"github.com/infisparks/gautami-ledger/internal/infrastructure/metrics"
)

// ReconciliationUseCase repairs partial discharges: records that are
// already terminal in billing but whose bed is still marked occupied.
// It only ever retries the bed-release half of the saga; the billing
// record is never touched again.
type ReconciliationUseCase struct {
	recordRepo  RecordRepository
	bedRegistry BedRegistry
	logger      zerolog.Logger
	metrics     *metrics.Metrics
}

// NewReconciliationUseCase creates a new ReconciliationUseCase.
// metrics may be nil.
func NewReconciliationUseCase(recordRepo RecordRepository, bedRegistry BedRegistry, logger zerolog.Logger, m *metrics.Metrics) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		recordRepo:  recordRepo,
		bedRegistry: bedRegistry,
		logger:      logger,
		metrics:     m,
	}
}

// BedReleaseResult is the outcome for one pending release.
type BedReleaseResult struct {
	RecordID string
	Bed      domain.BedRef
	Released bool
	Error    string
}

// BedReleaseReport summarizes one reconciliation pass.
type BedReleaseReport struct {
	CheckedAt time.Time
	Pending   int
	Released  int
	Results   []BedReleaseResult
}

// ReleasePendingBeds scans for discharged records with occupied beds
// and releases them. Failures are reported per record, not aggregated
// into a single error, so one stuck bed cannot block the rest.
func (uc *ReconciliationUseCase) ReleasePendingBeds(ctx context.Context) (*BedReleaseReport, error) {
	records, err := uc.recordRepo.ListPendingBedReleases(ctx)
	if err != nil {
		return nil, err
	}

	report := &BedReleaseReport{
		CheckedAt: time.Now().UTC(),
		Pending:   len(records),
		Results:   make([]BedReleaseResult, 0, len(records)),
	}

	for _, record := range records {
		if record.Bed == nil {
			continue
		}

		result := BedReleaseResult{
			RecordID: record.ID,
			Bed:      *record.Bed,
		}

		err := uc.bedRegistry.SetStatus(ctx, record.Bed.RoomType, record.Bed.BedID, domain.BedStatusAvailable)
		if err != nil {
			result.Error = err.Error()

			uc.logger.Error().
				Err(err).
				Str("record_id", record.ID).
				Str("room_type", record.Bed.RoomType).
				Str("bed_id", record.Bed.BedID).
				Msg("bed release retry failed")
		} else {
			result.Released = true
			report.Released++

			if uc.metrics != nil {
				uc.metrics.BedsReleased.Inc()
			}

			uc.logger.Info().
				Str("record_id", record.ID).
				Str("room_type", record.Bed.RoomType).
				Str("bed_id", record.Bed.BedID).
				Msg("released bed for discharged record")
		}

		report.Results = append(report.Results, result)
	}

	return report, nil
}
