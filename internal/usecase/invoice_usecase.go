package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/infisparks/gautami-ledger/internal/domain"
	"github.com/infisparks/gautami-ledger/internal/infrastructure/metrics"
)

// InvoiceUseCase serves invoice projections. Snapshots are cached per
// record version; a newer version always gets a fresh projection, so
// the cache never has to be invalidated on mutation.
type InvoiceUseCase struct {
	recordRepo RecordRepository
	cache      Cache
	cacheTTL   time.Duration
	logger     zerolog.Logger
	metrics    *metrics.Metrics
}

// NewInvoiceUseCase creates a new InvoiceUseCase. cache and metrics
// may be nil.
func NewInvoiceUseCase(recordRepo RecordRepository, cache Cache, cacheTTL time.Duration, logger zerolog.Logger, m *metrics.Metrics) *InvoiceUseCase {
	if cacheTTL <= 0 {
		cacheTTL = DefaultInvoiceCacheTTL
	}

	return &InvoiceUseCase{
		recordRepo: recordRepo,
		cache:      cache,
		cacheTTL:   cacheTTL,
		logger:     logger,
		metrics:    m,
	}
}

// GetInvoice projects the record into its printable invoice view.
func (uc *InvoiceUseCase) GetInvoice(ctx context.Context, recordID string) (*domain.InvoiceView, error) {
	record, err := uc.recordRepo.GetByID(ctx, recordID)
	if err != nil {
		return nil, err
	}

	key := invoiceCacheKey(record.ID, record.Version)

	if uc.cache != nil {
		if data, err := uc.cache.Get(ctx, key); err == nil && data != nil {
			var view domain.InvoiceView
			if err := json.Unmarshal(data, &view); err == nil {
				if uc.metrics != nil {
					uc.metrics.InvoiceCacheHits.Inc()
				}

				return &view, nil
			}
		}
	}

	view := domain.ProjectInvoice(record, time.Now().UTC())

	if uc.metrics != nil {
		uc.metrics.InvoiceCacheMisses.Inc()
	}

	if uc.cache != nil {
		if data, err := json.Marshal(view); err == nil {
			if err := uc.cache.Set(ctx, key, data, uc.cacheTTL); err != nil {
				uc.logger.Warn().Err(err).Str("record_id", record.ID).Msg("invoice cache write failed")
			}
		}
	}

	return view, nil
}

func invoiceCacheKey(recordID string, version int64) string {
	return fmt.Sprintf("invoice:%s:v%d", recordID, version)
}
