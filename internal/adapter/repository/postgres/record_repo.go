package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/infisparks/gautami-ledger/internal/domain"
	"github.com/infisparks/gautami-ledger/internal/usecase"
)

// querier is the subset of pgx shared by *pgxpool.Pool and pgx.Tx, so
// the same load helpers serve locked and unlocked reads.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// RecordRepository implements usecase.RecordRepository. Amounts are
// stored as BIGINT minor units; service and payment logs are
// append-only child tables read most-recent-first.
type RecordRepository struct {
	pool *pgxpool.Pool
}

// NewRecordRepository creates a new RecordRepository.
func NewRecordRepository(pool *pgxpool.Pool) *RecordRepository {
	return &RecordRepository{pool: pool}
}

const selectRecordSQL = `
SELECT id, patient_ref, deposit_total, room_type, bed_id, discharged_at, version, created_at, updated_at
FROM billing_records
WHERE id = $1`

// Create inserts the billing record row. A fresh record has no
// service or payment entries yet.
func (r *RecordRepository) Create(ctx context.Context, tx usecase.Transaction, record *domain.LedgerRecord) error {
	var roomType, bedID *string
	if record.Bed != nil {
		roomType = &record.Bed.RoomType
		bedID = &record.Bed.BedID
	}

	_, err := tx.(*Tx).PgxTx().Exec(ctx, `
		INSERT INTO billing_records (id, patient_ref, deposit_total, room_type, bed_id, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		record.ID,
		record.PatientRef,
		int64(record.DepositTotal),
		roomType,
		bedID,
		record.Version,
		record.CreatedAt,
		record.UpdatedAt,
	)

	return err
}

// GetByID loads the full aggregate: record row plus both logs.
func (r *RecordRepository) GetByID(ctx context.Context, id string) (*domain.LedgerRecord, error) {
	return loadRecord(ctx, r.pool, id, selectRecordSQL)
}

// GetByIDForUpdate loads the aggregate with the record row locked FOR
// UPDATE, serializing concurrent merges on the same record.
func (r *RecordRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.LedgerRecord, error) {
	return loadRecord(ctx, tx.(*Tx).PgxTx(), id, selectRecordSQL+" FOR UPDATE")
}

// AppendService inserts a new service line item.
func (r *RecordRepository) AppendService(ctx context.Context, tx usecase.Transaction, recordID string, item *domain.ServiceLineItem) error {
	_, err := tx.(*Tx).PgxTx().Exec(ctx, `
		INSERT INTO service_items (id, record_id, name, amount, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		item.ID,
		recordID,
		item.Name,
		int64(item.Amount),
		string(item.Status),
		item.CreatedAt,
	)

	return err
}

// MarkServiceCompleted flips one item to completed.
func (r *RecordRepository) MarkServiceCompleted(ctx context.Context, tx usecase.Transaction, itemID string, updatedAt time.Time) error {
	tag, err := tx.(*Tx).PgxTx().Exec(ctx, `
		UPDATE service_items
		SET status = $1, completed_at = $2
		WHERE id = $3`,
		string(domain.ServiceStatusCompleted),
		updatedAt,
		itemID,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrServiceNotFound
	}

	return nil
}

// AppendPayment inserts a new payment entry.
func (r *RecordRepository) AppendPayment(ctx context.Context, tx usecase.Transaction, recordID string, entry *domain.PaymentEntry) error {
	_, err := tx.(*Tx).PgxTx().Exec(ctx, `
		INSERT INTO payment_entries (id, record_id, amount, method, recorded_at)
		VALUES ($1, $2, $3, $4, $5)`,
		entry.ID,
		recordID,
		int64(entry.Amount),
		entry.Method,
		entry.RecordedAt,
	)

	return err
}

// UpdateRecord writes the record row back guarded by the version it
// was read at. A missed compare-and-set means someone else committed
// in between; the caller re-runs the merge on a fresh snapshot.
func (r *RecordRepository) UpdateRecord(ctx context.Context, tx usecase.Transaction, record *domain.LedgerRecord) error {
	var dischargedAt *time.Time
	if record.DischargedAt != nil {
		at := *record.DischargedAt
		dischargedAt = &at
	}

	tag, err := tx.(*Tx).PgxTx().Exec(ctx, `
		UPDATE billing_records
		SET deposit_total = $1, discharged_at = $2, updated_at = $3, version = version + 1
		WHERE id = $4 AND version = $5`,
		int64(record.DepositTotal),
		dischargedAt,
		record.UpdatedAt,
		record.ID,
		record.Version,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrConcurrentUpdate
	}

	record.Version++

	return nil
}

// List lists record rows with pagination, newest first. The listing is
// shallow; logs are loaded per record on demand.
func (r *RecordRepository) List(ctx context.Context, limit, offset int) ([]*domain.LedgerRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, patient_ref, deposit_total, room_type, bed_id, discharged_at, version, created_at, updated_at
		FROM billing_records
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecordRows(rows)
}

// ListPendingBedReleases returns discharged records whose bed is still
// marked occupied in the registry.
func (r *RecordRepository) ListPendingBedReleases(ctx context.Context) ([]*domain.LedgerRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT r.id, r.patient_ref, r.deposit_total, r.room_type, r.bed_id, r.discharged_at, r.version, r.created_at, r.updated_at
		FROM billing_records r
		JOIN beds b ON b.room_type = r.room_type AND b.bed_id = r.bed_id
		WHERE r.discharged_at IS NOT NULL AND b.status = $1
		ORDER BY r.discharged_at ASC`,
		string(domain.BedStatusOccupied),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecordRows(rows)
}

func loadRecord(ctx context.Context, q querier, id, recordSQL string) (*domain.LedgerRecord, error) {
	record, err := scanRecord(q.QueryRow(ctx, recordSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	if record.Services, err = loadServices(ctx, q, id); err != nil {
		return nil, err
	}

	if record.Payments, err = loadPayments(ctx, q, id); err != nil {
		return nil, err
	}

	return record, nil
}

func loadServices(ctx context.Context, q querier, recordID string) ([]domain.ServiceLineItem, error) {
	rows, err := q.Query(ctx, `
		SELECT id, name, amount, status, created_at
		FROM service_items
		WHERE record_id = $1
		ORDER BY created_at DESC, id DESC`,
		recordID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.ServiceLineItem
	for rows.Next() {
		var (
			item   domain.ServiceLineItem
			amount int64
			status string
		)
		if err := rows.Scan(&item.ID, &item.Name, &amount, &status, &item.CreatedAt); err != nil {
			return nil, err
		}

		item.Amount = domain.Money(amount)
		item.Status = domain.ServiceStatus(status)
		items = append(items, item)
	}

	return items, rows.Err()
}

func loadPayments(ctx context.Context, q querier, recordID string) ([]domain.PaymentEntry, error) {
	rows, err := q.Query(ctx, `
		SELECT id, amount, method, recorded_at
		FROM payment_entries
		WHERE record_id = $1
		ORDER BY recorded_at DESC, id DESC`,
		recordID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.PaymentEntry
	for rows.Next() {
		var (
			entry  domain.PaymentEntry
			amount int64
		)
		if err := rows.Scan(&entry.ID, &amount, &entry.Method, &entry.RecordedAt); err != nil {
			return nil, err
		}

		entry.Amount = domain.Money(amount)
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

func scanRecord(row pgx.Row) (*domain.LedgerRecord, error) {
	var (
		record       domain.LedgerRecord
		depositTotal int64
		roomType     *string
		bedID        *string
	)

	err := row.Scan(
		&record.ID,
		&record.PatientRef,
		&depositTotal,
		&roomType,
		&bedID,
		&record.DischargedAt,
		&record.Version,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	record.DepositTotal = domain.Money(depositTotal)
	if roomType != nil && bedID != nil {
		record.Bed = &domain.BedRef{RoomType: *roomType, BedID: *bedID}
	}

	return &record, nil
}

func scanRecordRows(rows pgx.Rows) ([]*domain.LedgerRecord, error) {
	var records []*domain.LedgerRecord
	for rows.Next() {
		var (
			record       domain.LedgerRecord
			depositTotal int64
			roomType     *string
			bedID        *string
		)

		err := rows.Scan(
			&record.ID,
			&record.PatientRef,
			&depositTotal,
			&roomType,
			&bedID,
			&record.DischargedAt,
			&record.Version,
			&record.CreatedAt,
			&record.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}

		record.DepositTotal = domain.Money(depositTotal)
		if roomType != nil && bedID != nil {
			record.Bed = &domain.BedRef{RoomType: *roomType, BedID: *bedID}
		}

		records = append(records, &record)
	}

	return records, rows.Err()
}
