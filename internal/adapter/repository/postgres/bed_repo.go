package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/infisparks/gautami-ledger/internal/domain"
)

// BedRepository implements usecase.BedRegistry against the beds table
// maintained by the admission side.
type BedRepository struct {
	pool *pgxpool.Pool
}

// NewBedRepository creates a new BedRepository.
func NewBedRepository(pool *pgxpool.Pool) *BedRepository {
	return &BedRepository{pool: pool}
}

// GetStatus returns the occupancy state of a bed.
func (r *BedRepository) GetStatus(ctx context.Context, roomType, bedID string) (domain.BedStatus, error) {
	var status string

	err := r.pool.QueryRow(ctx, `
		SELECT status
		FROM beds
		WHERE room_type = $1 AND bed_id = $2`,
		roomType, bedID,
	).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrBedNotFound
		}

		return "", err
	}

	return domain.BedStatus(status), nil
}

// SetStatus updates a bed's occupancy state. Setting the status of an
// unknown bed is an error, never an insert; beds are provisioned by
// the admission side.
func (r *BedRepository) SetStatus(ctx context.Context, roomType, bedID string, status domain.BedStatus) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE beds
		SET status = $1, updated_at = now()
		WHERE room_type = $2 AND bed_id = $3`,
		string(status), roomType, bedID,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrBedNotFound
	}

	return nil
}
