package domain

import (
	"errors"
	"fmt"
)

var (
	// Record errors
	ErrRecordNotFound   = errors.New("billing record not found")
	ErrRecordDischarged = errors.New("record is discharged and read-only")
	ErrConcurrentUpdate = errors.New("record was modified concurrently")

	// Service ledger errors
	ErrServiceNotFound    = errors.New("service item not found")
	ErrInvalidServiceName = errors.New("invalid service name")

	// Payment errors
	ErrInvalidAmount        = errors.New("amount must be positive")
	ErrInvalidPaymentMethod = errors.New("payment method not allowed")
	ErrNegativeDeposit      = errors.New("opening deposit cannot be negative")

	// Discharge errors
	ErrMissingBedInfo    = errors.New("record has no bed assignment")
	ErrAlreadyDischarged = errors.New("record is already discharged")

	// Bed registry errors
	ErrBedNotFound = errors.New("bed not found")
)

// PartialDischargeError reports a discharge that committed the billing
// mutation but failed to release the bed. It carries enough context for
// a reconciliation job or an operator to retry only the bed release.
type PartialDischargeError struct {
	RecordID string
	Bed      BedRef
	Err      error
}

func (e *PartialDischargeError) Error() string {
	return fmt.Sprintf("record %s discharged but bed %s/%s not released: %v",
		e.RecordID, e.Bed.RoomType, e.Bed.BedID, e.Err)
}

func (e *PartialDischargeError) Unwrap() error {
	return e.Err
}
