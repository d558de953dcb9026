package domain

import "time"

// LedgerRecord is the per-stay billing aggregate: opening deposit,
// itemized services, payment log, bed reference and discharge state.
// One record exists per admission and is never deleted; once
// discharged it is permanently read-only for billing mutations.
//
// Services and Payments are ordered most-recent-first.
type LedgerRecord struct {
	ID           string
	PatientRef   string
	DepositTotal Money
	Services     []ServiceLineItem
	Payments     []PaymentEntry
	Bed          *BedRef
	DischargedAt *time.Time
	Version      int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsDischarged reports whether the record is terminal.
func (r *LedgerRecord) IsDischarged() bool {
	return r.DischargedAt != nil
}

// TotalServices is the sum of all service amounts, completed or not.
func (r *LedgerRecord) TotalServices() Money {
	var total Money
	for _, s := range r.Services {
		total = total.Add(s.Amount)
	}

	return total
}

// TotalPaid is the sum of completed service amounts only.
func (r *LedgerRecord) TotalPaid() Money {
	var total Money
	for _, s := range r.Services {
		if s.Status == ServiceStatusCompleted {
			total = total.Add(s.Amount)
		}
	}

	return total
}

// PendingServicesTotal is the sum of pending service amounts.
func (r *LedgerRecord) PendingServicesTotal() Money {
	return r.TotalServices().Sub(r.TotalPaid())
}

// PaymentsTotal is the sum of all recorded payment entries.
func (r *LedgerRecord) PaymentsTotal() Money {
	var total Money
	for _, p := range r.Payments {
		total = total.Add(p.Amount)
	}

	return total
}

// OpeningDeposit is the deposit supplied at admission, reconstructed
// from the running total minus the payment log. Replaying the payment
// sequence over it always reproduces DepositTotal.
func (r *LedgerRecord) OpeningDeposit() Money {
	return r.DepositTotal.Sub(r.PaymentsTotal())
}

// Outstanding is depositTotal + sum(all service amounts) - totalPaid.
// It may be negative on overpayment and is never clamped.
func (r *LedgerRecord) Outstanding() Money {
	return r.DepositTotal.Add(r.TotalServices()).Sub(r.TotalPaid())
}

// AddService prepends a pending service line item.
func (r *LedgerRecord) AddService(id, name string, amount Money, now time.Time) (*ServiceLineItem, error) {
	if r.IsDischarged() {
		return nil, ErrRecordDischarged
	}

	if err := ValidateServiceName(name); err != nil {
		return nil, err
	}

	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	item := ServiceLineItem{
		ID:        id,
		Name:      name,
		Amount:    amount,
		Status:    ServiceStatusPending,
		CreatedAt: now,
	}

	r.Services = append([]ServiceLineItem{item}, r.Services...)
	r.UpdatedAt = now

	return &r.Services[0], nil
}

// CompleteService transitions the item at index (most-recent-first) to
// completed. Completing an already-completed item is a no-op; changed
// reports whether anything moved.
func (r *LedgerRecord) CompleteService(index int, now time.Time) (item *ServiceLineItem, changed bool, err error) {
	if r.IsDischarged() {
		return nil, false, ErrRecordDischarged
	}

	if index < 0 || index >= len(r.Services) {
		return nil, false, ErrServiceNotFound
	}

	item = &r.Services[index]
	if !item.Complete() {
		return item, false, nil
	}

	r.UpdatedAt = now

	return item, true, nil
}

// RecordPayment prepends a payment entry and folds its amount into the
// running deposit total.
func (r *LedgerRecord) RecordPayment(id string, amount Money, method string, now time.Time) (*PaymentEntry, error) {
	if r.IsDischarged() {
		return nil, ErrRecordDischarged
	}

	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	entry := PaymentEntry{
		ID:         id,
		Amount:     amount,
		Method:     NormalizePaymentMethod(method),
		RecordedAt: now,
	}

	r.Payments = append([]PaymentEntry{entry}, r.Payments...)
	r.DepositTotal = r.DepositTotal.Add(amount)
	r.UpdatedAt = now

	return &r.Payments[0], nil
}

// MarkDischarged sets the terminal discharge timestamp. The bed
// reference stays on the record after discharge so the release can be
// retried if it failed.
func (r *LedgerRecord) MarkDischarged(now time.Time) error {
	if r.Bed == nil {
		return ErrMissingBedInfo
	}

	if r.IsDischarged() {
		return ErrAlreadyDischarged
	}

	at := now
	r.DischargedAt = &at
	r.UpdatedAt = now

	return nil
}

// Clone returns a deep copy, so snapshots handed to subscribers or
// caches cannot alias the live aggregate.
func (r *LedgerRecord) Clone() *LedgerRecord {
	c := *r

	c.Services = make([]ServiceLineItem, len(r.Services))
	copy(c.Services, r.Services)

	c.Payments = make([]PaymentEntry, len(r.Payments))
	copy(c.Payments, r.Payments)

	if r.Bed != nil {
		bed := *r.Bed
		c.Bed = &bed
	}

	if r.DischargedAt != nil {
		at := *r.DischargedAt
		c.DischargedAt = &at
	}

	return &c
}
