package domain

import "time"

// DepositRowLabel labels the synthetic opening-deposit row in the
// payment history.
const DepositRowLabel = "Deposit"

// InvoiceView is a read-only projection of a LedgerRecord for
// rendering. It never feeds back into persisted state.
type InvoiceView struct {
	RecordID     string
	PatientRef   string
	GeneratedAt  time.Time
	DischargedAt *time.Time

	TotalServicesAmount     Money
	CompletedServicesAmount Money
	PendingServicesAmount   Money
	DepositTotal            Money
	Outstanding             Money

	Services       []ServiceLineItem
	PaymentHistory []PaymentRow
}

// PaymentRow is one line of the invoice payment history.
type PaymentRow struct {
	Label      string
	Amount     Money
	RecordedAt time.Time
}

// ProjectInvoice maps a record snapshot to an invoice view. It is pure:
// the record is not mutated and the view shares no state with it.
//
// The payment history starts with a synthetic Deposit row carrying the
// opening deposit, followed by every payment entry most-recent-first.
func ProjectInvoice(r *LedgerRecord, now time.Time) *InvoiceView {
	view := &InvoiceView{
		RecordID:                r.ID,
		PatientRef:              r.PatientRef,
		GeneratedAt:             now,
		TotalServicesAmount:     r.TotalServices(),
		CompletedServicesAmount: r.TotalPaid(),
		PendingServicesAmount:   r.PendingServicesTotal(),
		DepositTotal:            r.DepositTotal,
		Outstanding:             r.Outstanding(),
	}

	if r.DischargedAt != nil {
		at := *r.DischargedAt
		view.DischargedAt = &at
	}

	view.Services = make([]ServiceLineItem, len(r.Services))
	copy(view.Services, r.Services)

	view.PaymentHistory = make([]PaymentRow, 0, len(r.Payments)+1)
	view.PaymentHistory = append(view.PaymentHistory, PaymentRow{
		Label:      DepositRowLabel,
		Amount:     r.OpeningDeposit(),
		RecordedAt: r.CreatedAt,
	})

	for _, p := range r.Payments {
		view.PaymentHistory = append(view.PaymentHistory, PaymentRow{
			Label:      p.Method,
			Amount:     p.Amount,
			RecordedAt: p.RecordedAt,
		})
	}

	return view
}
