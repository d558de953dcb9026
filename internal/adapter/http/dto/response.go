package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/infisparks/gautami-ledger/internal/domain"
	"github.com/infisparks/gautami-ledger/internal/usecase"
)

// RecordResponse represents a billing record in API responses. The
// derived totals are projected here so clients never recompute them.
type RecordResponse struct {
	ID           string     `json:"id"`
	PatientRef   string     `json:"patient_ref"`
	RoomType     string     `json:"room_type,omitempty"`
	BedID        string     `json:"bed_id,omitempty"`
	DischargedAt *time.Time `json:"discharged_at,omitempty"`
	Version      int64      `json:"version"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	DepositTotal  decimal.Decimal `json:"deposit_total"`
	TotalServices decimal.Decimal `json:"total_services"`
	TotalPaid     decimal.Decimal `json:"total_paid"`
	Outstanding   decimal.Decimal `json:"outstanding"`

	Services []ServiceItemResponse  `json:"services"`
	Payments []PaymentEntryResponse `json:"payments"`
}

// ServiceItemResponse represents a service line item.
type ServiceItemResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

// PaymentEntryResponse represents a payment entry.
type PaymentEntryResponse struct {
	ID         string          `json:"id"`
	Amount     decimal.Decimal `json:"amount"`
	Method     string          `json:"method"`
	RecordedAt time.Time       `json:"recorded_at"`
}

// RecordFromDomain converts a domain record to a response.
func RecordFromDomain(r *domain.LedgerRecord) *RecordResponse {
	resp := &RecordResponse{
		ID:            r.ID,
		PatientRef:    r.PatientRef,
		Version:       r.Version,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
		DepositTotal:  r.DepositTotal.Decimal(),
		TotalServices: r.TotalServices().Decimal(),
		TotalPaid:     r.TotalPaid().Decimal(),
		Outstanding:   r.Outstanding().Decimal(),
		Services:      make([]ServiceItemResponse, len(r.Services)),
		Payments:      make([]PaymentEntryResponse, len(r.Payments)),
	}

	if r.Bed != nil {
		resp.RoomType = r.Bed.RoomType
		resp.BedID = r.Bed.BedID
	}

	if r.DischargedAt != nil {
		at := *r.DischargedAt
		resp.DischargedAt = &at
	}

	for i, item := range r.Services {
		resp.Services[i] = ServiceItemResponse{
			ID:        item.ID,
			Name:      item.Name,
			Amount:    item.Amount.Decimal(),
			Status:    string(item.Status),
			CreatedAt: item.CreatedAt,
		}
	}

	for i, entry := range r.Payments {
		resp.Payments[i] = PaymentEntryResponse{
			ID:         entry.ID,
			Amount:     entry.Amount.Decimal(),
			Method:     entry.Method,
			RecordedAt: entry.RecordedAt,
		}
	}

	return resp
}

// RecordsFromDomain converts domain records to responses.
func RecordsFromDomain(records []*domain.LedgerRecord) []*RecordResponse {
	result := make([]*RecordResponse, len(records))
	for i, r := range records {
		result[i] = RecordFromDomain(r)
	}
	return result
}

// InvoiceResponse represents a projected invoice.
type InvoiceResponse struct {
	RecordID     string     `json:"record_id"`
	PatientRef   string     `json:"patient_ref"`
	GeneratedAt  time.Time  `json:"generated_at"`
	DischargedAt *time.Time `json:"discharged_at,omitempty"`

	TotalServices     decimal.Decimal `json:"total_services"`
	CompletedServices decimal.Decimal `json:"completed_services"`
	PendingServices   decimal.Decimal `json:"pending_services"`
	DepositTotal      decimal.Decimal `json:"deposit_total"`
	Outstanding       decimal.Decimal `json:"outstanding"`

	Services       []ServiceItemResponse `json:"services"`
	PaymentHistory []PaymentRowResponse  `json:"payment_history"`
}

// PaymentRowResponse is one line of the invoice payment history.
type PaymentRowResponse struct {
	Label      string          `json:"label"`
	Amount     decimal.Decimal `json:"amount"`
	RecordedAt time.Time       `json:"recorded_at"`
}

// InvoiceFromDomain converts an invoice view to a response.
func InvoiceFromDomain(v *domain.InvoiceView) *InvoiceResponse {
	resp := &InvoiceResponse{
		RecordID:          v.RecordID,
		PatientRef:        v.PatientRef,
		GeneratedAt:       v.GeneratedAt,
		DischargedAt:      v.DischargedAt,
		TotalServices:     v.TotalServicesAmount.Decimal(),
		CompletedServices: v.CompletedServicesAmount.Decimal(),
		PendingServices:   v.PendingServicesAmount.Decimal(),
		DepositTotal:      v.DepositTotal.Decimal(),
		Outstanding:       v.Outstanding.Decimal(),
		Services:          make([]ServiceItemResponse, len(v.Services)),
		PaymentHistory:    make([]PaymentRowResponse, len(v.PaymentHistory)),
	}

	for i, item := range v.Services {
		resp.Services[i] = ServiceItemResponse{
			ID:        item.ID,
			Name:      item.Name,
			Amount:    item.Amount.Decimal(),
			Status:    string(item.Status),
			CreatedAt: item.CreatedAt,
		}
	}

	for i, row := range v.PaymentHistory {
		resp.PaymentHistory[i] = PaymentRowResponse{
			Label:      row.Label,
			Amount:     row.Amount.Decimal(),
			RecordedAt: row.RecordedAt,
		}
	}

	return resp
}

// BedReleaseReportResponse summarizes a reconciliation pass.
type BedReleaseReportResponse struct {
	CheckedAt time.Time                  `json:"checked_at"`
	Pending   int                        `json:"pending"`
	Released  int                        `json:"released"`
	Results   []BedReleaseResultResponse `json:"results"`
}

// BedReleaseResultResponse is the outcome for one pending release.
type BedReleaseResultResponse struct {
	RecordID string `json:"record_id"`
	RoomType string `json:"room_type"`
	BedID    string `json:"bed_id"`
	Released bool   `json:"released"`
	Error    string `json:"error,omitempty"`
}

// BedReleaseReportFromUseCase converts the reconciliation report.
func BedReleaseReportFromUseCase(report *usecase.BedReleaseReport) *BedReleaseReportResponse {
	resp := &BedReleaseReportResponse{
		CheckedAt: report.CheckedAt,
		Pending:   report.Pending,
		Released:  report.Released,
		Results:   make([]BedReleaseResultResponse, len(report.Results)),
	}

	for i, result := range report.Results {
		resp.Results[i] = BedReleaseResultResponse{
			RecordID: result.RecordID,
			RoomType: result.Bed.RoomType,
			BedID:    result.Bed.BedID,
			Released: result.Released,
			Error:    result.Error,
		}
	}

	return resp
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
