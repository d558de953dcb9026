package dto

import (
	"github.com/shopspring/decimal"

	"github.com/infisparks/gautami-ledger/internal/domain"
	"github.com/infisparks/gautami-ledger/internal/usecase"
)

// AdmitRecordRequest represents a request to open a billing record.
// Amounts cross the wire as decimals and are converted to minor units
// at this boundary; more than two fractional digits is rejected.
type AdmitRecordRequest struct {
	PatientRef     string          `json:"patient_ref"`
	OpeningDeposit decimal.Decimal `json:"opening_deposit"`
	RoomType       string          `json:"room_type,omitempty"`
	BedID          string          `json:"bed_id,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *AdmitRecordRequest) ToUseCaseInput() (usecase.AdmitRecordInput, error) {
	deposit, err := domain.MoneyFromDecimal(r.OpeningDeposit)
	if err != nil {
		return usecase.AdmitRecordInput{}, err
	}

	input := usecase.AdmitRecordInput{
		PatientRef:     r.PatientRef,
		OpeningDeposit: deposit,
	}

	if r.RoomType != "" || r.BedID != "" {
		input.Bed = &domain.BedRef{RoomType: r.RoomType, BedID: r.BedID}
	}

	return input, nil
}

// AddServiceRequest represents a request to append a service line item.
type AddServiceRequest struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// ToUseCaseInput converts to use case input.
func (r *AddServiceRequest) ToUseCaseInput(recordID string) (usecase.AddServiceInput, error) {
	amount, err := domain.MoneyFromDecimal(r.Amount)
	if err != nil {
		return usecase.AddServiceInput{}, err
	}

	return usecase.AddServiceInput{
		RecordID: recordID,
		Name:     r.Name,
		Amount:   amount,
	}, nil
}

// RecordPaymentRequest represents a request to record a payment.
type RecordPaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Method string          `json:"method"`
}

// ToUseCaseInput converts to use case input.
func (r *RecordPaymentRequest) ToUseCaseInput(recordID string) (usecase.RecordPaymentInput, error) {
	amount, err := domain.MoneyFromDecimal(r.Amount)
	if err != nil {
		return usecase.RecordPaymentInput{}, err
	}

	return usecase.RecordPaymentInput{
		RecordID: recordID,
		Amount:   amount,
		Method:   r.Method,
	}, nil
}
