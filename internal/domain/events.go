package domain

import "time"

// Event types
const (
	EventTypeRecordAdmitted   = "record.admitted"
	EventTypeServiceAdded     = "record.service_added"
	EventTypeServiceCompleted = "record.service_completed"
	EventTypePaymentRecorded  = "record.payment_recorded"
	EventTypeRecordDischarged = "record.discharged"
	EventTypeBedReleased      = "bed.released"
)

// Aggregate types
const (
	AggregateTypeRecord = "billing_record"
	AggregateTypeBed    = "bed"
)

// OutboxEvent represents a committed change awaiting publication.
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// ServiceAddedEvent payload
type ServiceAddedEvent struct {
	RecordID    string `json:"record_id"`
	ServiceID   string `json:"service_id"`
	Name        string `json:"name"`
	Amount      string `json:"amount"`
	Outstanding string `json:"outstanding"`
}

// ServiceCompletedEvent payload
type ServiceCompletedEvent struct {
	RecordID  string `json:"record_id"`
	ServiceID string `json:"service_id"`
	Amount    string `json:"amount"`
	TotalPaid string `json:"total_paid"`
}

// PaymentRecordedEvent payload
type PaymentRecordedEvent struct {
	RecordID     string `json:"record_id"`
	PaymentID    string `json:"payment_id"`
	Amount       string `json:"amount"`
	Method       string `json:"method"`
	DepositTotal string `json:"deposit_total"`
}

// RecordDischargedEvent payload
type RecordDischargedEvent struct {
	RecordID     string `json:"record_id"`
	RoomType     string `json:"room_type"`
	BedID        string `json:"bed_id"`
	DischargedAt string `json:"discharged_at"`
}

// BedReleasedEvent payload
type BedReleasedEvent struct {
	RecordID string `json:"record_id"`
	RoomType string `json:"room_type"`
	BedID    string `json:"bed_id"`
}

// RecordAdmittedEvent payload
type RecordAdmittedEvent struct {
	RecordID       string `json:"record_id"`
	PatientRef     string `json:"patient_ref"`
	OpeningDeposit string `json:"opening_deposit"`
}
