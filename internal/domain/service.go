package domain

import "time"

// ServiceStatus is the billing state of a service line item.
// The only legal transition is pending -> completed.
type ServiceStatus string

const (
	ServiceStatusPending   ServiceStatus = "pending"
	ServiceStatusCompleted ServiceStatus = "completed"
)

// ServiceLineItem is a single billable service on a stay. Items are
// owned by their LedgerRecord and exist only within it.
type ServiceLineItem struct {
	ID        string
	Name      string
	Amount    Money
	Status    ServiceStatus
	CreatedAt time.Time
}

// Complete flips the item to completed. It reports whether the status
// actually changed, so completing twice is a no-op.
func (s *ServiceLineItem) Complete() bool {
	if s.Status == ServiceStatusCompleted {
		return false
	}

	s.Status = ServiceStatusCompleted

	return true
}
