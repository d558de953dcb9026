package domain

import (
	"strings"
	"time"
)

// PaymentEntry is an append-only payment against a stay. Entries are
// never edited or deleted once recorded.
type PaymentEntry struct {
	ID         string
	Amount     Money
	Method     string
	RecordedAt time.Time
}

// PaymentMethods is the configured allow-list of payment methods.
// The set is open by configuration, closed at runtime.
type PaymentMethods map[string]bool

// NewPaymentMethods builds an allow-list from configured method names.
func NewPaymentMethods(methods []string) PaymentMethods {
	set := make(PaymentMethods, len(methods))
	for _, m := range methods {
		m = NormalizePaymentMethod(m)
		if m != "" {
			set[m] = true
		}
	}

	return set
}

// Allowed reports whether method is in the allow-list.
func (p PaymentMethods) Allowed(method string) bool {
	return p[NormalizePaymentMethod(method)]
}

// NormalizePaymentMethod canonicalizes a method name for comparison
// and storage.
func NormalizePaymentMethod(method string) string {
	return strings.ToLower(strings.TrimSpace(method))
}
