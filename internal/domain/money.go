package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is a currency amount in minor units (paise). All arithmetic is
// integer arithmetic, so repeated additions never drift.
type Money int64

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return m + o
}

// Sub returns m - o.
func (m Money) Sub(o Money) Money {
	return m - o
}

// IsPositive reports whether m > 0.
func (m Money) IsPositive() bool {
	return m > 0
}

// IsNegative reports whether m < 0.
func (m Money) IsNegative() bool {
	return m < 0
}

// IsZero reports whether m == 0.
func (m Money) IsZero() bool {
	return m == 0
}

// Decimal returns the major-unit decimal representation.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -2)
}

// String renders the amount in major units with two fractional digits.
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// MoneyFromDecimal converts a major-unit decimal amount to Money.
// Amounts with sub-minor precision are rejected rather than rounded.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	shifted := d.Shift(2)
	if !shifted.IsInteger() {
		return 0, fmt.Errorf("%w: %s has more than two fractional digits", ErrInvalidAmount, d.String())
	}

	return Money(shifted.IntPart()), nil
}

// MoneyFromString parses a major-unit decimal string.
func MoneyFromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a decimal amount", ErrInvalidAmount, s)
	}

	return MoneyFromDecimal(d)
}
