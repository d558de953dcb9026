package domain

import (
	"fmt"
	"strings"
)

// Validation constants
const (
	MaxServiceNameLength = 255
	MaxPatientRefLength  = 128
)

// ValidateServiceName validates a service line item name.
func ValidateServiceName(name string) error {
	name = strings.TrimSpace(name)

	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidServiceName)
	}

	if len(name) > MaxServiceNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidServiceName, MaxServiceNameLength)
	}

	return nil
}

// ValidatePatientRef validates the external patient identifier.
func ValidatePatientRef(ref string) error {
	ref = strings.TrimSpace(ref)

	if ref == "" {
		return fmt.Errorf("patient reference cannot be empty")
	}

	if len(ref) > MaxPatientRefLength {
		return fmt.Errorf("patient reference exceeds %d characters", MaxPatientRefLength)
	}

	return nil
}

// ValidatePagination validates and limits pagination parameters.
func ValidatePagination(limit, offset int) (int, int) {
	const MaxPageSize = 1000
	const DefaultPageSize = 50

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
