package enums

import "fmt"

// PreparationStatus describes how much of an order line has been picked and reserved.
type PreparationStatus string

const (
	PreparationStatusPending   PreparationStatus = "pending"
	PreparationStatusPartial   PreparationStatus = "partial"
	PreparationStatusComplete  PreparationStatus = "complete"
	PreparationStatusBackorder PreparationStatus = "backorder"
)

var validPreparationStatuses = []PreparationStatus{
	PreparationStatusPending,
	PreparationStatusPartial,
	PreparationStatusComplete,
	PreparationStatusBackorder,
}

// String implements fmt.Stringer.
func (p PreparationStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PreparationStatus.
func (p PreparationStatus) IsValid() bool {
	for _, candidate := range validPreparationStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePreparationStatus converts raw input into a PreparationStatus.
func ParsePreparationStatus(value string) (PreparationStatus, error) {
	for _, candidate := range validPreparationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid preparation status %q", value)
}
