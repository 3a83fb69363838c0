package enums

import "fmt"

// BackorderStatus tracks the unfulfilled remainder of an order line.
type BackorderStatus string

const (
	BackorderStatusPending   BackorderStatus = "pending"
	BackorderStatusOrdered   BackorderStatus = "ordered"
	BackorderStatusFulfilled BackorderStatus = "fulfilled"
	BackorderStatusCancelled BackorderStatus = "cancelled"
)

var validBackorderStatuses = []BackorderStatus{
	BackorderStatusPending,
	BackorderStatusOrdered,
	BackorderStatusFulfilled,
	BackorderStatusCancelled,
}

// IsValid reports whether the value is a known BackorderStatus.
func (b BackorderStatus) IsValid() bool {
	for _, candidate := range validBackorderStatuses {
		if candidate == b {
			return true
		}
	}
	return false
}

// IsOpen reports whether the shortfall is still outstanding.
func (b BackorderStatus) IsOpen() bool {
	return b == BackorderStatusPending || b == BackorderStatusOrdered
}

// ParseBackorderStatus converts raw input into a BackorderStatus.
func ParseBackorderStatus(value string) (BackorderStatus, error) {
	for _, candidate := range validBackorderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid backorder status %q", value)
}

// BackorderPriority orders the backorder queue.
type BackorderPriority string

const (
	BackorderPriorityLow    BackorderPriority = "low"
	BackorderPriorityNormal BackorderPriority = "normal"
	BackorderPriorityHigh   BackorderPriority = "high"
	BackorderPriorityUrgent BackorderPriority = "urgent"
)

var validBackorderPriorities = []BackorderPriority{
	BackorderPriorityLow,
	BackorderPriorityNormal,
	BackorderPriorityHigh,
	BackorderPriorityUrgent,
}

// IsValid reports whether the value is a known BackorderPriority.
func (b BackorderPriority) IsValid() bool {
	for _, candidate := range validBackorderPriorities {
		if candidate == b {
			return true
		}
	}
	return false
}

// ParseBackorderPriority converts raw input into a BackorderPriority.
func ParseBackorderPriority(value string) (BackorderPriority, error) {
	for _, candidate := range validBackorderPriorities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid backorder priority %q", value)
}
