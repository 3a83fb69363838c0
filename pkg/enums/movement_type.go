package enums

import "fmt"

// MovementType classifies a stock movement log row.
type MovementType string

const (
	MovementTypeIn         MovementType = "in"
	MovementTypeOut        MovementType = "out"
	MovementTypeAdjustment MovementType = "adjustment"
	MovementTypeReserved   MovementType = "reserved"
	MovementTypeReleased   MovementType = "released"
)

var validMovementTypes = []MovementType{
	MovementTypeIn,
	MovementTypeOut,
	MovementTypeAdjustment,
	MovementTypeReserved,
	MovementTypeReleased,
}

// String implements fmt.Stringer.
func (m MovementType) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MovementType.
func (m MovementType) IsValid() bool {
	for _, candidate := range validMovementTypes {
		if candidate == m {
			return true
		}
	}
	return false
}

// IsManual reports whether callers may record the movement directly; reserved and
// released rows are written only by order preparation.
func (m MovementType) IsManual() bool {
	return m == MovementTypeIn || m == MovementTypeOut || m == MovementTypeAdjustment
}

// ParseMovementType converts raw input into a MovementType.
func ParseMovementType(value string) (MovementType, error) {
	for _, candidate := range validMovementTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid movement type %q", value)
}
