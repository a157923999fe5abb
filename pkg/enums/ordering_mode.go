package enums

import "fmt"

// OrderingMode selects how a product's line quantity is entered and validated.
type OrderingMode string

const (
	OrderingModeUnit OrderingMode = "unit"
	OrderingModeCase OrderingMode = "case"
)

var validOrderingModes = []OrderingMode{
	OrderingModeUnit,
	OrderingModeCase,
}

// String implements fmt.Stringer.
func (o OrderingMode) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderingMode.
func (o OrderingMode) IsValid() bool {
	for _, candidate := range validOrderingModes {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOrderingMode converts raw input into an OrderingMode.
func ParseOrderingMode(value string) (OrderingMode, error) {
	for _, candidate := range validOrderingModes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ordering mode %q", value)
}
