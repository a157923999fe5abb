package enums

import "fmt"

// CartEventKind labels the mutation that triggered a cart notification.
type CartEventKind string

const (
	CartEventLineAdded        CartEventKind = "line_added"
	CartEventQuantityChanged  CartEventKind = "quantity_changed"
	CartEventQuantityResolved CartEventKind = "quantity_resolved"
	CartEventCaseCountChanged CartEventKind = "case_count_changed"
	CartEventLineRemoved      CartEventKind = "line_removed"
	CartEventCartCleared      CartEventKind = "cart_cleared"
	CartEventCartRestored     CartEventKind = "cart_restored"
)

var validCartEventKinds = []CartEventKind{
	CartEventLineAdded,
	CartEventQuantityChanged,
	CartEventQuantityResolved,
	CartEventCaseCountChanged,
	CartEventLineRemoved,
	CartEventCartCleared,
	CartEventCartRestored,
}

// String implements fmt.Stringer.
func (c CartEventKind) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CartEventKind.
func (c CartEventKind) IsValid() bool {
	for _, candidate := range validCartEventKinds {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCartEventKind converts raw input into a CartEventKind.
func ParseCartEventKind(value string) (CartEventKind, error) {
	for _, candidate := range validCartEventKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cart event kind %q", value)
}
