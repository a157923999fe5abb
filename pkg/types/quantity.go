package types

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Quantity is a line quantity that is either a committed integer or the
// transient "user is typing" marker. The marker is a distinct state from
// zero: it must never flow into totals, rule evaluation, or storage.
type Quantity struct {
	value   int
	editing bool
}

// Committed returns a settled quantity.
func Committed(value int) Quantity {
	return Quantity{value: value}
}

// Editing returns the transient mid-edit marker.
func Editing() Quantity {
	return Quantity{editing: true}
}

// Value returns the committed quantity. ok is false while editing.
func (q Quantity) Value() (int, bool) {
	if q.editing {
		return 0, false
	}
	return q.value, true
}

// IsEditing reports whether the quantity is the transient marker.
func (q Quantity) IsEditing() bool {
	return q.editing
}

// String implements fmt.Stringer.
func (q Quantity) String() string {
	if q.editing {
		return "editing"
	}
	return strconv.Itoa(q.value)
}

// MarshalJSON encodes committed values as plain integers. The editing
// marker is not serializable; callers must resolve it first.
func (q Quantity) MarshalJSON() ([]byte, error) {
	if q.editing {
		return nil, fmt.Errorf("transient editing quantity cannot be serialized")
	}
	return json.Marshal(q.value)
}

// UnmarshalJSON decodes a plain integer into a committed quantity.
func (q *Quantity) UnmarshalJSON(data []byte) error {
	var value int
	if err := json.Unmarshal(data, &value); err != nil {
		return fmt.Errorf("decoding quantity: %w", err)
	}
	if value < 0 {
		return fmt.Errorf("quantity cannot be negative, got %d", value)
	}
	*q = Committed(value)
	return nil
}
