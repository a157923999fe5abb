package cartstore

import (
	"github.com/distroflow/cartcore/pkg/enums"
	"github.com/distroflow/cartcore/pkg/types"
)

// Line is one entry in the cart. CaseCount is meaningful only for
// case-ordered products, where Quantity is always CaseCount times the
// product's case size.
type Line struct {
	ProductID string
	Quantity  types.Quantity
	CaseCount int
}

// Settled reports whether the line holds a committed quantity.
func (l Line) Settled() bool {
	return !l.Quantity.IsEditing()
}

// Event describes one committed mutation. Lines is the post-mutation
// snapshot, so every subscriber observes the same state in the same tick.
type Event struct {
	Kind      enums.CartEventKind
	ProductID string
	Lines     []Line
}

// Subscriber receives events synchronously after each successful mutation.
// Subscribers must not mutate the store from inside the callback.
type Subscriber func(Event)
