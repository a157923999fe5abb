package quantity

import (
	"github.com/distroflow/cartcore/internal/catalog"
	"github.com/distroflow/cartcore/pkg/types"
)

// Policy is a set of pure functions enforcing per-product ordering rules.
// Unit-ordered products carry a minimum order quantity; case-ordered
// products are sold in fixed multiples of the case size.

// Normalized is the outcome of normalizing raw user input for a line.
type Normalized struct {
	Quantity types.Quantity
	Valid    bool
}

// Initial returns the quantity a freshly added line starts at: one case for
// case-ordered products, the MOQ otherwise. The new line is always settled.
func Initial(p catalog.Product) int {
	if p.IsCaseOrdered() {
		return p.CaseSize
	}
	if p.MinOrderQty < 1 {
		return 1
	}
	return p.MinOrderQty
}

// Normalize inspects raw input mid-edit without autocorrecting it. The
// editing marker is preserved as-is; committed values below the legal
// minimum are kept but flagged invalid. Snapping happens only on commit.
func Normalize(p catalog.Product, input types.Quantity) Normalized {
	if input.IsEditing() {
		return Normalized{Quantity: input, Valid: false}
	}
	value, _ := input.Value()
	if value < 0 {
		value = 0
	}
	return Normalized{
		Quantity: types.Committed(value),
		Valid:    isLegal(p, value),
	}
}

// Commit resolves a quantity at edit-blur: the editing marker and any value
// below the legal minimum snap up to the nearest legal quantity.
func Commit(p catalog.Product, q types.Quantity) int {
	value, ok := q.Value()
	if !ok {
		return Initial(p)
	}
	if p.IsCaseOrdered() {
		if value <= 0 {
			return p.CaseSize
		}
		if rem := value % p.CaseSize; rem != 0 {
			return value + p.CaseSize - rem
		}
		return value
	}
	if value < Initial(p) {
		return Initial(p)
	}
	return value
}

// MaxCaseCount bounds the orderable case count by available stock, floored
// at one: ordering below stock is intentionally never blocked.
func MaxCaseCount(p catalog.Product) int {
	if p.CaseSize < 1 {
		return 1
	}
	max := p.AvailableStock / p.CaseSize
	if max < 1 {
		return 1
	}
	return max
}

// ClampCaseCount restricts a requested case count to [1, MaxCaseCount].
func ClampCaseCount(p catalog.Product, count int) int {
	if count < 1 {
		return 1
	}
	if max := MaxCaseCount(p); count > max {
		return max
	}
	return count
}

func isLegal(p catalog.Product, value int) bool {
	if p.IsCaseOrdered() {
		return value >= p.CaseSize && value%p.CaseSize == 0
	}
	return value >= Initial(p)
}
