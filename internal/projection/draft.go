package projection

import (
	"github.com/shopspring/decimal"

	"github.com/distroflow/cartcore/internal/bundles"
	"github.com/distroflow/cartcore/internal/cartstore"
	"github.com/distroflow/cartcore/internal/catalog"
	pkgerrors "github.com/distroflow/cartcore/pkg/errors"
)

// DraftLine is one submittable order line: always a settled quantity.
type DraftLine struct {
	ProductID string
	Name      string
	Quantity  int
	CaseCount int
	Subtotal  *decimal.Decimal
}

// OrderDraft is the payload the external submission layer reads on "place
// order". The caller clears the cart only after submission succeeds.
type OrderDraft struct {
	Lines       []DraftLine
	GrandTotal  decimal.Decimal
	Entitlement bundles.Entitlement
}

// BuildOrderDraft composes the current cart and entitlement into a draft.
// A cart with any line still mid-edit cannot be drafted: the transient
// state must never reach an external collaborator.
func BuildOrderDraft(store *cartstore.Store, products catalog.Provider, rules []bundles.Rule) (OrderDraft, error) {
	lines := store.Snapshot()
	if len(lines) == 0 {
		return OrderDraft{}, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	draft := OrderDraft{
		Lines:      make([]DraftLine, 0, len(lines)),
		GrandTotal: decimal.Zero,
	}
	var editing []string
	for _, line := range lines {
		value, settled := line.Quantity.Value()
		if !settled {
			editing = append(editing, line.ProductID)
			continue
		}

		dl := DraftLine{
			ProductID: line.ProductID,
			Quantity:  value,
			CaseCount: line.CaseCount,
		}
		if product, known := products.Product(line.ProductID); known {
			dl.Name = product.Name
			if product.HasPrice() {
				subtotal := product.Price.Mul(decimal.NewFromInt(int64(value)))
				dl.Subtotal = &subtotal
				draft.GrandTotal = draft.GrandTotal.Add(subtotal)
			}
		}
		draft.Lines = append(draft.Lines, dl)
	}

	if len(editing) > 0 {
		return OrderDraft{}, pkgerrors.New(pkgerrors.CodeStateConflict, "cart has unresolved quantity edits").
			WithDetails(map[string]any{"product_ids": editing})
	}

	draft.Entitlement = bundles.Evaluate(lines, rules).Entitlement
	return draft, nil
}
