package projection

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/distroflow/cartcore/internal/bundles"
	"github.com/distroflow/cartcore/internal/cartstore"
	"github.com/distroflow/cartcore/internal/catalog"
	"github.com/distroflow/cartcore/pkg/types"
)

// LineView is the per-line read model. Subtotal is nil while the line is
// mid-edit or its price is unavailable; an unavailable price is flagged,
// never treated as zero.
type LineView struct {
	ProductID        string
	Name             string
	Quantity         types.Quantity
	CaseCount        int
	Subtotal         *decimal.Decimal
	PriceUnavailable bool
	SchemeEligible   bool
}

// View is the cart-wide read model recomputed on every store notification.
// GrandTotal sums only the available subtotals; excluded lines are flagged
// so the consumer can warn instead of silently under-totaling.
type View struct {
	Lines                 []LineView
	GrandTotal            decimal.Decimal
	HasUnavailablePricing bool
	Entitlement           bundles.Entitlement
}

// RuleSource supplies the currently active bundle rules. It is consulted
// on every recompute so the projection never holds stale rules.
type RuleSource interface {
	ActiveRules() []bundles.Rule
}

// RuleSourceFunc adapts a function to the RuleSource interface.
type RuleSourceFunc func() []bundles.Rule

func (fn RuleSourceFunc) ActiveRules() []bundles.Rule {
	return fn()
}

// Projection is a read-only consumer of cart snapshots. It subscribes to
// the store and keeps a merged view of totals and entitlements current.
type Projection struct {
	mu          sync.RWMutex
	products    catalog.Provider
	rules       RuleSource
	view        View
	unsubscribe func()
}

// New wires a projection to the store and computes the initial view.
func New(store *cartstore.Store, products catalog.Provider, rules RuleSource) (*Projection, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if products == nil {
		return nil, fmt.Errorf("product provider required")
	}
	if rules == nil {
		return nil, fmt.Errorf("rule source required")
	}

	p := &Projection{products: products, rules: rules}
	p.recompute(store.Snapshot())
	p.unsubscribe = store.Subscribe(func(event cartstore.Event) {
		p.recompute(event.Lines)
	})
	return p, nil
}

// View returns the current read model.
func (p *Projection) View() View {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.view
}

// Close detaches the projection from the store.
func (p *Projection) Close() {
	if p.unsubscribe != nil {
		p.unsubscribe()
		p.unsubscribe = nil
	}
}

func (p *Projection) recompute(lines []cartstore.Line) {
	activeRules := p.rules.ActiveRules()
	result := bundles.Evaluate(lines, activeRules)
	eligible := result.EligibleProductIDs(activeRules)

	view := View{
		Lines:       make([]LineView, len(lines)),
		GrandTotal:  decimal.Zero,
		Entitlement: result.Entitlement,
	}

	for i, line := range lines {
		lv := LineView{
			ProductID:      line.ProductID,
			Quantity:       line.Quantity,
			CaseCount:      line.CaseCount,
			SchemeEligible: eligible[line.ProductID],
		}

		product, known := p.products.Product(line.ProductID)
		if known {
			lv.Name = product.Name
		}
		if !known || !product.HasPrice() {
			lv.PriceUnavailable = true
			view.HasUnavailablePricing = true
		} else if value, settled := line.Quantity.Value(); settled {
			subtotal := product.Price.Mul(decimal.NewFromInt(int64(value)))
			lv.Subtotal = &subtotal
			view.GrandTotal = view.GrandTotal.Add(subtotal)
		}

		view.Lines[i] = lv
	}

	p.mu.Lock()
	p.view = view
	p.mu.Unlock()
}
