package catalog

import (
	"github.com/distroflow/cartcore/pkg/enums"
	"github.com/shopspring/decimal"
)

// Product is the read-only record supplied by the external product catalog.
// A nil Price means "price unavailable", which is distinct from zero.
type Product struct {
	ID             string
	Name           string
	Price          *decimal.Decimal
	OrderingMode   enums.OrderingMode
	CaseSize       int
	MinOrderQty    int
	AvailableStock int
}

// IsCaseOrdered reports whether the product is sold in fixed case multiples.
func (p Product) IsCaseOrdered() bool {
	return p.OrderingMode == enums.OrderingModeCase
}

// HasPrice reports whether pricing data is available for the product.
func (p Product) HasPrice() bool {
	return p.Price != nil
}

// Provider supplies product records by opaque identifier.
type Provider interface {
	Product(id string) (Product, bool)
}

// Snapshot is an immutable in-memory Provider built from a product list.
type Snapshot struct {
	byID  map[string]Product
	order []string
}

// NewSnapshot indexes the given products. Later duplicates of the same id
// replace earlier ones, matching catalog refresh semantics.
func NewSnapshot(products []Product) *Snapshot {
	s := &Snapshot{byID: make(map[string]Product, len(products))}
	for _, p := range products {
		if _, seen := s.byID[p.ID]; !seen {
			s.order = append(s.order, p.ID)
		}
		s.byID[p.ID] = p
	}
	return s
}

// Product implements Provider.
func (s *Snapshot) Product(id string) (Product, bool) {
	p, ok := s.byID[id]
	return p, ok
}

// Products returns the catalog contents in ingestion order.
func (s *Snapshot) Products() []Product {
	out := make([]Product, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// Len returns the number of products in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.byID)
}
