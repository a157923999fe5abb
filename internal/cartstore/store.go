package cartstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/distroflow/cartcore/internal/catalog"
	"github.com/distroflow/cartcore/internal/persist"
	"github.com/distroflow/cartcore/internal/quantity"
	"github.com/distroflow/cartcore/pkg/enums"
	pkgerrors "github.com/distroflow/cartcore/pkg/errors"
	"github.com/distroflow/cartcore/pkg/logger"
	"github.com/distroflow/cartcore/pkg/types"
)

// Store is the single writer of cart state. Every mutation runs
// validate, apply, persist, notify under one lock, so independent call
// sites never observe a half-applied cart. All other components consume
// read-only snapshots.
type Store struct {
	mu        sync.Mutex
	sessionID uuid.UUID
	products  catalog.Provider
	adapter   persist.Adapter
	logg      *logger.Logger

	lines   []*Line
	index   map[string]*Line
	subs    map[int]Subscriber
	nextSub int
}

// New builds a cart store backed by the provided stack.
func New(products catalog.Provider, adapter persist.Adapter, logg *logger.Logger) (*Store, error) {
	if products == nil {
		return nil, fmt.Errorf("product provider required")
	}
	if adapter == nil {
		return nil, fmt.Errorf("persistence adapter required")
	}
	return &Store{
		sessionID: uuid.New(),
		products:  products,
		adapter:   adapter,
		logg:      logg,
		index:     map[string]*Line{},
		subs:      map[int]Subscriber{},
	}, nil
}

// SessionID identifies this store instance in logs.
func (s *Store) SessionID() uuid.UUID {
	return s.sessionID
}

// Subscribe registers a listener and returns its unsubscribe function.
func (s *Store) Subscribe(fn Subscriber) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// Snapshot returns a point-in-time copy of the cart lines.
func (s *Store) Snapshot() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Len returns the current number of cart lines.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines)
}

// AddLine inserts a settled line for the product at its initial quantity.
// Adding a product that is already in the cart is a no-op.
func (s *Store) AddLine(ctx context.Context, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, ok := s.products.Product(productID)
	if !ok {
		return s.notFound("product not found", productID)
	}
	if _, present := s.index[productID]; present {
		return nil
	}

	line := &Line{
		ProductID: productID,
		Quantity:  types.Committed(quantity.Initial(product)),
	}
	if product.IsCaseOrdered() {
		line.CaseCount = 1
	}
	s.lines = append(s.lines, line)
	s.index[productID] = line

	s.persistLocked(ctx)
	s.notifyLocked(enums.CartEventLineAdded, productID)
	return nil
}

// SetQuantity applies raw user input to a unit-ordered line. The editing
// marker is preserved as-is; no value is snapped until CommitQuantity.
func (s *Store) SetQuantity(ctx context.Context, productID string, input types.Quantity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	line, product, err := s.lineLocked(productID)
	if err != nil {
		return err
	}
	if product.IsCaseOrdered() {
		return s.modeConflict("quantity edits require a unit-ordered line", productID)
	}

	normalized := quantity.Normalize(product, input)
	line.Quantity = normalized.Quantity

	s.persistLocked(ctx)
	s.notifyLocked(enums.CartEventQuantityChanged, productID)
	return nil
}

// CommitQuantity resolves a line at edit-blur: editing or below-minimum
// values snap up to the product's legal minimum.
func (s *Store) CommitQuantity(ctx context.Context, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	line, product, err := s.lineLocked(productID)
	if err != nil {
		return err
	}
	if product.IsCaseOrdered() {
		return s.modeConflict("quantity commits require a unit-ordered line", productID)
	}

	line.Quantity = types.Committed(quantity.Commit(product, line.Quantity))

	s.persistLocked(ctx)
	s.notifyLocked(enums.CartEventQuantityResolved, productID)
	return nil
}

// SetCaseCount updates a case-ordered line, clamping the count to the
// stock-derived range and recomputing the derived quantity.
func (s *Store) SetCaseCount(ctx context.Context, productID string, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	line, product, err := s.lineLocked(productID)
	if err != nil {
		return err
	}
	if !product.IsCaseOrdered() {
		return s.modeConflict("case counts require a case-ordered line", productID)
	}

	clamped := quantity.ClampCaseCount(product, count)
	line.CaseCount = clamped
	line.Quantity = types.Committed(clamped * product.CaseSize)

	s.persistLocked(ctx)
	s.notifyLocked(enums.CartEventCaseCountChanged, productID)
	return nil
}

// RemoveLine deletes the line for the product.
func (s *Store) RemoveLine(ctx context.Context, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, present := s.index[productID]; !present {
		return s.notFound("cart line not found", productID)
	}

	delete(s.index, productID)
	for i, line := range s.lines {
		if line.ProductID == productID {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
			break
		}
	}

	s.persistLocked(ctx)
	s.notifyLocked(enums.CartEventLineRemoved, productID)
	return nil
}

// Clear empties the cart. Called by the submission layer only after the
// order has been accepted.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines = nil
	s.index = map[string]*Line{}

	s.persistLocked(ctx)
	s.notifyLocked(enums.CartEventCartCleared, "")
	return nil
}

// Restore rebuilds the cart from the persisted snapshot. Entries whose
// product is no longer in the catalog are dropped; restored values are
// re-normalized against current ordering rules and stock.
func (s *Store) Restore(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.adapter.Load(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load cart snapshot")
	}

	s.lines = nil
	s.index = map[string]*Line{}

	for _, record := range records {
		product, ok := s.products.Product(record.ProductID)
		if !ok {
			if s.logg != nil {
				s.logg.Warn(s.logg.WithProductID(ctx, record.ProductID), "dropping restored line for unknown product")
			}
			continue
		}

		line := &Line{ProductID: record.ProductID}
		if product.IsCaseOrdered() {
			count := record.CaseCount
			if count < 1 && product.CaseSize > 0 {
				count = record.Quantity / product.CaseSize
			}
			count = quantity.ClampCaseCount(product, count)
			line.CaseCount = count
			line.Quantity = types.Committed(count * product.CaseSize)
		} else {
			line.Quantity = types.Committed(quantity.Commit(product, types.Committed(record.Quantity)))
		}
		s.lines = append(s.lines, line)
		s.index[line.ProductID] = line
	}

	s.persistLocked(ctx)
	s.notifyLocked(enums.CartEventCartRestored, "")
	return nil
}

func (s *Store) lineLocked(productID string) (*Line, catalog.Product, error) {
	line, present := s.index[productID]
	if !present {
		return nil, catalog.Product{}, s.notFound("cart line not found", productID)
	}
	product, ok := s.products.Product(productID)
	if !ok {
		return nil, catalog.Product{}, s.notFound("product not found", productID)
	}
	return line, product, nil
}

func (s *Store) snapshotLocked() []Line {
	out := make([]Line, len(s.lines))
	for i, line := range s.lines {
		out[i] = *line
	}
	return out
}

// persistLocked snapshots the cart through the adapter. Editing lines are
// resolved to their commit value so the transient marker never crosses the
// storage boundary. Failures degrade durability, never the session.
func (s *Store) persistLocked(ctx context.Context) {
	records := make([]persist.LineRecord, 0, len(s.lines))
	for _, line := range s.lines {
		record := persist.LineRecord{ProductID: line.ProductID, CaseCount: line.CaseCount}
		if value, ok := line.Quantity.Value(); ok {
			record.Quantity = value
		} else if product, found := s.products.Product(line.ProductID); found {
			record.Quantity = quantity.Commit(product, line.Quantity)
		}
		records = append(records, record)
	}

	if err := s.adapter.Save(ctx, records); err != nil {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
				"session_id": s.sessionID.String(),
				"error":      err.Error(),
			}), "cart snapshot write failed; in-memory state stays authoritative")
		}
	}
}

func (s *Store) notifyLocked(kind enums.CartEventKind, productID string) {
	if len(s.subs) == 0 {
		return
	}
	event := Event{Kind: kind, ProductID: productID, Lines: s.snapshotLocked()}
	for _, fn := range s.subs {
		fn(event)
	}
}

func (s *Store) notFound(message, productID string) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, message).WithDetails(map[string]any{
		"product_id": productID,
	})
}

func (s *Store) modeConflict(message, productID string) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, message).WithDetails(map[string]any{
		"product_id": productID,
	})
}
