package cartstore

import (
	"context"
	"errors"
	"testing"

	"github.com/distroflow/cartcore/internal/catalog"
	"github.com/distroflow/cartcore/internal/persist"
	"github.com/distroflow/cartcore/pkg/enums"
	pkgerrors "github.com/distroflow/cartcore/pkg/errors"
	"github.com/distroflow/cartcore/pkg/types"
)

func testCatalog() *catalog.Snapshot {
	return catalog.NewSnapshot([]catalog.Product{
		{ID: "soap", OrderingMode: enums.OrderingModeUnit, MinOrderQty: 10, AvailableStock: 500},
		{ID: "oil", OrderingMode: enums.OrderingModeUnit, MinOrderQty: 1, AvailableStock: 500},
		{ID: "water", OrderingMode: enums.OrderingModeCase, CaseSize: 24, AvailableStock: 50},
	})
}

func newTestStore(t *testing.T, adapter persist.Adapter) *Store {
	t.Helper()
	if adapter == nil {
		adapter = persist.NewMemory(nil)
	}
	store, err := New(testCatalog(), adapter, nil)
	if err != nil {
		t.Fatalf("unexpected error building store: %v", err)
	}
	return store
}

type recordingAdapter struct {
	ops     *[]string
	saveErr error
	saved   []persist.LineRecord
	loaded  []persist.LineRecord
}

func (r *recordingAdapter) Load(ctx context.Context) ([]persist.LineRecord, error) {
	return r.loaded, nil
}

func (r *recordingAdapter) Save(ctx context.Context, records []persist.LineRecord) error {
	if r.ops != nil {
		*r.ops = append(*r.ops, "persist")
	}
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saved = records
	return nil
}

func TestAddLineStartsSettled(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, nil)
	ctx := context.Background()

	if err := store.AddLine(ctx, "soap"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.AddLine(ctx, "water"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := store.Snapshot()
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if value, ok := lines[0].Quantity.Value(); !ok || value != 10 {
		t.Fatalf("unit line must start at MOQ, got %s", lines[0].Quantity)
	}
	if value, ok := lines[1].Quantity.Value(); !ok || value != 24 || lines[1].CaseCount != 1 {
		t.Fatalf("case line must start at one case, got %+v", lines[1])
	}
}

func TestAddLineDuplicateIsNoOp(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, nil)
	ctx := context.Background()

	var events int
	store.Subscribe(func(Event) { events++ })

	if err := store.AddLine(ctx, "soap"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.AddLine(ctx, "soap"); err != nil {
		t.Fatalf("duplicate add must not error: %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("expected a single line, got %d", store.Len())
	}
	if events != 1 {
		t.Fatalf("duplicate add must not notify, got %d events", events)
	}
}

func TestAddLineUnknownProduct(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, nil)
	err := store.AddLine(context.Background(), "ghost")
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
	if store.Len() != 0 {
		t.Fatal("failed add must not insert a line")
	}
}

func TestSetQuantityPreservesEditingState(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, nil)
	ctx := context.Background()

	if err := store.AddLine(ctx, "soap"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.SetQuantity(ctx, "soap", types.Editing()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := store.Snapshot()
	if !lines[0].Quantity.IsEditing() {
		t.Fatalf("expected editing marker, got %s", lines[0].Quantity)
	}
}

func TestCommitQuantitySnapsToMOQ(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, nil)
	ctx := context.Background()

	if err := store.AddLine(ctx, "soap"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.SetQuantity(ctx, "soap", types.Committed(12)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.SetQuantity(ctx, "soap", types.Editing()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.CommitQuantity(ctx, "soap"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := store.Snapshot()
	if value, ok := lines[0].Quantity.Value(); !ok || value != 10 {
		t.Fatalf("blur with no re-entry must resolve to MOQ, got %s", lines[0].Quantity)
	}
}

func TestSetCaseCountClampsToStock(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, nil)
	ctx := context.Background()

	if err := store.AddLine(ctx, "water"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.SetCaseCount(ctx, "water", 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := store.Snapshot()
	if lines[0].CaseCount != 2 {
		t.Fatalf("expected clamp to floor(50/24)=2 cases, got %d", lines[0].CaseCount)
	}
	if value, _ := lines[0].Quantity.Value(); value != 48 {
		t.Fatalf("quantity must stay caseCount*caseSize, got %d", value)
	}
}

func TestModeMismatchedOpsConflictWithoutMutating(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, nil)
	ctx := context.Background()

	if err := store.AddLine(ctx, "water"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.AddLine(ctx, "soap"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	before := store.Snapshot()

	if err := store.SetQuantity(ctx, "water", types.Committed(5)); !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected STATE_CONFLICT for quantity edit on case line, got %v", err)
	}
	if err := store.SetCaseCount(ctx, "soap", 2); !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected STATE_CONFLICT for case edit on unit line, got %v", err)
	}

	after := store.Snapshot()
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("failed ops must not mutate state: %+v != %+v", before[i], after[i])
		}
	}
}

func TestUnknownLineOpsReportNotFound(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, nil)
	ctx := context.Background()

	if err := store.SetQuantity(ctx, "ghost", types.Committed(5)); !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
	if err := store.SetCaseCount(ctx, "ghost", 2); !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
	if err := store.RemoveLine(ctx, "ghost"); !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestRemoveLineAndClear(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, nil)
	ctx := context.Background()

	for _, id := range []string{"soap", "oil", "water"} {
		if err := store.AddLine(ctx, id); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if err := store.RemoveLine(ctx, "oil"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := store.Snapshot()
	if len(lines) != 2 || lines[0].ProductID != "soap" || lines[1].ProductID != "water" {
		t.Fatalf("expected ordered remainder, got %+v", lines)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty cart after clear, got %d", store.Len())
	}
}

func TestPersistHappensBeforeNotify(t *testing.T) {
	t.Parallel()

	var ops []string
	adapter := &recordingAdapter{ops: &ops}
	store := newTestStore(t, adapter)

	store.Subscribe(func(Event) { ops = append(ops, "notify") })

	if err := store.AddLine(context.Background(), "soap"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(ops) != 2 || ops[0] != "persist" || ops[1] != "notify" {
		t.Fatalf("expected persist then notify, got %v", ops)
	}
}

func TestPersistFailureDoesNotFailMutation(t *testing.T) {
	t.Parallel()

	adapter := &recordingAdapter{saveErr: errors.New("disk full")}
	store := newTestStore(t, adapter)

	var notified bool
	store.Subscribe(func(Event) { notified = true })

	if err := store.AddLine(context.Background(), "soap"); err != nil {
		t.Fatalf("mutation must survive persistence failure: %v", err)
	}
	if !notified {
		t.Fatal("subscribers must still be notified after a failed write")
	}
	if store.Len() != 1 {
		t.Fatal("in-memory state must remain authoritative")
	}
}

func TestPersistedRecordResolvesEditingLine(t *testing.T) {
	t.Parallel()

	adapter := &recordingAdapter{}
	store := newTestStore(t, adapter)
	ctx := context.Background()

	if err := store.AddLine(ctx, "soap"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.SetQuantity(ctx, "soap", types.Editing()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(adapter.saved) != 1 {
		t.Fatalf("expected one persisted record, got %d", len(adapter.saved))
	}
	if adapter.saved[0].Quantity != 10 {
		t.Fatalf("editing line must persist at its commit value, got %d", adapter.saved[0].Quantity)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, nil)
	ctx := context.Background()

	var events int
	unsubscribe := store.Subscribe(func(Event) { events++ })

	if err := store.AddLine(ctx, "soap"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	unsubscribe()
	if err := store.AddLine(ctx, "oil"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if events != 1 {
		t.Fatalf("expected delivery to stop after unsubscribe, got %d events", events)
	}
}

func TestEventCarriesKindAndSnapshot(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, nil)
	ctx := context.Background()

	var last Event
	store.Subscribe(func(e Event) { last = e })

	if err := store.AddLine(ctx, "water"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if last.Kind != enums.CartEventLineAdded || last.ProductID != "water" {
		t.Fatalf("unexpected event %+v", last)
	}
	if err := store.SetCaseCount(ctx, "water", 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if last.Kind != enums.CartEventCaseCountChanged {
		t.Fatalf("unexpected event kind %s", last.Kind)
	}
	if len(last.Lines) != 1 || last.Lines[0].CaseCount != 2 {
		t.Fatalf("event must carry the post-mutation snapshot, got %+v", last.Lines)
	}
}

func TestRestoreNormalizesAgainstCurrentCatalog(t *testing.T) {
	t.Parallel()

	adapter := &recordingAdapter{loaded: []persist.LineRecord{
		{ProductID: "soap", Quantity: 4},
		{ProductID: "water", Quantity: 240, CaseCount: 10},
		{ProductID: "discontinued", Quantity: 5},
	}}
	store := newTestStore(t, adapter)

	if err := store.Restore(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := store.Snapshot()
	if len(lines) != 2 {
		t.Fatalf("unknown products must be dropped, got %d lines", len(lines))
	}
	if value, _ := lines[0].Quantity.Value(); value != 10 {
		t.Fatalf("below-MOQ restore must snap to MOQ, got %d", value)
	}
	if lines[1].CaseCount != 2 {
		t.Fatalf("restored case count must re-clamp to stock, got %d", lines[1].CaseCount)
	}
	if value, _ := lines[1].Quantity.Value(); value != 48 {
		t.Fatalf("restored quantity must stay derived, got %d", value)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, nil)
	ctx := context.Background()

	if err := store.AddLine(ctx, "soap"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	snap := store.Snapshot()
	snap[0].Quantity = types.Committed(999)

	if value, _ := store.Snapshot()[0].Quantity.Value(); value != 10 {
		t.Fatal("mutating a snapshot must not affect the store")
	}
}
