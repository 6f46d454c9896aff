package estimator

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"roofquote/services"
)

// fakeRecords is an in-memory RecordStore that counts writes and can be
// told to fail.
type fakeRecords struct {
	mu      sync.Mutex
	data    map[string]QuoteData
	saves   int
	failing bool
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{data: make(map[string]QuoteData)}
}

func (f *fakeRecords) Load(quoteID string) (QuoteData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.data[quoteID]
	if !ok {
		return QuoteData{}, fmt.Errorf("quote %s not found", quoteID)
	}
	return QuoteData{
		Items:           services.CloneItems(d.Items),
		TemplateConfigs: d.TemplateConfigs,
	}, nil
}

func (f *fakeRecords) SaveItems(quoteID string, items []services.ItemRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errors.New("record store unavailable")
	}
	d := f.data[quoteID]
	d.Items = services.CloneItems(items)
	f.data[quoteID] = d
	f.saves++
	return nil
}

func (f *fakeRecords) setFailing(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing = v
}

func (f *fakeRecords) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves
}

func (f *fakeRecords) savedItems(quoteID string) []services.ItemRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return services.CloneItems(f.data[quoteID].Items)
}

func storeDefaults() []services.CategoryDefaults {
	return []services.CategoryDefaults{
		{
			Category:     services.CategoryMaterials,
			Slug:         "materials",
			MinimumCount: 2,
			Items: []services.ItemRecord{
				{Name: "Synthetic Underlayment", Unit: "roll", Quantity: 1, UnitCost: 55, MarkupPct: 30, ShowInApp: true},
				{Name: "Drip Edge", Unit: "lf", Quantity: 1, UnitCost: 2.5, MarkupPct: 30, ShowInApp: true},
			},
		},
	}
}

func openTestStore(t *testing.T, records *fakeRecords, opts ...Option) *Store {
	t.Helper()
	records.mu.Lock()
	if _, ok := records.data["q1"]; !ok {
		records.data["q1"] = QuoteData{}
	}
	records.mu.Unlock()

	opts = append([]Option{WithFlushDelay(20 * time.Millisecond)}, opts...)
	s, err := Open(records, storeDefaults(), "q1", opts...)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() { s.stop() })
	return s
}

// waitForSaves polls until the record store has seen at least n writes.
func waitForSaves(t *testing.T, records *fakeRecords, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if records.saveCount() >= n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("record store never reached %d saves (got %d)", n, records.saveCount())
}

func TestOpen_BootstrapsEmptyQuote(t *testing.T) {
	records := newFakeRecords()
	s := openTestStore(t, records)

	items := s.Items()
	if len(items) != 2 {
		t.Fatalf("expected 2 bootstrapped items, got %d", len(items))
	}
	if items[0].ID != "materials-1" || items[1].ID != "materials-2" {
		t.Errorf("ids = %q, %q; want deterministic seed ids", items[0].ID, items[1].ID)
	}

	// The bootstrap itself must reach persistence via the debounced flush.
	waitForSaves(t, records, 1)
	if len(records.savedItems("q1")) != 2 {
		t.Errorf("persisted %d items, want 2", len(records.savedItems("q1")))
	}
}

func TestOpen_ExistingItemsUntouched(t *testing.T) {
	records := newFakeRecords()
	records.data["q1"] = QuoteData{Items: []services.ItemRecord{
		{ID: "materials-1", Name: "Renamed", Category: services.CategoryMaterials, Quantity: 9, UnitCost: 70, Total: 630},
		{ID: "materials-2", Name: "Drip Edge", Category: services.CategoryMaterials, Quantity: 1, UnitCost: 2.5, MarkupPct: 30, Total: 3.25},
	}}

	s := openTestStore(t, records)

	items := s.Items()
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Name != "Renamed" || items[0].Quantity != 9 {
		t.Error("reconcile must not overwrite user edits on existing items")
	}
}

func TestOpen_SurfacesConsistencyConflicts(t *testing.T) {
	records := newFakeRecords()
	records.data["q1"] = QuoteData{Items: []services.ItemRecord{
		{ID: "materials-1", Name: "Synthetic Underlayment", Category: services.CategoryMaterials, Quantity: 9, UnitCost: 70, Total: 630},
		{ID: "materials-2", Name: "Drip Edge", Category: services.CategoryMaterials, Quantity: 1, UnitCost: 2.5, MarkupPct: 30, Total: 999},
	}}

	s := openTestStore(t, records)

	conflicts := s.Conflicts()
	if len(conflicts) != 1 {
		t.Fatalf("expected 1 conflict, got %d", len(conflicts))
	}
	if conflicts[0].ID != "materials-2" {
		t.Errorf("conflict on %s, want materials-2", conflicts[0].ID)
	}

	// The drifted record keeps its persisted values until someone edits it.
	items := s.Items()
	if items[1].Total != 999 {
		t.Errorf("total = %v, want the persisted 999", items[1].Total)
	}
}

func TestOpen_CleanQuoteHasNoConflicts(t *testing.T) {
	records := newFakeRecords()
	s := openTestStore(t, records)

	if conflicts := s.Conflicts(); len(conflicts) != 0 {
		t.Errorf("expected no conflicts on a bootstrapped quote, got %v", conflicts)
	}
}

func TestStore_DebounceCoalescesWrites(t *testing.T) {
	records := newFakeRecords()
	s := openTestStore(t, records)
	waitForSaves(t, records, 1) // bootstrap write
	base := records.saveCount()

	// A burst of edits inside the quiet period produces exactly one write
	// carrying the final state.
	for _, qty := range []float64{2, 3, 4, 5} {
		if _, err := s.UpdateField("materials-1", "quantity", qty); err != nil {
			t.Fatalf("UpdateField error: %v", err)
		}
	}

	waitForSaves(t, records, base+1)
	time.Sleep(100 * time.Millisecond) // no trailing extra writes

	if got := records.saveCount(); got != base+1 {
		t.Errorf("save count = %d, want %d (burst must coalesce)", got, base+1)
	}

	saved := records.savedItems("q1")
	idx := services.FindItem(saved, "materials-1")
	if idx < 0 || saved[idx].Quantity != 5 {
		t.Errorf("persisted quantity = %v, want final value 5", saved[idx].Quantity)
	}
}

func TestStore_Add(t *testing.T) {
	records := newFakeRecords()
	s := openTestStore(t, records)

	added, err := s.Add(services.ItemRecord{
		Name: "Pipe Boot", Category: services.CategoryPins, Unit: "ea",
		Quantity: 3, UnitCost: 15, MarkupPct: 30,
	})
	if err != nil {
		t.Fatalf("Add error: %v", err)
	}
	if added.ID == "" {
		t.Error("added item should get a fresh id")
	}
	if added.SourceType != services.SourceManual {
		t.Errorf("source = %q, want manual", added.SourceType)
	}
	if math.Abs(added.Total-services.ComputeTotalFlat(15, 3, 30)) > services.PriceTolerance {
		t.Errorf("total = %v not derived on entry", added.Total)
	}

	if _, err := s.Add(services.ItemRecord{Name: ""}); err == nil {
		t.Error("expected validation error for unnamed item")
	}

	if _, err := s.Add(services.ItemRecord{ID: added.ID, Name: "Dup", Category: services.CategoryPins}); err == nil {
		t.Error("expected error for duplicate id")
	}
}

func TestStore_UpdateField_UndefinedDerivationCommits(t *testing.T) {
	records := newFakeRecords()
	records.data["q1"] = QuoteData{Items: []services.ItemRecord{
		{ID: "materials-1", Name: "Allowance", Category: services.CategoryMaterials, Quantity: 0, UnitCost: 0, Total: 0},
		{ID: "materials-2", Name: "Drip Edge", Category: services.CategoryMaterials, Quantity: 1, UnitCost: 2.5, MarkupPct: 30, Total: 3.25},
	}}
	s := openTestStore(t, records)

	item, err := s.UpdateField("materials-1", "total", 150.0)
	if !errors.Is(err, services.ErrUndefinedDerivation) {
		t.Fatalf("err = %v, want ErrUndefinedDerivation", err)
	}
	if !item.NeedsReview {
		t.Error("returned item should be flagged for review")
	}

	// The flagged record is committed: the edit intent stands.
	items := s.Items()
	if !items[services.FindItem(items, "materials-1")].NeedsReview {
		t.Error("flagged record must be committed to the store")
	}
}

func TestStore_UpdateField_RejectionLeavesStateAlone(t *testing.T) {
	records := newFakeRecords()
	s := openTestStore(t, records)
	before := s.Items()

	if _, err := s.UpdateField("materials-1", "quantity", -4.0); err == nil {
		t.Fatal("expected rejection of negative quantity")
	}
	after := s.Items()
	if after[0].Quantity != before[0].Quantity {
		t.Error("rejected edit mutated the store")
	}

	if _, err := s.UpdateField("no-such-id", "quantity", 1.0); err == nil {
		t.Error("expected error for unknown item")
	}
}

func TestStore_RemoveMany_AllOrNothing(t *testing.T) {
	records := newFakeRecords()
	s := openTestStore(t, records)

	if err := s.RemoveMany([]string{"materials-1", "ghost"}); err == nil {
		t.Fatal("expected error when any id is missing")
	}
	if len(s.Items()) != 2 {
		t.Error("failed bulk remove must remove nothing")
	}

	if err := s.RemoveMany([]string{"materials-1", "materials-2"}); err != nil {
		t.Fatalf("RemoveMany error: %v", err)
	}
	if len(s.Items()) != 0 {
		t.Error("expected empty list after bulk remove")
	}

	if err := s.RemoveMany(nil); err == nil {
		t.Error("expected error for empty selection")
	}
}

func TestStore_MoveCategory_AllOrNothing(t *testing.T) {
	records := newFakeRecords()
	s := openTestStore(t, records)

	if err := s.MoveCategory([]string{"materials-1"}, "Bogus"); err == nil {
		t.Fatal("expected error for invalid target category")
	}
	if err := s.MoveCategory([]string{"materials-1", "ghost"}, services.CategoryServices); err == nil {
		t.Fatal("expected error when any id is missing")
	}
	for _, it := range s.Items() {
		if it.Category != services.CategoryMaterials {
			t.Error("failed move must move nothing")
		}
	}

	if err := s.MoveCategory([]string{"materials-1"}, services.CategoryServices); err != nil {
		t.Fatalf("MoveCategory error: %v", err)
	}
	items := s.Items()
	moved := items[services.FindItem(items, "materials-1")]
	if moved.Category != services.CategoryServices {
		t.Errorf("category = %q, want Services", moved.Category)
	}
}

func TestStore_ApplyTemplate(t *testing.T) {
	records := newFakeRecords()
	records.data["q1"] = QuoteData{
		TemplateConfigs: map[string][]services.ItemRecord{
			"Architectural Asphalt": {
				{Name: "Architectural Shingles", Category: services.CategoryShingles, Unit: "sq", Quantity: 24, UnitCost: 112, MarkupPct: 30},
			},
		},
	}
	s := openTestStore(t, records)

	names := s.TemplateNames()
	if len(names) != 1 || names[0] != "Architectural Asphalt" {
		t.Errorf("template names = %v", names)
	}

	materialized, err := s.ApplyTemplate("Architectural Asphalt")
	if err != nil {
		t.Fatalf("ApplyTemplate error: %v", err)
	}
	if len(materialized) != 1 {
		t.Fatalf("expected 1 materialized item, got %d", len(materialized))
	}
	if materialized[0].SourceType != services.SourceTemplate {
		t.Errorf("source = %q, want template", materialized[0].SourceType)
	}

	if _, err := s.ApplyTemplate("Unknown"); !errors.Is(err, services.ErrTemplateNotConfigured) {
		t.Errorf("err = %v, want ErrTemplateNotConfigured", err)
	}

	// Variable-bearing family names succeed even without configured items.
	vars, err := s.ApplyTemplate("Comp to Standing Seam Metal")
	if err != nil {
		t.Fatalf("ApplyTemplate (variables) error: %v", err)
	}
	if len(vars) != 5 {
		t.Errorf("expected 5 variable items, got %d", len(vars))
	}
}

func TestStore_ApplyRecommended(t *testing.T) {
	records := newFakeRecords()
	s := openTestStore(t, records)
	before := len(s.Items())

	out := s.ApplyRecommended([]services.ItemRecord{
		{Name: "Ice & Water Shield", Category: services.CategoryMaterials, Unit: "roll", Quantity: 2, UnitCost: 48, MarkupPct: 30},
	})
	if len(out) != 1 {
		t.Fatalf("expected 1 item, got %d", len(out))
	}
	if out[0].SourceType != services.SourceRecommended {
		t.Errorf("source = %q", out[0].SourceType)
	}
	if len(s.Items()) != before+1 {
		t.Error("recommended item not appended")
	}

	if out := s.ApplyRecommended(nil); out != nil {
		t.Errorf("empty candidates should return nil, got %v", out)
	}
}

func TestStore_ApplyConsolidatedEdit_Collapses(t *testing.T) {
	records := newFakeRecords()
	records.data["q1"] = QuoteData{Items: []services.ItemRecord{
		{ID: "materials-1", Name: "Gutter Guard", Category: services.CategoryMaterials, Unit: "lf", Quantity: 3, UnitCost: 2, Total: 6},
		{ID: "materials-2", Name: "Gutter Guard", Category: services.CategoryMaterials, Unit: "lf", Quantity: 7, UnitCost: 2, Total: 14},
	}}
	s := openTestStore(t, records)

	rows := s.Consolidated()
	if len(rows) != 1 || rows[0].Quantity != 10 {
		t.Fatalf("unexpected consolidation: %+v", rows)
	}

	total := 25.0
	survivor, err := s.ApplyConsolidatedEdit(rows[0], services.ConsolidatedEdit{Total: &total})
	if err != nil {
		t.Fatalf("ApplyConsolidatedEdit error: %v", err)
	}
	if survivor.ID != "materials-1" {
		t.Errorf("survivor = %q, want materials-1", survivor.ID)
	}

	items := s.Items()
	if len(items) != 1 {
		t.Fatalf("expected 1 raw item after collapse, got %d", len(items))
	}
	if items[0].Total != 25 || items[0].Quantity != 10 {
		t.Errorf("survivor state = %+v", items[0])
	}
	if math.Abs(items[0].MarkupPct-25) > services.PriceTolerance {
		t.Errorf("markup = %v, want back-solved 25", items[0].MarkupPct)
	}
}

func TestStore_FlushFailureKeepsState(t *testing.T) {
	records := newFakeRecords()

	var flushErrs []error
	var errMu sync.Mutex
	s := openTestStore(t, records, WithFlushErrorHandler(func(err error) {
		errMu.Lock()
		flushErrs = append(flushErrs, err)
		errMu.Unlock()
	}))
	waitForSaves(t, records, 1)

	records.setFailing(true)
	if _, err := s.UpdateField("materials-1", "quantity", 8.0); err != nil {
		t.Fatalf("UpdateField error: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		errMu.Lock()
		n := len(flushErrs)
		errMu.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	errMu.Lock()
	if len(flushErrs) == 0 {
		errMu.Unlock()
		t.Fatal("flush error handler never invoked")
	}
	errMu.Unlock()

	// Optimistic semantics: the in-memory edit survives the failed write.
	items := s.Items()
	if items[services.FindItem(items, "materials-1")].Quantity != 8 {
		t.Error("in-memory state lost after failed flush")
	}

	// Synchronous retry once the store recovers.
	records.setFailing(false)
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush after recovery: %v", err)
	}
	saved := records.savedItems("q1")
	if saved[services.FindItem(saved, "materials-1")].Quantity != 8 {
		t.Error("retry did not persist the retained state")
	}
}

func TestStore_CloseFlushesPendingState(t *testing.T) {
	records := newFakeRecords()
	records.data["q1"] = QuoteData{Items: []services.ItemRecord{
		{ID: "materials-1", Name: "Drip Edge", Category: services.CategoryMaterials, Quantity: 1, UnitCost: 2.5, MarkupPct: 30, Total: 3.25},
		{ID: "materials-2", Name: "Underlayment", Category: services.CategoryMaterials, Quantity: 1, UnitCost: 55, MarkupPct: 30, Total: 71.5},
	}}
	s, err := Open(records, storeDefaults(), "q1", WithFlushDelay(time.Hour))
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}

	if _, err := s.UpdateField("materials-1", "quantity", 4.0); err != nil {
		t.Fatalf("UpdateField error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	saved := records.savedItems("q1")
	if saved[services.FindItem(saved, "materials-1")].Quantity != 4 {
		t.Error("Close must flush pending state despite the long debounce")
	}
}

func TestPool_SingleStorePerQuote(t *testing.T) {
	records := newFakeRecords()
	records.data["q1"] = QuoteData{}
	pool := NewPool(records, storeDefaults(), WithFlushDelay(20*time.Millisecond))

	a, err := pool.Get("q1")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	b, err := pool.Get("q1")
	if err != nil {
		t.Fatalf("second Get error: %v", err)
	}
	if a != b {
		t.Error("pool handed out two stores for one quote")
	}

	if _, err := pool.Get("missing"); err == nil {
		t.Error("expected error for unknown quote")
	}

	if err := pool.Release("q1"); err != nil {
		t.Fatalf("Release error: %v", err)
	}
	if err := pool.Release("never-opened"); err != nil {
		t.Errorf("Release of unopened quote should be a no-op, got %v", err)
	}
}

func TestPool_DiscardSkipsFlush(t *testing.T) {
	records := newFakeRecords()
	records.data["q1"] = QuoteData{Items: []services.ItemRecord{
		{ID: "materials-1", Name: "Drip Edge", Category: services.CategoryMaterials, Quantity: 1, UnitCost: 2.5, MarkupPct: 30, Total: 3.25},
		{ID: "materials-2", Name: "Underlayment", Category: services.CategoryMaterials, Quantity: 1, UnitCost: 55, MarkupPct: 30, Total: 71.5},
	}}
	pool := NewPool(records, storeDefaults(), WithFlushDelay(time.Hour))

	s, err := pool.Get("q1")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if _, err := s.UpdateField("materials-1", "quantity", 9.0); err != nil {
		t.Fatalf("UpdateField error: %v", err)
	}

	pool.Discard("q1")
	time.Sleep(50 * time.Millisecond)

	if records.saveCount() != 0 {
		t.Errorf("Discard must not flush, saw %d writes", records.saveCount())
	}
}
