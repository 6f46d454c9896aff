package estimator

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"roofquote/services"
)

// DefaultFlushDelay is the quiet period between the last mutation and the
// persistence write.
const DefaultFlushDelay = time.Second

// Store holds the in-memory item list of exactly one quote. All
// mutations are synchronous and copy-on-write: callers never observe a
// partially applied list. Every mutation arms (or re-arms) a single
// debounced flush, so intermediate states are never persisted and two
// writes for the same quote never race.
//
// Single-writer model: one active editor session per quote. The mutex
// only protects the store from its own flush timer.
type Store struct {
	quoteID  string
	records  RecordStore
	defaults []services.CategoryDefaults

	flushDelay time.Duration
	onFlushErr func(error)

	mu        sync.Mutex
	items     []services.ItemRecord
	templates map[string][]services.ItemRecord
	conflicts []services.Conflict
	timer     *time.Timer
	dirty     bool
}

// Option configures a Store at Open time.
type Option func(*Store)

// WithFlushDelay overrides the debounce quiet period.
func WithFlushDelay(d time.Duration) Option {
	return func(s *Store) { s.flushDelay = d }
}

// WithFlushErrorHandler installs a callback invoked when a debounced
// flush fails. The in-memory list keeps the attempted state either way;
// the handler decides about retry or notification.
func WithFlushErrorHandler(fn func(error)) Option {
	return func(s *Store) { s.onFlushErr = fn }
}

// Open loads a quote's persisted items, reconciles them against the
// default catalog (bootstrapping the full default set for an empty
// quote), and schedules persistence if reconciliation changed anything.
func Open(records RecordStore, defaults []services.CategoryDefaults, quoteID string, opts ...Option) (*Store, error) {
	data, err := records.Load(quoteID)
	if err != nil {
		return nil, err
	}

	s := &Store{
		quoteID:    quoteID,
		records:    records,
		defaults:   defaults,
		flushDelay: DefaultFlushDelay,
		templates:  data.TemplateConfigs,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.onFlushErr == nil {
		s.onFlushErr = func(err error) {
			log.Printf("estimator: flush failed for quote %s: %v", quoteID, err)
		}
	}

	merged, changed := services.Reconcile(data.Items, defaults)
	s.items = merged

	if conflicts := services.CheckConsistency(merged); len(conflicts) > 0 {
		// Surfaced for manual review, never silently corrected.
		for _, c := range conflicts {
			log.Printf("estimator: quote %s: %v", quoteID, c)
		}
		s.conflicts = conflicts
	}

	if changed {
		s.mu.Lock()
		s.markDirtyLocked()
		s.mu.Unlock()
	}

	return s, nil
}

// QuoteID returns the id of the quote this store belongs to.
func (s *Store) QuoteID() string { return s.quoteID }

// Items returns a copy of the current raw item list.
func (s *Store) Items() []services.ItemRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return services.CloneItems(s.items)
}

// Consolidated returns the display aggregates for the current list.
func (s *Store) Consolidated() []services.ConsolidatedItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return services.GroupByName(s.items)
}

// Conflicts returns the consistency conflicts detected when the quote
// was loaded. The records involved still carry their persisted values;
// resolving a conflict is a manual edit, never an automatic correction.
func (s *Store) Conflicts() []services.Conflict {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]services.Conflict(nil), s.conflicts...)
}

// TemplateNames returns the configured template names, loaded with the
// quote. Authoring happens elsewhere; this store only reads them.
func (s *Store) TemplateNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.templates))
	for name := range s.templates {
		names = append(names, name)
	}
	return names
}

// Add validates and appends a new item. A missing id gets a fresh uuid; a
// missing source tag is recorded as a manual add. The total is derived
// from the item's cost inputs so the consistency invariant holds on
// entry.
func (s *Store) Add(item services.ItemRecord) (services.ItemRecord, error) {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.SourceType == "" {
		item.SourceType = services.SourceManual
	}
	item.Total = services.DeriveTotal(item)

	if err := item.Validate(); err != nil {
		return services.ItemRecord{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if services.FindItem(s.items, item.ID) >= 0 {
		return services.ItemRecord{}, fmt.Errorf("estimator: duplicate item id %s", item.ID)
	}

	next := services.CloneItems(s.items)
	s.items = append(next, item)
	s.markDirtyLocked()
	return item, nil
}

// UpdateField applies a single-field edit to the item with the given id,
// following the one-direction pricing rule. An undefined derivation
// (ErrUndefinedDerivation) still commits the flagged record -- the edit
// intent stands, only the multiplier is unresolved -- and the error is
// surfaced.
func (s *Store) UpdateField(id, field string, value any) (services.ItemRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := services.FindItem(s.items, id)
	if idx < 0 {
		return services.ItemRecord{}, fmt.Errorf("estimator: item %s not found", id)
	}

	next := services.CloneItems(s.items)
	err := services.ApplyFieldEdit(&next[idx], field, value)
	if err != nil && !errors.Is(err, services.ErrUndefinedDerivation) {
		return services.ItemRecord{}, err
	}

	s.items = next
	s.markDirtyLocked()
	return next[idx], err
}

// Remove deletes a single item by id.
func (s *Store) Remove(id string) error {
	return s.RemoveMany([]string{id})
}

// RemoveMany deletes the given items. All-or-nothing: if any id is
// missing, nothing is removed.
func (s *Store) RemoveMany(ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireAllLocked(ids); err != nil {
		return err
	}

	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	next := make([]services.ItemRecord, 0, len(s.items)-len(ids))
	for _, it := range s.items {
		if !drop[it.ID] {
			next = append(next, it)
		}
	}

	s.items = next
	s.markDirtyLocked()
	return nil
}

// MoveCategory reassigns the given items to targetCategory. All-or-
// nothing: an invalid target or a missing id moves no item at all.
func (s *Store) MoveCategory(ids []string, targetCategory string) error {
	if !services.ValidCategory(targetCategory) {
		return validation.NewError("validation_invalid_category", fmt.Sprintf("unknown category %q", targetCategory))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireAllLocked(ids); err != nil {
		return err
	}

	move := make(map[string]bool, len(ids))
	for _, id := range ids {
		move[id] = true
	}

	next := services.CloneItems(s.items)
	for i := range next {
		if move[next[i].ID] {
			next[i].Category = targetCategory
		}
	}

	s.items = next
	s.markDirtyLocked()
	return nil
}

// ApplyTemplate materializes the named template's configured subset into
// fresh items on this quote, enriched against the current catalog.
// Returns services.ErrTemplateNotConfigured when the template has no
// configured items and no variable family applies.
func (s *Store) ApplyTemplate(name string) ([]services.ItemRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	materialized, err := services.Materialize(name, s.templates[name], s.items)
	if err != nil {
		return nil, err
	}

	s.items = append(services.CloneItems(s.items), materialized...)
	s.markDirtyLocked()
	return materialized, nil
}

// ApplyRecommended accepts recommendation candidates as if they were a
// materialized template: same enrichment, same fresh-id rules.
func (s *Store) ApplyRecommended(candidates []services.ItemRecord) []services.ItemRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	materialized := services.MaterializeCandidates(candidates, s.items)
	if len(materialized) == 0 {
		return nil
	}

	s.items = append(services.CloneItems(s.items), materialized...)
	s.markDirtyLocked()
	return materialized
}

// ApplyConsolidatedEdit commits a user edit made on a consolidated row:
// a single-member row is edited in place, a multi-member row collapses
// into one surviving raw item and the other members are removed.
func (s *Store) ApplyConsolidatedEdit(c services.ConsolidatedItem, edit services.ConsolidatedEdit) (services.ItemRecord, error) {
	res, err := services.ResolveEdit(c, edit)
	if err != nil {
		return services.ItemRecord{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := services.FindItem(s.items, res.Replace.ID)
	if idx < 0 {
		return services.ItemRecord{}, fmt.Errorf("estimator: item %s not found", res.Replace.ID)
	}

	drop := make(map[string]bool, len(res.RemoveIDs))
	for _, id := range res.RemoveIDs {
		drop[id] = true
	}

	next := make([]services.ItemRecord, 0, len(s.items))
	for _, it := range s.items {
		if drop[it.ID] {
			continue
		}
		if it.ID == res.Replace.ID {
			it = res.Replace
		}
		next = append(next, it)
	}

	s.items = next
	s.markDirtyLocked()
	return res.Replace, nil
}

// Flush writes the current list synchronously, superseding any pending
// debounced write. The in-memory state is kept regardless of outcome.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked()
}

// Close cancels the debounce timer and flushes any unpersisted state.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if !s.dirty {
		return nil
	}
	return s.flushLocked()
}

// stop cancels any pending flush without writing.
func (s *Store) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// markDirtyLocked re-arms the debounce timer. A mutation arriving before
// the pending flush fires supersedes it, so only the latest full list is
// ever written.
func (s *Store) markDirtyLocked() {
	s.dirty = true
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.flushDelay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.dirty {
			return
		}
		if err := s.flushLocked(); err != nil {
			s.onFlushErr(err)
		}
	})
}

// flushLocked writes the current list while holding the lock, which keeps
// the single-in-flight-write invariant: a mutation cannot interleave with
// an ongoing write for the same quote.
func (s *Store) flushLocked() error {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if err := s.records.SaveItems(s.quoteID, s.items); err != nil {
		// Optimistic: the edit intent is still valid, only durability is
		// uncertain. The caller decides whether to re-prompt persistence.
		return fmt.Errorf("estimator: persist quote %s: %w", s.quoteID, err)
	}
	s.dirty = false
	return nil
}

func (s *Store) requireAllLocked(ids []string) error {
	if len(ids) == 0 {
		return validation.NewError("validation_empty_selection", "no items selected")
	}
	for _, id := range ids {
		if services.FindItem(s.items, id) < 0 {
			return fmt.Errorf("estimator: item %s not found", id)
		}
	}
	return nil
}
