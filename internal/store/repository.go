package store

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/google/uuid"

	"budgetx/internal/core"
	applog "budgetx/internal/log"
)

// Repository is the single owner of the in-memory budget state. Every
// mutation is applied under one lock in arrival order and the whole
// affected collection is re-persisted before the lock is released.
type Repository struct {
	mu       sync.Mutex
	store    *Store
	entries  []core.BudgetEntry
	history  []core.MonthlySnapshot
	revision int64
	newID    func() string
}

// Open loads the persisted state once. It never fails; see Store.
func Open(ctx context.Context, s *Store) *Repository {
	return &Repository{
		store:   s,
		entries: s.LoadEntries(ctx),
		history: s.LoadHistory(ctx),
		newID:   uuid.NewString,
	}
}

// Entries returns a copy of the current collection.
func (r *Repository) Entries() []core.BudgetEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.entries)
}

// History returns a copy of the current snapshots, oldest first.
func (r *Repository) History() []core.MonthlySnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]core.MonthlySnapshot, len(r.history))
	for i, s := range r.history {
		out[i] = s.Clone()
	}
	return out
}

// Snapshot returns entries, history and the revision they belong to under a
// single lock, so derived data can be cached against the revision.
func (r *Repository) Snapshot() ([]core.BudgetEntry, []core.MonthlySnapshot, int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	history := make([]core.MonthlySnapshot, len(r.history))
	for i, s := range r.history {
		history[i] = s.Clone()
	}
	return slices.Clone(r.entries), history, r.revision
}

// Revision increases by one with every successful mutation.
func (r *Repository) Revision() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.revision
}

// Add appends a new entry. An empty id is replaced by a generated one.
func (r *Repository) Add(ctx context.Context, e core.BudgetEntry) (core.BudgetEntry, error) {
	e = e.Tidy()
	if e.ID == "" {
		e.ID = "entry-" + r.newID()
	}
	if err := e.Validate(); err != nil {
		return core.BudgetEntry{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexOf(e.ID) >= 0 {
		return core.BudgetEntry{}, fmt.Errorf("%w: %s", ErrDuplicateID, e.ID)
	}
	r.entries = append(r.entries, e)
	r.commitEntries(ctx)
	return e, nil
}

// AddFromReceipt stores a reviewed receipt as a new expense.
func (r *Repository) AddFromReceipt(ctx context.Context, p core.ParsedReceipt) (core.BudgetEntry, error) {
	return r.Add(ctx, p.ToEntry("receipt-"+r.newID()))
}

// Update replaces the entry with the given id. The id inside e is ignored.
func (r *Repository) Update(ctx context.Context, id string, e core.BudgetEntry) (core.BudgetEntry, error) {
	e = e.Tidy()
	e.ID = id
	if err := e.Validate(); err != nil {
		return core.BudgetEntry{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return core.BudgetEntry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	r.entries[i] = e
	r.commitEntries(ctx)
	return e, nil
}

// Delete removes the entry with the given id.
func (r *Repository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	r.entries = slices.Delete(r.entries, i, i+1)
	r.commitEntries(ctx)
	return nil
}

// AppendSnapshot records a month that has no snapshot yet. Stored
// snapshots are never modified.
func (r *Repository) AppendSnapshot(ctx context.Context, s core.MonthlySnapshot) (core.MonthlySnapshot, error) {
	if err := s.Validate(); err != nil {
		return core.MonthlySnapshot{}, err
	}
	s = s.Clone()

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.history {
		if existing.Month == s.Month {
			return core.MonthlySnapshot{}, fmt.Errorf("%w: %s", ErrSnapshotExists, s.Month)
		}
	}
	r.history = append(r.history, s)
	sort.SliceStable(r.history, func(i, j int) bool { return r.history[i].Month < r.history[j].Month })
	r.revision++
	r.store.SaveHistory(ctx, r.history)
	return s.Clone(), nil
}

// Reset clears persisted state and goes back to the seed data.
func (r *Repository) Reset(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.store.Clear(ctx)
	r.entries = core.SeedEntries()
	r.history = core.SeedHistory()
	r.revision++
}

func (r *Repository) indexOf(id string) int {
	return slices.IndexFunc(r.entries, func(e core.BudgetEntry) bool { return e.ID == id })
}

// commitEntries must be called with mu held.
func (r *Repository) commitEntries(ctx context.Context) {
	r.revision++
	r.store.SaveEntries(ctx, r.entries)
	r.store.logger.DebugContext(ctx, "Entries committed",
		applog.FieldRevision, r.revision, applog.FieldCount, len(r.entries))
}
