package memory

import (
	"context"
	"slices"
	"sync"

	"budgetx/internal/core"
	"budgetx/internal/sheets"
)

var _ sheets.Exporter = (*Store)(nil)

// Store keeps the last exported rows in memory. It stands in for Google
// Sheets in development and tests.
type Store struct {
	mu      sync.Mutex
	entries [][]any
	history [][]any
	calls   map[string]int
	err     error
}

func New() *Store {
	return &Store{calls: make(map[string]int)}
}

// FailWith makes subsequent exports return err. Pass nil to recover.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *Store) ExportEntries(_ context.Context, entries []core.BudgetEntry) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["entries"]++
	if s.err != nil {
		return 0, s.err
	}
	s.entries = sheets.EntryRows(entries)
	return len(entries), nil
}

func (s *Store) ExportHistory(_ context.Context, history []core.MonthlySnapshot) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["history"]++
	if s.err != nil {
		return 0, s.err
	}
	s.history = sheets.HistoryRows(history)
	return len(history), nil
}

// Entries returns the rows of the entries tab, header included.
func (s *Store) Entries() [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.entries)
}

// History returns the rows of the history tab, header included.
func (s *Store) History() [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.history)
}

// Calls reports how many exports of kind ("entries" or "history") were
// attempted.
func (s *Store) Calls(kind string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[kind]
}
