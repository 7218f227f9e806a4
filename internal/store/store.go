// Package store persists budget entries and monthly history as JSON
// documents under two fixed keys. Reads never fail: anything missing or
// unreadable falls back to the seed data. Writes never fail either; problems
// are logged and the caller carries on with its in-memory state.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"budgetx/internal/core"
	applog "budgetx/internal/log"
)

const (
	EntriesKey = "budgetx.entries.v1"
	HistoryKey = "budgetx.history.v1"
)

var errNoPersistence = errors.New("no persistence configured")

// Store reads and writes the two documents through a KV.
type Store struct {
	kv     KV
	logger *applog.Logger
}

func New(kv KV, logger *applog.Logger) *Store {
	if logger == nil {
		logger = applog.Wrap(nil, applog.ComponentStore)
	}
	return &Store{kv: kv, logger: logger}
}

// LoadEntries returns the persisted entries, or the seed set when there is
// no usable persisted data. Malformed records in an otherwise valid array
// are dropped.
func (s *Store) LoadEntries(ctx context.Context) []core.BudgetEntry {
	raw, ok := s.loadArray(ctx, EntriesKey)
	if !ok {
		return core.SeedEntries()
	}
	entries := core.NormalizeEntries(raw)
	if len(entries) == 0 {
		s.logger.WarnContext(ctx, "No valid entries in storage, using seed data",
			applog.FieldKey, EntriesKey, applog.FieldCount, len(raw))
		return core.SeedEntries()
	}
	if dropped := len(raw) - len(entries); dropped > 0 {
		s.logger.WarnContext(ctx, "Dropped malformed entries from storage",
			applog.FieldKey, EntriesKey, "dropped", dropped)
	}
	return entries
}

// SaveEntries overwrites the stored collection.
func (s *Store) SaveEntries(ctx context.Context, entries []core.BudgetEntry) {
	_ = s.save(ctx, EntriesKey, entries)
}

// LoadHistory returns the persisted snapshots, or the seed history.
func (s *Store) LoadHistory(ctx context.Context) []core.MonthlySnapshot {
	raw, ok := s.loadArray(ctx, HistoryKey)
	if !ok {
		return core.SeedHistory()
	}
	history := core.NormalizeHistory(raw)
	if len(history) == 0 {
		s.logger.WarnContext(ctx, "No valid snapshots in storage, using seed data",
			applog.FieldKey, HistoryKey, applog.FieldCount, len(raw))
		return core.SeedHistory()
	}
	return history
}

// SaveHistory overwrites the stored history.
func (s *Store) SaveHistory(ctx context.Context, history []core.MonthlySnapshot) {
	_ = s.save(ctx, HistoryKey, history)
}

// Clear removes both documents. The next load returns seed data.
func (s *Store) Clear(ctx context.Context) {
	if s.kv == nil {
		return
	}
	if err := s.kv.Delete(ctx, EntriesKey, HistoryKey); err != nil {
		s.warn(ctx, &PersistenceError{Op: applog.OpClear, Key: EntriesKey + "," + HistoryKey, Err: err})
	}
}

func (s *Store) loadArray(ctx context.Context, key string) ([]any, bool) {
	if s.kv == nil {
		return nil, false
	}

	data, found, err := s.kv.Get(ctx, key)
	if err != nil {
		s.warn(ctx, &PersistenceError{Op: applog.OpLoad, Key: key, Err: err})
		return nil, false
	}
	if !found || len(data) == 0 {
		return nil, false
	}

	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		s.warn(ctx, &PersistenceError{Op: applog.OpLoad, Key: key, Err: err})
		return nil, false
	}
	arr, ok := decoded.([]any)
	if !ok {
		s.warn(ctx, &PersistenceError{Op: applog.OpLoad, Key: key, Err: fmt.Errorf("stored value is %T, not an array", decoded)})
		return nil, false
	}
	return arr, true
}

func (s *Store) save(ctx context.Context, key string, v any) error {
	if s.kv == nil {
		return errNoPersistence
	}

	data, err := json.Marshal(v)
	if err == nil {
		err = s.kv.Set(ctx, key, data)
	}
	if err != nil {
		perr := &PersistenceError{Op: applog.OpSave, Key: key, Err: err}
		s.warn(ctx, perr)
		return perr
	}
	return nil
}

func (s *Store) warn(ctx context.Context, err *PersistenceError) {
	fields := applog.NewFields().
		WithError(err).
		WithOperation(err.Op).
		WithErrorType(applog.ErrorTypePersistence)
	fields[applog.FieldKey] = err.Key
	s.logger.WarnContext(ctx, "Storage operation failed", fields.ToSlice()...)
}
