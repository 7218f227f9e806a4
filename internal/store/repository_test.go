package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetx/internal/core"
	applog "budgetx/internal/log"
)

func openTestRepo(t *testing.T, kv *fakeKV) *Repository {
	t.Helper()
	r := Open(context.Background(), New(kv, applog.Discard()))
	n := 0
	r.newID = func() string {
		n++
		return fmt.Sprintf("id%d", n)
	}
	return r
}

func storedEntries(t *testing.T, kv *fakeKV) []core.BudgetEntry {
	t.Helper()
	data, found, err := kv.Store.Get(context.Background(), EntriesKey)
	require.NoError(t, err)
	require.True(t, found)
	var out []core.BudgetEntry
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestRepository_OpenUsesSeedsWhenEmpty(t *testing.T) {
	r := openTestRepo(t, newFakeKV())
	assert.Len(t, r.Entries(), 15)
	assert.Len(t, r.History(), 6)
	assert.Equal(t, int64(0), r.Revision())
}

func TestRepository_AddAssignsIDAndPersists(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	r := openTestRepo(t, kv)

	added, err := r.Add(ctx, core.BudgetEntry{Type: core.Expense, Label: " Gym ", Amount: 30, Recurrence: core.OneTime, Frequency: core.Monthly})
	require.NoError(t, err)

	assert.Equal(t, "entry-id1", added.ID)
	assert.Equal(t, "Gym", added.Label)
	assert.Empty(t, added.Frequency)
	assert.Equal(t, int64(1), r.Revision())

	persisted := storedEntries(t, kv)
	require.Len(t, persisted, 16)
	assert.Equal(t, added, persisted[15])
}

func TestRepository_AddRejects(t *testing.T) {
	ctx := context.Background()
	r := openTestRepo(t, newFakeKV())

	_, err := r.Add(ctx, core.BudgetEntry{ID: "expense-1", Type: core.Expense, Label: "Dup", Amount: 1, Recurrence: core.OneTime})
	assert.ErrorIs(t, err, ErrDuplicateID)

	_, err = r.Add(ctx, core.BudgetEntry{Type: core.Expense, Label: "Free", Amount: 0, Recurrence: core.OneTime})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	assert.Equal(t, int64(0), r.Revision())
}

func TestRepository_UpdateReplacesByID(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	r := openTestRepo(t, kv)

	updated, err := r.Update(ctx, "expense-1", core.BudgetEntry{ID: "ignored", Type: core.Expense, Label: "Rent", Amount: 800, Category: "Housing", Recurrence: core.Recurring, Frequency: core.Monthly})
	require.NoError(t, err)
	assert.Equal(t, "expense-1", updated.ID)

	entries := r.Entries()
	assert.Equal(t, 800.0, entries[3].Amount)
	assert.Len(t, entries, 15)
	assert.Equal(t, entries, storedEntries(t, kv))

	_, err = r.Update(ctx, "missing", updated)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_Delete(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	r := openTestRepo(t, kv)

	require.NoError(t, r.Delete(ctx, "income-2"))
	assert.Len(t, storedEntries(t, kv), 14)
	assert.ErrorIs(t, r.Delete(ctx, "income-2"), ErrNotFound)
}

func TestRepository_AddFromReceipt(t *testing.T) {
	r := openTestRepo(t, newFakeKV())

	e, err := r.AddFromReceipt(context.Background(), core.ParsedReceipt{
		Amount:     42.17,
		Label:      "Corner Market",
		Recurrence: core.OneTime,
		Frequency:  core.Monthly,
		Notes:      "milk, bread",
	})
	require.NoError(t, err)

	assert.Equal(t, "receipt-id1", e.ID)
	assert.Equal(t, core.Expense, e.Type)
	assert.Equal(t, core.DefaultCategory, e.Category)
	assert.Empty(t, e.Frequency)
	assert.Equal(t, "milk, bread", e.Notes)
}

func TestRepository_AddFromReceiptValidatesAmountAndLabel(t *testing.T) {
	kv := newFakeKV()
	r := openTestRepo(t, kv)
	ctx := context.Background()

	_, err := r.AddFromReceipt(ctx, core.ParsedReceipt{Amount: 0, Label: "Shop", Recurrence: core.OneTime})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	_, err = r.AddFromReceipt(ctx, core.ParsedReceipt{Amount: 5, Label: " ", Recurrence: core.OneTime})
	assert.ErrorIs(t, err, core.ErrEmptyLabel)

	assert.Len(t, r.Entries(), len(core.SeedEntries()))
}

func TestRepository_AppendSnapshot(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	r := openTestRepo(t, kv)

	dec := core.MonthlySnapshot{Month: "2025-12", Label: "Dec", Income: 2100, Expenses: 1800, ExpensesByCategory: map[string]float64{"Housing": 750}}
	_, err := r.AppendSnapshot(ctx, dec)
	require.NoError(t, err)

	history := r.History()
	require.Len(t, history, 7)
	assert.Equal(t, "2025-12", history[6].Month)

	_, err = r.AppendSnapshot(ctx, core.MonthlySnapshot{Month: "2025-06", Label: "Jun", ExpensesByCategory: map[string]float64{}})
	assert.ErrorIs(t, err, ErrSnapshotExists)

	_, err = r.AppendSnapshot(ctx, core.MonthlySnapshot{Month: "June", Label: "Jun"})
	assert.ErrorIs(t, err, core.ErrInvalidMonth)

	history[0].ExpensesByCategory["Housing"] = 0
	assert.Equal(t, 750.0, r.History()[0].ExpensesByCategory["Housing"])

	_, found, _ := kv.Store.Get(ctx, HistoryKey)
	assert.True(t, found)
}

func TestRepository_ResetReturnsToSeeds(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	r := openTestRepo(t, kv)

	require.NoError(t, r.Delete(ctx, "expense-1"))
	r.Reset(ctx)

	assert.Equal(t, core.SeedEntries(), r.Entries())
	assert.Equal(t, 0, kv.Len())
	assert.Equal(t, int64(2), r.Revision())
}

func TestRepository_SaveFailureKeepsMemoryState(t *testing.T) {
	kv := newFakeKV()
	kv.setErr = assert.AnError
	r := openTestRepo(t, kv)

	_, err := r.Add(context.Background(), core.BudgetEntry{Type: core.Income, Label: "Bonus", Amount: 100, Recurrence: core.OneTime})
	require.NoError(t, err)
	assert.Len(t, r.Entries(), 16)
}

func TestRepository_ConcurrentMutationsAreSerialised(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	r := Open(ctx, New(kv, applog.Discard()))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Add(ctx, core.BudgetEntry{Type: core.Expense, Label: "Coffee", Amount: 3, Recurrence: core.OneTime})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, r.Entries(), 65)
	assert.Equal(t, int64(50), r.Revision())
	assert.Equal(t, r.Entries(), storedEntries(t, kv))
	assert.Equal(t, 50, kv.sets)
}
