package sheets

import (
	"fmt"
	"sort"
	"strings"

	"budgetx/internal/core"
)

var (
	EntryHeader   = []any{"ID", "Type", "Label", "Amount", "Category", "Recurrence", "Frequency", "Notes"}
	HistoryHeader = []any{"Month", "Label", "Income", "Expenses", "Net", "Expenses by Category"}
)

// EntryRows renders entries as sheet rows, header first.
func EntryRows(entries []core.BudgetEntry) [][]any {
	rows := make([][]any, 0, len(entries)+1)
	rows = append(rows, EntryHeader)
	for _, e := range entries {
		rows = append(rows, []any{
			e.ID,
			string(e.Type),
			e.Label,
			e.Amount,
			e.CategoryOrDefault(),
			string(e.Recurrence),
			string(e.Frequency),
			e.Notes,
		})
	}
	return rows
}

// HistoryRows renders snapshots as sheet rows, header first. Categories
// are listed alphabetically so repeated exports produce identical cells.
func HistoryRows(history []core.MonthlySnapshot) [][]any {
	rows := make([][]any, 0, len(history)+1)
	rows = append(rows, HistoryHeader)
	for _, h := range history {
		rows = append(rows, []any{
			h.Month,
			h.Label,
			h.Income,
			h.Expenses,
			h.Income - h.Expenses,
			formatCategories(h.ExpensesByCategory),
		})
	}
	return rows
}

func formatCategories(m map[string]float64) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %s", k, core.FormatPlain(m[k]))
	}
	return strings.Join(parts, "; ")
}
