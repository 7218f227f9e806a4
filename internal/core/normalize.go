package core

import (
	"strings"
)

// NormalizeEntry validates and cleans a decoded JSON value that claims to
// be an entry. It reports false for anything that cannot become a valid
// BudgetEntry; callers drop those records.
func NormalizeEntry(raw any) (BudgetEntry, bool) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return BudgetEntry{}, false
	}

	id, ok := obj["id"].(string)
	if !ok {
		return BudgetEntry{}, false
	}

	typ, _ := obj["type"].(string)
	entryType := EntryType(typ)
	if !entryType.Valid() {
		return BudgetEntry{}, false
	}

	label, ok := obj["label"].(string)
	if !ok || strings.TrimSpace(label) == "" {
		return BudgetEntry{}, false
	}

	amount, ok := CoerceAmount(obj["amount"])
	if !ok || amount <= 0 {
		return BudgetEntry{}, false
	}

	// Only an explicit one-time survives; anything else is treated as recurring.
	recurrence := Recurring
	if r, _ := obj["recurrence"].(string); Recurrence(r) == OneTime {
		recurrence = OneTime
	}

	var frequency Frequency
	if recurrence == Recurring {
		if f, _ := obj["frequency"].(string); Frequency(f).Valid() {
			frequency = Frequency(f)
		}
	}

	category, _ := obj["category"].(string)
	notes, _ := obj["notes"].(string)

	return BudgetEntry{
		ID:         id,
		Type:       entryType,
		Label:      label,
		Amount:     amount,
		Category:   category,
		Recurrence: recurrence,
		Frequency:  frequency,
		Notes:      notes,
	}, true
}

// NormalizeSnapshot validates a decoded JSON value that claims to be a
// monthly snapshot. Income and expenses must already be numbers; category
// values that are not numbers are dropped from the breakdown.
func NormalizeSnapshot(raw any) (MonthlySnapshot, bool) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return MonthlySnapshot{}, false
	}

	month, ok := obj["month"].(string)
	if !ok {
		return MonthlySnapshot{}, false
	}
	label, ok := obj["label"].(string)
	if !ok {
		return MonthlySnapshot{}, false
	}
	income, ok := obj["income"].(float64)
	if !ok {
		return MonthlySnapshot{}, false
	}
	expenses, ok := obj["expenses"].(float64)
	if !ok {
		return MonthlySnapshot{}, false
	}
	rawCats, ok := obj["expensesByCategory"].(map[string]any)
	if !ok {
		return MonthlySnapshot{}, false
	}

	cats := make(map[string]float64, len(rawCats))
	for k, v := range rawCats {
		if f, ok := v.(float64); ok {
			cats[k] = f
		}
	}

	return MonthlySnapshot{
		Month:              month,
		Label:              label,
		Income:             income,
		Expenses:           expenses,
		ExpensesByCategory: cats,
	}, true
}

// NormalizeEntries keeps the valid records of a decoded JSON array.
func NormalizeEntries(raw []any) []BudgetEntry {
	out := make([]BudgetEntry, 0, len(raw))
	for _, r := range raw {
		if e, ok := NormalizeEntry(r); ok {
			out = append(out, e)
		}
	}
	return out
}

// NormalizeHistory keeps the valid records of a decoded JSON array.
func NormalizeHistory(raw []any) []MonthlySnapshot {
	out := make([]MonthlySnapshot, 0, len(raw))
	for _, r := range raw {
		if s, ok := NormalizeSnapshot(r); ok {
			out = append(out, s)
		}
	}
	return out
}
