package core

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func decode(t *testing.T, s string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		t.Fatalf("bad fixture %q: %v", s, err)
	}
	return v
}

func TestBudgetEntryValidate(t *testing.T) {
	good := BudgetEntry{ID: "a", Type: Expense, Label: "Rent", Amount: 750, Recurrence: Recurring, Frequency: Monthly}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name string
		e    BudgetEntry
		want error
	}{
		{"bad type", BudgetEntry{Type: "gift", Label: "x", Amount: 1, Recurrence: OneTime}, ErrInvalidType},
		{"blank label", BudgetEntry{Type: Income, Label: "  ", Amount: 1, Recurrence: OneTime}, ErrEmptyLabel},
		{"zero amount", BudgetEntry{Type: Income, Label: "x", Amount: 0, Recurrence: OneTime}, ErrInvalidAmount},
		{"negative amount", BudgetEntry{Type: Income, Label: "x", Amount: -3, Recurrence: OneTime}, ErrInvalidAmount},
		{"nan amount", BudgetEntry{Type: Income, Label: "x", Amount: math.NaN(), Recurrence: OneTime}, ErrInvalidAmount},
		{"bad recurrence", BudgetEntry{Type: Income, Label: "x", Amount: 1, Recurrence: "sometimes"}, ErrInvalidRecurrence},
		{"bad frequency", BudgetEntry{Type: Income, Label: "x", Amount: 1, Recurrence: Recurring, Frequency: "daily"}, ErrInvalidFrequency},
		{"frequency on one-time", BudgetEntry{Type: Income, Label: "x", Amount: 1, Recurrence: OneTime, Frequency: Monthly}, ErrInvalidFrequency},
	}
	for _, tc := range cases {
		if err := tc.e.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestTidyDropsFrequencyForOneTime(t *testing.T) {
	e := BudgetEntry{Label: " Books ", Recurrence: OneTime, Frequency: Monthly, Category: " "}.Tidy()
	if e.Frequency != "" || e.Label != "Books" || e.Category != "" {
		t.Fatalf("unexpected tidy result %+v", e)
	}
}

func TestSnapshotValidate(t *testing.T) {
	if err := SeedHistory()[0].Validate(); err != nil {
		t.Fatalf("seed snapshot should be valid: %v", err)
	}
	bad := MonthlySnapshot{Month: "2025-13", Label: "x"}
	if err := bad.Validate(); !errors.Is(err, ErrInvalidMonth) {
		t.Fatalf("expected ErrInvalidMonth, got %v", err)
	}
}

func TestNormalizeEntry(t *testing.T) {
	cases := []struct {
		in   string
		ok   bool
		want BudgetEntry
	}{
		{
			in:   `{"id":"a","type":"expense","label":"Rent","amount":750,"category":"Housing","recurrence":"recurring","frequency":"monthly"}`,
			ok:   true,
			want: BudgetEntry{ID: "a", Type: Expense, Label: "Rent", Amount: 750, Category: "Housing", Recurrence: Recurring, Frequency: Monthly},
		},
		{
			in:   `{"id":"b","type":"income","label":"Gift","amount":"40.5","recurrence":"one-time","frequency":"monthly"}`,
			ok:   true,
			want: BudgetEntry{ID: "b", Type: Income, Label: "Gift", Amount: 40.5, Recurrence: OneTime},
		},
		{
			in:   `{"id":"c","type":"expense","label":"Gym","amount":30,"recurrence":"sometimes","frequency":"daily"}`,
			ok:   true,
			want: BudgetEntry{ID: "c", Type: Expense, Label: "Gym", Amount: 30, Recurrence: Recurring},
		},
		{
			in:   `{"id":"d","type":"expense","label":"Snacks","amount":5,"category":"","notes":""}`,
			ok:   true,
			want: BudgetEntry{ID: "d", Type: Expense, Label: "Snacks", Amount: 5, Recurrence: Recurring},
		},
		{in: `"not an object"`},
		{in: `null`},
		{in: `{"id":1,"type":"expense","label":"x","amount":1}`},
		{in: `{"id":"e","type":"gift","label":"x","amount":1}`},
		{in: `{"id":"e","type":"expense","label":"   ","amount":1}`},
		{in: `{"id":"e","type":"expense","label":"x","amount":"abc"}`},
		{in: `{"id":"e","type":"expense","label":"x","amount":true}`},
		{in: `{"id":"e","type":"expense","label":"x","amount":0}`},
		{in: `{"id":"e","type":"expense","label":"x"}`},
	}
	for i, tc := range cases {
		got, ok := NormalizeEntry(decode(t, tc.in))
		if ok != tc.ok {
			t.Fatalf("case %d (%s): ok = %v, want %v", i, tc.in, ok, tc.ok)
		}
		if ok && got != tc.want {
			t.Fatalf("case %d: got %+v, want %+v", i, got, tc.want)
		}
	}
}

func TestNormalizeEntriesDropsInvalid(t *testing.T) {
	raw := decode(t, `[{"id":"a","type":"income","label":"Job","amount":100},{"id":"b"},42]`).([]any)
	got := NormalizeEntries(raw)
	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("expected only entry a, got %+v", got)
	}
}

func TestNormalizeSnapshot(t *testing.T) {
	good := `{"month":"2025-06","label":"Jun","income":1850,"expenses":1420,"expensesByCategory":{"Housing":750,"Bad":"x"}}`
	s, ok := NormalizeSnapshot(decode(t, good))
	if !ok {
		t.Fatal("expected valid snapshot")
	}
	if s.ExpensesByCategory["Housing"] != 750 {
		t.Fatalf("unexpected breakdown %+v", s.ExpensesByCategory)
	}
	if _, present := s.ExpensesByCategory["Bad"]; present {
		t.Fatal("non-numeric category value should be dropped")
	}

	bads := []string{
		`{"month":"2025-06","label":"Jun","income":"1850","expenses":1420,"expensesByCategory":{}}`,
		`{"month":"2025-06","label":"Jun","income":1850,"expenses":1420}`,
		`{"month":6,"label":"Jun","income":1850,"expenses":1420,"expensesByCategory":{}}`,
		`[]`,
	}
	for i, b := range bads {
		if _, ok := NormalizeSnapshot(decode(t, b)); ok {
			t.Fatalf("case %d expected rejection", i)
		}
	}
}

func TestCoerceAmount(t *testing.T) {
	cases := []struct {
		in  any
		out float64
		ok  bool
	}{
		{12.5, 12.5, true},
		{" 40 ", 40, true},
		{"1e2", 100, true},
		{json.Number("7.25"), 7.25, true},
		{"", 0, false},
		{"abc", 0, false},
		{"Inf", 0, false},
		{"NaN", 0, false},
		{true, 0, false},
		{nil, 0, false},
	}
	for _, tc := range cases {
		got, ok := CoerceAmount(tc.in)
		if ok != tc.ok || (ok && got != tc.out) {
			t.Fatalf("%#v: got %v, %v; want %v, %v", tc.in, got, ok, tc.out, tc.ok)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	if got := FormatAmount(1400); got != "1400.00" {
		t.Fatalf("FormatAmount(1400) = %q", got)
	}
	if got := FormatPlain(1850); got != "1850" {
		t.Fatalf("FormatPlain(1850) = %q", got)
	}
	if got := FormatPlain(-12.5); got != "-12.5" {
		t.Fatalf("FormatPlain(-12.5) = %q", got)
	}
}

func TestSeeds(t *testing.T) {
	entries := SeedEntries()
	if len(entries) != 15 {
		t.Fatalf("expected 15 seed entries, got %d", len(entries))
	}
	seen := map[string]bool{}
	for _, e := range entries {
		if err := e.Validate(); err != nil {
			t.Fatalf("seed %s invalid: %v", e.ID, err)
		}
		if seen[e.ID] {
			t.Fatalf("duplicate seed id %s", e.ID)
		}
		seen[e.ID] = true
	}
	entries[0].Label = "mutated"
	if SeedEntries()[0].Label != "Part-time Job" {
		t.Fatal("SeedEntries must return a fresh slice")
	}
	if len(SeedHistory()) != 6 {
		t.Fatal("expected 6 seed snapshots")
	}
}
