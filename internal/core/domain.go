package core

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
)

const (
	Income  EntryType = "income"
	Expense EntryType = "expense"

	OneTime   Recurrence = "one-time"
	Recurring Recurrence = "recurring"

	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

// DefaultCategory is how an entry without a category is aggregated.
const DefaultCategory = "Other"

type (
	EntryType  string
	Recurrence string
	Frequency  string

	// BudgetEntry is one income or expense line item.
	BudgetEntry struct {
		ID         string     `json:"id"`
		Type       EntryType  `json:"type"`
		Label      string     `json:"label"`
		Amount     float64    `json:"amount"`
		Category   string     `json:"category,omitempty"`
		Recurrence Recurrence `json:"recurrence"`
		Frequency  Frequency  `json:"frequency,omitempty"`
		Notes      string     `json:"notes,omitempty"`
	}

	// MonthlySnapshot is a historical record of one month. The category
	// breakdown is stored as reported and is never reconciled with Expenses.
	MonthlySnapshot struct {
		Month              string             `json:"month"`
		Label              string             `json:"label"`
		Income             float64            `json:"income"`
		Expenses           float64            `json:"expenses"`
		ExpensesByCategory map[string]float64 `json:"expensesByCategory"`
	}
)

var (
	ErrInvalidType       = errors.New("invalid entry type")
	ErrEmptyLabel        = errors.New("empty label")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidRecurrence = errors.New("invalid recurrence")
	ErrInvalidFrequency  = errors.New("invalid frequency")
	ErrInvalidMonth      = errors.New("invalid month")
)

var monthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

func (t EntryType) Valid() bool {
	return t == Income || t == Expense
}

func (r Recurrence) Valid() bool {
	return r == OneTime || r == Recurring
}

func (f Frequency) Valid() bool {
	switch f {
	case Weekly, Monthly, Yearly:
		return true
	}
	return false
}

// CategoryOrDefault returns the category used for aggregation.
func (e BudgetEntry) CategoryOrDefault() string {
	if e.Category == "" {
		return DefaultCategory
	}
	return e.Category
}

func (e BudgetEntry) Validate() error {
	if !e.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, e.Type)
	}
	if strings.TrimSpace(e.Label) == "" {
		return ErrEmptyLabel
	}
	if math.IsNaN(e.Amount) || math.IsInf(e.Amount, 0) || e.Amount <= 0 {
		return ErrInvalidAmount
	}
	if !e.Recurrence.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRecurrence, e.Recurrence)
	}
	if e.Frequency != "" {
		if !e.Frequency.Valid() {
			return fmt.Errorf("%w: %q", ErrInvalidFrequency, e.Frequency)
		}
		if e.Recurrence != Recurring {
			return fmt.Errorf("%w: frequency requires a recurring entry", ErrInvalidFrequency)
		}
	}
	return nil
}

// Tidy trims text fields and drops a frequency that does not apply.
func (e BudgetEntry) Tidy() BudgetEntry {
	e.Label = strings.TrimSpace(e.Label)
	e.Category = strings.TrimSpace(e.Category)
	e.Notes = strings.TrimSpace(e.Notes)
	if e.Recurrence != Recurring {
		e.Frequency = ""
	}
	return e
}

func (s MonthlySnapshot) Validate() error {
	if !monthPattern.MatchString(s.Month) {
		return fmt.Errorf("%w: %q", ErrInvalidMonth, s.Month)
	}
	if strings.TrimSpace(s.Label) == "" {
		return ErrEmptyLabel
	}
	for _, v := range []float64{s.Income, s.Expenses} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return ErrInvalidAmount
		}
	}
	return nil
}

// Clone returns a deep copy so callers cannot mutate stored history.
func (s MonthlySnapshot) Clone() MonthlySnapshot {
	cats := make(map[string]float64, len(s.ExpensesByCategory))
	for k, v := range s.ExpensesByCategory {
		cats[k] = v
	}
	s.ExpensesByCategory = cats
	return s
}
