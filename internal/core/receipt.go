package core

import "strings"

// ReceiptCategories are the categories the receipt parser is asked to pick
// from. They are a suggestion; other values are accepted.
var ReceiptCategories = []string{
	"Housing", "Education", "Food", "Utilities", "Transport", "Fun", "Health", "Shopping", "Other",
}

// ParsedReceipt is the structured expense a vision model extracted from a
// receipt image, before the user reviews it.
type ParsedReceipt struct {
	Amount     float64    `json:"amount"`
	Label      string     `json:"label"`
	Category   string     `json:"category"`
	Recurrence Recurrence `json:"recurrence"`
	Frequency  Frequency  `json:"frequency,omitempty"`
	Notes      string     `json:"notes,omitempty"`
}

// ToEntry turns a reviewed receipt into an expense entry with the given id.
func (p ParsedReceipt) ToEntry(id string) BudgetEntry {
	category := strings.TrimSpace(p.Category)
	if category == "" {
		category = DefaultCategory
	}
	return BudgetEntry{
		ID:         id,
		Type:       Expense,
		Label:      p.Label,
		Amount:     p.Amount,
		Category:   category,
		Recurrence: p.Recurrence,
		Frequency:  p.Frequency,
		Notes:      p.Notes,
	}.Tidy()
}
