package stats

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"budgetx/internal/core"
)

// RecentHistoryMonths is how many trailing snapshots the digest includes.
const RecentHistoryMonths = 3

// BudgetContextSummary renders the plain-text digest the advisor model is
// given. The output is deterministic for a given input.
func BudgetContextSummary(entries []core.BudgetEntry, history []core.MonthlySnapshot) string {
	income, expenses := sums(entries)
	remaining := income.Sub(expenses)

	rate := "0"
	if income.IsPositive() {
		rate = remaining.Div(income).Mul(decimal.NewFromInt(100)).StringFixed(1)
	}

	var b strings.Builder
	b.WriteString("## Current Monthly Budget Summary\n")
	fmt.Fprintf(&b, "- Total Monthly Income: $%s\n", income.StringFixed(2))
	fmt.Fprintf(&b, "- Total Monthly Expenses: $%s\n", expenses.StringFixed(2))
	fmt.Fprintf(&b, "- Monthly Remaining/Savings: $%s\n", remaining.StringFixed(2))
	fmt.Fprintf(&b, "- Savings Rate: %s%%\n", rate)

	b.WriteString("\n## Income Sources\n")
	var lines []string
	for _, e := range entries {
		if e.Type != core.Income {
			continue
		}
		detail := string(e.Recurrence)
		if e.Frequency != "" {
			detail += ", " + string(e.Frequency)
		}
		lines = append(lines, fmt.Sprintf("- %s: $%s (%s)", e.Label, core.FormatAmount(e.Amount), detail))
	}
	b.WriteString(strings.Join(lines, "\n"))

	b.WriteString("\n\n## Expense Breakdown by Category\n")
	lines = lines[:0]
	for _, g := range groupByCategory(entries, core.Expense) {
		lines = append(lines, fmt.Sprintf("- %s: $%s", g.category, g.amount.StringFixed(2)))
	}
	b.WriteString(strings.Join(lines, "\n"))

	b.WriteString("\n\n## Detailed Expenses\n")
	lines = lines[:0]
	for _, e := range entries {
		if e.Type != core.Expense {
			continue
		}
		category := e.Category
		if category == "" {
			category = "Uncategorized"
		}
		lines = append(lines, fmt.Sprintf("- %s: $%s (%s, %s)", e.Label, core.FormatAmount(e.Amount), category, e.Recurrence))
	}
	b.WriteString(strings.Join(lines, "\n"))

	if len(history) > 0 {
		recent := history[max(0, len(history)-RecentHistoryMonths):]
		fmt.Fprintf(&b, "\n\n## Recent Monthly History (Last %d months)\n", len(recent))
		lines = lines[:0]
		for _, h := range recent {
			net := decimal.NewFromFloat(h.Income).Sub(decimal.NewFromFloat(h.Expenses)).InexactFloat64()
			lines = append(lines, fmt.Sprintf("- %s: Income $%s, Expenses $%s, Net $%s",
				h.Label, core.FormatPlain(h.Income), core.FormatPlain(h.Expenses), core.FormatPlain(net)))
		}
		b.WriteString(strings.Join(lines, "\n"))
	}

	return b.String()
}
