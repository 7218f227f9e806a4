// Package stats derives totals, breakdowns and trends from budget entries
// and monthly history. Every function is pure; sums are accumulated as
// decimals so repeated fractional amounts do not drift.
package stats

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"budgetx/internal/core"
)

type Totals struct {
	Income   float64 `json:"income"`
	Expenses float64 `json:"expenses"`
}

type CategoryAmount struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

type CategoryShare struct {
	Category   string  `json:"category"`
	Amount     float64 `json:"amount"`
	Percentage float64 `json:"percentage"`
}

type TrendPoint struct {
	Period   string  `json:"period"`
	Label    string  `json:"label"`
	Income   float64 `json:"income"`
	Expenses float64 `json:"expenses"`
}

type SavingsPoint struct {
	Label       string  `json:"label"`
	Savings     float64 `json:"savings"`
	SavingsRate float64 `json:"savingsRate"`
}

func TotalsByType(entries []core.BudgetEntry) Totals {
	income, expenses := sums(entries)
	return Totals{Income: income.InexactFloat64(), Expenses: expenses.InexactFloat64()}
}

// Remaining is total income minus total expenses. It may be negative.
func Remaining(entries []core.BudgetEntry) float64 {
	income, expenses := sums(entries)
	return income.Sub(expenses).InexactFloat64()
}

// ByCategory groups entries of one type by category, largest first. Ties
// keep the order in which the category was first seen.
func ByCategory(entries []core.BudgetEntry, t core.EntryType) []CategoryAmount {
	grouped := groupByCategory(entries, t)
	out := make([]CategoryAmount, len(grouped))
	for i, g := range grouped {
		out[i] = CategoryAmount{Category: g.category, Amount: g.amount.InexactFloat64()}
	}
	return out
}

// CategoryShares is the expense breakdown with each category's share of
// total expenses in percent.
func CategoryShares(entries []core.BudgetEntry) []CategoryShare {
	grouped := groupByCategory(entries, core.Expense)
	total := decimal.Zero
	for _, g := range grouped {
		total = total.Add(g.amount)
	}

	out := make([]CategoryShare, len(grouped))
	hundred := decimal.NewFromInt(100)
	for i, g := range grouped {
		share := CategoryShare{Category: g.category, Amount: g.amount.InexactFloat64()}
		if total.IsPositive() {
			share.Percentage = g.amount.Div(total).Mul(hundred).InexactFloat64()
		}
		out[i] = share
	}
	return out
}

// SavingsRate is the share of income left after expenses, in percent. It
// is zero when there is no income and is not clamped, so overspending
// yields a negative rate.
func SavingsRate(income, expenses float64) float64 {
	if income <= 0 {
		return 0
	}
	in := decimal.NewFromFloat(income)
	return in.Sub(decimal.NewFromFloat(expenses)).Div(in).Mul(decimal.NewFromInt(100)).InexactFloat64()
}

// MonthlyTrend maps history to chart points in the same order.
func MonthlyTrend(history []core.MonthlySnapshot) []TrendPoint {
	out := make([]TrendPoint, len(history))
	for i, s := range history {
		out[i] = TrendPoint{Period: s.Month, Label: s.Label, Income: s.Income, Expenses: s.Expenses}
	}
	return out
}

// MonthlySavings computes savings and savings rate for every snapshot.
func MonthlySavings(history []core.MonthlySnapshot) []SavingsPoint {
	out := make([]SavingsPoint, len(history))
	for i, s := range history {
		savings := decimal.NewFromFloat(s.Income).Sub(decimal.NewFromFloat(s.Expenses))
		out[i] = SavingsPoint{
			Label:       s.Label,
			Savings:     savings.InexactFloat64(),
			SavingsRate: SavingsRate(s.Income, s.Expenses),
		}
	}
	return out
}

// AverageSavings is the mean savings rounded to a whole unit, half up.
func AverageSavings(points []SavingsPoint) float64 {
	if len(points) == 0 {
		return 0
	}
	total := decimal.Zero
	for _, p := range points {
		total = total.Add(decimal.NewFromFloat(p.Savings))
	}
	mean := total.Div(decimal.NewFromInt(int64(len(points)))).InexactFloat64()
	return math.Floor(mean + 0.5)
}

// BestSavingsMonth returns the first point with the highest savings.
func BestSavingsMonth(points []SavingsPoint) (SavingsPoint, bool) {
	return pick(points, func(candidate, current float64) bool { return candidate > current })
}

// LowestSavingsMonth returns the first point with the lowest savings.
func LowestSavingsMonth(points []SavingsPoint) (SavingsPoint, bool) {
	return pick(points, func(candidate, current float64) bool { return candidate < current })
}

func pick(points []SavingsPoint, better func(candidate, current float64) bool) (SavingsPoint, bool) {
	if len(points) == 0 {
		return SavingsPoint{}, false
	}
	best := points[0]
	for _, p := range points[1:] {
		if better(p.Savings, best.Savings) {
			best = p
		}
	}
	return best, true
}

type categoryTotal struct {
	category string
	amount   decimal.Decimal
}

func groupByCategory(entries []core.BudgetEntry, t core.EntryType) []categoryTotal {
	var out []categoryTotal
	index := make(map[string]int)
	for _, e := range entries {
		if e.Type != t {
			continue
		}
		cat := e.CategoryOrDefault()
		i, ok := index[cat]
		if !ok {
			i = len(out)
			index[cat] = i
			out = append(out, categoryTotal{category: cat, amount: decimal.Zero})
		}
		out[i].amount = out[i].amount.Add(decimal.NewFromFloat(e.Amount))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].amount.GreaterThan(out[j].amount) })
	return out
}

func sums(entries []core.BudgetEntry) (income, expenses decimal.Decimal) {
	income, expenses = decimal.Zero, decimal.Zero
	for _, e := range entries {
		switch e.Type {
		case core.Income:
			income = income.Add(decimal.NewFromFloat(e.Amount))
		case core.Expense:
			expenses = expenses.Add(decimal.NewFromFloat(e.Amount))
		}
	}
	return income, expenses
}
