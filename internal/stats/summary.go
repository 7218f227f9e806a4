package stats

import "budgetx/internal/core"

// Summary bundles every derived view of the budget for one revision of
// the data.
type Summary struct {
	Totals             Totals           `json:"totals"`
	Remaining          float64          `json:"remaining"`
	SavingsRate        float64          `json:"savingsRate"`
	IncomeByCategory   []CategoryAmount `json:"incomeByCategory"`
	ExpenseBreakdown   []CategoryShare  `json:"expenseBreakdown"`
	MonthlyTrend       []TrendPoint     `json:"monthlyTrend"`
	MonthlySavings     []SavingsPoint   `json:"monthlySavings"`
	AverageSavings     float64          `json:"averageSavings"`
	BestSavingsMonth   *SavingsPoint    `json:"bestSavingsMonth,omitempty"`
	LowestSavingsMonth *SavingsPoint    `json:"lowestSavingsMonth,omitempty"`
	LatestMonth        *TrendPoint      `json:"latestMonth,omitempty"`
}

func Summarize(entries []core.BudgetEntry, history []core.MonthlySnapshot) Summary {
	totals := TotalsByType(entries)
	trend := MonthlyTrend(history)
	savings := MonthlySavings(history)

	s := Summary{
		Totals:           totals,
		Remaining:        Remaining(entries),
		SavingsRate:      SavingsRate(totals.Income, totals.Expenses),
		IncomeByCategory: ByCategory(entries, core.Income),
		ExpenseBreakdown: CategoryShares(entries),
		MonthlyTrend:     trend,
		MonthlySavings:   savings,
		AverageSavings:   AverageSavings(savings),
	}
	if best, ok := BestSavingsMonth(savings); ok {
		s.BestSavingsMonth = &best
	}
	if lowest, ok := LowestSavingsMonth(savings); ok {
		s.LowestSavingsMonth = &lowest
	}
	if len(trend) > 0 {
		latest := trend[len(trend)-1]
		s.LatestMonth = &latest
	}
	return s
}
