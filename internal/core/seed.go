package core

// SeedEntries returns the starter budget shown when nothing valid has been
// persisted. A fresh slice is returned on every call.
func SeedEntries() []BudgetEntry {
	return []BudgetEntry{
		{ID: "income-1", Type: Income, Label: "Part-time Job", Amount: 1400, Category: "Primary", Recurrence: Recurring, Frequency: Monthly},
		{ID: "income-2", Type: Income, Label: "Freelance Gig", Amount: 450, Category: "Side Hustle", Recurrence: Recurring, Frequency: Monthly},
		{ID: "income-3", Type: Income, Label: "Tutoring", Amount: 200, Category: "Side Hustle", Recurrence: Recurring, Frequency: Monthly},
		{ID: "expense-1", Type: Expense, Label: "Rent", Amount: 750, Category: "Housing", Recurrence: Recurring, Frequency: Monthly},
		{ID: "expense-2", Type: Expense, Label: "Tuition Payment", Amount: 380, Category: "Education", Recurrence: Recurring, Frequency: Monthly},
		{ID: "expense-3", Type: Expense, Label: "Phone Bill", Amount: 42, Category: "Utilities", Recurrence: Recurring, Frequency: Monthly},
		{ID: "expense-4", Type: Expense, Label: "Internet", Amount: 38, Category: "Utilities", Recurrence: Recurring, Frequency: Monthly},
		{ID: "expense-5", Type: Expense, Label: "Groceries", Amount: 185, Category: "Food", Recurrence: Recurring, Frequency: Monthly},
		{ID: "expense-6", Type: Expense, Label: "Dining Out", Amount: 95, Category: "Food", Recurrence: Recurring, Frequency: Monthly},
		{ID: "expense-7", Type: Expense, Label: "Coffee Shops", Amount: 35, Category: "Food", Recurrence: Recurring, Frequency: Monthly},
		{ID: "expense-8", Type: Expense, Label: "Bus Pass", Amount: 55, Category: "Transport", Recurrence: Recurring, Frequency: Monthly},
		{ID: "expense-9", Type: Expense, Label: "Streaming Services", Amount: 28, Category: "Fun", Recurrence: Recurring, Frequency: Monthly},
		{ID: "expense-10", Type: Expense, Label: "Going Out", Amount: 60, Category: "Fun", Recurrence: Recurring, Frequency: Monthly},
		{ID: "expense-11", Type: Expense, Label: "Textbooks", Amount: 120, Category: "Education", Recurrence: OneTime, Notes: "Fall semester books"},
		{ID: "expense-12", Type: Expense, Label: "New Headphones", Amount: 65, Category: "Fun", Recurrence: OneTime},
	}
}

// SeedHistory returns six months of sample history, oldest first.
func SeedHistory() []MonthlySnapshot {
	snap := func(month, label string, income, expenses, housing, education, food, utilities, transport, fun float64) MonthlySnapshot {
		return MonthlySnapshot{
			Month:    month,
			Label:    label,
			Income:   income,
			Expenses: expenses,
			ExpensesByCategory: map[string]float64{
				"Housing":   housing,
				"Education": education,
				"Food":      food,
				"Utilities": utilities,
				"Transport": transport,
				"Fun":       fun,
			},
		}
	}
	return []MonthlySnapshot{
		snap("2025-06", "Jun", 1850, 1420, 750, 280, 195, 75, 45, 75),
		snap("2025-07", "Jul", 2100, 1680, 750, 380, 280, 80, 60, 130),
		snap("2025-08", "Aug", 1950, 1890, 750, 520, 310, 82, 68, 160),
		snap("2025-09", "Sep", 2050, 1720, 750, 400, 290, 78, 52, 150),
		snap("2025-10", "Oct", 2000, 1580, 750, 380, 245, 80, 55, 70),
		snap("2025-11", "Nov", 2050, 1750, 750, 500, 270, 85, 60, 85),
	}
}
