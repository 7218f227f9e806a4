package sheets

import (
	"context"

	"budgetx/internal/core"
)

// Exporter mirrors budget state into a spreadsheet. Each call replaces the
// whole tab and returns the number of data rows written.
type Exporter interface {
	ExportEntries(ctx context.Context, entries []core.BudgetEntry) (int, error)
	ExportHistory(ctx context.Context, history []core.MonthlySnapshot) (int, error)
}
