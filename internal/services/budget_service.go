package services

import (
	"context"
	"strconv"

	"budgetx/internal/amqp"
	"budgetx/internal/cache"
	"budgetx/internal/core"
	applog "budgetx/internal/log"
	"budgetx/internal/stats"
	"budgetx/internal/store"
)

// Notifier announces state changes to out-of-process consumers.
type Notifier interface {
	PublishStateChanged(ctx context.Context, kind string, revision int64) error
}

// BudgetService orchestrates mutations on the repository, keeps derived
// statistics cached per revision and notifies the export worker.
type BudgetService struct {
	repo      *store.Repository
	summaries cache.Cache[stats.Summary]
	notifier  Notifier
	logger    *applog.Logger
	events    *applog.StructuredLogger
}

// NewBudgetService wires the service. summaries and notifier may be nil.
func NewBudgetService(repo *store.Repository, summaries cache.Cache[stats.Summary], notifier Notifier, logger *applog.Logger) *BudgetService {
	if logger == nil {
		logger = applog.Wrap(nil, applog.ComponentStore)
	}
	return &BudgetService{
		repo:      repo,
		summaries: summaries,
		notifier:  notifier,
		logger:    logger,
		events:    applog.NewStructuredLogger(logger),
	}
}

func (s *BudgetService) Entries() []core.BudgetEntry {
	return s.repo.Entries()
}

func (s *BudgetService) History() []core.MonthlySnapshot {
	return s.repo.History()
}

func (s *BudgetService) AddEntry(ctx context.Context, e core.BudgetEntry) (core.BudgetEntry, error) {
	saved, err := s.repo.Add(ctx, e)
	if err != nil {
		return core.BudgetEntry{}, err
	}
	s.entryChanged(ctx, applog.OpCreate, saved)
	return saved, nil
}

// AddFromReceipt stores a reviewed receipt as an expense.
func (s *BudgetService) AddFromReceipt(ctx context.Context, p core.ParsedReceipt) (core.BudgetEntry, error) {
	saved, err := s.repo.AddFromReceipt(ctx, p)
	if err != nil {
		return core.BudgetEntry{}, err
	}
	s.entryChanged(ctx, applog.OpCreate, saved)
	return saved, nil
}

func (s *BudgetService) UpdateEntry(ctx context.Context, id string, e core.BudgetEntry) (core.BudgetEntry, error) {
	saved, err := s.repo.Update(ctx, id, e)
	if err != nil {
		return core.BudgetEntry{}, err
	}
	s.entryChanged(ctx, applog.OpUpdate, saved)
	return saved, nil
}

func (s *BudgetService) DeleteEntry(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.entryChanged(ctx, applog.OpDelete, core.BudgetEntry{ID: id})
	return nil
}

func (s *BudgetService) AppendSnapshot(ctx context.Context, snap core.MonthlySnapshot) (core.MonthlySnapshot, error) {
	saved, err := s.repo.AppendSnapshot(ctx, snap)
	if err != nil {
		return core.MonthlySnapshot{}, err
	}
	rev := s.repo.Revision()
	s.logger.InfoContext(ctx, "Snapshot appended",
		applog.FieldMonth, saved.Month, applog.FieldRevision, rev)
	s.publish(ctx, amqp.KindHistory, rev)
	return saved, nil
}

// Reset discards stored state and reloads the seed data.
func (s *BudgetService) Reset(ctx context.Context) {
	s.repo.Reset(ctx)
	rev := s.repo.Revision()
	s.logger.InfoContext(ctx, "Budget state reset", applog.FieldRevision, rev)
	s.publish(ctx, amqp.KindReset, rev)
}

// Summary returns every derived statistic for the current state together
// with the revision it was computed for.
func (s *BudgetService) Summary() (stats.Summary, int64) {
	entries, history, rev := s.repo.Snapshot()
	if s.summaries == nil {
		return stats.Summarize(entries, history), rev
	}

	summary := s.summaries.GetOrCompute("summary:"+strconv.FormatInt(rev, 10), func() stats.Summary {
		return stats.Summarize(entries, history)
	})
	return summary, rev
}

// CacheStats reports hit counters of the summary cache. It is zero when the
// service runs without one.
func (s *BudgetService) CacheStats() cache.Stats {
	if s.summaries == nil {
		return cache.Stats{}
	}
	return s.summaries.Stats()
}

// Revision is the store revision mutations have reached.
func (s *BudgetService) Revision() int64 {
	return s.repo.Revision()
}

// BudgetContext renders the plain-text digest sent to the advisor.
func (s *BudgetService) BudgetContext() string {
	entries, history, _ := s.repo.Snapshot()
	return stats.BudgetContextSummary(entries, history)
}

func (s *BudgetService) entryChanged(ctx context.Context, op string, e core.BudgetEntry) {
	rev := s.repo.Revision()
	s.events.LogEntryChanged(ctx, op, e.ID, string(e.Type), e.Label, e.Amount, e.Category, rev)
	s.publish(ctx, amqp.KindEntries, rev)
}

// publish never fails the caller; the state is already saved locally.
func (s *BudgetService) publish(ctx context.Context, kind string, revision int64) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.PublishStateChanged(ctx, kind, revision); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish state change",
			"kind", kind,
			applog.FieldRevision, revision,
			applog.FieldError, err,
			applog.FieldComponent, applog.ComponentAMQP)
	}
}
