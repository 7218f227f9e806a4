// Package worker mirrors the persisted budget into Google Sheets. It reacts
// to state change notifications and also exports on a timer.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"budgetx/internal/amqp"
	applog "budgetx/internal/log"
	"budgetx/internal/sheets"
	"budgetx/internal/storage"
	"budgetx/internal/store"
)

// ExportLog remembers when each collection was last exported.
type ExportLog interface {
	LastExport(ctx context.Context, kind string) (storage.ExportRecord, bool, error)
	RecordExport(ctx context.Context, rec storage.ExportRecord) error
}

type ExportWorker struct {
	state    *store.Store
	log      ExportLog
	exporter sheets.Exporter
	logger   *applog.Logger
	now      func() time.Time
}

// NewExportWorker reads state through st, which must be backed by the same
// database the server writes to.
func NewExportWorker(st *store.Store, log ExportLog, exporter sheets.Exporter, logger *applog.Logger) *ExportWorker {
	if logger == nil {
		logger = applog.Wrap(nil, applog.ComponentWorker)
	}
	return &ExportWorker{
		state:    st,
		log:      log,
		exporter: exporter,
		logger:   logger,
		now:      time.Now,
	}
}

// HandleStateChanged exports the collections named by msg. A message older
// than the last export of its collection is acknowledged without work,
// because that export already read the newer state.
func (w *ExportWorker) HandleStateChanged(ctx context.Context, msg *amqp.StateChangedMessage) error {
	kinds := []string{msg.Kind}
	if msg.Kind == amqp.KindReset {
		kinds = []string{amqp.KindEntries, amqp.KindHistory}
	}

	var errs []error
	for _, kind := range kinds {
		last, ok, err := w.log.LastExport(ctx, kind)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok && msg.Timestamp.Before(last.ExportedAt) {
			w.logger.DebugContext(ctx, "State change already exported",
				"kind", kind, applog.FieldRevision, msg.Revision, "exported_at", last.ExportedAt)
			continue
		}
		if err := w.export(ctx, kind); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ExportAll exports every collection regardless of the export log.
func (w *ExportWorker) ExportAll(ctx context.Context) error {
	return errors.Join(
		w.export(ctx, amqp.KindEntries),
		w.export(ctx, amqp.KindHistory),
	)
}

func (w *ExportWorker) export(ctx context.Context, kind string) error {
	// Taken before reading so any change saved after the read carries a
	// later timestamp than the record.
	startedAt := w.now()

	var (
		rows int
		err  error
	)
	switch kind {
	case amqp.KindEntries:
		rows, err = w.exporter.ExportEntries(ctx, w.state.LoadEntries(ctx))
	case amqp.KindHistory:
		rows, err = w.exporter.ExportHistory(ctx, w.state.LoadHistory(ctx))
	default:
		return fmt.Errorf("unknown export kind %q", kind)
	}
	if err != nil {
		w.logger.ErrorContext(ctx, "Export failed",
			"kind", kind,
			applog.FieldOperation, applog.OpExport,
			applog.FieldError, err,
			applog.FieldErrorType, applog.ErrorTypeUpstream)
		return fmt.Errorf("export %s: %w", kind, err)
	}

	if err := w.log.RecordExport(ctx, storage.ExportRecord{Kind: kind, Rows: rows, ExportedAt: startedAt}); err != nil {
		// The sheet is already up to date; the next message just repeats
		// the export.
		w.logger.WarnContext(ctx, "Failed to record export", "kind", kind, applog.FieldError, err)
	}

	w.logger.InfoContext(ctx, "Export completed", "kind", kind, applog.FieldCount, rows)
	return nil
}
