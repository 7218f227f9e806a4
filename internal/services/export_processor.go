package services

import (
	"context"
	"errors"
	"sync"
	"time"

	applog "budgetx/internal/log"
)

// FullExporter rewrites every exported collection.
type FullExporter interface {
	ExportAll(ctx context.Context) error
}

// ExportProcessorConfig holds configuration for the periodic exporter.
type ExportProcessorConfig struct {
	// Interval between full exports (default: 5m)
	Interval time.Duration

	// Timeout bounds a single export run (default: 1m)
	Timeout time.Duration
}

func DefaultExportProcessorConfig() ExportProcessorConfig {
	return ExportProcessorConfig{
		Interval: 5 * time.Minute,
		Timeout:  time.Minute,
	}
}

// ExportProcessor runs a full export on startup and then on a fixed
// interval. It backs up the message-driven path in case notifications
// are lost.
type ExportProcessor struct {
	exporter FullExporter
	config   ExportProcessorConfig
	logger   *applog.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	runs    int
}

func NewExportProcessor(exporter FullExporter, config ExportProcessorConfig, logger *applog.Logger) *ExportProcessor {
	if logger == nil {
		logger = applog.Wrap(nil, applog.ComponentWorker)
	}
	defaults := DefaultExportProcessorConfig()
	if config.Interval <= 0 {
		config.Interval = defaults.Interval
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	return &ExportProcessor{exporter: exporter, config: config, logger: logger}
}

// Start begins the export loop. Returns an error if already running.
func (p *ExportProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return errors.New("export processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	p.logger.InfoContext(ctx, "Export processor started", "interval", p.config.Interval)
	return nil
}

// Stop signals the loop and waits for the current run to finish.
func (p *ExportProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	stopCh, doneCh := p.stopCh, p.doneCh
	p.running = false
	p.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		p.logger.InfoContext(ctx, "Export processor stopped")
		return nil
	case <-ctx.Done():
		p.logger.WarnContext(ctx, "Export processor stop timed out")
		return ctx.Err()
	}
}

// Runs reports how many export runs have completed, successful or not.
func (p *ExportProcessor) Runs() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.runs
}

func (p *ExportProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	p.runOnce(ctx)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.runOnce(ctx)
		}
	}
}

func (p *ExportProcessor) runOnce(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	if err := p.exporter.ExportAll(runCtx); err != nil {
		p.logger.ErrorContext(ctx, "Periodic export failed",
			applog.FieldOperation, applog.OpExport, applog.FieldError, err)
	}

	p.mu.Lock()
	p.runs++
	p.mu.Unlock()
}
