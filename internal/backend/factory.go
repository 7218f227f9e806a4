package backend

import (
	"context"
	"errors"
	"fmt"

	"budgetx/internal/amqp"
	applog "budgetx/internal/log"
	"budgetx/internal/storage"
	"budgetx/internal/storage/memory"
	"budgetx/internal/store"
)

type DefaultFactory struct {
	logger *applog.Logger
}

func NewFactory(logger *applog.Logger) Factory {
	if logger == nil {
		logger = applog.Wrap(nil, applog.ComponentBackend)
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend validates config and opens the backend it names.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("%w %q", errUnknownBackend, config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	f.logger.Info("SQLite backend ready", "path", config.SQLitePath, "schema_version", repo.SchemaVersion())

	// Notifications are optional: without a broker the export worker only
	// picks changes up on its periodic run.
	var client *amqp.Client
	if config.AMQPURL != "" {
		client, err = amqp.NewClient(ctx, config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger.WithComponent(applog.ComponentAMQP))
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without notifications",
				applog.FieldError, err)
			client = nil
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	f.logger.Info("Initialized SQLite backend",
		"db_path", config.SQLitePath,
		"amqp_enabled", client != nil)

	return &BackendResult{
		KV:       repo,
		SQLite:   repo,
		Notifier: client,
		Cleanup: func() error {
			var errs []error
			if client != nil {
				errs = append(errs, client.Close())
			}
			errs = append(errs, repo.Close())
			return errors.Join(errs...)
		},
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	kv := memory.NewFromDir(config.SeedDir, store.EntriesKey, store.HistoryKey)

	if config.AMQPURL != "" {
		f.logger.Warn("AMQP_URL ignored: the memory backend cannot be read by the export worker")
	}
	f.logger.Info("Initialized memory backend",
		"seed_directory", config.SeedDir,
		"seeded_documents", kv.Len())

	return &BackendResult{KV: kv}, nil
}
