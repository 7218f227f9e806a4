// Package backend opens the persistence the Entry Store writes through,
// chosen by DATA_BACKEND.
package backend

import (
	"context"
	"errors"

	"budgetx/internal/amqp"
	"budgetx/internal/storage"
	"budgetx/internal/store"
)

// KV is a document store the repository can persist through and the
// readiness probe can ping.
type KV interface {
	store.KV
	Ping(ctx context.Context) error
}

type CleanupFunc func() error

// BackendResult is what CreateBackend opened. SQLite and Notifier are nil
// unless the sqlite backend provided them.
type BackendResult struct {
	KV       KV
	SQLite   *storage.SQLiteRepository
	Notifier *amqp.Client
	Cleanup  CleanupFunc
}

// Close runs Cleanup once it is set.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

var errUnknownBackend = errors.New("unknown backend type")
