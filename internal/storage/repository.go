package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const pragmas = "?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)"

// SQLiteRepository persists the store's JSON documents in a key/value table
// and keeps a small log of sheet exports for the worker.
type SQLiteRepository struct {
	db            *sql.DB
	schemaVersion uint
}

// ExportRecord is the last successful export of one collection.
type ExportRecord struct {
	Kind       string
	Rows       int
	ExportedAt time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+pragmas)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := migrateUp(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, schemaVersion: version}, nil
}

// SchemaVersion is the migration version the database was opened at.
func (r *SQLiteRepository) SchemaVersion() uint {
	return r.schemaVersion
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping is used by the readiness probe.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Get returns the stored document for key. found is false when the key
// has never been written or was deleted.
func (r *SQLiteRepository) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	return []byte(value), true, nil
}

// Set overwrites the document stored under key.
func (r *SQLiteRepository) Set(ctx context.Context, key string, value []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(value), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}

	slog.DebugContext(ctx, "Document saved to SQLite", "key", key, "bytes", len(value))
	return nil
}

// Delete removes every given key in one transaction. Missing keys are not
// an error.
func (r *SQLiteRepository) Delete(ctx context.Context, keys ...string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, key := range keys {
		if _, err := tx.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
			return fmt.Errorf("delete %s: %w", key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	return nil
}

// LastExport returns the last recorded export for kind. ok is false when
// the collection has never been exported.
func (r *SQLiteRepository) LastExport(ctx context.Context, kind string) (ExportRecord, bool, error) {
	rec := ExportRecord{Kind: kind}
	var nanos int64
	err := r.db.QueryRowContext(ctx, `SELECT rows, exported_at FROM export_log WHERE kind = ?`, kind).Scan(&rec.Rows, &nanos)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, false, nil
	}
	if err != nil {
		return rec, false, fmt.Errorf("get export log %s: %w", kind, err)
	}
	rec.ExportedAt = time.Unix(0, nanos).UTC()
	return rec, true, nil
}

// RecordExport stores the outcome of a successful export.
func (r *SQLiteRepository) RecordExport(ctx context.Context, rec ExportRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO export_log (kind, rows, exported_at) VALUES (?, ?, ?)
		ON CONFLICT(kind) DO UPDATE SET rows = excluded.rows, exported_at = excluded.exported_at`,
		rec.Kind, rec.Rows, rec.ExportedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("record export %s: %w", rec.Kind, err)
	}
	return nil
}
