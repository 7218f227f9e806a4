package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "nested", "budgetx.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestSQLiteRepository_MigratesOnOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "budgetx.db")

	repo, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	assert.EqualValues(t, 2, repo.SchemaVersion())
	require.NoError(t, repo.Close())

	reopened, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	defer reopened.Close()
	assert.EqualValues(t, 2, reopened.SchemaVersion())
}

func TestSQLiteRepository_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	_, found, err := repo.Get(ctx, "budgetx.entries.v1")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, repo.Set(ctx, "budgetx.entries.v1", []byte(`[1]`)))
	require.NoError(t, repo.Set(ctx, "budgetx.entries.v1", []byte(`[1,2]`)))
	require.NoError(t, repo.Set(ctx, "budgetx.history.v1", []byte(`[]`)))

	value, found, err := repo.Get(ctx, "budgetx.entries.v1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[1,2]`, string(value))

	require.NoError(t, repo.Delete(ctx, "budgetx.entries.v1", "budgetx.history.v1", "never-written"))

	for _, key := range []string{"budgetx.entries.v1", "budgetx.history.v1"} {
		_, found, err := repo.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, found, key)
	}
}

func TestSQLiteRepository_MigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "budgetx.db")

	first, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	require.NoError(t, first.Set(context.Background(), "k", []byte("v")))
	require.NoError(t, first.Close())

	second, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	defer second.Close()

	value, found, err := second.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v", string(value))
}

func TestSQLiteRepository_ExportLog(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	_, ok, err := repo.LastExport(ctx, "entries")
	require.NoError(t, err)
	assert.False(t, ok)

	at := time.Date(2025, 11, 3, 10, 0, 0, 123, time.UTC)
	require.NoError(t, repo.RecordExport(ctx, ExportRecord{Kind: "entries", Rows: 15, ExportedAt: at}))
	require.NoError(t, repo.RecordExport(ctx, ExportRecord{Kind: "entries", Rows: 16, ExportedAt: at.Add(time.Minute)}))

	rec, ok, err := repo.LastExport(ctx, "entries")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 16, rec.Rows)
	assert.True(t, rec.ExportedAt.Equal(at.Add(time.Minute)))
}

func TestSQLiteRepository_Ping(t *testing.T) {
	repo := newTestRepo(t)
	assert.NoError(t, repo.Ping(context.Background()))
}
