// Package sqliteadapter realizes the storage.Store contract against a
// single embedded SQLite file via github.com/mattn/go-sqlite3, the
// "embedded SQL" backend of the four spec-mandated adapters.
package sqliteadapter

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/dreamware/kvsync/internal/storage"
	"github.com/dreamware/kvsync/internal/storage/sqlshared"
	"github.com/dreamware/kvsync/internal/types"
)

var dialect = sqlshared.Dialect{
	Name:        "sqlite",
	Placeholder: func(n int) string { return "?" },
}

// Adapter is a storage.Store backed by a single *sql.DB talking to a
// SQLite database, which may be a file path or ":memory:" for tests.
type Adapter struct {
	db *sql.DB
}

// Open creates the items table if absent and returns a ready Adapter.
// path is a filesystem path or ":memory:"; DSN query parameters such as
// "?_journal_mode=WAL" are the caller's responsibility to append.
func Open(ctx context.Context, path string) (*Adapter, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	// SQLite allows only one writer at a time; a single connection
	// avoids "database is locked" errors under concurrent writers.
	sqlshared.ConfigurePool(db, 1, time.Hour)

	if _, err := db.ExecContext(ctx, sqlshared.Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Adapter{db: db}, nil
}

func (a *Adapter) Get(ctx context.Context, scope types.Scope, key string) (types.StoredItem, bool, error) {
	return sqlshared.Get(ctx, a.db, dialect, scope, key)
}

func (a *Adapter) Put(ctx context.Context, scope types.Scope, key string, value interface{}, opts types.PutOptions) (types.StoredItem, error) {
	return sqlshared.Put(ctx, a.db, dialect, scope, key, value, opts)
}

func (a *Adapter) Delete(ctx context.Context, scope types.Scope, key string, opts types.DeleteOptions) (bool, error) {
	return sqlshared.Delete(ctx, a.db, dialect, scope, key, opts)
}

func (a *Adapter) BatchGet(ctx context.Context, scope types.Scope, keys []string) ([]storage.BatchGetResult, error) {
	return sqlshared.BatchGet(ctx, a.db, dialect, scope, keys)
}

func (a *Adapter) BatchPut(ctx context.Context, scope types.Scope, entries []storage.BatchPutEntry) ([]storage.BatchPutResult, error) {
	return sqlshared.BatchPut(ctx, a.db, dialect, scope, entries)
}

func (a *Adapter) List(ctx context.Context, scope types.Scope, opts types.ListOptions) (types.ListResult, error) {
	return sqlshared.List(ctx, a.db, dialect, scope, opts)
}

func (a *Adapter) Health(ctx context.Context) storage.Health {
	if err := sqlshared.Ping(ctx, a.db); err != nil {
		return storage.Health{OK: false, Details: err.Error()}
	}
	return storage.Health{OK: true}
}

func (a *Adapter) Close() error {
	return a.db.Close()
}
