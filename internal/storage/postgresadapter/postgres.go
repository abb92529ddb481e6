// Package postgresadapter realizes the storage.Store contract against a
// networked relational SQL server via github.com/lib/pq, the
// "networked relational SQL" backend of the four spec-mandated
// adapters. The schema and CRUD are identical to sqliteadapter's; only
// the driver name and placeholder style differ.
package postgresadapter

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/dreamware/kvsync/internal/storage"
	"github.com/dreamware/kvsync/internal/storage/sqlshared"
	"github.com/dreamware/kvsync/internal/types"
)

var dialect = sqlshared.Dialect{
	Name:        "postgres",
	Placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
}

// Adapter is a storage.Store backed by a pooled *sql.DB talking to
// Postgres (or any lib/pq-compatible server, e.g. CockroachDB).
type Adapter struct {
	db *sql.DB
}

// Open connects using a standard "postgres://" connection string,
// creates the items table if absent, and returns a ready Adapter.
func Open(ctx context.Context, connString string) (*Adapter, error) {
	db, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	sqlshared.ConfigurePool(db, 10, 30*time.Minute)

	if err := sqlshared.Ping(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
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
