// Package sqlshared factors the database/sql-based CRUD that backs
// sqliteadapter, postgresadapter, and httpsqladapter: they differ only in
// driver name, DSN shape, and placeholder style, not in the statements
// they run or the transaction shape of a put.
package sqlshared

import (
	"context"
	"database/sql"
	"time"
)

// Dialect captures the handful of ways the three SQL adapters diverge.
type Dialect struct {
	// Name identifies the dialect for logging ("sqlite", "postgres",
	// "libsql-http").
	Name string

	// Placeholder returns the positional-parameter token for the n-th
	// (1-indexed) bound argument: "?" for sqlite/libsql, "$1"/"$2"/...
	// for postgres.
	Placeholder func(n int) string

	// UpsertStatement holds an optional single-statement
	// INSERT ... ON CONFLICT DO UPDATE for the dialect. None of the
	// adapters set it, and Put does not read it: every dialect goes
	// through the read-modify-write transaction.
	UpsertStatement string
}

// Schema is the DDL every SQL adapter issues against a fresh database.
// The composite primary key matches spec.md's invariant that
// (tenantId, namespace, userId, key) is the primary key across all
// backends; idx_items_expiry supports the expiry filter on reads
// without a full table scan.
const Schema = `
CREATE TABLE IF NOT EXISTS items (
	tenant_id  TEXT NOT NULL,
	namespace  TEXT NOT NULL,
	user_id    TEXT NOT NULL,
	key        TEXT NOT NULL,
	value_json TEXT NOT NULL,
	version    BIGINT NOT NULL,
	expires_at TIMESTAMP NULL,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	PRIMARY KEY (tenant_id, namespace, user_id, key)
);
CREATE INDEX IF NOT EXISTS idx_items_expiry ON items (expires_at);
`

// ConfigurePool applies the pool limits every adapter wants instead of
// database/sql's unbounded defaults: a modest cap on open connections
// and a lifetime that recycles connections before a load balancer or
// the remote endpoint decides to.
func ConfigurePool(db *sql.DB, maxOpenConns int, connMaxLifetime time.Duration) {
	db.SetMaxOpenConns(maxOpenConns)
	db.SetConnMaxLifetime(connMaxLifetime)
}

// Ping performs the round trip each SQL adapter's Health uses: a plain
// SELECT 1, which every dialect here understands identically.
func Ping(ctx context.Context, db *sql.DB) error {
	var one int
	return db.QueryRowContext(ctx, "SELECT 1").Scan(&one)
}
