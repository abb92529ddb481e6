// Package storage defines the adapter contract every backend
// (sqliteadapter, postgresadapter, httpsqladapter, redisadapter, and the
// in-process memoryadapter) implements identically: get, put, delete,
// batchGet, batchPut, list, health, close. The storage service is the
// only caller; adapters never see HTTP concerns.
package storage

import (
	"context"

	"github.com/dreamware/kvsync/internal/types"
)

// Store is the semantic layer shared by every backend. All methods must
// be safe for concurrent use and must exhibit identical observable
// behavior across backends, modulo the documented concurrency
// exceptions for adapters with no native multi-key transaction (see
// redisadapter).
type Store interface {
	// Get returns the active item for (scope, key), or (zero, false) if
	// none exists or the stored item is expired.
	Get(ctx context.Context, scope types.Scope, key string) (types.StoredItem, bool, error)

	// Put applies an optimistic-concurrency write as described in
	// spec §4.2: version starts at 1 and increments by exactly 1 per
	// successful write to the same primary key, resetting to 1 if the
	// prior row is absent or expired. The precondition check and the
	// write happen atomically with respect to concurrent writers.
	Put(ctx context.Context, scope types.Scope, key string, value interface{}, opts types.PutOptions) (types.StoredItem, error)

	// Delete removes the active row for (scope, key) if one exists.
	// Returns false, never an error, when there was nothing active to
	// remove.
	Delete(ctx context.Context, scope types.Scope, key string, opts types.DeleteOptions) (bool, error)

	// BatchGet returns an entry for every key in keys, in the same
	// order; absent/expired keys map to (zero, false).
	BatchGet(ctx context.Context, scope types.Scope, keys []string) ([]BatchGetResult, error)

	// BatchPut applies Put per entry in declaration order. Not
	// transactional across entries: a mid-batch failure may leave
	// earlier entries committed. The returned slice has one result per
	// input entry, in order.
	BatchPut(ctx context.Context, scope types.Scope, entries []BatchPutEntry) ([]BatchPutResult, error)

	// List returns up to opts.Limit active items in ascending
	// lexicographic key order, optionally filtered by prefix and
	// resumed after a cursor.
	List(ctx context.Context, scope types.Scope, opts types.ListOptions) (types.ListResult, error)

	// Health performs a lightweight round trip to the backend. It never
	// returns an error for a failed check; failure is conveyed through
	// the returned Health.OK/Details.
	Health(ctx context.Context) Health

	// Close releases the adapter's connection(s). Idempotent.
	Close() error
}

// BatchGetResult pairs a requested key with its lookup outcome.
type BatchGetResult struct {
	Key   string
	Item  types.StoredItem
	Found bool
}

// BatchPutEntry is one entry of a batchPut request: a key, its new
// value, and its own independent PutOptions.
type BatchPutEntry struct {
	Key   string
	Value interface{}
	Opts  types.PutOptions
}

// BatchPutResult pairs a batchPut entry with its outcome. Err is set
// (and Item is zero) when that entry's precondition failed or the
// backend rejected the write; other entries in the same batch are
// unaffected.
type BatchPutResult struct {
	Key  string
	Item types.StoredItem
	Err  error
}

// Health is the outcome of a backend round trip.
type Health struct {
	OK      bool
	Details string
}
