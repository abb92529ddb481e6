// Package memoryadapter is the in-process reference implementation of
// the storage.Store contract, adapted from the teacher's MemoryStore:
// no persistence, no external process, thread-safe via sync.RWMutex.
// It exists for unit tests and local development, not as a fifth
// production backend.
package memoryadapter

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dreamware/kvsync/internal/apperrors"
	"github.com/dreamware/kvsync/internal/storage"
	"github.com/dreamware/kvsync/internal/types"
	"github.com/dreamware/kvsync/internal/util"
)

// Adapter implements storage.Store entirely in heap memory. Every
// scope's keyspace lives in the same map, partitioned by
// types.Scope.Key() so two scopes never observe each other's rows.
type Adapter struct {
	mu     sync.RWMutex
	rows   map[string]map[string]row
	closed bool
	now    func() time.Time
}

type row struct {
	item types.StoredItem
}

// New returns an empty Adapter ready for immediate use.
func New() *Adapter {
	return &Adapter{
		rows: make(map[string]map[string]row),
		now:  time.Now,
	}
}

func (a *Adapter) scopeRows(scope types.Scope) map[string]row {
	sk := scope.Key()
	m, ok := a.rows[sk]
	if !ok {
		m = make(map[string]row)
		a.rows[sk] = m
	}
	return m
}

func activeLocked(r row, now time.Time) bool {
	return r.item.ExpiresAt == nil || r.item.ExpiresAt.After(now)
}

// Get implements storage.Store.
func (a *Adapter) Get(ctx context.Context, scope types.Scope, key string) (types.StoredItem, bool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	m := a.rows[scope.Key()]
	r, ok := m[key]
	if !ok || !activeLocked(r, a.now()) {
		return types.StoredItem{}, false, nil
	}
	return r.item, true, nil
}

// Put implements storage.Store.
func (a *Adapter) Put(ctx context.Context, scope types.Scope, key string, value interface{}, opts types.PutOptions) (types.StoredItem, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	m := a.scopeRows(scope)
	now := a.now()
	existing, hasExisting := m[key]
	var current *types.StoredItem
	if hasExisting && activeLocked(existing, now) {
		current = &existing.item
	}

	if opts.IfMatchVersion != nil {
		if current == nil || current.Version != *opts.IfMatchVersion {
			return types.StoredItem{}, apperrors.PreconditionFailed("version mismatch for key %q", key)
		}
	}

	next := types.StoredItem{
		Key:       key,
		Value:     value,
		UpdatedAt: now,
	}
	if current != nil {
		next.Version = current.Version + 1
		next.CreatedAt = current.CreatedAt
	} else {
		next.Version = 1
		next.CreatedAt = now
	}
	if opts.TTLSeconds != nil {
		exp := now.Add(time.Duration(*opts.TTLSeconds) * time.Second)
		next.ExpiresAt = &exp
	}
	next.ETag = util.ETag(next.Version)

	m[key] = row{item: next}
	return next, nil
}

// Delete implements storage.Store.
func (a *Adapter) Delete(ctx context.Context, scope types.Scope, key string, opts types.DeleteOptions) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	m := a.rows[scope.Key()]
	r, ok := m[key]
	if !ok || !activeLocked(r, a.now()) {
		return false, nil
	}
	if opts.IfMatchVersion != nil && r.item.Version != *opts.IfMatchVersion {
		return false, apperrors.PreconditionFailed("version mismatch for key %q", key)
	}
	delete(m, key)
	return true, nil
}

// BatchGet implements storage.Store.
func (a *Adapter) BatchGet(ctx context.Context, scope types.Scope, keys []string) ([]storage.BatchGetResult, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	m := a.rows[scope.Key()]
	now := a.now()
	results := make([]storage.BatchGetResult, 0, len(keys))
	for _, key := range keys {
		r, ok := m[key]
		if !ok || !activeLocked(r, now) {
			results = append(results, storage.BatchGetResult{Key: key})
			continue
		}
		results = append(results, storage.BatchGetResult{Key: key, Item: r.item, Found: true})
	}
	return results, nil
}

// BatchPut implements storage.Store. Entries are applied in order, each
// through Put under its own lock acquisition; a precondition failure on
// one entry does not affect the others.
func (a *Adapter) BatchPut(ctx context.Context, scope types.Scope, entries []storage.BatchPutEntry) ([]storage.BatchPutResult, error) {
	results := make([]storage.BatchPutResult, 0, len(entries))
	for _, e := range entries {
		item, err := a.Put(ctx, scope, e.Key, e.Value, e.Opts)
		results = append(results, storage.BatchPutResult{Key: e.Key, Item: item, Err: err})
	}
	return results, nil
}

// List implements storage.Store.
func (a *Adapter) List(ctx context.Context, scope types.Scope, opts types.ListOptions) (types.ListResult, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	m := a.rows[scope.Key()]
	now := a.now()

	var keys []string
	for k, r := range m {
		if !activeLocked(r, now) {
			continue
		}
		if opts.Prefix != nil && !strings.HasPrefix(k, *opts.Prefix) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	start := 0
	if opts.Cursor != nil {
		cursorKey, ok := util.DecodeCursor(*opts.Cursor)
		if !ok {
			return types.ListResult{}, apperrors.Validation("malformed cursor")
		}
		start = sort.Search(len(keys), func(i int) bool { return keys[i] > cursorKey })
	}

	limit := *opts.Limit
	end := start + limit
	truncated := end < len(keys)
	if end > len(keys) {
		end = len(keys)
	}

	page := keys[start:end]
	items := make([]types.StoredItem, 0, len(page))
	for _, k := range page {
		items = append(items, m[k].item)
	}

	result := types.ListResult{Items: items}
	if truncated && len(page) > 0 {
		last := util.EncodeCursor(page[len(page)-1])
		result.NextCursor = &last
	}
	return result, nil
}

// Health implements storage.Store. The in-memory adapter is healthy
// from construction until Close is called.
func (a *Adapter) Health(ctx context.Context) storage.Health {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return storage.Health{OK: false, Details: "adapter closed"}
	}
	return storage.Health{OK: true}
}

// Close implements storage.Store. Idempotent.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	return nil
}
