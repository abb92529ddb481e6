// Package service is the thin validator + orchestrator sitting between
// the HTTP edge and a storage.Store: it owns the four configurable
// limits of spec.md §4.1, parses If-Match, and delegates everything
// else to whichever adapter it was constructed with. It is itself
// stateless given its adapter, aside from the operation counters it
// reports through Stats.
//
// Grounded on the teacher's shard.Shard: a thin wrapper that delegates
// to a storage.Store and increments atomic operation counters around
// each call.
package service

import (
	"context"

	"github.com/dreamware/kvsync/internal/apperrors"
	"github.com/dreamware/kvsync/internal/storage"
	"github.com/dreamware/kvsync/internal/types"
	"github.com/dreamware/kvsync/internal/util"
)

// Service validates requests against its configured Limits and
// delegates to a single storage.Store.
type Service struct {
	store    storage.Store
	limits   Limits
	counters counters
}

// New returns a Service backed by store, enforcing limits. Passing a
// zero Limits is almost never what a caller wants; use DefaultLimits()
// and override individual fields instead.
func New(store storage.Store, limits Limits) *Service {
	return &Service{store: store, limits: limits}
}

// Stats returns a point-in-time snapshot of the operation counters.
func (s *Service) Stats() Stats {
	return s.counters.snapshot()
}

func (s *Service) validateScope(scope types.Scope) error {
	if !scope.Valid() {
		return apperrors.Validation("scope requires non-empty tenantId, namespace, and userId")
	}
	return nil
}

func (s *Service) validateKey(key string) error {
	if key == "" {
		return apperrors.Validation("key must not be empty")
	}
	if len(key) > s.limits.MaxKeyLength {
		return apperrors.Validation("key length %d exceeds maxKeyLength %d", len(key), s.limits.MaxKeyLength)
	}
	return nil
}

func (s *Service) validateValue(value interface{}) error {
	size, ok := util.JSONSize(value)
	if !ok {
		return apperrors.Validation("value is not JSON-encodable")
	}
	if size > s.limits.MaxValueBytes {
		return apperrors.Validation("value size %d exceeds maxValueBytes %d", size, s.limits.MaxValueBytes)
	}
	return nil
}

func (s *Service) validateTTL(ttlSeconds *int64) error {
	if ttlSeconds != nil && *ttlSeconds <= 0 {
		return apperrors.Validation("ttlSeconds must be a positive integer, got %d", *ttlSeconds)
	}
	return nil
}

// ParseIfMatch parses an If-Match header value into a PutOptions/
// DeleteOptions-compatible version pointer. An absent/empty header
// yields (nil, nil): no precondition. A present-but-malformed header
// raises a precondition failure rather than a validation error, per
// spec.md §4.1.
func ParseIfMatch(raw string) (*int64, error) {
	version, ok, malformed := util.ParseIfMatch(raw)
	if malformed {
		return nil, apperrors.PreconditionFailed("malformed If-Match header %q", raw)
	}
	if !ok {
		return nil, nil
	}
	return &version, nil
}

// GetItem validates scope and key, then delegates to the adapter.
// Expiry filtering happens inside the adapter.
func (s *Service) GetItem(ctx context.Context, scope types.Scope, key string) (types.StoredItem, bool, error) {
	defer s.counters.bump(&s.counters.gets)
	if err := s.validateScope(scope); err != nil {
		return types.StoredItem{}, false, err
	}
	if err := s.validateKey(key); err != nil {
		return types.StoredItem{}, false, err
	}
	return s.store.Get(ctx, scope, key)
}

// SetItem validates scope, key, value, TTL shape, and If-Match, then
// delegates to adapter.Put.
func (s *Service) SetItem(ctx context.Context, scope types.Scope, key string, value interface{}, opts types.PutOptions) (types.StoredItem, error) {
	defer s.counters.bump(&s.counters.puts)
	if err := s.validateScope(scope); err != nil {
		return types.StoredItem{}, err
	}
	if err := s.validateKey(key); err != nil {
		return types.StoredItem{}, err
	}
	if err := s.validateValue(value); err != nil {
		return types.StoredItem{}, err
	}
	if err := s.validateTTL(opts.TTLSeconds); err != nil {
		return types.StoredItem{}, err
	}
	return s.store.Put(ctx, scope, key, value, opts)
}

// RemoveItem validates scope and key, then delegates to adapter.Delete.
// Returns true iff an active item existed and was removed.
func (s *Service) RemoveItem(ctx context.Context, scope types.Scope, key string, opts types.DeleteOptions) (bool, error) {
	defer s.counters.bump(&s.counters.deletes)
	if err := s.validateScope(scope); err != nil {
		return false, err
	}
	if err := s.validateKey(key); err != nil {
		return false, err
	}
	return s.store.Delete(ctx, scope, key, opts)
}

// BatchGet rejects an empty or oversize key array, validates each key,
// then delegates to the adapter.
func (s *Service) BatchGet(ctx context.Context, scope types.Scope, keys []string) ([]storage.BatchGetResult, error) {
	defer s.counters.bump(&s.counters.batchGets)
	if err := s.validateScope(scope); err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, apperrors.Validation("batchGet requires at least one key")
	}
	if len(keys) > s.limits.MaxBatchSize {
		return nil, apperrors.Validation("batchGet of %d keys exceeds maxBatchSize %d", len(keys), s.limits.MaxBatchSize)
	}
	for _, key := range keys {
		if err := s.validateKey(key); err != nil {
			return nil, err
		}
	}
	return s.store.BatchGet(ctx, scope, keys)
}

// BatchPut rejects an empty or oversize entry array, validates each
// entry as SetItem would, then delegates to the adapter. Entries are
// applied in declaration order; a mid-batch failure may leave earlier
// entries committed (spec.md §7).
func (s *Service) BatchPut(ctx context.Context, scope types.Scope, entries []storage.BatchPutEntry) ([]storage.BatchPutResult, error) {
	defer s.counters.bump(&s.counters.batchPuts)
	if err := s.validateScope(scope); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, apperrors.Validation("batchPut requires at least one entry")
	}
	if len(entries) > s.limits.MaxBatchSize {
		return nil, apperrors.Validation("batchPut of %d entries exceeds maxBatchSize %d", len(entries), s.limits.MaxBatchSize)
	}
	for _, e := range entries {
		if err := s.validateKey(e.Key); err != nil {
			return nil, err
		}
		if err := s.validateValue(e.Value); err != nil {
			return nil, err
		}
		if err := s.validateTTL(e.Opts.TTLSeconds); err != nil {
			return nil, err
		}
	}
	return s.store.BatchPut(ctx, scope, entries)
}

// List validates the prefix length and clamps the requested limit into
// [1, maxListLimit] — defaulting to 50 when the caller omitted a limit
// entirely, or to 1 when the caller explicitly asked for zero or
// negative — then delegates to the adapter.
func (s *Service) List(ctx context.Context, scope types.Scope, opts types.ListOptions) (types.ListResult, error) {
	defer s.counters.bump(&s.counters.lists)
	if err := s.validateScope(scope); err != nil {
		return types.ListResult{}, err
	}
	if opts.Prefix != nil && len(*opts.Prefix) > s.limits.MaxKeyLength {
		return types.ListResult{}, apperrors.Validation("prefix length %d exceeds maxKeyLength %d", len(*opts.Prefix), s.limits.MaxKeyLength)
	}
	resolved := util.ClampListLimit(opts.Limit, s.limits.MaxListLimit)
	opts.Limit = &resolved
	return s.store.List(ctx, scope, opts)
}

// Health passes through to the adapter.
func (s *Service) Health(ctx context.Context) storage.Health {
	return s.store.Health(ctx)
}

// Close releases the adapter's resources.
func (s *Service) Close() error {
	return s.store.Close()
}
