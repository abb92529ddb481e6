// Package redisadapter realizes the storage.Store contract against
// Redis via github.com/redis/go-redis/v9, the "key-value store with no
// native multi-key transactions" backend of the four spec-mandated
// adapters. Each item is one JSON envelope at a composed key; writes use
// Redis's WATCH/MULTI/EXEC optimistic-transaction primitive, retried up
// to maxCASAttempts times before surfacing a precondition failure, per
// spec.md §4.2's "Backend-specific realisations" table.
package redisadapter

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dreamware/kvsync/internal/apperrors"
	"github.com/dreamware/kvsync/internal/storage"
	"github.com/dreamware/kvsync/internal/types"
	"github.com/dreamware/kvsync/internal/util"
)

// maxCASAttempts bounds the WATCH/MULTI/EXEC retry loop for Put and
// Delete, per spec.md §4.2: "retry up to a small fixed budget (5
// attempts) then raise a precondition failure."
const maxCASAttempts = 5

// scanBatchSize is the COUNT hint passed to each Redis SCAN call while
// building a list page; it does not bound the page size returned to
// the caller.
const scanBatchSize = 200

// Adapter is a storage.Store backed by a single Redis client.
type Adapter struct {
	client *redis.Client
}

// Open connects to a Redis server at addr ("host:port") and returns a
// ready Adapter. It does not create any schema; Redis needs none.
func Open(ctx context.Context, addr string) (*Adapter, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return &Adapter{client: client}, nil
}

func (a *Adapter) Get(ctx context.Context, scope types.Scope, key string) (types.StoredItem, bool, error) {
	composed := composeKey(scope.TenantID, scope.Namespace, scope.UserID, key)
	raw, err := a.client.Get(ctx, composed).Bytes()
	if errors.Is(err, redis.Nil) {
		return types.StoredItem{}, false, nil
	}
	if err != nil {
		return types.StoredItem{}, false, apperrors.Internal(err, "get %q", key)
	}
	env, err := decodeEnvelope(raw)
	if err != nil {
		return types.StoredItem{}, false, apperrors.Internal(err, "decode envelope for %q", key)
	}
	if !env.active(time.Now()) {
		a.client.Del(ctx, composed)
		return types.StoredItem{}, false, nil
	}
	item, err := env.toItem(key)
	if err != nil {
		return types.StoredItem{}, false, apperrors.Internal(err, "decode value for %q", key)
	}
	return item, true, nil
}

func (a *Adapter) Put(ctx context.Context, scope types.Scope, key string, value interface{}, opts types.PutOptions) (types.StoredItem, error) {
	composed := composeKey(scope.TenantID, scope.Namespace, scope.UserID, key)

	var result types.StoredItem
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		now := time.Now().UTC()
		var current *envelope

		err := a.client.Watch(ctx, func(tx *redis.Tx) error {
			raw, getErr := tx.Get(ctx, composed).Bytes()
			switch {
			case errors.Is(getErr, redis.Nil):
				current = nil
			case getErr != nil:
				return getErr
			default:
				env, decErr := decodeEnvelope(raw)
				if decErr != nil {
					return decErr
				}
				if env.active(now) {
					current = &env
				} else {
					current = nil
				}
			}

			if opts.IfMatchVersion != nil {
				if current == nil || current.Version != *opts.IfMatchVersion {
					return apperrors.PreconditionFailed("version mismatch for key %q", key)
				}
			}

			var version int64
			var createdAt time.Time
			if current != nil {
				version = current.Version + 1
				createdAt = current.CreatedAt
			} else {
				version = 1
				createdAt = now
			}
			var expiresAt *time.Time
			if opts.TTLSeconds != nil {
				exp := now.Add(time.Duration(*opts.TTLSeconds) * time.Second)
				expiresAt = &exp
			}

			encoded, encErr := encodeEnvelope(value, version, expiresAt, createdAt, now)
			if encErr != nil {
				return apperrors.Validation("value for key %q is not JSON-encodable: %v", key, encErr)
			}

			_, txErr := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, composed, encoded, redisTTL(expiresAt, now))
				return nil
			})
			if txErr != nil {
				return txErr
			}

			item, itemErr := (envelope{
				Version: version, ExpiresAt: expiresAt, CreatedAt: createdAt, UpdatedAt: now,
			}).toItemWithRawValue(key, value)
			if itemErr != nil {
				return itemErr
			}
			result = item
			return nil
		}, composed)

		if err == nil {
			return result, nil
		}
		var appErr *apperrors.Error
		if apperrors.As(err, &appErr) {
			return types.StoredItem{}, appErr
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue // optimistic conflict, retry
		}
		return types.StoredItem{}, apperrors.Internal(err, "put %q", key)
	}
	return types.StoredItem{}, apperrors.PreconditionFailed("exhausted %d CAS attempts for key %q", maxCASAttempts, key)
}

func (a *Adapter) Delete(ctx context.Context, scope types.Scope, key string, opts types.DeleteOptions) (bool, error) {
	composed := composeKey(scope.TenantID, scope.Namespace, scope.UserID, key)

	var deleted bool
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		now := time.Now()
		err := a.client.Watch(ctx, func(tx *redis.Tx) error {
			raw, getErr := tx.Get(ctx, composed).Bytes()
			if errors.Is(getErr, redis.Nil) {
				deleted = false
				return nil
			}
			if getErr != nil {
				return getErr
			}
			env, decErr := decodeEnvelope(raw)
			if decErr != nil {
				return decErr
			}
			if !env.active(now) {
				deleted = false
				return nil
			}
			if opts.IfMatchVersion != nil && env.Version != *opts.IfMatchVersion {
				return apperrors.PreconditionFailed("version mismatch for key %q", key)
			}
			_, txErr := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, composed)
				return nil
			})
			if txErr != nil {
				return txErr
			}
			deleted = true
			return nil
		}, composed)

		if err == nil {
			return deleted, nil
		}
		var appErr *apperrors.Error
		if apperrors.As(err, &appErr) {
			return false, appErr
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return false, apperrors.Internal(err, "delete %q", key)
	}
	return false, apperrors.PreconditionFailed("exhausted %d CAS attempts for key %q", maxCASAttempts, key)
}

func (a *Adapter) BatchGet(ctx context.Context, scope types.Scope, keys []string) ([]storage.BatchGetResult, error) {
	results := make([]storage.BatchGetResult, 0, len(keys))
	for _, key := range keys {
		item, found, err := a.Get(ctx, scope, key)
		if err != nil {
			return nil, err
		}
		results = append(results, storage.BatchGetResult{Key: key, Item: item, Found: found})
	}
	return results, nil
}

func (a *Adapter) BatchPut(ctx context.Context, scope types.Scope, entries []storage.BatchPutEntry) ([]storage.BatchPutResult, error) {
	results := make([]storage.BatchPutResult, 0, len(entries))
	for _, e := range entries {
		item, err := a.Put(ctx, scope, e.Key, e.Value, e.Opts)
		results = append(results, storage.BatchPutResult{Key: e.Key, Item: item, Err: err})
	}
	return results, nil
}

func (a *Adapter) List(ctx context.Context, scope types.Scope, opts types.ListOptions) (types.ListResult, error) {
	prefix := ""
	if opts.Prefix != nil {
		prefix = *opts.Prefix
	}
	pattern := scanPattern(scope.TenantID, scope.Namespace, scope.UserID, prefix)

	var allKeys []string
	iter := a.client.Scan(ctx, 0, pattern, scanBatchSize).Iterator()
	for iter.Next(ctx) {
		allKeys = append(allKeys, itemKeyFromComposed(iter.Val()))
	}
	if err := iter.Err(); err != nil {
		return types.ListResult{}, apperrors.Internal(err, "scan scope")
	}
	sort.Strings(allKeys)

	start := 0
	if opts.Cursor != nil {
		cursorKey, ok := util.DecodeCursor(*opts.Cursor)
		if !ok {
			return types.ListResult{}, apperrors.Validation("malformed cursor")
		}
		start = sort.Search(len(allKeys), func(i int) bool { return allKeys[i] > cursorKey })
	}
	limit := *opts.Limit

	items := make([]types.StoredItem, 0, limit)
	now := time.Now()
	var nextCursor *string
	for _, key := range allKeys[start:] {
		composed := composeKey(scope.TenantID, scope.Namespace, scope.UserID, key)
		raw, err := a.client.Get(ctx, composed).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return types.ListResult{}, apperrors.Internal(err, "list fetch %q", key)
		}
		env, err := decodeEnvelope(raw)
		if err != nil {
			return types.ListResult{}, apperrors.Internal(err, "decode envelope for %q", key)
		}
		if !env.active(now) {
			continue
		}
		if len(items) == limit {
			last := util.EncodeCursor(items[len(items)-1].Key)
			nextCursor = &last
			break
		}
		item, err := env.toItem(key)
		if err != nil {
			return types.ListResult{}, apperrors.Internal(err, "decode value for %q", key)
		}
		items = append(items, item)
	}

	return types.ListResult{Items: items, NextCursor: nextCursor}, nil
}

func (a *Adapter) Health(ctx context.Context) storage.Health {
	if err := a.client.Ping(ctx).Err(); err != nil {
		return storage.Health{OK: false, Details: err.Error()}
	}
	return storage.Health{OK: true}
}

func (a *Adapter) Close() error {
	return a.client.Close()
}

func redisTTL(expiresAt *time.Time, now time.Time) time.Duration {
	if expiresAt == nil {
		return 0
	}
	d := expiresAt.Sub(now)
	if d <= 0 {
		d = time.Millisecond
	}
	return d
}
