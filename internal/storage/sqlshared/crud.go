package sqlshared

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dreamware/kvsync/internal/apperrors"
	"github.com/dreamware/kvsync/internal/storage"
	"github.com/dreamware/kvsync/internal/types"
	"github.com/dreamware/kvsync/internal/util"
)

// Get performs the expiry-filtered single-row read every adapter's
// Get delegates to.
func Get(ctx context.Context, db *sql.DB, d Dialect, scope types.Scope, key string) (types.StoredItem, bool, error) {
	q := fmt.Sprintf(
		`SELECT value_json, version, expires_at, created_at, updated_at FROM items
		 WHERE tenant_id = %s AND namespace = %s AND user_id = %s AND key = %s
		   AND (expires_at IS NULL OR expires_at > %s)`,
		d.Placeholder(1), d.Placeholder(2), d.Placeholder(3), d.Placeholder(4), d.Placeholder(5))

	row := db.QueryRowContext(ctx, q, scope.TenantID, scope.Namespace, scope.UserID, key, time.Now().UTC())
	item, err := scanItem(row, key)
	if errors.Is(err, sql.ErrNoRows) {
		return types.StoredItem{}, false, nil
	}
	if err != nil {
		return types.StoredItem{}, false, apperrors.Internal(err, "get %q", key)
	}
	return item, true, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(row rowScanner, key string) (types.StoredItem, error) {
	var valueJSON string
	var version int64
	var expiresAt, createdAt, updatedAt sql.NullTime
	if err := row.Scan(&valueJSON, &version, &expiresAt, &createdAt, &updatedAt); err != nil {
		return types.StoredItem{}, err
	}
	var value interface{}
	if err := json.Unmarshal([]byte(valueJSON), &value); err != nil {
		return types.StoredItem{}, fmt.Errorf("decode stored value for %q: %w", key, err)
	}
	item := types.StoredItem{
		Key:       key,
		Value:     value,
		Version:   version,
		ETag:      util.ETag(version),
		CreatedAt: createdAt.Time,
		UpdatedAt: updatedAt.Time,
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		item.ExpiresAt = &t
	}
	return item, nil
}

// Put implements the read-modify-write transaction described in
// spec.md §4.2: the precondition check and the write share a single
// transactional boundary so no concurrent writer can advance version
// between them.
func Put(ctx context.Context, db *sql.DB, d Dialect, scope types.Scope, key string, value interface{}, opts types.PutOptions) (types.StoredItem, error) {
	valueJSON, err := json.Marshal(value)
	if err != nil {
		return types.StoredItem{}, apperrors.Validation("value for key %q is not JSON-encodable: %v", key, err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return types.StoredItem{}, apperrors.Internal(err, "begin put transaction")
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	selectQ := fmt.Sprintf(
		`SELECT version, expires_at, created_at FROM items
		 WHERE tenant_id = %s AND namespace = %s AND user_id = %s AND key = %s`,
		d.Placeholder(1), d.Placeholder(2), d.Placeholder(3), d.Placeholder(4))
	row := tx.QueryRowContext(ctx, selectQ, scope.TenantID, scope.Namespace, scope.UserID, key)

	var curVersion int64
	var curExpiresAt, curCreatedAt sql.NullTime
	err = row.Scan(&curVersion, &curExpiresAt, &curCreatedAt)
	hasActiveCurrent := false
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// no row at all
	case err != nil:
		return types.StoredItem{}, apperrors.Internal(err, "read current version for %q", key)
	default:
		hasActiveCurrent = !curExpiresAt.Valid || curExpiresAt.Time.After(now)
	}

	if opts.IfMatchVersion != nil {
		if !hasActiveCurrent || curVersion != *opts.IfMatchVersion {
			return types.StoredItem{}, apperrors.PreconditionFailed("version mismatch for key %q", key)
		}
	}

	next := types.StoredItem{
		Key:       key,
		Value:     value,
		UpdatedAt: now,
	}
	if hasActiveCurrent {
		next.Version = curVersion + 1
		next.CreatedAt = curCreatedAt.Time
	} else {
		next.Version = 1
		next.CreatedAt = now
	}
	if opts.TTLSeconds != nil {
		exp := now.Add(time.Duration(*opts.TTLSeconds) * time.Second)
		next.ExpiresAt = &exp
	}
	next.ETag = util.ETag(next.Version)

	var expiresAtArg interface{}
	if next.ExpiresAt != nil {
		expiresAtArg = *next.ExpiresAt
	}

	deleteQ := fmt.Sprintf(
		`DELETE FROM items WHERE tenant_id = %s AND namespace = %s AND user_id = %s AND key = %s`,
		d.Placeholder(1), d.Placeholder(2), d.Placeholder(3), d.Placeholder(4))
	if _, err := tx.ExecContext(ctx, deleteQ, scope.TenantID, scope.Namespace, scope.UserID, key); err != nil {
		return types.StoredItem{}, apperrors.Internal(err, "clear prior row for %q", key)
	}

	insertQ := fmt.Sprintf(
		`INSERT INTO items (tenant_id, namespace, user_id, key, value_json, version, expires_at, created_at, updated_at)
		 VALUES (%s, %s, %s, %s, %s, %s, %s, %s, %s)`,
		d.Placeholder(1), d.Placeholder(2), d.Placeholder(3), d.Placeholder(4), d.Placeholder(5),
		d.Placeholder(6), d.Placeholder(7), d.Placeholder(8), d.Placeholder(9))
	_, err = tx.ExecContext(ctx, insertQ,
		scope.TenantID, scope.Namespace, scope.UserID, key,
		string(valueJSON), next.Version, expiresAtArg, next.CreatedAt, next.UpdatedAt)
	if err != nil {
		return types.StoredItem{}, apperrors.Internal(err, "write row for %q", key)
	}

	if err := tx.Commit(); err != nil {
		return types.StoredItem{}, apperrors.Internal(err, "commit put for %q", key)
	}
	return next, nil
}

// Delete removes the active row for (scope, key), if any, honoring an
// optional If-Match precondition.
func Delete(ctx context.Context, db *sql.DB, d Dialect, scope types.Scope, key string, opts types.DeleteOptions) (bool, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, apperrors.Internal(err, "begin delete transaction")
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	selectQ := fmt.Sprintf(
		`SELECT version, expires_at FROM items
		 WHERE tenant_id = %s AND namespace = %s AND user_id = %s AND key = %s`,
		d.Placeholder(1), d.Placeholder(2), d.Placeholder(3), d.Placeholder(4))
	row := tx.QueryRowContext(ctx, selectQ, scope.TenantID, scope.Namespace, scope.UserID, key)

	var version int64
	var expiresAt sql.NullTime
	err = row.Scan(&version, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, apperrors.Internal(err, "read row for delete of %q", key)
	}
	if expiresAt.Valid && !expiresAt.Time.After(now) {
		return false, nil
	}
	if opts.IfMatchVersion != nil && version != *opts.IfMatchVersion {
		return false, apperrors.PreconditionFailed("version mismatch for key %q", key)
	}

	deleteQ := fmt.Sprintf(
		`DELETE FROM items WHERE tenant_id = %s AND namespace = %s AND user_id = %s AND key = %s`,
		d.Placeholder(1), d.Placeholder(2), d.Placeholder(3), d.Placeholder(4))
	if _, err := tx.ExecContext(ctx, deleteQ, scope.TenantID, scope.Namespace, scope.UserID, key); err != nil {
		return false, apperrors.Internal(err, "delete row for %q", key)
	}
	if err := tx.Commit(); err != nil {
		return false, apperrors.Internal(err, "commit delete for %q", key)
	}
	return true, nil
}

// List returns up to opts.Limit active rows in ascending key order,
// optionally filtered by prefix and resumed past a cursor.
func List(ctx context.Context, db *sql.DB, d Dialect, scope types.Scope, opts types.ListOptions) (types.ListResult, error) {
	args := []interface{}{scope.TenantID, scope.Namespace, scope.UserID, time.Now().UTC()}
	q := fmt.Sprintf(
		`SELECT key, value_json, version, expires_at, created_at, updated_at FROM items
		 WHERE tenant_id = %s AND namespace = %s AND user_id = %s
		   AND (expires_at IS NULL OR expires_at > %s)`,
		d.Placeholder(1), d.Placeholder(2), d.Placeholder(3), d.Placeholder(4))

	n := 5
	if opts.Prefix != nil && *opts.Prefix != "" {
		q += fmt.Sprintf(" AND key LIKE %s ESCAPE '\\'", d.Placeholder(n))
		args = append(args, escapeLikePrefix(*opts.Prefix)+"%")
		n++
	}
	if opts.Cursor != nil {
		key, ok := util.DecodeCursor(*opts.Cursor)
		if !ok {
			return types.ListResult{}, apperrors.Validation("malformed cursor")
		}
		q += fmt.Sprintf(" AND key > %s", d.Placeholder(n))
		args = append(args, key)
		n++
	}
	q += fmt.Sprintf(" ORDER BY key ASC LIMIT %s", d.Placeholder(n))
	args = append(args, *opts.Limit+1)

	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return types.ListResult{}, apperrors.Internal(err, "list scope")
	}
	defer rows.Close()

	var items []types.StoredItem
	for rows.Next() {
		var key, valueJSON string
		var version int64
		var expiresAt, createdAt, updatedAt sql.NullTime
		if err := rows.Scan(&key, &valueJSON, &version, &expiresAt, &createdAt, &updatedAt); err != nil {
			return types.ListResult{}, apperrors.Internal(err, "scan list row")
		}
		var value interface{}
		if err := json.Unmarshal([]byte(valueJSON), &value); err != nil {
			return types.ListResult{}, apperrors.Internal(err, "decode list row %q", key)
		}
		item := types.StoredItem{
			Key: key, Value: value, Version: version,
			ETag: util.ETag(version), CreatedAt: createdAt.Time, UpdatedAt: updatedAt.Time,
		}
		if expiresAt.Valid {
			t := expiresAt.Time
			item.ExpiresAt = &t
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return types.ListResult{}, apperrors.Internal(err, "iterate list rows")
	}

	result := types.ListResult{}
	if len(items) > *opts.Limit {
		items = items[:*opts.Limit]
		last := util.EncodeCursor(items[len(items)-1].Key)
		result.NextCursor = &last
	}
	result.Items = items
	return result, nil
}

func escapeLikePrefix(prefix string) string {
	r := make([]rune, 0, len(prefix))
	for _, c := range prefix {
		if c == '%' || c == '_' || c == '\\' {
			r = append(r, '\\')
		}
		r = append(r, c)
	}
	return string(r)
}

// BatchGet is a thin loop over Get; the shared layer has no
// multi-statement batch read, so each key is a separate query.
func BatchGet(ctx context.Context, db *sql.DB, d Dialect, scope types.Scope, keys []string) ([]storage.BatchGetResult, error) {
	results := make([]storage.BatchGetResult, 0, len(keys))
	for _, key := range keys {
		item, found, err := Get(ctx, db, d, scope, key)
		if err != nil {
			return nil, err
		}
		results = append(results, storage.BatchGetResult{Key: key, Item: item, Found: found})
	}
	return results, nil
}

// BatchPut applies Put per entry in declaration order; per spec.md §4.2
// it is explicitly not transactional across entries.
func BatchPut(ctx context.Context, db *sql.DB, d Dialect, scope types.Scope, entries []storage.BatchPutEntry) ([]storage.BatchPutResult, error) {
	results := make([]storage.BatchPutResult, 0, len(entries))
	for _, e := range entries {
		item, err := Put(ctx, db, d, scope, e.Key, e.Value, e.Opts)
		results = append(results, storage.BatchPutResult{Key: e.Key, Item: item, Err: err})
	}
	return results, nil
}
