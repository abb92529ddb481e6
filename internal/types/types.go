package types

import "time"

// Scope isolates items by tenant, namespace, and user. All three
// components are required; two scopes are equal only if every component
// matches. Scopes are never observable across each other: a read or
// write always targets exactly one scope.
type Scope struct {
	TenantID  string `json:"tenantId"`
	Namespace string `json:"namespace"`
	UserID    string `json:"userId"`
}

// Valid reports whether every component of the scope is present.
func (s Scope) Valid() bool {
	return s.TenantID != "" && s.Namespace != "" && s.UserID != ""
}

// Key returns a stable string identifying the scope, used for backend
// key composition. Not exposed on the wire.
func (s Scope) Key() string {
	return s.TenantID + "\x00" + s.Namespace + "\x00" + s.UserID
}

// StoredItem is a single versioned JSON value addressed by key within a
// scope. Version starts at 1 and increases by exactly 1 on every
// successful in-place mutation; ETag is always the quoted decimal form
// of Version.
type StoredItem struct {
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
	ExpiresAt *time.Time  `json:"expiresAt,omitempty"`
	Key       string      `json:"key"`
	ETag      string      `json:"etag"`
	Value     interface{} `json:"value"`
	Version   int64       `json:"version"`
}

// Active reports whether the item is visible to reads as of now: an item
// with no expiry, or one whose expiry is strictly in the future.
func (it *StoredItem) Active(now time.Time) bool {
	return it.ExpiresAt == nil || it.ExpiresAt.After(now)
}

// ListResult is the page returned by a list operation: the active items
// in ascending key order, and an opaque cursor for the next page (nil if
// the page reached the end of the matching key space).
type ListResult struct {
	NextCursor *string      `json:"nextCursor"`
	Items      []StoredItem `json:"items"`
}

// PutOptions carries the optional per-call parameters to a put: a TTL in
// seconds (nil means no expiry, and on an update clears any prior
// expiry) and an optimistic-concurrency precondition on the current
// version (nil means unconditional upsert).
type PutOptions struct {
	TTLSeconds     *int64
	IfMatchVersion *int64
}

// DeleteOptions carries the optional optimistic-concurrency precondition
// for a delete.
type DeleteOptions struct {
	IfMatchVersion *int64
}

// ListOptions carries the optional parameters to a list: a key prefix
// filter, a pagination cursor (the previous page's NextCursor), and a
// page size limit. Limit distinguishes "the caller didn't specify a
// limit" (nil) from "the caller specified zero or a negative limit"
// (non-nil, <= 0) — the two clamp to different defaults (see
// util.ClampListLimit). By the time an adapter sees it, Limit has
// already been resolved by the storage service into a concrete value
// within [1, maxListLimit]; adapters may dereference it directly.
type ListOptions struct {
	Prefix *string
	Cursor *string
	Limit  *int
}
