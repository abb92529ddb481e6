// Package types defines the entity shapes shared by the storage adapter
// contract, the storage service, and the HTTP edge: Scope, StoredItem, and
// ListResult, along with the small option structs that carry per-call
// optimistic-concurrency and TTL parameters.
//
// These are plain data structures with no behavior beyond simple
// predicates (Scope.Valid, StoredItem.Active); the rules that govern how
// they change over time live in the storage adapters that produce them.
package types
