// Package cache persists the last good value of every panel source.
//
// The cache has two layers. A [Backend] stores opaque bytes per key and is
// implemented by [FileBackend] (one file per key, atomic replace),
// [SQLiteBackend] (one row per key, single-statement upsert) and
// [NullBackend] (stores nothing). A [Store] sits on top and speaks
// [panel.Value]: it stamps entries with their write time on [Store.Put] and
// hides backend failures on [Store.Get], which reports them as a miss.
//
// There is no expiry. Staleness is surfaced to the caller through
// [Entry.Age] so the panel can label old values instead of dropping them.
package cache

import "context"

// Backend is a byte-oriented key/value store.
//
// Implementations must make Set atomic per key: a reader observes either the
// previous data or the new data, never a partial write. Set on distinct keys
// may run concurrently.
type Backend interface {
	// Get returns the data stored under key. A missing key is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set replaces the data stored under key.
	Set(ctx context.Context, key string, data []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys lists the stored keys in no particular order.
	Keys(ctx context.Context) ([]string, error)

	// Close releases resources held by the backend.
	Close() error
}
