package cache

import "context"

// NullBackend is a no-op backend that never stores anything.
// Used when caching is disabled with --no-cache.
type NullBackend struct{}

// NewNullBackend creates a null backend.
func NewNullBackend() Backend {
	return NullBackend{}
}

// Get always returns a miss.
func (NullBackend) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

// Set does nothing.
func (NullBackend) Set(context.Context, string, []byte) error { return nil }

// Delete does nothing.
func (NullBackend) Delete(context.Context, string) error { return nil }

// Keys always returns an empty list.
func (NullBackend) Keys(context.Context) ([]string, error) { return nil, nil }

// Close does nothing.
func (NullBackend) Close() error { return nil }

var _ Backend = NullBackend{}
