// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers register hooks at startup to
// receive events about panel runs, source fetches, cache operations and HTTP
// calls.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks are registered by main, not by libraries, so there are no import
// cycles and no library depends on a concrete metrics backend.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetPanelHooks(&myPanelHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Panel().OnFetchStart(ctx, "price")
//	// ... fetch ...
//	observability.Panel().OnFetchComplete(ctx, "price", "ok", duration, nil)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Panel Hooks
// =============================================================================

// PanelHooks receives events from the render orchestrator.
type PanelHooks interface {
	// Fetch events, one pair per source.
	OnFetchStart(ctx context.Context, source string)
	OnFetchComplete(ctx context.Context, source, status string, duration time.Duration, err error)

	// OnCompose records the layout and composition of one frame.
	OnCompose(ctx context.Context, commands, failed int, duration time.Duration, err error)

	// OnPush records a frame pushed to the display.
	OnPush(ctx context.Context, display string, duration time.Duration, err error)

	// OnRunComplete records the terminal state of a run.
	OnRunComplete(ctx context.Context, runID, state string, duration time.Duration)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, key string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, key string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, key string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPanelHooks is a no-op implementation of PanelHooks.
type NoopPanelHooks struct{}

func (NoopPanelHooks) OnFetchStart(context.Context, string)                                 {}
func (NoopPanelHooks) OnFetchComplete(context.Context, string, string, time.Duration, error) {}
func (NoopPanelHooks) OnCompose(context.Context, int, int, time.Duration, error)             {}
func (NoopPanelHooks) OnPush(context.Context, string, time.Duration, error)                  {}
func (NoopPanelHooks) OnRunComplete(context.Context, string, string, time.Duration)          {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	panelHooks PanelHooks = NoopPanelHooks{}
	cacheHooks CacheHooks = NoopCacheHooks{}
	httpHooks  HTTPHooks  = NoopHTTPHooks{}
	hooksMu    sync.RWMutex
)

// SetPanelHooks registers custom panel hooks.
// This should be called once at application startup before any run.
func SetPanelHooks(h PanelHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		panelHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before any HTTP operations.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Panel returns the registered panel hooks.
func Panel() PanelHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return panelHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	panelHooks = NoopPanelHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
