// Package sources turns remote and local data feeds into panel values.
//
// Every source implements [Adapter]. An adapter makes exactly one live read
// per run and never retries. When the read fails for any reason (network,
// timeout, non-2xx, malformed payload, missing field) the adapter answers
// from the value cache instead: a cache hit yields a Degraded outcome, a
// miss yields Unavailable. Only a successful live read writes the cache.
//
// The shared policy lives in [Resolver.Resolve]; the adapters only describe
// how to obtain and validate one live value.
package sources

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/inkpanel/pkg/cache"
	"github.com/matzehuels/inkpanel/pkg/errors"
	"github.com/matzehuels/inkpanel/pkg/panel"
)

// Adapter fetches the value of one source key.
//
// Fetch never returns an error: failures are folded into the outcome.
// Implementations must honour ctx cancellation; the per-source timeout is
// applied by the caller through the context.
type Adapter interface {
	Key() panel.Key
	Fetch(ctx context.Context) panel.Outcome
}

// LiveFunc performs one live read.
type LiveFunc func(ctx context.Context) (panel.Value, error)

// Resolver applies the fetch-or-fallback policy shared by all adapters.
type Resolver struct {
	Cache  *cache.Store
	Logger *log.Logger
	Now    func() time.Time
}

// NewResolver creates a resolver. A nil store disables the fallback, a nil
// logger uses the default logger.
func NewResolver(store *cache.Store, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.Default()
	}
	if store == nil {
		store = cache.NewStore(nil, logger)
	}
	return &Resolver{Cache: store, Logger: logger, Now: time.Now}
}

// Resolve performs one live read for key and falls back to the cache on
// failure.
func (r *Resolver) Resolve(ctx context.Context, key panel.Key, live LiveFunc) panel.Outcome {
	v, err := live(ctx)
	if err == nil {
		if verr := v.Validate(); verr != nil {
			err = errors.Wrap(errors.ErrCodeSchema, verr, "%s", key)
		}
	}

	// The cache is local and must stay usable after the source deadline.
	bg := context.WithoutCancel(ctx)

	if err != nil {
		err = classify(ctx, err)
		entry, ok := r.Cache.Get(bg, key)
		if !ok {
			r.Logger.Warn("source unavailable", "source", key, "error", err)
			return panel.Unavailable(errors.Wrap(errors.ErrCodeCacheMiss, err, "%s: no cached value", key))
		}
		age := entry.Age(r.Now())
		r.Logger.Warn("serving cached value", "source", key, "age", age.Round(time.Second), "error", err)
		return panel.Degraded(entry.Value.WithFreshness(panel.CachedFor(age)), err)
	}

	if perr := r.Cache.Put(bg, key, v); perr != nil {
		r.Logger.Warn("cache write failed", "source", key, "error", perr)
	}
	r.Logger.Debug("fetched", "source", key, "value", v.String())
	return panel.Ok(v)
}

// classify makes sure every live-read failure carries TRANSPORT or SCHEMA.
// Context expiry counts as a transport failure.
func classify(ctx context.Context, err error) error {
	if errors.Recoverable(err) {
		return err
	}
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, context.Canceled) || ctx.Err() != nil {
		return errors.Wrap(errors.ErrCodeTransport, err, "timed out")
	}
	return errors.Wrap(errors.ErrCodeTransport, err, "fetch failed")
}

// Func adapts a key and a LiveFunc into an Adapter.
type Func struct {
	resolver *Resolver
	key      panel.Key
	live     LiveFunc
}

// NewFunc returns an adapter that resolves key with live.
func NewFunc(r *Resolver, key panel.Key, live LiveFunc) *Func {
	return &Func{resolver: r, key: key, live: live}
}

// Key returns the source key.
func (f *Func) Key() panel.Key { return f.key }

// Fetch resolves the source.
func (f *Func) Fetch(ctx context.Context) panel.Outcome {
	return f.resolver.Resolve(ctx, f.key, f.live)
}

// timed bounds an adapter with its own deadline.
type timed struct {
	Adapter
	timeout time.Duration
}

// Timed wraps a so that each Fetch runs with at most d. A non-positive d
// returns a unchanged.
func Timed(a Adapter, d time.Duration) Adapter {
	if d <= 0 {
		return a
	}
	return timed{Adapter: a, timeout: d}
}

func (t timed) Fetch(ctx context.Context) panel.Outcome {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.Adapter.Fetch(ctx)
}
