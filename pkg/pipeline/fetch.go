package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/inkpanel/pkg/errors"
	"github.com/matzehuels/inkpanel/pkg/observability"
	"github.com/matzehuels/inkpanel/pkg/panel"
	"github.com/matzehuels/inkpanel/pkg/sources"
)

// errDeadline is the reason given to sources abandoned at the run deadline.
var errDeadline = errors.New(errors.ErrCodeTransport, "deadline exceeded")

// fetch runs all adapters concurrently and collects their outcomes. When the
// run deadline expires first, the stragglers are abandoned as Unavailable;
// their late results are ignored.
func (r *Runner) fetch(ctx context.Context, logger *log.Logger) map[panel.Key]panel.Outcome {
	ctx, cancel := context.WithTimeout(ctx, r.timeout())
	defer cancel()

	var (
		mu        sync.Mutex
		outcomes  = make(map[panel.Key]panel.Outcome, len(r.Sources))
		abandoned bool
	)

	var g errgroup.Group
	for _, a := range r.Sources {
		a := a
		g.Go(func() error {
			o := fetchOne(ctx, a)
			mu.Lock()
			defer mu.Unlock()
			if !abandoned {
				outcomes[a.Key()] = o
			}
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
	}

	mu.Lock()
	defer mu.Unlock()
	abandoned = true
	for _, a := range r.Sources {
		if _, ok := outcomes[a.Key()]; !ok {
			logger.Warn("abandoning source at run deadline", "source", a.Key())
			outcomes[a.Key()] = panel.Unavailable(errDeadline)
		}
	}
	result := make(map[panel.Key]panel.Outcome, len(outcomes))
	for k, o := range outcomes {
		result[k] = o
	}
	return result
}

// fetchOne calls one adapter, converting a panic into Unavailable.
func fetchOne(ctx context.Context, a sources.Adapter) (o panel.Outcome) {
	key := string(a.Key())
	start := time.Now()
	observability.Panel().OnFetchStart(ctx, key)
	defer func() {
		if p := recover(); p != nil {
			o = panel.Unavailable(errors.New(errors.ErrCodeFatal, "%s adapter panicked: %s", key, fmt.Sprint(p)))
		}
		observability.Panel().OnFetchComplete(ctx, key, o.Status.String(), time.Since(start), o.Err)
	}()
	return a.Fetch(ctx)
}
