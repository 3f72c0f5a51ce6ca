package pipeline

import (
	"context"
	"fmt"
	"image"
	"runtime/debug"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/zeebo/xxh3"

	"github.com/matzehuels/inkpanel/pkg/compose"
	"github.com/matzehuels/inkpanel/pkg/display"
	"github.com/matzehuels/inkpanel/pkg/errors"
	"github.com/matzehuels/inkpanel/pkg/layout"
	"github.com/matzehuels/inkpanel/pkg/lock"
	"github.com/matzehuels/inkpanel/pkg/notify"
	"github.com/matzehuels/inkpanel/pkg/observability"
	"github.com/matzehuels/inkpanel/pkg/panel"
	"github.com/matzehuels/inkpanel/pkg/sources"
)

// DefaultRunTimeout bounds data acquisition when no timeout is configured.
const DefaultRunTimeout = 45 * time.Second

// Runner executes panel refreshes.
//
// A Runner holds no per-run state and may be reused, e.g. by the preview
// server. Runs against the same display are serialized by Locker.
type Runner struct {
	Sources  []sources.Adapter
	Renderer compose.Renderer
	Palette  compose.Palette
	Display  display.Driver
	Notifier notify.Notifier
	Locker   *lock.Locker
	Logger   *log.Logger

	// RunTimeout bounds fetching. Sources still running when it expires are
	// abandoned as Unavailable.
	RunTimeout time.Duration
	// Asset labels the price placeholder.
	Asset string
	// Backdrop is an optional background asset.
	Backdrop string
	// Now is the run clock. Defaults to time.Now.
	Now func() time.Time
}

// NewRunner creates a runner with a no-op notifier and lock.
func NewRunner(adapters []sources.Adapter, r compose.Renderer, pal compose.Palette, d display.Driver, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Sources:    adapters,
		Renderer:   r,
		Palette:    pal,
		Display:    d,
		Notifier:   notify.Nop{},
		Logger:     logger,
		RunTimeout: DefaultRunTimeout,
		Now:        time.Now,
	}
}

func (r *Runner) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

// Execute performs one refresh. It always returns a Result in a terminal
// state; errors are reported through Result.Err.
func (r *Runner) Execute(ctx context.Context) *Result {
	start := r.now()
	res := &Result{RunID: uuid.New(), Outcomes: make(map[panel.Key]panel.Outcome)}
	res.enter(StateInit, start)
	logger := r.Logger.With("run", res.RunID.String()[:8])

	k, err := r.acquire(ctx)
	// Only a contended lock means another run owns the display.
	owned := !errors.Is(err, errors.ErrCodeBusy)
	if err == nil {
		err = r.run(ctx, res, logger)
	}
	if err != nil {
		r.fail(ctx, res, err, owned, logger)
	} else {
		res.enter(StateRendered, r.now())
	}
	if rerr := k.Release(); rerr != nil {
		logger.Warn("release display lock", "error", rerr)
	}

	res.Stats.Total = r.now().Sub(start)
	observability.Panel().OnRunComplete(ctx, res.RunID.String(), res.State.String(), res.Stats.Total)
	logger.Info("run finished", "state", res.State, "duration", res.Stats.Total.Round(time.Millisecond))
	return res
}

// acquire checks the collaborators and takes the display lock, bounded by
// the run timeout. The lock is held until the error panel, if any, is shown.
func (r *Runner) acquire(ctx context.Context) (*lock.Lock, error) {
	if r.Display == nil {
		return nil, errors.New(errors.ErrCodeFatal, "no display configured")
	}
	if r.Renderer == nil {
		return nil, errors.New(errors.ErrCodeFatal, "no renderer configured")
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout())
	defer cancel()
	return r.Locker.Acquire(ctx, r.Display.ID())
}

// run drives the run from Init through the display push.
func (r *Runner) run(ctx context.Context, res *Result, logger *log.Logger) error {
	g := layout.GeometryOf(r.Display.Bounds())
	if err := g.Validate(); err != nil {
		return err
	}

	res.enter(StateFetching, r.now())
	fetchStart := r.now()
	res.Outcomes = r.fetch(ctx, logger)
	res.Stats.FetchTime = r.now().Sub(fetchStart)
	ok, degraded, unavailable := res.Counts()
	logger.Info("fetched sources", "ok", ok, "degraded", degraded, "unavailable", unavailable,
		"duration", res.Stats.FetchTime.Round(time.Millisecond))

	res.enter(StateComposing, r.now())
	composeStart := r.now()
	bmp, err := r.compose(ctx, res, g, logger)
	res.Stats.ComposeTime = r.now().Sub(composeStart)
	if err != nil {
		return err
	}
	logger.Info("composed panel", "commands", len(res.Commands), "skipped", res.Report.Failed(),
		"duration", res.Stats.ComposeTime.Round(time.Millisecond))

	pushStart := r.now()
	err = r.push(ctx, bmp)
	res.Stats.PushTime = r.now().Sub(pushStart)
	if err != nil {
		return err
	}
	res.Bitmap = bmp
	res.Digest = Digest(bmp)
	logger.Info("pushed frame", "display", r.Display.ID(), "digest", fmt.Sprintf("%016x", res.Digest),
		"duration", res.Stats.PushTime.Round(time.Millisecond))
	return nil
}

// compose builds and renders the panel. Panics become FATAL errors.
func (r *Runner) compose(ctx context.Context, res *Result, g layout.Geometry, logger *log.Logger) (bmp *image.Paletted, err error) {
	defer func() {
		if p := recover(); p != nil {
			logger.Debug("composition panicked", "stack", string(debug.Stack()))
			bmp, err = nil, errors.New(errors.ErrCodeFatal, "composition panicked: %v", p)
		}
	}()

	cmds, err := layout.Build(layout.Input{
		Outcomes: res.Outcomes,
		Geometry: g,
		Now:      r.now(),
		Asset:    r.Asset,
		Backdrop: r.Backdrop,
	})
	if err != nil {
		return nil, errors.Fatal(err, "build layout")
	}
	res.Commands = cmds

	bmp, report, err := r.Renderer.Render(ctx, g, cmds)
	res.Report = report
	if err != nil {
		return nil, errors.Fatal(err, "render panel")
	}
	if bmp == nil {
		return nil, errors.New(errors.ErrCodeFatal, "renderer returned no bitmap")
	}
	return bmp, nil
}

// push shows img on the display with a white border.
func (r *Runner) push(ctx context.Context, img image.Image) (err error) {
	start := r.now()
	defer func() {
		if p := recover(); p != nil {
			err = errors.New(errors.ErrCodeFatal, "display panicked: %v", p)
		}
		observability.Panel().OnPush(ctx, r.Display.ID(), r.now().Sub(start), err)
	}()

	r.Display.SetBorder(layout.White)
	if err := r.Display.SetImage(img); err != nil {
		return errors.Wrap(errors.ErrCodeFatal, err, "set image on %s", r.Display.ID())
	}
	if err := r.Display.Show(); err != nil {
		return errors.Wrap(errors.ErrCodeFatal, err, "show frame on %s", r.Display.ID())
	}
	return nil
}

// fail moves the run to Failed, shows the error panel and notifies once.
// The composed panel, if any, is discarded.
func (r *Runner) fail(ctx context.Context, res *Result, err error, owned bool, logger *log.Logger) {
	res.Err = errors.Fatal(err, "run failed")
	res.enter(StateFailed, r.now())
	res.Bitmap, res.Digest = nil, 0
	logger.Error("run failed", "error", err)

	if r.Display != nil && owned {
		g := layout.GeometryOf(r.Display.Bounds())
		panelImg := compose.ErrorPanel(g, r.Palette, errors.UserMessage(err))
		if perr := r.push(ctx, panelImg); perr != nil {
			logger.Error("could not show error panel", "error", perr)
			res.Err = fmt.Errorf("%w (error panel: %v)", res.Err, perr)
		} else {
			res.Bitmap = panelImg
			res.Digest = Digest(panelImg)
		}
	}

	if r.Notifier == nil {
		return
	}
	subject := fmt.Sprintf("inkpanel run %s failed: %s", res.RunID.String()[:8], errors.GetCode(err))
	if nerr := r.Notifier.Send(context.WithoutCancel(ctx), subject, res.Trace()); nerr != nil {
		res.NotifyErr = nerr
		logger.Warn("notification not delivered", "error", nerr)
	}
}

func (r *Runner) timeout() time.Duration {
	if r.RunTimeout <= 0 {
		return DefaultRunTimeout
	}
	return r.RunTimeout
}

// Digest hashes the pixels of a frame.
func Digest(img *image.Paletted) uint64 {
	if img == nil {
		return 0
	}
	return xxh3.Hash(img.Pix)
}

// Geometry returns the drawing geometry of the runner's display.
func (r *Runner) Geometry() layout.Geometry {
	return layout.GeometryOf(r.Display.Bounds())
}
