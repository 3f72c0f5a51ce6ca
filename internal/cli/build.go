package cli

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/inkpanel/pkg/cache"
	"github.com/matzehuels/inkpanel/pkg/compose"
	"github.com/matzehuels/inkpanel/pkg/config"
	"github.com/matzehuels/inkpanel/pkg/display"
	"github.com/matzehuels/inkpanel/pkg/errors"
	"github.com/matzehuels/inkpanel/pkg/fonts"
	"github.com/matzehuels/inkpanel/pkg/integrations/kraken"
	"github.com/matzehuels/inkpanel/pkg/integrations/quotes"
	"github.com/matzehuels/inkpanel/pkg/lock"
	"github.com/matzehuels/inkpanel/pkg/notify"
	"github.com/matzehuels/inkpanel/pkg/pipeline"
	"github.com/matzehuels/inkpanel/pkg/sources"
	"github.com/matzehuels/inkpanel/pkg/statestore"
)

// app is a fully wired runner plus everything that must be closed after it.
type app struct {
	runner  *pipeline.Runner
	store   *cache.Store
	closers []func() error
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

func (a *app) onClose(f func() error) { a.closers = append(a.closers, f) }

// buildApp wires a runner from cfg. If d is nil the display named by the
// configuration is opened.
func buildApp(ctx context.Context, cfg config.Config, d display.Driver, logger *log.Logger) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	pal, err := compose.PaletteFor(cfg.Color)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "color")
	}

	backend, err := openCache(ctx, cfg.Cache)
	if err != nil {
		return nil, err
	}
	a.store = cache.NewStore(backend, logger)
	a.onClose(a.store.Close)

	state, err := openState(cfg.State)
	if err != nil {
		return nil, err
	}
	a.onClose(state.Close)

	fs, err := openFonts(cfg.Assets.Font)
	if err != nil {
		return nil, err
	}
	a.onClose(fs.Close)

	if d == nil {
		d, err = display.Open(display.Options{
			Kind:    cfg.Display.Kind,
			Variant: cfg.Color,
			Model:   cfg.Display.Model,
			Output:  cfg.Display.Output,
			Width:   cfg.Display.Width,
			Height:  cfg.Display.Height,
			FlipH:   cfg.Flip,
			FlipV:   cfg.Flip,
		})
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeFatal, err, "open display")
		}
		a.onClose(d.Close)
	}

	notifier := buildNotifier(ctx, cfg.Notify, state, logger)
	if c, ok := notifier.(interface{ Close() error }); ok {
		a.onClose(c.Close)
	}

	renderer := compose.New(compose.NewDirAssets(cfg.Assets.Dir), fs, pal, logger)
	r := pipeline.NewRunner(buildSources(cfg, a.store, state, logger), renderer, pal, d, logger)
	r.Notifier = notifier
	r.Locker = lock.New(cfg.LockDir)
	r.RunTimeout = cfg.RunTimeout
	r.Asset, _ = kraken.SplitPair(cfg.Pair)
	r.Backdrop = cfg.Assets.Backdrop
	a.runner = r
	return a, nil
}

// buildSources returns one adapter per panel key, each bounded by the
// per-source timeout.
func buildSources(cfg config.Config, store *cache.Store, state statestore.Store, logger *log.Logger) []sources.Adapter {
	res := sources.NewResolver(store, logger)
	src := cfg.Sources
	adapters := []sources.Adapter{
		sources.NewPrice(res, kraken.NewClient(src.KrakenURL), cfg.Pair),
		sources.NewOutdoor(res, state, src.WeatherKey),
		sources.NewConditions(res, state, src.WeatherKey),
		sources.NewIndoor(res, src.SensorDir),
		sources.NewOccupancy(res, state, src.OccupancyKey),
		quoteSource(res, src),
	}
	for i, a := range adapters {
		adapters[i] = sources.Timed(a, cfg.SourceTimeout)
	}
	return adapters
}

func quoteSource(res *sources.Resolver, src config.Sources) sources.Adapter {
	if src.Reminder != "" {
		return sources.NewReminder(res, src.Reminder)
	}
	return sources.NewQuote(res, quotes.NewClient(src.QuoteURL))
}

func openCache(ctx context.Context, c config.Cache) (cache.Backend, error) {
	switch c.Backend {
	case config.CacheNone:
		return cache.NewNullBackend(), nil
	case config.CacheSQLite:
		b, err := cache.NewSQLiteBackend(ctx, c.Path)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "open sqlite cache")
		}
		return b, nil
	default:
		b, err := cache.NewFileBackend(c.Dir)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "open cache dir")
		}
		return b, nil
	}
}

func openState(s config.State) (statestore.Store, error) {
	if s.Backend == config.StateRedis {
		st, err := statestore.NewRedisStore(s.RedisURL, s.Prefix)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "open redis state store")
		}
		return st, nil
	}
	return statestore.NewFileStore(s.Path), nil
}

func openFonts(path string) (*fonts.Set, error) {
	if path == "" {
		return fonts.Default()
	}
	fs, err := fonts.Load(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "load font")
	}
	return fs, nil
}

// buildNotifier always includes the log notifier so failures reach the
// journal even when no remote channel is configured. A remote channel that
// cannot be set up is skipped with a warning; the panel must still refresh.
func buildNotifier(ctx context.Context, n config.Notify, state statestore.Store, logger *log.Logger) notify.Notifier {
	if n.Disabled {
		return notify.Nop{}
	}
	multi := notify.Multi{notify.Log{Logger: logger}}

	if n.SMTP.Enabled() {
		if s, err := buildSMTP(ctx, n.SMTP, state); err != nil {
			logger.Warn("smtp notifier unavailable", "addr", n.SMTP.Addr, "err", err)
		} else {
			multi = append(multi, s)
		}
	}

	if n.MQTT.Enabled() {
		m, err := notify.NewMQTT(n.MQTT.Broker, n.MQTT.ClientID, n.MQTT.Topic)
		if err != nil {
			logger.Warn("mqtt notifier unavailable", "broker", n.MQTT.Broker, "err", err)
		} else {
			multi = append(multi, m)
		}
	}

	if len(multi) == 1 {
		return multi[0]
	}
	return closingMulti{multi}
}

func buildSMTP(ctx context.Context, c config.SMTP, state statestore.Store) (*notify.SMTP, error) {
	var password string
	if c.PasswordSecret != "" {
		p, err := statestore.Secret(ctx, state, c.PasswordSecret)
		if err != nil {
			return nil, err
		}
		password = p
	}
	s, err := notify.NewSMTP(c.Addr, c.From, c.To, c.Username, password)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "smtp notifier")
	}
	return s, nil
}

// closingMulti closes the notifiers of a Multi that hold connections.
type closingMulti struct{ notify.Multi }

func (m closingMulti) Close() error {
	var errs []error
	for _, n := range m.Multi {
		if c, ok := n.(interface{ Close() error }); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close notifier: %w", err))
			}
		}
	}
	return stderrors.Join(errs...)
}
