// Package config holds the settings of an inkpanel run.
//
// A [Config] is built once at startup: [Default] values, overlaid by an
// optional TOML or YAML file ([Load]), overlaid by command-line flags. The
// core packages never read files or environment variables for settings
// themselves; they receive the values they need from the Config.
package config

import (
	"bytes"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/inkpanel/pkg/errors"
)

// AppName names the configuration and cache directories.
const AppName = "inkpanel"

// Defaults.
const (
	DefaultRunTimeout    = 45 * time.Second
	DefaultSourceTimeout = 10 * time.Second
	DefaultColor         = "red"
	DefaultPair          = "XXBTZUSD"
	DefaultKrakenURL     = "https://api.kraken.com"
	DefaultQuoteURL      = "https://zenquotes.io/api/random"
	DefaultWeatherKey    = "weather.data"
	DefaultOccupancyKey  = "planty.status"
	DefaultPreviewAddr   = ":8080"
)

// Cache backends.
const (
	CacheFile   = "file"
	CacheSQLite = "sqlite"
	CacheNone   = "none"
)

// State store backends.
const (
	StateFile  = "file"
	StateRedis = "redis"
)

// Config is the complete run configuration.
type Config struct {
	Color         string        `toml:"color" yaml:"color"`
	Flip          bool          `toml:"flip" yaml:"flip"`
	Pair          string        `toml:"pair" yaml:"pair"`
	RunTimeout    time.Duration `toml:"run_timeout" yaml:"run_timeout"`
	SourceTimeout time.Duration `toml:"source_timeout" yaml:"source_timeout"`
	LockDir       string        `toml:"lock_dir" yaml:"lock_dir"`

	Display Display `toml:"display" yaml:"display"`
	Cache   Cache   `toml:"cache" yaml:"cache"`
	State   State   `toml:"state" yaml:"state"`
	Sources Sources `toml:"sources" yaml:"sources"`
	Assets  Assets  `toml:"assets" yaml:"assets"`
	Notify  Notify  `toml:"notify" yaml:"notify"`
	Preview Preview `toml:"preview" yaml:"preview"`
}

// Display selects the output device.
type Display struct {
	Kind   string `toml:"kind" yaml:"kind"`     // inky or png
	Model  string `toml:"model" yaml:"model"`   // what, phat, phat2
	Output string `toml:"output" yaml:"output"` // png path
	Width  int    `toml:"width" yaml:"width"`
	Height int    `toml:"height" yaml:"height"`
}

// Cache configures the last-known-good value cache.
type Cache struct {
	Backend string `toml:"backend" yaml:"backend"`
	Dir     string `toml:"dir" yaml:"dir"`   // file backend
	Path    string `toml:"path" yaml:"path"` // sqlite backend
}

// State configures the home-automation state store.
type State struct {
	Backend  string `toml:"backend" yaml:"backend"`
	Path     string `toml:"path" yaml:"path"`
	RedisURL string `toml:"redis_url" yaml:"redis_url"`
	Prefix   string `toml:"prefix" yaml:"prefix"`
}

// Sources configures the data sources.
type Sources struct {
	KrakenURL    string `toml:"kraken_url" yaml:"kraken_url"`
	QuoteURL     string `toml:"quote_url" yaml:"quote_url"`
	WeatherKey   string `toml:"weather_key" yaml:"weather_key"`
	OccupancyKey string `toml:"occupancy_key" yaml:"occupancy_key"`
	SensorDir    string `toml:"sensor_dir" yaml:"sensor_dir"`
	// Reminder, if set, is a local file whose first line replaces the quote feed.
	Reminder string `toml:"reminder" yaml:"reminder"`
}

// Assets locates icons and fonts.
type Assets struct {
	Dir      string `toml:"dir" yaml:"dir"`
	Font     string `toml:"font" yaml:"font"`         // TTF/OTF file; empty uses Go Bold
	Backdrop string `toml:"backdrop" yaml:"backdrop"` // asset drawn behind everything
}

// Notify configures failure notifications.
type Notify struct {
	Disabled bool `toml:"disabled" yaml:"disabled"`
	SMTP     SMTP `toml:"smtp" yaml:"smtp"`
	MQTT     MQTT `toml:"mqtt" yaml:"mqtt"`
}

// SMTP configures email notifications. The password is read from the
// secret named by PasswordSecret.
type SMTP struct {
	Addr           string   `toml:"addr" yaml:"addr"`
	From           string   `toml:"from" yaml:"from"`
	To             []string `toml:"to" yaml:"to"`
	Username       string   `toml:"username" yaml:"username"`
	PasswordSecret string   `toml:"password_secret" yaml:"password_secret"`
}

// Enabled reports whether email notifications are configured.
func (s SMTP) Enabled() bool { return s.Addr != "" }

// MQTT configures broker notifications.
type MQTT struct {
	Broker   string `toml:"broker" yaml:"broker"`
	Topic    string `toml:"topic" yaml:"topic"`
	ClientID string `toml:"client_id" yaml:"client_id"`
}

// Enabled reports whether broker notifications are configured.
func (m MQTT) Enabled() bool { return m.Broker != "" }

// Preview configures the preview server.
type Preview struct {
	Addr string `toml:"addr" yaml:"addr"`
}

// Default returns the built-in configuration. Paths follow the XDG base
// directory conventions.
func Default() Config {
	return Config{
		Color:         DefaultColor,
		Pair:          DefaultPair,
		RunTimeout:    DefaultRunTimeout,
		SourceTimeout: DefaultSourceTimeout,
		LockDir:       filepath.Join(os.TempDir(), AppName),
		Display:       Display{Kind: "inky", Model: "what"},
		Cache:         Cache{Backend: CacheFile, Dir: CacheDir()},
		State:         State{Backend: StateFile, Path: filepath.Join(ConfigDir(), "state.json")},
		Sources: Sources{
			KrakenURL:    DefaultKrakenURL,
			QuoteURL:     DefaultQuoteURL,
			WeatherKey:   DefaultWeatherKey,
			OccupancyKey: DefaultOccupancyKey,
		},
		Assets:  Assets{Dir: filepath.Join(ConfigDir(), "assets")},
		Notify:  Notify{MQTT: MQTT{ClientID: AppName}},
		Preview: Preview{Addr: DefaultPreviewAddr},
	}
}

// Load reads path over the defaults. The format follows the extension:
// .toml, or .yaml/.yml.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config")
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		md, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&cfg)
		if err != nil {
			return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return cfg, errors.New(errors.ErrCodeInvalidConfig, "unknown config key %q in %s", undecoded[0].String(), path)
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !stderrors.Is(err, io.EOF) {
			return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
		}
	default:
		return cfg, errors.New(errors.ErrCodeInvalidConfig, "unsupported config format %q (want .toml, .yaml or .yml)", ext)
	}
	return cfg, nil
}

// Validate checks the configuration for values no run can work with.
func (c Config) Validate() error {
	switch strings.ToLower(c.Color) {
	case "red", "black", "yellow":
	default:
		return invalid("color %q must be red, black or yellow", c.Color)
	}
	if err := errors.ValidatePair(c.Pair); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "pair")
	}
	if c.RunTimeout <= 0 {
		return invalid("run_timeout must be positive")
	}
	if c.SourceTimeout <= 0 {
		return invalid("source_timeout must be positive")
	}
	if c.SourceTimeout > c.RunTimeout {
		return invalid("source_timeout (%s) exceeds run_timeout (%s)", c.SourceTimeout, c.RunTimeout)
	}

	switch c.Display.Kind {
	case "inky":
	case "png":
		if c.Display.Output == "" {
			return invalid("display.output is required for the png display")
		}
	default:
		return invalid("display.kind %q must be inky or png", c.Display.Kind)
	}
	if c.Display.Width < 0 || c.Display.Height < 0 {
		return invalid("display size must not be negative")
	}

	switch c.Cache.Backend {
	case CacheFile:
		if err := errors.ValidatePath(c.Cache.Dir); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "cache.dir")
		}
	case CacheSQLite:
		if err := errors.ValidatePath(c.Cache.Path); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "cache.path")
		}
	case CacheNone:
	default:
		return invalid("cache.backend %q must be file, sqlite or none", c.Cache.Backend)
	}

	switch c.State.Backend {
	case StateFile:
		if err := errors.ValidatePath(c.State.Path); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "state.path")
		}
	case StateRedis:
		if !strings.HasPrefix(c.State.RedisURL, "redis://") && !strings.HasPrefix(c.State.RedisURL, "rediss://") {
			return invalid("state.redis_url %q must use the redis:// or rediss:// scheme", c.State.RedisURL)
		}
	default:
		return invalid("state.backend %q must be file or redis", c.State.Backend)
	}

	for name, u := range map[string]string{"sources.kraken_url": c.Sources.KrakenURL, "sources.quote_url": c.Sources.QuoteURL} {
		if err := errors.ValidateURL(u); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s", name)
		}
	}

	if s := c.Notify.SMTP; s.Enabled() && (s.From == "" || len(s.To) == 0) {
		return invalid("notify.smtp needs from and to")
	}
	if m := c.Notify.MQTT; m.Enabled() && m.Topic == "" {
		return invalid("notify.mqtt needs a topic")
	}
	return nil
}

func invalid(format string, args ...any) error {
	return errors.New(errors.ErrCodeInvalidConfig, format, args...)
}

// CacheDir returns the default cache directory (~/.cache/inkpanel).
func CacheDir() string {
	return xdgDir("XDG_CACHE_HOME", ".cache")
}

// ConfigDir returns the default configuration directory (~/.config/inkpanel).
func ConfigDir() string {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// DefaultConfigFile returns the first existing config.toml or config.yaml in
// ConfigDir, or "".
func DefaultConfigFile() string {
	for _, name := range []string{"config.toml", "config.yaml", "config.yml"} {
		p := filepath.Join(ConfigDir(), name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func xdgDir(env, fallback string) string {
	if base := os.Getenv(env); base != "" {
		return filepath.Join(base, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), AppName)
	}
	return filepath.Join(home, fallback, AppName)
}
