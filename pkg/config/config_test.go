package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/inkpanel/pkg/errors"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.RunTimeout != 45*time.Second || cfg.SourceTimeout != 10*time.Second {
		t.Errorf("timeouts = %s/%s", cfg.RunTimeout, cfg.SourceTimeout)
	}
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "config.toml", `
color = "yellow"
flip = true
run_timeout = "30s"

[display]
kind = "png"
output = "/tmp/panel.png"

[cache]
backend = "sqlite"
path = "/var/lib/inkpanel/cache.db"

[notify.smtp]
addr = "mail.example.com:587"
from = "panel@example.com"
to = ["me@example.com"]
password_secret = "smtp.password"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Color != "yellow" || !cfg.Flip || cfg.RunTimeout != 30*time.Second {
		t.Errorf("top-level = %q %v %s", cfg.Color, cfg.Flip, cfg.RunTimeout)
	}
	if cfg.Display.Kind != "png" || cfg.Cache.Backend != CacheSQLite || !cfg.Notify.SMTP.Enabled() {
		t.Errorf("sections not decoded: %+v", cfg)
	}
	if cfg.Pair != DefaultPair || cfg.SourceTimeout != DefaultSourceTimeout {
		t.Error("unset keys should keep their defaults")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
color: black
pair: SOLUSD
source_timeout: 5s
state:
  backend: redis
  redis_url: redis://localhost:6379/0
  prefix: "home:"
notify:
  mqtt:
    broker: tcp://localhost:1883
    topic: home/inkpanel
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Pair != "SOLUSD" || cfg.SourceTimeout != 5*time.Second || cfg.State.Prefix != "home:" {
		t.Errorf("decoded = %+v", cfg)
	}
	if cfg.Notify.MQTT.ClientID != AppName {
		t.Error("mqtt client id default lost")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name, file, content string
	}{
		{"unknown toml key", "c.toml", "colour = \"red\"\n"},
		{"unknown yaml key", "c.yaml", "colour: red\n"},
		{"bad toml", "c.toml", "color = \n"},
		{"bad extension", "c.json", "{}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.content))
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("err = %v, want INVALID_CONFIG", err)
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("missing file: %v", err)
	}
}

func TestLoadEmptyYAML(t *testing.T) {
	cfg, err := Load(writeFile(t, "empty.yml", ""))
	if err != nil {
		t.Fatalf("empty yaml: %v", err)
	}
	if cfg.Color != DefaultColor {
		t.Errorf("color = %q", cfg.Color)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"color", func(c *Config) { c.Color = "green" }, "color"},
		{"pair", func(c *Config) { c.Pair = "btc/usd" }, "pair"},
		{"run timeout", func(c *Config) { c.RunTimeout = 0 }, "run_timeout"},
		{"source timeout", func(c *Config) { c.SourceTimeout = -time.Second }, "source_timeout"},
		{"source exceeds run", func(c *Config) { c.SourceTimeout = time.Minute }, "exceeds"},
		{"display kind", func(c *Config) { c.Display.Kind = "lcd" }, "display.kind"},
		{"png output", func(c *Config) { c.Display.Kind = "png" }, "display.output"},
		{"cache backend", func(c *Config) { c.Cache.Backend = "memcached" }, "cache.backend"},
		{"sqlite path", func(c *Config) { c.Cache.Backend = CacheSQLite }, "cache.path"},
		{"state backend", func(c *Config) { c.State.Backend = "consul" }, "state.backend"},
		{"redis url", func(c *Config) { c.State.Backend = StateRedis; c.State.RedisURL = "http://x" }, "redis_url"},
		{"kraken url", func(c *Config) { c.Sources.KrakenURL = "ftp://x" }, "kraken_url"},
		{"smtp", func(c *Config) { c.Notify.SMTP.Addr = "mail:25" }, "smtp"},
		{"mqtt", func(c *Config) { c.Notify.MQTT.Broker = "tcp://x:1883" }, "mqtt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Fatalf("err = %v, want INVALID_CONFIG", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, should mention %q", err, tt.want)
			}
		})
	}

	cfg := Default()
	cfg.Cache.Backend = CacheNone
	if err := cfg.Validate(); err != nil {
		t.Errorf("cache none: %v", err)
	}
}

func TestXDGDirs(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/xdg/cache")
	t.Setenv("XDG_CONFIG_HOME", "/xdg/config")
	if got := CacheDir(); got != filepath.Join("/xdg/cache", AppName) {
		t.Errorf("CacheDir = %s", got)
	}
	if got := ConfigDir(); got != filepath.Join("/xdg/config", AppName) {
		t.Errorf("ConfigDir = %s", got)
	}
	if DefaultConfigFile() != "" {
		t.Error("no config file should be found")
	}

	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	if err := os.MkdirAll(filepath.Join(dir, AppName), 0o755); err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(dir, AppName, "config.yaml")
	if err := os.WriteFile(want, []byte("color: red\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := DefaultConfigFile(); got != want {
		t.Errorf("DefaultConfigFile = %q, want %q", got, want)
	}
}
