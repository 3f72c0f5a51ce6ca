package cli

import (
	"bytes"
	"context"
	"image"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"

	"github.com/matzehuels/inkpanel/pkg/cache"
	"github.com/matzehuels/inkpanel/pkg/compose"
	"github.com/matzehuels/inkpanel/pkg/config"
	"github.com/matzehuels/inkpanel/pkg/display"
	"github.com/matzehuels/inkpanel/pkg/errors"
	"github.com/matzehuels/inkpanel/pkg/fonts"
	"github.com/matzehuels/inkpanel/pkg/layout"
	"github.com/matzehuels/inkpanel/pkg/notify"
	"github.com/matzehuels/inkpanel/pkg/panel"
	"github.com/matzehuels/inkpanel/pkg/pipeline"
	"github.com/matzehuels/inkpanel/pkg/sources"
	"github.com/matzehuels/inkpanel/pkg/statestore"
)

// isolate points the XDG directories at a temp dir so no test reads the
// developer's own configuration.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	return dir
}

func writeConfig(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestApplyOverrides(t *testing.T) {
	tests := []struct {
		name  string
		opts  runOpts
		check func(t *testing.T, cfg config.Config)
	}{
		{
			name: "colour and pair",
			opts: runOpts{color: "yellow", pair: "XETHZEUR"},
			check: func(t *testing.T, cfg config.Config) {
				if cfg.Color != "yellow" || cfg.Pair != "XETHZEUR" {
					t.Errorf("color=%q pair=%q", cfg.Color, cfg.Pair)
				}
			},
		},
		{
			name: "flip",
			opts: runOpts{flip: "true"},
			check: func(t *testing.T, cfg config.Config) {
				if !cfg.Flip {
					t.Error("flip not applied")
				}
			},
		},
		{
			name: "output implies png",
			opts: runOpts{output: "/tmp/panel.png"},
			check: func(t *testing.T, cfg config.Config) {
				if cfg.Display.Kind != "png" || cfg.Display.Output != "/tmp/panel.png" {
					t.Errorf("display = %+v", cfg.Display)
				}
			},
		},
		{
			name: "explicit display wins",
			opts: runOpts{output: "/tmp/panel.png", display: "inky"},
			check: func(t *testing.T, cfg config.Config) {
				if cfg.Display.Kind != "inky" {
					t.Errorf("kind = %q", cfg.Display.Kind)
				}
			},
		},
		{
			name: "no cache and no notify",
			opts: runOpts{noCache: true, noNotify: true},
			check: func(t *testing.T, cfg config.Config) {
				if cfg.Cache.Backend != config.CacheNone || !cfg.Notify.Disabled {
					t.Errorf("cache=%q notify disabled=%v", cfg.Cache.Backend, cfg.Notify.Disabled)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			if err := tt.opts.apply(&cfg); err != nil {
				t.Fatalf("apply: %v", err)
			}
			tt.check(t, cfg)
		})
	}
}

func TestApplyBadFlip(t *testing.T) {
	cfg := config.Default()
	o := runOpts{flip: "sideways"}
	if err := o.apply(&cfg); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("apply = %v, want INVALID_CONFIG", err)
	}
}

func TestLoadConfigFileThenFlags(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, "panel.toml", `
color = "black"
pair = "XETHZUSD"

[display]
kind = "png"
output = "/tmp/file.png"
`)

	o := runOpts{config: path, color: "yellow"}
	cfg, err := o.loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Color != "yellow" {
		t.Errorf("flag should override file: color = %q", cfg.Color)
	}
	if cfg.Pair != "XETHZUSD" || cfg.Display.Output != "/tmp/file.png" {
		t.Errorf("file values lost: %+v", cfg)
	}
}

func TestLoadConfigDefaultFile(t *testing.T) {
	dir := isolate(t)
	confDir := filepath.Join(dir, "config", config.AppName)
	if err := os.MkdirAll(confDir, 0o755); err != nil {
		t.Fatal(err)
	}
	writeConfig(t, confDir, "config.yaml", "pair: XETHZEUR\n")

	var o runOpts
	cfg, err := o.loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Pair != "XETHZEUR" {
		t.Errorf("pair = %q, want value from default config file", cfg.Pair)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	isolate(t)
	o := runOpts{color: "green"}
	if _, err := o.loadConfig(); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("loadConfig = %v, want INVALID_CONFIG", err)
	}
}

func TestBuildSources(t *testing.T) {
	cfg := config.Default()
	got := buildSources(cfg, cache.NewStore(nil, nil), statestore.NewFileStore(filepath.Join(t.TempDir(), "s.json")), log.New(io.Discard))
	if len(got) != len(panel.Keys) {
		t.Fatalf("got %d adapters, want %d", len(got), len(panel.Keys))
	}
	seen := make(map[panel.Key]bool)
	for _, a := range got {
		seen[a.Key()] = true
	}
	for _, k := range panel.Keys {
		if !seen[k] {
			t.Errorf("no adapter for %s", k)
		}
	}
}

func TestBuildSourcesReminder(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "steps.md")
	if err := os.WriteFile(path, []byte("Walk 8,000 steps\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.Sources.Reminder = path

	store := cache.NewStore(cache.NewNullBackend(), nil)
	for _, a := range buildSources(cfg, store, statestore.NewFileStore(filepath.Join(dir, "s.json")), log.New(io.Discard)) {
		if a.Key() != panel.KeyQuote {
			continue
		}
		out := a.Fetch(context.Background())
		if out.Status != panel.StatusOK || out.Value.Quote.Text != "Walk 8,000 steps today" {
			t.Errorf("quote line = %+v", out)
		}
		return
	}
	t.Fatal("no quote adapter")
}

func TestBuildNotifier(t *testing.T) {
	logger := log.New(io.Discard)
	ctx := context.Background()

	n := buildNotifier(ctx, config.Notify{Disabled: true}, nil, logger)
	if _, ok := n.(notify.Nop); !ok {
		t.Errorf("disabled notifier = %T, want Nop", n)
	}

	n = buildNotifier(ctx, config.Notify{}, nil, logger)
	if _, ok := n.(notify.Log); !ok {
		t.Errorf("default notifier = %T, want Log", n)
	}

	t.Setenv(statestore.SecretEnv("smtp.password"), "hunter2")
	smtpCfg := config.Notify{SMTP: config.SMTP{
		Addr: "mail.example.com:587", From: "panel@example.com", To: []string{"me@example.com"},
		Username: "panel", PasswordSecret: "smtp.password",
	}}
	n = buildNotifier(ctx, smtpCfg, nil, logger)
	m, ok := n.(closingMulti)
	if !ok || len(m.Multi) != 2 {
		t.Fatalf("notifier = %#v, want log plus smtp", n)
	}
	if s, ok := m.Multi[1].(*notify.SMTP); !ok || s.Password != "hunter2" {
		t.Errorf("smtp password not taken from the secret store")
	}
}

func TestBuildNotifierMissingSecret(t *testing.T) {
	cfg := config.Notify{SMTP: config.SMTP{
		Addr: "mail.example.com:587", From: "a@example.com", To: []string{"b@example.com"},
		PasswordSecret: "missing.secret",
	}}
	var buf bytes.Buffer
	n := buildNotifier(context.Background(), cfg, nil, log.New(&buf))
	if _, ok := n.(notify.Log); !ok {
		t.Errorf("notifier = %T, want Log only", n)
	}
	if !strings.Contains(buf.String(), "smtp notifier unavailable") {
		t.Errorf("missing warning, log:\n%s", buf.String())
	}
}

func TestBuildAppStateStoreDown(t *testing.T) {
	dir := isolate(t)
	cfg := config.Default()
	cfg.Display = config.Display{Kind: "png", Output: filepath.Join(dir, "panel.png")}
	cfg.Cache = config.Cache{Backend: config.CacheNone}
	cfg.State = config.State{Backend: config.StateRedis, RedisURL: "redis://127.0.0.1:1/0"}
	cfg.Notify.SMTP = config.SMTP{
		Addr: "mail.example.com:587", From: "a@example.com", To: []string{"b@example.com"},
		PasswordSecret: "smtp.password",
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a, err := buildApp(ctx, cfg, nil, log.New(io.Discard))
	if err != nil {
		t.Fatalf("buildApp: %v", err)
	}
	defer a.Close()
	if _, ok := a.runner.Notifier.(notify.Log); !ok {
		t.Errorf("notifier = %T, want Log", a.runner.Notifier)
	}
}

func TestBuildAppErrors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(cfg *config.Config, dir string)
	}{
		{"bad color", func(cfg *config.Config, _ string) { cfg.Color = "green" }},
		{"missing font", func(cfg *config.Config, dir string) {
			cfg.Assets.Font = filepath.Join(dir, "nope.ttf")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			cfg := config.Default()
			cfg.Display = config.Display{Kind: "png", Output: filepath.Join(dir, "panel.png")}
			cfg.Cache = config.Cache{Backend: config.CacheFile, Dir: filepath.Join(dir, "cache")}
			cfg.Notify.Disabled = true
			tt.modify(&cfg, dir)

			a, err := buildApp(context.Background(), cfg, nil, log.New(io.Discard))
			if a != nil {
				t.Error("app should be nil on error")
			}
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("buildApp = %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestBuildAppPNG(t *testing.T) {
	dir := isolate(t)
	cfg := config.Default()
	cfg.Display = config.Display{Kind: "png", Output: filepath.Join(dir, "panel.png")}
	cfg.Cache = config.Cache{Backend: config.CacheNone}
	cfg.Notify.Disabled = true

	a, err := buildApp(context.Background(), cfg, nil, log.New(io.Discard))
	if err != nil {
		t.Fatalf("buildApp: %v", err)
	}
	defer a.Close()

	if a.runner.Asset != "BTC" {
		t.Errorf("asset = %q, want BTC", a.runner.Asset)
	}
	if a.runner.Display.ID() != "png" {
		t.Errorf("display = %s", a.runner.Display.ID())
	}
	if a.runner.RunTimeout != cfg.RunTimeout {
		t.Errorf("run timeout = %s", a.runner.RunTimeout)
	}
}

func TestCacheCommands(t *testing.T) {
	dir := isolate(t)
	cacheDir := filepath.Join(dir, "values")
	path := writeConfig(t, dir, "c.toml", "[cache]\nbackend = \"file\"\ndir = \""+filepath.ToSlash(cacheDir)+"\"\n")

	backend, err := cache.NewFileBackend(cacheDir)
	if err != nil {
		t.Fatal(err)
	}
	store := cache.NewStore(backend, nil)
	if err := store.Put(context.Background(), panel.KeyOutdoor, panel.NewTemperature(panel.Temperature{Degrees: 61, Scale: panel.Fahrenheit})); err != nil {
		t.Fatal(err)
	}

	c := New(io.Discard, LogInfo)
	run := func(args ...string) string {
		t.Helper()
		root := c.RootCommand()
		var out bytes.Buffer
		root.SetOut(&out)
		root.SetErr(&out)
		root.SetArgs(args)
		if err := root.Execute(); err != nil {
			t.Fatalf("%v: %v", args, err)
		}
		return out.String()
	}

	if got := strings.TrimSpace(run("cache", "path", "--config", path)); got != cacheDir {
		t.Errorf("cache path = %q, want %q", got, cacheDir)
	}

	run("cache", "show", "--config", path)
	run("cache", "clear", "--config", path)

	entries, err := store.Entries(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("%d entries left after clear", len(entries))
	}
}

func TestVersionCommand(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "version:") {
		t.Errorf("output = %q", out.String())
	}
}

// fixed is an adapter with a constant outcome.
type fixed struct {
	key panel.Key
	out panel.Outcome
}

func (f fixed) Key() panel.Key                      { return f.key }
func (f fixed) Fetch(context.Context) panel.Outcome { return f.out }

func newTestPreview(t *testing.T, renderer compose.Renderer) (*previewServer, *display.Memory) {
	t.Helper()
	pal, err := compose.PaletteFor("red")
	if err != nil {
		t.Fatal(err)
	}
	g := layout.Geometry{Width: layout.RefWidth, Height: layout.RefHeight}
	mem := display.NewMemory(g, pal)

	if renderer == nil {
		fs, err := fonts.Default()
		if err != nil {
			t.Fatal(err)
		}
		renderer = compose.New(compose.MapAssets{}, fs, pal, log.New(io.Discard))
	}

	adapters := []sources.Adapter{
		fixed{panel.KeyOutdoor, panel.Ok(panel.NewTemperature(panel.Temperature{Degrees: 61, Scale: panel.Fahrenheit}))},
		fixed{panel.KeyQuote, panel.Unavailable(errors.New(errors.ErrCodeCacheMiss, "quote: no cached value"))},
	}
	r := pipeline.NewRunner(adapters, renderer, pal, mem, log.New(io.Discard))
	r.Asset = "BTC"
	return newPreviewServer(r, mem, log.New(io.Discard)), mem
}

func TestPreviewPanel(t *testing.T) {
	p, mem := newTestPreview(t, nil)
	srv := httptest.NewServer(p.Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/status.json")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status before any run = %d, want 404", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/panel.png")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("panel.png status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type = %q", ct)
	}
	if st := resp.Header.Get("X-Inkpanel-State"); st != "Rendered" {
		t.Errorf("state header = %q", st)
	}
	img, err := imaging.Decode(resp.Body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 400 || img.Bounds().Dy() != 300 {
		t.Errorf("frame size = %v", img.Bounds())
	}
	if len(mem.Shown()) != 1 {
		t.Errorf("display shown %d frames, want 1", len(mem.Shown()))
	}

	resp, err = http.Get(srv.URL + "/status.json")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var st statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if st.State != "Rendered" || st.Digest == "" {
		t.Errorf("status = %+v", st)
	}
	if len(st.Sources) != 2 || st.Sources[0].Key != "outdoor" || st.Sources[1].Status != "unavailable" {
		t.Errorf("sources = %+v", st.Sources)
	}
}

type panicRenderer struct{}

func (panicRenderer) Render(context.Context, layout.Geometry, []layout.Command) (*image.Paletted, compose.Report, error) {
	panic("boom")
}

func TestPreviewServesErrorPanel(t *testing.T) {
	p, _ := newTestPreview(t, panicRenderer{})
	srv := httptest.NewServer(p.Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/panel.png")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if st := resp.Header.Get("X-Inkpanel-State"); st != "Failed" {
		t.Errorf("state header = %q, want Failed", st)
	}
	p.mu.Lock()
	last := p.last
	p.mu.Unlock()
	if st := newStatus(last); st.Code != string(errors.ErrCodeFatal) {
		t.Errorf("code = %q, want FATAL", st.Code)
	}
}

func TestHealthz(t *testing.T) {
	p, _ := newTestPreview(t, nil)
	rec := httptest.NewRecorder()
	p.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok\n" {
		t.Errorf("healthz = %d %q", rec.Code, rec.Body.String())
	}
}

func TestDisplayAddr(t *testing.T) {
	tests := map[string]string{
		":8080":          "localhost:8080",
		"127.0.0.1:9000": "127.0.0.1:9000",
	}
	for in, want := range tests {
		if got := displayAddr(in); got != want {
			t.Errorf("displayAddr(%q) = %q, want %q", in, got, want)
		}
	}
}
