package cli

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/matzehuels/inkpanel/pkg/compose"
	"github.com/matzehuels/inkpanel/pkg/display"
	"github.com/matzehuels/inkpanel/pkg/errors"
	"github.com/matzehuels/inkpanel/pkg/layout"
	"github.com/matzehuels/inkpanel/pkg/pipeline"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func (c *CLI) previewCommand() *cobra.Command {
	var (
		opts runOpts
		addr string
	)

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Serve freshly rendered frames over HTTP",
		Long: `Start an HTTP server that renders the panel on every request to
/panel.png, using the same sources and cache as the run command but an
in-memory display. /status.json describes the last run.`,
		Example: `  inkpanel preview --addr :8080 --no-notify`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Preview.Addr
			}

			pal, err := compose.PaletteFor(cfg.Color)
			if err != nil {
				return err
			}
			g := layout.Geometry{Width: cfg.Display.Width, Height: cfg.Display.Height}
			if g.Width == 0 && g.Height == 0 {
				g = layout.Geometry{Width: layout.RefWidth, Height: layout.RefHeight}
			}
			mem := display.NewMemory(g, pal)

			a, err := buildApp(cmd.Context(), cfg, mem, c.Logger)
			if err != nil {
				return err
			}
			defer a.Close()

			return servePreview(cmd.Context(), addr, newPreviewServer(a.runner, mem, c.Logger))
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	return cmd
}

func servePreview(ctx context.Context, addr string, p *previewServer) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           p.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	printInfo("Serving preview on %s", StyleLink.Render("http://"+displayAddr(addr)+"/panel.png"))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	}
}

func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}

// previewServer renders the panel on demand into a memory display.
type previewServer struct {
	runner *pipeline.Runner
	mem    *display.Memory
	logger *log.Logger

	mu   sync.Mutex
	last *pipeline.Result
}

func newPreviewServer(r *pipeline.Runner, mem *display.Memory, logger *log.Logger) *previewServer {
	return &previewServer{runner: r, mem: mem, logger: logger}
}

// Routes returns the preview HTTP handler.
func (p *previewServer) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.NoCache)

	r.Get("/panel.png", p.handlePanel)
	r.Get("/status.json", p.handleStatus)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok\n"))
	})
	return r
}

// handlePanel runs one refresh and serves the frame the display received,
// which is the error panel when the run failed.
func (p *previewServer) handlePanel(w http.ResponseWriter, r *http.Request) {
	res := p.runner.Execute(r.Context())
	p.mu.Lock()
	p.last = res
	p.mu.Unlock()

	p.logger.Debug("preview rendered", "run", shortID(res), "state", res.State, "request", middleware.GetReqID(r.Context()))

	if res.Bitmap == nil {
		http.Error(w, errors.UserMessage(res.Err), http.StatusServiceUnavailable)
		return
	}
	data, err := p.mem.LastPNG()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("X-Inkpanel-State", res.State.String())
	w.Write(data)
}

type statusSource struct {
	Key    string `json:"key"`
	Status string `json:"status"`
	Value  string `json:"value,omitempty"`
	Reason string `json:"reason,omitempty"`
}

type statusResponse struct {
	RunID   string         `json:"run_id"`
	State   string         `json:"state"`
	Error   string         `json:"error,omitempty"`
	Code    string         `json:"code,omitempty"`
	Skipped int            `json:"skipped_commands"`
	Digest  string         `json:"digest,omitempty"`
	TookMS  int64          `json:"took_ms"`
	Sources []statusSource `json:"sources"`
}

func (p *previewServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	res := p.last
	p.mu.Unlock()
	if res == nil {
		http.Error(w, "no run yet", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(newStatus(res)); err != nil {
		p.logger.Warn("encode status", "err", err)
	}
}

func newStatus(res *pipeline.Result) statusResponse {
	st := statusResponse{
		RunID:   res.RunID.String(),
		State:   res.State.String(),
		Skipped: res.Report.Failed(),
		TookMS:  res.Stats.Total.Milliseconds(),
		Sources: []statusSource{},
	}
	if res.Err != nil {
		st.Error = errors.UserMessage(res.Err)
		st.Code = string(errors.GetCode(res.Err))
	}
	if res.Bitmap != nil {
		st.Digest = formatDigest(res.Digest)
	}
	for k, o := range res.Outcomes {
		s := statusSource{Key: string(k), Status: o.Status.String(), Reason: o.Reason}
		if o.HasValue() {
			s.Value = o.Value.String()
		}
		st.Sources = append(st.Sources, s)
	}
	sort.Slice(st.Sources, func(i, j int) bool { return st.Sources[i].Key < st.Sources[j].Key })
	return st
}
