package cli

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/matzehuels/inkpanel/pkg/config"
	"github.com/matzehuels/inkpanel/pkg/errors"
	"github.com/matzehuels/inkpanel/pkg/panel"
	"github.com/matzehuels/inkpanel/pkg/pipeline"
)

// runOpts holds the command-line overrides shared by run and preview.
type runOpts struct {
	config   string
	color    string
	flip     string
	pair     string
	display  string
	output   string
	noCache  bool
	noNotify bool
}

func (o *runOpts) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&o.config, "config", "c", "", "config file (.toml, .yaml); defaults to ~/.config/inkpanel/config.*")
	f.StringVar(&o.color, "color", "", "display colour variant: red, black, yellow")
	f.StringVar(&o.flip, "flip", "", "rotate the frame by 180 degrees: true, false")
	f.StringVar(&o.pair, "pair", "", "Kraken ticker pair, e.g. XXBTZUSD")
	f.StringVar(&o.display, "display", "", "output device: inky, png")
	f.StringVarP(&o.output, "output", "o", "", "png output path (png display)")
	f.BoolVar(&o.noCache, "no-cache", false, "disable the last-known-good value cache")
	f.BoolVar(&o.noNotify, "no-notify", false, "do not send failure notifications")
}

// loadConfig returns the defaults overlaid by the config file and the flags.
// The result is validated.
func (o *runOpts) loadConfig() (config.Config, error) {
	path := o.config
	if path == "" {
		path = config.DefaultConfigFile()
	}
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return cfg, err
		}
	}
	if err := o.apply(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (o *runOpts) apply(cfg *config.Config) error {
	if o.color != "" {
		cfg.Color = o.color
	}
	if o.flip != "" {
		v, err := strconv.ParseBool(o.flip)
		if err != nil {
			return errors.New(errors.ErrCodeInvalidConfig, "--flip %q must be true or false", o.flip)
		}
		cfg.Flip = v
	}
	if o.pair != "" {
		cfg.Pair = o.pair
	}
	if o.output != "" {
		cfg.Display.Output = o.output
		if o.display == "" {
			cfg.Display.Kind = "png"
		}
	}
	if o.display != "" {
		cfg.Display.Kind = o.display
	}
	if o.noCache {
		cfg.Cache.Backend = config.CacheNone
	}
	if o.noNotify {
		cfg.Notify.Disabled = true
	}
	return nil
}

func (c *CLI) runCommand() *cobra.Command {
	var opts runOpts

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Refresh the panel once",
		Long: `Fetch every source, compose the frame and push it to the display.

Sources that fail are shown from the cache and marked with an asterisk. If
the frame cannot be produced at all, an error panel is shown instead and a
notification is sent.`,
		Example: `  # Refresh an Inky wHAT with the red variant
  inkpanel run --color red --flip true

  # Render to a PNG file without hardware
  inkpanel run --output panel.png --no-notify`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			a, err := buildApp(cmd.Context(), cfg, nil, c.Logger)
			if err != nil {
				return err
			}
			defer a.Close()

			prog := newProgress(c.Logger)
			res := a.runner.Execute(cmd.Context())
			prog.done("panel run " + res.State.String())

			printRunSummary(res, cfg)
			if res.State == pipeline.StateFailed {
				return res.Err
			}
			return nil
		},
	}

	opts.register(cmd)
	return cmd
}

func printRunSummary(res *pipeline.Result, cfg config.Config) {
	if res.State == pipeline.StateFailed {
		printError("Run %s failed: %s", StyleHighlight.Render(shortID(res)), errors.UserMessage(res.Err))
	} else {
		printSuccess("Run %s rendered", StyleHighlight.Render(shortID(res)))
	}

	ok, degraded, unavailable := res.Counts()
	printKeyValue("Sources", fmt.Sprintf("%d ok · %d cached · %d unavailable", ok, degraded, unavailable))
	printKeyValue("Fetch", res.Stats.FetchTime.Round(time.Millisecond).String())
	printKeyValue("Total", res.Stats.Total.Round(time.Millisecond).String())
	if res.Bitmap != nil {
		printKeyValue("Frame", formatDigest(res.Digest))
	}

	keys := make([]panel.Key, 0, len(res.Outcomes))
	for k := range res.Outcomes {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	for _, k := range keys {
		printDetail("%s", describeOutcome(k, res.Outcomes[k]))
	}

	if res.Report.Failed() > 0 {
		printWarning("%d draw command(s) skipped", res.Report.Failed())
	}
	if res.NotifyErr != nil {
		printWarning("notification not delivered: %v", res.NotifyErr)
	}
	if cfg.Display.Kind == "png" && res.Bitmap != nil {
		printFile(cfg.Display.Output)
	}
}

func describeOutcome(k panel.Key, o panel.Outcome) string {
	switch o.Status {
	case panel.StatusOK:
		return fmt.Sprintf("%-10s %s", k, o.Value)
	case panel.StatusDegraded:
		age := "cached"
		if f := o.Value.Freshness; f.Cached {
			age = "cached " + humanize.Time(time.Now().Add(-f.Age))
		}
		return fmt.Sprintf("%-10s %s (%s)", k, o.Value, age)
	default:
		return fmt.Sprintf("%-10s unavailable: %s", k, o.Reason)
	}
}

func formatDigest(d uint64) string {
	return fmt.Sprintf("%016x", d)
}

func shortID(res *pipeline.Result) string {
	return res.RunID.String()[:8]
}
