package cli

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/matzehuels/inkpanel/pkg/cache"
	"github.com/matzehuels/inkpanel/pkg/config"
)

func (c *CLI) cacheCommand() *cobra.Command {
	var opts runOpts

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the last-known-good value cache",
		Long: `The cache holds the last value each source fetched successfully. It is
what the panel shows, marked with an asterisk, when a live fetch fails.`,
	}
	cmd.PersistentFlags().StringVarP(&opts.config, "config", "c", "", "config file (.toml, .yaml)")

	cmd.AddCommand(c.cacheShowCommand(&opts))
	cmd.AddCommand(c.cacheClearCommand(&opts))
	cmd.AddCommand(c.cachePathCommand(&opts))
	return cmd
}

func (c *CLI) openStore(cmd *cobra.Command, opts *runOpts) (*cache.Store, error) {
	cfg, err := opts.loadConfig()
	if err != nil {
		return nil, err
	}
	backend, err := openCache(cmd.Context(), cfg.Cache)
	if err != nil {
		return nil, err
	}
	return cache.NewStore(backend, c.Logger), nil
}

func (c *CLI) cacheShowCommand(opts *runOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "List cached values and their age",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.openStore(cmd, opts)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.Entries(cmd.Context())
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				printInfo("Cache is empty")
				return nil
			}
			now := time.Now()
			for _, e := range entries {
				printKeyValue(string(e.Key), fmt.Sprintf("%s %s", e.Value, StyleDim.Render(humanize.Time(now.Add(-e.Age(now))))))
			}
			return nil
		},
	}
}

func (c *CLI) cacheClearCommand(opts *runOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.openStore(cmd, opts)
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := store.Clear(cmd.Context())
			if err != nil {
				return err
			}
			printSuccess("Removed %s", humanize.Comma(int64(n))+" cached "+plural(n, "value", "values"))
			return nil
		},
	}
}

func (c *CLI) cachePathCommand(opts *runOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where the cache is stored",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			switch cfg.Cache.Backend {
			case config.CacheSQLite:
				fmt.Fprintln(cmd.OutOrStdout(), cfg.Cache.Path)
			case config.CacheNone:
				printWarning("cache is disabled")
			default:
				fmt.Fprintln(cmd.OutOrStdout(), cfg.Cache.Dir)
			}
			return nil
		},
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
