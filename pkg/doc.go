// Package pkg provides the core libraries of inkpanel, a one-shot renderer
// for e-ink status panels.
//
// # Overview
//
// Each run fetches a handful of values (a spot price, outdoor and indoor
// temperatures, weather conditions, room occupancy and a quote), lays them
// out on a fixed canvas, rasterizes the result into the panel's two- or
// three-colour palette and pushes it to the display. A source that fails
// falls back to its last known good value; a run that cannot produce a frame
// shows an error panel and sends one notification.
//
// # Architecture
//
// The data flow of a run:
//
//	Kraken / quote feed / state store / sensor logs
//	         ↓
//	    [sources] (one live read per source, cache fallback)
//	         ↓
//	    [layout] (outcomes → ordered draw commands)
//	         ↓
//	    [compose] (draw commands → paletted bitmap)
//	         ↓
//	    [display] (Inky wHAT/pHAT, PNG file, memory)
//
// [pipeline] orchestrates these stages and owns the run state machine.
//
// # Packages
//
// Domain:
//
//   - [panel]: values, freshness and fetch outcomes shared by every stage
//   - [sources]: adapters and the fetch-or-fallback policy
//   - [layout]: the placement policy and the draw command vocabulary
//   - [compose]: palettes, canvases, assets and the error panel
//   - [pipeline]: the render orchestrator
//
// Infrastructure:
//
//   - [cache]: last-known-good value store on file or SQLite backends
//   - [statestore]: read-only home-automation state (JSON file or Redis)
//   - [integrations]: HTTP clients for Kraken and quote feeds
//   - [display]: output drivers
//   - [notify]: failure notifications (log, SMTP, MQTT)
//   - [lock]: per-display run exclusion
//   - [fonts]: font faces for the compositor
//   - [config]: run configuration (TOML or YAML)
//   - [errors]: coded errors
//   - [observability]: hooks for metrics and tracing
//
// # Quick Start
//
//	store := cache.NewStore(backend, logger)
//	res := sources.NewResolver(store, logger)
//	adapters := []sources.Adapter{
//	    sources.NewPrice(res, kraken.NewClient(""), "XXBTZUSD"),
//	    sources.NewQuote(res, quotes.NewClient(config.DefaultQuoteURL)),
//	}
//	pal, _ := compose.PaletteFor("red")
//	fs, _ := fonts.Default()
//	d, _ := display.Open(display.Options{Kind: display.KindPNG, Variant: "red", Output: "panel.png"})
//
//	r := pipeline.NewRunner(adapters, compose.New(compose.NewDirAssets("assets"), fs, pal, logger), pal, d, logger)
//	result := r.Execute(ctx)
//
// [panel]: https://pkg.go.dev/github.com/matzehuels/inkpanel/pkg/panel
// [sources]: https://pkg.go.dev/github.com/matzehuels/inkpanel/pkg/sources
// [layout]: https://pkg.go.dev/github.com/matzehuels/inkpanel/pkg/layout
// [compose]: https://pkg.go.dev/github.com/matzehuels/inkpanel/pkg/compose
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/inkpanel/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/inkpanel/pkg/cache
// [statestore]: https://pkg.go.dev/github.com/matzehuels/inkpanel/pkg/statestore
// [integrations]: https://pkg.go.dev/github.com/matzehuels/inkpanel/pkg/integrations
// [display]: https://pkg.go.dev/github.com/matzehuels/inkpanel/pkg/display
// [notify]: https://pkg.go.dev/github.com/matzehuels/inkpanel/pkg/notify
// [lock]: https://pkg.go.dev/github.com/matzehuels/inkpanel/pkg/lock
// [fonts]: https://pkg.go.dev/github.com/matzehuels/inkpanel/pkg/fonts
// [config]: https://pkg.go.dev/github.com/matzehuels/inkpanel/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/inkpanel/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/inkpanel/pkg/observability
package pkg
