// Package cli implements the inkpanel command-line interface.
//
// The commands wire the core packages together from a [config.Config]:
// the value cache, the state store, the source adapters, the compositor,
// the display driver and the failure notifiers.
//
// # Commands
//
//   - run: refresh the panel once (meant for cron or a systemd timer)
//   - preview: serve freshly rendered frames over HTTP
//   - cache: show, clear or locate the last-known-good value cache
//   - version: print build information
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. A single
// charmbracelet/log logger is built here and passed explicitly to every
// component that logs.
//
// [config.Config]: github.com/matzehuels/inkpanel/pkg/config.Config
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// The logger writes to w and filters messages at the specified level.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
// It is safe for sequential use by a single goroutine; concurrent calls to done will race.
type progress struct {
	logger *log.Logger
	start  time.Time
}

// newProgress creates a progress tracker that captures the current time as start.
// The returned progress should call done when the operation completes.
func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// The duration is rounded to the nearest millisecond.
// Example output: "panel run rendered (1.234s)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}
