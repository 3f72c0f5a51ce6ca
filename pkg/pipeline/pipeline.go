// Package pipeline runs one refresh of the panel from start to finish.
//
// A run moves through a fixed set of states:
//
//	Init → Fetching → Composing → Rendered
//	  └────────┴──────────┴──────→ Failed
//
// Source failures never reach this package: adapters fold them into
// Degraded or Unavailable outcomes, and the compositor skips commands it
// cannot draw. What does arrive here is fatal (an invalid display geometry,
// a panic during composition, a display that refuses the frame) and turns
// the run into Failed: the orchestrator pushes the fixed error panel and
// sends exactly one notification with the diagnostic trace.
//
// # Usage
//
//	runner := pipeline.NewRunner(adapters, compositor, palette, driver, logger)
//	runner.Notifier = notify.Log{Logger: logger}
//	res := runner.Execute(ctx)
//	if res.State == pipeline.StateFailed {
//	    os.Exit(1)
//	}
package pipeline

import (
	"fmt"
	"image"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/inkpanel/pkg/compose"
	"github.com/matzehuels/inkpanel/pkg/errors"
	"github.com/matzehuels/inkpanel/pkg/layout"
	"github.com/matzehuels/inkpanel/pkg/panel"
)

// State is a stage of a run.
type State int

// Run states.
const (
	StateInit State = iota
	StateFetching
	StateComposing
	StateRendered
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "Init"
	case StateFetching:
		return "Fetching"
	case StateComposing:
		return "Composing"
	case StateRendered:
		return "Rendered"
	case StateFailed:
		return "Failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Terminal reports whether s ends a run.
func (s State) Terminal() bool { return s == StateRendered || s == StateFailed }

// Transition records when a run entered a state.
type Transition struct {
	State State
	At    time.Time
}

// Stats holds stage timings.
type Stats struct {
	FetchTime   time.Duration
	ComposeTime time.Duration
	PushTime    time.Duration
	Total       time.Duration
}

// Result describes a finished run. It is always returned in a terminal
// state.
type Result struct {
	RunID    uuid.UUID
	State    State
	History  []Transition
	Outcomes map[panel.Key]panel.Outcome
	Commands []layout.Command
	Report   compose.Report

	// Bitmap is the frame shown on the display: the panel when Rendered,
	// the error panel when Failed.
	Bitmap *image.Paletted
	// Digest is the xxh3 hash of the bitmap pixels.
	Digest uint64

	Stats Stats
	Err   error
	// NotifyErr is the delivery error of the failure notification, if any.
	NotifyErr error
}

func (r *Result) enter(s State, at time.Time) {
	r.State = s
	r.History = append(r.History, Transition{State: s, At: at})
}

// Counts returns how many outcomes have each status.
func (r *Result) Counts() (ok, degraded, unavailable int) {
	for _, o := range r.Outcomes {
		switch o.Status {
		case panel.StatusOK:
			ok++
		case panel.StatusDegraded:
			degraded++
		default:
			unavailable++
		}
	}
	return ok, degraded, unavailable
}

// Trace renders the diagnostic report sent with failure notifications.
func (r *Result) Trace() string {
	var b strings.Builder
	fmt.Fprintf(&b, "run:   %s\n", r.RunID)
	fmt.Fprintf(&b, "state: %s\n", r.State)
	if r.Err != nil {
		fmt.Fprintf(&b, "error: %v\n", r.Err)
	}

	b.WriteString("\nstates:\n")
	for _, t := range r.History {
		fmt.Fprintf(&b, "  %s  %s\n", t.At.UTC().Format(time.RFC3339Nano), t.State)
	}

	if len(r.Outcomes) > 0 {
		b.WriteString("\nsources:\n")
		keys := make([]string, 0, len(r.Outcomes))
		for k := range r.Outcomes {
			keys = append(keys, string(k))
		}
		sort.Strings(keys)
		for _, k := range keys {
			o := r.Outcomes[panel.Key(k)]
			switch o.Status {
			case panel.StatusOK:
				fmt.Fprintf(&b, "  %-10s %-11s %s\n", k, o.Status, o.Value)
			case panel.StatusDegraded:
				fmt.Fprintf(&b, "  %-10s %-11s %s (%s)\n", k, o.Status, o.Value, o.Reason)
			default:
				fmt.Fprintf(&b, "  %-10s %-11s %s\n", k, o.Status, o.Reason)
			}
		}
	}

	if r.Report.Failed() > 0 {
		b.WriteString("\nskipped draw commands:\n")
		for _, f := range r.Report.Failures {
			fmt.Fprintf(&b, "  %s: %v\n", f.Command, f.Err)
		}
	}

	if r.Err != nil {
		b.WriteString("\nerror chain:\n")
		for i, err := range errorChain(r.Err) {
			fmt.Fprintf(&b, "  %d. [%s] %s\n", i, codeOf(err), message(err))
		}
	}
	if r.NotifyErr != nil {
		fmt.Fprintf(&b, "\nnotify: %v\n", r.NotifyErr)
	}
	return b.String()
}

func errorChain(err error) []error {
	var chain []error
	for err != nil {
		chain = append(chain, err)
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return chain
}

func codeOf(err error) string {
	if e, ok := err.(*errors.Error); ok {
		return string(e.Code)
	}
	return fmt.Sprintf("%T", err)
}

func message(err error) string {
	if e, ok := err.(*errors.Error); ok {
		return e.Message
	}
	return err.Error()
}
