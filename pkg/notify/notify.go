// Package notify tells the operator that a run failed.
//
// The orchestrator sends at most one notification per run. Delivery is best
// effort: a notifier error is logged by the caller and never changes the
// outcome of the run.
package notify

import (
	"context"
	stderrors "errors"

	"github.com/charmbracelet/log"
)

// Notifier delivers a failure report.
type Notifier interface {
	Send(ctx context.Context, subject, body string) error
}

// Func adapts a function to a Notifier.
type Func func(ctx context.Context, subject, body string) error

func (f Func) Send(ctx context.Context, subject, body string) error { return f(ctx, subject, body) }

// Nop discards notifications.
type Nop struct{}

func (Nop) Send(context.Context, string, string) error { return nil }

// Log writes notifications to a logger.
type Log struct {
	Logger *log.Logger
}

func (l Log) Send(_ context.Context, subject, body string) error {
	logger := l.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger.Error(subject, "report", body)
	return nil
}

// Multi fans a notification out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, subject, body string) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Send(ctx, subject, body); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}
