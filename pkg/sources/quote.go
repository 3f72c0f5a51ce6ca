package sources

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/inkpanel/pkg/errors"
	"github.com/matzehuels/inkpanel/pkg/panel"
)

// QuoteFeed is the text feed used by the quote adapter.
type QuoteFeed interface {
	Fetch(ctx context.Context) (panel.Quote, error)
}

// NewQuote returns the adapter for the quote or reminder line.
func NewQuote(r *Resolver, feed QuoteFeed) Adapter {
	return NewFunc(r, panel.KeyQuote, func(ctx context.Context) (panel.Value, error) {
		q, err := feed.Fetch(ctx)
		if err != nil {
			return panel.Value{}, err
		}
		return panel.NewQuote(q), nil
	})
}

// NewReminder returns a quote-line adapter that reads the first non-empty
// line of a local file, e.g. "Walk 8,000 steps" shown as
// "Walk 8,000 steps today". A missing or blank file counts as malformed data
// so the last reminder is kept.
func NewReminder(r *Resolver, path string) Adapter {
	return NewFunc(r, panel.KeyQuote, func(ctx context.Context) (panel.Value, error) {
		if err := ctx.Err(); err != nil {
			return panel.Value{}, err
		}
		line, err := ReadReminder(path)
		if err != nil {
			return panel.Value{}, err
		}
		return panel.NewQuote(panel.Quote{Text: line + " today"}), nil
	})
}

// ReadReminder returns the first non-empty line of the file at path.
func ReadReminder(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeSchema, err, "read reminder")
	}
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			return line, nil
		}
	}
	if err := sc.Err(); err != nil {
		return "", errors.Wrap(errors.ErrCodeSchema, err, "scan %s", filepath.Base(path))
	}
	return "", errors.New(errors.ErrCodeSchema, "%s is empty", filepath.Base(path))
}
