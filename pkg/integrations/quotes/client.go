// Package quotes fetches a quote or reminder text from an HTTP feed.
//
// Two response shapes are accepted:
//
//	{"text": "Water the plants", "author": "Me"}
//	[{"q": "Stay hungry.", "a": "Steve Jobs"}]   // ZenQuotes
package quotes

import (
	"bytes"
	"context"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/matzehuels/inkpanel/pkg/errors"
	"github.com/matzehuels/inkpanel/pkg/integrations"
	"github.com/matzehuels/inkpanel/pkg/panel"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Client fetches quotes from a single feed URL.
type Client struct {
	*integrations.Client
	url string
}

// NewClient creates a quote client for url.
func NewClient(url string) *Client {
	return &Client{
		Client: integrations.NewClient(map[string]string{"Accept": "application/json"}),
		url:    url,
	}
}

// URL returns the feed URL.
func (c *Client) URL() string { return c.url }

// Fetch returns the current quote. An empty text is a SCHEMA error.
func (c *Client) Fetch(ctx context.Context) (panel.Quote, error) {
	data, err := c.GetBytes(ctx, c.url)
	if err != nil {
		return panel.Quote{}, err
	}
	return Parse(data)
}

type plainQuote struct {
	Text   string `json:"text"`
	Author string `json:"author"`
}

type zenQuote struct {
	Q string `json:"q"`
	A string `json:"a"`
}

// Parse decodes either accepted response shape.
func Parse(data []byte) (panel.Quote, error) {
	var q panel.Quote
	trimmed := bytes.TrimSpace(data)

	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []zenQuote
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return q, errors.Wrap(errors.ErrCodeSchema, err, "decode quote list")
		}
		if len(list) == 0 {
			return q, errors.New(errors.ErrCodeSchema, "quote list is empty")
		}
		q = panel.Quote{Text: list[0].Q, Author: list[0].A}
	} else {
		var p plainQuote
		if err := json.Unmarshal(trimmed, &p); err != nil {
			return q, errors.Wrap(errors.ErrCodeSchema, err, "decode quote")
		}
		q = panel.Quote{Text: p.Text, Author: p.Author}
	}

	q.Text = strings.TrimSpace(q.Text)
	q.Author = strings.TrimSpace(q.Author)
	if q.Text == "" {
		return panel.Quote{}, errors.New(errors.ErrCodeSchema, "quote has no text")
	}
	return q, nil
}
