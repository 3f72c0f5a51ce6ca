// Package kraken fetches spot prices from the Kraken public ticker API.
package kraken

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/matzehuels/inkpanel/pkg/errors"
	"github.com/matzehuels/inkpanel/pkg/integrations"
	"github.com/matzehuels/inkpanel/pkg/panel"
)

// DefaultBaseURL is the public Kraken REST endpoint.
const DefaultBaseURL = "https://api.kraken.com"

// Tick is the last trade of a currency pair.
type Tick struct {
	Pair string  // pair as returned by Kraken, e.g. "XXBTZUSD"
	Last float64 // last trade price in the quote currency
}

// Client provides access to the Kraken ticker endpoint.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a Kraken client. An empty baseURL uses [DefaultBaseURL].
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		Client:  integrations.NewClient(nil),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Ticker returns the last trade price of pair.
//
// Returns:
//   - TRANSPORT errors for network failures and non-2xx responses
//   - SCHEMA errors when Kraken reports an error (e.g. an unknown pair) or the
//     body lacks a parseable last-trade price
func (c *Client) Ticker(ctx context.Context, pair string) (Tick, error) {
	var data tickerResponse
	u := fmt.Sprintf("%s/0/public/Ticker?pair=%s", c.baseURL, url.QueryEscape(pair))
	if err := c.Get(ctx, u, &data); err != nil {
		return Tick{}, err
	}
	if len(data.Error) > 0 {
		return Tick{}, errors.New(errors.ErrCodeSchema, "kraken: %s", strings.Join(data.Error, "; "))
	}

	name, info, ok := data.lookup(pair)
	if !ok {
		return Tick{}, errors.New(errors.ErrCodeSchema, "kraken: no ticker for %s in response", pair)
	}
	if len(info.Close) == 0 {
		return Tick{}, errors.New(errors.ErrCodeSchema, "kraken: %s has no last trade", name)
	}
	last, err := panel.ParseAmount(info.Close[0])
	if err != nil {
		return Tick{}, errors.Wrap(errors.ErrCodeSchema, err, "kraken: last trade %q", info.Close[0])
	}
	return Tick{Pair: name, Last: last}, nil
}

type tickerResponse struct {
	Error  []string              `json:"error"`
	Result map[string]tickerInfo `json:"result"`
}

type tickerInfo struct {
	Close []string `json:"c"` // [price, lot volume]
}

// lookup finds the ticker for pair. Kraken answers alternate names such as
// "XBTUSD" under the canonical name "XXBTZUSD", so a single-entry result is
// accepted whatever its key.
func (r tickerResponse) lookup(pair string) (string, tickerInfo, bool) {
	if info, ok := r.Result[pair]; ok {
		return pair, info, true
	}
	if len(r.Result) == 1 {
		for name, info := range r.Result {
			return name, info, true
		}
	}
	return "", tickerInfo{}, false
}
