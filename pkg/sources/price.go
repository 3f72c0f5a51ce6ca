package sources

import (
	"context"

	"github.com/matzehuels/inkpanel/pkg/integrations/kraken"
	"github.com/matzehuels/inkpanel/pkg/panel"
)

// DefaultPair is the Kraken pair shown when none is configured.
const DefaultPair = "XXBTZUSD"

// Ticker is the price feed used by the price adapter.
type Ticker interface {
	Ticker(ctx context.Context, pair string) (kraken.Tick, error)
}

// NewPrice returns the adapter for the spot price of pair.
func NewPrice(r *Resolver, t Ticker, pair string) Adapter {
	if pair == "" {
		pair = DefaultPair
	}
	asset, quote := kraken.SplitPair(pair)
	return NewFunc(r, panel.KeyPrice, func(ctx context.Context) (panel.Value, error) {
		tick, err := t.Ticker(ctx, pair)
		if err != nil {
			return panel.Value{}, err
		}
		return panel.NewPrice(panel.Price{
			Amount:   tick.Last,
			Currency: kraken.CurrencySymbol(quote),
			Asset:    asset,
		}), nil
	})
}
