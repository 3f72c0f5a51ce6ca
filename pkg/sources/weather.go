package sources

import (
	"context"
	"math"
	"strings"

	"github.com/matzehuels/inkpanel/pkg/errors"
	"github.com/matzehuels/inkpanel/pkg/panel"
	"github.com/matzehuels/inkpanel/pkg/statestore"
)

// Default state keys written by the sibling processes.
const (
	DefaultWeatherKey   = "weather.data"
	DefaultOccupancyKey = "planty.status"
)

// weatherData is the document the weather poller keeps under weather.data.
// Pointers distinguish a missing field from a zero reading.
type weatherData struct {
	Temperature *float64 `json:"current_temperature"`
	Icon        *string  `json:"current_conditions_icon"`
}

func lookupWeather(ctx context.Context, s statestore.Store, key string) (weatherData, error) {
	var w weatherData
	err := statestore.LookupInto(ctx, s, key, &w)
	return w, err
}

// NewOutdoor returns the adapter for the outdoor temperature in °F.
func NewOutdoor(r *Resolver, s statestore.Store, key string) Adapter {
	if key == "" {
		key = DefaultWeatherKey
	}
	return NewFunc(r, panel.KeyOutdoor, func(ctx context.Context) (panel.Value, error) {
		w, err := lookupWeather(ctx, s, key)
		if err != nil {
			return panel.Value{}, err
		}
		if w.Temperature == nil {
			return panel.Value{}, errors.New(errors.ErrCodeSchema, "%s: missing current_temperature", key)
		}
		if math.IsNaN(*w.Temperature) || math.IsInf(*w.Temperature, 0) {
			return panel.Value{}, errors.New(errors.ErrCodeSchema, "%s: invalid current_temperature", key)
		}
		return panel.NewTemperature(panel.Temperature{
			Degrees: int(math.Round(*w.Temperature)),
			Scale:   panel.Fahrenheit,
		}), nil
	})
}

// NewConditions returns the adapter for the weather conditions icon.
func NewConditions(r *Resolver, s statestore.Store, key string) Adapter {
	if key == "" {
		key = DefaultWeatherKey
	}
	return NewFunc(r, panel.KeyConditions, func(ctx context.Context) (panel.Value, error) {
		w, err := lookupWeather(ctx, s, key)
		if err != nil {
			return panel.Value{}, err
		}
		if w.Icon == nil || strings.TrimSpace(*w.Icon) == "" {
			return panel.Value{}, errors.New(errors.ErrCodeSchema, "%s: missing current_conditions_icon", key)
		}
		return panel.NewIcon(strings.TrimSpace(*w.Icon)), nil
	})
}

// NewOccupancy returns the adapter for the presence flag. Unrecognized
// flags are a valid Unknown value; only a missing key is a failure.
func NewOccupancy(r *Resolver, s statestore.Store, key string) Adapter {
	if key == "" {
		key = DefaultOccupancyKey
	}
	return NewFunc(r, panel.KeyOccupancy, func(ctx context.Context) (panel.Value, error) {
		raw, err := statestore.LookupString(ctx, s, key)
		if err != nil {
			return panel.Value{}, err
		}
		return panel.NewOccupancy(panel.ParseOccupancy(raw)), nil
	})
}
