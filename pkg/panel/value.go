// Package panel defines the values shown on the status panel.
//
// A [Value] is a tagged union over the data kinds the panel can display.
// Exactly one payload pointer is set and [Value.Kind] names it. Values are
// produced by source adapters, persisted by the value cache and consumed by
// the layout policy. They are per-run data: nothing in this package is shared
// between runs except through the cache.
//
// Formatting follows a single fixed convention regardless of host locale:
//
//	FormatPrice(Price{Amount: 42000.5, Currency: "$"})  // "$42,000.50"
//	FormatTemperature(Temperature{Degrees: -12})        // "-12°"
package panel

import (
	"fmt"
	"time"
)

// Key identifies a data source. Each key has exactly one cache entry and one
// anchor on the panel.
type Key string

// Source keys known to the layout policy.
const (
	KeyPrice      Key = "price"
	KeyOutdoor    Key = "outdoor"
	KeyConditions Key = "conditions"
	KeyIndoor     Key = "indoor"
	KeyOccupancy  Key = "occupancy"
	KeyQuote      Key = "quote"
)

// Keys lists every source key in panel order.
var Keys = []Key{KeyPrice, KeyQuote, KeyOutdoor, KeyIndoor, KeyConditions, KeyOccupancy}

// Kind names the payload carried by a Value.
type Kind string

// Value kinds.
const (
	KindPrice       Kind = "price"
	KindTemperature Kind = "temperature"
	KindOccupancy   Kind = "occupancy"
	KindQuote       Kind = "quote"
	KindIcon        Kind = "icon"
)

// Price is a spot price of an asset.
type Price struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"` // display symbol, e.g. "$"
	Asset    string  `json:"asset"`    // display label, e.g. "BTC"
}

// Scale is a temperature unit.
type Scale string

// Temperature scales.
const (
	Fahrenheit Scale = "F"
	Celsius    Scale = "C"
)

// Temperature is a whole-degree reading.
type Temperature struct {
	Degrees int   `json:"degrees"`
	Scale   Scale `json:"scale"`
}

// OccupancyState is the tri-state presence flag.
type OccupancyState string

// Occupancy states. Anything that is not Inside or Outside is Unknown.
const (
	Inside  OccupancyState = "inside"
	Outside OccupancyState = "outside"
	Unknown OccupancyState = "unknown"
)

// Occupancy reports whether the tracked subject is inside or outside.
type Occupancy struct {
	State OccupancyState `json:"state"`
}

// Quote is a free-form text with attribution.
type Quote struct {
	Text   string `json:"text"`
	Author string `json:"author,omitempty"`
}

// IconRef names an icon asset, e.g. a weather condition.
type IconRef struct {
	Key string `json:"key"`
}

// Freshness tells whether a value was just fetched or served from cache.
// The zero value is Live.
type Freshness struct {
	Cached bool          `json:"-"`
	Age    time.Duration `json:"-"`
}

// Live is the freshness of a value obtained from its source in this run.
var Live = Freshness{}

// CachedFor returns the freshness of a value read back from the cache.
func CachedFor(age time.Duration) Freshness {
	if age < 0 {
		age = 0
	}
	return Freshness{Cached: true, Age: age}
}

// String describes the freshness for logs.
func (f Freshness) String() string {
	if !f.Cached {
		return "live"
	}
	return fmt.Sprintf("cached(%s)", f.Age.Round(time.Second))
}

// Value is the tagged union of displayable data. Freshness is never persisted.
type Value struct {
	Kind        Kind         `json:"kind"`
	Price       *Price       `json:"price,omitempty"`
	Temperature *Temperature `json:"temperature,omitempty"`
	Occupancy   *Occupancy   `json:"occupancy,omitempty"`
	Quote       *Quote       `json:"quote,omitempty"`
	Icon        *IconRef     `json:"icon,omitempty"`

	Freshness Freshness `json:"-"`
}

// NewPrice returns a live price value.
func NewPrice(p Price) Value { return Value{Kind: KindPrice, Price: &p} }

// NewTemperature returns a live temperature value.
func NewTemperature(t Temperature) Value { return Value{Kind: KindTemperature, Temperature: &t} }

// NewOccupancy returns a live occupancy value.
func NewOccupancy(state OccupancyState) Value {
	return Value{Kind: KindOccupancy, Occupancy: &Occupancy{State: state}}
}

// NewQuote returns a live quote value.
func NewQuote(q Quote) Value { return Value{Kind: KindQuote, Quote: &q} }

// NewIcon returns a live icon reference.
func NewIcon(key string) Value { return Value{Kind: KindIcon, Icon: &IconRef{Key: key}} }

// WithFreshness returns a copy of v carrying f.
func (v Value) WithFreshness(f Freshness) Value {
	v.Freshness = f
	return v
}

// Validate checks that exactly the payload named by Kind is set.
func (v Value) Validate() error {
	set := 0
	for _, ok := range []bool{v.Price != nil, v.Temperature != nil, v.Occupancy != nil, v.Quote != nil, v.Icon != nil} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("value of kind %q has %d payloads, want 1", v.Kind, set)
	}

	var ok bool
	switch v.Kind {
	case KindPrice:
		ok = v.Price != nil
	case KindTemperature:
		ok = v.Temperature != nil
	case KindOccupancy:
		ok = v.Occupancy != nil
	case KindQuote:
		ok = v.Quote != nil && v.Quote.Text != ""
	case KindIcon:
		ok = v.Icon != nil && v.Icon.Key != ""
	default:
		return fmt.Errorf("unknown value kind %q", v.Kind)
	}
	if !ok {
		return fmt.Errorf("value of kind %q has no valid payload", v.Kind)
	}
	return nil
}

// String renders the value with the panel's formatting policy.
func (v Value) String() string {
	switch v.Kind {
	case KindPrice:
		if v.Price != nil {
			return FormatPrice(*v.Price)
		}
	case KindTemperature:
		if v.Temperature != nil {
			return FormatTemperature(*v.Temperature)
		}
	case KindOccupancy:
		if v.Occupancy != nil {
			return string(v.Occupancy.State)
		}
	case KindQuote:
		if v.Quote != nil {
			return v.Quote.Text
		}
	case KindIcon:
		if v.Icon != nil {
			return v.Icon.Key
		}
	}
	return "<invalid>"
}
