package panel

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestValueValidate(t *testing.T) {
	tests := []struct {
		name    string
		value   Value
		wantErr bool
	}{
		{"price", NewPrice(Price{Amount: 1, Currency: "$"}), false},
		{"temperature", NewTemperature(Temperature{Degrees: 70, Scale: Fahrenheit}), false},
		{"occupancy", NewOccupancy(Unknown), false},
		{"quote", NewQuote(Quote{Text: "hi"}), false},
		{"icon", NewIcon("clear-day"), false},

		{"empty", Value{}, true},
		{"empty quote", NewQuote(Quote{}), true},
		{"empty icon", NewIcon(""), true},
		{"kind mismatch", Value{Kind: KindPrice, Icon: &IconRef{Key: "x"}}, true},
		{"two payloads", Value{Kind: KindPrice, Price: &Price{}, Icon: &IconRef{Key: "x"}}, true},
		{"unknown kind", Value{Kind: "weird", Price: &Price{}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.value.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValueFreshnessNotPersisted(t *testing.T) {
	v := NewPrice(Price{Amount: 41000, Currency: "$", Asset: "BTC"}).WithFreshness(CachedFor(time.Minute))

	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var back Value
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back.Freshness.Cached {
		t.Error("freshness should not survive serialization")
	}
	if back.Price == nil || back.Price.Amount != 41000 {
		t.Errorf("price payload lost: %+v", back)
	}
}

func TestFreshness(t *testing.T) {
	if Live.Cached {
		t.Error("Live should not be cached")
	}
	if got := CachedFor(-time.Second); got.Age != 0 || !got.Cached {
		t.Errorf("CachedFor(negative) = %+v, want cached with zero age", got)
	}
	if got := CachedFor(90 * time.Second).String(); got != "cached(1m30s)" {
		t.Errorf("String() = %q", got)
	}
}

func TestOutcomeConstructors(t *testing.T) {
	v := NewTemperature(Temperature{Degrees: 50})

	ok := Ok(v.WithFreshness(CachedFor(time.Hour)))
	if ok.Status != StatusOK || ok.Value.Freshness.Cached || !ok.HasValue() {
		t.Errorf("Ok() = %+v, want live value", ok)
	}

	cause := errors.New("timeout")
	deg := Degraded(v.WithFreshness(CachedFor(time.Hour)), cause)
	if deg.Status != StatusDegraded || !deg.HasValue() || deg.Reason != "timeout" {
		t.Errorf("Degraded() = %+v", deg)
	}

	un := Unavailable(nil)
	if un.Status != StatusUnavailable || un.HasValue() || un.Reason != "unknown" {
		t.Errorf("Unavailable() = %+v", un)
	}
}

func TestValueString(t *testing.T) {
	if got := NewPrice(Price{Amount: 42000.5, Currency: "$"}).String(); got != "$42,000.50" {
		t.Errorf("String() = %q", got)
	}
	if got := (Value{Kind: KindPrice}).String(); got != "<invalid>" {
		t.Errorf("String() of empty price = %q", got)
	}
}
