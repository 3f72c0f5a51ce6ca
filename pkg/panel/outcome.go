package panel

// Status is the resolution of a single source fetch.
type Status int

// Fetch statuses.
const (
	StatusOK          Status = iota // live value
	StatusDegraded                  // cached value after a failed live fetch
	StatusUnavailable               // no live value and no cache entry
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusDegraded:
		return "degraded"
	case StatusUnavailable:
		return "unavailable"
	default:
		return "invalid"
	}
}

// Outcome is the result of one adapter invocation.
//
// Value is meaningful for StatusOK and StatusDegraded. Reason and Err explain
// why a live fetch failed; they are empty for StatusOK.
type Outcome struct {
	Status Status
	Value  Value
	Reason string
	Err    error
}

// Ok wraps a live value.
func Ok(v Value) Outcome {
	return Outcome{Status: StatusOK, Value: v.WithFreshness(Live)}
}

// Degraded wraps a cached value served after the live fetch failed with err.
func Degraded(v Value, err error) Outcome {
	return Outcome{Status: StatusDegraded, Value: v, Reason: reason(err), Err: err}
}

// Unavailable reports that neither a live nor a cached value exists.
func Unavailable(err error) Outcome {
	return Outcome{Status: StatusUnavailable, Reason: reason(err), Err: err}
}

// HasValue reports whether the outcome carries a displayable value.
func (o Outcome) HasValue() bool {
	return o.Status == StatusOK || o.Status == StatusDegraded
}

func reason(err error) string {
	if err == nil {
		return "unknown"
	}
	return err.Error()
}
