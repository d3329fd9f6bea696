package sim

import (
	"errors"
	"fmt"
)

// Tolerances used when checking simulation postconditions.
const (
	BoundsTolerance  = 0.1 // storage bounds, deficit and spillage sign, flow conservation
	BalanceTolerance = 1.0 // per-interval energy balance
)

// ErrSeriesLength is returned when an injected series does not match the window.
var ErrSeriesLength = errors.New("series length does not match simulation window")

// InvariantError reports a violated postcondition. It always indicates a
// programming error (bad topology, allocation factors or recurrence), never an
// infeasible candidate, so callers must not turn it into a penalty silently.
type InvariantError struct {
	Invariant string  // e.g. "storage bounds"
	Interval  int     // absolute interval index
	Magnitude float64 // size of the violation
	Detail    string
}

func (e *InvariantError) Error() string {
	msg := fmt.Sprintf("invariant %q violated at interval %d (magnitude %g)", e.Invariant, e.Interval, e.Magnitude)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// IsInvariant reports whether err wraps an *InvariantError.
func IsInvariant(err error) bool {
	var ie *InvariantError
	return errors.As(err, &ie)
}
