// Package fusion orchestrates one environmental data collection cycle: a
// cached location fix followed by concurrent retrieval of the weather,
// vegetation and soil signals, tolerating partial failure.
package fusion

import (
	"errors"
	"time"

	"github.com/grainguard/grainguard/internal/location"
	"github.com/grainguard/grainguard/internal/soil"
	"github.com/grainguard/grainguard/internal/vegetation"
	"github.com/grainguard/grainguard/internal/weather"
)

var (
	// ErrRetryLimitReached is returned when retry is invoked after the
	// retry budget is exhausted.
	ErrRetryLimitReached = errors.New("retry limit reached")

	// ErrSignalDisabled marks a signal excluded by a feature flag.
	ErrSignalDisabled = errors.New("signal disabled")

	// ErrNoProvider marks a signal with no configured provider.
	ErrNoProvider = errors.New("no provider configured")
)

// State describes where the orchestrator is in its fetch cycle.
type State string

// Orchestrator states.
const (
	// StateIdle means no fetch has been attempted yet.
	StateIdle State = "idle"

	// StateFetching means a fetch cycle is in flight.
	StateFetching State = "fetching"

	// StateComplete means the last cycle obtained a location fix. Individual
	// signals may still have failed; consult the snapshot.
	StateComplete State = "complete"

	// StatePartialFailure classifies a complete snapshot in which one or
	// more signals failed. The fetch cycle itself never stops here; it is
	// derived for callers that present degraded data differently.
	StatePartialFailure State = "partial_failure"

	// StateTotalFailure means the last cycle could not obtain a location
	// fix, so no signals were fetched.
	StateTotalFailure State = "total_failure"
)

// Signal is the settled outcome of one independent environmental fetch.
// It is either fully present or failed, never partially populated.
type Signal[T any] struct {
	Value T
	Err   error
}

// Ok wraps a successfully fetched value.
func Ok[T any](value T) Signal[T] {
	return Signal[T]{Value: value}
}

// Fail wraps a fetch failure.
func Fail[T any](err error) Signal[T] {
	return Signal[T]{Err: err}
}

// OK reports whether the signal settled successfully.
func (s Signal[T]) OK() bool {
	return s.Err == nil
}

// Snapshot is the aggregated, possibly partial result of one fetch cycle.
type Snapshot struct {
	Location   location.Fix
	Weather    Signal[*weather.Observation]
	Vegetation Signal[*vegetation.Index]
	Soil       Signal[*soil.Moisture]
	FetchedAt  time.Time

	// RetryCount is the number of retries the fetch session consumed
	// before this snapshot settled.
	RetryCount int
}

// HasData reports whether the snapshot can back a best-effort assessment:
// a location fix plus at least one settled signal.
func (s *Snapshot) HasData() bool {
	if s == nil || s.Location.IsZero() {
		return false
	}
	return s.Weather.OK() || s.Vegetation.OK() || s.Soil.OK()
}

// Degraded reports whether any signal failed in an otherwise complete
// snapshot.
func (s *Snapshot) Degraded() bool {
	if s == nil {
		return false
	}
	return !s.Weather.OK() || !s.Vegetation.OK() || !s.Soil.OK()
}

// SignalCount returns the number of successfully settled signals.
func (s *Snapshot) SignalCount() int {
	if s == nil {
		return 0
	}
	n := 0
	if s.Weather.OK() {
		n++
	}
	if s.Vegetation.OK() {
		n++
	}
	if s.Soil.OK() {
		n++
	}
	return n
}
