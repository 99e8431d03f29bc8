package fusion

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/grainguard/grainguard/internal/featureflags"
	"github.com/grainguard/grainguard/internal/location"
	"github.com/grainguard/grainguard/internal/soil"
	"github.com/grainguard/grainguard/internal/vegetation"
	"github.com/grainguard/grainguard/internal/weather"
)

const (
	// DefaultSignalTimeout bounds each individual signal fetch.
	DefaultSignalTimeout = 15 * time.Second

	// DefaultMaxRetries is the retry budget per fetch session.
	DefaultMaxRetries = 3
)

// OrchestratorConfig holds configuration for the orchestrator.
type OrchestratorConfig struct {
	// Location provides cached geolocation fixes (required).
	Location *location.Provider

	// Weather, Vegetation and Soil are the signal providers. Any of them
	// may be nil; the corresponding signal then settles as failed.
	Weather    weather.Provider
	Vegetation vegetation.Provider
	Soil       soil.Provider

	// Flags gates individual signals at runtime (optional).
	Flags *featureflags.Service

	// Logger for orchestration events.
	Logger zerolog.Logger

	// Clock is the time source (optional, defaults to the real clock).
	Clock clockwork.Clock

	// SignalTimeout bounds each signal fetch (default: 15s).
	SignalTimeout time.Duration

	// MaxRetries is the retry budget per fetch session (default: 3).
	MaxRetries int
}

// Orchestrator runs fetch cycles and holds the latest snapshot. Concurrent
// Fetch calls are coalesced into a single in-flight cycle.
type Orchestrator struct {
	loc           *location.Provider
	weather       weather.Provider
	vegetation    vegetation.Provider
	soil          soil.Provider
	flags         *featureflags.Service
	logger        zerolog.Logger
	clock         clockwork.Clock
	signalTimeout time.Duration
	maxRetries    int

	group singleflight.Group

	mu         sync.RWMutex
	state      State
	snapshot   *Snapshot
	retryCount int
	lastErr    error
}

// NewOrchestrator creates a new orchestrator.
func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	signalTimeout := cfg.SignalTimeout
	if signalTimeout == 0 {
		signalTimeout = DefaultSignalTimeout
	}

	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = DefaultMaxRetries
	}

	return &Orchestrator{
		loc:           cfg.Location,
		weather:       cfg.Weather,
		vegetation:    cfg.Vegetation,
		soil:          cfg.Soil,
		flags:         cfg.Flags,
		logger:        cfg.Logger,
		clock:         clock,
		signalTimeout: signalTimeout,
		maxRetries:    maxRetries,
		state:         StateIdle,
	}
}

// Fetch runs one collection cycle: permission check, location fix, then all
// signals concurrently. Individual signal failures are recorded in the
// snapshot, not returned; only a missing location fails the cycle.
// Concurrent callers share a single in-flight cycle.
func (o *Orchestrator) Fetch(ctx context.Context) (*Snapshot, error) {
	v, err, _ := o.group.Do("fetch", func() (interface{}, error) {
		return o.fetch(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

func (o *Orchestrator) fetch(ctx context.Context) (*Snapshot, error) {
	o.setState(StateFetching)

	perm, err := o.loc.RequestPermission(ctx)
	if err != nil && !errors.Is(err, location.ErrPermissionUnsupported) {
		o.logger.Warn().Err(err).Msg("permission query failed, attempting fix anyway")
	}
	if perm == location.PermissionDenied {
		o.failTotal(location.ErrPermissionDenied, false)
		return nil, location.ErrPermissionDenied
	}

	fix, err := o.loc.CurrentFix(ctx)
	if err != nil {
		o.failTotal(err, true)
		return nil, err
	}

	snap := &Snapshot{
		Location:   fix,
		FetchedAt:  o.clock.Now(),
		RetryCount: o.RetryCount(),
	}
	prev := o.Snapshot()

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		if o.flags.IsCachedOnlyWeather(ctx) {
			if prev != nil && prev.Weather.OK() {
				snap.Weather = prev.Weather
			} else {
				snap.Weather = Fail[*weather.Observation](ErrSignalDisabled)
			}
			return
		}
		snap.Weather = fetchSignal(ctx, o, "weather", true, func(ctx context.Context) (*weather.Observation, error) {
			if o.weather == nil {
				return nil, ErrNoProvider
			}
			return o.weather.GetCurrentWeather(ctx, fix.Lat, fix.Lon)
		})
	}()
	go func() {
		defer wg.Done()
		snap.Vegetation = fetchSignal(ctx, o, "vegetation", !o.flags.IsVegetationSignalDisabled(ctx), func(ctx context.Context) (*vegetation.Index, error) {
			if o.vegetation == nil {
				return nil, ErrNoProvider
			}
			return o.vegetation.GetIndex(ctx, fix.Lat, fix.Lon)
		})
	}()
	go func() {
		defer wg.Done()
		snap.Soil = fetchSignal(ctx, o, "soil", !o.flags.IsSoilSignalDisabled(ctx), func(ctx context.Context) (*soil.Moisture, error) {
			if o.soil == nil {
				return nil, ErrNoProvider
			}
			return o.soil.GetMoisture(ctx, fix.Lat, fix.Lon)
		})
	}()
	wg.Wait()

	o.mu.Lock()
	o.state = StateComplete
	o.retryCount = 0
	o.snapshot = snap
	o.lastErr = nil
	o.mu.Unlock()

	o.logger.Info().
		Int("signals", snap.SignalCount()).
		Bool("degraded", snap.Degraded()).
		Msg("fetch cycle complete")

	return snap, nil
}

// fetchSignal settles one signal: disabled signals and provider panics both
// become failed signals so a misbehaving provider never aborts the cycle.
func fetchSignal[T any](ctx context.Context, o *Orchestrator, name string, enabled bool, fn func(context.Context) (T, error)) (sig Signal[T]) {
	if !enabled {
		return Fail[T](ErrSignalDisabled)
	}

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("signal provider panic: %v", r)
			o.logger.Error().Str("signal", name).Msg(err.Error())
			sig = Fail[T](err)
		}
	}()

	fetchCtx, cancel := context.WithTimeout(ctx, o.signalTimeout)
	defer cancel()

	value, err := fn(fetchCtx)
	if err != nil {
		o.logger.Warn().Err(err).Str("signal", name).Msg("signal fetch failed")
		return Fail[T](err)
	}
	return Ok(value)
}

func (o *Orchestrator) failTotal(err error, countRetry bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.state = StateTotalFailure
	o.lastErr = err
	if countRetry {
		o.retryCount++
	}

	o.logger.Warn().
		Err(err).
		Int("retry_count", o.retryCount).
		Msg("fetch cycle failed")
}

// Retry re-runs the fetch cycle while the retry budget allows. Once the
// budget is exhausted it returns ErrRetryLimitReached without fetching.
func (o *Orchestrator) Retry(ctx context.Context) (*Snapshot, error) {
	if !o.CanRetry() {
		return nil, ErrRetryLimitReached
	}
	return o.Fetch(ctx)
}

// CanRetry reports whether the retry budget allows another attempt.
func (o *Orchestrator) CanRetry() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.retryCount < o.maxRetries
}

// Refresh clears the location cache and runs a fresh fetch cycle.
func (o *Orchestrator) Refresh(ctx context.Context) (*Snapshot, error) {
	o.loc.ClearCache()
	return o.Fetch(ctx)
}

// State returns the current orchestrator state.
func (o *Orchestrator) State() State {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

// Snapshot returns a copy of the latest complete snapshot, or nil. The
// orchestrator owns the snapshot; mutating the copy has no effect on it.
func (o *Orchestrator) Snapshot() *Snapshot {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.snapshot == nil {
		return nil
	}
	cp := *o.snapshot
	return &cp
}

// RetryCount returns retries consumed in the current fetch session.
func (o *Orchestrator) RetryCount() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.retryCount
}

// LastError returns the error from the last failed cycle, or nil.
func (o *Orchestrator) LastError() error {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.lastErr
}

// HasData reports whether the latest snapshot can back an assessment.
func (o *Orchestrator) HasData() bool {
	return o.Snapshot().HasData()
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}
