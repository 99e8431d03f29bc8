package location

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// ProviderConfig holds configuration for the location provider.
type ProviderConfig struct {
	// Source is the platform positioning capability (required).
	Source PositionSource

	// Logger for provider operations.
	Logger zerolog.Logger

	// Clock is the time source (default: real clock).
	Clock clockwork.Clock

	// CacheTTL is how long a fix stays fresh (default: 5 minutes).
	CacheTTL time.Duration

	// RequestTimeout is the hard limit for a position request (default: 10 seconds).
	RequestTimeout time.Duration
}

// Provider acquires geolocation fixes with a single-fix TTL cache.
type Provider struct {
	source         PositionSource
	logger         zerolog.Logger
	clock          clockwork.Clock
	cacheTTL       time.Duration
	requestTimeout time.Duration

	mu         sync.Mutex
	cached     Fix
	hasCached  bool
	permission PermissionState
}

// NewProvider creates a new location provider.
func NewProvider(cfg ProviderConfig) *Provider {
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 5 * time.Minute
	}

	requestTimeout := cfg.RequestTimeout
	if requestTimeout == 0 {
		requestTimeout = 10 * time.Second
	}

	return &Provider{
		source:         cfg.Source,
		logger:         cfg.Logger,
		clock:          clock,
		cacheTTL:       cacheTTL,
		requestTimeout: requestTimeout,
		permission:     PermissionUnknown,
	}
}

// RequestPermission queries the platform permission API and records the result.
// Returns ErrPermissionUnsupported if the platform exposes no permission API;
// the recorded state stays unknown in that case.
func (p *Provider) RequestPermission(ctx context.Context) (PermissionState, error) {
	if p.source == nil {
		return PermissionUnknown, ErrUnsupported
	}

	state, err := p.source.QueryPermission(ctx)
	if err != nil {
		if errors.Is(err, ErrPermissionUnsupported) {
			return PermissionUnknown, ErrPermissionUnsupported
		}
		return PermissionUnknown, err
	}

	p.mu.Lock()
	p.permission = state
	p.mu.Unlock()

	return state, nil
}

// PermissionStatus returns the last recorded permission state.
func (p *Provider) PermissionStatus() PermissionState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.permission
}

// CurrentFix returns the cached fix if it is younger than the cache TTL,
// otherwise performs a fresh position request.
func (p *Provider) CurrentFix(ctx context.Context) (Fix, error) {
	if p.source == nil {
		return Fix{}, ErrUnsupported
	}

	p.mu.Lock()
	if p.hasCached && p.cached.Age(p.clock.Now()) < p.cacheTTL {
		fix := p.cached
		p.mu.Unlock()
		return fix, nil
	}
	p.mu.Unlock()

	reqCtx, cancel := context.WithTimeout(ctx, p.requestTimeout)
	defer cancel()

	pos, err := p.source.CurrentPosition(reqCtx, PositionOptions{
		Timeout:    p.requestTimeout,
		MaximumAge: p.cacheTTL,
	})
	if err != nil {
		mapped := mapPositionError(err)
		p.logger.Warn().Err(err).Msg("position request failed")
		return Fix{}, mapped
	}

	accuracy := pos.AccuracyMeters
	if accuracy < 0 {
		accuracy = 0
	}

	fix := Fix{
		Lat:            pos.Lat,
		Lon:            pos.Lon,
		AccuracyMeters: accuracy,
		CapturedAt:     p.clock.Now(),
	}

	p.mu.Lock()
	p.cached = fix
	p.hasCached = true
	p.mu.Unlock()

	p.logger.Debug().
		Float64("lat", fix.Lat).
		Float64("lon", fix.Lon).
		Float64("accuracy_m", fix.AccuracyMeters).
		Msg("acquired location fix")

	return fix, nil
}

// ClearCache drops the cached fix unconditionally.
func (p *Provider) ClearCache() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cached = Fix{}
	p.hasCached = false
}

// CacheStatus describes the current cache state.
type CacheStatus struct {
	HasFix     bool
	CapturedAt time.Time
	ExpiresAt  time.Time
	IsExpired  bool
}

// CacheStatus returns information about the cached fix.
func (p *Provider) CacheStatus() CacheStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.hasCached {
		return CacheStatus{}
	}

	expiresAt := p.cached.CapturedAt.Add(p.cacheTTL)
	return CacheStatus{
		HasFix:     true,
		CapturedAt: p.cached.CapturedAt,
		ExpiresAt:  expiresAt,
		IsExpired:  p.clock.Now().After(expiresAt),
	}
}

// mapPositionError converts platform errors to the package error taxonomy.
func mapPositionError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}

	var posErr *PositionError
	if errors.As(err, &posErr) {
		switch posErr.Code {
		case CodePermissionDenied:
			return ErrPermissionDenied
		case CodePositionUnavailable:
			return ErrPositionUnavailable
		case CodeTimeout:
			return ErrTimeout
		default:
			return ErrUnsupported
		}
	}

	// Already one of the package sentinels, or an unknown source error.
	switch {
	case errors.Is(err, ErrPermissionDenied),
		errors.Is(err, ErrPositionUnavailable),
		errors.Is(err, ErrTimeout),
		errors.Is(err, ErrUnsupported):
		return err
	}

	return ErrPositionUnavailable
}
