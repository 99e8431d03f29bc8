package fusion

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grainguard/grainguard/internal/featureflags"
	"github.com/grainguard/grainguard/internal/location"
	"github.com/grainguard/grainguard/internal/soil"
	"github.com/grainguard/grainguard/internal/vegetation"
	"github.com/grainguard/grainguard/internal/weather"
)

type fakeSource struct {
	mu       sync.Mutex
	calls    int
	perm     location.PermissionState
	permErr  error
	position location.Position
	posErr   error
}

func (s *fakeSource) CurrentPosition(ctx context.Context, opts location.PositionOptions) (location.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.posErr != nil {
		return location.Position{}, s.posErr
	}
	return s.position, nil
}

func (s *fakeSource) QueryPermission(ctx context.Context) (location.PermissionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.permErr != nil {
		return location.PermissionUnknown, s.permErr
	}
	return s.perm, nil
}

func (s *fakeSource) positionCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type mockWeather struct {
	obs *weather.Observation
	err error
}

func (m *mockWeather) GetCurrentWeather(ctx context.Context, lat, lon float64) (*weather.Observation, error) {
	return m.obs, m.err
}

func (m *mockWeather) Name() string { return "mock" }

type mockVegetation struct {
	idx *vegetation.Index
	err error
}

func (m *mockVegetation) GetIndex(ctx context.Context, lat, lon float64) (*vegetation.Index, error) {
	return m.idx, m.err
}

func (m *mockVegetation) Name() string { return "mock" }

type mockSoil struct {
	moist *soil.Moisture
	err   error
	delay time.Duration
	panic bool
}

func (m *mockSoil) GetMoisture(ctx context.Context, lat, lon float64) (*soil.Moisture, error) {
	if m.panic {
		panic("soil provider exploded")
	}
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return m.moist, m.err
}

func (m *mockSoil) Name() string { return "mock" }

type harness struct {
	source     *fakeSource
	weather    *mockWeather
	vegetation *mockVegetation
	soil       *mockSoil
	flags      *featureflags.Service
	timeout    time.Duration
}

func newHarness() *harness {
	return &harness{
		source: &fakeSource{
			perm:     location.PermissionGranted,
			position: location.Position{Lat: -1.2921, Lon: 36.8219, AccuracyMeters: 12},
		},
		weather:    &mockWeather{obs: &weather.Observation{Temperature: 24, Humidity: 60}},
		vegetation: &mockVegetation{idx: &vegetation.Index{Value: 0.62}},
		soil:       &mockSoil{moist: &soil.Moisture{Percent: 45}},
	}
}

func (h *harness) orchestrator(t *testing.T) *Orchestrator {
	t.Helper()

	loc := location.NewProvider(location.ProviderConfig{
		Source: h.source,
		Logger: zerolog.Nop(),
		Clock:  clockwork.NewRealClock(),
	})

	return NewOrchestrator(OrchestratorConfig{
		Location:      loc,
		Weather:       h.weather,
		Vegetation:    h.vegetation,
		Soil:          h.soil,
		Flags:         h.flags,
		Logger:        zerolog.Nop(),
		SignalTimeout: h.timeout,
	})
}

func TestOrchestrator_FetchComplete(t *testing.T) {
	h := newHarness()
	o := h.orchestrator(t)

	assert.Equal(t, StateIdle, o.State())

	snap, err := o.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StateComplete, o.State())
	assert.Equal(t, -1.2921, snap.Location.Lat)
	assert.Equal(t, 3, snap.SignalCount())
	assert.False(t, snap.Degraded())
	assert.True(t, snap.HasData())
	assert.Equal(t, 0, o.RetryCount())
}

func TestOrchestrator_PartialSignalFailureStillComplete(t *testing.T) {
	h := newHarness()
	h.weather.obs = nil
	h.weather.err = weather.ErrProviderUnavailable
	o := h.orchestrator(t)

	snap, err := o.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StateComplete, o.State())
	assert.False(t, snap.Weather.OK())
	assert.ErrorIs(t, snap.Weather.Err, weather.ErrProviderUnavailable)
	assert.True(t, snap.Vegetation.OK())
	assert.True(t, snap.Degraded())
	assert.True(t, snap.HasData())
}

func TestOrchestrator_AllSignalsFailedStillComplete(t *testing.T) {
	h := newHarness()
	h.weather.err = weather.ErrProviderUnavailable
	h.weather.obs = nil
	h.vegetation.err = vegetation.ErrProviderUnavailable
	h.vegetation.idx = nil
	h.soil.err = soil.ErrProviderUnavailable
	h.soil.moist = nil
	o := h.orchestrator(t)

	snap, err := o.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StateComplete, o.State())
	assert.Equal(t, 0, snap.SignalCount())
	assert.False(t, snap.HasData())
}

func TestOrchestrator_PermissionDenied(t *testing.T) {
	h := newHarness()
	h.source.perm = location.PermissionDenied
	o := h.orchestrator(t)

	snap, err := o.Fetch(context.Background())
	assert.Nil(t, snap)
	assert.ErrorIs(t, err, location.ErrPermissionDenied)
	assert.Equal(t, StateTotalFailure, o.State())

	// A denial is not a retryable fault and must not consume the budget.
	assert.Equal(t, 0, o.RetryCount())
	assert.True(t, o.CanRetry())
	assert.Equal(t, 0, h.source.positionCalls())
}

func TestOrchestrator_LocationFailureConsumesRetryBudget(t *testing.T) {
	h := newHarness()
	h.source.posErr = &location.PositionError{Code: location.CodePositionUnavailable, Message: "no fix"}
	o := h.orchestrator(t)

	_, err := o.Fetch(context.Background())
	assert.ErrorIs(t, err, location.ErrPositionUnavailable)
	assert.Equal(t, StateTotalFailure, o.State())
	assert.Equal(t, 1, o.RetryCount())

	for i := 0; i < 2; i++ {
		_, err = o.Retry(context.Background())
		assert.ErrorIs(t, err, location.ErrPositionUnavailable)
	}
	assert.Equal(t, 3, o.RetryCount())
	assert.False(t, o.CanRetry())

	// Budget exhausted: retry becomes a no-op.
	calls := h.source.positionCalls()
	_, err = o.Retry(context.Background())
	assert.ErrorIs(t, err, ErrRetryLimitReached)
	assert.Equal(t, calls, h.source.positionCalls())
}

func TestOrchestrator_RetrySuccessResetsBudget(t *testing.T) {
	h := newHarness()
	h.source.posErr = &location.PositionError{Code: location.CodeTimeout, Message: "timed out"}
	o := h.orchestrator(t)

	_, err := o.Fetch(context.Background())
	assert.ErrorIs(t, err, location.ErrTimeout)
	assert.Equal(t, 1, o.RetryCount())

	h.source.mu.Lock()
	h.source.posErr = nil
	h.source.mu.Unlock()

	snap, err := o.Retry(context.Background())
	require.NoError(t, err)
	assert.True(t, snap.HasData())
	assert.Equal(t, 0, o.RetryCount())
	assert.True(t, o.CanRetry())

	// The snapshot keeps the retries the session consumed even though the
	// live counter has reset.
	assert.Equal(t, 1, snap.RetryCount)
	assert.Equal(t, 1, o.Snapshot().RetryCount)
}

func TestOrchestrator_FirstTrySnapshotHasNoRetries(t *testing.T) {
	h := newHarness()
	o := h.orchestrator(t)

	snap, err := o.Fetch(context.Background())
	require.NoError(t, err)
	assert.Zero(t, snap.RetryCount)
}

func TestOrchestrator_SnapshotIsACopy(t *testing.T) {
	h := newHarness()
	o := h.orchestrator(t)

	_, err := o.Fetch(context.Background())
	require.NoError(t, err)

	got := o.Snapshot()
	require.NotNil(t, got)
	got.Location.Lat = 99
	got.Weather = Fail[*weather.Observation](ErrNoProvider)

	kept := o.Snapshot()
	assert.Equal(t, -1.2921, kept.Location.Lat)
	assert.True(t, kept.Weather.OK())
}

func TestOrchestrator_SlowSignalDoesNotBlockOthers(t *testing.T) {
	h := newHarness()
	h.soil.delay = 500 * time.Millisecond
	h.timeout = 50 * time.Millisecond
	o := h.orchestrator(t)

	snap, err := o.Fetch(context.Background())
	require.NoError(t, err)

	assert.True(t, snap.Weather.OK())
	assert.True(t, snap.Vegetation.OK())
	assert.False(t, snap.Soil.OK())
	assert.ErrorIs(t, snap.Soil.Err, context.DeadlineExceeded)
}

func TestOrchestrator_ProviderPanicBecomesFailedSignal(t *testing.T) {
	h := newHarness()
	h.soil.panic = true
	o := h.orchestrator(t)

	snap, err := o.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StateComplete, o.State())
	assert.False(t, snap.Soil.OK())
	assert.Contains(t, snap.Soil.Err.Error(), "panic")
	assert.True(t, snap.Weather.OK())
}

func TestOrchestrator_VegetationFlagDisablesSignal(t *testing.T) {
	h := newHarness()
	h.flags = featureflags.NewService(featureflags.ServiceConfig{
		Repository: featureflags.NewInMemoryRepositoryWithFlags(map[string]*featureflags.Flag{
			featureflags.FlagDisableVegetationSignal: {
				Key:   featureflags.FlagDisableVegetationSignal,
				Value: true,
			},
		}),
		Logger: zerolog.Nop(),
	})
	o := h.orchestrator(t)

	snap, err := o.Fetch(context.Background())
	require.NoError(t, err)

	assert.ErrorIs(t, snap.Vegetation.Err, ErrSignalDisabled)
	assert.True(t, snap.Weather.OK())
	assert.True(t, snap.Soil.OK())
}

func TestOrchestrator_RefreshClearsLocationCache(t *testing.T) {
	h := newHarness()
	o := h.orchestrator(t)

	_, err := o.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, h.source.positionCalls())

	// A second fetch hits the location cache.
	_, err = o.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, h.source.positionCalls())

	// Refresh forces a new fix.
	_, err = o.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, h.source.positionCalls())
}

func TestSignal_Constructors(t *testing.T) {
	ok := Ok(&weather.Observation{Temperature: 20})
	assert.True(t, ok.OK())
	assert.Equal(t, 20.0, ok.Value.Temperature)

	failed := Fail[*weather.Observation](errors.New("boom"))
	assert.False(t, failed.OK())
	assert.Nil(t, failed.Value)
}
