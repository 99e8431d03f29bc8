package worker_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grainguard/grainguard/internal/featureflags"
	"github.com/grainguard/grainguard/internal/soil"
	"github.com/grainguard/grainguard/internal/vegetation"
	"github.com/grainguard/grainguard/internal/weather"
	"github.com/grainguard/grainguard/internal/worker"
)

type countingWeather struct {
	calls int64
	err   error
}

func (p *countingWeather) Name() string { return "counting" }

func (p *countingWeather) GetCurrentWeather(_ context.Context, lat, lon float64) (*weather.Observation, error) {
	atomic.AddInt64(&p.calls, 1)
	if p.err != nil {
		return nil, p.err
	}
	return &weather.Observation{Lat: lat, Lon: lon, Temperature: 24, Humidity: 60}, nil
}

func flagService(t *testing.T, flags map[string]bool) *featureflags.Service {
	t.Helper()

	seeded := make(map[string]*featureflags.Flag, len(flags))
	for key, enabled := range flags {
		seeded[key] = &featureflags.Flag{Key: key, Value: enabled}
	}
	return featureflags.NewService(featureflags.ServiceConfig{
		Repository: featureflags.NewInMemoryRepositoryWithFlags(seeded),
		Logger:     zerolog.Nop(),
	})
}

func singleSiteConfig() worker.SweepConfig {
	return worker.SweepConfig{
		Sites: []worker.SiteTarget{
			{
				Name:   "Kitale",
				County: "Trans Nzoia",
				Points: []worker.Point{{Lat: 1.0157, Lon: 35.0062}},
			},
		},
		Concurrency:     1,
		Timeout:         time.Second,
		SweepWeather:    true,
		SweepVegetation: true,
		SweepSoil:       true,
	}
}

func TestDefaultSweepConfig(t *testing.T) {
	cfg := worker.DefaultSweepConfig()

	assert.Equal(t, 3, cfg.Concurrency)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.True(t, cfg.SweepWeather)
	assert.True(t, cfg.SweepVegetation)
	assert.True(t, cfg.SweepSoil)
	assert.NotEmpty(t, cfg.Sites)
}

func TestDefaultSweepSites(t *testing.T) {
	sites := worker.DefaultSweepSites()

	assert.GreaterOrEqual(t, len(sites), 5)

	var kitale *worker.SiteTarget
	for i := range sites {
		if sites[i].Name == "Kitale" {
			kitale = &sites[i]
			break
		}
	}
	require.NotNil(t, kitale, "Kitale should be in the default sites")
	assert.Equal(t, 1, kitale.Priority)
	assert.Equal(t, "Trans Nzoia", kitale.County)
	assert.GreaterOrEqual(t, len(kitale.Points), 2)
}

func TestSweepConfig_AllPoints(t *testing.T) {
	cfg := worker.SweepConfig{
		Sites: []worker.SiteTarget{
			{Name: "A", Points: []worker.Point{{Lat: 1, Lon: 1}, {Lat: 2, Lon: 2}}},
			{Name: "B", Points: []worker.Point{{Lat: 3, Lon: 3}}},
		},
	}

	assert.Len(t, cfg.AllPoints(), 3)
	assert.Equal(t, 3, cfg.TotalPoints())
}

func TestSweepJob_Run_AllSignals(t *testing.T) {
	weatherProvider := &countingWeather{}
	job := worker.NewSweepJob(worker.SweepJobConfig{
		Config:     singleSiteConfig(),
		Logger:     zerolog.Nop(),
		Weather:    weatherProvider,
		Vegetation: &vegetation.StaticProvider{Index: vegetation.Index{Value: 0.55}},
		Soil:       &soil.StaticProvider{Moisture: soil.Moisture{Percent: 42}},
		Flags:      flagService(t, nil),
	})

	result := job.Run(context.Background())

	assert.False(t, result.Skipped)
	assert.Equal(t, 1, result.TotalPoints)
	assert.Equal(t, 1, result.Successful)
	assert.Zero(t, result.Failed)
	assert.Empty(t, result.Errors)
	assert.Equal(t, int64(1), atomic.LoadInt64(&weatherProvider.calls))

	stats := job.GetStats()
	assert.Equal(t, int64(1), stats.TotalSweeps)
	assert.Equal(t, int64(1), stats.WeatherFetches)
	assert.Equal(t, int64(1), stats.VegetationFetch)
	assert.Equal(t, int64(1), stats.SoilFetches)
}

func TestSweepJob_Run_NoProviders(t *testing.T) {
	job := worker.NewSweepJob(worker.SweepJobConfig{
		Config: singleSiteConfig(),
		Logger: zerolog.Nop(),
	})

	result := job.Run(context.Background())

	assert.Equal(t, 1, result.TotalPoints)
	assert.Equal(t, 1, result.Successful)
	assert.Greater(t, result.Duration, time.Duration(0))
}

func TestSweepJob_Run_ProviderFailureCollected(t *testing.T) {
	job := worker.NewSweepJob(worker.SweepJobConfig{
		Config:  singleSiteConfig(),
		Logger:  zerolog.Nop(),
		Weather: &countingWeather{err: errors.New("upstream unreachable")},
		Soil:    &soil.StaticProvider{Moisture: soil.Moisture{Percent: 42}},
	})

	result := job.Run(context.Background())

	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "weather", result.Errors[0].Signal)
	assert.Equal(t, "Kitale", result.Errors[0].Site)
	assert.Contains(t, result.Errors[0].Error, "upstream unreachable")
}

func TestSweepJob_Run_DisabledByFlag(t *testing.T) {
	weatherProvider := &countingWeather{}
	job := worker.NewSweepJob(worker.SweepJobConfig{
		Config:  singleSiteConfig(),
		Logger:  zerolog.Nop(),
		Weather: weatherProvider,
		Flags:   flagService(t, map[string]bool{featureflags.FlagDisableSiteSweep: true}),
	})

	result := job.Run(context.Background())

	assert.True(t, result.Skipped)
	assert.Zero(t, result.Successful)
	assert.Zero(t, atomic.LoadInt64(&weatherProvider.calls))
	assert.Equal(t, int64(1), job.GetStats().SkippedSweeps)
}

func TestSweepJob_Run_SignalFlagsSkipProviders(t *testing.T) {
	job := worker.NewSweepJob(worker.SweepJobConfig{
		Config:     singleSiteConfig(),
		Logger:     zerolog.Nop(),
		Vegetation: &vegetation.StaticProvider{Index: vegetation.Index{Value: 0.55}},
		Soil:       &soil.StaticProvider{Moisture: soil.Moisture{Percent: 42}},
		Flags: flagService(t, map[string]bool{
			featureflags.FlagDisableVegetationSignal: true,
			featureflags.FlagDisableSoilSignal:       true,
		}),
	})

	result := job.Run(context.Background())

	assert.Equal(t, 1, result.Successful)
	stats := job.GetStats()
	assert.Zero(t, stats.VegetationFetch)
	assert.Zero(t, stats.SoilFetches)
}

func TestSweepJob_Run_WithConcurrency(t *testing.T) {
	points := make([]worker.Point, 10)
	for i := range points {
		points[i] = worker.Point{Lat: 0.5 + float64(i)*0.1, Lon: 35.0 + float64(i)*0.1}
	}

	job := worker.NewSweepJob(worker.SweepJobConfig{
		Config: worker.SweepConfig{
			Sites:        []worker.SiteTarget{{Name: "Belt", Points: points}},
			Concurrency:  3,
			Timeout:      time.Second,
			SweepWeather: true,
		},
		Logger:  zerolog.Nop(),
		Weather: &countingWeather{},
	})

	result := job.Run(context.Background())

	assert.Equal(t, 10, result.TotalPoints)
	assert.Equal(t, 10, result.Successful)
}

func TestSweepJob_Run_ContextCancellation(t *testing.T) {
	points := make([]worker.Point, 100)
	for i := range points {
		points[i] = worker.Point{Lat: 0.5 + float64(i)*0.01, Lon: 35.0 + float64(i)*0.01}
	}

	job := worker.NewSweepJob(worker.SweepJobConfig{
		Config: worker.SweepConfig{
			Sites:       []worker.SiteTarget{{Name: "Belt", Points: points}},
			Concurrency: 1,
			Timeout:     100 * time.Millisecond,
		},
		Logger: zerolog.Nop(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := job.Run(ctx)
	assert.NotNil(t, result)
}

func TestSweepJob_StatsSnapshot(t *testing.T) {
	job := worker.NewSweepJob(worker.SweepJobConfig{
		Config: singleSiteConfig(),
		Logger: zerolog.Nop(),
	})

	_ = job.Run(context.Background())

	snapshot := job.StatsSnapshot()
	assert.Contains(t, snapshot, "total_sweeps")
	assert.Contains(t, snapshot, "successful_points")
	assert.Contains(t, snapshot, "failed_points")
	assert.Contains(t, snapshot, "last_sweep_at")
	assert.Contains(t, snapshot, "last_sweep_duration")
}

func TestNewSweepJob_EmptyConfigUsesDefaults(t *testing.T) {
	job := worker.NewSweepJob(worker.SweepJobConfig{
		Logger: zerolog.Nop(),
	})

	stats := job.GetStats()
	assert.Equal(t, int64(0), stats.TotalSweeps)
}
