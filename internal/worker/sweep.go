package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/grainguard/grainguard/internal/featureflags"
	"github.com/grainguard/grainguard/internal/soil"
	"github.com/grainguard/grainguard/internal/vegetation"
	"github.com/grainguard/grainguard/internal/weather"
)

// SweepJob walks the configured sites and pulls a fresh reading for every
// enabled signal. Successful fetches land in the provider caches and the
// Prometheus reading gauges.
type SweepJob struct {
	config SweepConfig
	logger zerolog.Logger

	// Providers (optional, nil if not configured)
	weatherProvider    weather.Provider
	vegetationProvider vegetation.Provider
	soilProvider       soil.Provider

	flags *featureflags.Service
	prom  *SweepMetrics

	stats *SweepStats
}

// SweepStats tracks cumulative sweep job statistics.
type SweepStats struct {
	mu sync.RWMutex

	// Counters
	TotalSweeps      int64
	SuccessfulPoints int64
	FailedPoints     int64
	SkippedSweeps    int64
	WeatherFetches   int64
	VegetationFetch  int64
	SoilFetches      int64

	// Timings
	LastSweepAt       time.Time
	LastSweepDuration time.Duration
	TotalDuration     time.Duration
}

// SweepJobConfig holds configuration for creating a SweepJob.
type SweepJobConfig struct {
	Config     SweepConfig
	Logger     zerolog.Logger
	Weather    weather.Provider
	Vegetation vegetation.Provider
	Soil       soil.Provider
	Flags      *featureflags.Service
	Metrics    *SweepMetrics
}

// NewSweepJob creates a new sweep job processor.
func NewSweepJob(cfg SweepJobConfig) *SweepJob {
	config := cfg.Config
	if len(config.Sites) == 0 {
		config = DefaultSweepConfig()
	}

	return &SweepJob{
		config:             config,
		logger:             cfg.Logger,
		weatherProvider:    cfg.Weather,
		vegetationProvider: cfg.Vegetation,
		soilProvider:       cfg.Soil,
		flags:              cfg.Flags,
		prom:               cfg.Metrics,
		stats:              &SweepStats{},
	}
}

// SweepResult contains the outcome of a single sweep run.
type SweepResult struct {
	StartTime   time.Time
	EndTime     time.Time
	Duration    time.Duration
	TotalPoints int
	Successful  int
	Failed      int
	Skipped     bool
	Errors      []SweepError
}

// SweepError records a failed signal fetch during a sweep.
type SweepError struct {
	Signal string
	Site   string
	Point  Point
	Error  string
}

type sitePoint struct {
	site  string
	point Point
}

type pointResult struct {
	success bool
	errors  []SweepError
}

// Run executes the sweep for all configured sites. The disable_site_sweep
// flag short-circuits the run so operators can quiet the upstream APIs
// without redeploying.
func (j *SweepJob) Run(ctx context.Context) *SweepResult {
	startTime := time.Now()
	result := &SweepResult{
		StartTime:   startTime,
		TotalPoints: j.config.TotalPoints(),
	}

	if j.flags.IsSiteSweepDisabled(ctx) {
		j.logger.Info().Msg("site sweep disabled by feature flag, skipping run")
		result.Skipped = true
		result.EndTime = time.Now()
		result.Duration = result.EndTime.Sub(startTime)

		j.stats.mu.Lock()
		j.stats.SkippedSweeps++
		j.stats.mu.Unlock()
		return result
	}

	j.logger.Info().
		Int("total_points", result.TotalPoints).
		Int("concurrency", j.config.Concurrency).
		Msg("starting site sweep")

	points := j.sitePoints()
	pointsChan := make(chan sitePoint, len(points))
	resultsChan := make(chan pointResult, len(points))

	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.sweepWorker(ctx, pointsChan, resultsChan)
		}()
	}

	for _, p := range points {
		pointsChan <- p
	}
	close(pointsChan)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	for pr := range resultsChan {
		if pr.success {
			result.Successful++
		} else {
			result.Failed++
		}
		result.Errors = append(result.Errors, pr.errors...)
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)

	j.updateStats(result)
	j.prom.RecordRun(result.Successful, result.Failed, result.Duration.Seconds())

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Msg("site sweep completed")

	return result
}

func (j *SweepJob) sitePoints() []sitePoint {
	var points []sitePoint
	for _, site := range j.config.Sites {
		for _, p := range site.Points {
			points = append(points, sitePoint{site: site.Name, point: p})
		}
	}
	return points
}

func (j *SweepJob) sweepWorker(ctx context.Context, points <-chan sitePoint, results chan<- pointResult) {
	for sp := range points {
		select {
		case <-ctx.Done():
			return
		default:
			results <- j.sweepPoint(ctx, sp)
		}
	}
}

func (j *SweepJob) sweepPoint(ctx context.Context, sp sitePoint) pointResult {
	result := pointResult{success: true}

	pointCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	if j.config.SweepWeather && j.weatherProvider != nil {
		obs, err := j.weatherProvider.GetCurrentWeather(pointCtx, sp.point.Lat, sp.point.Lon)
		if err != nil {
			result.errors = append(result.errors, SweepError{
				Signal: "weather",
				Site:   sp.site,
				Point:  sp.point,
				Error:  err.Error(),
			})
			result.success = false
			j.prom.RecordSignalFailure("weather")
		} else {
			j.prom.RecordWeather(sp.site, obs.Temperature, obs.Humidity)
			atomic.AddInt64(&j.stats.WeatherFetches, 1)
		}
	}

	if j.config.SweepVegetation && j.vegetationProvider != nil && !j.flags.IsVegetationSignalDisabled(pointCtx) {
		idx, err := j.vegetationProvider.GetIndex(pointCtx, sp.point.Lat, sp.point.Lon)
		if err != nil {
			result.errors = append(result.errors, SweepError{
				Signal: "vegetation",
				Site:   sp.site,
				Point:  sp.point,
				Error:  err.Error(),
			})
			result.success = false
			j.prom.RecordSignalFailure("vegetation")
		} else {
			j.prom.RecordVegetation(sp.site, idx.Value)
			atomic.AddInt64(&j.stats.VegetationFetch, 1)
		}
	}

	if j.config.SweepSoil && j.soilProvider != nil && !j.flags.IsSoilSignalDisabled(pointCtx) {
		m, err := j.soilProvider.GetMoisture(pointCtx, sp.point.Lat, sp.point.Lon)
		if err != nil {
			result.errors = append(result.errors, SweepError{
				Signal: "soil",
				Site:   sp.site,
				Point:  sp.point,
				Error:  err.Error(),
			})
			result.success = false
			j.prom.RecordSignalFailure("soil")
		} else {
			j.prom.RecordSoil(sp.site, m.Percent)
			atomic.AddInt64(&j.stats.SoilFetches, 1)
		}
	}

	return result
}

func (j *SweepJob) updateStats(result *SweepResult) {
	j.stats.mu.Lock()
	defer j.stats.mu.Unlock()

	j.stats.TotalSweeps++
	j.stats.SuccessfulPoints += int64(result.Successful)
	j.stats.FailedPoints += int64(result.Failed)
	j.stats.LastSweepAt = result.EndTime
	j.stats.LastSweepDuration = result.Duration
	j.stats.TotalDuration += result.Duration
}

// GetStats returns a copy of the cumulative sweep statistics.
func (j *SweepJob) GetStats() SweepStats {
	j.stats.mu.RLock()
	defer j.stats.mu.RUnlock()

	return SweepStats{
		TotalSweeps:       j.stats.TotalSweeps,
		SuccessfulPoints:  j.stats.SuccessfulPoints,
		FailedPoints:      j.stats.FailedPoints,
		SkippedSweeps:     j.stats.SkippedSweeps,
		WeatherFetches:    atomic.LoadInt64(&j.stats.WeatherFetches),
		VegetationFetch:   atomic.LoadInt64(&j.stats.VegetationFetch),
		SoilFetches:       atomic.LoadInt64(&j.stats.SoilFetches),
		LastSweepAt:       j.stats.LastSweepAt,
		LastSweepDuration: j.stats.LastSweepDuration,
		TotalDuration:     j.stats.TotalDuration,
	}
}

// StatsSnapshot returns the cumulative statistics as a map for readiness
// and status endpoints.
func (j *SweepJob) StatsSnapshot() map[string]interface{} {
	s := j.GetStats()
	return map[string]interface{}{
		"total_sweeps":        s.TotalSweeps,
		"successful_points":   s.SuccessfulPoints,
		"failed_points":       s.FailedPoints,
		"skipped_sweeps":      s.SkippedSweeps,
		"weather_fetches":     s.WeatherFetches,
		"vegetation_fetches":  s.VegetationFetch,
		"soil_fetches":        s.SoilFetches,
		"last_sweep_at":       s.LastSweepAt,
		"last_sweep_duration": s.LastSweepDuration.String(),
		"total_duration":      s.TotalDuration.String(),
	}
}
