package weather

import (
	"context"
	"time"
)

// StaticProvider returns a fixed observation. It backs deployments without an
// API key and deterministic tests.
type StaticProvider struct {
	Observation Observation
}

// Name returns the provider name.
func (s *StaticProvider) Name() string {
	return "static"
}

// GetCurrentWeather returns the configured observation stamped with the
// requested coordinates.
func (s *StaticProvider) GetCurrentWeather(_ context.Context, lat, lon float64) (*Observation, error) {
	if err := ValidateCoordinates(lat, lon); err != nil {
		return nil, err
	}

	obs := s.Observation
	obs.Lat = lat
	obs.Lon = lon
	if obs.FetchedAt.IsZero() {
		obs.FetchedAt = time.Now()
	}
	return &obs, nil
}
