package soil

import (
	"context"
	"time"
)

// StaticProvider returns a fixed moisture reading. It backs deployments
// without an API key and deterministic tests.
type StaticProvider struct {
	Moisture Moisture
}

// Name returns the provider name.
func (s *StaticProvider) Name() string {
	return "static"
}

// GetMoisture returns the configured reading stamped with the requested coordinates.
func (s *StaticProvider) GetMoisture(_ context.Context, lat, lon float64) (*Moisture, error) {
	if err := ValidateCoordinates(lat, lon); err != nil {
		return nil, err
	}

	m := s.Moisture
	m.Lat = lat
	m.Lon = lon
	if m.FetchedAt.IsZero() {
		m.FetchedAt = time.Now()
	}
	return &m, nil
}
