package vegetation

import (
	"context"
	"time"
)

// StaticProvider returns a fixed index reading. It backs deployments without
// an API key and deterministic tests.
type StaticProvider struct {
	Index Index
}

// Name returns the provider name.
func (s *StaticProvider) Name() string {
	return "static"
}

// GetIndex returns the configured reading stamped with the requested coordinates.
func (s *StaticProvider) GetIndex(_ context.Context, lat, lon float64) (*Index, error) {
	if err := ValidateCoordinates(lat, lon); err != nil {
		return nil, err
	}

	idx := s.Index
	idx.Lat = lat
	idx.Lon = lon
	if idx.FetchedAt.IsZero() {
		idx.FetchedAt = time.Now()
	}
	return &idx, nil
}
