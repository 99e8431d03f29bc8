// Package vegetation defines the satellite vegetation index (NDVI) signal.
package vegetation

import (
	"context"
	"errors"
	"time"
)

// Vegetation errors.
var (
	ErrProviderUnavailable = errors.New("vegetation provider unavailable")
	ErrNoDataForLocation   = errors.New("no vegetation data for location")
	ErrInvalidCoordinates  = errors.New("invalid coordinates")
)

// Index represents a normalized vegetation index reading for a location.
type Index struct {
	// Location coordinates
	Lat float64
	Lon float64

	// Value is the mean NDVI over the sampled area, normalized to [0, 1].
	Value float64

	// ObservedAt is the satellite acquisition time.
	ObservedAt time.Time

	// FetchedAt is when the reading was retrieved.
	FetchedAt time.Time
}

// Health categorizes crop health from the NDVI value.
type Health string

const (
	HealthPoor      Health = "POOR"      // < 0.3
	HealthFair      Health = "FAIR"      // 0.3 - 0.5
	HealthGood      Health = "GOOD"      // 0.5 - 0.7
	HealthExcellent Health = "EXCELLENT" // >= 0.7
)

// Health returns the health bucket for the index. Intervals are half-open;
// boundary values belong to the upper bucket.
func (i *Index) Health() Health {
	switch {
	case i.Value < 0.3:
		return HealthPoor
	case i.Value < 0.5:
		return HealthFair
	case i.Value < 0.7:
		return HealthGood
	default:
		return HealthExcellent
	}
}

// Provider defines the interface for vegetation index providers.
type Provider interface {
	// GetIndex fetches the latest vegetation index for a location.
	GetIndex(ctx context.Context, lat, lon float64) (*Index, error)

	// Name returns the provider name for logging.
	Name() string
}

// ValidateCoordinates checks if coordinates are within valid ranges.
func ValidateCoordinates(lat, lon float64) error {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return ErrInvalidCoordinates
	}
	return nil
}
