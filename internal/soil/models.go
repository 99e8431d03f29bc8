// Package soil defines the soil moisture signal.
package soil

import (
	"context"
	"errors"
	"time"
)

// Soil errors.
var (
	ErrProviderUnavailable = errors.New("soil provider unavailable")
	ErrNoDataForLocation   = errors.New("no soil data for location")
	ErrInvalidCoordinates  = errors.New("invalid coordinates")
)

// Moisture represents a soil moisture reading for a location.
type Moisture struct {
	// Location coordinates
	Lat float64
	Lon float64

	// Percent is volumetric soil moisture as a percentage (0-100).
	Percent float64

	// SurfaceTempC is the soil surface temperature in Celsius (0 if not reported).
	SurfaceTempC float64

	// ObservedAt is the measurement time.
	ObservedAt time.Time

	// FetchedAt is when the reading was retrieved.
	FetchedAt time.Time
}

// Condition categorizes soil moisture.
type Condition string

const (
	ConditionVeryDry Condition = "VERY_DRY" // < 20%
	ConditionDry     Condition = "DRY"      // 20 - 40%
	ConditionOptimal Condition = "OPTIMAL"  // 40 - 70%
	ConditionWet     Condition = "WET"      // 70 - 85%
	ConditionVeryWet Condition = "VERY_WET" // >= 85%
)

// Condition returns the moisture bucket. Intervals are half-open; boundary
// values belong to the upper bucket.
func (m *Moisture) Condition() Condition {
	switch {
	case m.Percent < 20:
		return ConditionVeryDry
	case m.Percent < 40:
		return ConditionDry
	case m.Percent < 70:
		return ConditionOptimal
	case m.Percent < 85:
		return ConditionWet
	default:
		return ConditionVeryWet
	}
}

// Provider defines the interface for soil moisture providers.
type Provider interface {
	// GetMoisture fetches the latest soil moisture for a location.
	GetMoisture(ctx context.Context, lat, lon float64) (*Moisture, error)

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
