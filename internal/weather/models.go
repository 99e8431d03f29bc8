// Package weather defines the weather signal consumed by risk assessment.
package weather

import (
	"context"
	"errors"
	"time"
)

// Weather errors.
var (
	ErrProviderUnavailable = errors.New("weather provider unavailable")
	ErrInvalidCoordinates  = errors.New("invalid coordinates")
)

// Observation represents current weather at a point.
type Observation struct {
	// Location coordinates
	Lat float64
	Lon float64

	// Temperature in Celsius
	Temperature float64

	// Humidity percentage (0-100)
	Humidity float64

	// Rainfall over the last hour in mm (0 if not reported)
	RainfallMM float64

	// Weather condition
	Condition   Condition
	Description string

	// Timestamps
	ObservedAt time.Time
	FetchedAt  time.Time
}

// Condition represents the general weather condition.
type Condition string

const (
	ConditionClear        Condition = "CLEAR"
	ConditionClouds       Condition = "CLOUDS"
	ConditionRain         Condition = "RAIN"
	ConditionDrizzle      Condition = "DRIZZLE"
	ConditionThunderstorm Condition = "THUNDERSTORM"
	ConditionMist         Condition = "MIST"
	ConditionHaze         Condition = "HAZE"
	ConditionUnknown      Condition = "UNKNOWN"
)

// MoldRisk categorizes how favorable the observed conditions are for mold
// and aflatoxin development in drying or stored grain.
type MoldRisk string

const (
	MoldRiskLow      MoldRisk = "LOW"      // cool and dry
	MoldRiskElevated MoldRisk = "ELEVATED" // warm or humid
	MoldRiskHigh     MoldRisk = "HIGH"     // warm and humid
)

// GetMoldRisk returns the mold risk category for the observation.
func (o *Observation) GetMoldRisk() MoldRisk {
	warm := o.Temperature > 30
	humid := o.Humidity > 80

	switch {
	case warm && humid:
		return MoldRiskHigh
	case warm || humid:
		return MoldRiskElevated
	default:
		return MoldRiskLow
	}
}

// Provider defines the interface for weather data providers.
type Provider interface {
	// GetCurrentWeather fetches current weather for a location.
	GetCurrentWeather(ctx context.Context, lat, lon float64) (*Observation, error)

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
