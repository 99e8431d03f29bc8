// Package featureflags provides feature flag management for runtime configuration.
package featureflags

import (
	"time"
)

// Well-known feature flag keys.
const (
	// FlagDisableVegetationSignal excludes the vegetation index from
	// environmental snapshots.
	FlagDisableVegetationSignal = "disable_vegetation_signal"

	// FlagDisableSoilSignal excludes soil moisture from environmental
	// snapshots.
	FlagDisableSoilSignal = "disable_soil_signal"

	// FlagCachedOnlyWeather forces weather lookups to use cache only.
	FlagCachedOnlyWeather = "cached_only_weather"

	// FlagDisableSiteSweep pauses the background monitoring sweep.
	FlagDisableSiteSweep = "disable_site_sweep"
)

// Flag represents a feature flag with its current value.
type Flag struct {
	Key       string      `json:"key"`
	Value     interface{} `json:"value"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// FlagList represents a list of feature flags.
type FlagList struct {
	Items []Flag `json:"items"`
}

// FlagUpdate represents a single flag update request.
type FlagUpdate struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

// FlagUpdateRequest represents a request to update feature flags.
type FlagUpdateRequest struct {
	Updates []FlagUpdate `json:"updates"`
	Reason  string       `json:"reason"`
}

// BoolValue returns the flag value as a boolean.
// Returns the default value if the flag is nil or not a boolean.
func (f *Flag) BoolValue(defaultValue bool) bool {
	if f == nil {
		return defaultValue
	}
	switch v := f.Value.(type) {
	case bool:
		return v
	case float64:
		// JSON unmarshals numbers as float64
		return v != 0
	default:
		return defaultValue
	}
}

// Float64Value returns the flag value as a float64.
// Returns the default value if the flag is nil or not a number.
func (f *Flag) Float64Value(defaultValue float64) float64 {
	if f == nil {
		return defaultValue
	}
	switch v := f.Value.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return defaultValue
	}
}

// DefaultFlags returns the default feature flags for the application.
func DefaultFlags() map[string]*Flag {
	now := time.Now()
	return map[string]*Flag{
		FlagDisableVegetationSignal: {
			Key:       FlagDisableVegetationSignal,
			Value:     false,
			UpdatedAt: now,
		},
		FlagDisableSoilSignal: {
			Key:       FlagDisableSoilSignal,
			Value:     false,
			UpdatedAt: now,
		},
		FlagCachedOnlyWeather: {
			Key:       FlagCachedOnlyWeather,
			Value:     false,
			UpdatedAt: now,
		},
		FlagDisableSiteSweep: {
			Key:       FlagDisableSiteSweep,
			Value:     false,
			UpdatedAt: now,
		},
	}
}
