package weather_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/grainguard/grainguard/internal/weather"
)

func TestObservation_GetMoldRisk(t *testing.T) {
	tests := []struct {
		name        string
		temperature float64
		humidity    float64
		expected    weather.MoldRisk
	}{
		{"cool and dry", 22, 55, weather.MoldRiskLow},
		{"boundary - both at threshold", 30, 80, weather.MoldRiskLow},
		{"warm only", 30.1, 55, weather.MoldRiskElevated},
		{"humid only", 22, 80.1, weather.MoldRiskElevated},
		{"warm and humid", 32, 88, weather.MoldRiskHigh},
		{"just above both thresholds", 30.1, 80.1, weather.MoldRiskHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := &weather.Observation{Temperature: tt.temperature, Humidity: tt.humidity}
			assert.Equal(t, tt.expected, obs.GetMoldRisk())
		})
	}
}

func TestValidateCoordinates(t *testing.T) {
	tests := []struct {
		name    string
		lat     float64
		lon     float64
		wantErr bool
	}{
		{"kitale", 1.0157, 35.0062, false},
		{"equator boundary", 0, 0, false},
		{"extreme valid", -90, 180, false},
		{"lat too high", 90.1, 0, true},
		{"lat too low", -90.1, 0, true},
		{"lon too high", 0, 180.1, true},
		{"lon too low", 0, -180.1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := weather.ValidateCoordinates(tt.lat, tt.lon)
			if tt.wantErr {
				assert.ErrorIs(t, err, weather.ErrInvalidCoordinates)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
