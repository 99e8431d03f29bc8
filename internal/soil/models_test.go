package soil_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/grainguard/grainguard/internal/soil"
)

func TestMoisture_Condition(t *testing.T) {
	tests := []struct {
		name     string
		percent  float64
		expected soil.Condition
	}{
		{"parched", 5, soil.ConditionVeryDry},
		{"very dry - high", 19.9, soil.ConditionVeryDry},
		{"dry - boundary", 20, soil.ConditionDry},
		{"dry - high", 39.9, soil.ConditionDry},
		{"optimal - boundary", 40, soil.ConditionOptimal},
		{"optimal - high", 69.9, soil.ConditionOptimal},
		{"wet - boundary", 70, soil.ConditionWet},
		{"wet - high", 84.9, soil.ConditionWet},
		{"very wet - boundary", 85, soil.ConditionVeryWet},
		{"waterlogged", 95, soil.ConditionVeryWet},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &soil.Moisture{Percent: tt.percent}
			assert.Equal(t, tt.expected, m.Condition())
		})
	}
}

func TestValidateCoordinates(t *testing.T) {
	assert.NoError(t, soil.ValidateCoordinates(-0.3031, 36.08))
	assert.ErrorIs(t, soil.ValidateCoordinates(-91, 0), soil.ErrInvalidCoordinates)
	assert.ErrorIs(t, soil.ValidateCoordinates(0, 181), soil.ErrInvalidCoordinates)
}
