package vegetation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/grainguard/grainguard/internal/vegetation"
)

func TestIndex_Health(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		expected vegetation.Health
	}{
		{"bare ground", 0.05, vegetation.HealthPoor},
		{"poor - high", 0.29, vegetation.HealthPoor},
		{"fair - boundary", 0.3, vegetation.HealthFair},
		{"fair - high", 0.49, vegetation.HealthFair},
		{"good - boundary", 0.5, vegetation.HealthGood},
		{"good - high", 0.69, vegetation.HealthGood},
		{"excellent - boundary", 0.7, vegetation.HealthExcellent},
		{"dense canopy", 0.92, vegetation.HealthExcellent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := &vegetation.Index{Value: tt.value}
			assert.Equal(t, tt.expected, idx.Health())
		})
	}
}

func TestValidateCoordinates(t *testing.T) {
	assert.NoError(t, vegetation.ValidateCoordinates(0.5143, 35.2698))
	assert.ErrorIs(t, vegetation.ValidateCoordinates(91, 0), vegetation.ErrInvalidCoordinates)
	assert.ErrorIs(t, vegetation.ValidateCoordinates(0, -181), vegetation.ErrInvalidCoordinates)
}
