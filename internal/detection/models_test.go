package detection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCounts_InfectionRatio(t *testing.T) {
	tests := []struct {
		name   string
		counts Counts
		want   float64
	}{
		{
			name:   "all healthy",
			counts: Counts{Healthy: 100, Contaminated: 0},
			want:   0,
		},
		{
			name:   "all contaminated",
			counts: Counts{Healthy: 0, Contaminated: 50},
			want:   1,
		},
		{
			name:   "mixed",
			counts: Counts{Healthy: 75, Contaminated: 25},
			want:   0.25,
		},
		{
			name:   "empty inspection",
			counts: Counts{},
			want:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.counts.InfectionRatio(), 1e-9)
		})
	}
}

func TestCounts_Total(t *testing.T) {
	assert.Equal(t, uint(0), Counts{}.Total())
	assert.Equal(t, uint(130), Counts{Healthy: 100, Contaminated: 30}.Total())
}
