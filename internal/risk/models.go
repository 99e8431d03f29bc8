// Package risk turns operator ratings, kernel inspection counts and
// environmental readings into a deterministic 0-100 contamination risk score
// with a discrete level and generated recommendations.
package risk

import (
	"errors"
	"math"

	"github.com/grainguard/grainguard/internal/detection"
)

// ErrInvalidWeights is returned when scoring weights do not sum to 1.
// Misconfigured weights are a programmer error and fail fast rather than
// being silently normalized.
var ErrInvalidWeights = errors.New("scoring weights must sum to 1.0")

// weightEpsilon is the tolerance for the weight-sum check.
const weightEpsilon = 1e-6

// Rating is an operator-entered qualitative rating.
type Rating string

const (
	RatingExcellent Rating = "excellent"
	RatingAverage   Rating = "average"
	RatingPoor      Rating = "poor"
)

// Level is the discrete risk classification.
type Level string

const (
	LevelLow      Level = "Low"
	LevelModerate Level = "Moderate"
	LevelHigh     Level = "High"
	LevelCritical Level = "Critical"
)

// Result is the outcome of one scoring call. It is created fresh per call
// and never mutated afterward.
type Result struct {
	// Score is the composite risk score in [0, 100].
	Score float64 `json:"score"`

	// Level is the discrete classification of Score.
	Level Level `json:"level"`

	// ContributingFactors lists, in rule order, the notes for every factor
	// that added to the score.
	ContributingFactors []string `json:"contributingFactors"`

	// Recommendations lists suggested actions, baseline guidance first.
	Recommendations []string `json:"recommendations"`
}

// Weights distributes the detection-mode score across its components.
type Weights struct {
	Infection   float64 `json:"infection"`
	Transport   float64 `json:"transport"`
	Storage     float64 `json:"storage"`
	Environment float64 `json:"environment"`
}

// DefaultWeights returns the standard detection-mode weighting.
func DefaultWeights() Weights {
	return Weights{
		Infection:   0.55,
		Transport:   0.15,
		Storage:     0.15,
		Environment: 0.15,
	}
}

// Validate checks that the weights sum to 1 within a small epsilon.
func (w Weights) Validate() error {
	sum := w.Infection + w.Transport + w.Storage + w.Environment
	if math.Abs(sum-1.0) > weightEpsilon {
		return ErrInvalidWeights
	}
	return nil
}

// Thresholds holds the tunable scoring constants. The environmental cutoffs
// are hand-tuned rather than derived from a published model, so they are
// configuration instead of hard-coded values.
type Thresholds struct {
	// HighHumidity is the relative humidity (%) above which aflatoxin risk
	// points are added.
	HighHumidity float64

	// HighTemperature is the temperature (C) above which mold risk points
	// are added.
	HighTemperature float64

	// LowVegetation is the NDVI below which crop stress points are added.
	LowVegetation float64

	// LowSoilMoisture is the soil moisture (%) below which plant stress
	// points are added.
	LowSoilMoisture float64

	// QualitativeWeight scales the summed rating points.
	QualitativeWeight float64

	// PoorPoints, AveragePoints and ExcellentPoints are per-rating scores.
	PoorPoints      float64
	AveragePoints   float64
	ExcellentPoints float64
}

// DefaultThresholds returns the standard scoring constants.
func DefaultThresholds() Thresholds {
	return Thresholds{
		HighHumidity:      80,
		HighTemperature:   30,
		LowVegetation:     0.3,
		LowSoilMoisture:   30,
		QualitativeWeight: 0.4,
		PoorPoints:        25,
		AveragePoints:     10,
		ExcellentPoints:   0,
	}
}

// QualitativeInput is the insight-mode scoring input: four operator ratings
// plus whatever environmental readings are available. Nil readings are
// absent, not zero; absent readings contribute nothing.
type QualitativeInput struct {
	SoilHealth        Rating `json:"soilHealth"`
	WaterAvailability Rating `json:"waterAvailability"`
	PestStatus        Rating `json:"pestStatus"`
	Fertilization     Rating `json:"fertilization"`

	TemperatureC    *float64 `json:"temperatureC,omitempty"`
	HumidityPct     *float64 `json:"humidityPct,omitempty"`
	VegetationIndex *float64 `json:"vegetationIndex,omitempty"`
	SoilMoisturePct *float64 `json:"soilMoisturePct,omitempty"`
}

// DetectionInput is the detection-mode scoring input: kernel counts from an
// inspection pass plus handling conditions and optional readings.
type DetectionInput struct {
	detection.Counts

	// TransportCondition and StorageCondition are free-form category
	// strings; unrecognized values score as average quality.
	TransportCondition string `json:"transportCondition"`
	StorageCondition   string `json:"storageCondition"`

	GrainMoisturePct *float64 `json:"grainMoisturePct,omitempty"`
	TemperatureC     *float64 `json:"temperatureC,omitempty"`
	HumidityPct      *float64 `json:"humidityPct,omitempty"`
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

func clamp100(v float64) float64 {
	return math.Min(100, math.Max(0, v))
}

// round2 rounds to two decimal places. Detection-mode scores are rounded
// before classification so the level matches the reported score.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
