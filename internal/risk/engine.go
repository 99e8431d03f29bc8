package risk

import (
	"fmt"
)

// categoryQuality maps transport and storage condition categories to a
// quality value: 1.0 protects the grain, 0.5 is neutral, 0.0 exposes it.
// Unrecognized categories score as neutral rather than failing.
var categoryQuality = map[string]float64{
	"excellent":            1.0,
	"sealed-container":     1.0,
	"refrigerated-truck":   1.0,
	"hermetic-silo":        1.0,
	"dry-warehouse":        1.0,
	"cold-storage":         1.0,
	"average":              0.5,
	"covered-truck":        0.5,
	"ventilated-warehouse": 0.5,
	"poor":                 0.0,
	"open-truck":           0.0,
	"open-air":             0.0,
	"ground-pile":          0.0,
}

const defaultCategoryQuality = 0.5

// EngineConfig holds configuration for the scoring engine.
type EngineConfig struct {
	// Weights for detection-mode scoring (default: DefaultWeights).
	Weights *Weights

	// Thresholds for the tunable scoring constants (default:
	// DefaultThresholds).
	Thresholds *Thresholds
}

// Engine is a deterministic risk scorer. Identical inputs always produce
// identical output; timestamps and randomness stay outside.
type Engine struct {
	weights    Weights
	thresholds Thresholds
}

// NewEngine creates a scoring engine, validating the weights up front.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	weights := DefaultWeights()
	if cfg.Weights != nil {
		weights = *cfg.Weights
	}
	if err := weights.Validate(); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}

	thresholds := DefaultThresholds()
	if cfg.Thresholds != nil {
		thresholds = *cfg.Thresholds
	}

	return &Engine{
		weights:    weights,
		thresholds: thresholds,
	}, nil
}

// ScoreQualitative scores insight-mode input: summed rating points scaled by
// the qualitative weight, plus flat additions for adverse environmental
// readings.
func (e *Engine) ScoreQualitative(in QualitativeInput) Result {
	t := e.thresholds

	var factors []string
	points := 0.0
	for _, r := range []struct {
		name   string
		rating Rating
	}{
		{"soil health", in.SoilHealth},
		{"water availability", in.WaterAvailability},
		{"pest status", in.PestStatus},
		{"fertilization", in.Fertilization},
	} {
		p := e.ratingPoints(r.rating)
		points += p
		if p > 0 {
			factors = append(factors, fmt.Sprintf("%s rated %s", r.name, r.rating))
		}
	}

	score := points * t.QualitativeWeight

	if in.HumidityPct != nil && *in.HumidityPct > t.HighHumidity {
		score += 15
		factors = append(factors, "High humidity increases aflatoxin risk")
	}
	if in.TemperatureC != nil && *in.TemperatureC > t.HighTemperature {
		score += 10
		factors = append(factors, "High temperatures favor mold growth")
	}
	if in.VegetationIndex != nil && *in.VegetationIndex < t.LowVegetation {
		score += 15
		factors = append(factors, "Low vegetation health indicates stress")
	}
	if in.SoilMoisturePct != nil && *in.SoilMoisturePct < t.LowSoilMoisture {
		score += 10
		factors = append(factors, "Low soil moisture causes plant stress")
	}

	score = clamp100(score)

	return Result{
		Score:               score,
		Level:               classifyQualitative(score),
		ContributingFactors: factors,
	}
}

func (e *Engine) ratingPoints(r Rating) float64 {
	switch r {
	case RatingPoor:
		return e.thresholds.PoorPoints
	case RatingAverage:
		return e.thresholds.AveragePoints
	case RatingExcellent:
		return e.thresholds.ExcellentPoints
	default:
		return e.thresholds.ExcellentPoints
	}
}

// ScoreDetection scores detection-mode input: a weighted composite of the
// infection ratio, handling-condition quality and an environmental factor.
func (e *Engine) ScoreDetection(in DetectionInput) Result {
	w := e.weights

	infection := in.InfectionRatio()
	transport := CategoryQuality(in.TransportCondition)
	storage := CategoryQuality(in.StorageCondition)
	envFactor, envPresent := environmentFactor(in)

	composite := w.Infection*infection +
		w.Transport*(1-transport) +
		w.Storage*(1-storage)
	if envPresent {
		composite += w.Environment * envFactor
	}

	score := round2(clamp100(100 * composite))

	var factors []string
	if infection > 0 {
		factors = append(factors, fmt.Sprintf("Infection ratio %.0f%% from kernel inspection", infection*100))
	}
	if transport < 1 {
		factors = append(factors, fmt.Sprintf("Transport condition %q exposes grain", displayCategory(in.TransportCondition)))
	}
	if storage < 1 {
		factors = append(factors, fmt.Sprintf("Storage condition %q exposes grain", displayCategory(in.StorageCondition)))
	}
	if envPresent && envFactor > 0 {
		factors = append(factors, "Environmental conditions favor fungal growth")
	}

	return Result{
		Score:               score,
		Level:               classifyDetection(score),
		ContributingFactors: factors,
	}
}

// CategoryQuality maps a condition category to its quality value.
// Unrecognized categories are neutral.
func CategoryQuality(category string) float64 {
	if q, ok := categoryQuality[category]; ok {
		return q
	}
	return defaultCategoryQuality
}

func displayCategory(category string) string {
	if _, ok := categoryQuality[category]; ok {
		return category
	}
	return "unknown"
}

// environmentFactor is the mean of the normalized sub-factors for the
// readings that are present. Absent readings are excluded from the mean,
// not treated as zero. The second return is false when no reading is
// present at all.
func environmentFactor(in DetectionInput) (float64, bool) {
	var sum float64
	var n int

	if in.GrainMoisturePct != nil {
		sum += clamp01((*in.GrainMoisturePct - 13) / 20)
		n++
	}
	if in.TemperatureC != nil {
		sum += clamp01((*in.TemperatureC - 25) / 20)
		n++
	}
	if in.HumidityPct != nil {
		sum += clamp01((*in.HumidityPct - 70) / 30)
		n++
	}

	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// classifyQualitative buckets an insight-mode score.
func classifyQualitative(score float64) Level {
	switch {
	case score < 20:
		return LevelLow
	case score < 40:
		return LevelModerate
	case score < 70:
		return LevelHigh
	default:
		return LevelCritical
	}
}

// classifyDetection buckets a detection-mode score. The score must already
// be rounded; classification applies to the reported value.
func classifyDetection(score float64) Level {
	switch {
	case score >= 75:
		return LevelCritical
	case score >= 50:
		return LevelHigh
	case score >= 25:
		return LevelModerate
	default:
		return LevelLow
	}
}
