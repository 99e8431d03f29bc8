package risk

import (
	"fmt"
)

// Recommendation rules are independent and additive: baseline guidance for
// the risk level comes first, then condition-specific additions, then
// universal reminders. A rule that fires is never suppressed and duplicates
// across rules are kept.

func baselineRecommendations(level Level) []string {
	switch level {
	case LevelCritical:
		return []string{
			"Do not sell or consume this batch until retested",
			"Dry grain immediately to below 13% moisture",
			"Move grain into hermetic storage to stop further fungal growth",
		}
	case LevelHigh:
		return []string{
			"Dry grain immediately to below 13% moisture",
			"Sort and remove visibly moldy or discolored kernels",
			"Consider applying a registered biocontrol product before the next season",
		}
	case LevelModerate:
		return []string{
			"Increase inspection frequency for this batch",
			"Verify storage ventilation and drainage",
		}
	default:
		return []string{
			"Continue routine monitoring",
		}
	}
}

func universalReminders() []string {
	return []string{
		"Store grain off the ground on pallets or platforms",
		"Keep detailed records of drying and storage conditions",
	}
}

// RecommendQualitative generates recommendations for an insight-mode result.
func RecommendQualitative(result Result, in QualitativeInput, t Thresholds) []string {
	recs := baselineRecommendations(result.Level)

	if in.SoilHealth == RatingPoor {
		recs = append(recs, "Improve soil health with compost or well-decomposed manure")
	}
	if in.WaterAvailability == RatingPoor {
		recs = append(recs, "Mulch fields to retain soil moisture and plan supplemental irrigation")
	}
	if in.PestStatus == RatingPoor {
		recs = append(recs, "Scout for pest damage and treat insect entry points, which open kernels to infection")
	}
	if in.Fertilization == RatingPoor {
		recs = append(recs, "Apply balanced fertilizer; nutrient-stressed crops are more susceptible to aflatoxin")
	}

	if in.HumidityPct != nil && *in.HumidityPct > t.HighHumidity {
		recs = append(recs, "Ventilate storage during the driest part of the day to lower humidity")
	}
	if in.TemperatureC != nil && *in.TemperatureC > t.HighTemperature {
		recs = append(recs, "Shade stored grain and avoid mid-day handling in high heat")
	}
	if in.SoilMoisturePct != nil && *in.SoilMoisturePct < t.LowSoilMoisture {
		recs = append(recs, "Irrigate to relieve drought stress, which predisposes maize to Aspergillus infection")
	}

	return append(recs, universalReminders()...)
}

// RecommendDetection generates recommendations for a detection-mode result.
func RecommendDetection(result Result, in DetectionInput) []string {
	recs := baselineRecommendations(result.Level)

	if in.InfectionRatio() > 0 {
		recs = append(recs, "Separate contaminated kernels from the batch before storage")
	}
	if CategoryQuality(in.TransportCondition) < 0.5 {
		recs = append(recs, "Cover grain during transport to protect it from moisture and dust")
	}
	if CategoryQuality(in.StorageCondition) < 0.5 {
		recs = append(recs, "Move grain out of open-air storage into a dry, sealed store")
	}
	if in.GrainMoisturePct != nil && *in.GrainMoisturePct > 13 {
		recs = append(recs, fmt.Sprintf("Grain moisture is %.1f%%; dry to below 13%% before storage", *in.GrainMoisturePct))
	}

	return append(recs, universalReminders()...)
}

// AssessQualitative scores insight-mode input and attaches recommendations.
func (e *Engine) AssessQualitative(in QualitativeInput) Result {
	result := e.ScoreQualitative(in)
	result.Recommendations = RecommendQualitative(result, in, e.thresholds)
	return result
}

// AssessDetection scores detection-mode input and attaches recommendations.
func (e *Engine) AssessDetection(in DetectionInput) Result {
	result := e.ScoreDetection(in)
	result.Recommendations = RecommendDetection(result, in)
	return result
}
