package models

// InsightScoreRequest carries the qualitative-rating scoring input.
// Omitted readings are filled in from the latest environmental snapshot.
type InsightScoreRequest struct {
	SoilHealth        string `json:"soilHealth"`
	WaterAvailability string `json:"waterAvailability"`
	PestStatus        string `json:"pestStatus"`
	Fertilization     string `json:"fertilization"`

	TemperatureC    *float64 `json:"temperatureC,omitempty"`
	HumidityPct     *float64 `json:"humidityPct,omitempty"`
	VegetationIndex *float64 `json:"vegetationIndex,omitempty"`
	SoilMoisturePct *float64 `json:"soilMoisturePct,omitempty"`
}

// DetectionScoreRequest carries the kernel-inspection scoring input. When
// batchId is set, kernel counts are produced by the detector backend for
// that batch and the healthy/contaminated fields are ignored.
type DetectionScoreRequest struct {
	Healthy      uint   `json:"healthy"`
	Contaminated uint   `json:"contaminated"`
	BatchID      string `json:"batchId,omitempty"`

	TransportCondition string `json:"transportCondition"`
	StorageCondition   string `json:"storageCondition"`

	GrainMoisturePct *float64 `json:"grainMoisturePct,omitempty"`
	TemperatureC     *float64 `json:"temperatureC,omitempty"`
	HumidityPct      *float64 `json:"humidityPct,omitempty"`
}
