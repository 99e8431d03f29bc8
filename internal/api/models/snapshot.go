package models

import "time"

// SignalStatus values.
const (
	SignalStatusOK     = "ok"
	SignalStatusFailed = "failed"
)

// SignalResult is one settled signal: data when it succeeded, a reason when
// it failed. Never both.
type SignalResult struct {
	Status string      `json:"status"`
	Reason string      `json:"reason,omitempty"`
	Data   interface{} `json:"data,omitempty"`
}

// LocationFix is the snapshot's location element.
type LocationFix struct {
	Lat            float64   `json:"lat"`
	Lon            float64   `json:"lon"`
	AccuracyMeters float64   `json:"accuracyMeters"`
	CapturedAt     time.Time `json:"capturedAt"`
}

// WeatherReading is the weather signal payload.
type WeatherReading struct {
	TemperatureC float64   `json:"temperatureC"`
	HumidityPct  float64   `json:"humidityPct"`
	RainfallMM   float64   `json:"rainfallMm"`
	Condition    string    `json:"condition"`
	MoldRisk     string    `json:"moldRisk"`
	ObservedAt   time.Time `json:"observedAt"`
}

// VegetationReading is the vegetation signal payload.
type VegetationReading struct {
	NDVI       float64   `json:"ndvi"`
	Health     string    `json:"health"`
	ObservedAt time.Time `json:"observedAt"`
}

// SoilReading is the soil signal payload.
type SoilReading struct {
	MoisturePct  float64   `json:"moisturePct"`
	SurfaceTempC float64   `json:"surfaceTempC"`
	Condition    string    `json:"condition"`
	ObservedAt   time.Time `json:"observedAt"`
}

// Snapshot is the aggregated environmental snapshot response.
type Snapshot struct {
	State      string       `json:"state"`
	Location   *LocationFix `json:"location,omitempty"`
	Weather    SignalResult `json:"weather"`
	Vegetation SignalResult `json:"vegetation"`
	Soil       SignalResult `json:"soil"`
	FetchedAt  time.Time    `json:"fetchedAt"`
	RetryCount int          `json:"retryCount"`
	CanRetry   bool         `json:"canRetry"`
	HasData    bool         `json:"hasData"`
}
