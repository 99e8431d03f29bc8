package models

import "time"

// RiskResult is the scoring outcome shared by both modes.
type RiskResult struct {
	Score               float64  `json:"score"`
	Level               string   `json:"level"`
	ContributingFactors []string `json:"contributingFactors"`
	Recommendations     []string `json:"recommendations"`
}

// Assessment is a persisted scoring result.
type Assessment struct {
	ID        string     `json:"id"`
	Mode      string     `json:"mode"`
	Result    RiskResult `json:"result"`
	Lat       *float64   `json:"lat,omitempty"`
	Lon       *float64   `json:"lon,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// PagedAssessments is one page of assessments.
type PagedAssessments struct {
	Items []Assessment      `json:"items"`
	Meta  PagedResponseMeta `json:"meta"`
}
