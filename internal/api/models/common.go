// Package models defines the API request and response shapes.
package models

import "time"

// Health status values.
const (
	HealthStatusOK       = "ok"
	HealthStatusDegraded = "degraded"
	HealthStatusDown     = "down"
)

// Health is the liveness/readiness response body.
type Health struct {
	Status  string                 `json:"status"`
	Time    time.Time              `json:"time"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ProviderStatus reports one upstream provider's health.
type ProviderStatus struct {
	Provider      string     `json:"provider"`
	Status        string     `json:"status"`
	LastSuccessAt *time.Time `json:"lastSuccessAt,omitempty"`
	LastError     string     `json:"lastError,omitempty"`
}

// SystemStatus reports subsystem and provider health.
type SystemStatus struct {
	Status    string           `json:"status"`
	Time      time.Time        `json:"time"`
	Providers []ProviderStatus `json:"providers"`
}

// PagedResponseMeta carries pagination metadata.
type PagedResponseMeta struct {
	Limit      int     `json:"limit"`
	NextCursor *string `json:"nextCursor,omitempty"`
}
