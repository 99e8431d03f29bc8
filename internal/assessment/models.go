// Package assessment persists scored risk assessments per operator.
package assessment

import (
	"errors"
	"fmt"
	"time"

	"github.com/grainguard/grainguard/internal/risk"
)

// Repository errors.
var (
	ErrAssessmentNotFound = errors.New("assessment not found")
)

// ErrNoDetector is returned when batch scoring is requested but no detector
// backend is configured.
var ErrNoDetector = errors.New("no detector backend configured")

// Mode distinguishes how an assessment was scored.
type Mode string

const (
	// ModeInsight is qualitative-rating scoring.
	ModeInsight Mode = "insight"

	// ModeDetection is kernel-inspection scoring.
	ModeDetection Mode = "detection"
)

// Assessment is one persisted scoring result.
type Assessment struct {
	ID         string
	OperatorID string
	Mode       Mode

	Score           float64
	Level           risk.Level
	Factors         []string
	Recommendations []string

	// Lat and Lon record where the assessed batch was located, when known.
	Lat *float64
	Lon *float64

	CreatedAt time.Time
}

// ValidationError carries field-level validation failures.
type ValidationError struct {
	Errors map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %d field error(s)", len(e.Errors))
}
