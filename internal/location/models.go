// Package location acquires and caches device geolocation fixes.
package location

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Location errors.
var (
	// ErrPermissionDenied is returned when the operator denied location access.
	ErrPermissionDenied = errors.New("location permission denied")

	// ErrPositionUnavailable is returned when the positioning service cannot
	// produce a fix (no GNSS lock, no network position).
	ErrPositionUnavailable = errors.New("position unavailable")

	// ErrTimeout is returned when position acquisition exceeds the request timeout.
	ErrTimeout = errors.New("location request timed out")

	// ErrUnsupported is returned when the platform has no positioning capability.
	ErrUnsupported = errors.New("geolocation not supported")

	// ErrPermissionUnsupported is returned when the platform exposes no
	// permission API to query.
	ErrPermissionUnsupported = errors.New("permission API not supported")
)

// PermissionState represents the platform location permission.
type PermissionState string

const (
	PermissionGranted PermissionState = "granted"
	PermissionDenied  PermissionState = "denied"
	PermissionPrompt  PermissionState = "prompt"
	PermissionUnknown PermissionState = "unknown"
)

// Fix is a single geolocation fix.
type Fix struct {
	// Latitude in degrees (-90 to 90).
	Lat float64

	// Longitude in degrees (-180 to 180).
	Lon float64

	// AccuracyMeters is the estimated horizontal accuracy. Never negative.
	AccuracyMeters float64

	// CapturedAt is when the platform produced the fix.
	CapturedAt time.Time
}

// Age returns how old the fix is relative to now.
func (f Fix) Age(now time.Time) time.Duration {
	return now.Sub(f.CapturedAt)
}

// IsZero reports whether the fix is the zero value.
func (f Fix) IsZero() bool {
	return f.CapturedAt.IsZero()
}

// Platform positioning error codes, matching the conventional geolocation
// error numbering (1=denied, 2=unavailable, 3=timeout).
const (
	CodePermissionDenied    = 1
	CodePositionUnavailable = 2
	CodeTimeout             = 3
)

// PositionError is a coded error from the platform positioning service.
type PositionError struct {
	Code    int
	Message string
}

func (e *PositionError) Error() string {
	return fmt.Sprintf("position error %d: %s", e.Code, e.Message)
}

// Position is a raw position report from a PositionSource.
type Position struct {
	Lat            float64
	Lon            float64
	AccuracyMeters float64
}

// PositionOptions control a single position request.
type PositionOptions struct {
	// Timeout is the hard limit for acquiring a fix.
	Timeout time.Duration

	// MaximumAge hints that a platform-cached position no older than this
	// is acceptable.
	MaximumAge time.Duration
}

// PositionSource abstracts the platform geolocation capability.
type PositionSource interface {
	// CurrentPosition acquires the current position. Failures carry a
	// *PositionError with a platform code where available.
	CurrentPosition(ctx context.Context, opts PositionOptions) (Position, error)

	// QueryPermission returns the current permission state. Sources without
	// a permission API return ErrPermissionUnsupported.
	QueryPermission(ctx context.Context) (PermissionState, error)
}
