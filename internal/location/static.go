package location

import "context"

// StaticSource is a PositionSource fixed at a known coordinate. It is used
// for server deployments monitoring a fixed site and for deterministic tests.
type StaticSource struct {
	Lat            float64
	Lon            float64
	AccuracyMeters float64
}

// CurrentPosition returns the configured position.
func (s *StaticSource) CurrentPosition(_ context.Context, _ PositionOptions) (Position, error) {
	return Position{Lat: s.Lat, Lon: s.Lon, AccuracyMeters: s.AccuracyMeters}, nil
}

// QueryPermission always reports granted; a fixed site needs no operator consent.
func (s *StaticSource) QueryPermission(_ context.Context) (PermissionState, error) {
	return PermissionGranted, nil
}
