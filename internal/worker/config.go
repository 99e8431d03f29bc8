// Package worker provides background job processing for GrainGuard.
package worker

import (
	"time"
)

// SiteTarget represents a growing region whose environmental signals are
// swept on a schedule so the first assessment of the day hits warm caches.
type SiteTarget struct {
	// Name is the human-readable name of the site.
	Name string

	// County is the administrative county the site belongs to.
	County string

	// Points are the lat/lon coordinates to sweep. Typically the market
	// town plus the surrounding aggregation centers.
	Points []Point

	// Priority determines sweep order (lower = higher priority).
	Priority int
}

// Point represents a geographic coordinate.
type Point struct {
	Lat float64
	Lon float64
}

// SweepConfig holds configuration for the site sweep job.
type SweepConfig struct {
	// Sites are the growing regions to sweep.
	// If empty, uses DefaultSweepSites.
	Sites []SiteTarget

	// Concurrency is the number of concurrent point sweeps.
	// Default: 3
	Concurrency int

	// Timeout is the timeout for sweeping a single point.
	// Default: 30 seconds
	Timeout time.Duration

	// SweepWeather enables weather refresh.
	// Default: true
	SweepWeather bool

	// SweepVegetation enables vegetation index refresh.
	// Default: true
	SweepVegetation bool

	// SweepSoil enables soil moisture refresh.
	// Default: true
	SweepSoil bool
}

// DefaultSweepConfig returns the default sweep configuration.
func DefaultSweepConfig() SweepConfig {
	return SweepConfig{
		Sites:           DefaultSweepSites(),
		Concurrency:     3,
		Timeout:         30 * time.Second,
		SweepWeather:    true,
		SweepVegetation: true,
		SweepSoil:       true,
	}
}

// DefaultSweepSites returns the default sweep sites for the Kenyan maize
// belt. Focuses on the North Rift surplus counties and the main aggregation
// markets further south.
func DefaultSweepSites() []SiteTarget {
	return []SiteTarget{
		{
			Name:     "Kitale",
			County:   "Trans Nzoia",
			Priority: 1,
			Points: []Point{
				{Lat: 1.0157, Lon: 35.0062}, // Kitale town
				{Lat: 1.1602, Lon: 34.9880}, // Endebess
				{Lat: 0.8961, Lon: 34.9530}, // Kiminini
			},
		},
		{
			Name:     "Eldoret",
			County:   "Uasin Gishu",
			Priority: 1,
			Points: []Point{
				{Lat: 0.5143, Lon: 35.2698}, // Eldoret town
				{Lat: 0.7833, Lon: 35.3500}, // Moiben
				{Lat: 0.2833, Lon: 35.3500}, // Kesses
			},
		},
		{
			Name:     "Nakuru",
			County:   "Nakuru",
			Priority: 1,
			Points: []Point{
				{Lat: -0.3031, Lon: 36.0800}, // Nakuru town
				{Lat: -0.1833, Lon: 35.9500}, // Rongai
			},
		},
		{
			Name:     "Bungoma",
			County:   "Bungoma",
			Priority: 2,
			Points: []Point{
				{Lat: 0.5635, Lon: 34.5606}, // Bungoma town
				{Lat: 0.6300, Lon: 34.9400}, // Webuye
			},
		},
		{
			Name:     "Kakamega",
			County:   "Kakamega",
			Priority: 2,
			Points: []Point{
				{Lat: 0.2827, Lon: 34.7519}, // Kakamega town
			},
		},
		{
			Name:     "Kericho",
			County:   "Kericho",
			Priority: 2,
			Points: []Point{
				{Lat: -0.3677, Lon: 35.2831}, // Kericho town
			},
		},
		{
			Name:     "Machakos",
			County:   "Machakos",
			Priority: 3,
			Points: []Point{
				{Lat: -1.5177, Lon: 37.2634}, // Machakos town
			},
		},
		{
			Name:     "Meru",
			County:   "Meru",
			Priority: 3,
			Points: []Point{
				{Lat: 0.0463, Lon: 37.6559}, // Meru town
			},
		},
		{
			Name:     "Kisumu",
			County:   "Kisumu",
			Priority: 3,
			Points: []Point{
				{Lat: -0.0917, Lon: 34.7680}, // Kisumu town
			},
		},
	}
}

// AllPoints returns all points from all sites in declaration order.
func (c SweepConfig) AllPoints() []Point {
	var points []Point
	for _, site := range c.Sites {
		points = append(points, site.Points...)
	}
	return points
}

// TotalPoints returns the total number of points to sweep.
func (c SweepConfig) TotalPoints() int {
	total := 0
	for _, site := range c.Sites {
		total += len(site.Points)
	}
	return total
}
