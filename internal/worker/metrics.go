package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SweepMetrics exports sweep outcomes and the latest environmental readings
// per site to Prometheus. The reading gauges let operators chart site
// conditions without querying the upstream APIs themselves.
type SweepMetrics struct {
	temperature  *prometheus.GaugeVec
	humidity     *prometheus.GaugeVec
	ndvi         *prometheus.GaugeVec
	soilMoisture *prometheus.GaugeVec

	sweepsTotal    prometheus.Counter
	pointsSwept    *prometheus.CounterVec
	signalFailures *prometheus.CounterVec
	sweepDuration  prometheus.Histogram
}

// NewSweepMetrics registers the sweep metric family with the given
// registerer. Pass prometheus.DefaultRegisterer outside of tests.
func NewSweepMetrics(reg prometheus.Registerer) *SweepMetrics {
	factory := promauto.With(reg)

	return &SweepMetrics{
		temperature: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "grainguard",
			Subsystem: "site",
			Name:      "temperature_celsius",
			Help:      "Latest air temperature observed at a sweep site.",
		}, []string{"site"}),
		humidity: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "grainguard",
			Subsystem: "site",
			Name:      "humidity_percent",
			Help:      "Latest relative humidity observed at a sweep site.",
		}, []string{"site"}),
		ndvi: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "grainguard",
			Subsystem: "site",
			Name:      "ndvi",
			Help:      "Latest vegetation index observed at a sweep site.",
		}, []string{"site"}),
		soilMoisture: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "grainguard",
			Subsystem: "site",
			Name:      "soil_moisture_percent",
			Help:      "Latest soil moisture observed at a sweep site.",
		}, []string{"site"}),
		sweepsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "grainguard",
			Subsystem: "sweep",
			Name:      "runs_total",
			Help:      "Number of sweep job runs.",
		}),
		pointsSwept: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "grainguard",
			Subsystem: "sweep",
			Name:      "points_total",
			Help:      "Number of points swept, by outcome.",
		}, []string{"outcome"}),
		signalFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "grainguard",
			Subsystem: "sweep",
			Name:      "signal_failures_total",
			Help:      "Number of failed signal fetches during sweeps, by signal.",
		}, []string{"signal"}),
		sweepDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "grainguard",
			Subsystem: "sweep",
			Name:      "duration_seconds",
			Help:      "Duration of a full sweep run.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
	}
}

// RecordWeather publishes the latest weather reading for a site.
func (m *SweepMetrics) RecordWeather(site string, temperatureC, humidityPct float64) {
	if m == nil {
		return
	}
	m.temperature.WithLabelValues(site).Set(temperatureC)
	m.humidity.WithLabelValues(site).Set(humidityPct)
}

// RecordVegetation publishes the latest vegetation index for a site.
func (m *SweepMetrics) RecordVegetation(site string, value float64) {
	if m == nil {
		return
	}
	m.ndvi.WithLabelValues(site).Set(value)
}

// RecordSoil publishes the latest soil moisture reading for a site.
func (m *SweepMetrics) RecordSoil(site string, moisturePct float64) {
	if m == nil {
		return
	}
	m.soilMoisture.WithLabelValues(site).Set(moisturePct)
}

// RecordSignalFailure counts a failed signal fetch.
func (m *SweepMetrics) RecordSignalFailure(signal string) {
	if m == nil {
		return
	}
	m.signalFailures.WithLabelValues(signal).Inc()
}

// RecordRun counts a completed sweep run with its point outcomes.
func (m *SweepMetrics) RecordRun(successful, failed int, seconds float64) {
	if m == nil {
		return
	}
	m.sweepsTotal.Inc()
	m.pointsSwept.WithLabelValues("success").Add(float64(successful))
	m.pointsSwept.WithLabelValues("failure").Add(float64(failed))
	m.sweepDuration.Observe(seconds)
}
