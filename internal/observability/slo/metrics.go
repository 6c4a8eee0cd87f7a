// Package slo publishes service level indicators for the digest API as
// Prometheus gauges, computed over fixed windows by a Tracker.
package slo

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SLO targets. Latency targets are sized for summarization requests, which
// wait on several sequential completion calls.
const (
	// AvailabilitySLO is the target percentage of non-5xx responses.
	AvailabilitySLO = 99.5

	// LatencyP95SLO is the p95 latency target in seconds.
	LatencyP95SLO = 30.0

	// LatencyP99SLO is the p99 latency target in seconds.
	LatencyP99SLO = 90.0

	// ErrorRateSLO is the maximum ratio of 5xx responses.
	ErrorRateSLO = 0.005
)

var (
	// SLOAvailability is (requests - 5xx) / requests over the last window.
	SLOAvailability = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slo_availability_ratio",
			Help: "Availability ratio (0-1) over the last window, target: 0.995",
		},
	)

	SLOLatencyP95 = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slo_latency_p95_seconds",
			Help: "p95 API latency in seconds over the last window, target: 30",
		},
	)

	SLOLatencyP99 = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slo_latency_p99_seconds",
			Help: "p99 API latency in seconds over the last window, target: 90",
		},
	)

	// SLOErrorRate is 5xx / requests over the last window.
	SLOErrorRate = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slo_error_rate_ratio",
			Help: "5xx error ratio (0-1) over the last window, target: 0.005",
		},
	)
)

// UpdateAvailability sets the availability gauge.
func UpdateAvailability(ratio float64) {
	SLOAvailability.Set(ratio)
}

// UpdateLatencyP95 sets the p95 latency gauge.
func UpdateLatencyP95(seconds float64) {
	SLOLatencyP95.Set(seconds)
}

// UpdateLatencyP99 sets the p99 latency gauge.
func UpdateLatencyP99(seconds float64) {
	SLOLatencyP99.Set(seconds)
}

// UpdateErrorRate sets the error rate gauge.
func UpdateErrorRate(ratio float64) {
	SLOErrorRate.Set(ratio)
}
