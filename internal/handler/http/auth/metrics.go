package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// authRequestsTotal counts token checks by result.
	authRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_requests_total",
			Help: "Total caller authentication attempts by result",
		},
		[]string{"result"}, // success | missing | invalid
	)

	authDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "auth_duration_seconds",
			Help:    "Caller token verification duration",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01},
		},
	)
)

// RecordAuthRequest records one authentication attempt.
func RecordAuthRequest(result string) {
	authRequestsTotal.WithLabelValues(result).Inc()
}

// RecordAuthDuration records how long token verification took.
func RecordAuthDuration(durationSeconds float64) {
	authDuration.Observe(durationSeconds)
}
