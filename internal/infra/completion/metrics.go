package completion

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsRecorder records per-call completion metrics. Tests inject a fake;
// production uses the Prometheus implementation.
type MetricsRecorder interface {
	// RecordCall records the outcome of one completion call (after retries).
	RecordCall(provider string, success bool)

	// RecordDuration records the latency of one completion call.
	RecordDuration(provider string, duration time.Duration)

	// RecordOutputLength records the length of a completion in characters.
	RecordOutputLength(provider string, length int)

	// RecordRejected counts calls refused by an open circuit breaker.
	RecordRejected(provider string)
}

// PrometheusMetrics implements MetricsRecorder with Prometheus collectors.
type PrometheusMetrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	length   *prometheus.HistogramVec
	rejected *prometheus.CounterVec
}

var (
	prometheusMetricsInstance *PrometheusMetrics
	prometheusMetricsOnce     sync.Once
)

// registerOrExisting registers c, returning the already registered collector
// when an identical one exists.
func registerOrExisting[T prometheus.Collector](c T) T {
	if err := prometheus.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
	}
	return c
}

// NewPrometheusMetrics returns the process-wide Prometheus recorder.
func NewPrometheusMetrics() *PrometheusMetrics {
	prometheusMetricsOnce.Do(func() {
		prometheusMetricsInstance = &PrometheusMetrics{
			calls: registerOrExisting(prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "digest_completion_calls_total",
				Help: "Total number of completion calls by provider and status",
			}, []string{"provider", "status"})),
			duration: registerOrExisting(prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "digest_completion_duration_seconds",
				Help:    "Latency of completion calls including retries",
				Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
			}, []string{"provider"})),
			length: registerOrExisting(prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "digest_completion_output_characters",
				Help:    "Length of completion output in characters",
				Buckets: []float64{100, 250, 500, 1000, 2000, 4000, 8000},
			}, []string{"provider"})),
			rejected: registerOrExisting(prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "digest_completion_rejected_total",
				Help: "Completion calls rejected by an open circuit breaker",
			}, []string{"provider"})),
		}
	})
	return prometheusMetricsInstance
}

// RecordCall implements MetricsRecorder.
func (p *PrometheusMetrics) RecordCall(provider string, success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	p.calls.WithLabelValues(provider, status).Inc()
}

// RecordDuration implements MetricsRecorder.
func (p *PrometheusMetrics) RecordDuration(provider string, duration time.Duration) {
	p.duration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordOutputLength implements MetricsRecorder.
func (p *PrometheusMetrics) RecordOutputLength(provider string, length int) {
	p.length.WithLabelValues(provider).Observe(float64(length))
}

// RecordRejected implements MetricsRecorder.
func (p *PrometheusMetrics) RecordRejected(provider string) {
	p.rejected.WithLabelValues(provider).Inc()
}
