// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Digest metrics track the summarization pipeline and follow-up questions.
var (
	// SummariesTotal counts summarize operations by resolved detail level and status
	SummariesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_summaries_total",
			Help: "Total number of summarize operations",
		},
		[]string{"detail", "status"},
	)

	// ChunksPerSummary observes how many chunks each source was split into
	ChunksPerSummary = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "digest_chunks_per_summary",
			Help:    "Number of chunks produced for a single source text",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21, 34, 55},
		},
	)

	// StageDuration measures the duration of each pipeline stage
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "digest_stage_duration_seconds",
			Help:    "Time spent in each pipeline stage",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		},
		[]string{"stage"},
	)

	// QuestionsTotal counts follow-up questions by status
	QuestionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_questions_total",
			Help: "Total number of follow-up questions",
		},
		[]string{"status"},
	)

	// SessionContexts tracks the number of live caller contexts in the in-memory store
	SessionContexts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "digest_session_contexts",
			Help: "Number of caller contexts held in memory",
		},
	)

	// SessionEvictionsTotal counts contexts removed by expiry or capacity
	SessionEvictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_session_evictions_total",
			Help: "Total number of caller contexts evicted",
		},
		[]string{"reason"},
	)
)

// Database metrics track database performance
var (
	// DBQueryDuration measures database query duration
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10),
		},
		[]string{"operation"},
	)
)
