package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// jobRunsTotal counts scheduled job runs by job and status.
	jobRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "worker_job_runs_total",
		Help: "Total number of scheduled job runs by job and status (success/failure)",
	}, []string{"job", "status"})

	jobDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "worker_job_duration_seconds",
		Help:    "Duration of scheduled job runs in seconds",
		Buckets: []float64{0.001, 0.01, 0.1, 1, 5, 30},
	}, []string{"job"})

	jobLastSuccessTimestamp = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "worker_job_last_success_timestamp",
		Help: "Unix timestamp of the last successful run of a scheduled job",
	}, []string{"job"})
)

func recordJobRun(job string, success bool, seconds float64) {
	status := "success"
	if !success {
		status = "failure"
	}
	jobRunsTotal.WithLabelValues(job, status).Inc()
	jobDurationSeconds.WithLabelValues(job).Observe(seconds)
	if success {
		jobLastSuccessTimestamp.WithLabelValues(job).SetToCurrentTime()
	}
}
