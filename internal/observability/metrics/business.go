package metrics

import "time"

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

// RecordSummary records the outcome of a summarize operation.
func RecordSummary(detail string, success bool) {
	SummariesTotal.WithLabelValues(detail, statusLabel(success)).Inc()
}

// RecordChunks records how many chunks a source text was split into.
func RecordChunks(count int) {
	ChunksPerSummary.Observe(float64(count))
}

// RecordStageDuration records the time spent in a pipeline stage (map, combine, answer).
func RecordStageDuration(stage string, duration time.Duration) {
	StageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordQuestion records the outcome of a follow-up question.
func RecordQuestion(success bool) {
	QuestionsTotal.WithLabelValues(statusLabel(success)).Inc()
}

// SetSessionContexts updates the in-memory context gauge.
func SetSessionContexts(n int) {
	SessionContexts.Set(float64(n))
}

// RecordSessionEviction records a context removed for reason ("expired" or "capacity").
func RecordSessionEviction(reason string) {
	SessionEvictionsTotal.WithLabelValues(reason).Inc()
}

// RecordOperationDuration records the duration of a named database operation.
func RecordOperationDuration(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
