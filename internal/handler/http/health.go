// Package http provides the HTTP surface of the digest service: middleware,
// request metrics and the health, readiness and liveness endpoints.
package http

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
	statusDisabled  = "disabled"
)

// HealthResponse represents the JSON response for health check endpoints.
type HealthResponse struct {
	Status    string                 `json:"status"`    // "healthy", "degraded" or "unhealthy"
	Timestamp string                 `json:"timestamp"` // RFC 3339
	Checks    map[string]CheckStatus `json:"checks"`
	Version   string                 `json:"version"`
}

// CheckStatus represents the status of a single health check.
type CheckStatus struct {
	Status  string         `json:"status"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// CompletionChecker reports the state of the completion service guard.
type CompletionChecker interface {
	Provider() string
	CircuitOpen() bool
}

// Pinger is implemented by session stores backed by a remote service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports the state of every dependency.
// The database is optional; a nil DB is reported as disabled.
type HealthHandler struct {
	DB         *sql.DB
	Completion CompletionChecker
	Sessions   any
	Version    string
}

// ServeHTTP returns 200 when every check is healthy or degraded,
// and 503 when any check is unhealthy.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]CheckStatus{
		"database":   h.checkDatabase(ctx),
		"completion": h.checkCompletion(),
		"sessions":   h.checkSessions(ctx),
	}

	status := statusHealthy
	for _, c := range checks {
		if c.Status == statusUnhealthy {
			status = statusUnhealthy
			break
		}
		if c.Status == statusDegraded {
			status = statusDegraded
		}
	}

	statusCode := http.StatusOK
	if status == statusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Version:   h.Version,
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Warn("health: failed to encode response", slog.Any("error", err))
	}
}

func (h *HealthHandler) checkDatabase(ctx context.Context) CheckStatus {
	if h.DB == nil {
		return CheckStatus{Status: statusDisabled, Message: "creation history not configured"}
	}
	if err := h.DB.PingContext(ctx); err != nil {
		return CheckStatus{Status: statusUnhealthy, Message: err.Error()}
	}

	stats := h.DB.Stats()
	details := map[string]any{
		"max_open_connections": stats.MaxOpenConnections,
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"wait_count":           stats.WaitCount,
		"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
	}
	if stats.MaxOpenConnections == 0 {
		return CheckStatus{Status: statusHealthy, Details: details}
	}

	utilization := float64(stats.InUse) / float64(stats.MaxOpenConnections) * 100
	details["utilization_percent"] = utilization
	if utilization >= 80.0 {
		return CheckStatus{
			Status:  statusDegraded,
			Message: "connection pool utilization above 80%",
			Details: details,
		}
	}
	return CheckStatus{Status: statusHealthy, Details: details}
}

// checkCompletion never reports unhealthy: an open circuit recovers on its own
// and the service still answers everything that does not need a completion.
func (h *HealthHandler) checkCompletion() CheckStatus {
	if h.Completion == nil {
		return CheckStatus{Status: statusUnhealthy, Message: "not configured"}
	}
	details := map[string]any{"provider": h.Completion.Provider()}
	if h.Completion.CircuitOpen() {
		return CheckStatus{Status: statusDegraded, Message: "circuit breaker open", Details: details}
	}
	return CheckStatus{Status: statusHealthy, Details: details}
}

func (h *HealthHandler) checkSessions(ctx context.Context) CheckStatus {
	pinger, ok := h.Sessions.(Pinger)
	if !ok {
		return CheckStatus{Status: statusHealthy, Message: "in-memory"}
	}
	if err := pinger.Ping(ctx); err != nil {
		return CheckStatus{Status: statusUnhealthy, Message: err.Error()}
	}
	return CheckStatus{Status: statusHealthy}
}

// ReadyHandler handles readiness probes. The service is ready once the
// completion backend is wired and, when configured, the database answers.
type ReadyHandler struct {
	DB         *sql.DB
	Completion CompletionChecker
}

func (h *ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.Completion == nil {
		http.Error(w, "completion service not configured", http.StatusServiceUnavailable)
		return
	}
	if h.DB != nil {
		if err := h.DB.PingContext(ctx); err != nil {
			http.Error(w, "database not ready: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
	}

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ready")); err != nil {
		slog.Warn("ready: failed to write response", slog.Any("error", err))
	}
}

// LiveHandler handles liveness probes.
type LiveHandler struct{}

func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("alive")); err != nil {
		slog.Warn("alive: failed to write response", slog.Any("error", err))
	}
}
