package slo

import (
	"math"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"digestly/internal/handler/http/responsewriter"
)

// maxSamples bounds the latency samples kept per window. Requests beyond it
// still count toward availability.
const maxSamples = 10000

// Snapshot is the set of indicators computed for one window.
type Snapshot struct {
	Requests     int
	ServerErrors int
	Availability float64
	ErrorRate    float64
	P95          time.Duration
	P99          time.Duration
}

// Tracker accumulates API request outcomes and publishes them as SLO gauges.
// It is safe for concurrent use.
type Tracker struct {
	mu        sync.Mutex
	requests  int
	errors    int
	latencies []time.Duration
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{latencies: make([]time.Duration, 0, 256)}
}

// Observe records one request.
func (t *Tracker) Observe(status int, d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.requests++
	if status >= 500 {
		t.errors++
	}
	if len(t.latencies) < maxSamples {
		t.latencies = append(t.latencies, d)
	}
}

// Publish computes the indicators for the current window, sets the gauges
// and starts a new window. An empty window leaves the gauges unchanged.
func (t *Tracker) Publish() Snapshot {
	t.mu.Lock()
	requests, errs, latencies := t.requests, t.errors, t.latencies
	t.requests, t.errors = 0, 0
	t.latencies = make([]time.Duration, 0, cap(latencies))
	t.mu.Unlock()

	if requests == 0 {
		return Snapshot{}
	}

	slices.Sort(latencies)
	s := Snapshot{
		Requests:     requests,
		ServerErrors: errs,
		Availability: float64(requests-errs) / float64(requests),
		ErrorRate:    float64(errs) / float64(requests),
		P95:          percentile(latencies, 0.95),
		P99:          percentile(latencies, 0.99),
	}

	UpdateAvailability(s.Availability)
	UpdateErrorRate(s.ErrorRate)
	UpdateLatencyP95(s.P95.Seconds())
	UpdateLatencyP99(s.P99.Seconds())
	return s
}

// percentile uses the nearest-rank method on sorted samples.
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(math.Ceil(p*float64(len(sorted)))) - 1
	if rank < 0 {
		rank = 0
	}
	return sorted[rank]
}

// Middleware observes requests under /api/. Probes and scrapes are excluded.
func (t *Tracker) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/") {
			next.ServeHTTP(w, r)
			return
		}
		rw := responsewriter.Wrap(w)
		start := time.Now()
		next.ServeHTTP(rw, r)
		t.Observe(rw.StatusCode(), time.Since(start))
	})
}
