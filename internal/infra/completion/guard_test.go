package completion

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digestly/internal/config"
	"digestly/internal/resilience/circuitbreaker"
	"digestly/internal/resilience/retry"
	"digestly/internal/usecase/digest"
)

type mockBackend struct {
	mu       sync.Mutex
	calls    int
	complete func(ctx context.Context, req digest.CompletionRequest) (string, error)
}

func (m *mockBackend) Name() string { return "mock" }

func (m *mockBackend) Complete(ctx context.Context, req digest.CompletionRequest) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.complete != nil {
		return m.complete(ctx, req)
	}
	return "ok", nil
}

func (m *mockBackend) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockMetrics struct {
	mu       sync.Mutex
	success  int
	failure  int
	rejected int
	lengths  []int
}

func (m *mockMetrics) RecordCall(_ string, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if success {
		m.success++
	} else {
		m.failure++
	}
}

func (m *mockMetrics) RecordDuration(string, time.Duration) {}

func (m *mockMetrics) RecordOutputLength(_ string, length int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lengths = append(m.lengths, length)
}

func (m *mockMetrics) RecordRejected(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejected++
}

func fastRetry() *retry.Config {
	return &retry.Config{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, Multiplier: 2}
}

func TestGuard_Complete_Success(t *testing.T) {
	backend := &mockBackend{complete: func(_ context.Context, req digest.CompletionRequest) (string, error) {
		return "summary of " + req.Prompt, nil
	}}
	metrics := &mockMetrics{}
	g := NewGuard(backend, GuardConfig{}, metrics)

	text, err := g.Complete(context.Background(), digest.CompletionRequest{Prompt: "text"})

	require.NoError(t, err)
	assert.Equal(t, "summary of text", text)
	assert.Equal(t, 1, metrics.success)
	assert.Equal(t, []int{15}, metrics.lengths)
}

func TestGuard_Complete_RetriesTransientFailures(t *testing.T) {
	backend := &mockBackend{}
	backend.complete = func(context.Context, digest.CompletionRequest) (string, error) {
		if backend.calls < 3 {
			return "", &retry.HTTPError{StatusCode: http.StatusTooManyRequests, Message: "quota"}
		}
		return "done", nil
	}
	g := NewGuard(backend, GuardConfig{Retry: fastRetry()}, &mockMetrics{})

	text, err := g.Complete(context.Background(), digest.CompletionRequest{Prompt: "p"})

	require.NoError(t, err)
	assert.Equal(t, "done", text)
	assert.Equal(t, 3, backend.Calls())
}

func TestGuard_Complete_NoRetryWhenDisabled(t *testing.T) {
	backend := &mockBackend{complete: func(context.Context, digest.CompletionRequest) (string, error) {
		return "", &retry.HTTPError{StatusCode: http.StatusServiceUnavailable}
	}}
	metrics := &mockMetrics{}
	g := NewGuard(backend, GuardConfig{}, metrics)

	_, err := g.Complete(context.Background(), digest.CompletionRequest{Prompt: "p"})

	require.Error(t, err)
	assert.Equal(t, 1, backend.Calls())
	assert.Equal(t, 1, metrics.failure)
	assert.NotErrorIs(t, err, digest.ErrCompletionUnavailable)
}

func TestGuard_Complete_NonRetryableFailsFast(t *testing.T) {
	backend := &mockBackend{complete: func(context.Context, digest.CompletionRequest) (string, error) {
		return "", &retry.HTTPError{StatusCode: http.StatusBadRequest, Message: "prompt too long"}
	}}
	g := NewGuard(backend, GuardConfig{Retry: fastRetry()}, &mockMetrics{})

	_, err := g.Complete(context.Background(), digest.CompletionRequest{Prompt: "p"})

	var httpErr *retry.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)
	assert.Equal(t, 1, backend.Calls())
}

func TestGuard_Complete_CircuitOpen(t *testing.T) {
	backend := &mockBackend{complete: func(context.Context, digest.CompletionRequest) (string, error) {
		return "", errors.New("connection closed")
	}}
	metrics := &mockMetrics{}
	g := NewGuard(backend, GuardConfig{
		CircuitBreaker: circuitbreaker.Config{
			Name:             "completion-test",
			MaxRequests:      1,
			Interval:         time.Minute,
			Timeout:          time.Minute,
			FailureThreshold: 0.5,
			MinRequests:      2,
		},
	}, metrics)

	for i := 0; i < 2; i++ {
		_, err := g.Complete(context.Background(), digest.CompletionRequest{Prompt: "p"})
		require.Error(t, err)
	}

	_, err := g.Complete(context.Background(), digest.CompletionRequest{Prompt: "p"})

	assert.ErrorIs(t, err, digest.ErrCompletionUnavailable)
	assert.Equal(t, 2, backend.Calls())
	assert.Equal(t, 1, metrics.rejected)
}

func TestGuard_Complete_PerCallTimeout(t *testing.T) {
	backend := &mockBackend{complete: func(ctx context.Context, _ digest.CompletionRequest) (string, error) {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(time.Second):
			return "late", nil
		}
	}}
	g := NewGuard(backend, GuardConfig{Timeout: 10 * time.Millisecond}, &mockMetrics{})

	_, err := g.Complete(context.Background(), digest.CompletionRequest{Prompt: "p"})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGuard_Complete_RateLimitHonoursContext(t *testing.T) {
	backend := &mockBackend{}
	g := NewGuard(backend, GuardConfig{RateLimit: 0.001, RateBurst: 1}, &mockMetrics{})

	_, err := g.Complete(context.Background(), digest.CompletionRequest{Prompt: "first"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = g.Complete(ctx, digest.CompletionRequest{Prompt: "second"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
	assert.Equal(t, 1, backend.Calls())
}

func TestNewBackend(t *testing.T) {
	tests := []struct {
		provider string
		want     string
	}{
		{config.ProviderCompatible, "compatible"},
		{config.ProviderOpenAI, "openai"},
		{config.ProviderClaude, "claude"},
		{config.ProviderEcho, "echo"},
	}
	for _, tt := range tests {
		b, err := NewBackend(&config.AIConfig{Provider: tt.provider, APIKey: "k", Model: "m", BaseURL: "http://localhost"})
		require.NoError(t, err)
		assert.Equal(t, tt.want, b.Name())
	}

	_, err := NewBackend(&config.AIConfig{Provider: "bard"})
	assert.Error(t, err)
}

func TestNewFromConfig_Echo(t *testing.T) {
	g, err := NewFromConfig(&config.AIConfig{
		Provider:     config.ProviderEcho,
		Timeout:      time.Second,
		RateLimit:    100,
		RateBurst:    10,
		RetryEnabled: true,
		CircuitBreaker: config.CircuitBreakerConfig{
			MaxRequests: 1, Interval: time.Second, Timeout: time.Second, FailureThreshold: 0.5, MinRequests: 5,
		},
	})
	require.NoError(t, err)

	text, err := g.Complete(context.Background(), digest.CompletionRequest{Prompt: "header\n\nbody text"})
	require.NoError(t, err)
	assert.Equal(t, "body text", text)
}
