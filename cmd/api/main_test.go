package main

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digestly/internal/config"
	"digestly/internal/infra/worker"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunServer_ReturnsListenError(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer ln.Close()

	logger := discardLogger()
	cfg := &config.ServerConfig{
		Port:            ln.Addr().(*net.TCPAddr).Port,
		ShutdownTimeout: time.Second,
		Version:         "test",
	}
	c := &components{handler: http.NewServeMux(), scheduler: worker.NewScheduler(logger, time.UTC)}
	defer c.close(context.Background(), logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err = runServer(ctx, logger, cfg, c)
	require.Error(t, err)
	assert.NoError(t, ctx.Err(), "runServer must return on the listen error, not on cancellation")
}

func TestRunServer_CleanShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	logger := discardLogger()
	cfg := &config.ServerConfig{Port: port, ShutdownTimeout: time.Second}
	c := &components{handler: http.NewServeMux(), scheduler: worker.NewScheduler(logger, time.UTC)}
	defer c.close(context.Background(), logger)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, runServer(ctx, logger, cfg, c))
}

func TestSetupServer_Routes(t *testing.T) {
	t.Setenv("AI_PROVIDER", "echo")
	t.Setenv("DIGEST_PROMPTS_FILE", "")
	t.Setenv("SESSION_BACKEND", "memory")
	t.Setenv("SESSION_TTL", "")

	logger := discardLogger()
	cfg := &config.ServerConfig{
		JWTSecret:       strings.Repeat("s", 32),
		MaxBodyBytes:    1 << 20,
		RequestTimeout:  time.Minute,
		ShutdownTimeout: time.Second,
		Version:         "test",
	}

	c, err := setupServer(context.Background(), logger, cfg)
	require.NoError(t, err)
	defer c.close(context.Background(), logger)

	rr := httptest.NewRecorder()
	c.handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/live", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	c.handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/digest/summaries", strings.NewReader(`{"text":"x"}`)))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = httptest.NewRecorder()
	c.handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/creations", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code, "auth runs before routing")
}
