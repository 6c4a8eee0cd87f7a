package tracing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func installRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})
	return recorder
}

func TestMiddleware_CreatesServerSpan(t *testing.T) {
	recorder := installRecorder(t)

	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/digest/summaries", nil))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "POST /api/digest/summaries", spans[0].Name())
	assert.NotEmpty(t, rr.Header().Get(TraceIDHeader))
	assert.Equal(t, spans[0].SpanContext().TraceID().String(), rr.Header().Get(TraceIDHeader))

	var status int64
	for _, kv := range spans[0].Attributes() {
		if kv.Key == "http.status_code" {
			status = kv.Value.AsInt64()
		}
	}
	assert.Equal(t, int64(http.StatusCreated), status)
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
}

func TestMiddleware_MarksServerErrors(t *testing.T) {
	recorder := installRecorder(t)

	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
}

func TestStartSpan_EndSpanRecordsError(t *testing.T) {
	recorder := installRecorder(t)

	_, span := StartSpan(context.Background(), "digest.combine")
	EndSpan(span, assert.AnError)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "digest.combine", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Len(t, spans[0].Events(), 1)
}
