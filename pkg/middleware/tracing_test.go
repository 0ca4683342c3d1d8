package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

const incomingTraceparent = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"

func installRecorder(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})
	return exporter
}

func tracedShop(status int) http.Handler {
	r := chi.NewRouter()
	r.Use(Tracing("storefront"))
	r.Get("/api/v1/products/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
	})
	return r
}

func spanAttr(span tracetest.SpanStub, key attribute.Key) (attribute.Value, bool) {
	for _, kv := range span.Attributes {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTracing_SpanPerRequest(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		wantStatus codes.Code
	}{
		{name: "ok", status: http.StatusOK, wantStatus: codes.Unset},
		{name: "client error stays unset", status: http.StatusNotFound, wantStatus: codes.Unset},
		{name: "server error marks span", status: http.StatusBadGateway, wantStatus: codes.Error},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exporter := installRecorder(t)

			rec := httptest.NewRecorder()
			tracedShop(tt.status).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products/7", nil))
			require.Equal(t, tt.status, rec.Code)

			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			span := spans[0]
			assert.Equal(t, "GET /api/v1/products/{id}", span.Name)
			assert.Equal(t, tt.wantStatus, span.Status.Code)

			code, ok := spanAttr(span, "http.status_code")
			require.True(t, ok)
			assert.Equal(t, int64(tt.status), code.AsInt64())
			route, ok := spanAttr(span, "http.route")
			require.True(t, ok)
			assert.Equal(t, "/api/v1/products/{id}", route.AsString())
		})
	}
}

func TestTracing_ContinuesIncomingTrace(t *testing.T) {
	exporter := installRecorder(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/7", nil)
	req.Header.Set("traceparent", incomingTraceparent)
	rec := httptest.NewRecorder()
	tracedShop(http.StatusOK).ServeHTTP(rec, req)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", spans[0].SpanContext.TraceID().String())
	assert.Equal(t, "00f067aa0ba902b7", spans[0].Parent.SpanID().String())
	assert.Contains(t, rec.Header().Get("traceparent"), "4bf92f3577b34da6a3ce929d0e0e4736")
}

func TestTracing_UnroutedRequestKeepsRawPath(t *testing.T) {
	exporter := installRecorder(t)

	rec := httptest.NewRecorder()
	tracedShop(http.StatusOK).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /nowhere", spans[0].Name)
	assert.NotEmpty(t, rec.Header().Get("traceparent"))
}

func TestScheme(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "http", scheme(req))

	req.Header.Set("X-Forwarded-Proto", "https")
	assert.Equal(t, "https", scheme(req))
}
