package observability_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/Maniekw12/Red-Black-Tree-implementation/pkg/observability"
)

func scrape(t *testing.T, handler http.HandlerFunc, req *http.Request) (tracetest.SpanStub, *httptest.ResponseRecorder) {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	t.Cleanup(func() { require.NoError(t, tp.Shutdown(context.Background())) })

	rec := httptest.NewRecorder()
	observability.ScrapeMiddleware(tp.Tracer("test"), handler).ServeHTTP(rec, req)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)

	return spans[0], rec
}

func spanAttr(span tracetest.SpanStub, key string) (attribute.Value, bool) {
	for _, kv := range span.Attributes {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}

	return attribute.Value{}, false
}

func TestScrapeMiddlewareRecordsResponse(t *testing.T) {
	t.Parallel()

	body := "redblack_operations_total 3\n"
	span, rec := scrape(t, func(rw http.ResponseWriter, _ *http.Request) {
		_, err := rw.Write([]byte(body))
		assert.NoError(t, err)
	}, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "redblack.metrics.scrape", span.Name)
	assert.Equal(t, codes.Unset, span.Status.Code)

	route, ok := spanAttr(span, "http.route")
	require.True(t, ok)
	assert.Equal(t, "/metrics", route.AsString())

	status, ok := spanAttr(span, "http.response.status_code")
	require.True(t, ok)
	assert.Equal(t, int64(http.StatusOK), status.AsInt64())

	size, ok := spanAttr(span, "http.response.body.size")
	require.True(t, ok)
	assert.Equal(t, int64(len(body)), size.AsInt64())
}

func TestScrapeMiddlewareEmptyResponseIsOK(t *testing.T) {
	t.Parallel()

	span, _ := scrape(t, func(http.ResponseWriter, *http.Request) {},
		httptest.NewRequest(http.MethodHead, "/metrics", http.NoBody))

	status, ok := spanAttr(span, "http.response.status_code")
	require.True(t, ok)
	assert.Equal(t, int64(http.StatusOK), status.AsInt64())
}

func TestScrapeMiddlewareMarksServerErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status int
		want   codes.Code
	}{
		{status: http.StatusNotFound, want: codes.Unset},
		{status: http.StatusInternalServerError, want: codes.Error},
		{status: http.StatusServiceUnavailable, want: codes.Error},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			t.Parallel()

			span, rec := scrape(t, func(rw http.ResponseWriter, _ *http.Request) {
				rw.WriteHeader(tt.status)
			}, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.want, span.Status.Code)
		})
	}
}

func TestScrapeMiddlewareContinuesIncomingTrace(t *testing.T) {
	t.Parallel()

	const (
		traceID = "4bf92f3577b34da6a3ce929d0e0e4736"
		spanID  = "00f067aa0ba902b7"
	)

	req := httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody)
	req.Header.Set("Traceparent", "00-"+traceID+"-"+spanID+"-01")

	var handlerTraceID string

	span, _ := scrape(t, func(_ http.ResponseWriter, hr *http.Request) {
		handlerTraceID = trace.SpanContextFromContext(hr.Context()).TraceID().String()
	}, req)

	assert.Equal(t, traceID, handlerTraceID)
	assert.Equal(t, traceID, span.SpanContext.TraceID().String())
	assert.Equal(t, spanID, span.Parent.SpanID().String())
}
