package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/Maniekw12/Red-Black-Tree-implementation/pkg/observability"
)

func filteredKeys(t *testing.T, logger *slog.Logger, attrs ...attribute.KeyValue) []string {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	filter := observability.NewAttributeFilter(sdktrace.NewSimpleSpanProcessor(exporter), logger)
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(filter))

	t.Cleanup(func() { require.NoError(t, tp.Shutdown(context.Background())) })

	_, span := tp.Tracer("test").Start(context.Background(), "replay", trace.WithAttributes(attrs...))
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)

	keys := make([]string, 0, len(spans[0].Attributes))
	for _, kv := range spans[0].Attributes {
		keys = append(keys, string(kv.Key))
	}

	return keys
}

func TestAttributeFilterKeepsTreeNamespaces(t *testing.T) {
	t.Parallel()

	keys := filteredKeys(t, nil,
		attribute.String("scenario.name", "stress-35"),
		attribute.Int("stress.keys", 35),
		attribute.Int("tree.height", 7),
		attribute.Int("http.response.body.size", 120),
		attribute.String("http.request.body", "42 17 8"),
		attribute.String("user.email", "someone@example.com"),
		attribute.Int("scenariokeys", 3),
	)

	assert.ElementsMatch(t, []string{"scenario.name", "stress.keys", "tree.height", "http.response.body.size"}, keys)
}

func TestAttributeFilterLogsDroppedKeys(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := slog.New(slog.NewTextHandler(&buf, nil))
	keys := filteredKeys(t, logger, attribute.Int64("key", 42))

	assert.Empty(t, keys)
	assert.Contains(t, buf.String(), "span attribute dropped")
	assert.Contains(t, buf.String(), "key=key")
}
