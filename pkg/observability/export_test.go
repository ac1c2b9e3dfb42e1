package observability

import (
	"context"

	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// ResourceFor exposes buildResource.
func ResourceFor(cfg Config) (*resource.Resource, error) {
	return buildResource(cfg)
}

// RootSpanSampled reports whether a root span started under the sampler
// selected for cfg reaches the exporter.
func RootSpanSampled(cfg Config) bool {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter), sdktrace.WithSampler(selectSampler(cfg)))

	_, span := tp.Tracer("sampler").Start(context.Background(), "redblack.insert")
	span.End()

	sampled := len(exporter.GetSpans()) == 1

	return tp.Shutdown(context.Background()) == nil && sampled
}
