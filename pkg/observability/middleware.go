package observability

import (
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const scrapeSpanName = "redblack.metrics.scrape"

var scrapePropagator = propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{})

// scrapeWriter remembers the status code and body size of a response.
type scrapeWriter struct {
	http.ResponseWriter

	status int
	bytes  int
}

func (sw *scrapeWriter) WriteHeader(code int) {
	if sw.status == 0 {
		sw.status = code
	}

	sw.ResponseWriter.WriteHeader(code)
}

func (sw *scrapeWriter) Write(buf []byte) (int, error) {
	if sw.status == 0 {
		sw.status = http.StatusOK
	}

	n, err := sw.ResponseWriter.Write(buf)
	sw.bytes += n

	if err != nil {
		return n, fmt.Errorf("write scrape response: %w", err)
	}

	return n, nil
}

// ScrapeMiddleware traces every request to the metrics endpoint as a server
// span. A W3C traceparent header on the request becomes the span's parent.
// Responses with a 5xx status mark the span as failed.
func ScrapeMiddleware(tracer trace.Tracer, next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		ctx := scrapePropagator.Extract(req.Context(), propagation.HeaderCarrier(req.Header))

		ctx, span := tracer.Start(ctx, scrapeSpanName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPRequestMethodKey.String(req.Method),
				semconv.HTTPRoute(req.URL.Path),
			),
		)
		defer span.End()

		sw := &scrapeWriter{ResponseWriter: rw}
		next.ServeHTTP(sw, req.WithContext(ctx))

		if sw.status == 0 {
			sw.status = http.StatusOK
		}

		span.SetAttributes(
			semconv.HTTPResponseStatusCode(sw.status),
			semconv.HTTPResponseBodySize(sw.bytes),
		)

		if sw.status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(sw.status))
		}
	})
}
