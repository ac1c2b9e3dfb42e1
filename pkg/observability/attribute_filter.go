package observability

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// exportedNamespaces lists the attribute namespaces a span may carry out of
// the process. Tree keys come from user input, so anything else is dropped.
var exportedNamespaces = []string{"redblack", "scenario", "stress", "snapshot", "tree", "http", "error"}

// scrubbedKeys are dropped even inside an exported namespace.
var scrubbedKeys = map[attribute.Key]struct{}{
	"http.request.body":  {},
	"http.response.body": {},
}

func exported(key attribute.Key) bool {
	if _, scrubbed := scrubbedKeys[key]; scrubbed {
		return false
	}

	namespace, _, _ := strings.Cut(string(key), ".")

	for _, ns := range exportedNamespaces {
		if namespace == ns {
			return true
		}
	}

	return false
}

// attributeFilter hands its delegate a view of each ended span that only
// holds exported attributes.
type attributeFilter struct {
	sdktrace.SpanProcessor

	logger *slog.Logger
}

// NewAttributeFilter wraps delegate. A non-nil logger receives one warning
// per dropped attribute.
func NewAttributeFilter(delegate sdktrace.SpanProcessor, logger *slog.Logger) sdktrace.SpanProcessor {
	return &attributeFilter{SpanProcessor: delegate, logger: logger}
}

func (f *attributeFilter) OnEnd(s sdktrace.ReadOnlySpan) {
	f.SpanProcessor.OnEnd(&filteredSpan{ReadOnlySpan: s, keep: f.keep})
}

func (f *attributeFilter) Shutdown(ctx context.Context) error {
	err := f.SpanProcessor.Shutdown(ctx)
	if err != nil {
		return fmt.Errorf("shutdown filtered span processor: %w", err)
	}

	return nil
}

func (f *attributeFilter) keep(kv attribute.KeyValue) bool {
	if exported(kv.Key) {
		return true
	}

	if f.logger != nil {
		f.logger.Warn("span attribute dropped", "key", string(kv.Key))
	}

	return false
}

type filteredSpan struct {
	sdktrace.ReadOnlySpan

	keep attribute.Filter
}

func (s *filteredSpan) Attributes() []attribute.KeyValue {
	var kept []attribute.KeyValue

	for _, kv := range s.ReadOnlySpan.Attributes() {
		if s.keep(kv) {
			kept = append(kept, kv)
		}
	}

	return kept
}
