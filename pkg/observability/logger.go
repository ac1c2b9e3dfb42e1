package observability

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// Log keys added by TracingHandler.
const (
	LogKeyTraceID = "trace_id"
	LogKeySpanID  = "span_id"
	LogKeyService = "service"
	LogKeyEnv     = "env"
	LogKeyMode    = "mode"
)

// NewLogger returns a logger writing text, or JSON when cfg.LogJSON is set,
// to w at cfg.LogLevel.
func NewLogger(w io.Writer, cfg Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}

	if cfg.LogJSON {
		return slog.New(NewTracingHandler(slog.NewJSONHandler(w, opts), cfg.ServiceName, cfg.Environment, cfg.Mode))
	}

	return slog.New(NewTracingHandler(slog.NewTextHandler(w, opts), cfg.ServiceName, cfg.Environment, cfg.Mode))
}

// TracingHandler stamps records with the service identity and, when the
// record's context carries a span, its trace and span IDs.
type TracingHandler struct {
	slog.Handler
}

// NewTracingHandler binds the service attributes to inner before any group
// is opened, so they stay at the top level of every record.
func NewTracingHandler(inner slog.Handler, service, env string, mode AppMode) *TracingHandler {
	identity := []slog.Attr{slog.String(LogKeyService, service), slog.String(LogKeyMode, string(mode))}
	if env != "" {
		identity = append(identity, slog.String(LogKeyEnv, env))
	}

	return &TracingHandler{Handler: inner.WithAttrs(identity)}
}

func (th *TracingHandler) Handle(ctx context.Context, record slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		record.AddAttrs(slog.String(LogKeyTraceID, sc.TraceID().String()), slog.String(LogKeySpanID, sc.SpanID().String()))
	}

	err := th.Handler.Handle(ctx, record)
	if err != nil {
		return fmt.Errorf("handle log record: %w", err)
	}

	return nil
}

func (th *TracingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TracingHandler{Handler: th.Handler.WithAttrs(attrs)}
}

func (th *TracingHandler) WithGroup(name string) slog.Handler {
	return &TracingHandler{Handler: th.Handler.WithGroup(name)}
}
