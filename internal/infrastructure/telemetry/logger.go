package telemetry

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/mrops-br/apip-render/internal/infrastructure/config"
	"go.opentelemetry.io/otel/trace"
)

// Context keys for values copied onto every log record
type contextKey string

const (
	httpRouteKey contextKey = "http.route"
	renderIDKey  contextKey = "render.id"
)

// WithHTTPRoute adds the HTTP route to the context
func WithHTTPRoute(ctx context.Context, route string) context.Context {
	return context.WithValue(ctx, httpRouteKey, route)
}

// HTTPRouteFromContext extracts the HTTP route from context
func HTTPRouteFromContext(ctx context.Context) string {
	if route, ok := ctx.Value(httpRouteKey).(string); ok {
		return route
	}
	return ""
}

// WithRenderID tags the context with the render currently in progress
func WithRenderID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, renderIDKey, id)
}

// RenderIDFromContext returns the render id, if any
func RenderIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(renderIDKey).(string); ok {
		return id
	}
	return ""
}

// traceContextHandler is a slog handler that injects trace and render context
type traceContextHandler struct {
	handler slog.Handler
}

// Enabled reports whether the handler handles records at the given level
func (h *traceContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle adds trace_id, span_id, http.route and render_id to log records from the context
func (h *traceContextHandler) Handle(ctx context.Context, r slog.Record) error {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		r.AddAttrs(
			slog.String("trace_id", span.SpanContext().TraceID().String()),
			slog.String("span_id", span.SpanContext().SpanID().String()),
		)
	}

	if route := HTTPRouteFromContext(ctx); route != "" {
		r.AddAttrs(slog.String("http.route", route))
	}

	if id := RenderIDFromContext(ctx); id != "" {
		r.AddAttrs(slog.String("render_id", id))
	}

	return h.handler.Handle(ctx, r)
}

// WithAttrs returns a new handler with additional attributes
func (h *traceContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &traceContextHandler{
		handler: h.handler.WithAttrs(attrs),
	}
}

// WithGroup returns a new handler with the given group name
func (h *traceContextHandler) WithGroup(name string) slog.Handler {
	return &traceContextHandler{
		handler: h.handler.WithGroup(name),
	}
}

// NewContextHandler wraps handler so records pick up trace and render context
func NewContextHandler(handler slog.Handler) slog.Handler {
	return &traceContextHandler{handler: handler}
}

// initLogger initializes a structured JSON logger; LOG_LEVEL picks the level
func initLogger(cfg *config.OTLPConfig) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(os.Getenv("LOG_LEVEL")),
	}

	jsonHandler := slog.NewJSONHandler(os.Stdout, opts)

	return slog.New(NewContextHandler(jsonHandler)).With(
		slog.String("service.name", cfg.ServiceName),
		slog.String("environment", cfg.Environment),
	)
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}
