package telemetry

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Reporter receives the outcome of each harvest target. Tests substitute it
// to assert which failures a run surfaced.
type Reporter interface {
	// Broken reports a target that produced nothing and needs a look.
	Broken(ctx context.Context, event string, attrs ...slog.Attr)
	// Warning reports a target that finished with partial results.
	Warning(ctx context.Context, event string, attrs ...slog.Attr)
	// Count records a per-target tally, like reviews saved.
	Count(ctx context.Context, event string, n int64)
}

// ScopedReporter prefixes every event with a namespace before handing it on.
type ScopedReporter struct {
	namespace string
	inner     Reporter
}

func NewScopedReporter(namespace string, inner Reporter) ScopedReporter {
	return ScopedReporter{namespace: namespace, inner: inner}
}

func (s ScopedReporter) event(name string) string {
	return s.namespace + ":" + name
}

func (s ScopedReporter) Broken(ctx context.Context, event string, attrs ...slog.Attr) {
	s.inner.Broken(ctx, s.event(event), attrs...)
}

func (s ScopedReporter) Warning(ctx context.Context, event string, attrs ...slog.Attr) {
	s.inner.Warning(ctx, s.event(event), attrs...)
}

func (s ScopedReporter) Count(ctx context.Context, event string, n int64) {
	s.inner.Count(ctx, s.event(event), n)
}

var eventCounter, _ = otel.Meter("reviewharvest/lib/telemetry").Int64Counter(
	"harvest_events",
	metric.WithDescription("reported target outcomes, by event and severity"),
)

// SlogReporter logs events through the default logger and marks them on the
// span carried by ctx, so they line up with the target's trace.
type SlogReporter struct{}

func (SlogReporter) report(ctx context.Context, level slog.Level, severity, event string, attrs []slog.Attr) {
	trace.SpanFromContext(ctx).AddEvent(event, trace.WithAttributes(
		attribute.String("severity", severity),
	))
	eventCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event", event),
		attribute.String("severity", severity),
	))
	slog.LogAttrs(ctx, level, severity, append([]slog.Attr{slog.String("event", event)}, attrs...)...)
}

func (r SlogReporter) Broken(ctx context.Context, event string, attrs ...slog.Attr) {
	r.report(ctx, slog.LevelError, "broken target", event, attrs)
}

func (r SlogReporter) Warning(ctx context.Context, event string, attrs ...slog.Attr) {
	r.report(ctx, slog.LevelWarn, "partial target", event, attrs)
}

func (SlogReporter) Count(ctx context.Context, event string, n int64) {
	slog.InfoContext(ctx, "count", "event", event, "n", n)
}
