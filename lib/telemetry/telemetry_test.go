package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type recordedEvent struct {
	severity string
	event    string
	attrs    []slog.Attr
}

type recordingReporter struct {
	events []recordedEvent
}

func (r *recordingReporter) Broken(ctx context.Context, event string, attrs ...slog.Attr) {
	r.events = append(r.events, recordedEvent{severity: "broken", event: event, attrs: attrs})
}

func (r *recordingReporter) Warning(ctx context.Context, event string, attrs ...slog.Attr) {
	r.events = append(r.events, recordedEvent{severity: "warning", event: event, attrs: attrs})
}

func (r *recordingReporter) Count(ctx context.Context, event string, n int64) {
	r.events = append(r.events, recordedEvent{severity: "count", event: event, attrs: []slog.Attr{slog.Int64("n", n)}})
}

func TestScopedReporter(t *testing.T) {
	ctx := context.Background()
	inner := &recordingReporter{}
	scoped := NewScopedReporter("harvest", inner)

	scoped.Broken(ctx, "navigate", slog.String("url", "https://example.com"))
	scoped.Warning(ctx, "review_ceiling", slog.Int("pages", 3))
	scoped.Count(ctx, "reviews_saved", 12)

	require.Equal(t, []recordedEvent{
		{severity: "broken", event: "harvest:navigate", attrs: []slog.Attr{slog.String("url", "https://example.com")}},
		{severity: "warning", event: "harvest:review_ceiling", attrs: []slog.Attr{slog.Int("pages", 3)}},
		{severity: "count", event: "harvest:reviews_saved", attrs: []slog.Attr{slog.Int64("n", 12)}},
	}, inner.events)
}

func TestSlogReporterKeepsContext(t *testing.T) {
	var file bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&file, nil)))
	defer slog.SetDefault(previous)

	provider := sdktrace.NewTracerProvider()
	defer provider.Shutdown(context.Background())
	ctx, span := provider.Tracer("test").Start(context.Background(), "Target")
	defer span.End()

	SlogReporter{}.Broken(ctx, "harvest:navigate", slog.String("url", "https://example.com"))

	var record map[string]any
	err := json.Unmarshal(file.Bytes(), &record)
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, "ERROR", record["level"])
	require.Equal(t, "broken target", record["msg"])
	require.Equal(t, "harvest:navigate", record["event"])
	require.Equal(t, "https://example.com", record["url"])

	readOnly, ok := span.(sdktrace.ReadOnlySpan)
	require.True(t, ok)
	events := readOnly.Events()
	require.Len(t, events, 1)
	require.Equal(t, "harvest:navigate", events[0].Name)
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	require.Equal(t, slog.LevelError, ParseLevel("error"))
	require.Equal(t, slog.LevelInfo, ParseLevel(""))
	require.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestHandlerFanout(t *testing.T) {
	var console bytes.Buffer
	var file bytes.Buffer
	logger := slog.New(NewHandler(&console, &file, slog.LevelInfo))

	logger.With("target", "https://example.com").Info("saved reviews", "n", 4)
	logger.Debug("not written")

	require.Contains(t, console.String(), "saved reviews")
	require.NotContains(t, console.String(), "not written")

	lines := strings.Split(strings.TrimSpace(file.String()), "\n")
	require.Len(t, lines, 1)

	var record map[string]any
	err := json.Unmarshal([]byte(lines[0]), &record)
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, "saved reviews", record["msg"])
	require.Equal(t, "https://example.com", record["target"])
	require.EqualValues(t, 4, record["n"])
}

func TestShutdownZero(t *testing.T) {
	require.NoError(t, Telemetry{}.Shutdown(context.Background()))
}
