package harvest

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"reviewharvest/lib/render"
	"reviewharvest/lib/retry"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var ErrNavigationFailed = errors.New("navigation failed")

// Navigator brings a page to the point where its landmark element is
// visible.
type Navigator struct {
	Policy retry.Policy
	// time allowed for the document itself to load
	LoadTimeout time.Duration
	// time allowed for the landmark to show up once the document is loaded
	LandmarkTimeout time.Duration
	Landmark        string
}

// Navigate opens `url` on `page` and reports whether it became ready. A
// landmark timeout retries the whole navigation.
func (n Navigator) Navigate(ctx context.Context, page render.Page, url string) bool {
	ctx, span := tracer.Start(ctx, "Navigate")
	defer span.End()
	span.SetAttributes(attribute.String("url", url))

	slog.InfoContext(ctx, "navigating to page", "url", url)
	result := retry.Run(ctx, n.Policy, "navigate to page", func(ctx context.Context) (struct{}, error) {
		err := page.Open(ctx, url, render.WaitStructure, n.LoadTimeout)
		if err != nil {
			return struct{}{}, err
		}
		return struct{}{}, page.WaitVisible(ctx, n.Landmark, n.LandmarkTimeout)
	})
	span.SetAttributes(attribute.Int("attempts", result.Attempts))

	if !result.Ok() {
		span.RecordError(result.Err)
		span.SetStatus(codes.Error, "page never became ready")
		return false
	}
	slog.InfoContext(ctx, "page is ready", "url", url)
	return true
}
