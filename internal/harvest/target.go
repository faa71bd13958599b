package harvest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"reviewharvest/internal/extract"
	"reviewharvest/internal/selectors"
	"reviewharvest/internal/store"
	"reviewharvest/lib/render"
	"reviewharvest/lib/telemetry"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Reconciler persists what a target produced.
type Reconciler interface {
	UpsertProduct(ctx context.Context, product extract.Product, url string) (int64, bool)
	UpsertReviews(ctx context.Context, reviews []extract.Review, productID *int64) store.ReconcileStats
}

// Target scrapes one product url with a session of its own.
type Target struct {
	Open      render.Opener
	Selectors selectors.Map
	Navigator Navigator
	Reviews   ReviewHarvester
	Store     Reconciler
	Reporter  telemetry.Reporter
}

type TargetReport struct {
	URL       string
	ProductID int64
	Product   extract.Product
	Harvest   HarvestResult
	Stats     store.ReconcileStats
	Duration  time.Duration
	// set when the target produced nothing: navigation failed, the title was
	// missing or the product could not be written
	Err error
}

func (t Target) Run(ctx context.Context, url string) (report TargetReport) {
	ctx, span := tracer.Start(ctx, "Target")
	span.SetAttributes(attribute.String("url", url))
	report.URL = url

	var reporter telemetry.Reporter = telemetry.SlogReporter{}
	if t.Reporter != nil {
		reporter = t.Reporter
	}

	start := time.Now()
	defer func() {
		report.Duration = time.Since(start)
		if report.Err != nil {
			span.RecordError(report.Err)
			span.SetStatus(codes.Error, report.Err.Error())
		}
		span.End()
	}()

	session := render.NewSession(t.Open)
	defer func() {
		err := session.Close()
		if err != nil {
			slog.WarnContext(ctx, "failed to close session", "url", url, "err", err)
		}
	}()

	page, err := session.Acquire(ctx)
	if err != nil {
		report.Err = fmt.Errorf("%w: %w", ErrNavigationFailed, err)
		reporter.Broken(ctx, "session", slog.String("url", url), slog.Any("err", err))
		return report
	}

	if !t.Navigator.Navigate(ctx, page, url) {
		report.Err = fmt.Errorf("%w: %s", ErrNavigationFailed, url)
		reporter.Broken(ctx, "navigate", slog.String("url", url))
		return report
	}

	slog.InfoContext(ctx, "extracting product information", "url", url)
	product, err := extract.ReadProduct(ctx, page, t.Selectors.Product, url)
	report.Product = product
	if err != nil {
		slog.ErrorContext(ctx, "could not extract product information", "url", url, "err", err)
		report.Err = err
		reporter.Broken(ctx, "extract_product", slog.String("url", url), slog.Any("err", err))
		return report
	}

	productID, ok := t.Store.UpsertProduct(ctx, product, url)
	if !ok {
		report.Err = fmt.Errorf("%w: product %s", store.ErrWriteFailed, url)
		return report
	}
	report.ProductID = productID

	report.Harvest = t.Reviews.Harvest(ctx, page)
	if report.Harvest.State == Ceiling {
		reporter.Warning(ctx, "review_ceiling", slog.String("url", url), slog.Int("pages", report.Harvest.Pages))
	}
	if len(report.Harvest.Reviews) == 0 {
		slog.InfoContext(ctx, "no reviews to save", "url", url, "state", report.Harvest.State.String())
		return report
	}

	report.Stats = t.Store.UpsertReviews(ctx, report.Harvest.Reviews, &productID)
	reporter.Count(ctx, "reviews_saved", int64(report.Stats.Inserted))
	slog.InfoContext(
		ctx, fmt.Sprintf("successfully saved %d reviews", report.Stats.Inserted),
		"url", url,
		"skipped", report.Stats.Skipped,
		"failed", report.Stats.Failed,
		"pages", report.Harvest.Pages,
	)
	return report
}
