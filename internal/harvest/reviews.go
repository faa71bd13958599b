package harvest

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"reviewharvest/internal/extract"
	"reviewharvest/internal/selectors"
	"reviewharvest/lib/render"
	"reviewharvest/lib/retry"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

// State is where the review walk is, or why it stopped.
type State int

const (
	AwaitingContainer State = iota
	HarvestingPage
	// a page had no review items
	Exhausted
	// there was no control for the next page
	LastPage
	// max pages or the deadline was reached
	Ceiling
	// an error interrupted the walk
	Aborted
)

func (s State) String() string {
	switch s {
	case AwaitingContainer:
		return "awaiting_container"
	case HarvestingPage:
		return "harvesting_page"
	case Exhausted:
		return "exhausted"
	case LastPage:
		return "last_page"
	case Ceiling:
		return "ceiling"
	case Aborted:
		return "aborted"
	}
	return "unknown"
}

var (
	reviewsHarvested, _ = meter.Int64Counter(
		"reviews_harvested",
		metric.WithDescription("number of reviews read from pages"),
	)
	pagesHarvested, _ = meter.Int64Counter(
		"pages_harvested",
		metric.WithDescription("number of review pages walked"),
	)
)

type HarvestResult struct {
	Reviews []extract.Review
	// number of pages whose items were read
	Pages int
	State State
}

// ReviewHarvester walks every page of a product's reviews.
type ReviewHarvester struct {
	Selectors selectors.Map
	Policy    retry.Policy
	// how long to wait for the review container after opening the tab
	ContainerTimeout time.Duration
	// pages to read at most, 0 means no limit
	MaxPages int
	// total time allowed for the walk, 0 means no limit
	Deadline  time.Duration
	JitterMin time.Duration
	JitterMax time.Duration
}

// unboundedMaxPages caps a walk that was given neither a page limit nor a
// deadline.
var unboundedMaxPages = 200

func (h ReviewHarvester) maxPages() int {
	if h.MaxPages <= 0 && h.Deadline <= 0 {
		return unboundedMaxPages
	}
	return h.MaxPages
}

func (h ReviewHarvester) jitter() time.Duration {
	if h.JitterMax <= h.JitterMin {
		return h.JitterMin
	}
	return h.JitterMin + rand.N(h.JitterMax-h.JitterMin)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h ReviewHarvester) dismissPromo(ctx context.Context, page render.Page) {
	if h.Selectors.Dialogs.ClosePromo == "" {
		return
	}
	visible, err := page.Visible(ctx, h.Selectors.Dialogs.ClosePromo)
	if err != nil || !visible {
		return
	}
	err = page.Click(ctx, h.Selectors.Dialogs.ClosePromo)
	if err != nil {
		slog.DebugContext(ctx, "failed to close promo dialog", "err", err)
	}
}

func (h ReviewHarvester) openReviews(ctx context.Context, page render.Page) bool {
	h.dismissPromo(ctx, page)

	sel := h.Selectors
	clicked := retry.DoErr(ctx, h.Policy, "click reviews tab", func(ctx context.Context) error {
		return page.Click(ctx, sel.Product.ReviewsLink)
	})
	if !clicked {
		slog.WarnContext(ctx, "could not open reviews tab, looking for reviews anyway")
	}

	return retry.DoErr(ctx, h.Policy, "wait for review container", func(ctx context.Context) error {
		return page.WaitVisible(ctx, sel.Reviews.Container, h.ContainerTimeout)
	})
}

// readPage extracts every item concurrently, failed items are dropped and
// the rest are returned in page order.
func (h ReviewHarvester) readPage(ctx context.Context, items []render.Element) []extract.Review {
	var (
		wg      sync.WaitGroup
		mutex   sync.Mutex
		reviews []extract.Review
	)
	for i, item := range items {
		wg.Add(1)
		go func() {
			defer wg.Done()
			review, err := extract.ReadReview(ctx, item, h.Selectors.Reviews, i)
			if err != nil {
				slog.InfoContext(ctx, "skipping a review due to an extraction error", "index", i, "err", err)
				return
			}
			mutex.Lock()
			reviews = append(reviews, review)
			mutex.Unlock()
		}()
	}
	wg.Wait()

	slices.SortFunc(reviews, func(a, b extract.Review) int {
		return a.Index - b.Index
	})
	return reviews
}

// Harvest collects the reviews on `page`, which must already show the
// product. It never fails, the result holds whatever was read before the
// walk stopped and the state it stopped in.
func (h ReviewHarvester) Harvest(ctx context.Context, page render.Page) (result HarvestResult) {
	ctx, span := tracer.Start(ctx, "HarvestReviews")
	defer func() {
		span.SetAttributes(
			attribute.Int("pages", result.Pages),
			attribute.Int("reviews", len(result.Reviews)),
			attribute.String("state", result.State.String()),
		)
		span.End()
	}()

	result.State = AwaitingContainer
	if !h.openReviews(ctx, page) {
		span.SetStatus(codes.Error, "review container never appeared")
		result.State = Aborted
		return result
	}

	maxPages := h.maxPages()
	var deadline time.Time
	if h.Deadline > 0 {
		deadline = time.Now().Add(h.Deadline)
	}

	result.State = HarvestingPage
	for current := 1; ; current++ {
		slog.DebugContext(ctx, "scraping reviews from page", "page", current)

		err := sleep(ctx, h.jitter())
		if err != nil {
			result.State = Aborted
			return result
		}

		items, err := page.Elements(ctx, h.Selectors.Reviews.Item)
		if err != nil {
			slog.ErrorContext(ctx, "failed to list review items", "page", current, "err", err)
			span.RecordError(err)
			result.State = Aborted
			return result
		}
		if len(items) == 0 {
			slog.InfoContext(ctx, "no reviews found on page, ending scrape", "page", current)
			result.State = Exhausted
			return result
		}

		reviews := h.readPage(ctx, items)
		result.Reviews = append(result.Reviews, reviews...)
		result.Pages = current
		pagesHarvested.Add(ctx, 1)
		reviewsHarvested.Add(ctx, int64(len(reviews)))

		next := h.Selectors.PageButton(current + 1)
		visible, err := page.Visible(ctx, next)
		if err != nil {
			slog.ErrorContext(ctx, "failed to look for next page", "page", current, "err", err)
			span.RecordError(err)
			result.State = Aborted
			return result
		}
		if !visible {
			slog.InfoContext(ctx, "last page of reviews reached", "page", current)
			result.State = LastPage
			return result
		}

		if maxPages > 0 && current >= maxPages {
			slog.WarnContext(ctx, "stopping at max pages, more reviews remain", "max_pages", maxPages)
			result.State = Ceiling
			return result
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			slog.WarnContext(ctx, "stopping at deadline, more reviews remain", "deadline", h.Deadline, "page", current)
			result.State = Ceiling
			return result
		}

		slog.InfoContext(ctx, "navigating to next page", "page", current+1)
		err = page.ClickAt(ctx, 5, 5)
		if err != nil {
			slog.DebugContext(ctx, "failed to dismiss overlays", "err", err)
		}
		err = page.Click(ctx, next)
		if err != nil {
			slog.ErrorContext(ctx, "failed to open next page", "page", current+1, "err", err)
			span.RecordError(err)
			result.State = Aborted
			return result
		}
	}
}
