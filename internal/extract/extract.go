// Package extract reads product and review records from a rendered page.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"reviewharvest/internal/selectors"
	"reviewharvest/lib/render"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("reviewharvest/internal/extract")

var (
	ErrCriticalFieldMissing = errors.New("critical field missing")
	ErrItemExtractionFailed = errors.New("review extraction failed")
)

const NoRatingText = "No rating text"

type Product struct {
	URL   string
	Title string
	// optional fields are nil when they could not be read
	Brand        *string
	Price        *string
	Ratings      *string
	Description  *string
	ReviewsCount int
	ScrapedAt    time.Time
}

// Complete reports whether the product has its required fields.
func (p Product) Complete() bool {
	return p.Title != ""
}

type Review struct {
	ReviewerName  string
	Rating        int
	ReviewTitle   string
	ReviewBody    string
	DateOfReview  string
	VerifiedBuyer string
	// position on the page the review was read from
	Index int
}

var digitsRegex = regexp.MustCompile(`\d+`)

// ParseCount returns the first run of digits in `text`, ignoring thousands
// separators, or 0.
func ParseCount(text string) int {
	match := digitsRegex.FindString(strings.ReplaceAll(text, ",", ""))
	if match == "" {
		return 0
	}
	count, err := strconv.Atoi(match)
	if err != nil {
		return 0
	}
	return count
}

var ratingRegex = regexp.MustCompile(`rating-(\d+)`)

// ParseRating reads N from a `rating-N` class name, anything outside 0-5
// is 0.
func ParseRating(class string) int {
	match := ratingRegex.FindStringSubmatch(class)
	if match == nil {
		return 0
	}
	rating, err := strconv.Atoi(match[1])
	if err != nil || rating < 0 || rating > 5 {
		return 0
	}
	return rating
}

func optional(ctx context.Context, field string, read func() (string, error)) *string {
	value, err := read()
	if err != nil {
		slog.DebugContext(ctx, "optional field unavailable", "field", field, "err", err)
		return nil
	}
	return &value
}

// ReadProduct reads the product shown on `page`. Optional fields that fail
// are left nil, if the title cannot be read the returned product is not
// Complete and the error wraps ErrCriticalFieldMissing.
func ReadProduct(ctx context.Context, page render.Reader, sel selectors.Product, url string) (Product, error) {
	ctx, span := tracer.Start(ctx, "ReadProduct")
	defer span.End()
	span.SetAttributes(attribute.String("url", url))

	product := Product{URL: url}

	title, err := page.Text(ctx, sel.Title)
	if err == nil && title == "" {
		err = errors.New("title is empty")
	}
	if err != nil {
		err = fmt.Errorf("%w: title (%s): %w", ErrCriticalFieldMissing, sel.Title, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "title missing")
		return product, err
	}
	product.Title = title

	product.Brand = optional(ctx, "brand", func() (string, error) {
		return page.Text(ctx, sel.Brand)
	})
	product.Price = optional(ctx, "price", func() (string, error) {
		return page.Text(ctx, fmt.Sprintf(`%s strong:contains("$")`, sel.PriceContainer))
	})
	product.Ratings = optional(ctx, "ratings", func() (string, error) {
		ratings, err := page.Attr(ctx, sel.RatingElement, "title")
		if err != nil {
			return "", err
		}
		if ratings == "" {
			return NoRatingText, nil
		}
		return ratings, nil
	})

	countText := optional(ctx, "reviews_count", func() (string, error) {
		return page.Text(ctx, sel.ReviewsCount)
	})
	if countText != nil {
		product.ReviewsCount = ParseCount(*countText)
	}

	product.Description = optional(ctx, "description", func() (string, error) {
		bullets, err := page.Texts(ctx, sel.Description)
		if err != nil {
			return "", err
		}
		if len(bullets) == 0 {
			return "", render.ErrNotFound
		}
		return strings.Join(bullets, "\n"), nil
	})

	product.ScrapedAt = time.Now()
	return product, nil
}

// ReadReview reads one review item, any failure discards the whole review.
func ReadReview(ctx context.Context, item render.Reader, sel selectors.Reviews, index int) (Review, error) {
	review := Review{Index: index}

	class, err := item.Attr(ctx, sel.RatingIcon, "class")
	switch {
	case errors.Is(err, render.ErrNotFound):
		review.Rating = 0
	case err != nil:
		return Review{}, fmt.Errorf("%w: rating: %w", ErrItemExtractionFailed, err)
	default:
		review.Rating = ParseRating(class)
	}

	fields := []struct {
		name     string
		selector string
		dst      *string
	}{
		{"author", sel.Author, &review.ReviewerName},
		{"title", sel.Title, &review.ReviewTitle},
		{"body", sel.Body, &review.ReviewBody},
		{"date", sel.Date, &review.DateOfReview},
	}
	for _, f := range fields {
		value, err := item.Text(ctx, f.selector)
		if err != nil {
			return Review{}, fmt.Errorf("%w: %s: %w", ErrItemExtractionFailed, f.name, err)
		}
		*f.dst = value
	}

	verified, err := item.Visible(ctx, sel.VerifiedBadge)
	if err != nil {
		return Review{}, fmt.Errorf("%w: verified badge: %w", ErrItemExtractionFailed, err)
	}
	review.VerifiedBuyer = "No"
	if verified {
		review.VerifiedBuyer = "Yes"
	}

	return review, nil
}
