// Package store reconciles scraped products and reviews with the database,
// keyed by their natural keys so repeated runs never duplicate rows.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"reviewharvest/internal/extract"
	"reviewharvest/internal/store/db"

	"github.com/PuerkitoBio/purell"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

var (
	tracer = otel.Tracer("reviewharvest/internal/store")
	meter  = otel.Meter("reviewharvest/internal/store")
)

var reviewsInserted, _ = meter.Int64Counter(
	"reviews_inserted",
	metric.WithDescription("number of new review rows written"),
)

var (
	ErrWriteFailed = errors.New("persistence write failed")
	ErrNotFound    = errors.New("not found")
)

const urlFlags = purell.FlagsSafe |
	purell.FlagRemoveFragment |
	purell.FlagSortQuery

// NormalizeURL returns the form of `raw` products are keyed by.
func NormalizeURL(raw string) (string, error) {
	return purell.NormalizeURLString(raw, urlFlags)
}

type Reconciler struct {
	qry    *db.Queries
	makeTx db.MakeTx
	now    func() time.Time
}

func NewReconciler(database *sql.DB) *Reconciler {
	return &Reconciler{
		qry:    db.New(database),
		makeTx: db.NewMakeTx(database),
		now:    time.Now,
	}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func fromNullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

func (r *Reconciler) upsertProduct(ctx context.Context, product extract.Product, key string) (id int64, err error) {
	txqry, discard, commit, err := r.makeTx(ctx)
	if err != nil {
		return 0, err
	}
	defer discard()

	scrapedAt := product.ScrapedAt
	if scrapedAt.IsZero() {
		scrapedAt = r.now()
	}

	id, err = txqry.GetProductIdByUrl(ctx, key)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		id, err = txqry.CreateProduct(ctx, db.CreateProductParams{
			Url:          key,
			Title:        product.Title,
			Brand:        nullString(product.Brand),
			Price:        nullString(product.Price),
			Ratings:      nullString(product.Ratings),
			ReviewsCount: int64(product.ReviewsCount),
			Description:  nullString(product.Description),
			ScrapedAt:    scrapedAt.Unix(),
		})
		if err != nil {
			return 0, fmt.Errorf("create product: %w", err)
		}
		slog.InfoContext(ctx, "inserted new product", "title", product.Title, "id", id)
	case err != nil:
		return 0, fmt.Errorf("get product id: %w", err)
	default:
		err = txqry.UpdateProductStats(ctx, db.UpdateProductStatsParams{
			Price:        nullString(product.Price),
			Ratings:      nullString(product.Ratings),
			ReviewsCount: int64(product.ReviewsCount),
			ScrapedAt:    scrapedAt.Unix(),
			ID:           id,
		})
		if err != nil {
			return 0, fmt.Errorf("update product: %w", err)
		}
		slog.InfoContext(ctx, "updated existing product", "title", product.Title, "id", id)
	}

	return id, commit()
}

// UpsertProduct creates the product keyed by `url` or refreshes its price,
// ratings and review count. Title, brand and description are kept from the
// first insert. It returns false if nothing could be written.
func (r *Reconciler) UpsertProduct(ctx context.Context, product extract.Product, url string) (int64, bool) {
	ctx, span := tracer.Start(ctx, "UpsertProduct")
	defer span.End()
	span.SetAttributes(attribute.String("url", url))

	id, err := r.upsertProductErr(ctx, product, url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to upsert product")
		slog.ErrorContext(ctx, "failed to upsert product", "title", product.Title, "url", url, "err", err)
		return 0, false
	}
	return id, true
}

func (r *Reconciler) upsertProductErr(ctx context.Context, product extract.Product, url string) (int64, error) {
	if !product.Complete() {
		return 0, fmt.Errorf("%w: product has no title", ErrWriteFailed)
	}
	key, err := NormalizeURL(url)
	if err != nil {
		return 0, fmt.Errorf("%w: normalize url: %w", ErrWriteFailed, err)
	}
	id, err := r.upsertProduct(ctx, product, key)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	return id, nil
}

type reviewOutcome int

const (
	reviewInserted reviewOutcome = iota
	reviewDuplicate
	reviewRejected
)

func (r *Reconciler) upsertReview(ctx context.Context, review extract.Review, productID int64) (reviewOutcome, error) {
	txqry, discard, commit, err := r.makeTx(ctx)
	if err != nil {
		return reviewRejected, err
	}
	defer discard()

	exists, err := txqry.ProductExists(ctx, productID)
	if err != nil {
		return reviewRejected, fmt.Errorf("check product: %w", err)
	}
	if exists == 0 {
		slog.WarnContext(ctx, "skipping review of unknown product", "reviewer", review.ReviewerName, "product_id", productID)
		return reviewRejected, nil
	}

	_, err = txqry.GetReviewId(ctx, db.GetReviewIdParams{
		ProductID:    productID,
		ReviewerName: review.ReviewerName,
		DateOfReview: review.DateOfReview,
	})
	if err == nil {
		slog.DebugContext(ctx, "review already exists, skipping", "reviewer", review.ReviewerName)
		return reviewDuplicate, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return reviewRejected, fmt.Errorf("get review id: %w", err)
	}

	verified := db.VerifiedNo
	if review.VerifiedBuyer == db.VerifiedYes {
		verified = db.VerifiedYes
	}
	id, err := txqry.CreateReview(ctx, db.CreateReviewParams{
		ProductID:     productID,
		ReviewerName:  review.ReviewerName,
		Rating:        int64(review.Rating),
		ReviewTitle:   review.ReviewTitle,
		ReviewBody:    review.ReviewBody,
		DateOfReview:  review.DateOfReview,
		VerifiedBuyer: verified,
	})
	if errors.Is(err, sql.ErrNoRows) {
		// another writer inserted the same review after the lookup
		slog.DebugContext(ctx, "review already exists, skipping", "reviewer", review.ReviewerName)
		return reviewDuplicate, nil
	}
	if err != nil {
		return reviewRejected, fmt.Errorf("create review: %w", err)
	}
	err = commit()
	if err != nil {
		return reviewRejected, err
	}

	slog.DebugContext(ctx, "inserted review", "reviewer", review.ReviewerName, "id", id)
	reviewsInserted.Add(ctx, 1)
	return reviewInserted, nil
}

// UpsertReview stores `review` under `productID` unless a review with the
// same reviewer and date already exists there. It reports whether a row was
// inserted, failures are logged and never returned.
func (r *Reconciler) UpsertReview(ctx context.Context, review extract.Review, productID *int64) bool {
	if productID == nil {
		slog.WarnContext(ctx, "skipping review because product id is nil", "reviewer", review.ReviewerName)
		return false
	}
	outcome, err := r.upsertReview(ctx, review, *productID)
	if err != nil {
		slog.WarnContext(ctx, "failed to upsert review", "reviewer", review.ReviewerName, "err", fmt.Errorf("%w: %w", ErrWriteFailed, err))
		return false
	}
	return outcome == reviewInserted
}

type ReconcileStats struct {
	Inserted int
	Skipped  int
	Failed   int
}

// UpsertReviews reconciles every review in turn, one failing does not stop
// the rest.
func (r *Reconciler) UpsertReviews(ctx context.Context, reviews []extract.Review, productID *int64) ReconcileStats {
	ctx, span := tracer.Start(ctx, "UpsertReviews")
	defer span.End()

	var stats ReconcileStats
	if productID == nil {
		slog.WarnContext(ctx, "skipping reviews because product id is nil", "count", len(reviews))
		stats.Failed = len(reviews)
		return stats
	}

	for _, review := range reviews {
		outcome, err := r.upsertReview(ctx, review, *productID)
		if err != nil {
			slog.WarnContext(ctx, "failed to upsert review", "reviewer", review.ReviewerName, "err", err)
			stats.Failed++
			continue
		}
		switch outcome {
		case reviewInserted:
			stats.Inserted++
		case reviewDuplicate:
			stats.Skipped++
		default:
			stats.Failed++
		}
	}

	span.SetAttributes(
		attribute.Int("inserted", stats.Inserted),
		attribute.Int("skipped", stats.Skipped),
		attribute.Int("failed", stats.Failed),
	)
	if stats.Failed > 0 {
		span.SetStatus(codes.Error, "some reviews failed to persist")
	}
	return stats
}

type StoredProduct struct {
	ID int64
	extract.Product
}

func (r *Reconciler) Product(ctx context.Context, url string) (StoredProduct, error) {
	key, err := NormalizeURL(url)
	if err != nil {
		return StoredProduct{}, err
	}
	row, err := r.qry.GetProductByUrl(ctx, key)
	if errors.Is(err, sql.ErrNoRows) {
		return StoredProduct{}, fmt.Errorf("product %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return StoredProduct{}, err
	}
	return StoredProduct{
		ID: row.ID,
		Product: extract.Product{
			URL:          row.Url,
			Title:        row.Title,
			Brand:        fromNullString(row.Brand),
			Price:        fromNullString(row.Price),
			Ratings:      fromNullString(row.Ratings),
			Description:  fromNullString(row.Description),
			ReviewsCount: int(row.ReviewsCount),
			ScrapedAt:    time.Unix(row.ScrapedAt, 0),
		},
	}, nil
}

// Reviews returns the stored reviews of a product in insertion order.
func (r *Reconciler) Reviews(ctx context.Context, productID int64) ([]extract.Review, error) {
	rows, err := r.qry.GetReviews(ctx, productID)
	if err != nil {
		return nil, err
	}
	reviews := make([]extract.Review, len(rows))
	for i, row := range rows {
		reviews[i] = extract.Review{
			ReviewerName:  row.ReviewerName,
			Rating:        int(row.Rating),
			ReviewTitle:   row.ReviewTitle,
			ReviewBody:    row.ReviewBody,
			DateOfReview:  row.DateOfReview,
			VerifiedBuyer: row.VerifiedBuyer,
			Index:         i,
		}
	}
	return reviews, nil
}

type ProductSummary struct {
	ID            int64
	URL           string
	Title         string
	ReviewsCount  int
	StoredReviews int
	ScrapedAt     time.Time
}

func (r *Reconciler) ListProducts(ctx context.Context) ([]ProductSummary, error) {
	rows, err := r.qry.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	products := make([]ProductSummary, len(rows))
	for i, row := range rows {
		products[i] = ProductSummary{
			ID:            row.ID,
			URL:           row.Url,
			Title:         row.Title,
			ReviewsCount:  int(row.ReviewsCount),
			StoredReviews: int(row.StoredReviews),
			ScrapedAt:     time.Unix(row.ScrapedAt, 0),
		}
	}
	return products, nil
}
