package extract

import (
	"context"
	"testing"

	"reviewharvest/internal/selectors"
	"reviewharvest/lib/render/docpage"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

const productPage = `<html><body>
<h1 class="product-title">AMD Ryzen 7 9800X3D</h1>
<div class="seller-store-link"><a><strong>AMD</strong></a></div>
<div class="form-option-item">
	<strong>$529.00</strong>
</div>
<div class="form-option-item is-selected">
	<span><strong>Bundle</strong></span>
	<span><strong>$479.00</strong></span>
</div>
<div class="product-rating">
	<i class="rating rating-5" title="4.8 out of 5 eggs"></i>
	<span class="item-rating-num">(1,302)</span>
</div>
<div class="product-bullets"><ul>
	<li>8 cores</li>
	<li>AM5 socket</li>
</ul></div>
</body></html>`

const reviewsPage = `<html><body><div class="comments">
<div class="comments-cell">
	<div class="comments-name">amy</div>
	<i class="rating rating-4"></i>
	<div class="comments-title"><span class="comments-title-content">Great</span><span class="comments-text">10/1/2024</span></div>
	<div class="comments-content">Runs cool.</div>
	<div class="comments-verified-owner">Verified Owner</div>
</div>
<div class="comments-cell">
	<div class="comments-name">bob</div>
	<div class="comments-title"><span class="comments-title-content">Meh</span><span class="comments-text">10/2/2024</span></div>
	<div class="comments-content">Fine.</div>
	<div class="comments-verified-owner" style="display:none">Verified Owner</div>
</div>
<div class="comments-cell">
	<div class="comments-name">carl</div>
	<i class="rating rating-3"></i>
</div>
</div></body></html>`

func ptr(s string) *string {
	return &s
}

func TestReadProduct(t *testing.T) {
	page, err := docpage.FromHTML("https://shop.test/p/1", productPage)
	require.NoError(t, err)

	product, err := ReadProduct(context.Background(), page, selectors.Default().Product, "https://shop.test/p/1")
	require.NoError(t, err)
	require.True(t, product.Complete())
	require.False(t, product.ScrapedAt.IsZero())

	expected := Product{
		URL:          "https://shop.test/p/1",
		Title:        "AMD Ryzen 7 9800X3D",
		Brand:        ptr("AMD"),
		Price:        ptr("$479.00"),
		Ratings:      ptr("4.8 out of 5 eggs"),
		Description:  ptr("8 cores\nAM5 socket"),
		ReviewsCount: 1302,
	}
	if diff := cmp.Diff(expected, product, cmpopts.IgnoreFields(Product{}, "ScrapedAt")); diff != "" {
		t.Fatal(diff)
	}
}

func TestReadProductPartial(t *testing.T) {
	page, err := docpage.FromHTML("https://shop.test/p/2", `<html><body>
		<h1 class="product-title">No Name Fan</h1>
		<div class="product-rating"><i class="rating"></i></div>
	</body></html>`)
	require.NoError(t, err)

	product, err := ReadProduct(context.Background(), page, selectors.Default().Product, "https://shop.test/p/2")
	require.NoError(t, err)
	require.True(t, product.Complete())
	require.Equal(t, "No Name Fan", product.Title)
	require.Nil(t, product.Brand)
	require.Nil(t, product.Price)
	require.Nil(t, product.Description)
	require.Equal(t, ptr(NoRatingText), product.Ratings)
	require.Equal(t, 0, product.ReviewsCount)
}

func TestReadProductMissingTitle(t *testing.T) {
	page, err := docpage.FromHTML("https://shop.test/p/3", `<html><body>
		<div class="seller-store-link"><strong>AMD</strong></div>
	</body></html>`)
	require.NoError(t, err)

	product, err := ReadProduct(context.Background(), page, selectors.Default().Product, "https://shop.test/p/3")
	require.ErrorIs(t, err, ErrCriticalFieldMissing)
	require.False(t, product.Complete())
	require.Nil(t, product.Brand)
}

func TestReadReview(t *testing.T) {
	ctx := context.Background()
	page, err := docpage.FromHTML("https://shop.test/p/1", reviewsPage)
	require.NoError(t, err)

	sel := selectors.Default().Reviews
	items, err := page.Elements(ctx, sel.Item)
	require.NoError(t, err)
	require.Len(t, items, 3)

	amy, err := ReadReview(ctx, items[0], sel, 0)
	require.NoError(t, err)
	require.Equal(t, Review{
		ReviewerName:  "amy",
		Rating:        4,
		ReviewTitle:   "Great",
		ReviewBody:    "Runs cool.",
		DateOfReview:  "10/1/2024",
		VerifiedBuyer: "Yes",
		Index:         0,
	}, amy)

	bob, err := ReadReview(ctx, items[1], sel, 1)
	require.NoError(t, err)
	require.Equal(t, 0, bob.Rating)
	require.Equal(t, "No", bob.VerifiedBuyer)
	require.Equal(t, 1, bob.Index)

	_, err = ReadReview(ctx, items[2], sel, 2)
	require.ErrorIs(t, err, ErrItemExtractionFailed)
}

func TestParseCount(t *testing.T) {
	cases := map[string]int{
		"(302)":         302,
		"1,234 reviews": 1234,
		"no reviews":    0,
		"":              0,
	}
	for text, expected := range cases {
		require.Equal(t, expected, ParseCount(text), text)
	}
}

func TestParseRating(t *testing.T) {
	cases := map[string]int{
		"rating rating-4":   4,
		"rating rating-5":   5,
		"rating rating-0":   0,
		"rating rating-9":   0,
		"rating rating-abc": 0,
		"":                  0,
	}
	for class, expected := range cases {
		require.Equal(t, expected, ParseRating(class), class)
	}
}
