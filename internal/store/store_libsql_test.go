package store

import (
	"context"
	"sync"
	"testing"

	"reviewharvest/internal/extract"
	"reviewharvest/internal/store/db"
	configsqlite "reviewharvest/lib/configutil/sqlite"
	"reviewharvest/lib/testutil"

	"github.com/stretchr/testify/require"
)

func TestLibsqlConcurrentUpsert(t *testing.T) {
	url := testutil.StartLibsql(t)

	database, err := configsqlite.Struct{Url: url}.OpenDB(db.Schema)
	if err != nil {
		t.Fatal(err)
	}
	defer database.Close()

	ctx := context.Background()
	r := NewReconciler(database)

	const writers = 4
	ids := make([]int64, writers)
	oks := make([]bool, writers)
	var wg sync.WaitGroup
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids[i], oks[i] = r.UpsertProduct(ctx, extract.Product{Title: "Widget", ReviewsCount: i}, "https://shop.test/p/1")
		}()
	}
	wg.Wait()

	for i := range writers {
		require.True(t, oks[i])
		require.Equal(t, ids[0], ids[i])
	}

	review := extract.Review{ReviewerName: "amy", DateOfReview: "10/1/2024", VerifiedBuyer: "Yes"}
	require.True(t, r.UpsertReview(ctx, review, &ids[0]))
	require.False(t, r.UpsertReview(ctx, review, &ids[0]))

	products, err := r.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.Equal(t, 1, products[0].StoredReviews)
}
