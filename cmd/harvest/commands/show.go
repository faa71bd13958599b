package commands

import (
	"os"

	"reviewharvest/internal/store"
	"reviewharvest/internal/store/db"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

var showUrl *string

func init() {
	showUrl = showCmd.Flags().String("url", "", "The product url to show.")
	showCmd.MarkFlagRequired("url")
	rootCmd.AddCommand(showCmd)
}

func orDash(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

var showCmd = &cobra.Command{
	Use:   "show --url <product url> [--db <path/to/output.db>]",
	Short: "Prints a stored product and its reviews.",
	Run: func(cmd *cobra.Command, args []string) {
		database, err := config.Database.OpenDB(db.Schema)
		if err != nil {
			fatal("failed to open database", err)
		}
		defer database.Close()
		reconciler := store.NewReconciler(database)

		product, err := reconciler.Product(cmd.Context(), *showUrl)
		if err != nil {
			fatal("failed to get product", err)
		}
		reviews, err := reconciler.Reviews(cmd.Context(), product.ID)
		if err != nil {
			fatal("failed to get reviews", err)
		}

		info := table.NewWriter()
		info.SetOutputMirror(os.Stdout)
		info.AppendRows([]table.Row{
			{"Id", product.ID},
			{"Url", product.URL},
			{"Title", product.Title},
			{"Brand", orDash(product.Brand)},
			{"Price", orDash(product.Price)},
			{"Ratings", orDash(product.Ratings)},
			{"Reviews", product.ReviewsCount},
			{"Scraped at", product.ScrapedAt.Format("2006-01-02 15:04:05")},
			{"Description", orDash(product.Description)},
		})
		info.SetStyle(table.StyleRounded)
		info.Render()

		list := table.NewWriter()
		list.SetOutputMirror(os.Stdout)
		list.AppendHeader(table.Row{"Reviewer", "Rating", "Date", "Verified", "Title", "Review"})
		for _, r := range reviews {
			list.AppendRow(table.Row{
				r.ReviewerName,
				r.Rating,
				r.DateOfReview,
				r.VerifiedBuyer,
				r.ReviewTitle,
				text.WrapSoft(r.ReviewBody, 60),
			})
		}
		list.SetStyle(table.StyleRounded)
		list.Render()
	},
}
