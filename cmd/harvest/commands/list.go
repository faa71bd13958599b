package commands

import (
	"os"

	"reviewharvest/internal/store"
	"reviewharvest/internal/store/db"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list [--db <path/to/output.db>]",
	Short: "Lists the stored products.",
	Run: func(cmd *cobra.Command, args []string) {
		database, err := config.Database.OpenDB(db.Schema)
		if err != nil {
			fatal("failed to open database", err)
		}
		defer database.Close()

		products, err := store.NewReconciler(database).ListProducts(cmd.Context())
		if err != nil {
			fatal("failed to list products", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Id", "Title", "Reviews", "Stored", "Scraped at", "Url"})
		for _, p := range products {
			t.AppendRow(table.Row{
				p.ID,
				p.Title,
				p.ReviewsCount,
				p.StoredReviews,
				p.ScrapedAt.Format("2006-01-02 15:04"),
				p.URL,
			})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
