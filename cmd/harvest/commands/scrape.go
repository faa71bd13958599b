package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"reviewharvest/internal/harvest"
	"reviewharvest/internal/store"
	"reviewharvest/internal/store/db"
	"reviewharvest/lib/render"
	"reviewharvest/lib/render/docpage"
	"reviewharvest/lib/restyutil"
	"reviewharvest/lib/retry"
	"reviewharvest/lib/telemetry"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(scrapeCmd)
}

func newRunner(reconciler *store.Reconciler, output restyutil.InstrumentOutput) harvest.Runner {
	policy := retry.Policy{
		Attempts: config.Retry.Attempts,
		Delay:    config.Retry.Delay.Std(),
	}

	return harvest.Runner{
		Concurrency: config.Concurrency,
		UserAgents:  config.UserAgents,
		NewOpener: func(userAgent string) render.Opener {
			return docpage.Opener(docpage.Options{
				UserAgent:    userAgent,
				RateLimit:    config.Http.RateLimit,
				Bypass:       config.Http.Bypass,
				PollInterval: config.Http.PollInterval.Std(),
				Output:       output,
			})
		},
		Target: harvest.Target{
			Selectors: config.Selectors,
			Navigator: harvest.Navigator{
				Policy:          policy,
				LoadTimeout:     config.Navigation.LoadTimeout.Std(),
				LandmarkTimeout: config.Navigation.LandmarkTimeout.Std(),
				Landmark:        config.Selectors.Product.Title,
			},
			Reviews: harvest.ReviewHarvester{
				Selectors:        config.Selectors,
				Policy:           policy,
				ContainerTimeout: config.Navigation.LoadTimeout.Std(),
				MaxPages:         config.Pagination.MaxPages,
				Deadline:         config.Pagination.Deadline.Std(),
				JitterMin:        config.Pagination.JitterMin.Std(),
				JitterMax:        config.Pagination.JitterMax.Std(),
			},
			Store:     reconciler,
			Reporter:  telemetry.NewScopedReporter("harvest", telemetry.SlogReporter{}),
		},
	}
}

func printReports(reports []harvest.TargetReport) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Url", "Product", "Pages", "Stopped", "Inserted", "Skipped", "Failed", "Time", "Error"})
	for _, r := range reports {
		errText := ""
		if r.Err != nil {
			errText = r.Err.Error()
		}
		t.AppendRow(table.Row{
			r.URL,
			r.Product.Title,
			r.Harvest.Pages,
			r.Harvest.State.String(),
			r.Stats.Inserted,
			r.Stats.Skipped,
			r.Stats.Failed,
			r.Duration.Round(time.Second),
			errText,
		})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape [--config harvest.json5] [--db <path/to/output.db>] [url...]",
	Short: "Scrapes each product url and its reviews into the database.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		targets := config.Targets
		if len(args) > 0 {
			targets = args
		}
		if len(targets) == 0 {
			fatal("nothing to scrape", errors.New("no urls were given and the config has no targets"))
		}
		if config.Headless {
			slog.Info("'headless' has no effect, pages are fetched without a browser")
		}

		database, err := config.Database.OpenDB(db.Schema)
		if err != nil {
			fatal(fmt.Sprintf("failed to open database %s", config.Database), err)
		}
		defer database.Close()

		var output restyutil.InstrumentOutput
		if config.Http.DumpDir != "" {
			fsOutput, err := restyutil.NewFilesystemOutput(config.Http.DumpDir)
			if err != nil {
				fatal("failed to prepare http dump directory", err)
			}
			output = fsOutput
		}

		telemetry.InstrumentPerfStats(ctx, 15*time.Second)

		runner := newRunner(store.NewReconciler(database), output)

		slog.Info("starting the scraper", "targets", len(targets), "concurrency", config.Concurrency)
		t1 := time.Now()
		reports := runner.Run(ctx, targets)
		t2 := time.Now()
		slog.Info("scraping time", "seconds", t2.Sub(t1).Seconds())

		printReports(reports)

		failed := 0
		for _, r := range reports {
			if r.Err != nil {
				failed++
			}
		}
		if failed > 0 {
			database.Close()
			fatal("some targets failed", fmt.Errorf("%d of %d targets failed", failed, len(reports)))
		}
	},
}
