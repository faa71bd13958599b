package harvest

import (
	"context"
	"log/slog"
	"math/rand/v2"

	"reviewharvest/lib/render"

	"golang.org/x/sync/errgroup"
)

// Runner scrapes several targets at once, sharing only the store.
type Runner struct {
	Target Target
	// maximum targets in flight, values < 1 mean 1
	Concurrency int
	// one is picked at random for every target's session
	UserAgents []string
	// builds the page opener for a user agent, "" means the default agent
	NewOpener func(userAgent string) render.Opener
}

func (r Runner) userAgent() string {
	if len(r.UserAgents) == 0 {
		return ""
	}
	return r.UserAgents[rand.IntN(len(r.UserAgents))]
}

// Run scrapes every url, a failed target is logged and does not stop the
// others. Reports are returned in the order of `urls`.
func (r Runner) Run(ctx context.Context, urls []string) []TargetReport {
	limit := r.Concurrency
	if limit < 1 {
		limit = 1
	}

	reports := make([]TargetReport, len(urls))
	var group errgroup.Group
	group.SetLimit(limit)

	for i, url := range urls {
		target := r.Target
		if r.NewOpener != nil {
			target.Open = r.NewOpener(r.userAgent())
		}
		group.Go(func() error {
			report := target.Run(ctx, url)
			if report.Err != nil {
				slog.ErrorContext(ctx, "target failed", "url", url, "err", report.Err)
			}
			reports[i] = report
			return nil
		})
	}
	group.Wait()

	return reports
}
