package crawler

import (
	"context"
	"log/slog"

	"github.com/nao1215/doralscan/internal/fetcher"
)

// withResource fetches req and runs fn on the page. Any resource returned by
// the fetch is released when withResource returns, whether the fetch failed,
// fn failed or fn panicked.
func (o *Orchestrator) withResource(ctx context.Context, req fetcher.Request, fn func(*fetcher.Page) error) error {
	page, res, err := o.fetcher.Fetch(ctx, req)
	if res != nil {
		defer func() {
			if rerr := o.fetcher.Release(res); rerr != nil {
				o.logger.Warn("failed to release resource",
					slog.String("url", req.URL),
					slog.String("error", rerr.Error()))
			}
		}()
	}
	if err != nil {
		return err
	}
	return fn(page)
}
