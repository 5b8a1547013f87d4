package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/doralscan/internal/model"
	"golang.org/x/sync/errgroup"
)

// DefaultBatchConcurrency is the number of seeds crawled at once.
const DefaultBatchConcurrency = 1

// BatchProcessor crawls several directory seeds concurrently.
// It uses errgroup to manage goroutines and respect concurrency limits.
//
// Design decision: We use a separate BatchProcessor rather than adding batch
// functionality to Pipeline because:
// 1. It keeps the Pipeline focused on a single seed
// 2. One failed seed must not stop the others
type BatchProcessor struct {
	// pipelineFactory creates a new pipeline for each seed, so each seed
	// can carry its own selectors and waits.
	pipelineFactory func(seedURL string) *Pipeline

	// concurrency is the maximum number of concurrent seeds.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent seeds.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(pipelineFactory func(seedURL string) *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     DefaultBatchConcurrency,
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// ProcessBatch crawls every seed and returns one report per seed, in the
// order of seeds. Reports of failed seeds carry the error.
//
// The returned error is non-nil only when ctx ended before every seed ran.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, seeds []string) ([]*model.CrawlReport, error) {
	results := make([]*model.CrawlReport, len(seeds))
	err := bp.ProcessBatchWithCallback(ctx, seeds, func(report *model.CrawlReport, index int) {
		results[index] = report
	})
	return results, err
}

// ProcessBatchWithCallback crawls every seed and calls callback with each
// finished report and its index in seeds. The callback runs on the
// goroutine that finished the seed and must be safe for concurrent use.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	seeds []string,
	callback func(report *model.CrawlReport, index int),
) error {
	bp.logger.Info("starting batch processing",
		"total_seeds", len(seeds),
		"concurrency", bp.concurrency,
	)
	startTime := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, seed := range seeds {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			bp.logger.Info("crawling seed",
				"seed", seed,
				"index", i+1,
				"total", len(seeds),
			)

			report := model.NewCrawlReport(seed)
			if err := bp.pipelineFactory(seed).Execute(gctx, report); err != nil {
				// Other seeds keep running; the error is recorded in the report.
				bp.logger.Warn("seed failed", "seed", seed, "error", err)
			} else {
				bp.logger.Info("seed completed", "seed", seed, "records", len(report.Records))
			}

			callback(report, i)
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	bp.logger.Info("batch processing complete",
		"total_seeds", len(seeds),
		"elapsed", time.Since(startTime),
	)
	return err
}
