package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/doralscan/internal/crawler"
	"github.com/nao1215/doralscan/internal/model"
)

// CrawlStep crawls the report's seed directory and collects every
// finalized record into the report.
//
// Design decision: The step owns no fetch state of its own. The
// orchestrator it wraps holds the fetcher, so several seeds can share
// one page cap while each seed gets its own selectors and waits.
type CrawlStep struct {
	// orchestrator performs the directory crawl.
	orchestrator *crawler.Orchestrator

	// sinks receive each record in addition to the report.
	sinks []crawler.Sink

	// logger for structured logging.
	logger *slog.Logger
}

// CrawlStepOption configures a CrawlStep.
type CrawlStepOption func(*CrawlStep)

// WithCrawlSinks adds sinks that receive each record as it is finalized.
func WithCrawlSinks(sinks ...crawler.Sink) CrawlStepOption {
	return func(s *CrawlStep) {
		s.sinks = append(s.sinks, sinks...)
	}
}

// WithCrawlLogger sets a custom logger for the crawl step.
func WithCrawlLogger(logger *slog.Logger) CrawlStepOption {
	return func(s *CrawlStep) {
		s.logger = logger
	}
}

// NewCrawlStep creates a crawl step around orchestrator.
func NewCrawlStep(orchestrator *crawler.Orchestrator, opts ...CrawlStepOption) *CrawlStep {
	s := &CrawlStep{
		orchestrator: orchestrator,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *CrawlStep) Name() string {
	return "crawl"
}

// Do executes the crawl. Stats and the finish time are recorded even
// when the crawl fails.
func (s *CrawlStep) Do(ctx context.Context, report *model.CrawlReport) error {
	sink := crawler.MultiSink{crawler.ReportSink(report)}
	sink = append(sink, s.sinks...)

	stats, err := s.orchestrator.Crawl(ctx, report.SeedURL, sink)
	report.Stats = stats
	report.FinishedAt = time.Now()

	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			report.TimedOut = true
		}
		return fmt.Errorf("crawl %s: %w", report.SeedURL, err)
	}

	s.logger.Debug("crawl step finished",
		"seed", report.SeedURL,
		"records", len(report.Records),
		"phones", stats.PhonesFound,
	)
	return nil
}

// RunStore persists finished runs.
type RunStore interface {
	SaveCrawlReport(ctx context.Context, report *model.CrawlReport) error
}

// SaveStep stores the run in the history database.
type SaveStep struct {
	store  RunStore
	logger *slog.Logger
}

// NewSaveStep creates a step that saves runs to store.
func NewSaveStep(store RunStore, logger *slog.Logger) *SaveStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &SaveStep{store: store, logger: logger}
}

// Name returns the step name.
func (s *SaveStep) Name() string {
	return "save"
}

// Do saves the report. A cancelled context does not stop the save of a
// run that already finished.
func (s *SaveStep) Do(ctx context.Context, report *model.CrawlReport) error {
	if err := s.store.SaveCrawlReport(context.WithoutCancel(ctx), report); err != nil {
		return fmt.Errorf("save run %s: %w", report.RunID, err)
	}
	s.logger.Debug("run saved", "seed", report.SeedURL, "run_id", report.RunID)
	return nil
}

// DefaultPipeline creates the standard per-seed pipeline: crawl, then save
// when store is non-nil.
func DefaultPipeline(orchestrator *crawler.Orchestrator, store RunStore, pipelineOpts []Option, crawlOpts ...CrawlStepOption) *Pipeline {
	p := New(pipelineOpts...)
	p.AddStep(NewCrawlStep(orchestrator, append([]CrawlStepOption{WithCrawlLogger(p.logger)}, crawlOpts...)...))
	if store != nil {
		p.AddStep(NewSaveStep(store, p.logger))
	}
	return p
}
