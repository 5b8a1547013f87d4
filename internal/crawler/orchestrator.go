package crawler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/nao1215/doralscan/internal/directory"
	"github.com/nao1215/doralscan/internal/fetcher"
	"github.com/nao1215/doralscan/internal/model"
	"github.com/nao1215/doralscan/internal/phone"
)

// Default wait selectors.
const (
	// DefaultDirectoryWait is awaited on the directory page.
	DefaultDirectoryWait = directory.DefaultBlockSelector

	// DefaultSiteWait is awaited on each business website.
	DefaultSiteWait = "body"

	// DefaultConcurrency is the number of follow-ups in flight.
	DefaultConcurrency = 4
)

// Orchestrator drives the directory crawl.
type Orchestrator struct {
	// fetcher retrieves pages and owns their resources.
	fetcher fetcher.Fetcher

	// logger receives follow-up failures and progress.
	logger *slog.Logger

	// concurrency bounds the number of follow-ups in flight.
	concurrency int

	// limiter spaces out follow-up dispatches. Nil means no limit.
	limiter *rate.Limiter

	// directoryWait is the wait selector for the directory page.
	directoryWait string

	// siteWait is the wait selector for business websites.
	siteWait string

	// selectors override the directory parser's selectors.
	selectors *directory.Selectors

	// extractor finds phone numbers in website text.
	extractor *phone.Extractor

	// directoryHeaders are sent with the directory request only.
	directoryHeaders map[string]string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithConcurrency sets how many follow-ups run at once.
// The fetcher's own resource cap still applies.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithRateLimit spaces follow-up dispatches to at most r per second with
// the given burst.
func WithRateLimit(r rate.Limit, burst int) Option {
	return func(o *Orchestrator) {
		if r <= 0 || r == rate.Inf {
			o.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		o.limiter = rate.NewLimiter(r, burst)
	}
}

// WithDirectoryWait sets the selector awaited on the directory page.
func WithDirectoryWait(selector string) Option {
	return func(o *Orchestrator) {
		o.directoryWait = selector
	}
}

// WithSiteWait sets the selector awaited on each business website.
func WithSiteWait(selector string) Option {
	return func(o *Orchestrator) {
		o.siteWait = selector
	}
}

// WithDirectoryHeaders sets headers, such as a session cookie, sent with
// the directory request. They are never sent to business websites.
func WithDirectoryHeaders(headers map[string]string) Option {
	return func(o *Orchestrator) {
		o.directoryHeaders = headers
	}
}

// WithSelectors overrides the directory selectors.
func WithSelectors(s directory.Selectors) Option {
	return func(o *Orchestrator) {
		o.selectors = &s
	}
}

// WithExtractor sets the phone extractor.
func WithExtractor(e *phone.Extractor) Option {
	return func(o *Orchestrator) {
		if e != nil {
			o.extractor = e
		}
	}
}

// NewOrchestrator creates an Orchestrator that fetches through f.
func NewOrchestrator(f fetcher.Fetcher, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		fetcher:       f,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		concurrency:   DefaultConcurrency,
		directoryWait: DefaultDirectoryWait,
		siteWait:      DefaultSiteWait,
		extractor:     phone.NewExtractor(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// followUp is a business whose website is still to be fetched, with the
// absolute URL its website resolved to against the directory page.
type followUp struct {
	record model.BusinessRecord
	target string
}

func newFollowUp(parser *directory.Parser, record model.BusinessRecord) (followUp, error) {
	target, err := parser.ResolveWebsite(record.WebsiteOrEmpty())
	if err != nil {
		return followUp{record: record}, err
	}
	return followUp{record: record, target: target}, nil
}

// Crawl fetches the directory at seedURL, follows every business website
// and emits each finalized record to sink. It returns when every discovered
// business has been emitted, the context is cancelled, or the sink fails.
func (o *Orchestrator) Crawl(ctx context.Context, seedURL string, sink Sink) (model.CrawlStats, error) {
	em := &emitter{sink: sink}

	var parserOpts []directory.ParserOption
	if o.selectors != nil {
		parserOpts = append(parserOpts, directory.WithSelectors(*o.selectors))
	}
	parser, err := directory.NewParser(seedURL, parserOpts...)
	if err != nil {
		return em.snapshot(), fmt.Errorf("%w: %w", ErrSeedFetch, err)
	}

	o.logger.Info("fetching directory", slog.String("url", seedURL))

	var doc *goquery.Document
	err = o.withResource(ctx, fetcher.Request{URL: seedURL, WaitSelector: o.directoryWait, Headers: o.directoryHeaders}, func(page *fetcher.Page) error {
		d, err := parser.Parse(strings.NewReader(page.HTML))
		if err != nil {
			return err
		}
		doc = d
		return nil
	})
	if err != nil {
		o.logger.Error("failed to fetch directory",
			slog.String("url", seedURL),
			slog.String("error", err.Error()))
		return em.snapshot(), fmt.Errorf("%w: %w", ErrSeedFetch, err)
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)

	var loopErr error
	for record := range parser.Records(doc) {
		if err := gctx.Err(); err != nil {
			loopErr = context.Cause(gctx)
			break
		}
		em.discovered()

		if !record.HasWebsite() {
			if err := em.emit(gctx, record.Finalize(model.StatusNoWebsite, nil, "")); err != nil {
				loopErr = err
				cancel(err)
				break
			}
			o.logger.Debug("business without website", slog.String("name", record.NameOrEmpty()))
			continue
		}

		task, err := newFollowUp(parser, record)
		em.scheduled()
		if err != nil {
			// Nothing to fetch, so no slot and no rate limit wait.
			if err := o.fail(gctx, task, em, err); err != nil {
				loopErr = err
				cancel(err)
				break
			}
			continue
		}

		if o.limiter != nil {
			if err := o.limiter.Wait(gctx); err != nil {
				loopErr = err
				break
			}
		}

		g.Go(func() error {
			return o.runFollowUp(gctx, task, em)
		})
	}

	waitErr := g.Wait()
	stats := em.snapshot()

	switch {
	case waitErr != nil:
		return stats, waitErr
	case loopErr != nil:
		return stats, loopErr
	}

	o.logger.Info("directory crawl finished",
		slog.String("url", seedURL),
		slog.Int("businesses", stats.Discovered),
		slog.Int("follow_up_failures", stats.FollowUpFailures),
		slog.Int("phones", stats.PhonesFound))
	return stats, nil
}

// runFollowUp fetches the task's website and emits the finalized record.
// Only sink errors and cancellation are returned; fetch failures are
// recorded on the emitted record.
func (o *Orchestrator) runFollowUp(ctx context.Context, task followUp, em *emitter) error {
	var phones model.PhoneSet
	err := o.withResource(ctx, fetcher.Request{URL: task.target, WaitSelector: o.siteWait}, func(page *fetcher.Page) error {
		text, err := directory.VisibleText(strings.NewReader(page.HTML))
		if err != nil {
			return err
		}
		phones = o.extractor.Extract(text)
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return context.Cause(ctx)
		}
		return o.fail(ctx, task, em, err)
	}

	o.logger.Debug("website fetched",
		slog.String("website", task.target),
		slog.Int("phones", phones.Len()))
	return em.emit(ctx, task.record.Finalize(model.StatusFetched, phones, ""))
}

// fail logs a follow-up failure and emits the record without phones.
func (o *Orchestrator) fail(ctx context.Context, task followUp, em *emitter, cause error) error {
	o.logger.Error("failed to fetch business website",
		slog.String("name", task.record.NameOrEmpty()),
		slog.String("website", task.record.WebsiteOrEmpty()),
		slog.String("target", task.target),
		slog.String("error", cause.Error()))

	em.failed()
	return em.emit(ctx, task.record.Finalize(model.StatusFailed, nil, cause.Error()))
}

// emitter serializes sink calls and keeps the crawl statistics.
type emitter struct {
	sink Sink

	mu    sync.Mutex
	stats model.CrawlStats
}

func (e *emitter) emit(ctx context.Context, record model.BusinessRecord) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.sink != nil {
		if err := e.sink.Emit(ctx, record); err != nil {
			return fmt.Errorf("emit %q: %w", record.NameOrEmpty(), err)
		}
	}
	e.stats.Emitted++
	e.stats.PhonesFound += record.Phones.Len()
	if record.Status == model.StatusNoWebsite {
		e.stats.NoWebsite++
	}
	return nil
}

func (e *emitter) discovered() {
	e.mu.Lock()
	e.stats.Discovered++
	e.mu.Unlock()
}

func (e *emitter) scheduled() {
	e.mu.Lock()
	e.stats.FollowUps++
	e.mu.Unlock()
}

func (e *emitter) failed() {
	e.mu.Lock()
	e.stats.FollowUpFailures++
	e.mu.Unlock()
}

func (e *emitter) snapshot() model.CrawlStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}
