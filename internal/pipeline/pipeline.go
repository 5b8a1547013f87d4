package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/doralscan/internal/model"
)

// Step is one stage of a seed's run, such as crawling the directory or
// saving the finished run.
type Step interface {
	// Do runs the stage against report. Problems with single businesses
	// belong in the records; an error here means the run as a whole failed.
	Do(ctx context.Context, report *model.CrawlReport) error

	// Name identifies the step in logs and in report.PerformedSteps.
	Name() string
}

// Pipeline runs the steps of one seed in order.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger

	// keepPartial lets later steps run after a failure or cancellation.
	keepPartial bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. A nil logger keeps slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithPartialRuns makes the pipeline finish every step even when an
// earlier one failed or the context ended. The report then carries the
// error and the TimedOut flag into the save step, so an interrupted crawl
// is still stored. Execute still returns the first error.
//
// Design decision: Off by default. A partial run lists fewer businesses
// than the directory has, and history treats it as incomplete.
func WithPartialRuns(keep bool) Option {
	return func(p *Pipeline) {
		p.keepPartial = keep
	}
}

// New creates an empty Pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends step.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends steps in order.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs the steps in order and returns the first error.
//
// A context that ends between steps marks the report TimedOut. Without
// WithPartialRuns the pipeline stops at the first failure; with it, the
// remaining steps still run and see the recorded failure.
func (p *Pipeline) Execute(ctx context.Context, report *model.CrawlReport) error {
	var first error
	fail := func(err error) {
		if first == nil {
			first = err
			report.SetError(err)
		}
	}

	for _, step := range p.steps {
		if ctx.Err() != nil && first == nil {
			p.logger.Warn("run interrupted",
				"seed", report.SeedURL,
				"before", step.Name(),
				"reason", context.Cause(ctx),
			)
			report.TimedOut = true
			fail(context.Cause(ctx))
		}
		if first != nil && !p.keepPartial {
			return first
		}

		p.logger.Info("running step", "step", step.Name(), "seed", report.SeedURL)
		if err := step.Do(ctx, report); err != nil {
			p.logger.Error("step failed", "step", step.Name(), "seed", report.SeedURL, "error", err)
			fail(err)
			if !p.keepPartial {
				return first
			}
			continue
		}

		p.logger.Debug("step done", "step", step.Name(), "seed", report.SeedURL)
		report.PerformedSteps = append(report.PerformedSteps, step.Name())
	}
	return first
}

// StepCount returns the number of steps.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the step names in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
