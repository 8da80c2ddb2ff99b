package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/dirmirror/internal/model"
)

// Step is one stage of a mirror run.
type Step interface {
	// Do executes the step against the shared report. A returned error ends
	// the run; later steps are skipped.
	Do(ctx context.Context, report *model.MirrorReport) error

	// Name returns the step's name for logging and the report.
	Name() string
}

// Pipeline executes steps in order and stops at the first failure.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. slog.Default() is used otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
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

// AddStep appends a step.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends several steps in order.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// StepNames returns the step names in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, 0, len(p.steps))
	for _, step := range p.steps {
		names = append(names, step.Name())
	}
	return names
}

// Execute runs the steps in order, checking for cancellation before each.
// The first error is recorded in the report and returned; no later step runs.
func (p *Pipeline) Execute(ctx context.Context, report *model.MirrorReport) error {
	p.logger.Info("starting mirror run",
		"base_url", report.BaseURL,
		"steps", p.StepNames(),
	)

	for _, step := range p.steps {
		name := step.Name()
		if err := ctx.Err(); err != nil {
			p.logger.Warn("run cancelled before step", "step", name, "reason", err)
			p.record(report, err)
			return err
		}

		p.logger.Info("running step", "step", name)
		if err := step.Do(ctx, report); err != nil {
			p.logger.Error("step failed", "step", name, "error", err)
			p.record(report, err)
			return err
		}
		p.logger.Debug("step done", "step", name)
		report.PerformedSteps = append(report.PerformedSteps, name)
	}
	return nil
}

// record keeps the first error only.
func (p *Pipeline) record(report *model.MirrorReport, err error) {
	if report.Error != nil {
		return
	}
	report.Error = err
	report.ErrorMessage = err.Error()
}
