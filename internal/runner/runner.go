// Package runner executes the ordered stages of a run with one failure
// handler and a teardown that always runs.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sugarfunk/campaignshot/internal/logging"
)

// FailureHandler is called once with the error that stopped the run
type FailureHandler func(ctx context.Context, err error)

// TeardownFunc releases run resources
type TeardownFunc func(ctx context.Context) error

// Runner executes stages strictly in order
type Runner struct {
	stages    []Stage
	onFailure FailureHandler
	teardown  TeardownFunc
	logger    *logrus.Entry
	now       func() time.Time
}

// Option configures a Runner
type Option func(*Runner)

// WithFailureHandler sets the hook run after the first fatal error
func WithFailureHandler(h FailureHandler) Option {
	return func(r *Runner) { r.onFailure = h }
}

// WithTeardown sets the function run at the end of every run
func WithTeardown(fn TeardownFunc) Option {
	return func(r *Runner) { r.teardown = fn }
}

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// NewRunner creates a runner for stages
func NewRunner(logger *logrus.Entry, stages []Stage, opts ...Option) *Runner {
	if logger == nil {
		logger = logging.FromContext(context.Background())
	}
	r := &Runner{
		stages: stages,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes every stage. Errors from soft stages are logged and the run
// continues. The first fatal error or panic stops the run, calls the failure
// handler and is returned as a *StageError. Teardown runs once on every path.
func (r *Runner) Run(ctx context.Context) (report *Report, err error) {
	report = &Report{Started: r.now()}

	defer func() {
		r.runTeardown(ctx, report)
		report.Duration = r.now().Sub(report.Started)
	}()

	for _, stage := range r.stages {
		result, stageErr := r.execute(ctx, stage)
		if stageErr == nil {
			result.Status = StatusCompleted
			report.add(result)
			continue
		}

		if stage.Policy() == PolicySoft && !stageErr.Panicked {
			result.Status = StatusSoftFailed
			report.add(result)
			r.logger.WithField("stage", stage.ID().String()).
				WithError(stageErr.Err).
				Warn("Stage failed, continuing")
			continue
		}

		result.Status = StatusFailed
		report.add(result)
		r.logger.WithField("stage", stage.ID().String()).
			WithError(stageErr.Err).
			Error("Stage failed")
		r.fail(ctx, stageErr)
		return report, stageErr
	}

	return report, nil
}

func (r *Runner) execute(ctx context.Context, stage Stage) (result StageResult, stageErr *StageError) {
	id := stage.ID()
	result = StageResult{ID: id, Policy: stage.Policy()}

	stageCtx := logging.WithLogger(ctx, r.logger.WithField("stage", id.String()))
	start := r.now()

	defer func() {
		result.Duration = r.now().Sub(start)
		if rec := recover(); rec != nil {
			stageErr = &StageError{Stage: id, Err: panicError(rec), Panicked: true}
		}
		if stageErr != nil {
			result.Err = stageErr
		}
	}()

	r.logger.WithField("stage", id.String()).Debug("Stage starting")
	if err := stage.Run(stageCtx); err != nil {
		var se *StageError
		if errors.As(err, &se) {
			return result, se
		}
		return result, &StageError{Stage: id, Err: err}
	}
	return result, nil
}

// fail calls the failure handler. A panic inside it is logged so teardown
// still runs.
func (r *Runner) fail(ctx context.Context, err error) {
	if r.onFailure == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.WithError(panicError(rec)).Error("Failure handler panicked")
		}
	}()
	r.onFailure(logging.WithLogger(ctx, r.logger), err)
}

func (r *Runner) runTeardown(ctx context.Context, report *Report) {
	if r.teardown == nil {
		return
	}
	stage := StageFunc{StageID: StageTeardown, ErrorPolicy: PolicySoft, Fn: r.teardown}
	result, stageErr := r.execute(ctx, stage)
	if stageErr != nil {
		result.Status = StatusSoftFailed
		r.logger.WithField("stage", StageTeardown.String()).
			WithError(stageErr.Err).
			Warn("Teardown failed")
	} else {
		result.Status = StatusCompleted
	}
	report.add(result)
}

func panicError(rec interface{}) error {
	if err, ok := rec.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", rec)
}
