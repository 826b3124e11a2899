package pipeline

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"

	"github.com/JonMunkholm/dataclean/internal/core"
	"github.com/JonMunkholm/dataclean/internal/history"
	"github.com/JonMunkholm/dataclean/internal/logging"
)

// Runner executes the stages of one run in order and records the outcome
// in the run ledger.
//
// Stages run strictly sequentially and the first failure stops the chain.
// Finalizers run after the chain whatever its outcome, on a context that is
// not cancelled with the caller's, and their errors are only logged.
type Runner struct {
	stages     []Stage
	finalizers []Stage
	ledger     history.Store
	clock      clockwork.Clock
}

// Option configures a Runner.
type Option func(*Runner)

// WithFinalizers registers stages that run after every run.
func WithFinalizers(stages ...Stage) Option {
	return func(r *Runner) {
		r.finalizers = append(r.finalizers, stages...)
	}
}

// WithClock overrides the clock used for run timestamps.
func WithClock(clock clockwork.Clock) Option {
	return func(r *Runner) {
		r.clock = clock
	}
}

// NewRunner creates a runner over stages. A nil ledger keeps runs in memory.
func NewRunner(ledger history.Store, stages []Stage, opts ...Option) *Runner {
	if ledger == nil {
		ledger = history.NewMemoryStore()
	}
	r := &Runner{
		stages: stages,
		ledger: ledger,
		clock:  clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Ledger returns the store runs are recorded in.
func (r *Runner) Ledger() history.Store { return r.ledger }

// Run executes one run under runID. The returned Run is the final ledger
// state; the error is the first stage failure, prefixed with its stage name.
func (r *Runner) Run(ctx context.Context, runID string) (*history.Run, error) {
	ctx = logging.ContextWithRunID(ctx, runID)
	logger := logging.FromContext(ctx)

	run := &history.Run{
		ID:        runID,
		Status:    history.StatusRunning,
		StartedAt: r.clock.Now().UTC(),
	}
	if err := r.ledger.Create(ctx, run); err != nil {
		logger.Warn("failed to record run start", "error", err)
	}
	logger.Info("run started", "stages", len(r.stages))

	h := &Handoff{RunID: runID}

	var runErr error
	for _, stage := range r.stages {
		if err := ctx.Err(); err != nil {
			runErr = fmt.Errorf("%s: %w", stage.Name(), err)
			run.FailedStage = stage.Name()
			break
		}
		if err := r.runStage(ctx, stage, h); err != nil {
			runErr = fmt.Errorf("%s: %w", stage.Name(), err)
			run.FailedStage = stage.Name()
			break
		}
	}

	finalCtx := context.WithoutCancel(ctx)
	for _, stage := range r.finalizers {
		if err := r.runStage(finalCtx, stage, h); err != nil {
			logger.Warn("finalizer failed", "stage", stage.Name(), "error", err)
		}
	}

	finished := r.clock.Now().UTC()
	run.FinishedAt = &finished
	run.Stats = h.Stats
	run.CleanedObject = h.CleanedObject
	run.RejectsObject = h.RejectsObject
	if runErr != nil {
		run.Status = history.StatusFailed
		run.Error = runErr.Error()
		run.ErrorCode = core.MapError(runErr).Code
	} else {
		run.Status = history.StatusSucceeded
	}

	if err := r.ledger.Update(finalCtx, run); err != nil {
		logger.Warn("failed to record run outcome", "error", err)
	}

	if runErr != nil {
		logger.Error("run failed",
			"failed_stage", run.FailedStage,
			"error", runErr,
			"error_code", run.ErrorCode,
			"duration_ms", run.Duration().Milliseconds(),
		)
	} else {
		logger.Info("run succeeded", "duration_ms", run.Duration().Milliseconds())
	}

	return run, runErr
}

func (r *Runner) runStage(ctx context.Context, stage Stage, h *Handoff) error {
	logger := logging.WithFields(ctx, "stage", stage.Name())
	logger.Info("stage started")

	start := r.clock.Now()
	err := stage.Run(ctx, h)
	elapsed := r.clock.Since(start)

	if err != nil {
		logger.Error("stage failed", "error", err, "duration_ms", elapsed.Milliseconds())
		return err
	}
	logger.Info("stage completed", "duration_ms", elapsed.Milliseconds())
	return nil
}
