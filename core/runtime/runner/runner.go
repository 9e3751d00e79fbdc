// Package runner wraps the engine with execution logging: every attempt,
// successful or not, produces exactly one Execution row.
package runner

import (
	"context"
	"time"

	"github.com/mongopad/mongopad/core/domain"
	"github.com/mongopad/mongopad/core/logger"
	"github.com/mongopad/mongopad/core/shared/errors"
	"github.com/mongopad/mongopad/core/storage"
)

// Executor evaluates one script and returns its normalized result
type Executor interface {
	Execute(ctx context.Context, code string, kind domain.ScriptType) (any, error)
}

// Outcome is a successful run: the normalized result and its timing
type Outcome struct {
	Result     any
	DurationMs int64
}

// Runner measures wall-clock duration around the engine call and persists
// the outcome regardless of success or failure
type Runner struct {
	executor Executor
	store    storage.Store
	log      *logger.Logger
}

// New creates a runner over an executor and a history store
func New(executor Executor, store storage.Store) *Runner {
	return &Runner{
		executor: executor,
		store:    store,
		log:      logger.New("runner"),
	}
}

// Run executes code, records one Execution row, and re-surfaces the
// original result or error unchanged. scriptID is recorded when the run
// came from a saved script; ad-hoc runs pass nil. A failed history write
// after a successful run is logged but never masks the success.
func (r *Runner) Run(ctx context.Context, code string, kind domain.ScriptType, scriptID *int) (*Outcome, error) {
	start := time.Now()
	result, execErr := r.executor.Execute(ctx, code, kind)
	durationMs := time.Since(start).Milliseconds()

	if execErr != nil {
		record := domain.NewExecution{
			ScriptID:   scriptID,
			Status:     domain.ExecutionStatusError,
			Result:     map[string]any{"error": errors.Message(execErr)},
			DurationMs: durationMs,
		}
		if _, logErr := r.store.LogExecution(ctx, record); logErr != nil {
			r.log.PrintError("Failed to record failed execution", logErr)
		}
		return nil, execErr
	}

	record := domain.NewExecution{
		ScriptID:   scriptID,
		Status:     domain.ExecutionStatusSuccess,
		Result:     result,
		DurationMs: durationMs,
	}
	if _, logErr := r.store.LogExecution(ctx, record); logErr != nil {
		r.log.PrintError("Failed to record successful execution", logErr)
	}

	return &Outcome{Result: result, DurationMs: durationMs}, nil
}
