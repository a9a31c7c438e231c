// Package scheduler runs a list of tasks one after another or as a bounded pool.
package scheduler

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	runerrors "github.com/mysticatea/npm-run-all-sub000/internal/errors"
	"github.com/mysticatea/npm-run-all-sub000/internal/model"
)

// Mode selects how tasks are scheduled: Sequential or Parallel
type Mode interface {
	isMode()
}

// Sequential runs tasks strictly in order
type Sequential struct{}

// Parallel runs tasks concurrently
type Parallel struct {
	// MaxParallel caps the number of running tasks; zero or less means no cap.
	MaxParallel int
	// Race aborts the remaining tasks as soon as one exits with code 0.
	Race bool
}

func (Sequential) isMode() {}
func (Parallel) isMode()   {}

// RunFunc runs the task at index to completion. When ctx is cancelled it must
// stop the task and return a result with a nil Code.
type RunFunc func(ctx context.Context, index int, task string) (model.ScriptResult, error)

// Options holds the policy shared by both modes
type Options struct {
	// ContinueOnError keeps launching tasks after a failure. The run still
	// reports the first failure once every task has finished.
	ContinueOnError bool
	Logger          *slog.Logger
}

// Run executes tasks according to mode.
//
// The returned results always hold one entry per task, in task order; tasks that
// never completed have a nil Code. If a task failed, the error is a
// *runerrors.ScriptError carrying the same results. If ctx is cancelled and no
// task failed, ctx.Err() is returned.
func Run(ctx context.Context, mode Mode, tasks []string, run RunFunc, opts Options) ([]model.ScriptResult, error) {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	s := &state{results: model.NewResults(tasks), opts: opts}
	switch m := mode.(type) {
	case Parallel:
		s.parallel(ctx, m, tasks, run)
	default:
		s.sequential(ctx, tasks, run)
	}

	if s.failure != nil {
		s.failure.Results = s.results
		return s.results, s.failure
	}
	if err := ctx.Err(); err != nil {
		return s.results, err
	}
	return s.results, nil
}

type state struct {
	mu      sync.Mutex
	results []model.ScriptResult
	failure *runerrors.ScriptError
	opts    Options
}

// store puts a result in its slot without judging it
func (s *state) store(index int, task string, result model.ScriptResult) {
	if result.Name == "" {
		result.Name = task
	}
	s.mu.Lock()
	s.results[index] = result
	s.mu.Unlock()
}

// record stores a task's result and reports whether it counts as a failure
func (s *state) record(index int, task string, result model.ScriptResult, err error) bool {
	if result.Name == "" {
		result.Name = task
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.results[index] = result
	if err == nil && !result.Failed() {
		return false
	}

	s.opts.Logger.Debug("task failed", "task", task, "code", result.Code, "error", err)
	if s.failure == nil {
		s.failure = &runerrors.ScriptError{Cause: result, Err: err}
	}
	return true
}

func (s *state) sequential(ctx context.Context, tasks []string, run RunFunc) {
	for i, task := range tasks {
		if ctx.Err() != nil {
			return
		}

		result, err := run(ctx, i, task)
		if s.record(i, task, result, err) && !s.opts.ContinueOnError {
			return
		}
	}
}

func (s *state) parallel(parent context.Context, mode Parallel, tasks []string, run RunFunc) {
	ctx, abort := context.WithCancel(parent)
	defer abort()

	var g errgroup.Group
	if mode.MaxParallel > 0 {
		g.SetLimit(mode.MaxParallel)
	}

	for i, task := range tasks {
		if ctx.Err() != nil {
			break
		}

		// blocks while the pool is full
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}

			result, err := run(ctx, i, task)
			if ctx.Err() != nil {
				// finished after an abort; whatever it reported is not a verdict
				s.store(i, task, result)
				return nil
			}

			failed := s.record(i, task, result, err)
			switch {
			case failed && !s.opts.ContinueOnError:
				s.opts.Logger.Debug("aborting remaining tasks", "cause", task)
				abort()
			case !failed && mode.Race && result.Succeeded():
				s.opts.Logger.Debug("race won, aborting remaining tasks", "winner", task)
				abort()
			}
			return nil
		})
	}
	_ = g.Wait()
}
