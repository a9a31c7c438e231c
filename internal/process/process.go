// Package process runs a single task as a child process of the script runner.
package process

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mysticatea/npm-run-all-sub000/internal/label"
	"github.com/mysticatea/npm-run-all-sub000/internal/manifest"
	"github.com/mysticatea/npm-run-all-sub000/internal/model"
	"github.com/mysticatea/npm-run-all-sub000/internal/ui"
)

// waitDelay bounds how long Wait keeps draining pipes held open by
// descendants after the child has exited.
const waitDelay = 2 * time.Second

// Options configures one task run
type Options struct {
	// Stdin, Stdout and Stderr of the task. A nil stream is discarded.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Dir    string

	// NpmPath overrides the script runner, see ResolveNpmPath.
	NpmPath       string
	PrefixOptions []string

	// Tee receives an unlabeled copy of stdout and stderr when set.
	Tee io.Writer

	// Label is the prefix for each output line; empty disables labeling.
	Label      string
	LabelState *label.State
	// StderrLabelState is used for stderr when it does not share a sink with stdout.
	StderrLabelState *label.State

	PrintName   bool
	PackageInfo *manifest.PackageInfo
	// Colors is used for the header; nil means no colors.
	Colors *ui.Colors

	Logger *slog.Logger
}

// Handle is a started task
type Handle struct {
	task   string
	cmd    *exec.Cmd
	start  time.Time
	logger *slog.Logger

	gates     []*gate
	aborted   atomic.Bool
	abortOnce sync.Once

	done   chan struct{}
	result model.ScriptResult
	err    error
}

// Start spawns task. Cancelling ctx aborts it.
// A spawn failure is returned as an error and no Handle is created.
func Start(ctx context.Context, task string, opts Options) (*Handle, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	npmPath := ResolveNpmPath(opts.NpmPath)
	exe, args, err := buildCommand(npmPath, opts.PrefixOptions, task)
	if err != nil {
		return nil, err
	}

	h := &Handle{
		task:   task,
		logger: logger,
		done:   make(chan struct{}),
	}

	stdout, stderr := opts.Stdout, opts.Stderr
	if opts.Label != "" && opts.LabelState != nil {
		if stdout != nil {
			stdout = label.NewWriter(stdout, opts.Label, opts.LabelState)
		}
		if stderr != nil {
			errState := opts.LabelState
			if opts.StderrLabelState != nil {
				errState = opts.StderrLabelState
			}
			stderr = label.NewWriter(stderr, opts.Label, errState)
		}
	}

	if opts.PrintName && stdout != nil {
		colors := opts.Colors
		if colors == nil {
			colors = ui.NewColors(false)
		}
		if _, err := io.WriteString(stdout, ui.TaskHeader(task, opts.PackageInfo, colors)); err != nil {
			return nil, fmt.Errorf("failed to write header for %s: %w", task, err)
		}
	}
	stdout, stderr = tee(stdout, opts.Tee), tee(stderr, opts.Tee)

	cmd := exec.Command(exe, args...)
	cmd.Dir = opts.Dir
	cmd.WaitDelay = waitDelay
	cmd.Stdin = opts.Stdin
	cmd.Stdout = h.output(stdout, os.Stdout)
	cmd.Stderr = h.output(stderr, os.Stderr)
	setProcessGroup(cmd)
	h.cmd = cmd

	logger.Debug("starting task", "task", task, "exe", exe, "args", args)
	h.start = time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", task, err)
	}

	stopRelay := relayInterrupt(h, isInherited(opts.Stdin, os.Stdin))
	stopWatch := context.AfterFunc(ctx, h.Abort)
	go func() {
		waitErr := cmd.Wait()
		stopWatch()
		stopRelay()
		h.finish(waitErr)
		close(h.done)
	}()
	return h, nil
}

// Run starts task and waits for it
func Run(ctx context.Context, task string, opts Options) (model.ScriptResult, error) {
	h, err := Start(ctx, task, opts)
	if err != nil {
		return model.ScriptResult{Name: task}, err
	}
	return h.Wait()
}

// output picks how one output stream reaches its destination. The process's
// own terminal is handed to the child directly; anything else goes through a
// pipe that abort can shut.
func (h *Handle) output(w io.Writer, own *os.File) io.Writer {
	if w == nil {
		return nil
	}
	if isInherited(w, own) {
		return own
	}
	g := &gate{w: w}
	h.gates = append(h.gates, g)
	return g
}

func tee(w, dup io.Writer) io.Writer {
	switch {
	case dup == nil:
		return w
	case w == nil:
		return dup
	}
	return io.MultiWriter(w, dup)
}

func isInherited(stream any, own *os.File) bool {
	f, ok := stream.(*os.File)
	return ok && f == own && ui.IsTerminal(f)
}

func (h *Handle) finish(waitErr error) {
	h.result = model.ScriptResult{
		Name:      h.task,
		StartTime: h.start,
		Duration:  time.Since(h.start),
	}

	state := h.cmd.ProcessState
	switch {
	case h.aborted.Load():
		h.logger.Debug("task aborted", "task", h.task)
	case state != nil:
		code := state.ExitCode()
		if code < 0 {
			// terminated by a signal that we did not send
			code = 1
		}
		h.result.Code = &code
		h.logger.Debug("task exited", "task", h.task, "code", code, "duration", h.result.Duration)
	default:
		h.err = fmt.Errorf("task %s: %w", h.task, waitErr)
	}
}

// Wait blocks until the task has exited and returns its result.
// The result's Code is nil if the task was aborted.
func (h *Handle) Wait() (model.ScriptResult, error) {
	<-h.done
	return h.result, h.err
}

// Done is closed once the task has exited
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Pid returns the process ID of the script runner
func (h *Handle) Pid() int {
	return h.cmd.Process.Pid
}

// Abort kills the task and all of its descendants. Further output is dropped.
// Calling Abort more than once, or after the task exited, has no effect.
func (h *Handle) Abort() {
	h.abortOnce.Do(func() {
		select {
		case <-h.done:
			return
		default:
		}

		h.aborted.Store(true)
		for _, g := range h.gates {
			g.close()
		}
		if err := killTree(h.cmd.Process); err != nil {
			h.logger.Debug("failed to kill task", "task", h.task, "pid", h.cmd.Process.Pid, "error", err)
		}
	})
}

// gate forwards writes until closed, then swallows them so the pipe drains
type gate struct {
	mu     sync.Mutex
	w      io.Writer
	closed bool
}

func (g *gate) Write(p []byte) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return len(p), nil
	}
	return g.w.Write(p)
}

func (g *gate) close() {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()
}
