// Package runall resolves task patterns and runs the matching tasks.
package runall

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/mysticatea/npm-run-all-sub000/internal/args"
	runerrors "github.com/mysticatea/npm-run-all-sub000/internal/errors"
	"github.com/mysticatea/npm-run-all-sub000/internal/label"
	"github.com/mysticatea/npm-run-all-sub000/internal/manifest"
	"github.com/mysticatea/npm-run-all-sub000/internal/match"
	"github.com/mysticatea/npm-run-all-sub000/internal/model"
	"github.com/mysticatea/npm-run-all-sub000/internal/process"
	"github.com/mysticatea/npm-run-all-sub000/internal/scheduler"
	"github.com/mysticatea/npm-run-all-sub000/internal/ui"
)

// Recorder receives an unlabeled copy of each task's stdout and stderr.
// The returned writer may be used from several goroutines.
type Recorder interface {
	TaskOutput(task string) io.Writer
}

// Options configures a run. The zero value runs tasks sequentially with
// their output discarded.
type Options struct {
	// Stdin, Stdout and Stderr are shared by every task of the run. Streams
	// other than *os.File are locked so concurrent tasks may use plain buffers.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// TaskList is the set of known task names. When nil, package.json in Dir
	// is read instead.
	TaskList    []string
	PackageInfo *manifest.PackageInfo
	Dir         string

	Parallel bool
	// MaxParallel caps concurrent tasks in parallel mode; zero means no cap.
	MaxParallel     int
	Race            bool
	ContinueOnError bool
	AggregateOutput bool

	PrintLabel bool
	PrintName  bool
	Silent     bool
	Color      bool

	NpmPath string
	// Arguments fill placeholders such as {1} and {@} in patterns.
	Arguments []string
	// PackageConfig overrides package config values: package -> key -> value.
	PackageConfig map[string]map[string]string

	Logger   *slog.Logger
	Recorder Recorder
}

// Run runs the tasks matched by patterns. It returns nil results when nothing
// matched. See scheduler.Run for how results and errors relate.
func Run(ctx context.Context, patterns []string, opts Options) ([]model.ScriptResult, error) {
	opts = lockStreams(opts)
	return newRunner(opts).run(ctx, patterns, opts)
}

// RunGroups runs groups one after another and stops at the first error.
// Parallel-only options are ignored for sequential groups.
func RunGroups(ctx context.Context, groups []model.Group, opts Options) ([]model.ScriptResult, error) {
	opts = lockStreams(opts)
	if opts.TaskList == nil {
		m, err := manifest.Read(opts.Dir)
		if err != nil {
			return nil, err
		}
		opts.TaskList = m.TaskNames
		if opts.PackageInfo == nil {
			opts.PackageInfo = m.Info
		}
	}

	r := newRunner(opts)
	var all []model.ScriptResult
	for _, g := range groups {
		groupOpts := opts
		groupOpts.Parallel = g.Parallel
		if !g.Parallel {
			groupOpts.MaxParallel = 0
			groupOpts.Race = false
			groupOpts.AggregateOutput = false
		}

		results, err := r.run(ctx, g.Patterns, groupOpts)
		all = append(all, results...)
		if err != nil {
			return all, err
		}
	}
	return all, nil
}

// Validate checks option combinations that only make sense in parallel mode
func Validate(opts Options) error {
	if opts.MaxParallel < 0 {
		return runerrors.Validationf("invalid option max-parallel: %d", opts.MaxParallel)
	}
	if opts.Parallel {
		return nil
	}
	switch {
	case opts.Race:
		return runerrors.Validation("invalid option race: it requires parallel mode")
	case opts.AggregateOutput:
		return runerrors.Validation("invalid option aggregate-output: it requires parallel mode")
	case opts.MaxParallel != 0:
		return runerrors.Validation("invalid option max-parallel: it requires parallel mode")
	}
	return nil
}

// PrefixOptions builds the options passed to `npm run` ahead of the task name
func PrefixOptions(silent bool, config map[string]map[string]string) []string {
	var out []string
	if silent {
		out = append(out, "--silent")
	}

	packages := make([]string, 0, len(config))
	for name := range config {
		packages = append(packages, name)
	}
	sort.Strings(packages)
	for _, pkg := range packages {
		keys := make([]string, 0, len(config[pkg]))
		for key := range config[pkg] {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			out = append(out, fmt.Sprintf("--%s:%s=%s", pkg, key, config[pkg][key]))
		}
	}
	return out
}

// runner holds state that outlives a single group, such as label colors
type runner struct {
	palette *label.Palette
	logger  *slog.Logger
	flush   *flushState
}

// flushState serializes aggregated output and remembers whether the sink is
// at the start of a line
type flushState struct {
	mu              sync.Mutex
	lastIsLinebreak bool
}

func newRunner(opts Options) *runner {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &runner{
		palette: label.NewPalette(ui.NewColors(opts.Color).LabelColors()),
		logger:  logger,
		flush:   &flushState{lastIsLinebreak: true},
	}
}

func (r *runner) run(ctx context.Context, patterns []string, opts Options) ([]model.ScriptResult, error) {
	if err := Validate(opts); err != nil {
		return nil, err
	}

	patterns, err := args.Apply(patterns, opts.Arguments)
	if err != nil {
		return nil, err
	}

	taskList := opts.TaskList
	info := opts.PackageInfo
	if taskList == nil {
		m, err := manifest.Read(opts.Dir)
		if err != nil {
			return nil, err
		}
		taskList = m.TaskNames
		if info == nil {
			info = m.Info
		}
	}

	resolved, err := match.Match(taskList, patterns)
	if err != nil {
		return nil, err
	}
	if len(resolved) == 0 {
		return nil, nil
	}
	tasks := model.Commands(resolved)

	labelWidth := 0
	for _, t := range tasks {
		labelWidth = max(labelWidth, len(t))
	}

	var mode scheduler.Mode = scheduler.Sequential{}
	if opts.Parallel {
		mode = scheduler.Parallel{MaxParallel: opts.MaxParallel, Race: opts.Race}
	}
	r.logger.Debug("running tasks", "tasks", tasks, "parallel", opts.Parallel, "maxParallel", opts.MaxParallel)

	t := &taskRun{
		opts:       opts,
		info:       info,
		prefix:     PrefixOptions(opts.Silent, opts.PackageConfig),
		labelState: label.NewState(),
		labelWidth: labelWidth,
		palette:    r.palette,
		logger:     r.logger,
		flush:      r.flush,
	}
	return scheduler.Run(ctx, mode, tasks, t.run, scheduler.Options{
		ContinueOnError: opts.ContinueOnError,
		Logger:          r.logger,
	})
}

// taskRun is the per-group state shared by every task of the group
type taskRun struct {
	opts       Options
	info       *manifest.PackageInfo
	prefix     []string
	labelState *label.State
	labelWidth int
	palette    *label.Palette
	logger     *slog.Logger
	flush      *flushState
}

func (t *taskRun) run(ctx context.Context, _ int, task string) (model.ScriptResult, error) {
	popts := process.Options{
		Stdin:         t.opts.Stdin,
		Stdout:        t.opts.Stdout,
		Stderr:        t.opts.Stderr,
		Dir:           t.opts.Dir,
		NpmPath:       t.opts.NpmPath,
		PrefixOptions: t.prefix,
		PrintName:     t.opts.PrintName,
		PackageInfo:   t.info,
		Colors:        ui.NewColors(t.opts.Color),
		LabelState:    t.labelState,
		Logger:        t.logger,
	}
	if t.opts.PrintLabel {
		popts.Label = label.Prefix(task, t.labelWidth, t.palette.Color(task))
	}

	var buffer *bytes.Buffer
	if t.opts.AggregateOutput && t.opts.Stdout != nil {
		// the buffer is its own sink, so it gets its own line state
		buffer = &bytes.Buffer{}
		popts.Stdout = buffer
		popts.LabelState = label.NewState()
		popts.StderrLabelState = t.labelState
	}
	if t.opts.Recorder != nil {
		popts.Tee = t.opts.Recorder.TaskOutput(task)
	}

	result, err := process.Run(ctx, task, popts)

	if buffer != nil && buffer.Len() > 0 {
		if werr := t.flushOutput(buffer.Bytes()); werr != nil {
			t.logger.Warn("failed to flush task output", "task", task, "error", werr)
		}
	}
	return result, err
}

// flushOutput writes one task's aggregated output. A labeled chunk never
// continues a line left open by the previous task.
func (t *taskRun) flushOutput(out []byte) error {
	f := t.flush
	f.mu.Lock()
	defer f.mu.Unlock()

	if t.opts.PrintLabel && !f.lastIsLinebreak {
		if _, err := io.WriteString(t.opts.Stdout, "\n"); err != nil {
			return err
		}
	}
	if _, err := t.opts.Stdout.Write(out); err != nil {
		return err
	}
	f.lastIsLinebreak = out[len(out)-1] == '\n'
	return nil
}
