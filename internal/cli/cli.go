// Package cli implements the npm-run-all, run-p and run-s command lines.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/mysticatea/npm-run-all-sub000/internal/config"
	runerrors "github.com/mysticatea/npm-run-all-sub000/internal/errors"
	"github.com/mysticatea/npm-run-all-sub000/internal/model"
	"github.com/mysticatea/npm-run-all-sub000/internal/report"
	"github.com/mysticatea/npm-run-all-sub000/internal/runall"
	"github.com/mysticatea/npm-run-all-sub000/internal/ui"
)

// Command names
const (
	CommandRunAll = "npm-run-all"
	CommandRunP   = "run-p"
	CommandRunS   = "run-s"
)

// Version is set at build time with -ldflags "-X ...cli.Version=..."
var Version = "dev"

const configDefaultName = config.DefaultFileName

// Env is the process environment a command runs in
type Env struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Dir    string
}

// Main runs command with the process's own stdio and returns its exit code
func Main(command string, argv []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dir, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		return runerrors.ExitRuntimeError
	}
	return Run(ctx, command, argv, Env{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr, Dir: dir})
}

// Run runs command in env and returns its exit code
func Run(ctx context.Context, command string, argv []string, env Env) int {
	started := time.Now()

	a, err := parseArgs(command, argv)
	if err != nil {
		return fail(env.Stderr, err)
	}
	if a.flags.help || len(argv) == 0 {
		printHelp(env.Stdout, command, a.set)
		return runerrors.ExitSuccess
	}
	if a.flags.version {
		fmt.Fprintf(env.Stdout, "v%s\n", Version)
		return runerrors.ExitSuccess
	}
	for _, path := range []*string{&a.flags.config, &a.flags.report, &a.flags.junit} {
		if *path != "" && !filepath.IsAbs(*path) {
			*path = filepath.Join(env.Dir, *path)
		}
	}

	logLevel := slog.LevelWarn
	if a.flags.verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(env.Stderr, &slog.HandlerOptions{Level: logLevel}))

	cfg, err := loadConfig(a, env, logger)
	if err != nil {
		return fail(env.Stderr, err)
	}

	colorMode := ui.ColorMode(cfg.Defaults.Color)
	if a.flags.noColor {
		colorMode = ui.ColorNever
	}
	colors := ui.IsColorEnabled(colorMode, env.Stdout)

	opts := buildOptions(a, cfg, env)
	opts.Color = colors
	opts.Logger = logger

	var collector *report.Collector
	if a.flags.junit != "" {
		collector = report.NewCollector()
		opts.Recorder = collector
	}

	if err := validateGroups(a, &opts); err != nil {
		return fail(env.Stderr, err)
	}

	logger.Debug("starting run", "command", command, "groups", len(a.groups), "dir", env.Dir)
	results, runErr := runall.RunGroups(ctx, a.groups, opts)
	elapsed := time.Since(started)

	if a.flags.summary && len(results) > 0 {
		ui.NewRenderer(env.Stdout, colors).RenderSummary(results, elapsed)
	}
	writeReports(a, command, argv, started, results, runErr, collector, logger)

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			logger.Debug("run interrupted")
		}
		return fail(env.Stderr, runErr)
	}
	return runerrors.ExitSuccess
}

// loadConfig reads the defaults file and reports its validation problems
func loadConfig(a *cliArgs, env Env, logger *slog.Logger) (config.Config, error) {
	cfg, err := config.LoadConfig(a.flags.config, env.Dir)
	if err != nil {
		return config.Config{}, &runerrors.RunError{Kind: runerrors.KindValidation, Message: err.Error(), Cause: err}
	}
	if cfg == nil {
		return config.MergeWithDefaults(nil), nil
	}

	path := a.flags.config
	if path == "" {
		path = configDefaultName
	}
	result := config.ValidateConfig(cfg)
	config.PrintValidationResult(env.Stderr, path, result)
	if err := result.Err(); err != nil {
		return config.Config{}, &runerrors.RunError{Kind: runerrors.KindValidation, Message: "invalid config: " + err.Error(), Cause: err}
	}
	logger.Debug("loaded config", "path", path)
	return config.MergeWithDefaults(cfg), nil
}

// buildOptions merges config defaults with the command line; flags given on
// the command line win.
func buildOptions(a *cliArgs, cfg config.Config, env Env) runall.Options {
	d := cfg.Defaults
	pick := func(name string, flag, fromConfig bool) bool {
		if a.changed(name) {
			return flag
		}
		return fromConfig
	}

	opts := runall.Options{
		Stdin:           env.Stdin,
		Stdout:          env.Stdout,
		Stderr:          env.Stderr,
		Dir:             env.Dir,
		ContinueOnError: pick("continue-on-error", a.flags.continueOnError, d.ContinueOnError),
		PrintLabel:      pick("print-label", a.flags.printLabel, d.PrintLabel),
		PrintName:       pick("print-name", a.flags.printName, d.PrintName),
		Race:            pick("race", a.flags.race, d.Race),
		AggregateOutput: pick("aggregate-output", a.flags.aggregateOutput, d.AggregateOutput),
		Silent:          pick("silent", a.flags.silent, d.Silent),
		MaxParallel:     d.MaxParallel,
		NpmPath:         d.NpmPath,
		Arguments:       a.arguments,
		PackageConfig:   mergePackageConfig(cfg.PackageConfig, a.packageConfig),
	}
	if a.changed("max-parallel") {
		opts.MaxParallel = a.flags.maxParallel
	}
	if a.changed("npm-path") {
		opts.NpmPath = a.flags.npmPath
	}
	return opts
}

// mergePackageConfig overlays command line overrides on the config file's
func mergePackageConfig(base, overrides map[string]map[string]string) map[string]map[string]string {
	merged := make(map[string]map[string]string, len(base)+len(overrides))
	for _, src := range []map[string]map[string]string{base, overrides} {
		for pkg, values := range src {
			if merged[pkg] == nil {
				merged[pkg] = make(map[string]string, len(values))
			}
			for k, v := range values {
				merged[pkg][k] = v
			}
		}
	}
	return merged
}

// validateGroups rejects parallel-only options given on the command line when
// no group runs in parallel. Config defaults for them are ignored instead.
func validateGroups(a *cliArgs, opts *runall.Options) error {
	for _, g := range a.groups {
		if g.Parallel {
			opts.Parallel = true
			break
		}
	}
	if !opts.Parallel {
		if !a.changed("race") {
			opts.Race = false
		}
		if !a.changed("aggregate-output") {
			opts.AggregateOutput = false
		}
		if !a.changed("max-parallel") {
			opts.MaxParallel = 0
		}
	}
	err := runall.Validate(*opts)
	opts.Parallel = false
	return err
}

func writeReports(a *cliArgs, command string, argv []string, started time.Time, results []model.ScriptResult, runErr error, collector *report.Collector, logger *slog.Logger) {
	if a.flags.report != "" {
		rec := report.NewRecord(command, argv, started, results, runErr)
		if err := report.WriteJSON(a.flags.report, rec); err != nil {
			logger.Warn("failed to write run record", "path", a.flags.report, "error", err)
		}
	}
	if a.flags.junit != "" {
		if err := report.WriteJUnit(a.flags.junit, command, results, time.Since(started), collector); err != nil {
			logger.Warn("failed to write junit report", "path", a.flags.junit, "error", err)
		}
	}
}

// FlagUsages returns the option table of command as printed by --help
func FlagUsages(command string) string {
	return newFlagSet(command, &flagValues{}, func(bool) {}).FlagUsages()
}

// fail prints err and returns the exit code for it
func fail(w io.Writer, err error) int {
	fmt.Fprintf(w, "ERROR: %v\n", err)
	return runerrors.GetExitCode(err)
}

func printHelp(w io.Writer, command string, fs *pflag.FlagSet) {
	switch command {
	case CommandRunP:
		fmt.Fprintf(w, "Usage: %s [OPTIONS] <tasks>\n\nRun the given npm-scripts in parallel.\n", command)
	case CommandRunS:
		fmt.Fprintf(w, "Usage: %s [OPTIONS] <tasks>\n\nRun the given npm-scripts sequentially.\n", command)
	default:
		fmt.Fprintf(w, "Usage: %s [--help | -h | --version | -v]\n", command)
		fmt.Fprintf(w, "       %s [tasks] [OPTIONS]\n\n", command)
		fmt.Fprintln(w, "Run given npm-scripts in parallel or sequential.")
		fmt.Fprintln(w, "Each -p or -s starts a new group of tasks.")
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fmt.Fprint(w, fs.FlagUsages())
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  --<pkg>:<key>=<value>   Override a package config value")
	fmt.Fprintln(w, "  -- <args>               Arguments for {1}, {@} and {*} placeholders")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, "  "+strings.TrimSpace(example(command)))
}

func example(command string) string {
	switch command {
	case CommandRunP:
		return "run-p --print-label \"build:*\" watch"
	case CommandRunS:
		return "run-s clean lint build"
	}
	return "npm-run-all clean lint --parallel \"build:*\" -- --watch"
}
