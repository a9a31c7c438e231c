// Package errors provides the error types surfaced by a run and their exit codes.
package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mysticatea/npm-run-all-sub000/internal/model"
)

// Exit codes
const (
	ExitSuccess          = 0 // Success
	ExitRuntimeError     = 1 // A task failed or the runner itself errored
	ExitConfigError      = 2 // Invalid options or config file
	ExitEnvironmentError = 3 // No usable package.json
)

// ErrorKind represents the type of error.
type ErrorKind int

const (
	KindRuntime ErrorKind = iota
	KindValidation
	KindNotFound
	KindManifest
)

// RunError is returned for problems detected before any task is spawned.
type RunError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *RunError) Error() string {
	return e.Message
}

func (e *RunError) Unwrap() error {
	return e.Cause
}

// ExitCode returns the appropriate exit code for this error.
func (e *RunError) ExitCode() int {
	switch e.Kind {
	case KindValidation:
		return ExitConfigError
	case KindManifest:
		return ExitEnvironmentError
	default:
		return ExitRuntimeError
	}
}

// Validation creates an error for malformed caller input.
func Validation(message string) *RunError {
	return &RunError{Kind: KindValidation, Message: message}
}

// Validationf creates a validation error with formatting.
func Validationf(format string, args ...interface{}) *RunError {
	return Validation(fmt.Sprintf(format, args...))
}

// TaskNotFound creates an error naming every pattern that matched nothing.
func TaskNotFound(patterns []string) *RunError {
	return &RunError{
		Kind:    KindNotFound,
		Message: `Task not found: "` + strings.Join(patterns, `", "`) + `"`,
	}
}

// ManifestNotFound creates an error for a missing package.json.
func ManifestNotFound(path string, cause error) *RunError {
	return &RunError{
		Kind:    KindManifest,
		Message: fmt.Sprintf("package.json not found: %s", path),
		Cause:   cause,
	}
}

// ManifestMalformed creates an error for a package.json without usable scripts.
func ManifestMalformed(path, reason string) *RunError {
	return &RunError{
		Kind:    KindManifest,
		Message: fmt.Sprintf("malformed package.json %s: %s", path, reason),
	}
}

// IsKind reports whether err is a *RunError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var re *RunError
	return errors.As(err, &re) && re.Kind == kind
}

// ScriptError reports that at least one task failed under a policy that does not
// tolerate it. Results holds every task's result in task order, with tasks that
// never completed left at a nil code.
type ScriptError struct {
	Cause   model.ScriptResult
	Results []model.ScriptResult
	// Err is set when the task could not be run at all (spawn failure).
	Err error
}

func (e *ScriptError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("task %q failed: %v", e.Cause.Name, e.Err)
	}
	if e.Cause.Code == nil {
		return fmt.Sprintf("task %q did not complete", e.Cause.Name)
	}
	return fmt.Sprintf("task %q exited with code %d", e.Cause.Name, *e.Cause.Code)
}

func (e *ScriptError) Unwrap() error {
	return e.Err
}

// GetExitCode returns the exit code for an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var se *ScriptError
	if errors.As(err, &se) {
		return ExitRuntimeError
	}
	var re *RunError
	if errors.As(err, &re) {
		return re.ExitCode()
	}
	return ExitRuntimeError
}
