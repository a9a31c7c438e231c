package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/mysticatea/npm-run-all-sub000/internal/model"
)

func TestTaskNotFound_Message(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		expected string
	}{
		{"single", []string{"nope"}, `Task not found: "nope"`},
		{"multiple", []string{"a", "b:*"}, `Task not found: "a", "b:*"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TaskNotFound(tt.patterns).Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestRunError_ExitCode(t *testing.T) {
	tests := []struct {
		name     string
		kind     ErrorKind
		expected int
	}{
		{"runtime", KindRuntime, ExitRuntimeError},
		{"validation", KindValidation, ExitConfigError},
		{"not found", KindNotFound, ExitRuntimeError},
		{"manifest", KindManifest, ExitEnvironmentError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &RunError{Kind: tt.kind}
			if got := err.ExitCode(); got != tt.expected {
				t.Errorf("ExitCode() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestRunError_Unwrap(t *testing.T) {
	cause := errors.New("no such file")
	err := ManifestNotFound("/x/package.json", cause)
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
}

func TestScriptError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *ScriptError
		expected string
	}{
		{
			name:     "exit code",
			err:      &ScriptError{Cause: model.ScriptResult{Name: "lint", Code: model.IntPtr(2)}},
			expected: `task "lint" exited with code 2`,
		},
		{
			name:     "spawn error",
			err:      &ScriptError{Cause: model.ScriptResult{Name: "lint"}, Err: errors.New("exec: not found")},
			expected: `task "lint" failed: exec: not found`,
		},
		{
			name:     "no code",
			err:      &ScriptError{Cause: model.ScriptResult{Name: "lint"}},
			expected: `task "lint" did not complete`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil", nil, ExitSuccess},
		{"script error", &ScriptError{Cause: model.ScriptResult{Code: model.IntPtr(7)}}, ExitRuntimeError},
		{"validation", Validation("bad"), ExitConfigError},
		{"wrapped validation", fmt.Errorf("group 2: %w", Validation("bad")), ExitConfigError},
		{"manifest", ManifestMalformed("p", "no scripts"), ExitEnvironmentError},
		{"plain", errors.New("boom"), ExitRuntimeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetExitCode(tt.err); got != tt.expected {
				t.Errorf("GetExitCode() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestIsKind(t *testing.T) {
	if !IsKind(TaskNotFound([]string{"x"}), KindNotFound) {
		t.Error("expected KindNotFound")
	}
	if IsKind(errors.New("x"), KindNotFound) {
		t.Error("plain error should not match")
	}
}
