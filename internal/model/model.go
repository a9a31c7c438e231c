// Package model holds the data types shared by the matcher, schedulers and coordinator.
package model

import (
	"strings"
	"time"
)

// TaskStatus represents the outcome of a task
type TaskStatus string

const (
	StatusPending TaskStatus = "PENDING"
	StatusPass    TaskStatus = "PASS"
	StatusFail    TaskStatus = "FAIL"
	StatusAborted TaskStatus = "ABORTED"
)

// SplitTask separates a task command into its name and argument tail.
// The first space is the delimiter: "build:watch --fix" -> ("build:watch", "--fix").
func SplitTask(command string) (name, args string) {
	name, args, _ = strings.Cut(command, " ")
	return name, args
}

// ResolvedTask is a concrete task chosen to run.
type ResolvedTask struct {
	// Command is the task name with its argument tail, e.g. "lint --fix".
	Command string
	// Source is the name token of the pattern that selected this task.
	Source string
}

// Name returns the task name without arguments
func (t ResolvedTask) Name() string {
	name, _ := SplitTask(t.Command)
	return name
}

// Commands flattens resolved tasks into their command strings
func Commands(tasks []ResolvedTask) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Command
	}
	return out
}

// Group is one parallel-or-sequential segment of a multi-segment invocation
type Group struct {
	Patterns []string `json:"patterns"`
	Parallel bool     `json:"parallel"`
}

// ScriptResult is the outcome of one task.
// A nil Code means the task never completed: it was not started or was killed.
type ScriptResult struct {
	Name      string        `json:"name"`
	Code      *int          `json:"code,omitempty"`
	StartTime time.Time     `json:"startTime,omitempty"`
	Duration  time.Duration `json:"durationNs"`
}

// Completed reports whether the task ran to an exit code
func (r ScriptResult) Completed() bool {
	return r.Code != nil
}

// Failed reports whether the task exited with a non-zero code
func (r ScriptResult) Failed() bool {
	return r.Code != nil && *r.Code != 0
}

// Succeeded reports whether the task exited with code 0
func (r ScriptResult) Succeeded() bool {
	return r.Code != nil && *r.Code == 0
}

// Status derives a display status from the exit code
func (r ScriptResult) Status() TaskStatus {
	switch {
	case r.Code == nil && r.StartTime.IsZero():
		return StatusPending
	case r.Code == nil:
		return StatusAborted
	case *r.Code == 0:
		return StatusPass
	default:
		return StatusFail
	}
}

// NewResults pre-allocates one pending result per task, in task order.
func NewResults(tasks []string) []ScriptResult {
	results := make([]ScriptResult, len(tasks))
	for i, t := range tasks {
		results[i] = ScriptResult{Name: t}
	}
	return results
}

// IntPtr returns a pointer to i
func IntPtr(i int) *int {
	return &i
}
