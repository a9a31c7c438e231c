// Package match resolves glob-like task patterns against the known task names.
//
// Task names use ':' as a namespace separator. Glob engines treat '/' as the
// separator, so names and patterns have the two characters swapped before
// matching: "build:*" matches "build:js" but not "build:js:min", while
// "build:**" matches both.
package match

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	runerrors "github.com/mysticatea/npm-run-all-sub000/internal/errors"
	"github.com/mysticatea/npm-run-all-sub000/internal/model"
)

// builtinTasks are always accepted even when the manifest does not declare them.
var builtinTasks = map[string]bool{
	"restart": true,
	"env":     true,
}

// filter is one compiled pattern
type filter struct {
	glob string // swapped name token
	task string // original name token
	args string // argument tail, including the leading space
}

func newFilter(pattern string) filter {
	trimmed := strings.TrimSpace(pattern)
	task, args := trimmed, ""
	if i := strings.IndexByte(trimmed, ' '); i >= 0 {
		task, args = trimmed[:i], trimmed[i:]
	}
	return filter{glob: swapColonAndSlash(task), task: task, args: args}
}

func (f filter) match(candidate string) bool {
	ok, err := doublestar.Match(f.glob, candidate)
	if err != nil {
		// not a valid glob: compare literally
		return f.glob == candidate
	}
	return ok
}

// Match returns the tasks selected by patterns, in pattern order and then in
// taskList order within a pattern. It fails without a partial result if any
// pattern matched nothing.
func Match(taskList []string, patterns []string) ([]model.ResolvedTask, error) {
	candidates := make([]string, len(taskList))
	for i, name := range taskList {
		candidates[i] = swapColonAndSlash(name)
	}

	set := NewTaskSet()
	var unknown []string
	seenUnknown := make(map[string]bool)

	for _, pattern := range patterns {
		f := newFilter(pattern)
		found := false
		for i, candidate := range candidates {
			if f.match(candidate) {
				found = true
				set.Add(taskList[i]+f.args, f.task)
			}
		}

		if !found && builtinTasks[f.task] {
			set.Add(f.task+f.args, f.task)
			found = true
		}

		if !found && !seenUnknown[f.task] {
			seenUnknown[f.task] = true
			unknown = append(unknown, f.task)
		}
	}

	if len(unknown) > 0 {
		return nil, runerrors.TaskNotFound(unknown)
	}
	return set.Tasks(), nil
}

// TaskSet is an ordered collection of resolved tasks.
//
// Deduplication is keyed by (command, source pattern): the same command requested
// again by the same pattern collapses, while a different pattern that resolves to
// an already-added command adds it once more.
type TaskSet struct {
	tasks []model.ResolvedTask
	seen  map[model.ResolvedTask]bool
}

// NewTaskSet creates an empty TaskSet
func NewTaskSet() *TaskSet {
	return &TaskSet{seen: make(map[model.ResolvedTask]bool)}
}

// Add appends command unless it was already added for source.
// It reports whether the task was added.
func (s *TaskSet) Add(command, source string) bool {
	t := model.ResolvedTask{Command: command, Source: source}
	if s.seen[t] {
		return false
	}
	s.seen[t] = true
	s.tasks = append(s.tasks, t)
	return true
}

// Tasks returns the resolved tasks in insertion order
func (s *TaskSet) Tasks() []model.ResolvedTask {
	out := make([]model.ResolvedTask, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Len returns the number of tasks in the set
func (s *TaskSet) Len() int {
	return len(s.tasks)
}

func swapColonAndSlash(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ':':
			return '/'
		case '/':
			return ':'
		}
		return r
	}, s)
}
