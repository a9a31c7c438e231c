package match

import (
	"reflect"
	"strings"
	"testing"

	runerrors "github.com/mysticatea/npm-run-all-sub000/internal/errors"
	"github.com/mysticatea/npm-run-all-sub000/internal/model"
)

var taskList = []string{
	"build",
	"build:js",
	"build:css",
	"build:js:min",
	"lint",
	"test:a",
	"test:unit/fast",
}

func TestMatch(t *testing.T) {
	tests := []struct {
		name     string
		tasks    []string
		patterns []string
		want     []string
	}{
		{
			name:     "literal",
			tasks:    taskList,
			patterns: []string{"lint"},
			want:     []string{"lint"},
		},
		{
			name:     "single segment wildcard",
			tasks:    []string{"build:a", "build:b", "test:a"},
			patterns: []string{"build:*"},
			want:     []string{"build:a", "build:b"},
		},
		{
			name:     "star does not cross colon",
			tasks:    taskList,
			patterns: []string{"build:*"},
			want:     []string{"build:js", "build:css"},
		},
		{
			name:     "globstar crosses colon",
			tasks:    []string{"build:js", "build:css", "build:js:min", "lint"},
			patterns: []string{"build:**"},
			want:     []string{"build:js", "build:css", "build:js:min"},
		},
		{
			name:     "slash in task name is literal",
			tasks:    taskList,
			patterns: []string{"test:unit/fast"},
			want:     []string{"test:unit/fast"},
		},
		{
			name:     "pattern order preserved",
			tasks:    taskList,
			patterns: []string{"lint", "build"},
			want:     []string{"lint", "build"},
		},
		{
			name:     "argument tail re-attached",
			tasks:    taskList,
			patterns: []string{"build:* --watch"},
			want:     []string{"build:js --watch", "build:css --watch"},
		},
		{
			name:     "surrounding whitespace trimmed",
			tasks:    taskList,
			patterns: []string{"  lint  "},
			want:     []string{"lint"},
		},
		{
			name:     "braces",
			tasks:    taskList,
			patterns: []string{"build:{js,css}"},
			want:     []string{"build:js", "build:css"},
		},
		{
			name:     "builtin pseudo tasks with empty list",
			tasks:    nil,
			patterns: []string{"restart", "env"},
			want:     []string{"restart", "env"},
		},
		{
			name:     "builtin keeps arguments",
			tasks:    nil,
			patterns: []string{"env --json"},
			want:     []string{"env --json"},
		},
		{
			name:     "empty patterns",
			tasks:    taskList,
			patterns: nil,
			want:     []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Match(tt.tasks, tt.patterns)
			if err != nil {
				t.Fatalf("Match() error = %v", err)
			}
			if cmds := model.Commands(got); !reflect.DeepEqual(cmds, tt.want) {
				t.Errorf("Match() = %v, want %v", cmds, tt.want)
			}
		})
	}
}

func TestMatch_Dedup(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		want     []string
	}{
		{
			name:     "same pattern twice collapses",
			patterns: []string{"lint", "lint"},
			want:     []string{"lint"},
		},
		{
			name:     "different patterns resolving to the same task both run",
			patterns: []string{"build:js", "build:*"},
			want:     []string{"build:js", "build:js", "build:css"},
		},
		{
			name:     "different arguments are different commands",
			patterns: []string{"lint", "lint --fix"},
			want:     []string{"lint", "lint --fix"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Match(taskList, tt.patterns)
			if err != nil {
				t.Fatalf("Match() error = %v", err)
			}
			if cmds := model.Commands(got); !reflect.DeepEqual(cmds, tt.want) {
				t.Errorf("Match() = %v, want %v", cmds, tt.want)
			}
		})
	}
}

func TestMatch_Sources(t *testing.T) {
	got, err := Match(taskList, []string{"build:js --x", "build:*"})
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	want := []model.ResolvedTask{
		{Command: "build:js --x", Source: "build:js"},
		{Command: "build:js", Source: "build:*"},
		{Command: "build:css", Source: "build:*"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Match() = %+v, want %+v", got, want)
	}
}

func TestMatch_Unknown(t *testing.T) {
	tests := []struct {
		name     string
		tasks    []string
		patterns []string
		wantMsg  string
	}{
		{
			name:     "single unknown",
			tasks:    taskList,
			patterns: []string{"nope"},
			wantMsg:  `Task not found: "nope"`,
		},
		{
			name:     "all unknown listed in order",
			tasks:    taskList,
			patterns: []string{"zzz", "lint", "deploy:*"},
			wantMsg:  `Task not found: "zzz", "deploy:*"`,
		},
		{
			name:     "repeated unknown listed once",
			tasks:    nil,
			patterns: []string{"nope", "nope --x"},
			wantMsg:  `Task not found: "nope"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Match(tt.tasks, tt.patterns)
			if err == nil {
				t.Fatalf("expected error, got %v", got)
			}
			if got != nil {
				t.Errorf("expected no partial result, got %v", got)
			}
			if !runerrors.IsKind(err, runerrors.KindNotFound) {
				t.Errorf("expected KindNotFound, got %T", err)
			}
			if err.Error() != tt.wantMsg {
				t.Errorf("error = %q, want %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestTaskSet(t *testing.T) {
	s := NewTaskSet()
	if !s.Add("a", "a") {
		t.Error("first add should succeed")
	}
	if s.Add("a", "a") {
		t.Error("same (command, source) should collapse")
	}
	if !s.Add("a", "*") {
		t.Error("different source should add again")
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}

	tasks := s.Tasks()
	tasks[0].Command = "mutated"
	if s.Tasks()[0].Command != "a" {
		t.Error("Tasks() should return a copy")
	}
}

func TestSwapColonAndSlash(t *testing.T) {
	if got := swapColonAndSlash("a:b/c"); got != "a/b:c" {
		t.Errorf("swapColonAndSlash() = %q", got)
	}
	if got := swapColonAndSlash(swapColonAndSlash("x:y/z")); got != "x:y/z" {
		t.Errorf("swap should be its own inverse, got %q", got)
	}
	if strings.ContainsAny(swapColonAndSlash("plain"), ":/") {
		t.Error("plain names are unchanged")
	}
}
