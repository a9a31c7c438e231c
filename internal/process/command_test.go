package process

import (
	"reflect"
	"testing"

	runerrors "github.com/mysticatea/npm-run-all-sub000/internal/errors"
)

func TestBuildCommand(t *testing.T) {
	tests := []struct {
		name     string
		npmPath  string
		prefix   []string
		task     string
		wantExe  string
		wantArgs []string
	}{
		{
			name:     "default runner",
			task:     "build",
			wantExe:  "npm",
			wantArgs: []string{"run", "build"},
		},
		{
			name:     "task arguments",
			npmPath:  "/usr/bin/npm",
			task:     `test --grep "a b"`,
			wantExe:  "/usr/bin/npm",
			wantArgs: []string{"run", "test", "--grep", "a b"},
		},
		{
			name:     "prefix options",
			npmPath:  "npm",
			prefix:   []string{"--silent", "--demo:port=80"},
			task:     "serve",
			wantExe:  "npm",
			wantArgs: []string{"run", "--silent", "--demo:port=80", "serve"},
		},
		{
			name:     "javascript runner goes through node",
			npmPath:  "/opt/npm/bin/npm-cli.js",
			task:     "build",
			wantExe:  "node",
			wantArgs: []string{"/opt/npm/bin/npm-cli.js", "run", "build"},
		},
		{
			name:     "module runner goes through node",
			npmPath:  "/opt/pnpm/pnpm.cjs",
			task:     "build",
			wantExe:  "node",
			wantArgs: []string{"/opt/pnpm/pnpm.cjs", "run", "build"},
		},
		{
			name:     "yarn only gets silent",
			npmPath:  "/usr/lib/yarn/bin/yarn.js",
			prefix:   []string{"--silent", "--demo:port=80"},
			task:     "build",
			wantExe:  "node",
			wantArgs: []string{"/usr/lib/yarn/bin/yarn.js", "run", "--silent", "build"},
		},
		{
			name:     "yarn without silent",
			npmPath:  "yarn",
			prefix:   []string{"--demo:port=80"},
			task:     "build",
			wantExe:  "yarn",
			wantArgs: []string{"run", "build"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exe, args, err := buildCommand(tt.npmPath, tt.prefix, tt.task)
			if err != nil {
				t.Fatalf("buildCommand() error = %v", err)
			}
			if exe != tt.wantExe {
				t.Errorf("exe = %q, want %q", exe, tt.wantExe)
			}
			if !reflect.DeepEqual(args, tt.wantArgs) {
				t.Errorf("args = %q, want %q", args, tt.wantArgs)
			}
		})
	}
}

func TestBuildCommand_Unparsable(t *testing.T) {
	_, _, err := buildCommand("npm", nil, `build "unterminated`)
	if !runerrors.IsKind(err, runerrors.KindValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestResolveNpmPath(t *testing.T) {
	t.Setenv(NpmExecPathEnv, "/from/env/npm-cli.js")

	if got := ResolveNpmPath("/explicit/npm"); got != "/explicit/npm" {
		t.Errorf("explicit path should win, got %q", got)
	}
	if got := ResolveNpmPath(""); got != "/from/env/npm-cli.js" {
		t.Errorf("expected env path, got %q", got)
	}

	t.Setenv(NpmExecPathEnv, "")
	if got := ResolveNpmPath(""); got != "" {
		t.Errorf("expected empty path for the default runner, got %q", got)
	}
}

func TestIsYarn(t *testing.T) {
	tests := map[string]bool{
		"":                      false,
		"npm":                   false,
		"/usr/bin/yarn":         true,
		"/usr/lib/yarn/yarn.js": true,
		"/opt/yarnpkg/npm":      false,
	}
	for path, want := range tests {
		if got := isYarn(path); got != want {
			t.Errorf("isYarn(%q) = %v, want %v", path, got, want)
		}
	}
}
