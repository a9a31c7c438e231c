package process

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/kballard/go-shellquote"

	runerrors "github.com/mysticatea/npm-run-all-sub000/internal/errors"
)

// NpmExecPathEnv is set by npm and yarn to the path of the running package manager
const NpmExecPathEnv = "npm_execpath"

const defaultNpmPath = "npm"

// ResolveNpmPath picks the script runner: explicit, then $npm_execpath.
// An empty result means the default "npm" looked up on PATH.
func ResolveNpmPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	return os.Getenv(NpmExecPathEnv)
}

// isScriptFile reports whether npmPath is a JavaScript entry point run through node
func isScriptFile(npmPath string) bool {
	switch strings.ToLower(filepath.Ext(npmPath)) {
	case ".js", ".mjs", ".cjs":
		return true
	}
	return false
}

func isYarn(npmPath string) bool {
	if npmPath == "" {
		npmPath = defaultNpmPath
	}
	return strings.HasPrefix(filepath.Base(npmPath), "yarn")
}

// buildCommand returns the executable and argv for `<runner> run <task>`
func buildCommand(npmPath string, prefixOptions []string, task string) (string, []string, error) {
	taskArgs, err := shellquote.Split(task)
	if err != nil {
		return "", nil, runerrors.Validationf("cannot parse task %q: %v", task, err)
	}

	exe := npmPath
	var args []string
	switch {
	case npmPath == "":
		exe = defaultNpmPath
	case isScriptFile(npmPath):
		exe = "node"
		args = append(args, npmPath)
	}

	args = append(args, "run")
	if isYarn(npmPath) {
		// yarn rejects npm's config flags
		if slices.Contains(prefixOptions, "--silent") {
			args = append(args, "--silent")
		}
	} else {
		args = append(args, prefixOptions...)
	}
	args = append(args, taskArgs...)
	return exe, args, nil
}
