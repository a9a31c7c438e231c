// Package fakenpm writes a stand-in for npm so tests can spawn real processes
// without Node.js installed.
//
// The generated "npm" accepts `npm run [--options...] <name> [args...]` and
// executes scripts/<name> with /bin/sh, passing the remaining args. Every
// invocation is appended to invocations.log. POSIX only.
package fakenpm

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LogFile records one line per npm invocation
const LogFile = "invocations.log"

const npmScript = `#!/bin/sh
printf '%%s\n' "$*" >> %[1]q
[ "$1" = run ] && shift
while [ $# -gt 0 ]; do
  case "$1" in
    --*) shift ;;
    *) break ;;
  esac
done
name="$1"
shift
if [ ! -f %[2]q/"$name" ]; then
  echo "missing script: $name" >&2
  exit 1
fi
exec /bin/sh %[2]q/"$name" "$@"
`

// Write creates dir/npm and one file per script under dir/scripts.
// It returns the path of the fake npm executable.
func Write(dir string, scripts map[string]string) (string, error) {
	scriptDir := filepath.Join(dir, "scripts")
	if err := os.MkdirAll(scriptDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create script dir: %w", err)
	}

	for name, body := range scripts {
		if strings.ContainsAny(name, `/\`) {
			return "", fmt.Errorf("script name %q cannot be used as a file name", name)
		}
		if err := os.WriteFile(filepath.Join(scriptDir, name), []byte(body+"\n"), 0644); err != nil {
			return "", fmt.Errorf("failed to write script %s: %w", name, err)
		}
	}

	npmPath := filepath.Join(dir, "npm")
	content := fmt.Sprintf(npmScript, filepath.Join(dir, LogFile), scriptDir)
	if err := os.WriteFile(npmPath, []byte(content), 0755); err != nil {
		return "", fmt.Errorf("failed to write fake npm: %w", err)
	}
	return npmPath, nil
}

// Invocations returns the argument lists npm was called with, in order
func Invocations(dir string) ([]string, error) {
	data, err := os.ReadFile(filepath.Join(dir, LogFile))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n"), nil
}

// PackageJSON renders a package.json declaring scripts in the given order.
// Script bodies only matter for headers; the fake npm runs scripts/<name>.
func PackageJSON(name, version string, scriptNames ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "{\n  %q: %q,\n  %q: %q,\n  \"scripts\": {", "name", name, "version", version)
	for i, s := range scriptNames {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, "\n    %q: %q", s, "sh scripts/"+s)
	}
	b.WriteString("\n  }\n}\n")
	return b.String()
}
