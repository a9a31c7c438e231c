// Package features holds the behaviour suite for the run-all commands.
package features

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cucumber/godog"
	"github.com/kballard/go-shellquote"

	"github.com/mysticatea/npm-run-all-sub000/internal/cli"
	"github.com/mysticatea/npm-run-all-sub000/internal/testing/fakenpm"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// sharedContext holds ALL state for a scenario - used by all step definitions
type sharedContext struct {
	tempDir string
	npmPath string

	scriptNames []string
	scripts     map[string]string

	stdout   string
	stderr   string
	exitCode int
}

// setup creates the scenario's project directory
func (c *sharedContext) setup() error {
	dir, err := os.MkdirTemp("", "run-all-features-")
	if err != nil {
		return err
	}
	c.tempDir = dir
	c.scripts = make(map[string]string)
	return nil
}

// aPackageWithScripts declares package.json scripts from a name | command table
func (c *sharedContext) aPackageWithScripts(table *godog.Table) error {
	for i, row := range table.Rows {
		if len(row.Cells) != 2 {
			return fmt.Errorf("row %d: expected name and command", i+1)
		}
		name, body := row.Cells[0].Value, row.Cells[1].Value
		if i == 0 && name == "name" {
			continue
		}
		if _, ok := c.scripts[name]; !ok {
			c.scriptNames = append(c.scriptNames, name)
		}
		c.scripts[name] = body
	}
	return nil
}

// aFileContaining writes a file relative to the project directory
func (c *sharedContext) aFileContaining(name string, content *godog.DocString) error {
	path := filepath.Join(c.tempDir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content.Content+"\n"), 0644)
}

// iRun runs a command line such as `run-p -l a b` in the project directory
func (c *sharedContext) iRun(ctx context.Context, commandLine string) error {
	words, err := shellquote.Split(commandLine)
	if err != nil {
		return err
	}
	if len(words) == 0 {
		return fmt.Errorf("empty command line")
	}

	if c.npmPath == "" {
		if c.npmPath, err = fakenpm.Write(c.tempDir, c.scripts); err != nil {
			return err
		}
		pkg := fakenpm.PackageJSON("feature", "0.0.0", c.scriptNames...)
		if err := os.WriteFile(filepath.Join(c.tempDir, "package.json"), []byte(pkg), 0644); err != nil {
			return err
		}
	}

	var stdout, stderr syncBuffer
	argv := append([]string{"--npm-path", c.npmPath}, words[1:]...)
	c.exitCode = cli.Run(ctx, words[0], argv, cli.Env{Stdout: &stdout, Stderr: &stderr, Dir: c.tempDir})
	c.stdout = stdout.String()
	c.stderr = stderr.String()
	return nil
}

// theExecutionShouldSucceed checks that the command succeeded
func (c *sharedContext) theExecutionShouldSucceed() error {
	if c.exitCode != 0 {
		return fmt.Errorf("expected execution to succeed (exit 0), got exit code %d\nStderr: %s", c.exitCode, c.stderr)
	}
	return nil
}

// theExecutionShouldFail checks that the command failed
func (c *sharedContext) theExecutionShouldFail() error {
	if c.exitCode == 0 {
		return fmt.Errorf("expected execution to fail (non-zero exit), got exit code 0\nOutput: %s", c.stdout)
	}
	return nil
}

func (c *sharedContext) theExitCodeShouldBe(code int) error {
	if c.exitCode != code {
		return fmt.Errorf("expected exit code %d, got %d\nStderr: %s", code, c.exitCode, c.stderr)
	}
	return nil
}

// theOutputShouldContain checks stdout for the expected string
func (c *sharedContext) theOutputShouldContain(expected string) error {
	if !strings.Contains(c.stdout, expected) {
		return fmt.Errorf("expected output to contain %q, got: %s", expected, c.stdout)
	}
	return nil
}

func (c *sharedContext) theOutputShouldNotContain(unexpected string) error {
	if strings.Contains(c.stdout, unexpected) {
		return fmt.Errorf("expected output not to contain %q, got: %s", unexpected, c.stdout)
	}
	return nil
}

func (c *sharedContext) theErrorOutputShouldContain(expected string) error {
	if !strings.Contains(c.stderr, expected) {
		return fmt.Errorf("expected stderr to contain %q, got: %s", expected, c.stderr)
	}
	return nil
}

// theOutputShouldBe compares stdout exactly
func (c *sharedContext) theOutputShouldBe(expected *godog.DocString) error {
	want := expected.Content + "\n"
	if c.stdout != want {
		return fmt.Errorf("expected output:\n%s\ngot:\n%s", want, c.stdout)
	}
	return nil
}

// theScriptRunnerShouldHaveBeenCalledWith compares the logged invocations
func (c *sharedContext) theScriptRunnerShouldHaveBeenCalledWith(expected *godog.DocString) error {
	calls, err := fakenpm.Invocations(c.tempDir)
	if err != nil {
		return err
	}
	got := strings.Join(calls, "\n")
	if got != expected.Content {
		return fmt.Errorf("expected invocations:\n%s\ngot:\n%s", expected.Content, got)
	}
	return nil
}

func (c *sharedContext) theScriptRunnerShouldNotHaveBeenCalled() error {
	calls, err := fakenpm.Invocations(c.tempDir)
	if err != nil {
		return err
	}
	if len(calls) > 0 {
		return fmt.Errorf("expected no invocations, got %v", calls)
	}
	return nil
}

// cleanup removes temporary directories
func (c *sharedContext) cleanup() {
	if c.tempDir != "" {
		_ = os.RemoveAll(c.tempDir)
	}
}

// InitializeCommonScenario registers the steps every feature uses
func InitializeCommonScenario(sc *godog.ScenarioContext, c *sharedContext) {
	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		return ctx, c.setup()
	})
	sc.After(func(ctx context.Context, _ *godog.Scenario, err error) (context.Context, error) {
		c.cleanup()
		return ctx, nil
	})

	sc.Step(`^a package with scripts:$`, c.aPackageWithScripts)
	sc.Step(`^a file "([^"]*)" containing:$`, c.aFileContaining)
	sc.Step(`^I run "([^"]*)"$`, c.iRun)
	sc.Step(`^I run '([^']*)'$`, c.iRun)
	sc.Step(`^the execution should succeed$`, c.theExecutionShouldSucceed)
	sc.Step(`^the execution should fail$`, c.theExecutionShouldFail)
	sc.Step(`^the exit code should be (\d+)$`, c.theExitCodeShouldBe)
	sc.Step(`^the output should contain "([^"]*)"$`, c.theOutputShouldContain)
	sc.Step(`^the output should not contain "([^"]*)"$`, c.theOutputShouldNotContain)
	sc.Step(`^the error output should contain "([^"]*)"$`, c.theErrorOutputShouldContain)
	sc.Step(`^the output should be:$`, c.theOutputShouldBe)
	sc.Step(`^the script runner should have been called with:$`, c.theScriptRunnerShouldHaveBeenCalledWith)
	sc.Step(`^the script runner should not have been called$`, c.theScriptRunnerShouldNotHaveBeenCalled)
}
