package features

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cucumber/godog"
	"github.com/joshdk/go-junit"
)

type reportsContext struct {
	*sharedContext
}

func (c *reportsContext) theJUnitReportShouldHaveTestsAndFailures(path string, tests, failures int) error {
	suites, err := junit.IngestFile(filepath.Join(c.tempDir, path))
	if err != nil {
		return fmt.Errorf("failed to read junit report: %w", err)
	}

	var gotTests, gotFailures int
	for _, suite := range suites {
		gotTests += suite.Totals.Tests
		gotFailures += suite.Totals.Failed
	}
	if gotTests != tests || gotFailures != failures {
		return fmt.Errorf("expected %d tests and %d failures, got %d and %d", tests, failures, gotTests, gotFailures)
	}
	return nil
}

func (c *reportsContext) theRunRecordShouldShowTaskAs(path, task, status string) error {
	data, err := os.ReadFile(filepath.Join(c.tempDir, path))
	if err != nil {
		return err
	}

	var rec struct {
		Tasks []struct {
			Name   string `json:"name"`
			Status string `json:"status"`
		} `json:"tasks"`
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("invalid run record: %w", err)
	}
	for _, t := range rec.Tasks {
		if t.Name == task {
			if t.Status != status {
				return fmt.Errorf("task %s: expected status %s, got %s", task, status, t.Status)
			}
			return nil
		}
	}
	return fmt.Errorf("task %s not in run record", task)
}

func InitializeReportsScenario(sc *godog.ScenarioContext, shared *sharedContext) {
	c := &reportsContext{sharedContext: shared}

	sc.Step(`^the JUnit report "([^"]*)" should have (\d+) tests? and (\d+) failures?$`, c.theJUnitReportShouldHaveTestsAndFailures)
	sc.Step(`^the run record "([^"]*)" should show task "([^"]*)" as "([^"]*)"$`, c.theRunRecordShouldShowTaskAs)
}
