package features

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cucumber/godog"
)

var labelPattern = regexp.MustCompile(`^\[[^\]]+\] `)

type labelsContext struct {
	*sharedContext
}

// everyOutputLineShouldBeLabeled checks that no line lost or doubled its prefix
func (c *labelsContext) everyOutputLineShouldBeLabeled() error {
	for _, line := range strings.Split(strings.TrimSuffix(c.stdout, "\n"), "\n") {
		if !labelPattern.MatchString(line) {
			return fmt.Errorf("unlabeled line %q in output:\n%s", line, c.stdout)
		}
		if labelPattern.MatchString(labelPattern.ReplaceAllString(line, "")) {
			return fmt.Errorf("line %q is labeled twice", line)
		}
	}
	return nil
}

func (c *labelsContext) theOutputShouldHaveLinesLabeled(count int, label string) error {
	prefix := "[" + label
	n := 0
	for _, line := range strings.Split(c.stdout, "\n") {
		if strings.HasPrefix(line, prefix) {
			n++
		}
	}
	if n != count {
		return fmt.Errorf("expected %d lines labeled %q, got %d in:\n%s", count, label, n, c.stdout)
	}
	return nil
}

func InitializeLabelsScenario(sc *godog.ScenarioContext, shared *sharedContext) {
	c := &labelsContext{sharedContext: shared}

	sc.Step(`^every output line should be labeled$`, c.everyOutputLineShouldBeLabeled)
	sc.Step(`^the output should have (\d+) lines? labeled "([^"]*)"$`, c.theOutputShouldHaveLinesLabeled)
}
