package report

import (
	"encoding/xml"
	"fmt"
	"time"

	"github.com/mysticatea/npm-run-all-sub000/internal/model"
)

type junitSuites struct {
	XMLName xml.Name     `xml:"testsuites"`
	Suites  []junitSuite `xml:"testsuite"`
}

type junitSuite struct {
	Name     string      `xml:"name,attr"`
	Tests    int         `xml:"tests,attr"`
	Failures int         `xml:"failures,attr"`
	Skipped  int         `xml:"skipped,attr"`
	Time     string      `xml:"time,attr"`
	Cases    []junitCase `xml:"testcase"`
}

type junitCase struct {
	Name      string        `xml:"name,attr"`
	Classname string        `xml:"classname,attr"`
	Time      string        `xml:"time,attr"`
	Failure   *junitFailure `xml:"failure,omitempty"`
	Skipped   *junitSkipped `xml:"skipped,omitempty"`
	SystemOut string        `xml:"system-out,omitempty"`
}

type junitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
}

type junitSkipped struct {
	Message string `xml:"message,attr"`
}

// JUnit renders results as a JUnit XML document with one testcase per task.
// Failed tasks get a failure; aborted and never-started tasks are skipped.
// Captured output comes from c, which may be nil.
func JUnit(suite string, results []model.ScriptResult, elapsed time.Duration, c *Collector) ([]byte, error) {
	s := junitSuite{
		Name:  suite,
		Tests: len(results),
		Time:  seconds(elapsed),
	}

	for _, r := range results {
		tc := junitCase{
			Name:      r.Name,
			Classname: suite,
			Time:      seconds(r.Duration),
		}
		if c != nil {
			tc.SystemOut = c.Output(r.Name)
		}

		switch r.Status() {
		case model.StatusFail:
			s.Failures++
			tc.Failure = &junitFailure{
				Message: fmt.Sprintf("exited with code %d", *r.Code),
				Type:    "ExitCode",
			}
		case model.StatusAborted:
			s.Skipped++
			tc.Skipped = &junitSkipped{Message: "aborted"}
		case model.StatusPending:
			s.Skipped++
			tc.Skipped = &junitSkipped{Message: "not started"}
		}
		s.Cases = append(s.Cases, tc)
	}

	data, err := xml.MarshalIndent(junitSuites{Suites: []junitSuite{s}}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode junit report: %w", err)
	}
	return append([]byte(xml.Header), append(data, '\n')...), nil
}

// WriteJUnit renders results and writes them to path
func WriteJUnit(path, suite string, results []model.ScriptResult, elapsed time.Duration, c *Collector) error {
	data, err := JUnit(suite, results, elapsed, c)
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

func seconds(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}
