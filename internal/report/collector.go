// Package report writes run artifacts: a JSON run record and a JUnit XML report.
package report

import (
	"bytes"
	"io"
	"sync"

	"github.com/acarl005/stripansi"
)

// Collector captures each task's unlabeled output for the reports.
// It satisfies runall.Recorder.
type Collector struct {
	mu      sync.Mutex
	outputs map[string]*capture
}

// NewCollector creates an empty collector
func NewCollector() *Collector {
	return &Collector{outputs: make(map[string]*capture)}
}

// TaskOutput returns the writer for task. A task run twice appends to the
// same capture.
func (c *Collector) TaskOutput(task string) io.Writer {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.outputs == nil {
		c.outputs = make(map[string]*capture)
	}
	out, ok := c.outputs[task]
	if !ok {
		out = &capture{}
		c.outputs[task] = out
	}
	return out
}

// Output returns what task wrote, with ANSI escape codes removed
func (c *Collector) Output(task string) string {
	c.mu.Lock()
	out, ok := c.outputs[task]
	c.mu.Unlock()
	if !ok {
		return ""
	}
	return stripansi.Strip(out.String())
}

type capture struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (c *capture) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.Write(p)
}

func (c *capture) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.String()
}
