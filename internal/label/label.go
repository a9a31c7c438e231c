// Package label prefixes every line of a task's output with the task's label.
//
// Several tasks write to the same sink at once, so all writers for one sink share
// a State. It records whose prefix was printed last and whether the last byte
// written was a line break, which keeps two tasks' output off the same line.
package label

import (
	"io"
	"strings"
	"sync"
)

// State is the cursor shared by every labeled writer of one sink
type State struct {
	mu              sync.Mutex
	lastPrefix      string
	lastIsLinebreak bool
}

// NewState creates a State positioned at the start of a line
func NewState() *State {
	return &State{lastIsLinebreak: true}
}

// Writer labels one task's output
type Writer struct {
	out    io.Writer
	prefix string
	state  *State
}

// NewWriter wraps out so each line written through it starts with prefix.
// A task's stdout and stderr writers normally share one State even though they
// write to different sinks, so a line left open on one stream is closed before
// the other stream prints.
func NewWriter(out io.Writer, prefix string, state *State) *Writer {
	return &Writer{out: out, prefix: prefix, state: state}
}

// Write transforms p and writes it to the sink. The returned count refers to p.
func (w *Writer) Write(p []byte) (int, error) {
	w.state.mu.Lock()
	defer w.state.mu.Unlock()

	if len(p) == 0 {
		return 0, nil
	}

	transformed := w.transform(string(p))
	if _, err := io.WriteString(w.out, transformed); err != nil {
		return 0, err
	}
	return len(p), nil
}

// transform must be called with the state lock held
func (w *Writer) transform(chunk string) string {
	s := w.state

	var first string
	switch {
	case s.lastIsLinebreak:
		first = w.prefix
	case s.lastPrefix != w.prefix:
		first = "\n"
	}

	out := strings.ReplaceAll(first+chunk, "\n", "\n"+w.prefix)

	// a trailing prefix belongs to the next line, which may never come
	trimmed, isLinebreak := strings.CutSuffix(out, "\n"+w.prefix)
	if isLinebreak {
		out = trimmed + "\n"
	}

	s.lastPrefix = w.prefix
	s.lastIsLinebreak = isLinebreak
	return out
}

// Prefix renders the label for a task, padded so labels of a run line up.
// colorize may be nil.
func Prefix(task string, width int, colorize func(string) string) string {
	name := task
	if pad := width - len(task); pad > 0 {
		name += strings.Repeat(" ", pad)
	}
	label := "[" + name + "]"
	if colorize != nil {
		label = colorize(label)
	}
	return label + " "
}

// Palette hands out label colors round-robin, one per distinct task name.
// A Palette belongs to a single run.
type Palette struct {
	mu       sync.Mutex
	colors   []func(string) string
	assigned map[string]func(string) string
}

// NewPalette creates a palette cycling through colors
func NewPalette(colors []func(string) string) *Palette {
	return &Palette{
		colors:   colors,
		assigned: make(map[string]func(string) string),
	}
}

// Color returns the color for task, assigning the next one on first use.
// It returns nil for an empty palette.
func (p *Palette) Color(task string) func(string) string {
	if len(p.colors) == 0 {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.assigned[task]; ok {
		return c
	}
	c := p.colors[len(p.assigned)%len(p.colors)]
	p.assigned[task] = c
	return c
}
