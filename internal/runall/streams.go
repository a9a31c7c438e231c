package runall

import (
	"io"
	"os"
	"reflect"
	"sync"
)

// lockedWriter serializes writes from concurrently running tasks
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// lockedReader serializes reads when several tasks share one input
type lockedReader struct {
	mu sync.Mutex
	r  io.Reader
}

func (l *lockedReader) Read(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Read(p)
}

// lockStreams wraps the shared streams that are not safe for concurrent use.
// An *os.File is left alone so a terminal can still be handed to the child.
func lockStreams(opts Options) Options {
	if opts.Stdin != nil && !isFile(opts.Stdin) {
		if _, ok := opts.Stdin.(*lockedReader); !ok {
			opts.Stdin = &lockedReader{r: opts.Stdin}
		}
	}
	shared := sameStream(opts.Stdout, opts.Stderr)
	opts.Stdout = lockWriter(opts.Stdout)
	if shared {
		opts.Stderr = opts.Stdout
	} else {
		opts.Stderr = lockWriter(opts.Stderr)
	}
	return opts
}

func lockWriter(w io.Writer) io.Writer {
	switch w.(type) {
	case nil, *os.File, *lockedWriter:
		return w
	}
	return &lockedWriter{w: w}
}

// sameStream reports whether a and b are the same writer
func sameStream(a, b io.Writer) bool {
	if a == nil || b == nil {
		return false
	}
	t := reflect.TypeOf(a)
	return t == reflect.TypeOf(b) && t.Comparable() && a == b
}

func isFile(v any) bool {
	_, ok := v.(*os.File)
	return ok
}
