package main

import (
	"fmt"
	"io"
	"os"
)

// coloredWriter wraps a terminal output stream, dimming every line
// written to it when the stream is a real terminal — the same
// NO_COLOR-aware, isatty-gated guard the teacher's detectColorLevel
// applies before emitting any ANSI escape.
type coloredWriter struct {
	out     io.Writer
	colored bool
}

func traceWriter(f *os.File) *coloredWriter {
	_, noColor := os.LookupEnv("NO_COLOR")
	return &coloredWriter{out: f, colored: !noColor && isTerminalOut(f)}
}

func (w *coloredWriter) underlying() io.Writer { return w.out }

func (w *coloredWriter) Write(p []byte) (int, error) {
	if !w.colored {
		return w.out.Write(p)
	}
	const dim, reset = "\x1b[2m", "\x1b[0m"
	if _, err := io.WriteString(w.out, dim); err != nil {
		return 0, err
	}
	n, err := w.out.Write(p)
	if err != nil {
		return n, err
	}
	_, err = io.WriteString(w.out, reset)
	return n, err
}

// forModuleSet returns an io.Writer whose lines are prefixed with path,
// so concurrently compiling module sets (main's errgroup fan-out) don't
// interleave into unattributable trace lines.
func (w *coloredWriter) forModuleSet(path string) io.Writer {
	return &prefixWriter{inner: w, prefix: fmt.Sprintf("[%s] ", path)}
}

type prefixWriter struct {
	inner  io.Writer
	prefix string
}

func (p *prefixWriter) Write(line []byte) (int, error) {
	buf := make([]byte, 0, len(p.prefix)+len(line))
	buf = append(append(buf, p.prefix...), line...)
	n, err := p.inner.Write(buf)
	n -= len(p.prefix)
	if n < 0 {
		n = 0
	}
	return n, err
}
