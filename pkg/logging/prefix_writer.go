package logging

import (
	"bytes"
	"io"
)

// PrefixWriter wraps an io.Writer and prepends a prefix at the start of
// every line.
type PrefixWriter struct {
	prefix  []byte
	writer  io.Writer
	midLine bool
}

// NewPrefixWriter creates a new PrefixWriter.
func NewPrefixWriter(prefix string, w io.Writer) *PrefixWriter {
	return &PrefixWriter{
		prefix: []byte(prefix),
		writer: w,
	}
}

// Write implements io.Writer. The prefix is emitted lazily whenever a new
// line begins, so writes that split a line across calls are prefixed once.
func (pw *PrefixWriter) Write(p []byte) (int, error) {
	total := 0
	for len(p) > 0 {
		if !pw.midLine {
			if _, err := pw.writer.Write(pw.prefix); err != nil {
				return total, err
			}
			pw.midLine = true
		}

		i := bytes.IndexByte(p, '\n')
		if i < 0 {
			n, err := pw.writer.Write(p)
			return total + n, err
		}

		n, err := pw.writer.Write(p[:i+1])
		total += n
		if err != nil {
			return total, err
		}
		pw.midLine = false
		p = p[i+1:]
	}
	return total, nil
}
