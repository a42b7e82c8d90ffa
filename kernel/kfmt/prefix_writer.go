package kfmt

import "io"

// PrefixWriter is an io.Writer that wraps another io.Writer and injects a
// prefix at the beginning of each line. It is used to tag log output with the
// name of the module that produced it, e.g. "[hal] ".
type PrefixWriter struct {
	// Sink receives the prefixed output.
	Sink io.Writer

	// Prefix is injected before the first byte of each line.
	Prefix []byte

	// midLine is set when the last byte forwarded to Sink was not a
	// line-feed.
	midLine bool
}

// Write implements io.Writer. The returned byte count does not include the
// injected prefixes.
func (w *PrefixWriter) Write(p []byte) (int, error) {
	var written, start int

	for i := 0; i < len(p); i++ {
		if !w.midLine {
			if _, err := w.Sink.Write(w.Prefix); err != nil {
				return written, err
			}
			w.midLine = true
		}

		if p[i] != '\n' {
			continue
		}

		n, err := w.Sink.Write(p[start : i+1])
		written += n
		if err != nil {
			return written, err
		}
		start, w.midLine = i+1, false
	}

	if start < len(p) {
		n, err := w.Sink.Write(p[start:])
		written += n
		if err != nil {
			return written, err
		}
	}

	return written, nil
}
