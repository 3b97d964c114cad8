package xio

import (
	"io"
	"net/http"
)

// NewFlushCloser adapts w to encoders that close their output when done.
// Close flushes an http.Flusher and closes an io.Closer, everything else is left open.
func NewFlushCloser(w io.Writer) io.WriteCloser {
	return &flushCloser{
		Writer: w,
	}
}

type flushCloser struct {
	io.Writer
}

func (f *flushCloser) Close() error {
	if flusher, ok := f.Writer.(http.Flusher); ok {
		flusher.Flush()
	}
	if closer, ok := f.Writer.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
