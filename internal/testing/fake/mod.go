// Package fake provides fake implementations for interfaces commonly used
// in the unit tests of the repository: failing streams, a call recorder and
// a deterministic error.
package fake

import (
	"golang.org/x/xerrors"
)

const errMsg = "fake error"

// GetError returns the deterministic error returned by the fakes.
func GetError() error {
	return xerrors.New(errMsg)
}

// Err appends the fake error message to the prefix, to build the expected
// string of a wrapped error.
func Err(prefix string) string {
	return prefix + ": " + errMsg
}

// Call is a tool to keep track of function calls.
type Call struct {
	calls [][]interface{}
}

// Get returns the ith parameter of the nth call.
func (c *Call) Get(n, i int) interface{} {
	return c.calls[n][i]
}

// Len returns the number of calls.
func (c *Call) Len() int {
	return len(c.calls)
}

// Add adds a call to the list.
func (c *Call) Add(args ...interface{}) {
	c.calls = append(c.calls, args)
}

// BadReader is a reader that always fails.
//
// - implements io.Reader
type BadReader struct{}

// Read implements io.Reader. It returns the fake error.
func (r BadReader) Read([]byte) (int, error) {
	return 0, GetError()
}

// BadWriter is a writer that accepts a limited number of bytes before
// failing.
//
// - implements io.Writer
type BadWriter struct {
	// Quota is how many bytes are accepted before the writer fails.
	Quota int

	written int
}

// Write implements io.Writer. It returns the fake error once the quota is
// exhausted.
func (w *BadWriter) Write(p []byte) (int, error) {
	if w.written+len(p) > w.Quota {
		n := w.Quota - w.written
		if n < 0 {
			n = 0
		}

		w.written += n

		return n, GetError()
	}

	w.written += len(p)

	return len(p), nil
}
