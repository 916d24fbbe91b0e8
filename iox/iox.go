// Package iox provides small I/O cleanup helpers shared across the
// pool, transfer, and CLI layers.
package iox

import "io"

// DiscardClose closes c, swallowing the error. For defers where a
// close failure changes nothing for the caller:
//
//	defer iox.DiscardClose(pool)
func DiscardClose(c io.Closer) { _ = c.Close() }

// CloseFunc adapts a Closer to the func() shape cleanup hooks want:
//
//	t.Cleanup(iox.CloseFunc(orch))
func CloseFunc(c io.Closer) func() {
	return func() { _ = c.Close() }
}

// DiscardErr runs fn and drops its error, for cleanup calls that are
// not Closers:
//
//	defer iox.DiscardErr(enc.Flush)
func DiscardErr(fn func() error) { _ = fn() }
