package emit

import (
	"context"
	"io"
	"sync"

	"github.com/pithecene-io/gangway/ipc"
	"github.com/pithecene-io/gangway/types"
)

// Stream writes events as length-prefixed msgpack frames to a byte
// stream, typically the pipe the UI shell reads. Writes are serialized
// with a mutex since frame boundaries must never interleave.
type Stream struct {
	mu      sync.Mutex
	encoder *ipc.FrameEncoder
	closer  io.Closer
}

// NewStream creates a stream emitter over w. If w is an io.Closer it is
// closed by Close.
func NewStream(w io.Writer) *Stream {
	s := &Stream{encoder: ipc.NewFrameEncoder(w)}
	if c, ok := w.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// Emit frames and writes one envelope.
func (s *Stream) Emit(ctx context.Context, envelope *types.EventEnvelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.encoder.WriteEnvelope(envelope)
}

// Close closes the underlying writer when it is closable.
func (s *Stream) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

// Verify Stream implements the emitter interface.
var _ Emitter = (*Stream)(nil)
