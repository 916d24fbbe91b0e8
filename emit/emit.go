// Package emit defines the event emitter boundary.
//
// Emitters deliver session and transfer events toward the surrounding UI
// shell. Delivery is fire-and-forget: the pool and orchestrator log and
// count failures but never let them affect the operation that produced
// the event.
package emit

import (
	"context"

	"github.com/pithecene-io/gangway/types"
)

// Emitter delivers event envelopes to a downstream consumer.
// Implementations must be safe for concurrent use.
type Emitter interface {
	// Emit sends one envelope. Must respect context cancellation.
	Emit(ctx context.Context, envelope *types.EventEnvelope) error

	// Close releases emitter resources.
	Close() error
}

// Null discards every event. The zero value is ready to use.
type Null struct{}

func (Null) Emit(context.Context, *types.EventEnvelope) error { return nil }
func (Null) Close() error                                     { return nil }

// Multi fans one event out to several emitters. Emit returns the first
// error encountered but still attempts every emitter.
type Multi struct {
	emitters []Emitter
}

// NewMulti creates a fan-out emitter.
func NewMulti(emitters ...Emitter) *Multi {
	return &Multi{emitters: emitters}
}

// Emit delivers the envelope to every emitter.
func (m *Multi) Emit(ctx context.Context, envelope *types.EventEnvelope) error {
	var first error
	for _, e := range m.emitters {
		if err := e.Emit(ctx, envelope); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Close closes every emitter, returning the first error.
func (m *Multi) Close() error {
	var first error
	for _, e := range m.emitters {
		if err := e.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Verify interface conformance.
var (
	_ Emitter = Null{}
	_ Emitter = (*Multi)(nil)
)
