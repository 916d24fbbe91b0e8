package emit

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/pithecene-io/gangway/ipc"
	"github.com/pithecene-io/gangway/types"
)

type recordEmitter struct {
	seen   []*types.EventEnvelope
	err    error
	closed bool
}

func (r *recordEmitter) Emit(_ context.Context, envelope *types.EventEnvelope) error {
	r.seen = append(r.seen, envelope)
	return r.err
}

func (r *recordEmitter) Close() error {
	r.closed = true
	return nil
}

func TestNull_AcceptsEverything(t *testing.T) {
	n := Null{}
	if err := n.Emit(context.Background(), types.NewEnvelope(types.EventTransferProgress)); err != nil {
		t.Fatalf("null emit: %v", err)
	}
	if err := n.Close(); err != nil {
		t.Fatalf("null close: %v", err)
	}
}

func TestMulti_FansOut(t *testing.T) {
	a := &recordEmitter{}
	b := &recordEmitter{}
	m := NewMulti(a, b)

	envelope := types.NewEnvelope(types.EventTransferComplete)
	if err := m.Emit(context.Background(), envelope); err != nil {
		t.Fatalf("emit: %v", err)
	}

	if len(a.seen) != 1 || len(b.seen) != 1 {
		t.Errorf("expected both emitters to receive, got %d and %d", len(a.seen), len(b.seen))
	}
}

func TestMulti_ContinuesPastFailure(t *testing.T) {
	failing := &recordEmitter{err: errors.New("sink down")}
	healthy := &recordEmitter{}
	m := NewMulti(failing, healthy)

	err := m.Emit(context.Background(), types.NewEnvelope(types.EventTransferFailed))
	if err == nil {
		t.Fatal("expected first error to surface")
	}
	if len(healthy.seen) != 1 {
		t.Error("healthy emitter skipped after sibling failure")
	}
}

func TestMulti_ClosesAll(t *testing.T) {
	a := &recordEmitter{}
	b := &recordEmitter{}
	m := NewMulti(a, b)

	if err := m.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !a.closed || !b.closed {
		t.Error("expected all emitters closed")
	}
}

func TestStream_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	s := NewStream(&buf)

	want := types.NewEnvelope(types.EventTransferProgress)
	want.Progress = &types.ProgressSnapshot{
		TaskID:           "task-42",
		Filename:         "core.dump",
		Direction:        types.DirectionDownload,
		TransferredBytes: 8192,
		TotalBytes:       24000,
	}
	if err := s.Emit(context.Background(), want); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	dec := ipc.NewFrameDecoder(&buf)
	got, err := dec.ReadEnvelope()
	if err != nil {
		t.Fatalf("read envelope: %v", err)
	}
	if got.Type != types.EventTransferProgress {
		t.Errorf("expected transfer_progress, got %s", got.Type)
	}
	if got.Progress == nil || got.Progress.TransferredBytes != 8192 {
		t.Errorf("progress payload lost: %+v", got.Progress)
	}
}
