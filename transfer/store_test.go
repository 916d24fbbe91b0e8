package transfer

import (
	"errors"
	"testing"
	"time"

	"github.com/pithecene-io/gangway/types"
)

func newStoredTask(s *Store) types.TaskID {
	task := &types.TransferTask{
		ID:         types.NewTaskID(),
		SourcePath: "/src/report.pdf",
		DestPath:   "/dst/report.pdf",
		Direction:  types.DirectionUpload,
		Status:     types.StatusPending,
		TotalBytes: 4096,
		CreatedAt:  time.Now(),
		Connection: "deploy@host:22",
	}
	s.Put(task)
	return task.ID
}

func TestTransition_EnforcesGraph(t *testing.T) {
	s := NewStore()
	id := newStoredTask(s)

	// Pending cannot jump straight to Completed.
	if err := s.Transition(id, types.StatusCompleted); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	if err := s.Transition(id, types.StatusInProgress); err != nil {
		t.Fatalf("pending to in_progress: %v", err)
	}
	snap, _ := s.Snapshot(id)
	if snap.StartedAt == nil {
		t.Error("entering in_progress must stamp StartedAt")
	}

	if err := s.Transition(id, types.StatusPending); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("in_progress to pending must be illegal, got %v", err)
	}
}

func TestTransition_UnknownTask(t *testing.T) {
	s := NewStore()
	err := s.Transition(types.NewTaskID(), types.StatusInProgress)
	if !errors.Is(err, ErrUnknownTask) {
		t.Fatalf("expected ErrUnknownTask, got %v", err)
	}
}

func TestComplete_PinsTransferred(t *testing.T) {
	s := NewStore()
	id := newStoredTask(s)

	if err := s.Transition(id, types.StatusInProgress); err != nil {
		t.Fatalf("transition: %v", err)
	}
	s.SetTransferred(id, 4000)
	if err := s.Complete(id); err != nil {
		t.Fatalf("complete: %v", err)
	}

	snap, _ := s.Snapshot(id)
	if snap.TransferredBytes != snap.TotalBytes {
		t.Errorf("expected transferred == total, got %d of %d", snap.TransferredBytes, snap.TotalBytes)
	}
	if snap.CompletedAt == nil {
		t.Error("complete must stamp CompletedAt")
	}
}

func TestFail_RecordsDetail(t *testing.T) {
	s := NewStore()
	id := newStoredTask(s)

	if err := s.Transition(id, types.StatusInProgress); err != nil {
		t.Fatalf("transition: %v", err)
	}
	if err := s.Fail(id, "remote channel collapsed"); err != nil {
		t.Fatalf("fail: %v", err)
	}

	snap, _ := s.Snapshot(id)
	if snap.Status != types.StatusFailed {
		t.Errorf("expected failed, got %s", snap.Status)
	}
	if snap.Error != "remote channel collapsed" {
		t.Errorf("detail lost: %q", snap.Error)
	}
}

func TestRetryTransition_ResetsProgress(t *testing.T) {
	s := NewStore()
	id := newStoredTask(s)

	if err := s.Transition(id, types.StatusInProgress); err != nil {
		t.Fatalf("transition: %v", err)
	}
	s.SetTransferred(id, 2048)
	if err := s.Fail(id, "boom"); err != nil {
		t.Fatalf("fail: %v", err)
	}
	if err := s.Transition(id, types.StatusPending); err != nil {
		t.Fatalf("failed to pending: %v", err)
	}

	snap, _ := s.Snapshot(id)
	if snap.TransferredBytes != 0 {
		t.Errorf("retry must reset transferred, got %d", snap.TransferredBytes)
	}
	if snap.Error != "" {
		t.Errorf("retry must clear error, got %q", snap.Error)
	}
	if snap.StartedAt != nil || snap.CompletedAt != nil {
		t.Error("retry must clear timing stamps")
	}
}

func TestSnapshot_Independent(t *testing.T) {
	s := NewStore()
	id := newStoredTask(s)

	snap, ok := s.Snapshot(id)
	if !ok {
		t.Fatal("snapshot missing")
	}
	snap.TransferredBytes = 999

	again, _ := s.Snapshot(id)
	if again.TransferredBytes != 0 {
		t.Error("snapshot mutation leaked into the store")
	}
}

func TestCountInProgress(t *testing.T) {
	s := NewStore()
	a := newStoredTask(s)
	newStoredTask(s)

	if n := s.CountInProgress(); n != 0 {
		t.Fatalf("expected 0 in progress, got %d", n)
	}
	if err := s.Transition(a, types.StatusInProgress); err != nil {
		t.Fatalf("transition: %v", err)
	}
	if n := s.CountInProgress(); n != 1 {
		t.Errorf("expected 1 in progress, got %d", n)
	}
}

// failTask drives a stored task to Failed and returns its snapshot.
func failTask(t *testing.T, s *Store, id types.TaskID) types.TransferTask {
	t.Helper()
	if err := s.Transition(id, types.StatusInProgress); err != nil {
		t.Fatalf("transition: %v", err)
	}
	if err := s.Fail(id, "remote hung up"); err != nil {
		t.Fatalf("fail: %v", err)
	}
	snap, _ := s.Snapshot(id)
	return snap
}

func TestRestore_RollsBackPendingRetry(t *testing.T) {
	s := NewStore()
	id := newStoredTask(s)
	prior := failTask(t, s, id)

	if err := s.Transition(id, types.StatusPending); err != nil {
		t.Fatalf("retry transition: %v", err)
	}
	s.restore(prior)

	snap, _ := s.Snapshot(id)
	if snap.Status != types.StatusFailed {
		t.Fatalf("status = %q, want failed after rollback", snap.Status)
	}
	if snap.Error != "remote hung up" {
		t.Errorf("rollback lost the failure detail: %q", snap.Error)
	}
}

func TestRestore_YieldsToConcurrentCancel(t *testing.T) {
	s := NewStore()
	id := newStoredTask(s)
	prior := failTask(t, s, id)

	if err := s.Transition(id, types.StatusPending); err != nil {
		t.Fatalf("retry transition: %v", err)
	}
	// A cancel lands between the retry transition and the rollback.
	if err := s.Transition(id, types.StatusCancelled); err != nil {
		t.Fatalf("cancel transition: %v", err)
	}
	s.restore(prior)

	snap, _ := s.Snapshot(id)
	if snap.Status != types.StatusCancelled {
		t.Fatalf("status = %q, rollback must not stomp a cancel", snap.Status)
	}
}
