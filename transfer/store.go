package transfer

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pithecene-io/gangway/types"
)

// Store is the authoritative map of transfer tasks. All mutation goes
// through its methods so the lifecycle graph is enforced in one place.
// Callers only ever see snapshots.
type Store struct {
	mu    sync.Mutex
	tasks map[types.TaskID]*types.TransferTask
}

func NewStore() *Store {
	return &Store{tasks: make(map[types.TaskID]*types.TransferTask)}
}

// Put registers a task. The store takes ownership of the value.
func (s *Store) Put(task *types.TransferTask) {
	s.mu.Lock()
	s.tasks[task.ID] = task
	s.mu.Unlock()
}

// Transition moves a task to a new status, enforcing the legal graph.
// Side effects: entering InProgress stamps StartedAt; entering Pending
// (retry) clears the error and transferred count.
func (s *Store) Transition(id types.TaskID, to types.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, id)
	}
	if !types.CanTransition(task.Status, to) {
		return fmt.Errorf("%w: %s: %s to %s", ErrInvalidTransition, id, task.Status, to)
	}
	task.Status = to
	switch to {
	case types.StatusInProgress:
		now := time.Now()
		task.StartedAt = &now
	case types.StatusPending:
		task.Error = ""
		task.TransferredBytes = 0
		task.StartedAt = nil
		task.CompletedAt = nil
	}
	return nil
}

// SetTransferred records copy progress for an in-flight task.
func (s *Store) SetTransferred(id types.TaskID, n int64) {
	s.mu.Lock()
	if task, ok := s.tasks[id]; ok {
		task.TransferredBytes = n
	}
	s.mu.Unlock()
}

// Complete marks a task finished. Transferred is pinned to total and
// CompletedAt is stamped.
func (s *Store) Complete(id types.TaskID) error {
	if err := s.Transition(id, types.StatusCompleted); err != nil {
		return err
	}
	s.mu.Lock()
	if task, ok := s.tasks[id]; ok {
		task.TransferredBytes = task.TotalBytes
		now := time.Now()
		task.CompletedAt = &now
	}
	s.mu.Unlock()
	return nil
}

// Fail marks a task failed with the given detail.
func (s *Store) Fail(id types.TaskID, detail string) error {
	if err := s.Transition(id, types.StatusFailed); err != nil {
		return err
	}
	s.mu.Lock()
	if task, ok := s.tasks[id]; ok {
		task.Error = detail
		now := time.Now()
		task.CompletedAt = &now
	}
	s.mu.Unlock()
	return nil
}

// setDestPath rewrites the destination after a case-conflict rename so
// snapshots report where the file actually landed.
func (s *Store) setDestPath(id types.TaskID, destPath string) {
	s.mu.Lock()
	if task, ok := s.tasks[id]; ok {
		task.DestPath = destPath
	}
	s.mu.Unlock()
}

// delete removes a task outright. Used when a submission cannot be
// queued and must leave no trace.
func (s *Store) delete(id types.TaskID) {
	s.mu.Lock()
	delete(s.tasks, id)
	s.mu.Unlock()
}

// restore rolls back a retry whose re-enqueue failed. The overwrite
// only applies while the task still sits in Pending; if it moved on in
// the meantime (a concurrent cancel), the newer state wins.
func (s *Store) restore(snap types.TransferTask) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.tasks[snap.ID]
	if !ok || cur.Status != types.StatusPending {
		return
	}
	s.tasks[snap.ID] = snap.Clone()
}

// Snapshot returns an independent copy of the task.
func (s *Store) Snapshot(id types.TaskID) (types.TransferTask, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok {
		return types.TransferTask{}, false
	}
	return *task.Clone(), true
}

// Status returns just the current status, avoiding a full copy.
func (s *Store) Status(id types.TaskID) (types.Status, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok {
		return "", false
	}
	return task.Status, true
}

// List returns snapshots of every task, newest first.
func (s *Store) List() []types.TransferTask {
	s.mu.Lock()
	out := make([]types.TransferTask, 0, len(s.tasks))
	for _, task := range s.tasks {
		out = append(out, *task.Clone())
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// CountInProgress returns the number of in-flight tasks.
func (s *Store) CountInProgress() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, task := range s.tasks {
		if task.Status == types.StatusInProgress {
			n++
		}
	}
	return n
}
