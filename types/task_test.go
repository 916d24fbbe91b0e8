package types

import (
	"testing"
	"time"
)

func TestCanTransition_LegalGraph(t *testing.T) {
	legal := []struct{ from, to Status }{
		{StatusPending, StatusInProgress},
		{StatusPending, StatusCancelled},
		{StatusInProgress, StatusCompleted},
		{StatusInProgress, StatusFailed},
		{StatusInProgress, StatusCancelled},
		{StatusFailed, StatusPending},
	}
	for _, tc := range legal {
		if !CanTransition(tc.from, tc.to) {
			t.Errorf("%s → %s should be legal", tc.from, tc.to)
		}
	}
}

func TestCanTransition_IllegalTransitions(t *testing.T) {
	all := []Status{StatusPending, StatusInProgress, StatusCompleted, StatusFailed, StatusCancelled}
	legal := map[Status][]Status{
		StatusPending:    {StatusInProgress, StatusCancelled},
		StatusInProgress: {StatusCompleted, StatusFailed, StatusCancelled},
		StatusFailed:     {StatusPending},
	}

	for _, from := range all {
		for _, to := range all {
			allowed := false
			for _, ok := range legal[from] {
				if to == ok {
					allowed = true
				}
			}
			if !allowed && CanTransition(from, to) {
				t.Errorf("%s → %s should be illegal", from, to)
			}
		}
	}
}

func TestStatusTerminal(t *testing.T) {
	if !StatusCompleted.Terminal() || !StatusCancelled.Terminal() {
		t.Error("completed and cancelled are terminal")
	}
	if StatusPending.Terminal() || StatusInProgress.Terminal() || StatusFailed.Terminal() {
		t.Error("pending, in_progress, and failed are not terminal")
	}
}

func TestTransferTask_CloneIsIndependent(t *testing.T) {
	started := time.Now()
	task := &TransferTask{
		ID:        NewTaskID(),
		Status:    StatusInProgress,
		StartedAt: &started,
	}

	cp := task.Clone()
	cp.Status = StatusFailed
	*cp.StartedAt = started.Add(time.Hour)

	if task.Status != StatusInProgress {
		t.Error("clone mutation leaked into original status")
	}
	if !task.StartedAt.Equal(started) {
		t.Error("clone mutation leaked into original timestamp")
	}
}

func TestConnectionIDFor(t *testing.T) {
	id := ConnectionIDFor("deploy", "build01.internal", 22)
	if id != "deploy@build01.internal:22" {
		t.Errorf("unexpected identity %q", id)
	}
	if id != ConnectionIDFor("deploy", "build01.internal", 22) {
		t.Error("identity derivation should be deterministic")
	}
}
