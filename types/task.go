// Package types defines the shared identity, task, and event types used
// across the pool, orchestrator, and emitters. It is a leaf package with
// no internal dependencies.
package types

import "time"

// Direction is the transfer direction relative to the local machine.
type Direction string

const (
	// DirectionUpload copies a local file to the remote host.
	DirectionUpload Direction = "upload"
	// DirectionDownload copies a remote file to the local machine.
	DirectionDownload Direction = "download"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == DirectionUpload || d == DirectionDownload
}

// Status is the lifecycle state of a transfer task.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// Terminal reports whether the status admits no further transition
// other than the explicit Failed→Pending retry.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransition reports whether from→to is a legal lifecycle transition.
//
// Legal graph:
//
//	Pending    → InProgress | Cancelled
//	InProgress → Completed | Failed | Cancelled
//	Failed     → Pending   (explicit retry)
//
// Everything else, including self-transitions, is illegal.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusInProgress || to == StatusCancelled
	case StatusInProgress:
		return to == StatusCompleted || to == StatusFailed || to == StatusCancelled
	case StatusFailed:
		return to == StatusPending
	default:
		return false
	}
}

// TransferTask is one file-copy job. The transfer store owns the
// authoritative copy; values handed to callers are snapshots.
type TransferTask struct {
	ID         TaskID    `json:"id"`
	SourcePath string    `json:"source_path"`
	DestPath   string    `json:"dest_path"`
	Direction  Direction `json:"direction"`
	Status     Status    `json:"status"`

	// TotalBytes is resolved from source metadata at submission time.
	TotalBytes int64 `json:"total_bytes"`
	// TransferredBytes is monotonically non-decreasing while in progress
	// and equals TotalBytes exactly when the task completes.
	TransferredBytes int64 `json:"transferred_bytes"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error holds the failure detail when Status is Failed.
	Error string `json:"error,omitempty"`

	// Connection is the session the remote leg runs over.
	Connection ConnectionID `json:"connection"`
}

// Clone returns an independent copy of the task.
func (t *TransferTask) Clone() *TransferTask {
	cp := *t
	if t.StartedAt != nil {
		started := *t.StartedAt
		cp.StartedAt = &started
	}
	if t.CompletedAt != nil {
		completed := *t.CompletedAt
		cp.CompletedAt = &completed
	}
	return &cp
}
