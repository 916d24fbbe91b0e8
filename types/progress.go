package types

import (
	"path/filepath"
	"time"
)

// ProgressSnapshot is a derived, point-in-time readout for one task.
// It is computed on demand and never persisted.
type ProgressSnapshot struct {
	TaskID    TaskID    `json:"task_id" msgpack:"task_id"`
	Filename  string    `json:"filename" msgpack:"filename"`
	Direction Direction `json:"direction" msgpack:"direction"`

	TransferredBytes int64 `json:"transferred_bytes" msgpack:"transferred_bytes"`
	TotalBytes       int64 `json:"total_bytes" msgpack:"total_bytes"`

	// Percentage is 0 when TotalBytes is 0.
	Percentage float64 `json:"percentage" msgpack:"percentage"`
	// SpeedBytesPerSec is averaged over the whole task so far, not a
	// per-chunk instantaneous rate.
	SpeedBytesPerSec float64 `json:"speed_bytes_per_sec" msgpack:"speed_bytes_per_sec"`
	// EstimatedRemaining is 0 when the speed is 0.
	EstimatedRemaining time.Duration `json:"estimated_remaining_ns" msgpack:"estimated_remaining_ns"`
}

// Progress computes the snapshot for a task as of now.
// Elapsed time is measured from the task's start; before the task starts
// the speed is reported as 0.
func Progress(task *TransferTask, now time.Time) ProgressSnapshot {
	snap := ProgressSnapshot{
		TaskID:           task.ID,
		Filename:         filepath.Base(task.SourcePath),
		Direction:        task.Direction,
		TransferredBytes: task.TransferredBytes,
		TotalBytes:       task.TotalBytes,
	}

	if task.TotalBytes > 0 {
		snap.Percentage = float64(task.TransferredBytes) / float64(task.TotalBytes) * 100
	}

	if task.StartedAt == nil {
		return snap
	}

	end := now
	if task.CompletedAt != nil {
		end = *task.CompletedAt
	}
	elapsed := end.Sub(*task.StartedAt).Seconds()
	if elapsed > 0 {
		snap.SpeedBytesPerSec = float64(task.TransferredBytes) / elapsed
	}

	remaining := task.TotalBytes - task.TransferredBytes
	if snap.SpeedBytesPerSec > 0 && remaining > 0 {
		secs := float64(remaining) / snap.SpeedBytesPerSec
		snap.EstimatedRemaining = time.Duration(secs * float64(time.Second))
	}

	return snap
}
