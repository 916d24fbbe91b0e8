package types

import (
	"testing"
	"time"
)

func TestProgress_ZeroTotalBytes(t *testing.T) {
	started := time.Now().Add(-time.Second)
	task := &TransferTask{
		ID:         NewTaskID(),
		SourcePath: "/tmp/empty.bin",
		Direction:  DirectionUpload,
		StartedAt:  &started,
	}

	snap := Progress(task, time.Now())
	if snap.Percentage != 0 {
		t.Errorf("percentage for zero-byte source should be 0, got %f", snap.Percentage)
	}
	if snap.EstimatedRemaining != 0 {
		t.Errorf("ETA for zero-byte source should be 0, got %s", snap.EstimatedRemaining)
	}
}

func TestProgress_ZeroSpeedMeansZeroETA(t *testing.T) {
	// Not started yet: no elapsed window, so speed and ETA must both be 0.
	task := &TransferTask{
		ID:         NewTaskID(),
		SourcePath: "/tmp/big.bin",
		TotalBytes: 1 << 20,
	}

	snap := Progress(task, time.Now())
	if snap.SpeedBytesPerSec != 0 {
		t.Errorf("speed before start should be 0, got %f", snap.SpeedBytesPerSec)
	}
	if snap.EstimatedRemaining != 0 {
		t.Errorf("ETA with zero speed should be 0, got %s", snap.EstimatedRemaining)
	}
}

func TestProgress_FullTaskWindowAverage(t *testing.T) {
	start := time.Now().Add(-2 * time.Second)
	task := &TransferTask{
		ID:               NewTaskID(),
		SourcePath:       "/data/out/report.csv",
		Direction:        DirectionDownload,
		TotalBytes:       4000,
		TransferredBytes: 2000,
		StartedAt:        &start,
	}

	snap := Progress(task, start.Add(2*time.Second))
	if snap.Percentage != 50 {
		t.Errorf("expected 50%%, got %f", snap.Percentage)
	}
	// 2000 bytes over 2 seconds → 1000 B/s, 2000 bytes left → 2s ETA.
	if snap.SpeedBytesPerSec < 999 || snap.SpeedBytesPerSec > 1001 {
		t.Errorf("expected ~1000 B/s, got %f", snap.SpeedBytesPerSec)
	}
	if snap.EstimatedRemaining < 1900*time.Millisecond || snap.EstimatedRemaining > 2100*time.Millisecond {
		t.Errorf("expected ~2s ETA, got %s", snap.EstimatedRemaining)
	}
	if snap.Filename != "report.csv" {
		t.Errorf("expected base filename, got %q", snap.Filename)
	}
}

func TestProgress_CompletedUsesCompletionTime(t *testing.T) {
	start := time.Now().Add(-time.Hour)
	done := start.Add(4 * time.Second)
	task := &TransferTask{
		ID:               NewTaskID(),
		SourcePath:       "a.bin",
		Status:           StatusCompleted,
		TotalBytes:       8000,
		TransferredBytes: 8000,
		StartedAt:        &start,
		CompletedAt:      &done,
	}

	// Sampling long after completion must not dilute the speed.
	snap := Progress(task, time.Now())
	if snap.SpeedBytesPerSec < 1999 || snap.SpeedBytesPerSec > 2001 {
		t.Errorf("expected ~2000 B/s from completion window, got %f", snap.SpeedBytesPerSec)
	}
	if snap.Percentage != 100 {
		t.Errorf("expected 100%%, got %f", snap.Percentage)
	}
}
