// Package transfer owns the task store and the orchestrator that drains
// it under a bounded concurrency budget.
//
// This file defines the sentinel errors callers match with errors.Is.
package transfer

import "errors"

var (
	// ErrSourceUnavailable indicates the source file could not be read
	// or statted at submission time.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrInvalidTransition indicates a task status change that the
	// lifecycle graph does not permit.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrUnknownTask indicates no task exists for the given ID.
	ErrUnknownTask = errors.New("unknown task")

	// ErrQueueFull indicates the submission backlog is at capacity.
	// The task is not registered; the caller decides whether to retry.
	ErrQueueFull = errors.New("transfer queue full")

	// ErrOrchestratorClosed indicates Submit after shutdown.
	ErrOrchestratorClosed = errors.New("orchestrator closed")
)
