package types

import (
	"fmt"

	"github.com/google/uuid"
)

// ConnectionID identifies one live session in the pool.
// It is derived deterministically from (username, host, port), so two
// Connect calls with the same endpoint always resolve to the same ID.
type ConnectionID string

// ConnectionIDFor derives the canonical connection identity.
// Format: user@host:port.
func ConnectionIDFor(username, host string, port int) ConnectionID {
	return ConnectionID(fmt.Sprintf("%s@%s:%d", username, host, port))
}

func (c ConnectionID) String() string { return string(c) }

// TaskID identifies one transfer task for its whole lifecycle.
type TaskID string

// NewTaskID returns a fresh random task ID.
func NewTaskID() TaskID {
	return TaskID(uuid.New().String())
}

func (t TaskID) String() string { return string(t) }
