package types

import (
	"time"

	"github.com/google/uuid"
)

// WireVersion is the event wire contract version. Consumers reject
// envelopes with an unknown major version.
const WireVersion = "1.0.0"

// EventType discriminates event envelopes sent toward the UI shell.
type EventType string

const (
	EventSessionConnected    EventType = "session_connected"
	EventSessionDisconnected EventType = "session_disconnected"
	EventTransferProgress    EventType = "transfer_progress"
	EventTransferComplete    EventType = "transfer_complete"
	EventTransferFailed      EventType = "transfer_failed"
)

// EventEnvelope is the envelope for all UI-bound events.
// Fields carry both json (webhook, redis) and msgpack (IPC stream) tags
// so every emitter shares one shape.
type EventEnvelope struct {
	// WireVersion is the contract version of this envelope.
	WireVersion string `json:"wire_version" msgpack:"wire_version"`
	// EventID is unique per envelope.
	EventID string `json:"event_id" msgpack:"event_id"`
	// Type is the payload discriminator.
	Type EventType `json:"type" msgpack:"type"`
	// Ts is the emission timestamp in RFC 3339 UTC.
	Ts string `json:"ts" msgpack:"ts"`

	// Session is set for session lifecycle events.
	Session *SessionEvent `json:"session,omitempty" msgpack:"session,omitempty"`
	// Progress is set for transfer events.
	Progress *ProgressSnapshot `json:"progress,omitempty" msgpack:"progress,omitempty"`
	// Detail carries the failure message for transfer_failed.
	Detail string `json:"detail,omitempty" msgpack:"detail,omitempty"`
}

// SessionEvent is the payload for session lifecycle events.
type SessionEvent struct {
	Connection ConnectionID `json:"connection" msgpack:"connection"`
	Host       string       `json:"host" msgpack:"host"`
	Username   string       `json:"username" msgpack:"username"`
}

// NewEnvelope builds an envelope with identity and timestamp filled in.
func NewEnvelope(eventType EventType) *EventEnvelope {
	return &EventEnvelope{
		WireVersion: WireVersion,
		EventID:     uuid.New().String(),
		Type:        eventType,
		Ts:          time.Now().UTC().Format(time.RFC3339Nano),
	}
}
