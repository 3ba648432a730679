// Package eventstream defines transport-neutral governance events and
// the Publisher interface external consumers plug into.
package eventstream

import (
	"time"

	"github.com/keelhq/warden/pkg/trace"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeOperationBlocked is emitted when the pre pipeline rejects
	// a tool call.
	EventTypeOperationBlocked = "warden.operation.blocked"

	// EventTypeTracePersisted is emitted after an audit record is
	// appended to the log.
	EventTypeTracePersisted = "warden.trace.persisted"
)

// GateEvent is a transport-neutral event payload for a gate decision.
type GateEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`

	SessionID string `json:"session_id,omitempty"`
	ToolName  string `json:"tool_name,omitempty"`
	IntentID  string `json:"intent_id,omitempty"`

	// Blocked-operation fields.
	ReasonCode string `json:"reason_code,omitempty"`
	Reason     string `json:"reason,omitempty"`

	// Trace-persisted fields.
	Trace *trace.Record `json:"trace,omitempty"`
}
