package gatekeeper

import "time"

// ReasonCode is the short enum the agent pattern-matches for autonomous
// recovery after a block.
type ReasonCode string

const (
	CodeNoIntent       ReasonCode = "NO_INTENT"
	CodeScopeViolation ReasonCode = "SCOPE_VIOLATION"
	CodeHITLRejected   ReasonCode = "HITL_REJECTED"
	CodeIntentNotFound ReasonCode = "INTENT_NOT_FOUND"
	CodeIntentBlocked  ReasonCode = "INTENT_BLOCKED"

	// CodeInternal marks fail-secure denials caused by a fault inside
	// the pipeline itself rather than by governance policy.
	CodeInternal ReasonCode = "INTERNAL_ERROR"
)

// Rejection is the structured payload surfaced to the agent on any
// block. Rejections are expected protocol results, not system errors:
// they are returned verbatim and never logged as failures.
type Rejection struct {
	Error      string     `json:"error"`
	Reason     string     `json:"reason"`
	Suggestion string     `json:"suggestion"`
	Code       ReasonCode `json:"blocked_reason_code"`
	Timestamp  string     `json:"timestamp"`
}

// newRejection builds a Rejection stamped with the current time.
func newRejection(code ReasonCode, reason, suggestion string) *Rejection {
	return &Rejection{
		Error:      "BLOCKED",
		Reason:     reason,
		Suggestion: suggestion,
		Code:       code,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
}
