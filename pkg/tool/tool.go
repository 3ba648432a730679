// Package tool defines the tool-call contract consumed from the host agent
// runtime. Tools are identified by a closed set of tagged kinds rather than
// raw name strings so the classifier and gate hooks can switch on capability.
package tool

import "strings"

// Kind tags the capability of a tool call.
type Kind int

const (
	// KindUnknown is the zero value for unrecognized tools.
	KindUnknown Kind = iota

	// KindRead covers read-only file access.
	KindRead

	// KindList covers directory and glob listings.
	KindList

	// KindSearch covers content search (grep-like) tools.
	KindSearch

	// KindWrite covers file creation and mutation.
	KindWrite

	// KindExecute covers shell command execution.
	KindExecute

	// KindSelectIntent is the intent-selection pseudo-operation the agent
	// calls before any mutation is permitted.
	KindSelectIntent
)

// String returns the canonical name for the kind.
func (k Kind) String() string {
	switch k {
	case KindRead:
		return "read"
	case KindList:
		return "list"
	case KindSearch:
		return "search"
	case KindWrite:
		return "write"
	case KindExecute:
		return "execute"
	case KindSelectIntent:
		return "select_intent"
	default:
		return "unknown"
	}
}

// Mutating reports whether calls of this kind can change workspace or
// system state and therefore pass through the full pre-hook pipeline.
// Unknown kinds count as mutating: a tool name outside the vocabulary
// may well write or execute, so it is gated rather than waved through.
func (k Kind) Mutating() bool {
	return k == KindWrite || k == KindExecute || k == KindUnknown
}

// ReadOnly reports whether the kind belongs to the read-only allowlist.
func (k Kind) ReadOnly() bool {
	return k == KindRead || k == KindList || k == KindSearch
}

// KindFromName maps a host-runtime tool name to a Kind. Matching is
// case-insensitive and covers the common agent tool vocabularies.
func KindFromName(name string) Kind {
	switch strings.ToLower(name) {
	case "read", "read_file", "view", "cat":
		return KindRead
	case "list", "list_files", "ls", "glob":
		return KindList
	case "search", "grep", "rg":
		return KindSearch
	case "write", "write_file", "write_to_file", "edit", "edit_file",
		"create_file", "apply_patch", "insert_content", "search_and_replace":
		return KindWrite
	case "execute", "execute_command", "bash", "shell", "run":
		return KindExecute
	case "select_intent", "intent_select", "declare_intent":
		return KindSelectIntent
	default:
		return KindUnknown
	}
}

// Call is one attempted tool invocation from the host agent runtime.
type Call struct {
	Kind      Kind           `json:"kind"`
	Name      string         `json:"name"`
	Args      map[string]any `json:"args,omitempty"`
	SessionID string         `json:"session_id"`
}

// NewCall builds a Call, deriving the kind from the tool name.
func NewCall(name string, args map[string]any, sessionID string) Call {
	return Call{
		Kind:      KindFromName(name),
		Name:      name,
		Args:      args,
		SessionID: sessionID,
	}
}

// StringArg returns the named argument as a string, or "" if absent or
// not a string.
func (c Call) StringArg(key string) string {
	v, ok := c.Args[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Path returns the target file path for file-oriented calls.
func (c Call) Path() string {
	if p := c.StringArg("path"); p != "" {
		return p
	}
	return c.StringArg("file_path")
}

// Content returns the content payload for write calls.
func (c Call) Content() string {
	return c.StringArg("content")
}

// Command returns the shell command for execute calls.
func (c Call) Command() string {
	return c.StringArg("command")
}

// IntentID returns the intent identifier for select_intent calls.
func (c Call) IntentID() string {
	return c.StringArg("intent_id")
}

// WithArgs returns a copy of the call with the argument overlay applied.
// Keys in overlay replace existing keys; the original call is not modified.
func (c Call) WithArgs(overlay map[string]any) Call {
	if len(overlay) == 0 {
		return c
	}
	merged := make(map[string]any, len(c.Args)+len(overlay))
	for k, v := range c.Args {
		merged[k] = v
	}
	for k, v := range overlay {
		merged[k] = v
	}
	c.Args = merged
	return c
}

// Result is the outcome of the external tool executor, handed back to the
// gate for post-operation processing.
type Result struct {
	Call     Call   `json:"call"`
	Output   string `json:"output,omitempty"`
	ExitCode int    `json:"exit_code,omitempty"`
	Failed   bool   `json:"failed,omitempty"`

	// WrittenContent is the full content of the file after a write,
	// when the executor can provide it. Used for audit range hashing.
	WrittenContent string `json:"written_content,omitempty"`

	// StartLine and EndLine bound the modified block within the file,
	// 1-based inclusive. Zero values mean the whole file.
	StartLine int `json:"start_line,omitempty"`
	EndLine   int `json:"end_line,omitempty"`

	// ModelID identifies the model that produced the mutation.
	ModelID string `json:"model_id,omitempty"`
}
