// Package security classifies tool calls by risk tier and decides which
// of them need a human in the loop before they run.
package security

import (
	"fmt"

	"github.com/keelhq/warden/pkg/tool"
)

// Tier is the risk classification of a tool call.
type Tier string

const (
	// TierSafe operations run without further checks.
	TierSafe Tier = "safe"

	// TierReview operations proceed once the intent and scope checks
	// pass; they carry no independently dangerous payload.
	TierReview Tier = "review"

	// TierDestructive operations require explicit human authorization.
	TierDestructive Tier = "destructive"
)

// Verdict is the classifier's output for one call.
type Verdict struct {
	Tier   Tier   `json:"tier"`
	Reason string `json:"reason"`
}

// Classifier assigns risk tiers. It is independent of intents: the same
// command is equally dangerous whatever work it claims to serve.
type Classifier struct {
	patterns []commandPattern
}

// NewClassifier creates a Classifier with the builtin dangerous-command
// pattern set.
func NewClassifier() *Classifier {
	return &Classifier{patterns: builtinPatterns()}
}

// Classify inspects the call's kind and arguments and returns a verdict.
//
// Read-only kinds are always safe. Execute commands are matched against
// the dangerous-pattern set; a match is destructive, anything else is
// review. Writes are review: the scope check, not the classifier, is
// what gates where they may land. Unknown kinds get the same command
// pattern matching when a command argument is present, then default to
// review rather than safe.
func (c *Classifier) Classify(call tool.Call) Verdict {
	if call.Kind.ReadOnly() || call.Kind == tool.KindSelectIntent {
		return Verdict{
			Tier:   TierSafe,
			Reason: fmt.Sprintf("%s operations do not mutate state", call.Kind),
		}
	}

	switch call.Kind {
	case tool.KindExecute:
		command := call.Command()
		if match, ok := c.matchCommand(command); ok {
			return Verdict{
				Tier:   TierDestructive,
				Reason: match.description,
			}
		}
		return Verdict{
			Tier:   TierReview,
			Reason: "command execution with no dangerous pattern detected",
		}

	case tool.KindWrite:
		return Verdict{
			Tier:   TierReview,
			Reason: "file mutation, gated by intent scope",
		}

	default:
		// An unrecognized tool may still execute: a command argument
		// gets the same pattern matching as a known execute call.
		if command := call.Command(); command != "" {
			if match, ok := c.matchCommand(command); ok {
				return Verdict{
					Tier:   TierDestructive,
					Reason: match.description,
				}
			}
		}
		return Verdict{
			Tier:   TierReview,
			Reason: fmt.Sprintf("unrecognized tool %q, defaulting to review", call.Name),
		}
	}
}

// matchCommand returns the first dangerous pattern matching the command.
func (c *Classifier) matchCommand(command string) (commandPattern, bool) {
	for _, p := range c.patterns {
		if p.re.MatchString(command) {
			return p, true
		}
	}
	return commandPattern{}, false
}
