package intent

import (
	"fmt"
	"strings"
)

// FormatAsContext renders an intent into the textual block injected back
// to the agent after intent selection. The block is fenced so the agent
// can distinguish protocol context from conversational content, and
// free-text fields are escaped to keep the fencing unambiguous.
func FormatAsContext(in *Intent) string {
	var b strings.Builder

	b.WriteString("<active-intent>\n")
	fmt.Fprintf(&b, "id: %s\n", escapeLine(in.ID))
	fmt.Fprintf(&b, "status: %s\n", in.Status)
	if in.Description != "" {
		fmt.Fprintf(&b, "description: %s\n", escapeLine(in.Description))
	}

	b.WriteString("owned_scope:\n")
	for _, pattern := range in.OwnedScope {
		fmt.Fprintf(&b, "  - %s\n", escapeLine(pattern))
	}

	if len(in.Constraints) > 0 {
		b.WriteString("constraints:\n")
		for _, c := range in.Constraints {
			fmt.Fprintf(&b, "  - %s\n", escapeLine(c))
		}
	}

	if len(in.AcceptanceCriteria) > 0 {
		b.WriteString("acceptance_criteria:\n")
		for _, c := range in.AcceptanceCriteria {
			fmt.Fprintf(&b, "  - %s\n", escapeLine(c))
		}
	}

	if len(in.Dependencies) > 0 {
		fmt.Fprintf(&b, "dependencies: %s\n", strings.Join(in.Dependencies, ", "))
	}

	b.WriteString("rules: only files matching owned_scope may be modified under this intent\n")
	b.WriteString("</active-intent>")

	return b.String()
}

// escapeLine keeps free-text fields on one line and prevents them from
// closing the fence.
func escapeLine(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}
