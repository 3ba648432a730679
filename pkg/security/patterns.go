package security

import "regexp"

// commandPattern pairs a compiled dangerous-command matcher with the
// human-readable description surfaced in verdicts and authorization
// prompts.
type commandPattern struct {
	re          *regexp.Regexp
	description string
}

// builtinPatterns compiles the curated dangerous-pattern set. Patterns
// are matched against the raw command string; they aim for high recall
// on the classic footguns, with the human gate absorbing false
// positives.
func builtinPatterns() []commandPattern {
	return []commandPattern{
		{
			re:          regexp.MustCompile(`\brm\s+(-[a-zA-Z]*[rR][a-zA-Z]*f[a-zA-Z]*|-[a-zA-Z]*f[a-zA-Z]*[rR][a-zA-Z]*)\b`),
			description: "recursive forced delete",
		},
		{
			re:          regexp.MustCompile(`\bgit\s+push\s+.*(--force\b|-f\b)`),
			description: "forced history rewrite on a remote",
		},
		{
			re:          regexp.MustCompile(`\bgit\s+(reset\s+--hard|clean\s+-[a-zA-Z]*f)`),
			description: "destructive working-tree reset",
		},
		{
			re:          regexp.MustCompile(`\bgit\s+filter-branch\b`),
			description: "history rewrite",
		},
		{
			re:          regexp.MustCompile(`\bchmod\s+([0-7]*7[0-7]*7|777|-R\s+777)\b`),
			description: "world-writable permission change",
		},
		{
			re:          regexp.MustCompile(`\bchown\b.*\broot\b`),
			description: "ownership transfer to root",
		},
		{
			re:          regexp.MustCompile(`\bsudo\b|\bdoas\b|\bsu\s+-`),
			description: "privilege elevation",
		},
		{
			re:          regexp.MustCompile(`\b(curl|wget)\b[^|;&]*\|\s*(ba|z|da|k)?sh\b`),
			description: "remote content piped into a shell",
		},
		{
			re:          regexp.MustCompile(`\bdd\b.*\bof=/dev/`),
			description: "raw write to a block device",
		},
		{
			re:          regexp.MustCompile(`\bmkfs(\.[a-z0-9]+)?\b`),
			description: "filesystem format",
		},
		{
			re:          regexp.MustCompile(`:\(\)\s*\{\s*:\|:\s*&\s*\}\s*;`),
			description: "fork bomb",
		},
		{
			re:          regexp.MustCompile(`(?i)\bDROP\s+(TABLE|DATABASE|SCHEMA)\b`),
			description: "destructive database statement",
		},
		{
			re:          regexp.MustCompile(`(?i)\bTRUNCATE\s+TABLE\b`),
			description: "destructive database statement",
		},
		{
			re:          regexp.MustCompile(`(?i)\bDELETE\s+FROM\s+\w+\s*(;|$)`),
			description: "unfiltered DELETE statement",
		},
		{
			re:          regexp.MustCompile(`>\s*/dev/sd[a-z]\b`),
			description: "redirect onto a block device",
		},
	}
}
