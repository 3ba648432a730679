package intent

import (
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// NormalizePath converts p to the workspace-relative form scope patterns
// are written against: forward slashes, no leading "./" or "/", cleaned.
func NormalizePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.TrimPrefix(p, "./")
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		return p
	}
	return path.Clean(p)
}

// ValidateScope reports whether the normalized path matches at least one
// pattern in the intent's owned scope. Glob semantics follow doublestar:
// "**" matches across directory boundaries, "*" within one segment, "?"
// exactly one character. An empty scope never matches; a malformed
// pattern is skipped rather than aborting the check.
func ValidateScope(p string, in *Intent) bool {
	if in == nil || len(in.OwnedScope) == 0 {
		return false
	}

	normalized := NormalizePath(p)
	if normalized == "" {
		return false
	}

	for _, pattern := range in.OwnedScope {
		ok, err := doublestar.Match(pattern, normalized)
		if err != nil {
			continue
		}
		if ok {
			return true
		}
	}
	return false
}
