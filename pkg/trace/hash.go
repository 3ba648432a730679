package trace

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashContent returns the hex-encoded SHA-256 of the given block bytes.
// The hash is a pure function of the content: identical blocks hash
// identically wherever they live, which is what makes audit identity
// survive refactors that move code between lines or files.
func HashContent(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// HashBlock hashes a block given as lines. Lines are joined with "\n"
// before hashing so the hash is independent of the platform line ending
// the file happened to be written with.
func HashBlock(lines []string) string {
	return HashContent([]byte(strings.Join(lines, "\n")))
}

// HashRange extracts the 1-based inclusive line range from content and
// hashes it. Out-of-bounds ranges are clamped to the file; an empty
// selection hashes the empty block.
func HashRange(content string, startLine, endLine int) string {
	lines := SplitLines(content)

	if startLine < 1 {
		startLine = 1
	}
	if endLine > len(lines) {
		endLine = len(lines)
	}
	if startLine > endLine {
		return HashBlock(nil)
	}

	return HashBlock(lines[startLine-1 : endLine])
}

// SplitLines splits content into lines, tolerating CRLF endings and a
// missing trailing newline.
func SplitLines(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.TrimSuffix(content, "\n")
	if content == "" {
		return nil
	}
	return strings.Split(content, "\n")
}
