// Package git provides utilities for detecting git repository information.
package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const commandTimeout = 5 * time.Second

// Revision returns the current HEAD commit hash, best effort. The
// second return is false when the working directory is not inside a git
// repository or git is unavailable.
func Revision() (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, "git", "rev-parse", "HEAD").Output()
	if err != nil {
		return "", false
	}

	rev := strings.TrimSpace(string(out))
	return rev, rev != ""
}

// RepoName returns the name of the current git repository.
// It runs "git rev-parse --show-toplevel" and returns the base directory name.
// If not inside a git repo, it falls back to the base name of the working directory.
func RepoName() string {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, "git", "rev-parse", "--show-toplevel").Output()
	if err == nil {
		top := strings.TrimSpace(string(out))
		if top != "" {
			return filepath.Base(top)
		}
	}

	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return filepath.Base(wd)
}
