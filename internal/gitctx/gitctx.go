package gitctx

import (
	"fmt"
	"os/exec"
	"strings"
)

// Staged returns the unified diff of the index vs HEAD. This is exactly what
// a pre-commit hook is about to commit.
func Staged(contextLines int) (string, error) {
	args := []string{"diff", "--cached", "--no-color"}
	if contextLines > 0 {
		args = append(args, fmt.Sprintf("-U%d", contextLines))
	}
	diff, err := gitOutput(args...)
	if err != nil {
		return "", fmt.Errorf("git diff --cached: %w", err)
	}
	return diff, nil
}

// Root returns the repository root directory.
func Root() (string, error) {
	out, err := gitOutput("rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("not a git repository: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// HooksDir returns the directory git resolves hooks from, honoring
// core.hooksPath when set.
func HooksDir() (string, error) {
	out, err := gitOutput("rev-parse", "--git-path", "hooks")
	if err != nil {
		return "", fmt.Errorf("resolving hooks directory: %w", err)
	}
	return strings.TrimSpace(out), nil
}

func gitOutput(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return string(out), fmt.Errorf("%s: %s", err, string(exitErr.Stderr))
		}
		return "", err
	}
	return string(out), nil
}
