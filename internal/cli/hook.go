package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agalbachicar/tidypatch/internal/gitctx"
)

const (
	hookMarkerStart = "# >>> tidypatch pre-commit hook >>>"
	hookMarkerEnd   = "# <<< tidypatch pre-commit hook <<<"
)

var hookExtraArgs string

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Manage the git pre-commit hook",
}

var hookInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install tidypatch as a git pre-commit hook",
	RunE: func(cmd *cobra.Command, args []string) error {
		hookPath, err := getHookPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitError
			return nil
		}

		section := generateHookScript(hookExtraArgs)

		existing, err := os.ReadFile(hookPath)
		if err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Error reading hook file: %v\n", err)
			exitCode = ExitError
			return nil
		}

		var content string
		if os.IsNotExist(err) || len(existing) == 0 {
			content = "#!/bin/sh\n" + section
		} else {
			content = replaceHookSection(string(existing), section)
		}

		if err := os.MkdirAll(filepath.Dir(hookPath), 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating hooks directory: %v\n", err)
			exitCode = ExitError
			return nil
		}

		if err := os.WriteFile(hookPath, []byte(content), 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing hook file: %v\n", err)
			exitCode = ExitError
			return nil
		}

		fmt.Fprintf(os.Stdout, "Installed tidypatch pre-commit hook at %s\n", hookPath)
		return nil
	},
}

var hookUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the tidypatch pre-commit hook",
	RunE: func(cmd *cobra.Command, args []string) error {
		hookPath, err := getHookPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitError
			return nil
		}

		existing, err := os.ReadFile(hookPath)
		if err != nil {
			if os.IsNotExist(err) {
				fmt.Fprintln(os.Stdout, "No pre-commit hook found.")
				return nil
			}
			fmt.Fprintf(os.Stderr, "Error reading hook file: %v\n", err)
			exitCode = ExitError
			return nil
		}

		content := removeHookSection(string(existing))

		// If only a shebang remains, delete the file entirely.
		trimmed := strings.TrimSpace(content)
		if trimmed == "" || trimmed == "#!/bin/sh" || trimmed == "#!/bin/bash" {
			if err := os.Remove(hookPath); err != nil {
				fmt.Fprintf(os.Stderr, "Error removing hook file: %v\n", err)
				exitCode = ExitError
				return nil
			}
			fmt.Fprintf(os.Stdout, "Removed tidypatch pre-commit hook at %s\n", hookPath)
			return nil
		}

		if err := os.WriteFile(hookPath, []byte(content), 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing hook file: %v\n", err)
			exitCode = ExitError
			return nil
		}

		fmt.Fprintf(os.Stdout, "Removed tidypatch section from %s\n", hookPath)
		return nil
	},
}

func getHookPath() (string, error) {
	dir, err := gitctx.HooksDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "pre-commit"), nil
}

// generateHookScript renders the hook section. Violations and incomplete
// reviews both block the commit: a chunk the model never saw is not a chunk
// that passed review.
func generateHookScript(extraArgs string) string {
	var b strings.Builder
	b.WriteString(hookMarkerStart + "\n")
	cmdline := "tidypatch review"
	if extraArgs != "" {
		cmdline += " " + extraArgs
	}
	b.WriteString(cmdline + "\n")
	b.WriteString("TIDYPATCH_EXIT=$?\n")
	b.WriteString("if [ $TIDYPATCH_EXIT -eq 1 ]; then\n")
	b.WriteString("  echo \"tidypatch: rule violations found, commit blocked\"\n")
	b.WriteString("  exit 1\n")
	b.WriteString("elif [ $TIDYPATCH_EXIT -ge 2 ]; then\n")
	b.WriteString("  echo \"tidypatch: review incomplete or failed, commit blocked\"\n")
	b.WriteString("  exit $TIDYPATCH_EXIT\n")
	b.WriteString("fi\n")
	b.WriteString(hookMarkerEnd + "\n")
	return b.String()
}

func replaceHookSection(existing, section string) string {
	startIdx := strings.Index(existing, hookMarkerStart)
	endIdx := strings.Index(existing, hookMarkerEnd)

	if startIdx == -1 || endIdx == -1 {
		// No existing tidypatch section — append
		if !strings.HasSuffix(existing, "\n") {
			existing += "\n"
		}
		return existing + section
	}

	before := existing[:startIdx]
	after := existing[endIdx+len(hookMarkerEnd):]
	after = strings.TrimPrefix(after, "\n")
	return before + section + after
}

func removeHookSection(existing string) string {
	startIdx := strings.Index(existing, hookMarkerStart)
	endIdx := strings.Index(existing, hookMarkerEnd)

	if startIdx == -1 || endIdx == -1 {
		return existing
	}

	before := existing[:startIdx]
	after := existing[endIdx+len(hookMarkerEnd):]
	after = strings.TrimPrefix(after, "\n")

	return before + after
}

func init() {
	hookCmd.AddCommand(hookInstallCmd)
	hookCmd.AddCommand(hookUninstallCmd)
	hookInstallCmd.Flags().StringVar(&hookExtraArgs, "args", "", "Extra arguments passed to 'tidypatch review' in the hook")
}
