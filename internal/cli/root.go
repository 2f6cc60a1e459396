package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/agalbachicar/tidypatch/internal/config"
)

const version = "0.1.0"

// Exit codes. The pre-commit hook keys off these: violations and incomplete
// reviews both block the commit, they just say different things.
const (
	ExitSuccess    = 0
	ExitViolations = 1
	ExitError      = 2
)

var flagConfig string

var rootCmd = &cobra.Command{
	Use:   "tidypatch",
	Short: "LLM-based patch review for commit hooks",
	Long:  "Tidypatch reviews diffs against natural-language rules using an LLM backend and emits structured violations with deterministic exit codes.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return config.Init(flagConfig)
	},
}

// exitCode is set by command handlers to control the process exit code.
var exitCode = ExitSuccess

// Run executes the root command and returns an exit code.
func Run() int {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: ~/.config/tidypatch/config.yaml)")

	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(hookCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error
		return ExitError
	}

	return exitCode
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print tidypatch version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(os.Stdout, "tidypatch version %s\n", version)
	},
}
