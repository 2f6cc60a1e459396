package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/agalbachicar/tidypatch/internal/backend"
	"github.com/agalbachicar/tidypatch/internal/cache"
	"github.com/agalbachicar/tidypatch/internal/config"
	"github.com/agalbachicar/tidypatch/internal/gitctx"
	"github.com/agalbachicar/tidypatch/internal/output"
	"github.com/agalbachicar/tidypatch/internal/patch"
	"github.com/agalbachicar/tidypatch/internal/review"
	"github.com/agalbachicar/tidypatch/internal/rules"
)

var (
	flagOut      string
	flagExitZero bool
	flagNoRedact bool
	flagNoCache  bool
)

var reviewCmd = &cobra.Command{
	Use:   "review [patch-file]",
	Short: "Review a patch against the configured rules",
	Long: `Review a unified diff against natural-language rules using an LLM backend.

The patch is read from the given file, from stdin when the argument is "-",
or from the staged changes of the current git repository when no argument is
given (the pre-commit case).`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runReview(args)
		return nil
	},
}

func init() {
	f := reviewCmd.Flags()
	f.String("rules", "", "Rules file path")
	f.String("backend", "", "LLM backend (ollama, lmstudio, anthropic)")
	f.String("model", "", "Model name")
	f.Int("timeout", 0, "Per-attempt request timeout in seconds")
	f.Int("global-timeout", 0, "Whole-run timeout in seconds")
	f.Int("max-concurrency", 0, "Maximum parallel backend requests")
	f.Int("budget", 0, "Chunk size budget in bytes")
	f.Int("context-lines", 0, "Context lines kept around changes")
	f.Int("merge-window", 0, "Line distance within which duplicate findings merge")
	f.String("format", "", "Output format (text, json)")
	f.StringVar(&flagOut, "out", "", "Output file path (default: stdout)")
	f.BoolVar(&flagExitZero, "exit-zero", false, "Always exit 0 (report-only mode)")
	f.BoolVar(&flagNoRedact, "no-redact", false, "Disable secret redaction (use with caution)")
	f.BoolVar(&flagNoCache, "no-cache", false, "Bypass the response cache")

	for key, flag := range map[string]string{
		"rules_file":             "rules",
		"backend":                "backend",
		"model":                  "model",
		"timeout_seconds":        "timeout",
		"global_timeout_seconds": "global-timeout",
		"max_concurrency":        "max-concurrency",
		"budget":                 "budget",
		"context_lines":          "context-lines",
		"merge_window":           "merge-window",
		"format":                 "format",
	} {
		_ = viper.BindPFlag(key, f.Lookup(flag))
	}
}

func runReview(args []string) {
	cfg := config.Load()
	if flagNoRedact {
		cfg.RedactSecrets = false
		fmt.Fprintln(os.Stderr, "WARNING: secret redaction is disabled")
	}

	diff, err := readPatchSource(args, cfg.ContextLines)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = ExitError
		return
	}

	set, err := rules.Load(cfg.RulesFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = ExitError
		return
	}

	p, err := patch.ParseString(diff)
	if err != nil {
		// A patch we cannot parse means we cannot promise coverage.
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = ExitError
		return
	}
	if p.IsEmpty() {
		fmt.Fprintln(os.Stderr, "tidypatch: nothing to review")
		return
	}

	client, err := backend.New(cfg.Backend, cfg.Model, time.Duration(cfg.TimeoutSeconds)*time.Second)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = ExitError
		return
	}

	var respCache *cache.Cache
	if cfg.Cache.Enabled && !flagNoCache {
		respCache, err = cache.New(cfg.Cache.Dir, cfg.Cache.TTLSeconds)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: cache disabled: %v\n", err)
			respCache = nil
		}
	}

	result, err := review.Run(context.Background(), p, set, client, review.Options{
		Budget:         cfg.Budget,
		ContextLines:   cfg.ContextLines,
		MergeWindow:    cfg.MergeWindow,
		MaxConcurrency: cfg.MaxConcurrency,
		GlobalTimeout:  time.Duration(cfg.GlobalTimeoutSeconds) * time.Second,
		MaxTokens:      cfg.MaxTokens,
		Temperature:    cfg.Temperature,
		RedactSecrets:  cfg.RedactSecrets,
		Cache:          respCache,
		Diag:           os.Stderr,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = ExitError
		return
	}

	if err := output.WriteResult(result, cfg.Format, flagOut); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		exitCode = ExitError
		return
	}

	if flagExitZero {
		return
	}
	switch result.Status {
	case review.StatusViolations:
		exitCode = ExitViolations
	case review.StatusError:
		exitCode = ExitError
	}
}

// readPatchSource resolves the diff text: explicit file, stdin via "-", or
// the staged changes when no argument is given.
func readPatchSource(args []string, contextLines int) (string, error) {
	if len(args) == 0 {
		return gitctx.Staged(contextLines)
	}
	if args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading patch from stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("patch file %s does not exist", args[0])
		}
		return "", fmt.Errorf("reading patch file: %w", err)
	}
	return string(data), nil
}
