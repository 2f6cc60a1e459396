// Tidypatch reviews patches against natural-language rules with an LLM
// backend, built to run as a git pre-commit hook.
//
// It chunks a unified diff, sends each chunk with its applicable rules to a
// local (Ollama, LM Studio) or cloud (Anthropic) model, parses the findings
// out of whatever the model answers, and exits 0 when clean, 1 on
// violations, and 2 when any part of the patch could not be reviewed.
//
// Usage:
//
//	tidypatch review                  # review staged changes (hook mode)
//	tidypatch review fix.patch        # review a patch file
//	git diff | tidypatch review -     # review a diff from stdin
//	tidypatch hook install            # install the pre-commit hook
//
// Rules live in a YAML file (default .tidypatch.yaml):
//
//	rules:
//	  - id: no-todo-comments
//	    description: Do not leave TODO comments in committed code.
//	    applies_to: ["**/*.py"]
package main
