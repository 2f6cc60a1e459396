// Package rules loads and scopes the natural-language review rules that the
// prompt builder embeds verbatim.
//
// A rules file is YAML:
//
//	rules:
//	  - id: no-todo-comments
//	    description: Do not leave TODO comments without a tracking ticket.
//	    applies_to: ["**/*.py", "**/*.go"]
//
// Rule order in the file is preserved everywhere so prompts stay
// deterministic for identical inputs.
package rules
