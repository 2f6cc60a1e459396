package review

import (
	"fmt"
	"strings"

	"github.com/agalbachicar/tidypatch/internal/patch"
	"github.com/agalbachicar/tidypatch/internal/rules"
)

const systemPrompt = `You are a strict reviewer of source-code patches. You check a diff against a fixed list of review rules and report violations in JSON.

Rules of engagement:
1. Only judge the changes shown in the diff. Lines starting with "+" are added, "-" removed, " " unchanged context.
2. Report a violation only when one of the listed review rules is broken. Do not invent rules and do not comment on anything else.
3. Reference the new-file line numbers from the hunk headers.
4. Rate your confidence as "low", "medium", or "high".

You MUST respond with ONLY a JSON array. No markdown, no explanation, no preamble.

Each entry must have this exact structure:
{
  "rule": "<id of the broken rule>",
  "line": <line number, or 0 if you cannot localize it>,
  "message": "What violates the rule and where",
  "confidence": "low|medium|high"
}

If no rule is violated, respond with an empty array: []`

// Prompt is one fully rendered backend request. Built fresh per chunk and
// never persisted.
type Prompt struct {
	System string
	User   string
}

// BuildPrompt renders the prompt for one chunk and its applicable rules.
// The output is deterministic for identical inputs: rules keep declaration
// order and nothing time- or run-dependent is embedded, so callers may cache
// on the prompt text.
func BuildPrompt(c patch.Chunk, applicable []rules.Rule) Prompt {
	var b strings.Builder

	fmt.Fprintf(&b, "Review this diff of file %s against the rules below.\n", c.File)
	if c.Truncated {
		b.WriteString("Note: at least one line was truncated to fit; marked with " + patch.TruncationMarker + ".\n")
	}

	b.WriteString("\nReview rules:\n")
	for _, r := range applicable {
		fmt.Fprintf(&b, "- [%s] %s\n", r.ID, r.Description)
	}

	b.WriteString("\n--- BEGIN DIFF ---\n")
	b.WriteString(c.Text)
	if !strings.HasSuffix(c.Text, "\n") {
		b.WriteByte('\n')
	}
	b.WriteString("--- END DIFF ---\n")

	return Prompt{System: systemPrompt, User: b.String()}
}
