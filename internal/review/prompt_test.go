package review

import (
	"strings"
	"testing"

	"github.com/agalbachicar/tidypatch/internal/patch"
	"github.com/agalbachicar/tidypatch/internal/rules"
)

func TestBuildPrompt_EmbedsRulesAndDiff(t *testing.T) {
	c := patch.Chunk{
		File: "pkg/handlers.py",
		Text: "@@ -1,2 +1,3 @@\n def handle():\n+    pass  # TODO\n     return\n",
	}
	rs := []rules.Rule{
		{ID: "no-todo", Description: "No TODO comments."},
		{ID: "naming", Description: "Use snake_case."},
	}

	p := BuildPrompt(c, rs)

	if p.System != systemPrompt {
		t.Error("system prompt not carried through")
	}
	for _, want := range []string{
		"pkg/handlers.py",
		"- [no-todo] No TODO comments.",
		"- [naming] Use snake_case.",
		"--- BEGIN DIFF ---",
		c.Text,
		"--- END DIFF ---",
	} {
		if !strings.Contains(p.User, want) {
			t.Errorf("user prompt missing %q", want)
		}
	}

	// Rules keep declaration order.
	if strings.Index(p.User, "[no-todo]") > strings.Index(p.User, "[naming]") {
		t.Error("rules not in declaration order")
	}
}

func TestBuildPrompt_Deterministic(t *testing.T) {
	c := patch.Chunk{File: "a.py", Text: "@@ -1 +1 @@\n-x\n+y\n"}
	rs := []rules.Rule{{ID: "r1", Description: "d1"}}

	a := BuildPrompt(c, rs)
	b := BuildPrompt(c, rs)
	if a != b {
		t.Error("identical inputs produced different prompts")
	}
}

func TestBuildPrompt_TruncationNote(t *testing.T) {
	c := patch.Chunk{File: "a.py", Text: "@@ -1 +1 @@\n+y\n"}
	rs := []rules.Rule{{ID: "r1", Description: "d1"}}

	plain := BuildPrompt(c, rs)
	if strings.Contains(plain.User, patch.TruncationMarker) {
		t.Error("truncation note on untruncated chunk")
	}

	c.Truncated = true
	noted := BuildPrompt(c, rs)
	if !strings.Contains(noted.User, patch.TruncationMarker) {
		t.Error("missing truncation note on truncated chunk")
	}
}

func TestBuildPrompt_SchemaInSystemPrompt(t *testing.T) {
	p := BuildPrompt(patch.Chunk{File: "a.py"}, nil)
	for _, field := range []string{`"rule"`, `"line"`, `"message"`, `"confidence"`} {
		if !strings.Contains(p.System, field) {
			t.Errorf("system prompt missing schema field %s", field)
		}
	}
	if !strings.Contains(p.System, "empty array") {
		t.Error("system prompt missing the clean-result instruction")
	}
}
