package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/agalbachicar/tidypatch/internal/review"
)

func TestJSONWriter_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONWriter{}).Write(&buf, sampleResult()); err != nil {
		t.Fatalf("Write: %v", err)
	}

	var decoded review.Result
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Status != review.StatusViolations {
		t.Errorf("status = %q", decoded.Status)
	}
	if len(decoded.Violations) != 3 {
		t.Errorf("violations = %d, want 3", len(decoded.Violations))
	}
	if decoded.Violations[0].RuleID != "no-todo" || decoded.Violations[0].Line != 12 {
		t.Errorf("first violation: %+v", decoded.Violations[0])
	}
	if !strings.HasSuffix(buf.String(), "\n") {
		t.Error("missing trailing newline")
	}
}

func TestGetWriter(t *testing.T) {
	if _, err := GetWriter("text"); err != nil {
		t.Errorf("text: %v", err)
	}
	if _, err := GetWriter("json"); err != nil {
		t.Errorf("json: %v", err)
	}
	if _, err := GetWriter("sarif"); err == nil {
		t.Error("unknown format accepted")
	}
}
