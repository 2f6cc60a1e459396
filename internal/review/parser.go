package review

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/agalbachicar/tidypatch/internal/rules"
)

// ErrNoPayload means the model ignored the output instructions entirely and
// no structured payload could be located in its response. Per-chunk only;
// the engine degrades it to an incomplete marker.
var ErrNoPayload = errors.New("no structured payload in backend response")

// rawViolation mirrors the JSON schema the prompt asks for. The flex types
// absorb the ways models bend the schema: quoted numbers, float lines,
// numeric confidences.
type rawViolation struct {
	Rule       string         `json:"rule"`
	Line       flexInt        `json:"line"`
	Message    string         `json:"message"`
	Confidence flexConfidence `json:"confidence"`
}

// ParseResponse extracts violations from free-form model output. The model
// may wrap the payload in prose or fences, emit malformed entries, or skip
// fields; everything salvageable is kept and the rest is dropped via diag.
// A located payload with zero valid entries is the normal clean case, not an
// error. Parsing is pure: the same input always yields the same output.
func ParseResponse(content, file string, set *rules.Set, diag func(format string, args ...any)) ([]Violation, error) {
	if diag == nil {
		diag = func(string, ...any) {}
	}

	var raws []rawViolation
	located := false
	for _, candidate := range extractArrays(content) {
		if json.Valid([]byte(candidate)) {
			// Prose brackets ("[see above]") are not a payload; only valid
			// JSON counts as one.
			located = true
			if err := json.Unmarshal([]byte(candidate), &raws); err == nil {
				break
			}
			raws = salvageObjects(candidate, diag)
			if len(raws) > 0 {
				break
			}
			continue
		}
		// Malformed array: salvage whatever entries decode on their own.
		if salvaged := salvageObjects(candidate, diag); len(salvaged) > 0 {
			raws = salvaged
			located = true
			break
		}
	}
	if !located {
		raws = salvageObjects(content, diag)
		if len(raws) == 0 {
			return nil, ErrNoPayload
		}
	}

	var out []Violation
	for _, r := range raws {
		msg := strings.TrimSpace(r.Message)
		if msg == "" {
			diag("dropping entry without message (rule %q)", r.Rule)
			continue
		}
		if !set.Known(r.Rule) {
			diag("dropping violation for unknown rule %q in %s", r.Rule, file)
			continue
		}
		line := int(r.Line)
		if line < 0 {
			line = 0
		}
		out = append(out, Violation{
			RuleID:     r.Rule,
			File:       file,
			Line:       line,
			Message:    msg,
			Confidence: Confidence(r.Confidence),
		})
	}
	return out, nil
}

// extractArrays returns every top-level JSON array candidate in the text,
// in order of appearance. The scan is string-aware so brackets inside
// quoted messages do not confuse it.
func extractArrays(s string) []string {
	var out []string
	for i := 0; i < len(s); i++ {
		if s[i] != '[' {
			continue
		}
		if end, ok := scanBalanced(s, i, '[', ']'); ok {
			out = append(out, s[i:end+1])
			i = end
		}
	}
	return out
}

// salvageObjects decodes each balanced {...} block individually, keeping the
// ones that parse.
func salvageObjects(s string, diag func(format string, args ...any)) []rawViolation {
	var out []rawViolation
	for i := 0; i < len(s); i++ {
		if s[i] != '{' {
			continue
		}
		end, ok := scanBalanced(s, i, '{', '}')
		if !ok {
			break
		}
		var r rawViolation
		if err := json.Unmarshal([]byte(s[i:end+1]), &r); err != nil {
			diag("dropping malformed entry: %v", err)
		} else {
			out = append(out, r)
		}
		i = end
	}
	return out
}

// scanBalanced finds the closing delimiter matching the opener at start,
// skipping string literals and their escapes.
func scanBalanced(s string, start int, open, close byte) (int, bool) {
	depth := 0
	inString := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch c {
			case '\\':
				i++
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// flexInt decodes an int from a JSON number (including floats models emit),
// a numeric string, or null.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		*f = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	if n, err := strconv.Atoi(s); err == nil {
		*f = flexInt(n)
		return nil
	}
	if fl, err := strconv.ParseFloat(s, 64); err == nil {
		*f = flexInt(int(fl))
		return nil
	}
	return fmt.Errorf("invalid line value %s", data)
}

// flexConfidence decodes a confidence ordinal from a string or from the
// 0.0–1.0 scale some models fall back to.
type flexConfidence Confidence

func (f *flexConfidence) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*f = ""
		return nil
	}
	s = strings.ToLower(strings.Trim(s, `"`))
	switch s {
	case string(ConfidenceLow), string(ConfidenceMedium), string(ConfidenceHigh):
		*f = flexConfidence(s)
		return nil
	case "":
		*f = ""
		return nil
	}
	if fl, err := strconv.ParseFloat(s, 64); err == nil {
		switch {
		case fl >= 0.75:
			*f = flexConfidence(ConfidenceHigh)
		case fl >= 0.4:
			*f = flexConfidence(ConfidenceMedium)
		default:
			*f = flexConfidence(ConfidenceLow)
		}
		return nil
	}
	// Unknown label: drop to unranked rather than failing the entry.
	*f = ""
	return nil
}
