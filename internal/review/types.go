package review

// Confidence is the model's self-reported confidence in a violation.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// ConfidenceRank returns a numeric rank for merging (higher wins).
func ConfidenceRank(c Confidence) int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	default:
		return 0
	}
}

// IncompleteRuleID is the reserved rule id carried by engine-produced
// markers for chunks whose review did not complete. It never appears in a
// rules file and is exempt from the known-rule check, which applies only to
// entries parsed out of model output.
const IncompleteRuleID = "_incomplete"

// Violation is one structured finding tied to a rule and a location.
// Line 0 means the model could not localize the finding.
type Violation struct {
	RuleID     string     `json:"ruleId"`
	File       string     `json:"file"`
	Line       int        `json:"line,omitempty"`
	Message    string     `json:"message"`
	Confidence Confidence `json:"confidence,omitempty"`
	Truncated  bool       `json:"truncated,omitempty"`
	Incomplete bool       `json:"incomplete,omitempty"`
}

// Status is the terminal state of one review run.
type Status string

const (
	// StatusClean means every chunk was reviewed and nothing was found.
	StatusClean Status = "clean"
	// StatusViolations means at least one violation was found and every
	// chunk completed.
	StatusViolations Status = "violations_found"
	// StatusError means at least one chunk could not be fully reviewed.
	// Incomplete coverage blocks the hook the same way an internal error
	// does, even when real violations were also found.
	StatusError Status = "error"
)

// Timing holds wall-clock accounting for the run.
type Timing struct {
	LLMMs   int64 `json:"llmMs"`
	TotalMs int64 `json:"totalMs"`
}

// Counts summarizes chunk bookkeeping: every chunk of the patch is either
// reviewed, skipped (no applicable rules), or incomplete.
type Counts struct {
	Files      int `json:"files"`
	Chunks     int `json:"chunks"`
	Skipped    int `json:"skipped"`
	Incomplete int `json:"incomplete"`
}

// Result is the terminal artifact of one pipeline run.
type Result struct {
	RunID      string      `json:"runId"`
	Backend    string      `json:"backend"`
	Status     Status      `json:"status"`
	Violations []Violation `json:"violations"`
	Counts     Counts      `json:"counts"`
	Timing     Timing      `json:"timing"`
}

// HasViolations reports whether any non-marker violation was found.
func (r *Result) HasViolations() bool {
	for _, v := range r.Violations {
		if !v.Incomplete {
			return true
		}
	}
	return false
}
