package review

import "sort"

// DefaultMergeWindow collapses findings whose lines are this close. Chunks
// overlap by a few context lines, so the same problem often comes back at
// slightly different line numbers.
const DefaultMergeWindow = 2

// Aggregate merges violations across all chunks of a patch. Input must be in
// chunk-processing order (not backend-completion order) so tie-breaking is
// reproducible across runs.
//
// Two violations merge when they share (rule, file) and their lines are
// within the window; entries without a line only merge with other line-less
// entries. The higher confidence wins a merge, first-seen wins ties. Output
// is ordered by file, then line (line-less entries last per file).
func Aggregate(violations []Violation, mergeWindow int) []Violation {
	if mergeWindow < 0 {
		mergeWindow = DefaultMergeWindow
	}

	var kept []Violation
	for _, v := range violations {
		merged := false
		for i := range kept {
			if !sameFinding(kept[i], v, mergeWindow) {
				continue
			}
			if ConfidenceRank(v.Confidence) > ConfidenceRank(kept[i].Confidence) {
				// Keep the slot (stable order) but take the better message.
				truncated := kept[i].Truncated || v.Truncated
				kept[i] = v
				kept[i].Truncated = truncated
			} else {
				kept[i].Truncated = kept[i].Truncated || v.Truncated
			}
			merged = true
			break
		}
		if !merged {
			kept = append(kept, v)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].File != kept[j].File {
			return kept[i].File < kept[j].File
		}
		li, lj := kept[i].Line, kept[j].Line
		if (li == 0) != (lj == 0) {
			return lj == 0 // line-less entries sort last
		}
		return li < lj
	})
	return kept
}

func sameFinding(a, b Violation, window int) bool {
	if a.RuleID != b.RuleID || a.File != b.File {
		return false
	}
	if a.Incomplete != b.Incomplete {
		return false
	}
	if a.Line == 0 || b.Line == 0 {
		return a.Line == b.Line
	}
	d := a.Line - b.Line
	if d < 0 {
		d = -d
	}
	return d <= window
}
