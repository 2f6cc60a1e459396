package patch

import (
	"fmt"
	"strings"
)

const (
	// DefaultBudget is the per-chunk size limit in bytes. Backends count
	// tokens, but bytes are a stable upper bound that needs no tokenizer.
	DefaultBudget = 24576
	// DefaultContextLines is the minimum window of unchanged lines kept
	// around a split point so the model still sees the statement it judges.
	DefaultContextLines = 3

	// TruncationMarker replaces the tail of a single line too large to fit
	// any chunk. Findings from such chunks are flagged so reviewers can
	// discount them.
	TruncationMarker = "… [line truncated]"
)

// Chunk is one review unit: a budget-bounded slice of a single file's diff.
type Chunk struct {
	File      string
	Index     int
	Text      string
	StartLine int
	EndLine   int
	Truncated bool
}

// SplitOptions controls chunking.
type SplitOptions struct {
	Budget       int
	ContextLines int
}

// minBudget keeps the budget large enough to hold a hunk header plus at
// least one truncated line.
const minBudget = 512

func (o SplitOptions) withDefaults() SplitOptions {
	if o.Budget <= 0 {
		o.Budget = DefaultBudget
	}
	if o.Budget < minBudget {
		o.Budget = minBudget
	}
	if o.ContextLines < 0 {
		o.ContextLines = DefaultContextLines
	}
	return o
}

// Split cuts a patch into chunks. Whole hunks are packed per file while they
// fit the budget; an oversized hunk is split at line boundaries with a
// context window repeated at each cut. A chunk never spans files. Every
// changed line of the patch lands in exactly one chunk.
func Split(p *Patch, opts SplitOptions) []Chunk {
	opts = opts.withDefaults()

	var chunks []Chunk
	index := 0
	emit := func(file string, hunks []renderedHunk) {
		if len(hunks) == 0 {
			return
		}
		var b strings.Builder
		truncated := false
		start, end := 0, 0
		for _, rh := range hunks {
			b.WriteString(rh.text)
			truncated = truncated || rh.truncated
			if start == 0 || (rh.start > 0 && rh.start < start) {
				start = rh.start
			}
			if rh.end > end {
				end = rh.end
			}
		}
		chunks = append(chunks, Chunk{
			File:      file,
			Index:     index,
			Text:      b.String(),
			StartLine: start,
			EndLine:   end,
			Truncated: truncated,
		})
		index++
	}

	for _, f := range p.Files {
		var pending []renderedHunk
		size := 0
		flush := func() {
			emit(f.Path, pending)
			pending = nil
			size = 0
		}

		for _, h := range f.Hunks {
			rh := renderHunk(h, opts.Budget)
			if len(rh.text) > opts.Budget {
				flush()
				for _, part := range splitHunk(h, opts) {
					emit(f.Path, []renderedHunk{part})
				}
				continue
			}
			if size > 0 && size+len(rh.text) > opts.Budget {
				flush()
			}
			pending = append(pending, rh)
			size += len(rh.text)
		}
		flush()
	}

	return chunks
}

type renderedHunk struct {
	text      string
	start     int
	end       int
	truncated bool
}

// splitHunk cuts one oversized hunk at line boundaries. Each continuation
// part is prefixed with up to ContextLines of the context lines preceding
// the cut, so no part opens cold on a changed line.
func splitHunk(h Hunk, opts SplitOptions) []renderedHunk {
	var parts []renderedHunk
	var group []Line
	size := headerOverhead

	flush := func() {
		if len(group) == 0 {
			return
		}
		parts = append(parts, renderLines(group, opts.Budget))
		// Seed the next group with the trailing context window.
		var carry []Line
		for i := len(group) - 1; i >= 0 && len(carry) < opts.ContextLines; i-- {
			if group[i].Kind != Context {
				break
			}
			carry = append([]Line{group[i]}, carry...)
		}
		group = carry
		size = headerOverhead
		for _, l := range carry {
			size += renderedLineLen(l, opts.Budget)
		}
	}

	for _, l := range h.Lines {
		ll := renderedLineLen(l, opts.Budget)
		if size+ll > opts.Budget && len(group) > 0 {
			flush()
		}
		group = append(group, l)
		size += ll
	}
	if len(group) > 0 {
		parts = append(parts, renderLines(group, opts.Budget))
	}
	return parts
}

// headerOverhead is a generous allowance for the synthesized @@ header.
const headerOverhead = 40

func renderHunk(h Hunk, budget int) renderedHunk {
	return renderLines(h.Lines, budget)
}

func renderLines(lines []Line, budget int) renderedHunk {
	rh := renderedHunk{}
	var b strings.Builder
	b.WriteString(hunkHeader(lines))
	for _, l := range lines {
		text, wasCut := fitLine(l.Text, budget)
		rh.truncated = rh.truncated || wasCut
		b.WriteByte(l.Kind.Marker())
		b.WriteString(text)
		b.WriteByte('\n')

		n := l.NewLine
		if n == 0 {
			n = l.OldLine
		}
		if n > 0 {
			if rh.start == 0 || n < rh.start {
				rh.start = n
			}
			if n > rh.end {
				rh.end = n
			}
		}
	}
	rh.text = b.String()
	return rh
}

func renderedLineLen(l Line, budget int) int {
	text, _ := fitLine(l.Text, budget)
	return len(text) + 2 // marker + newline
}

// fitLine truncates a single line that cannot fit the budget on its own.
func fitLine(text string, budget int) (string, bool) {
	limit := budget - headerOverhead - len(TruncationMarker) - 2
	if limit <= 0 || len(text) <= limit {
		return text, false
	}
	// Cut on a rune boundary.
	cut := limit
	for cut > 0 && text[cut]&0xC0 == 0x80 {
		cut--
	}
	return text[:cut] + TruncationMarker, true
}

func hunkHeader(lines []Line) string {
	oldStart, oldCount, newStart, newCount := 0, 0, 0, 0
	for _, l := range lines {
		if l.OldLine > 0 {
			if oldStart == 0 {
				oldStart = l.OldLine
			}
			oldCount++
		}
		if l.NewLine > 0 {
			if newStart == 0 {
				newStart = l.NewLine
			}
			newCount++
		}
	}
	return fmt.Sprintf("@@ -%d,%d +%d,%d @@\n", oldStart, oldCount, newStart, newCount)
}
