package patch

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// LineKind classifies a hunk line.
type LineKind int

const (
	Context LineKind = iota
	Added
	Removed
)

// Marker returns the unified-diff marker character for the kind.
func (k LineKind) Marker() byte {
	switch k {
	case Added:
		return '+'
	case Removed:
		return '-'
	default:
		return ' '
	}
}

// Line is a single hunk line with its resolved line numbers.
// OldLine is 0 for added lines, NewLine is 0 for removed lines.
type Line struct {
	Kind    LineKind
	Text    string
	OldLine int
	NewLine int
}

// Hunk is one @@-delimited region of a file diff.
type Hunk struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Lines    []Line
}

// FileDiff holds the ordered hunks for one file.
type FileDiff struct {
	Path    string
	OldPath string
	Hunks   []Hunk
}

// Patch is a parsed unified diff.
type Patch struct {
	Files []FileDiff
}

// ParseError reports structurally corrupt diff input. It is fatal to the
// whole review; everything else the parser tolerates by skipping.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed patch at line %d: %s", e.Line, e.Message)
}

// Parse reads a unified diff. It accepts both git diffs ("diff --git"
// sections) and plain unified diffs that start at "--- a/...". Binary file
// notices and mode-only changes are skipped. A hunk header that cannot be
// parsed, or a hunk line outside any hunk, is a ParseError.
//
// While a hunk still owes lines per its @@ header counts, every line is hunk
// content, never a header. A removed "-- comment" line renders as
// "--- comment" in the body and must not be mistaken for a file header; the
// counts are what disambiguate.
func Parse(r io.Reader) (*Patch, error) {
	p := &Patch{}
	var file *FileDiff
	var hunk *Hunk
	oldNo, newNo := 0, 0
	oldRem, newRem := 0, 0
	lineNo := 0

	flushHunk := func() {
		if hunk != nil && file != nil {
			file.Hunks = append(file.Hunks, *hunk)
		}
		hunk = nil
	}
	flushFile := func() {
		flushHunk()
		if file != nil && (len(file.Hunks) > 0 || file.Path != "") {
			p.Files = append(p.Files, *file)
		}
		file = nil
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		lineNo++

		if hunk != nil && (oldRem > 0 || newRem > 0) {
			if strings.HasPrefix(line, `\ No newline`) {
				continue
			}
			if line == "" {
				// Some tools emit a bare empty line for empty context lines.
				hunk.Lines = append(hunk.Lines, Line{Kind: Context, OldLine: oldNo, NewLine: newNo})
				oldNo++
				newNo++
				oldRem--
				newRem--
				continue
			}
			switch line[0] {
			case '+':
				hunk.Lines = append(hunk.Lines, Line{Kind: Added, Text: line[1:], NewLine: newNo})
				newNo++
				newRem--
				continue
			case '-':
				hunk.Lines = append(hunk.Lines, Line{Kind: Removed, Text: line[1:], OldLine: oldNo})
				oldNo++
				oldRem--
				continue
			case ' ':
				hunk.Lines = append(hunk.Lines, Line{Kind: Context, Text: line[1:], OldLine: oldNo, NewLine: newNo})
				oldNo++
				newNo++
				oldRem--
				newRem--
				continue
			}
			return nil, &ParseError{Line: lineNo, Message: fmt.Sprintf("hunk ended with %d old and %d new lines still expected", oldRem, newRem)}
		}

		switch {
		case strings.HasPrefix(line, "diff --git "):
			flushFile()
			file = &FileDiff{Path: gitHeaderPath(line)}

		case strings.HasPrefix(line, "--- "):
			// Plain unified diffs have no "diff --git" separator, so a ---
			// header after accumulated hunks starts a new file.
			if file != nil && len(file.Hunks) > 0 || hunk != nil {
				flushFile()
			}
			if file == nil {
				file = &FileDiff{}
			}
			file.OldPath = headerPath(line[4:])

		case strings.HasPrefix(line, "+++ "):
			if file == nil {
				return nil, &ParseError{Line: lineNo, Message: "+++ header before --- header"}
			}
			if path := headerPath(line[4:]); path != "" {
				file.Path = path
			} else if file.Path == "" {
				// Deleted file: keep the old path so rules still scope to it.
				file.Path = file.OldPath
			}

		case strings.HasPrefix(line, "@@ "):
			if file == nil {
				return nil, &ParseError{Line: lineNo, Message: "hunk header outside any file section"}
			}
			flushHunk()
			h, err := parseHunkHeader(line)
			if err != nil {
				return nil, &ParseError{Line: lineNo, Message: err.Error()}
			}
			hunk = &h
			oldNo, newNo = h.OldStart, h.NewStart
			oldRem, newRem = h.OldCount, h.NewCount

		case strings.HasPrefix(line, "Binary files "), strings.HasPrefix(line, "GIT binary patch"):
			flushHunk()

		case strings.HasPrefix(line, `\ No newline`):
			// Metadata, not a hunk line.

		case len(line) > 0 && (line[0] == '+' || line[0] == '-' || line[0] == ' '):
			// In-bounds hunk content was consumed above, so this is either
			// before any hunk or past the declared hunk length.
			if file == nil {
				return nil, &ParseError{Line: lineNo, Message: "diff content before any header"}
			}
			// index lines, mode changes etc. between headers are fine;
			// actual +/- content outside a hunk is not.
			if line[0] == ' ' {
				continue
			}
			return nil, &ParseError{Line: lineNo, Message: "hunk line outside hunk bounds"}

		default:
			// index, mode, rename, similarity lines
			if strings.HasPrefix(line, "rename from ") && file != nil {
				file.OldPath = strings.TrimPrefix(line, "rename from ")
			}
			if strings.HasPrefix(line, "rename to ") && file != nil {
				file.Path = strings.TrimPrefix(line, "rename to ")
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading patch: %w", err)
	}
	flushFile()

	return p, nil
}

// ParseString is a convenience wrapper over Parse.
func ParseString(diff string) (*Patch, error) {
	return Parse(strings.NewReader(diff))
}

// IsEmpty reports whether the patch contains no hunks at all.
func (p *Patch) IsEmpty() bool {
	for _, f := range p.Files {
		if len(f.Hunks) > 0 {
			return false
		}
	}
	return true
}

// Paths returns the new-side path of every file in order.
func (p *Patch) Paths() []string {
	paths := make([]string, 0, len(p.Files))
	for _, f := range p.Files {
		paths = append(paths, f.Path)
	}
	return paths
}

func gitHeaderPath(line string) string {
	// diff --git a/foo b/foo — take the b/ side. Paths with spaces are rare
	// enough that the ---/+++ headers that follow correct any mistake here.
	fields := strings.Fields(line)
	if len(fields) >= 4 {
		return strings.TrimPrefix(fields[len(fields)-1], "b/")
	}
	return ""
}

func headerPath(s string) string {
	s = strings.TrimSuffix(s, "\t")
	if i := strings.IndexByte(s, '\t'); i >= 0 {
		s = s[:i]
	}
	if s == "/dev/null" {
		return ""
	}
	s = strings.TrimPrefix(s, "a/")
	s = strings.TrimPrefix(s, "b/")
	return s
}

func parseHunkHeader(line string) (Hunk, error) {
	// @@ -oldStart[,oldCount] +newStart[,newCount] @@ [section]
	rest := strings.TrimPrefix(line, "@@ ")
	end := strings.Index(rest, " @@")
	if end < 0 {
		return Hunk{}, fmt.Errorf("unterminated hunk header %q", line)
	}
	fields := strings.Fields(rest[:end])
	if len(fields) != 2 || !strings.HasPrefix(fields[0], "-") || !strings.HasPrefix(fields[1], "+") {
		return Hunk{}, fmt.Errorf("invalid hunk ranges %q", line)
	}
	oldStart, oldCount, err := parseRange(fields[0][1:])
	if err != nil {
		return Hunk{}, fmt.Errorf("invalid old range %q: %w", fields[0], err)
	}
	newStart, newCount, err := parseRange(fields[1][1:])
	if err != nil {
		return Hunk{}, fmt.Errorf("invalid new range %q: %w", fields[1], err)
	}
	return Hunk{OldStart: oldStart, OldCount: oldCount, NewStart: newStart, NewCount: newCount}, nil
}

func parseRange(s string) (start, count int, err error) {
	count = 1
	if i := strings.IndexByte(s, ','); i >= 0 {
		count, err = strconv.Atoi(s[i+1:])
		if err != nil {
			return 0, 0, err
		}
		s = s[:i]
	}
	start, err = strconv.Atoi(s)
	if err != nil {
		return 0, 0, err
	}
	return start, count, nil
}
