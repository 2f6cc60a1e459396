package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/agalbachicar/tidypatch/internal/review"
)

var (
	cyan   = color.New(color.FgHiCyan).SprintFunc()
	green  = color.New(color.FgHiGreen).SprintFunc()
	yellow = color.New(color.FgHiYellow).SprintFunc()
	red    = color.New(color.FgHiRed).SprintFunc()
)

// TextWriter outputs a human-readable report, grouped by file. This is what
// a developer sees when the pre-commit hook blocks their commit.
type TextWriter struct{}

func (t *TextWriter) Write(w io.Writer, result *review.Result) error {
	ew := &errWriter{w: w}

	ew.printf("tidypatch review — backend %s\n", result.Backend)
	ew.println(strings.Repeat("─", 60))

	var findings, markers []review.Violation
	for _, v := range result.Violations {
		if v.Incomplete {
			markers = append(markers, v)
		} else {
			findings = append(findings, v)
		}
	}

	switch result.Status {
	case review.StatusClean:
		ew.printf("%s No violations found.\n", green("✓"))
	case review.StatusViolations:
		ew.printf("%s %d violation(s) found\n", red("✗"), len(findings))
	case review.StatusError:
		ew.printf("%s review incomplete: %d of %d chunk(s) not reviewed\n",
			yellow("⚠"), result.Counts.Incomplete, result.Counts.Chunks)
	}

	if len(findings) > 0 {
		// Input is already ordered by file then line; group on boundaries.
		currentFile := ""
		for _, v := range findings {
			if v.File != currentFile {
				currentFile = v.File
				ew.printf("\n%s\n", cyan(v.File))
			}
			loc := "     "
			if v.Line > 0 {
				loc = fmt.Sprintf("%5d", v.Line)
			}
			ew.printf("  %s  [%s] %s\n", loc, v.RuleID, confidenceLabel(v.Confidence))
			for _, line := range wrapText(v.Message, 70) {
				ew.printf("         %s\n", line)
			}
			if v.Truncated {
				ew.printf("         %s\n", yellow("(chunk was truncated; finding may be imprecise)"))
			}
		}
	}

	if len(markers) > 0 {
		ew.printf("\n%s unreviewed regions:\n", yellow("⚠"))
		for _, m := range markers {
			ew.printf("  %s: %s\n", m.File, m.Message)
		}
	}

	ew.printf("\n%s\n", strings.Repeat("─", 60))
	if ew.err != nil {
		return ew.err
	}
	if err := summaryTable(w, result); err != nil {
		return err
	}
	ew.printf("Completed in %dms (LLM: %dms)\n", result.Timing.TotalMs, result.Timing.LLMMs)
	return ew.err
}

func summaryTable(w io.Writer, result *review.Result) error {
	table := tablewriter.NewTable(w,
		tablewriter.WithHeaderAlignment(tw.AlignLeft),
		tablewriter.WithRowAlignment(tw.AlignLeft),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Lines:      tw.LinesNone,
				Separators: tw.SeparatorsNone,
			},
		}),
		tablewriter.WithPadding(tw.Padding{Left: "", Right: "  "}),
	)
	table.Header([]string{"FILES", "CHUNKS", "SKIPPED", "INCOMPLETE"})
	_ = table.Append([]string{
		fmt.Sprintf("%d", result.Counts.Files),
		fmt.Sprintf("%d", result.Counts.Chunks),
		fmt.Sprintf("%d", result.Counts.Skipped),
		fmt.Sprintf("%d", result.Counts.Incomplete),
	})
	return table.Render()
}

func confidenceLabel(c review.Confidence) string {
	switch c {
	case review.ConfidenceHigh:
		return red("high")
	case review.ConfidenceMedium:
		return yellow("medium")
	case review.ConfidenceLow:
		return green("low")
	default:
		return "unrated"
	}
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}

func wrapText(text string, width int) []string {
	if len(text) <= width {
		return []string{text}
	}
	var lines []string
	words := strings.Fields(text)
	var current strings.Builder
	for _, word := range words {
		if current.Len()+len(word)+1 > width && current.Len() > 0 {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}
