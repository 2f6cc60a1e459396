package patch

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"
)

func TestSplit_SingleSmallFile(t *testing.T) {
	p, err := ParseString(sampleDiff)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	chunks := Split(p, SplitOptions{Budget: 100000})
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2 (one per file)", len(chunks))
	}
	if chunks[0].File != "pkg/server.go" || chunks[1].File != "pkg/client.go" {
		t.Errorf("chunk files = %q, %q", chunks[0].File, chunks[1].File)
	}
	if !strings.Contains(chunks[0].Text, "+\ts.registerRoutes()") {
		t.Errorf("chunk text missing added line:\n%s", chunks[0].Text)
	}
}

func TestSplit_NeverSpansFiles(t *testing.T) {
	p, err := ParseString(sampleDiff)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	for _, c := range Split(p, SplitOptions{Budget: 600}) {
		if c.File == "" {
			t.Error("chunk with empty file path")
		}
		if strings.Contains(c.Text, "diff --git") {
			t.Error("chunk text contains a file boundary")
		}
	}
}

func TestSplit_ChunkIndexesAreSequential(t *testing.T) {
	p, err := ParseString(sampleDiff)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	for i, c := range Split(p, SplitOptions{Budget: 600}) {
		if c.Index != i {
			t.Errorf("chunk %d has Index %d", i, c.Index)
		}
	}
}

func TestSplit_OversizedHunkSplitsAtLineBoundaries(t *testing.T) {
	var b strings.Builder
	b.WriteString("diff --git a/big.go b/big.go\n--- a/big.go\n+++ b/big.go\n@@ -1,0 +1,200 @@\n")
	for i := 1; i <= 200; i++ {
		fmt.Fprintf(&b, "+line%03d_%s\n", i, strings.Repeat("x", 20))
	}
	p, err := ParseString(b.String())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	budget := 1024
	chunks := Split(p, SplitOptions{Budget: budget})
	if len(chunks) < 2 {
		t.Fatalf("got %d chunks, want several for oversized hunk", len(chunks))
	}
	for _, c := range chunks {
		if len(c.Text) > budget {
			t.Errorf("chunk %d size %d exceeds budget %d", c.Index, len(c.Text), budget)
		}
		for _, line := range strings.Split(strings.TrimRight(c.Text, "\n"), "\n") {
			if strings.HasPrefix(line, "+line") && !strings.HasSuffix(line, strings.Repeat("x", 20)) {
				t.Errorf("line cut mid-line: %q", line)
			}
		}
	}
}

func TestSplit_ContextWindowRepeatedAcrossCut(t *testing.T) {
	var b strings.Builder
	b.WriteString("diff --git a/w.go b/w.go\n--- a/w.go\n+++ b/w.go\n@@ -1,50 +1,100 @@\n")
	for i := 1; i <= 50; i++ {
		fmt.Fprintf(&b, " ctx%03d\n", i)
		fmt.Fprintf(&b, "+add%03d_%s\n", i, strings.Repeat("y", 30))
	}
	p, err := ParseString(b.String())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	chunks := Split(p, SplitOptions{Budget: 600, ContextLines: 3})
	if len(chunks) < 2 {
		t.Fatalf("got %d chunks, want several", len(chunks))
	}
	// Every continuation chunk must open with context, not a changed line.
	for _, c := range chunks[1:] {
		lines := strings.Split(c.Text, "\n")
		if len(lines) < 2 {
			t.Fatalf("chunk too short:\n%s", c.Text)
		}
		first := lines[1] // lines[0] is the @@ header
		if !strings.HasPrefix(first, " ") {
			t.Errorf("continuation chunk opens on changed line %q", first)
		}
	}
}

func TestSplit_TruncatesIndivisibleLine(t *testing.T) {
	huge := strings.Repeat("z", 10000)
	diff := fmt.Sprintf("diff --git a/min.js b/min.js\n--- a/min.js\n+++ b/min.js\n@@ -1,0 +1,1 @@\n+%s\n", huge)
	p, err := ParseString(diff)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	budget := 2048
	chunks := Split(p, SplitOptions{Budget: budget})
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	c := chunks[0]
	if !c.Truncated {
		t.Error("chunk not flagged as truncated")
	}
	if len(c.Text) > budget {
		t.Errorf("truncated chunk size %d exceeds budget %d", len(c.Text), budget)
	}
	if !strings.Contains(c.Text, TruncationMarker) {
		t.Error("truncation marker missing from chunk text")
	}
}

func TestSplit_LineNumbersCoverNewSide(t *testing.T) {
	p, err := ParseString(sampleDiff)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	chunks := Split(p, SplitOptions{})
	c := chunks[0]
	if c.StartLine != 10 {
		t.Errorf("StartLine = %d, want 10", c.StartLine)
	}
	if c.EndLine < 45 {
		t.Errorf("EndLine = %d, want >= 45", c.EndLine)
	}
}

// TestSplit_PartitionProperty generates random diffs and checks the chunker
// invariants: every changed line appears exactly once, no chunk exceeds the
// budget, and no chunk mixes files.
func TestSplit_PartitionProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 25; trial++ {
		nFiles := 1 + rng.Intn(4)
		var b strings.Builder
		want := make(map[string]int) // sentinel -> expected count (always 1)

		for fi := 0; fi < nFiles; fi++ {
			name := fmt.Sprintf("dir%d/file%d.go", fi%2, fi)
			fmt.Fprintf(&b, "diff --git a/%s b/%s\n--- a/%s\n+++ b/%s\n", name, name, name, name)
			nHunks := 1 + rng.Intn(3)
			newLine := 1
			for hi := 0; hi < nHunks; hi++ {
				nLines := 1 + rng.Intn(60)
				var lines []string
				oldCount, newCount := 0, 0
				for li := 0; li < nLines; li++ {
					switch rng.Intn(3) {
					case 0:
						lines = append(lines, fmt.Sprintf(" ctx_%d_%d_%d_%d", trial, fi, hi, li))
						oldCount++
						newCount++
					case 1:
						sentinel := fmt.Sprintf("add_%d_%d_%d_%d_%s", trial, fi, hi, li, strings.Repeat("a", rng.Intn(40)))
						want[sentinel]++
						lines = append(lines, "+"+sentinel)
						newCount++
					default:
						sentinel := fmt.Sprintf("del_%d_%d_%d_%d", trial, fi, hi, li)
						want[sentinel]++
						lines = append(lines, "-"+sentinel)
						oldCount++
					}
				}
				fmt.Fprintf(&b, "@@ -%d,%d +%d,%d @@\n", newLine, oldCount, newLine, newCount)
				for _, l := range lines {
					b.WriteString(l)
					b.WriteByte('\n')
				}
				newLine += newCount + 2
			}
		}

		p, err := ParseString(b.String())
		if err != nil {
			t.Fatalf("trial %d: Parse: %v", trial, err)
		}

		budget := 600 + rng.Intn(2000)
		chunks := Split(p, SplitOptions{Budget: budget, ContextLines: 3})

		got := make(map[string]int)
		for _, c := range chunks {
			if len(c.Text) > budget {
				t.Errorf("trial %d: chunk %d size %d exceeds budget %d", trial, c.Index, len(c.Text), budget)
			}
			for _, line := range strings.Split(c.Text, "\n") {
				if strings.HasPrefix(line, "+add_") {
					got[line[1:]]++
				}
				if strings.HasPrefix(line, "-del_") {
					got[line[1:]]++
				}
			}
		}

		for sentinel, n := range want {
			if got[sentinel] != n {
				t.Errorf("trial %d: sentinel %q appears %d times, want %d", trial, sentinel, got[sentinel], n)
			}
		}
		for sentinel := range got {
			if want[sentinel] == 0 {
				t.Errorf("trial %d: unexpected sentinel %q", trial, sentinel)
			}
		}
	}
}

func TestSplit_EmptyPatch(t *testing.T) {
	chunks := Split(&Patch{}, SplitOptions{})
	if len(chunks) != 0 {
		t.Errorf("got %d chunks for empty patch, want 0", len(chunks))
	}
}
