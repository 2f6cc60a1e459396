package review

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agalbachicar/tidypatch/internal/backend"
	"github.com/agalbachicar/tidypatch/internal/cache"
	"github.com/agalbachicar/tidypatch/internal/patch"
	"github.com/agalbachicar/tidypatch/internal/redact"
	"github.com/agalbachicar/tidypatch/internal/rules"
)

// DefaultMaxConcurrency bounds parallel backend calls. Small on purpose:
// local models contend for the GPU and cloud APIs rate-limit.
const DefaultMaxConcurrency = 4

// Options controls one engine run. Zero Budget and MaxConcurrency select
// defaults; MergeWindow and ContextLines treat 0 as meaningful (exact-line
// dedup, no context carried across cuts) and negative as the default.
// Per-attempt request timeouts belong to the backend client; the engine only
// owns the whole-run deadline.
type Options struct {
	Budget         int
	ContextLines   int
	MergeWindow    int
	MaxConcurrency int
	GlobalTimeout  time.Duration
	MaxTokens      int
	Temperature    float64
	RedactSecrets  bool
	Cache          *cache.Cache
	Diag           io.Writer
}

// Run reviews a parsed patch against the rule set using the given backend.
//
// Chunks are dispatched to a bounded worker pool; each chunk's
// prompt-submit-parse sequence is independent and the aggregation barrier is
// the only synchronization point. Results are collected by chunk index, so
// the final ordering never depends on backend completion order. Per-chunk
// failures degrade to incomplete markers; Run itself only fails on
// programmer error, never on backend weather.
func Run(ctx context.Context, p *patch.Patch, set *rules.Set, client backend.Client, opts Options) (*Result, error) {
	start := time.Now()
	diagf := func(format string, args ...any) {
		if opts.Diag != nil {
			fmt.Fprintf(opts.Diag, "tidypatch: "+format+"\n", args...)
		}
	}

	maxConc := opts.MaxConcurrency
	if maxConc <= 0 {
		maxConc = DefaultMaxConcurrency
	}

	chunks := patch.Split(p, patch.SplitOptions{
		Budget:       opts.Budget,
		ContextLines: opts.ContextLines,
	})

	counts := Counts{Files: len(p.Files), Chunks: len(chunks)}

	// Chunks with no applicable rules are never sent: no wasted request,
	// no violations.
	type workItem struct {
		chunk patch.Chunk
		rules []rules.Rule
	}
	var items []workItem
	for _, c := range chunks {
		applicable := set.For(c.File)
		if len(applicable) == 0 {
			counts.Skipped++
			continue
		}
		items = append(items, workItem{chunk: c, rules: applicable})
	}

	if opts.GlobalTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.GlobalTimeout)
		defer cancel()
	}

	results := make([]chunkResult, len(items))

	var wg sync.WaitGroup
	sem := make(chan struct{}, maxConc)
	var mu sync.Mutex
	var llmMs int64

	for i, item := range items {
		wg.Add(1)
		go func(i int, item workItem) {
			defer wg.Done()
			sem <- struct{}{}        // acquire
			defer func() { <-sem }() // release

			results[i] = reviewChunk(ctx, client, set, item.chunk, item.rules, opts, diagf, func(d time.Duration) {
				mu.Lock()
				llmMs += d.Milliseconds()
				mu.Unlock()
			})
		}(i, item)
	}
	wg.Wait()

	// Merge in chunk order so dedup tie-breaks are stable across runs.
	var all []Violation
	for _, r := range results {
		all = append(all, r.violations...)
		if r.incomplete {
			counts.Incomplete++
		}
	}
	merged := Aggregate(all, opts.MergeWindow)

	result := &Result{
		RunID:      uuid.NewString(),
		Backend:    client.Name(),
		Violations: merged,
		Counts:     counts,
		Timing: Timing{
			LLMMs:   llmMs,
			TotalMs: time.Since(start).Milliseconds(),
		},
	}
	switch {
	case counts.Incomplete > 0:
		result.Status = StatusError
	case result.HasViolations():
		result.Status = StatusViolations
	default:
		result.Status = StatusClean
	}
	return result, nil
}

type chunkResult struct {
	violations []Violation
	incomplete bool
}

func reviewChunk(ctx context.Context, client backend.Client, set *rules.Set, c patch.Chunk, applicable []rules.Rule, opts Options, diagf func(string, ...any), addLLM func(time.Duration)) chunkResult {
	if opts.RedactSecrets {
		c.Text = redact.Secrets(c.Text)
	}
	prompt := BuildPrompt(c, applicable)

	key := cache.Key(client.Name(), prompt.System, prompt.User)
	content, hit := "", false
	if opts.Cache != nil {
		content, hit = opts.Cache.Get(key)
	}

	if !hit {
		// No per-request deadline here: the backend enforces a per-attempt
		// timeout internally, and a context spanning Submit would expire
		// during the first attempt and starve the retries.
		t0 := time.Now()
		resp, err := client.Submit(ctx, backend.Request{
			System:      prompt.System,
			User:        prompt.User,
			MaxTokens:   opts.MaxTokens,
			Temperature: opts.Temperature,
		})
		addLLM(time.Since(t0))

		if err != nil {
			return incompleteResult(c, submitFailureMessage(ctx, err), diagf)
		}
		content = resp.Content
		if opts.Cache != nil {
			if err := opts.Cache.Put(key, content); err != nil {
				diagf("caching response for %s: %v", c.File, err)
			}
		}
	}

	violations, err := ParseResponse(content, c.File, set, diagf)
	if err != nil {
		if !errors.Is(err, ErrNoPayload) {
			diagf("parsing response for %s: %v", c.File, err)
		}
		return incompleteResult(c, "model returned no structured output; review incomplete for this region", diagf)
	}

	if c.Truncated {
		for i := range violations {
			violations[i].Truncated = true
		}
	}
	return chunkResult{violations: violations}
}

func incompleteResult(c patch.Chunk, reason string, diagf func(string, ...any)) chunkResult {
	diagf("%s: %s", c.File, reason)
	return chunkResult{
		violations: []Violation{{
			RuleID:     IncompleteRuleID,
			File:       c.File,
			Message:    reason,
			Confidence: ConfidenceLow,
			Truncated:  c.Truncated,
			Incomplete: true,
		}},
		incomplete: true,
	}
}

func submitFailureMessage(ctx context.Context, err error) string {
	switch {
	case ctx.Err() != nil:
		return fmt.Sprintf("review cancelled before completion: %v", ctx.Err())
	case backend.IsRejected(err):
		return fmt.Sprintf("backend rejected this chunk: %v", err)
	default:
		return fmt.Sprintf("backend unreachable after retries: %v", err)
	}
}
