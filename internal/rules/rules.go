package rules

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rule is one natural-language review rule. AppliesTo holds file-path globs;
// an empty list means the rule applies to every file.
type Rule struct {
	ID          string   `yaml:"id" json:"id"`
	Description string   `yaml:"description" json:"description"`
	AppliesTo   []string `yaml:"applies_to,omitempty" json:"applies_to,omitempty"`
}

// Set is an ordered collection of rules. Order is preserved from the rules
// file so prompts are deterministic.
type Set struct {
	Rules []Rule `yaml:"rules"`

	byID map[string]int
}

// Load reads a YAML rules file.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates rules YAML.
func Parse(data []byte) (*Set, error) {
	var s Set
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing rules file: %w", err)
	}
	if len(s.Rules) == 0 {
		return nil, fmt.Errorf("rules file defines no rules")
	}
	s.byID = make(map[string]int, len(s.Rules))
	for i, r := range s.Rules {
		if r.ID == "" {
			return nil, fmt.Errorf("rule %d has no id", i)
		}
		if r.Description == "" {
			return nil, fmt.Errorf("rule %q has no description", r.ID)
		}
		if _, dup := s.byID[r.ID]; dup {
			return nil, fmt.Errorf("duplicate rule id %q", r.ID)
		}
		s.byID[r.ID] = i
	}
	return &s, nil
}

// For returns the rules applicable to a file path, in declaration order.
func (s *Set) For(path string) []Rule {
	var out []Rule
	for _, r := range s.Rules {
		if r.matches(path) {
			out = append(out, r)
		}
	}
	return out
}

// Known reports whether id names a rule in the set.
func (s *Set) Known(id string) bool {
	_, ok := s.byID[id]
	return ok
}

// Get returns the rule with the given id.
func (s *Set) Get(id string) (Rule, bool) {
	i, ok := s.byID[id]
	if !ok {
		return Rule{}, false
	}
	return s.Rules[i], true
}

func (r Rule) matches(path string) bool {
	if len(r.AppliesTo) == 0 {
		return true
	}
	for _, pattern := range r.AppliesTo {
		if matchGlob(pattern, path) {
			return true
		}
	}
	return false
}

// matchGlob matches a file path against a glob. filepath.Match has no **, so
// patterns with a "**/" prefix also match against the basename and against
// every path suffix.
func matchGlob(pattern, path string) bool {
	if ok, err := filepath.Match(pattern, path); err == nil && ok {
		return true
	}
	trimmed := strings.TrimPrefix(pattern, "**/")
	if trimmed == pattern {
		return false
	}
	if ok, err := filepath.Match(trimmed, filepath.Base(path)); err == nil && ok {
		return true
	}
	parts := strings.Split(path, "/")
	for i := range parts {
		if ok, err := filepath.Match(trimmed, strings.Join(parts[i:], "/")); err == nil && ok {
			return true
		}
	}
	return false
}
