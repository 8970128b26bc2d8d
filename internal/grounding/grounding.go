// Package grounding decides whether a candidate answer needs
// augmentation from live web search, and formats search evidence.
//
// The decision is a pure function of the query and the answer: no side
// effects, no external calls.
package grounding

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/touchline-ai/touchline/internal/gateway"
)

// DefaultIgnorancePhrases is the phrase set signalling the model
// explicitly does not know.
var DefaultIgnorancePhrases = []string{
	"i don't have information about",
	"i don't know",
	"i cannot provide",
	"i don't have access to",
	"i don't have current",
	"i don't have up-to-date",
	"i don't have recent",
	"not available in my training data",
}

// DefaultTimeSensitivePatterns match queries that likely need current data.
var DefaultTimeSensitivePatterns = []string{
	`\b(2025|2026)\b`,
	`\b(latest|recent|current|today|now)\b`,
	`\b(fixtures?|schedule|upcoming)\b`,
	`\b(transfer|signing|news)\b`,
}

// Checker evaluates the needs-grounding heuristic with a fixed,
// configuration-supplied rule set.
type Checker struct {
	minSubstantialChars int
	ignorancePhrases    []string
	timeSensitive       []*regexp.Regexp
}

// Config tunes the checker. Zero values fall back to the defaults.
type Config struct {
	MinSubstantialChars   int
	IgnorancePhrases      []string
	TimeSensitivePatterns []string
}

// NewChecker builds a checker, compiling the time-sensitive patterns
// once. An invalid pattern is an error: the rule table is static and a
// bad entry must fail loudly at startup, not silently never match.
func NewChecker(cfg *Config) (*Checker, error) {
	if cfg == nil {
		cfg = &Config{}
	}

	c := &Checker{
		minSubstantialChars: cfg.MinSubstantialChars,
		ignorancePhrases:    cfg.IgnorancePhrases,
	}
	if c.minSubstantialChars <= 0 {
		c.minSubstantialChars = 100
	}
	if len(c.ignorancePhrases) == 0 {
		c.ignorancePhrases = DefaultIgnorancePhrases
	}

	patterns := cfg.TimeSensitivePatterns
	if len(patterns) == 0 {
		patterns = DefaultTimeSensitivePatterns
	}
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid time-sensitive pattern %q: %w", p, err)
		}
		c.timeSensitive = append(c.timeSensitive, re)
	}

	return c, nil
}

// NeedsGrounding reports whether the candidate answer requires web
// augmentation.
//
// Rule 1: an explicit ignorance phrase in the answer wins immediately.
// Rule 2: a short answer to a time-sensitive query also triggers.
// The ordering and Rule 1 short-circuit are load-bearing.
func (c *Checker) NeedsGrounding(query, candidateAnswer string) bool {
	answer := strings.ToLower(candidateAnswer)

	for _, phrase := range c.ignorancePhrases {
		if strings.Contains(answer, phrase) {
			return true
		}
	}

	if len(strings.TrimSpace(answer)) < c.minSubstantialChars {
		q := strings.ToLower(query)
		for _, re := range c.timeSensitive {
			if re.MatchString(q) {
				return true
			}
		}
	}

	return false
}

// HasIgnorancePhrase reports whether the answer still contains an
// ignorance phrase. Used by the responder's evidence-append safeguard.
func (c *Checker) HasIgnorancePhrase(answer string) bool {
	lower := strings.ToLower(answer)
	for _, phrase := range c.ignorancePhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// IsSubstantial reports whether the answer meets the configured length
// threshold.
func (c *Checker) IsSubstantial(answer string) bool {
	return len(strings.TrimSpace(answer)) >= c.minSubstantialChars
}

// FormatResults renders search results into the deterministic citation
// block fed to the second generation call and appended as raw evidence.
func FormatResults(results []gateway.SearchResult) string {
	if len(results) == 0 {
		return "No search results available."
	}

	var sb strings.Builder
	for i, r := range results {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		title := r.Title
		if title == "" {
			title = "No title"
		}
		snippet := r.Snippet
		if snippet == "" {
			snippet = "No description available"
		}
		fmt.Fprintf(&sb, "%d. %s (%s)\n   %s\n   %s", i+1, title, r.DisplayLink, r.Link, snippet)
	}
	return sb.String()
}
