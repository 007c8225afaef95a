// Package redactor scrubs secrets embedded in free-text values such as log
// messages, where the sensitive part is only a substring of the value.
package redactor

import (
	"regexp"

	"github.com/logredact/logredact/internal/redaction/rule"
)

// Pattern describes one secret shape and how to rewrite it.
type Pattern struct {
	Name    string
	Regexp  *regexp.Regexp
	Replace string
}

// Scrubber rewrites every pattern match in a value and leaves the rest of
// the text untouched. It implements rule.Rule.
type Scrubber struct {
	patterns []Pattern
}

var _ rule.Rule = (*Scrubber)(nil)

// Default returns a Scrubber with built-in patterns for common secrets.
func Default() *Scrubber {
	return &Scrubber{patterns: defaultPatterns()}
}

// New creates a Scrubber with the provided patterns.
func New(patterns []Pattern) *Scrubber {
	return &Scrubber{patterns: patterns}
}

// Patterns returns the names of the patterns in application order.
func (s *Scrubber) Patterns() []string {
	names := make([]string, 0, len(s.patterns))
	for _, p := range s.patterns {
		names = append(names, p.Name)
	}
	return names
}

// Scrub applies all patterns in order.
func (s *Scrubber) Scrub(value string) string {
	for _, p := range s.patterns {
		if p.Regexp == nil {
			continue
		}
		value = p.Regexp.ReplaceAllString(value, p.Replace)
	}
	return value
}

// Apply scrubs value. Settings from ctx do not apply: matches are replaced
// with each pattern's fixed text so the surrounding message stays readable.
func (s *Scrubber) Apply(value string, _ rule.Context) (string, bool) {
	return s.Scrub(value), true
}

func defaultPatterns() []Pattern {
	return []Pattern{
		{
			Name:    "password",
			Regexp:  regexp.MustCompile(`(?i)(password|passwd|pwd)=[^\s&]+`),
			Replace: "${1}=***",
		},
		{
			Name:    "bearer_token",
			Regexp:  regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9._~+/\-]+=*`),
			Replace: "Bearer ***",
		},
		{
			Name:    "email",
			Regexp:  regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`),
			Replace: "***@***",
		},
		{
			Name:    "credit_card",
			Regexp:  regexp.MustCompile(`\b(\d{4}[\s\-]?){3}\d{4}\b`),
			Replace: "****-****-****-****",
		},
	}
}
