// Package rule implements the masking strategies applied to scalar leaves of a
// log context tree.
//
// Every rule is pure and total: it never fails and never panics for any string
// input. Lengths are measured in runes, not bytes.
package rule

import "strings"

// DefaultTemplate is the template that substitutes the masked run verbatim.
const DefaultTemplate = "%s"

// Context is the read-only view of processor settings a rule masks with.
type Context interface {
	// Replacement is the string repeated once per hidden character.
	Replacement() string
	// Template wraps the masked run; it holds exactly one "%s".
	Template() string
	// LengthLimit caps the rune length of templated results. Zero means unlimited.
	LengthLimit() int
}

// Rule masks a scalar rendered as a string. A false keep result tells the
// caller to erase the value.
type Rule interface {
	Apply(value string, ctx Context) (masked string, keep bool)
}

func substitute(template, hidden string) string {
	return strings.Replace(template, "%s", hidden, 1)
}

func truncate(value string, limit int) string {
	if limit <= 0 {
		return value
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit])
}
