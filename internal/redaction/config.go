package redaction

import (
	"fmt"
	"strings"

	"github.com/logredact/logredact/internal/redaction/rule"
)

// ObjectViewMode selects how foreign objects appear in the output tree.
type ObjectViewMode string

const (
	// ViewCopy renders objects as a fresh *Record with the same member names.
	ViewCopy ObjectViewMode = "copy"
	// ViewPublicArray renders objects as a plain map of their exported members.
	ViewPublicArray ObjectViewMode = "public_array"
	// ViewSkip replaces objects with "[object TypeName]" without looking inside.
	ViewSkip ObjectViewMode = "skip"
)

// ParseObjectViewMode accepts the names used on the command line and in env vars.
func ParseObjectViewMode(s string) (ObjectViewMode, error) {
	switch mode := ObjectViewMode(strings.ToLower(strings.TrimSpace(s))); mode {
	case ViewCopy, ViewPublicArray, ViewSkip:
		return mode, nil
	case "":
		return ViewCopy, nil
	default:
		return "", fmt.Errorf("unknown object view mode %q (want copy, public_array or skip)", s)
	}
}

// Rules is a rule table: each value is a rule.Rule or a nested table
// (Rules, map[string]any or map[string]rule.Rule) scoping rules under that key.
type Rules map[string]any

// Config holds every Processor setting. New copies it, so later changes to a
// Config value never reach a Processor already built from it.
type Config struct {
	Rules           Rules
	UseDefaultRules bool

	Replacement string
	Template    string
	// LengthLimit caps templated rule output, in runes. Zero means unlimited.
	LengthLimit int

	// SkipObjects passes structs and other foreign objects through unchanged
	// instead of rendering them with ObjectViewMode.
	SkipObjects    bool
	ObjectViewMode ObjectViewMode

	// Zero disables a limit.
	MaxDepth             int
	MaxItemsPerContainer int
	MaxTotalNodes        int

	// OverflowPlaceholder replaces values cut off by a limit or a cycle. When
	// nil the original value is kept, unmasked.
	OverflowPlaceholder *string

	// OnLimit receives every LimitEvent synchronously, in traversal order. A
	// returned error aborts the Transform call.
	OnLimit func(LimitEvent) error
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		UseDefaultRules: true,
		Replacement:     "*",
		Template:        rule.DefaultTemplate,
		ObjectViewMode:  ViewCopy,
	}
}

// Placeholder is a convenience for setting Config.OverflowPlaceholder.
func Placeholder(s string) *string {
	return &s
}

func (c *Config) normalize() error {
	if c.Replacement == "" {
		c.Replacement = "*"
	}
	if c.Template == "" {
		c.Template = rule.DefaultTemplate
	}
	if n := strings.Count(c.Template, "%s"); n != 1 {
		return newConfigError("template", "must contain exactly one %%s, found %d", n)
	}
	mode, err := ParseObjectViewMode(string(c.ObjectViewMode))
	if err != nil {
		return newConfigError("object_view_mode", "%v", err)
	}
	c.ObjectViewMode = mode

	for _, limit := range []struct {
		name  string
		value int
	}{
		{"length_limit", c.LengthLimit},
		{"max_depth", c.MaxDepth},
		{"max_items_per_container", c.MaxItemsPerContainer},
		{"max_total_nodes", c.MaxTotalNodes},
	} {
		if limit.value < 0 {
			return newConfigError(limit.name, "must not be negative, got %d", limit.value)
		}
	}

	if c.OverflowPlaceholder != nil {
		c.OverflowPlaceholder = Placeholder(*c.OverflowPlaceholder)
	}
	return nil
}
