package rule

import (
	"strings"
	"unicode/utf8"
)

type fixedValue struct {
	value string
}

// FixedValue replaces any value with v.
func FixedValue(v string) Rule {
	return fixedValue{value: v}
}

func (r fixedValue) Apply(string, Context) (string, bool) {
	return r.value, true
}

type fullMask struct{}

// FullMask replaces every character with the replacement.
func FullMask() Rule {
	return fullMask{}
}

func (fullMask) Apply(value string, ctx Context) (string, bool) {
	return strings.Repeat(ctx.Replacement(), utf8.RuneCountInString(value)), true
}

type null struct{}

// Null erases the value.
func Null() Rule {
	return null{}
}

func (null) Apply(string, Context) (string, bool) {
	return "", false
}
