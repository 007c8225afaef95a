package rule

import "strings"

type offset struct {
	n int
}

// Offset keeps the first n characters and masks the rest. A negative n keeps
// the last |n| characters instead, with the masked run in front of them.
func Offset(n int) Rule {
	return offset{n: n}
}

func (r offset) Apply(value string, ctx Context) (string, bool) {
	runes := []rune(value)
	length := len(runes)
	if length == 0 {
		return value, true
	}

	visible := min(abs(r.n), length)
	hidden := substitute(ctx.Template(), strings.Repeat(ctx.Replacement(), length-visible))

	var result string
	if r.n >= 0 {
		result = string(runes[:visible]) + hidden
	} else {
		result = hidden + string(runes[length-visible:])
	}
	return truncate(result, ctx.LengthLimit()), true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
