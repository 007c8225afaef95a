package rule

import "strings"

type startEnd struct {
	visibleStart int
	visibleEnd   int
}

// StartEnd keeps the first start and last end characters and masks the middle.
//
// Values no longer than start+end keep only their first character. The trailing
// characters are appended only when the template is DefaultTemplate, since a
// custom template is expected to describe the value itself.
func StartEnd(start, end int) Rule {
	return startEnd{visibleStart: max(start, 0), visibleEnd: max(end, 0)}
}

func (r startEnd) Apply(value string, ctx Context) (string, bool) {
	return r.mask(value, ctx), true
}

func (r startEnd) mask(value string, ctx Context) string {
	runes := []rune(value)
	length := len(runes)
	if length == 0 {
		return value
	}
	if length <= r.visibleStart+r.visibleEnd {
		return string(runes[:1]) + strings.Repeat(ctx.Replacement(), length-1)
	}

	hidden := strings.Repeat(ctx.Replacement(), length-r.visibleStart-r.visibleEnd)

	var b strings.Builder
	b.WriteString(string(runes[:r.visibleStart]))
	b.WriteString(substitute(ctx.Template(), hidden))
	if ctx.Template() == DefaultTemplate && r.visibleEnd > 0 {
		b.WriteString(string(runes[length-r.visibleEnd:]))
	}
	return truncate(b.String(), ctx.LengthLimit())
}
