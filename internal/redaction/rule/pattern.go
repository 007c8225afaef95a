package rule

import "regexp"

var (
	nameWordRegex = regexp.MustCompile(`\b(\w{2})\w*(\w)\b`)
	phoneRunRegex = regexp.MustCompile(`(\d{4})\d*(\d{2})`)
)

// patternRule rewrites every match of a pattern and falls back to a StartEnd
// mask when the pattern leaves the value untouched.
type patternRule struct {
	pattern     *regexp.Regexp
	replacement string
	fallback    startEnd
}

// Name keeps the first two and the last character of every word.
func Name() Rule {
	return patternRule{
		pattern:     nameWordRegex,
		replacement: "${1}***${2}",
		fallback:    startEnd{visibleStart: 2, visibleEnd: 2},
	}
}

// Phone keeps the first four and last two digits of every digit run of six
// or more.
func Phone() Rule {
	return patternRule{
		pattern:     phoneRunRegex,
		replacement: "${1}****${2}",
		fallback:    startEnd{visibleStart: 4, visibleEnd: 2},
	}
}

func (r patternRule) Apply(value string, ctx Context) (string, bool) {
	masked := r.pattern.ReplaceAllString(value, r.replacement)
	if masked == value {
		return r.fallback.mask(value, ctx), true
	}
	return masked, true
}
