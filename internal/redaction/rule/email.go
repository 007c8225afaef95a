package rule

import "strings"

const (
	emailVisibleLocal = 3
	emailMaskedLocal  = 4
)

type email struct{}

// Email keeps the first three characters of the local part and the whole
// domain. The masked run has a fixed width so the local part length is not
// disclosed. Values without "@" are masked as StartEnd(3, 4).
func Email() Rule {
	return email{}
}

func (email) Apply(value string, ctx Context) (string, bool) {
	at := strings.LastIndex(value, "@")
	if at < 0 {
		return startEnd{visibleStart: emailVisibleLocal, visibleEnd: 4}.mask(value, ctx), true
	}

	local := []rune(value[:at])
	visible := min(emailVisibleLocal, len(local))
	return string(local[:visible]) + strings.Repeat(ctx.Replacement(), emailMaskedLocal) + value[at:], true
}
