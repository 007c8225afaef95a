package redaction

import "github.com/logredact/logredact/internal/redaction/rule"

type action uint8

const (
	// inherit keeps the current scope for the children of the key.
	inherit action = iota
	directRule
	subScope
)

type resolution struct {
	action action
	rule   rule.Rule
	scope  tree
}

// resolve looks key up in the scope. An absent key inherits the scope, so a
// rule matches its key at any depth below the scope that declares it.
func (t tree) resolve(key string) resolution {
	n, ok := t[key]
	switch {
	case !ok:
		return resolution{action: inherit}
	case n.rule != nil:
		return resolution{action: directRule, rule: n.rule}
	default:
		return resolution{action: subScope, scope: n.scope}
	}
}
