package redaction

import (
	"fmt"

	"github.com/logredact/logredact/internal/redaction/rule"
)

// node is either a leaf rule or a nested scope, never both.
type node struct {
	rule  rule.Rule
	scope tree
}

// tree is the compiled, read-only form of Rules.
type tree map[string]node

// buildTree merges the default table with custom rules, custom winning on a
// top-level key collision, and compiles the result.
func buildTree(custom Rules, useDefaults bool) (tree, error) {
	merged := make(map[string]any, len(custom))
	if useDefaults {
		for key, r := range rule.Defaults() {
			merged[key] = r
		}
	}
	for key, v := range custom {
		merged[key] = v
	}
	return compileScope(merged, "")
}

func compileScope(src map[string]any, path string) (tree, error) {
	t := make(tree, len(src))
	for key, v := range src {
		n, err := compileNode(v, joinPath(path, key))
		if err != nil {
			return nil, err
		}
		t[key] = n
	}
	return t, nil
}

func compileNode(v any, path string) (node, error) {
	switch v := v.(type) {
	case rule.Rule:
		return node{rule: v}, nil
	case Rules:
		scope, err := compileScope(v, path)
		return node{scope: scope}, err
	case map[string]any:
		scope, err := compileScope(v, path)
		return node{scope: scope}, err
	case map[string]rule.Rule:
		scope := make(tree, len(v))
		for key, r := range v {
			if r == nil {
				return node{}, newConfigError(joinPath(path, key), "rule is nil")
			}
			scope[key] = node{rule: r}
		}
		return node{scope: scope}, nil
	default:
		return node{}, newConfigError(path, "want a masking rule or a nested rule mapping, got %T", v)
	}
}

func joinPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return fmt.Sprintf("%s.%s", parent, key)
}
