// Package rulefile loads rule tables and input documents written as YAML or
// JSON.
//
// A rule file is a mapping. String values name a masking rule:
//
//	fixed:<value>      replace with <value>
//	full               mask every character
//	null               erase the value
//	start_end:<s>,<e>  keep <s> leading and <e> trailing characters
//	offset:<n>         keep <n> leading characters, or -<n> trailing ones
//	name | phone | email
//	scrub              rewrite secrets embedded in free text
//
// A bare YAML null is read as the null rule. Mapping values open a nested
// scope. Anything else is rejected.
package rulefile

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"sigs.k8s.io/yaml"

	"github.com/logredact/logredact/internal/config"
	"github.com/logredact/logredact/internal/redaction"
	"github.com/logredact/logredact/internal/redaction/rule"
	"github.com/logredact/logredact/internal/redactor"
)

// maxRuleFileSize caps the size of a rule file accepted by Load.
var maxRuleFileSize int64 = config.DefaultMaxDocumentSize

func Load(path string) (redaction.Rules, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rule file: %w", err)
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(io.LimitReader(f, maxRuleFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("read rule file %s: %w", path, err)
	}
	if int64(len(data)) > maxRuleFileSize {
		return nil, fmt.Errorf("rule file %s exceeds %d bytes", path, maxRuleFileSize)
	}
	rules, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rules, nil
}

func Parse(data []byte) (redaction.Rules, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse rule file: %w", err)
	}
	return convertScope(raw, "")
}

func convertScope(raw map[string]any, path string) (redaction.Rules, error) {
	rules := make(redaction.Rules, len(raw))
	for key, v := range raw {
		p := key
		if path != "" {
			p = path + "." + key
		}
		switch v := v.(type) {
		case nil:
			rules[key] = rule.Null()
		case string:
			r, err := ParseRule(v)
			if err != nil {
				return nil, &redaction.ConfigError{Path: p, Message: err.Error()}
			}
			rules[key] = r
		case map[string]any:
			scope, err := convertScope(v, p)
			if err != nil {
				return nil, err
			}
			rules[key] = scope
		default:
			return nil, &redaction.ConfigError{
				Path:    p,
				Message: fmt.Sprintf("want a rule name or a nested mapping, got %T", v),
			}
		}
	}
	return rules, nil
}

// ParseRule turns one rule spec such as "start_end:2,2" into a rule.
func ParseRule(spec string) (rule.Rule, error) {
	name, arg, hasArg := strings.Cut(strings.TrimSpace(spec), ":")
	switch name {
	case "fixed":
		if !hasArg {
			return nil, fmt.Errorf("fixed needs a value, as in fixed:<value>")
		}
		return rule.FixedValue(arg), nil
	case "start_end":
		s, e, ok := strings.Cut(arg, ",")
		if !hasArg || !ok {
			return nil, fmt.Errorf("start_end needs two counts, as in start_end:2,2")
		}
		start, err := parseCount(s)
		if err != nil {
			return nil, fmt.Errorf("start_end start: %w", err)
		}
		end, err := parseCount(e)
		if err != nil {
			return nil, fmt.Errorf("start_end end: %w", err)
		}
		return rule.StartEnd(start, end), nil
	case "offset":
		if !hasArg {
			return nil, fmt.Errorf("offset needs a count, as in offset:3")
		}
		n, err := strconv.Atoi(strings.TrimSpace(arg))
		if err != nil {
			return nil, fmt.Errorf("offset: %w", err)
		}
		return rule.Offset(n), nil
	}

	if hasArg {
		return nil, fmt.Errorf("rule %q takes no argument", name)
	}
	switch name {
	case "full":
		return rule.FullMask(), nil
	case "null":
		return rule.Null(), nil
	case "name":
		return rule.Name(), nil
	case "phone":
		return rule.Phone(), nil
	case "email":
		return rule.Email(), nil
	case "scrub":
		return redactor.Default(), nil
	default:
		return nil, fmt.Errorf("unknown rule %q", name)
	}
}

func parseCount(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("count must be non-negative, got %d", n)
	}
	return n, nil
}

// DecodeDocument parses one YAML or JSON document. Numbers are kept as
// json.Number so integers survive the round trip unchanged.
func DecodeDocument(data []byte) (any, error) {
	var doc any
	err := yaml.Unmarshal(data, &doc, func(d *json.Decoder) *json.Decoder {
		d.UseNumber()
		return d
	})
	if err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}
