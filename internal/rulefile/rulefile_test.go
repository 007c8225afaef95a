package rulefile

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/logredact/logredact/internal/redaction"
	"github.com/logredact/logredact/internal/redaction/rule"
)

type plainContext struct{}

func (plainContext) Replacement() string { return "*" }
func (plainContext) Template() string    { return "%s" }
func (plainContext) LengthLimit() int    { return 0 }

func apply(t *testing.T, r rule.Rule, value string) (string, bool) {
	t.Helper()
	return r.Apply(value, plainContext{})
}

func TestParseRule(t *testing.T) {
	tests := []struct {
		spec     string
		value    string
		expected string
		keep     bool
	}{
		{"fixed:[hidden]", "secret", "[hidden]", true},
		{"fixed:", "secret", "", true},
		{"full", "secret", "******", true},
		{"null", "secret", "", false},
		{"start_end:2,2", "abcdef", "ab**ef", true},
		{" start_end: 1 , 0 ", "abc", "a**", true},
		{"offset:3", "secret123", "sec******", true},
		{"offset:-2", "secret123", "*******23", true},
		{"email", "john@example.com", "joh****@example.com", true},
		{"scrub", "retry pwd=abc123 now", "retry pwd=*** now", true},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			r, err := ParseRule(tt.spec)
			if err != nil {
				t.Fatalf("ParseRule(%q) error = %v", tt.spec, err)
			}
			got, keep := apply(t, r, tt.value)
			if keep != tt.keep {
				t.Fatalf("keep = %v, want %v", keep, tt.keep)
			}
			if keep && got != tt.expected {
				t.Errorf("Apply(%q) = %q, want %q", tt.value, got, tt.expected)
			}
		})
	}
}

func TestParseRuleErrors(t *testing.T) {
	tests := []string{
		"",
		"mask",
		"fixed",
		"full:3",
		"start_end",
		"start_end:2",
		"start_end:a,2",
		"start_end:-1,2",
		"offset",
		"offset:x",
		"email:yes",
	}

	for _, spec := range tests {
		t.Run(spec, func(t *testing.T) {
			if _, err := ParseRule(spec); err == nil {
				t.Errorf("ParseRule(%q) expected error", spec)
			}
		})
	}
}

func TestParse(t *testing.T) {
	data := []byte(`
password: full
token: "null"
removed: null
card: start_end:4,4
user:
  email: email
  profile:
    phone: phone
`)
	rules, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if _, ok := rules["password"].(rule.Rule); !ok {
		t.Errorf("password should be a rule, got %T", rules["password"])
	}
	r, ok := rules["removed"].(rule.Rule)
	if !ok {
		t.Fatalf("removed should be a rule, got %T", rules["removed"])
	}
	if _, keep := apply(t, r, "x"); keep {
		t.Error("a YAML null should erase the value")
	}

	user, ok := rules["user"].(redaction.Rules)
	if !ok {
		t.Fatalf("user should be a nested scope, got %T", rules["user"])
	}
	profile, ok := user["profile"].(redaction.Rules)
	if !ok {
		t.Fatalf("user.profile should be a nested scope, got %T", user["profile"])
	}
	if _, ok := profile["phone"].(rule.Rule); !ok {
		t.Errorf("user.profile.phone should be a rule, got %T", profile["phone"])
	}

	if _, err := redaction.New(redaction.Config{Rules: rules}); err != nil {
		t.Errorf("parsed rules should build a processor: %v", err)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		path string
	}{
		{"bad rule", "password: mask", "password"},
		{"number", "password: 3", "password"},
		{"list", "password: [full]", "password"},
		{"nested", "user:\n  profile:\n    phone: dial", "user.profile.phone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			var cfgErr *redaction.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected *redaction.ConfigError, got %v", err)
			}
			if cfgErr.Path != tt.path {
				t.Errorf("Path = %q, want %q", cfgErr.Path, tt.path)
			}
		})
	}

	if _, err := Parse([]byte("- full\n- null")); err == nil {
		t.Error("a top-level list should be rejected")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.json")
	if err := os.WriteFile(path, []byte(`{"secret": "full", "nested": {"pin": "offset:-1"}}`), 0o600); err != nil {
		t.Fatal(err)
	}

	rules, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(rules) != 2 {
		t.Errorf("expected 2 top-level keys, got %d", len(rules))
	}

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	if err == nil || !strings.Contains(err.Error(), "open rule file") {
		t.Errorf("expected open error, got %v", err)
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("secret: nope"), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err = Load(bad)
	if err == nil || !strings.Contains(err.Error(), bad) {
		t.Errorf("expected error naming the file, got %v", err)
	}
}

func TestLoadRejectsOversizedFile(t *testing.T) {
	orig := maxRuleFileSize
	maxRuleFileSize = 16
	t.Cleanup(func() { maxRuleFileSize = orig })

	dir := t.TempDir()
	exact := filepath.Join(dir, "exact.yaml")
	if err := os.WriteFile(exact, []byte("password: full\n\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(exact); err != nil {
		t.Errorf("a file at the limit should load, got %v", err)
	}

	big := filepath.Join(dir, "big.yaml")
	if err := os.WriteFile(big, []byte("password: full\ntoken: full\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err := Load(big)
	if err == nil || !strings.Contains(err.Error(), "exceeds 16 bytes") {
		t.Errorf("expected size error, got %v", err)
	}
}

func TestDecodeDocument(t *testing.T) {
	doc, err := DecodeDocument([]byte(`{"id": 9007199254740993, "ratio": 0.5, "tags": ["a"], "nothing": null}`))
	if err != nil {
		t.Fatalf("DecodeDocument() error = %v", err)
	}
	m, ok := doc.(map[string]any)
	if !ok {
		t.Fatalf("expected map, got %T", doc)
	}
	if n, ok := m["id"].(json.Number); !ok || n.String() != "9007199254740993" {
		t.Errorf("id should be preserved as json.Number, got %#v", m["id"])
	}
	if _, ok := m["tags"].([]any); !ok {
		t.Errorf("tags should be a list, got %T", m["tags"])
	}
	if m["nothing"] != nil {
		t.Errorf("nothing should be nil, got %#v", m["nothing"])
	}

	yamlDoc, err := DecodeDocument([]byte("user:\n  email: a@b.io\n"))
	if err != nil {
		t.Fatalf("DecodeDocument(yaml) error = %v", err)
	}
	user := yamlDoc.(map[string]any)["user"].(map[string]any)
	if user["email"] != "a@b.io" {
		t.Errorf("unexpected email %#v", user["email"])
	}

	if _, err := DecodeDocument([]byte("{")); err == nil {
		t.Error("expected error for truncated document")
	}
}
