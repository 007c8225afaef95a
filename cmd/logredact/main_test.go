package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/multierr"

	"github.com/logredact/logredact/internal/redaction"
)

func withFactories(t *testing.T, tracer *mockTracer) {
	t.Helper()
	origProcessor := processorFactory
	origTracer := tracerFactory
	tracerFactory = func() (documentTracer, error) { return tracer, nil }
	t.Cleanup(func() {
		processorFactory = origProcessor
		tracerFactory = origTracer
	})
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var stdout bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(io.Discard)
	err := cmd.Execute()
	return stdout.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunLogredact_JSONFromStdin(t *testing.T) {
	withFactories(t, &mockTracer{})

	out, err := execute(t, `{"password":"hunter2","user":{"email":"john@example.com"},"id":7}`)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	want := `{"id":7,"password":"*","user":{"email":"joh****@example.com"}}` + "\n"
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestRunLogredact_YAMLFile(t *testing.T) {
	tracer := &mockTracer{}
	withFactories(t, tracer)
	path := writeFile(t, "event.yaml", "card_number: '4111111111111111'\n")

	out, err := execute(t, "", path)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if out != `{"card_number":"411111******1111"}`+"\n" {
		t.Errorf("unexpected output %q", out)
	}
	if len(tracer.started) != 1 || tracer.started[0] != path {
		t.Errorf("expected one span for %s, got %v", path, tracer.started)
	}
}

func TestRunLogredact_Lines(t *testing.T) {
	tracer := &mockTracer{}
	withFactories(t, tracer)

	input := "{\"password\":\"a\"}\n\n{\"phone\":\"5551234567\"}\n"
	out, err := execute(t, input, "--lines")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 output lines, got %d: %q", len(lines), out)
	}
	if lines[0] != `{"password":"*"}` {
		t.Errorf("line 0 = %q", lines[0])
	}
	if lines[1] != `{"phone":"5551****67"}` {
		t.Errorf("line 1 = %q", lines[1])
	}
	if len(tracer.started) != 2 || tracer.started[0] != "stdin" {
		t.Errorf("expected two stdin spans, got %v", tracer.started)
	}
}

func TestRunLogredact_LinesKeepGoingAfterBadLine(t *testing.T) {
	withFactories(t, &mockTracer{})

	out, err := execute(t, "{\"a\":1}\n{bad\n{\"b\":2}\n", "--lines")
	if err == nil {
		t.Fatal("expected an error for the malformed line")
	}
	if n := len(multierr.Errors(err)); n != 1 {
		t.Errorf("expected 1 aggregated error, got %d: %v", n, err)
	}
	if !strings.Contains(err.Error(), "stdin: document 1") {
		t.Errorf("error should locate the bad line, got %v", err)
	}
	if out != "{\"a\":1}\n{\"b\":2}\n" {
		t.Errorf("good lines should still be written, got %q", out)
	}
}

func TestRunLogredact_CustomRules(t *testing.T) {
	withFactories(t, &mockTracer{})
	rules := writeFile(t, "rules.yaml", "session: full\nuser:\n  id: offset:-2\n")

	out, err := execute(t, `{"session":"abcd","password":"x","user":{"id":"12345"}}`,
		"--rules", rules, "--no-default-rules")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	want := `{"password":"x","session":"****","user":{"id":"***45"}}` + "\n"
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestRunLogredact_BadRulesFile(t *testing.T) {
	withFactories(t, &mockTracer{})
	rules := writeFile(t, "rules.yaml", "session: scramble\n")

	_, err := execute(t, `{}`, "--rules", rules)
	var cfgErr *redaction.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *redaction.ConfigError, got %v", err)
	}
	if cfgErr.Path != "session" {
		t.Errorf("Path = %q, want session", cfgErr.Path)
	}
}

func TestRunLogredact_Limits(t *testing.T) {
	withFactories(t, &mockTracer{})

	out, err := execute(t, `{"a":{"b":1},"c":2}`, "--max-depth", "1", "--placeholder", "CUT")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if out != `{"a":"CUT","c":2}`+"\n" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestRunLogredact_FailOnLimit(t *testing.T) {
	withFactories(t, &mockTracer{})

	out, err := execute(t, `{"a":1,"b":2}`, "--max-nodes", "1", "--fail-on-limit")
	if !errors.Is(err, errLimitReached) {
		t.Fatalf("expected errLimitReached, got %v", err)
	}
	if out != "" {
		t.Errorf("rejected document must not be written, got %q", out)
	}
}

func TestRunLogredact_LogOutput(t *testing.T) {
	withFactories(t, &mockTracer{})

	out, err := execute(t, `{"password":"hunter2","user":"bob"}`, "--output", "log")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(out), &entry); err != nil {
		t.Fatalf("output is not a JSON log entry: %v (%q)", err, out)
	}
	if entry["msg"] != "event" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["password"] != "*" {
		t.Errorf("password = %v", entry["password"])
	}
	if entry["user"] != "bob" {
		t.Errorf("user = %v", entry["user"])
	}
}

func TestRunLogredact_LogOutputFailOnLimit(t *testing.T) {
	withFactories(t, &mockTracer{})

	out, err := execute(t, `{"a":{"b":{"c":"x"}}}`, "--output", "log", "--fail-on-limit", "--max-depth", "1")
	if !errors.Is(err, errLimitReached) {
		t.Fatalf("expected errLimitReached, got %v", err)
	}
	if out != "" {
		t.Errorf("rejected document must not be logged, got %q", out)
	}
}

func TestOutputLogModeReportsStats(t *testing.T) {
	withFactories(t, &mockTracer{})
	origFormat := outputFormat
	outputFormat = outputLog
	t.Cleanup(func() { outputFormat = origFormat })

	var buf bytes.Buffer
	o := newOutput(&buf, redaction.MustNew(redaction.DefaultConfig()))
	var stats redaction.Stats
	if err := o.redact([]byte(`{"password":"x","user":{"id":1}}`), &stats); err != nil {
		t.Fatalf("redact() error = %v", err)
	}
	if stats.NodesVisited != 3 {
		t.Errorf("NodesVisited = %d, want 3", stats.NodesVisited)
	}
	if !strings.Contains(buf.String(), `"password":"*"`) {
		t.Errorf("unexpected log entry %q", buf.String())
	}
}

func TestRunLogredact_MultipleFiles(t *testing.T) {
	tracer := &mockTracer{}
	withFactories(t, tracer)
	first := writeFile(t, "first.json", `{"cvv":"123"}`)
	second := writeFile(t, "second.json", `["x"]`)

	out, err := execute(t, "", first, second)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if out != "{\"cvv\":\"***\"}\n[\"x\"]\n" {
		t.Errorf("unexpected output %q", out)
	}
	if len(tracer.started) != 2 {
		t.Errorf("expected 2 spans, got %v", tracer.started)
	}
}

func TestRunLogredact_MissingFile(t *testing.T) {
	withFactories(t, &mockTracer{})
	good := writeFile(t, "good.json", `{"ok":true}`)

	out, err := execute(t, "", filepath.Join(t.TempDir(), "missing.json"), good)
	if err == nil || !strings.Contains(err.Error(), "open input") {
		t.Fatalf("expected open error, got %v", err)
	}
	if out != `{"ok":true}`+"\n" {
		t.Errorf("remaining inputs should still be processed, got %q", out)
	}
}

func TestRunLogredact_ProcessorError(t *testing.T) {
	withFactories(t, &mockTracer{})
	processorFactory = func(redaction.Config) (documentRedactor, error) {
		return nil, errors.New("boom")
	}

	_, err := execute(t, `{}`)
	if err == nil || !strings.Contains(err.Error(), "failed to build redaction processor") {
		t.Fatalf("expected processor error, got %v", err)
	}
}

func TestRunLogredact_TransformError(t *testing.T) {
	withFactories(t, &mockTracer{})
	processorFactory = func(redaction.Config) (documentRedactor, error) {
		return &mockRedactor{transformFunc: func(any) (any, redaction.Stats, error) {
			return nil, redaction.Stats{}, &redaction.IntrospectionError{Type: "T", Err: errors.New("panic")}
		}}, nil
	}

	out, err := execute(t, `{"a":1}`)
	if !errors.Is(err, redaction.ErrIntrospection) {
		t.Fatalf("expected introspection error, got %v", err)
	}
	if out != "" {
		t.Errorf("failed document must not be written, got %q", out)
	}
}

func TestRunLogredact_TracerError(t *testing.T) {
	withFactories(t, &mockTracer{})
	tracerFactory = func() (documentTracer, error) {
		return nil, errors.New("no collector")
	}

	_, err := execute(t, `{}`)
	if err == nil || !strings.Contains(err.Error(), "failed to create tracing manager") {
		t.Fatalf("expected tracing error, got %v", err)
	}
}

func TestRunLogredact_InvalidFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"template without placeholder", []string{"--template", "x"}},
		{"negative depth", []string{"--max-depth", "-1"}},
		{"negative nodes", []string{"--max-nodes", "-5"}},
		{"unknown view mode", []string{"--view-mode", "mirror"}},
		{"unknown output", []string{"--output", "xml"}},
		{"empty replacement", []string{"--replacement", ""}},
		{"sample rate", []string{"--tracing-sample-rate", "2"}},
		{"endpoint scheme", []string{"--tracing-otlp-endpoint", "http://collector:4318"}},
		{"log level", []string{"--log-level", "trace"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withFactories(t, &mockTracer{})
			if _, err := execute(t, `{}`, tt.args...); err == nil {
				t.Errorf("expected error for %v", tt.args)
			}
		})
	}
}

func TestDocumentFields(t *testing.T) {
	fields := documentFields(map[string]any{"b": 1, "a": "x"})
	if len(fields) != 2 || fields[0].Key != "a" || fields[1].Key != "b" {
		t.Errorf("fields should be sorted by key, got %v", fields)
	}

	fields = documentFields([]any{"x"})
	if len(fields) != 1 || fields[0].Key != "document" {
		t.Errorf("non-map documents should become one field, got %v", fields)
	}
}

func TestIsTerminal(t *testing.T) {
	if isTerminal(&bytes.Buffer{}) {
		t.Error("a buffer is not a terminal")
	}
}

func TestMainExitsOnError(t *testing.T) {
	withFactories(t, &mockTracer{})
	origExit := exitFunc
	origArgs := os.Args
	defer func() {
		exitFunc = origExit
		os.Args = origArgs
	}()

	code := -1
	exitFunc = func(c int) { code = c }
	os.Args = []string{"logredact", "--max-depth", "-1"}

	main()
	if code != 1 {
		t.Errorf("expected exit code 1, got %d", code)
	}
}
