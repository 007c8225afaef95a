package redaction

import (
	"testing"

	"github.com/logredact/logredact/internal/redaction/rule"
)

// newTestProcessor builds a Processor from DefaultConfig after applying mutate.
func newTestProcessor(t *testing.T, mutate func(*Config)) *Processor {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	p, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return p
}

// collectEvents points cfg.OnLimit at the returned slice.
func collectEvents(cfg *Config) *[]LimitEvent {
	events := &[]LimitEvent{}
	cfg.OnLimit = func(ev LimitEvent) error {
		*events = append(*events, ev)
		return nil
	}
	return events
}

func onlyRules(rules Rules) func(*Config) {
	return func(cfg *Config) {
		cfg.UseDefaultRules = false
		cfg.Rules = rules
	}
}

func mustTransform(t *testing.T, p *Processor, v any) any {
	t.Helper()
	out, err := p.Transform(v)
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}
	return out
}

var maskAll = rule.FullMask()
