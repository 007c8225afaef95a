// Package redaction masks sensitive fields of the structured context attached
// to log events.
//
// A Processor is built once from a Config and a rule table, then Transform
// produces a masked copy of each context tree handed to it. Rules are looked
// up by key and cascade: a rule keyed "password" matches a field of that name
// at any depth unless an ancestor key binds a narrower scope. Traversal is
// bounded by depth, per-container and total node budgets, and reference cycles
// are cut at the back-edge.
package redaction

import (
	"time"

	"go.uber.org/zap"

	"github.com/logredact/logredact/internal/logger"
	"github.com/logredact/logredact/internal/metricsexporter"
	"github.com/logredact/logredact/internal/redaction/rule"
)

var _ rule.Context = (*Processor)(nil)

// Processor masks context trees. It is immutable after New and safe for
// concurrent use; every Transform call keeps its own traversal state.
type Processor struct {
	cfg   Config
	rules tree
}

// Stats describes one Transform call.
type Stats struct {
	NodesVisited int
	LimitEvents  int
}

// New validates cfg, merges its rules with the default table when
// cfg.UseDefaultRules is set and compiles the result. Malformed rule entries
// are reported here as a *ConfigError, never at Transform time.
func New(cfg Config) (*Processor, error) {
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	rules, err := buildTree(cfg.Rules, cfg.UseDefaultRules)
	if err != nil {
		return nil, err
	}
	cfg.Rules = nil

	metricsexporter.SetRuleCount(len(rules))
	logger.Info("Redaction processor initialized",
		zap.Int("rules", len(rules)),
		zap.Bool("default_rules", cfg.UseDefaultRules),
		zap.Bool("process_objects", !cfg.SkipObjects),
		zap.String("object_view_mode", string(cfg.ObjectViewMode)),
		zap.Int("max_depth", cfg.MaxDepth),
		zap.Int("max_items_per_container", cfg.MaxItemsPerContainer),
		zap.Int("max_total_nodes", cfg.MaxTotalNodes))

	return &Processor{cfg: cfg, rules: rules}, nil
}

// MustNew is like New but panics on an invalid configuration.
func MustNew(cfg Config) *Processor {
	p, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return p
}

// Transform returns a masked copy of the context tree v. The input and
// everything reachable from it are left untouched.
//
// The error is an *IntrospectionError when a foreign object could not be
// enumerated, or wraps the error returned by Config.OnLimit. Callers should
// then drop or fully mask the tree rather than emit it as-is.
func (p *Processor) Transform(v any) (any, error) {
	out, _, err := p.TransformWithStats(v)
	return out, err
}

// TransformWithStats is Transform that also reports traversal statistics.
func (p *Processor) TransformWithStats(v any) (any, Stats, error) {
	start := time.Now()
	w := newWalker(p)
	out, err := w.root(v)
	stats := Stats{NodesVisited: w.gov.nodes, LimitEvents: w.gov.events}
	metricsexporter.RecordTransform(time.Since(start), stats.NodesVisited, err)
	if err != nil {
		return nil, stats, err
	}
	return out, stats, nil
}

// TransformMap is Transform for the common map-shaped log context.
func (p *Processor) TransformMap(ctx map[string]any) (map[string]any, error) {
	if ctx == nil {
		return nil, nil
	}
	out, err := p.Transform(ctx)
	if err != nil {
		return nil, err
	}
	return out.(map[string]any), nil
}

func (p *Processor) Replacement() string { return p.cfg.Replacement }

func (p *Processor) Template() string { return p.cfg.Template }

func (p *Processor) LengthLimit() int { return p.cfg.LengthLimit }

func (p *Processor) ProcessObjects() bool { return !p.cfg.SkipObjects }

func (p *Processor) ObjectViewMode() ObjectViewMode { return p.cfg.ObjectViewMode }
