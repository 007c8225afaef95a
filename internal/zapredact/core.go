// Package zapredact attaches a redaction.Processor to a zap logger so the
// fields of every entry are masked before they reach the encoder.
package zapredact

import (
	"fmt"
	"slices"
	"sort"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/logredact/logredact/internal/config"
	"github.com/logredact/logredact/internal/redaction"
)

// ErrorKey carries the reason a field set was replaced by the fail-closed value.
const ErrorKey = "redaction_error"

type core struct {
	zapcore.Core
	p *redaction.Processor
	// ns is the namespace path opened by fields passed to With.
	ns []string
	// withErr is the failure of an earlier With; it is reported on every Write.
	withErr error
}

// NewCore wraps inner so fields passed to With and Write are redacted by p.
// The processor should not emit limit events through a logger that is itself
// wrapped by this core.
func NewCore(inner zapcore.Core, p *redaction.Processor) zapcore.Core {
	return &core{Core: inner, p: p}
}

// With redacts fields before they are stored. A redaction failure cannot be
// returned here, so it is reported by every later Write of the derived core.
func (c *core) With(fields []zapcore.Field) zapcore.Core {
	redacted, err := c.redact(fields)
	return &core{
		Core:    c.Core.With(redacted),
		p:       c.p,
		ns:      append(slices.Clip(c.ns), opened(fields)...),
		withErr: multierr.Append(c.withErr, err),
	}
}

func (c *core) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

// Write redacts fields and writes the entry. When redaction fails the entry is
// still written with every value replaced, and the failure is returned so zap
// reports it on its error output.
func (c *core) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	redacted, err := c.redact(fields)
	return multierr.Combine(c.withErr, err, c.Core.Write(ent, redacted))
}

// redact masks fields as one document. Fields are nested under the namespaces
// already opened by With and under each Namespace field they contain, so rules
// see the same tree the encoder writes.
func (c *core) redact(fields []zapcore.Field) ([]zapcore.Field, error) {
	if len(fields) == 0 {
		return fields, nil
	}

	root := redaction.NewMap(len(fields))
	current := root
	for _, key := range c.ns {
		next := redaction.NewMap(len(fields))
		current.Set(key, next)
		current = next
	}
	for _, f := range fields {
		switch f.Type {
		case zapcore.SkipType:
			continue
		case zapcore.NamespaceType:
			next := redaction.NewMap(len(fields))
			current.Set(f.Key, next)
			current = next
			continue
		}
		if err := encodeField(current, f); err != nil {
			return failClosed(fields, err), err
		}
	}

	out, err := c.p.Transform(root)
	if err != nil {
		return failClosed(fields, err), err
	}

	m, ok := out.(*redaction.Map)
	for _, key := range c.ns {
		if !ok {
			break
		}
		v, _ := m.Get(key)
		m, ok = v.(*redaction.Map)
	}
	if !ok {
		err := fmt.Errorf("unexpected redaction result %T", out)
		return failClosed(fields, err), err
	}
	return appendFields(make([]zapcore.Field, 0, len(fields)), m, opened(fields)), nil
}

// appendFields turns m back into fields. The entry keyed ns[0] holds the
// fields that followed a Namespace field; it is emitted last, as a namespace.
func appendFields(out []zapcore.Field, m *redaction.Map, ns []string) []zapcore.Field {
	var nested *redaction.Map
	for key, v := range m.All() {
		if len(ns) > 0 && key == ns[0] {
			if inner, ok := v.(*redaction.Map); ok {
				nested = inner
				continue
			}
		}
		out = append(out, zap.Any(key, v))
	}
	if nested == nil {
		return out
	}
	out = append(out, zap.Namespace(ns[0]))
	return appendFields(out, nested, ns[1:])
}

func opened(fields []zapcore.Field) []string {
	var ns []string
	for _, f := range fields {
		if f.Type == zapcore.NamespaceType {
			ns = append(ns, f.Key)
		}
	}
	return ns
}

// encodeField flattens f the way the JSON encoder would see it. Error fields
// may produce a second "<key>Verbose" entry, which is kept after the main key.
func encodeField(doc *redaction.Map, f zapcore.Field) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("encode field %q: %v", f.Key, r)
		}
	}()

	enc := zapcore.NewMapObjectEncoder()
	f.AddTo(enc)

	if v, ok := enc.Fields[f.Key]; ok {
		doc.Set(f.Key, v)
	}
	extra := make([]string, 0, len(enc.Fields))
	for key := range enc.Fields {
		if key != f.Key {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	for _, key := range extra {
		doc.Set(key, enc.Fields[key])
	}
	return nil
}

func failClosed(fields []zapcore.Field, err error) []zapcore.Field {
	out := make([]zapcore.Field, 0, len(fields)+1)
	for _, f := range fields {
		switch f.Type {
		case zapcore.NamespaceType, zapcore.SkipType:
			out = append(out, f)
		default:
			out = append(out, zap.String(f.Key, config.DefaultFailClosedValue))
		}
	}
	return append(out, zap.String(ErrorKey, err.Error()))
}
