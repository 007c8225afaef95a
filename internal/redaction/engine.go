package redaction

import (
	"cmp"
	"fmt"
	"reflect"
	"slices"
	"strconv"

	"go.uber.org/zap"

	"github.com/logredact/logredact/internal/logger"
	"github.com/logredact/logredact/internal/metricsexporter"
)

// walker carries the state of one Transform call. It is never shared.
type walker struct {
	p     *Processor
	gov   governor
	guard cycleGuard
}

func newWalker(p *Processor) *walker {
	return &walker{p: p, gov: newGovernor(&p.cfg)}
}

// root walks the top-level value. The root container sits at depth 1 and is
// not counted as a node.
func (w *walker) root(v any) (any, error) {
	switch kind := KindOf(v); kind {
	case KindMap, KindList, KindObject:
		return w.descend(v, kind, w.p.rules, 1)
	default:
		return v, nil
	}
}

// item processes one container entry reached under key.
func (w *walker) item(key string, v any, scope tree, depth int) (any, error) {
	if !w.gov.visit() {
		if err := w.emit(LimitMaxTotalNodes, depth); err != nil {
			return nil, err
		}
		return w.overflow(v), nil
	}

	res := scope.resolve(key)
	switch kind := KindOf(v); kind {
	case KindNull, KindEnum:
		return v, nil
	case KindScalar:
		if res.action != directRule {
			return v, nil
		}
		masked, keep := res.rule.Apply(stringify(v), w.p)
		if !keep {
			return nil, nil
		}
		return masked, nil
	case KindMap, KindList, KindObject:
		// Rules only apply to leaves; a rule bound to a container key leaves
		// the current scope in effect below it.
		next := scope
		if res.action == subScope {
			next = res.scope
		}
		return w.descend(v, kind, next, depth+1)
	default:
		panic(fmt.Sprintf("redaction: unhandled kind %v", kind))
	}
}

// descend enters a container or object at depth after consulting the depth
// budget and the cycle guard.
func (w *walker) descend(v any, kind Kind, scope tree, depth int) (any, error) {
	if kind == KindObject {
		if w.p.cfg.SkipObjects {
			return v, nil
		}
		if w.p.cfg.ObjectViewMode == ViewSkip {
			return skipPlaceholder(v), nil
		}
	}

	if !w.gov.depthAllowed(depth) {
		if err := w.emit(LimitMaxDepth, depth); err != nil {
			return nil, err
		}
		return w.overflow(v), nil
	}

	rv := reflect.ValueOf(v)
	if id, ok := identityOf(rv); ok {
		if !w.guard.enter(id) {
			if err := w.emit(LimitCycle, depth); err != nil {
				return nil, err
			}
			return w.overflow(v), nil
		}
		defer w.guard.leave(id)
	}

	switch kind {
	case KindMap:
		return w.walkMap(v, rv, scope, depth)
	case KindList:
		return w.walkList(rv, scope, depth)
	default:
		return w.walkObject(v, scope, depth)
	}
}

func (w *walker) walkMap(v any, rv reflect.Value, scope tree, depth int) (any, error) {
	if m, ok := v.(*Map); ok {
		entries := make([]entry, 0, m.Len())
		for key, value := range m.All() {
			entries = append(entries, entry{key: key, value: value})
		}
		out, err := w.walkEntries(entries, scope, depth)
		if err != nil {
			return nil, err
		}
		result := NewMap(len(out))
		for _, e := range out {
			result.Set(e.key, e.value)
		}
		return result, nil
	}

	// Go maps have no order; keys are walked sorted so the output and the
	// limit trips are the same on every call.
	entries := make([]entry, 0, rv.Len())
	it := rv.MapRange()
	for it.Next() {
		entries = append(entries, entry{key: keyString(it.Key()), value: it.Value().Interface()})
	}
	slices.SortFunc(entries, func(a, b entry) int {
		return cmp.Compare(a.key, b.key)
	})

	out, err := w.walkEntries(entries, scope, depth)
	if err != nil {
		return nil, err
	}
	return entriesToMap(out), nil
}

func (w *walker) walkList(rv reflect.Value, scope tree, depth int) (any, error) {
	entries := make([]entry, rv.Len())
	for i := range entries {
		entries[i] = entry{key: strconv.Itoa(i), value: rv.Index(i).Interface()}
	}
	out, err := w.walkEntries(entries, scope, depth)
	if err != nil {
		return nil, err
	}
	result := make([]any, len(out))
	for i, e := range out {
		result[i] = e.value
	}
	return result, nil
}

func (w *walker) walkObject(v any, scope tree, depth int) (any, error) {
	entries, err := objectEntries(v, w.p.cfg.ObjectViewMode)
	if err != nil {
		return nil, err
	}
	out, err := w.walkEntries(entries, scope, depth)
	if err != nil {
		return nil, err
	}

	if w.p.cfg.ObjectViewMode == ViewPublicArray {
		return entriesToMap(out), nil
	}
	fields := NewMap(len(out))
	for _, e := range out {
		fields.Set(e.key, e.value)
	}
	return &Record{Type: objectTypeName(v), Fields: fields}, nil
}

// walkEntries processes the entries of one container. Entries past the
// per-container budget are copied through untouched and are not visited.
func (w *walker) walkEntries(entries []entry, scope tree, depth int) ([]entry, error) {
	out := make([]entry, len(entries))
	tripped := false
	for i, e := range entries {
		if !w.gov.itemAllowed(i) {
			if !tripped {
				tripped = true
				if err := w.emit(LimitMaxItemsPerContainer, depth); err != nil {
					return nil, err
				}
			}
			out[i] = e
			continue
		}

		v, err := w.item(e.key, e.value, scope, depth)
		if err != nil {
			return nil, err
		}
		out[i] = entry{key: e.key, value: v}
	}
	return out, nil
}

func (w *walker) overflow(v any) any {
	if w.p.cfg.OverflowPlaceholder != nil {
		return *w.p.cfg.OverflowPlaceholder
	}
	return v
}

func (w *walker) emit(kind LimitKind, depth int) error {
	ev := w.gov.event(kind, depth)
	metricsexporter.RecordLimitEvent(string(kind))
	logger.Debug("Redaction limit reached",
		zap.String("kind", string(kind)),
		zap.Int("depth", ev.Depth),
		zap.Int("nodes_visited", ev.NodesVisited))

	if w.p.cfg.OnLimit == nil {
		return nil
	}
	if err := w.p.cfg.OnLimit(ev); err != nil {
		return fmt.Errorf("limit callback: %w", err)
	}
	return nil
}

func entriesToMap(entries []entry) map[string]any {
	m := make(map[string]any, len(entries))
	for _, e := range entries {
		m[e.key] = e.value
	}
	return m
}
