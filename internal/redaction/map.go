package redaction

import (
	"iter"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Map is a string-keyed mapping that remembers insertion order. Transform
// walks a *Map in that order and returns a new *Map with the same key order.
// The zero value is an empty Map ready to use.
type Map struct {
	om *orderedmap.OrderedMap[string, any]
}

// NewMap returns an empty Map sized for capacity entries.
func NewMap(capacity int) *Map {
	return &Map{om: orderedmap.New[string, any](orderedmap.WithCapacity[string, any](capacity))}
}

// MapOf builds a Map from alternating key/value pairs. It panics when a key is
// not a string, mirroring a malformed literal.
func MapOf(pairs ...any) *Map {
	m := NewMap(len(pairs) / 2)
	for i := 0; i+1 < len(pairs); i += 2 {
		m.Set(pairs[i].(string), pairs[i+1])
	}
	return m
}

// Set stores v under key. A new key is appended; an existing key keeps its position.
func (m *Map) Set(key string, v any) {
	if m.om == nil {
		m.om = orderedmap.New[string, any]()
	}
	m.om.Set(key, v)
}

func (m *Map) Get(key string) (any, bool) {
	if m == nil || m.om == nil {
		return nil, false
	}
	return m.om.Get(key)
}

func (m *Map) Len() int {
	if m == nil || m.om == nil {
		return 0
	}
	return m.om.Len()
}

// Keys returns a copy of the keys in insertion order.
func (m *Map) Keys() []string {
	if m.Len() == 0 {
		return nil
	}
	keys := make([]string, 0, m.om.Len())
	for pair := m.om.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// All iterates the entries in insertion order.
func (m *Map) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		if m == nil || m.om == nil {
			return
		}
		for pair := m.om.Oldest(); pair != nil; pair = pair.Next() {
			if !yield(pair.Key, pair.Value) {
				return
			}
		}
	}
}

// MarshalJSON encodes the entries as a JSON object in insertion order.
func (m *Map) MarshalJSON() ([]byte, error) {
	if m.Len() == 0 {
		return []byte("{}"), nil
	}
	return m.om.MarshalJSON()
}

func (m *Map) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	for key, v := range m.All() {
		zap.Any(key, v).AddTo(enc)
	}
	return nil
}

// Record is the copy of a foreign object produced by the ViewCopy mode.
type Record struct {
	// Type is the Go type name of the source object.
	Type   string
	Fields *Map
}

func (r *Record) MarshalJSON() ([]byte, error) {
	if r.Fields == nil {
		return []byte("{}"), nil
	}
	return r.Fields.MarshalJSON()
}

func (r *Record) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	return r.Fields.MarshalLogObject(enc)
}
