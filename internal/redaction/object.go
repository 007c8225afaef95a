package redaction

import (
	"fmt"
	"iter"
	"reflect"
	"slices"
	"strings"
	"sync"
	"unsafe"
)

// DynamicMembers is implemented by objects that carry members beyond their
// declared fields, such as attribute bags. Dynamic members follow the declared
// fields, sorted by name; a name that is already declared is ignored.
type DynamicMembers interface {
	DynamicMembers() map[string]any
}

// Iterable is implemented by objects that expose key/value pairs. In ViewCopy
// mode the pairs are appended after all members.
type Iterable interface {
	All() iter.Seq2[string, any]
}

type memberDescriptor struct {
	name     string
	index    int
	exported bool
}

// typeDescriptor lists the declared members of a struct type in declaration
// order. The json tag name is used when present and "-" hides the field.
type typeDescriptor struct {
	name    string
	members []memberDescriptor
}

// descriptors caches typeDescriptors for the life of the process, keyed by
// reflect.Type. It is shared by every Processor and safe for concurrent use.
var descriptors sync.Map

func describe(t reflect.Type) *typeDescriptor {
	if d, ok := descriptors.Load(t); ok {
		return d.(*typeDescriptor)
	}

	d := &typeDescriptor{name: t.String()}
	for i := range t.NumField() {
		f := t.Field(i)
		name := f.Name
		if tag, ok := f.Tag.Lookup("json"); ok {
			tagName, _, _ := strings.Cut(tag, ",")
			if tagName == "-" {
				continue
			}
			if tagName != "" {
				name = tagName
			}
		}
		d.members = append(d.members, memberDescriptor{name: name, index: i, exported: f.IsExported()})
	}

	actual, _ := descriptors.LoadOrStore(t, d)
	return actual.(*typeDescriptor)
}

type entry struct {
	key   string
	value any
}

// objectTypeName returns the name used for Skip placeholders and Records.
func objectTypeName(v any) string {
	if r, ok := v.(*Record); ok {
		return r.Type
	}
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.String()
}

func skipPlaceholder(v any) string {
	return fmt.Sprintf("[object %s]", objectTypeName(v))
}

// objectEntries enumerates the members of v visible under mode. ViewCopy keeps
// every declared field; ViewPublicArray keeps exported ones only. Panics raised
// by member accessors are reported as an IntrospectionError.
func objectEntries(v any, mode ObjectViewMode) (entries []entry, err error) {
	defer func() {
		if r := recover(); r != nil {
			entries = nil
			err = &IntrospectionError{Type: objectTypeName(v), Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if r, ok := v.(*Record); ok {
		for key, value := range r.Fields.All() {
			entries = append(entries, entry{key: key, value: value})
		}
		return entries, nil
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	d := describe(rv.Type())

	seen := make(map[string]struct{}, len(d.members))
	for _, m := range d.members {
		var value any
		switch {
		case m.exported:
			value = rv.Field(m.index).Interface()
		case mode == ViewCopy:
			if !rv.CanAddr() {
				c := reflect.New(rv.Type()).Elem()
				c.Set(rv)
				rv = c
			}
			value = unexportedField(rv.Field(m.index))
		default:
			continue
		}
		seen[m.name] = struct{}{}
		entries = append(entries, entry{key: m.name, value: value})
	}

	if dm, ok := v.(DynamicMembers); ok {
		dynamic := dm.DynamicMembers()
		names := make([]string, 0, len(dynamic))
		for name := range dynamic {
			if _, dup := seen[name]; !dup {
				names = append(names, name)
			}
		}
		slices.Sort(names)
		for _, name := range names {
			seen[name] = struct{}{}
			entries = append(entries, entry{key: name, value: dynamic[name]})
		}
	}

	if mode != ViewCopy {
		return entries, nil
	}
	if it, ok := v.(Iterable); ok {
		for key, value := range it.All() {
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			entries = append(entries, entry{key: key, value: value})
		}
	}
	return entries, nil
}

// unexportedField reads an unexported field of an addressable struct. The
// value is only read, never written.
func unexportedField(f reflect.Value) any {
	return reflect.NewAt(f.Type(), unsafe.Pointer(f.UnsafeAddr())).Elem().Interface()
}
