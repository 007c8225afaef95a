package redaction

import (
	"encoding"
	"fmt"
	"reflect"
	"strconv"
)

// Kind classifies a context tree value. Every value maps to exactly one kind
// and the traversal switches over all of them.
type Kind uint8

const (
	KindNull Kind = iota
	KindScalar
	KindEnum
	KindMap
	KindList
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindScalar:
		return "scalar"
	case KindEnum:
		return "enum"
	case KindMap:
		return "map"
	case KindList:
		return "list"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Symbol is implemented by closed-set values that are passed through as-is:
// never stringified, traversed or masked.
type Symbol interface {
	Symbol() string
}

var stringerType = reflect.TypeFor[fmt.Stringer]()

// KindOf classifies v.
//
// Defined integer types with a String method are treated as enums, so values
// such as log levels or durations pass through untouched. Errors and
// encoding.TextMarshaler implementations are scalars even when they are structs.
func KindOf(v any) Kind {
	switch v := v.(type) {
	case nil:
		return KindNull
	case Symbol:
		return KindEnum
	case *Map:
		if v == nil {
			return KindNull
		}
		return KindMap
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		if rv.IsNil() {
			return KindNull
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if rv.Type().PkgPath() != "" && rv.Type().Implements(stringerType) {
			return KindEnum
		}
	}

	switch v.(type) {
	case error, encoding.TextMarshaler:
		return KindScalar
	}

	switch rv.Kind() {
	case reflect.Pointer:
		if rv.Elem().Kind() == reflect.Struct {
			return KindObject
		}
		return KindScalar
	case reflect.Struct:
		return KindObject
	case reflect.Map:
		return KindMap
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return KindScalar
		}
		return KindList
	case reflect.Array:
		return KindList
	default:
		return KindScalar
	}
}

// stringify renders a scalar for a masking rule.
func stringify(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case bool:
		return strconv.FormatBool(v)
	case error:
		return v.Error()
	case encoding.TextMarshaler:
		if b, err := v.MarshalText(); err == nil {
			return string(b)
		}
	case fmt.Stringer:
		return v.String()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return string(rv.Bytes())
		}
	case reflect.Pointer:
		if !rv.IsNil() {
			return stringify(rv.Elem().Interface())
		}
	}
	return fmt.Sprint(v)
}

func keyString(k reflect.Value) string {
	switch k.Kind() {
	case reflect.String:
		return k.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(k.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(k.Uint(), 10)
	default:
		return fmt.Sprint(k.Interface())
	}
}
