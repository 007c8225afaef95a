package redaction

import "reflect"

// identity is the address-based handle of a reference value. The type is part
// of the handle because a struct and its first field share an address.
type identity struct {
	typ  reflect.Type
	ptr  uintptr
	size int
}

func identityOf(rv reflect.Value) (identity, bool) {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map:
		return identity{typ: rv.Type(), ptr: rv.Pointer()}, true
	case reflect.Slice:
		if rv.Len() == 0 {
			return identity{}, false
		}
		return identity{typ: rv.Type(), ptr: rv.Pointer(), size: rv.Len()}, true
	default:
		return identity{}, false
	}
}

// cycleGuard holds the identities open on the current recursion path. Values
// reached again through a sibling path are not on the path and are walked again.
type cycleGuard struct {
	open map[identity]struct{}
}

func (c *cycleGuard) enter(id identity) bool {
	if _, ok := c.open[id]; ok {
		return false
	}
	if c.open == nil {
		c.open = make(map[identity]struct{})
	}
	c.open[id] = struct{}{}
	return true
}

func (c *cycleGuard) leave(id identity) {
	delete(c.open, id)
}
