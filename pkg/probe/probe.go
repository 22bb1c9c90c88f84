package probe

import (
	"reflect"
	"strings"

	"github.com/aretw0/arbor/pkg/ports"
)

var (
	propertyNotifierType   = reflect.TypeFor[ports.PropertyNotifier]()
	collectionNotifierType = reflect.TypeFor[ports.CollectionNotifier]()
	collectionType         = reflect.TypeFor[ports.Collection]()
	deferredType           = reflect.TypeFor[ports.Deferred]()
	anyType                = reflect.TypeFor[any]()
)

// IsTerminal reports whether v is a value that is never decomposed: booleans,
// numbers, strings (and named types over them), struct values, funcs and
// channels. Absent values are not terminal.
func IsTerminal(v any) bool {
	if v == nil {
		return false
	}
	return IsTerminalType(reflect.TypeOf(v))
}

// IsTerminalType is the declared-type form of IsTerminal. Interface types are
// never terminal: their dynamic value decides.
func IsTerminalType(t reflect.Type) bool {
	if t == nil || hasCapability(t) {
		return false
	}
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128,
		reflect.String, reflect.Struct, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return true
	}
	return false
}

func hasCapability(t reflect.Type) bool {
	return t.Implements(propertyNotifierType) ||
		t.Implements(collectionNotifierType) ||
		t.Implements(collectionType) ||
		t.Implements(deferredType)
}

// IsPropertySource reports whether v announces property changes.
func IsPropertySource(v any) bool {
	_, ok := v.(ports.PropertyNotifier)
	return ok
}

// IsCollectionSource reports whether v announces collection changes.
func IsCollectionSource(v any) bool {
	_, ok := v.(ports.CollectionNotifier)
	return ok
}

// DeclaresChangeSource reports whether values of the declared type t always
// announce changes.
func DeclaresChangeSource(t reflect.Type) bool {
	if t == nil {
		return false
	}
	return t.Implements(propertyNotifierType) || t.Implements(collectionNotifierType)
}

// IsAbsent reports whether v is nil or a typed nil.
func IsAbsent(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface,
		reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return rv.IsNil()
	}
	return false
}

// AsDeferred returns v as a deferred slot.
func AsDeferred(v any) (ports.Deferred, bool) {
	d, ok := v.(ports.Deferred)
	return d, ok
}

// Elements returns the ordered elements of a ports.Collection, a slice or an array.
func Elements(v any) ([]any, bool) {
	if c, ok := v.(ports.Collection); ok {
		out := make([]any, c.Len())
		for i := range out {
			out[i] = c.At(i)
		}
		return out, true
	}
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out, true
	}
	return nil, false
}

// TypeName returns the package-qualified name of t with pointers removed,
// e.g. "models.Order".
func TypeName(t reflect.Type) string {
	if t == nil {
		return "nil"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.String()
}

// ShortTypeName returns the bare name of t with pointers, package and type
// arguments removed, e.g. "Collection" for *observable.Collection[*models.Line].
func ShortTypeName(t reflect.Type) string {
	if t == nil {
		return "nil"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	name := t.Name()
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	if name == "" {
		name = t.String()
	}
	return name
}

type identity struct {
	t   reflect.Type
	ptr uintptr
	n   int
}

// Identity returns a comparable key identifying the object behind v: the
// address for reference kinds, the value itself for other comparable values,
// and nil when v has no usable identity.
func Identity(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return identity{t: rv.Type(), ptr: rv.Pointer()}
	case reflect.Slice:
		return identity{t: rv.Type(), ptr: rv.Pointer(), n: rv.Len()}
	case reflect.Struct, reflect.Array:
		// Comparable by value only, and the comparison may panic on dynamic fields.
		return nil
	}
	if rv.Type().Comparable() {
		return v
	}
	return nil
}

// Same reports whether a and b are the same object.
func Same(a, b any) bool {
	ka := Identity(a)
	return ka != nil && ka == Identity(b)
}
