package probe

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/aretw0/arbor/pkg/ports"
)

// TagKey is the struct tag consulted for property markers:
//
//	Secret string `arbor:"-"`              // excluded
//	Item   *Item  `arbor:"wait=ItemReady"` // guarded by ItemReady() bool or ItemReady bool
const TagKey = "arbor"

// Property describes one eligible property of an observed instance.
type Property struct {
	Name string
	// Type is the declared type.
	Type reflect.Type
	// WaitFor names the sibling materialization predicate, if any.
	WaitFor string

	index []int
	get   func() any
}

// Guarded reports whether the property carries a materialization guard.
func (p Property) Guarded() bool { return p.WaitFor != "" }

// Value reads the property from instance. The getter of a listed property is
// bound to its own instance and ignores the argument.
func (p Property) Value(instance any) any {
	if p.get != nil {
		return p.get()
	}
	v := reflect.ValueOf(instance)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	f, err := v.FieldByIndexErr(p.index)
	if err != nil || !f.CanInterface() {
		return nil
	}
	return f.Interface()
}

// String returns the name and type name of p.
func (p Property) String() string {
	return fmt.Sprintf("%s %s", p.Name, TypeName(p.Type))
}

var fieldCache sync.Map // reflect.Type -> []Property

// Properties returns the eligible properties of instance in declaration order.
// A ports.PropertyLister supplies its own table. Otherwise the exported,
// non-embedded fields of the pointed-to struct are used, minus excluded ones.
func Properties(instance any) []Property {
	if l, ok := instance.(ports.PropertyLister); ok {
		return listed(l.ShadowProperties())
	}
	t := reflect.TypeOf(instance)
	if t == nil || t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Struct {
		return nil
	}
	t = t.Elem()
	if cached, ok := fieldCache.Load(t); ok {
		return cached.([]Property)
	}
	props := reflected(t)
	actual, _ := fieldCache.LoadOrStore(t, props)
	return actual.([]Property)
}

func listed(specs []ports.PropertySpec) []Property {
	props := make([]Property, 0, len(specs))
	for _, s := range specs {
		if s.Exclude || s.Name == "" {
			continue
		}
		t := s.Type
		if t == nil {
			t = anyType
		}
		get := s.Get
		if get == nil {
			get = func() any { return nil }
		}
		props = append(props, Property{Name: s.Name, Type: t, WaitFor: s.WaitFor, get: get})
	}
	return props
}

func reflected(t reflect.Type) []Property {
	var props []Property
	for _, f := range reflect.VisibleFields(t) {
		if f.Anonymous || !f.IsExported() || !reachable(t, f.Index) {
			continue
		}
		tag, hasTag := f.Tag.Lookup(TagKey)
		if hasTag && tag == "-" {
			continue
		}
		props = append(props, Property{
			Name:    f.Name,
			Type:    f.Type,
			WaitFor: waitFor(tag),
			index:   f.Index,
		})
	}
	return props
}

// reachable reports whether every embedded step on the way to a promoted field is exported.
func reachable(t reflect.Type, index []int) bool {
	for _, i := range index[:len(index)-1] {
		f := t.Field(i)
		if !f.IsExported() {
			return false
		}
		t = f.Type
		if t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
	}
	return true
}

func waitFor(tag string) string {
	for _, part := range strings.Split(tag, ",") {
		if name, ok := strings.CutPrefix(strings.TrimSpace(part), "wait="); ok {
			return name
		}
	}
	return ""
}

// Materialized evaluates the guard of p against instance without reading p.
// Unguarded properties are always materialized. The predicate is either a
// method with signature func() bool or a bool field.
func Materialized(instance any, p Property) (bool, error) {
	if !p.Guarded() {
		return true, nil
	}
	v := reflect.ValueOf(instance)
	if m := v.MethodByName(p.WaitFor); m.IsValid() {
		fn, ok := m.Interface().(func() bool)
		if !ok {
			return false, fmt.Errorf("guard %s of %s: method must have signature func() bool", p.WaitFor, p.Name)
		}
		return fn(), nil
	}
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return false, nil
		}
		v = v.Elem()
	}
	if v.Kind() == reflect.Struct {
		if f := v.FieldByName(p.WaitFor); f.IsValid() && f.Kind() == reflect.Bool && f.CanInterface() {
			return f.Bool(), nil
		}
	}
	return false, fmt.Errorf("guard %s of %s: no func() bool method or bool field found", p.WaitFor, p.Name)
}
