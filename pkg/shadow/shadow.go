package shadow

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/probe"
	"github.com/aretw0/arbor/pkg/tree"
)

// Status returns the capability flags of n.
func Status(n *tree.Node) domain.Status {
	if a := n.Attr(domain.AttrStatus); a != nil {
		if s, ok := a.Tag().(domain.Status); ok {
			return s
		}
		return domain.ParseStatus(a.Value())
	}
	return 0
}

// SetStatus records the capability flags of n.
func SetStatus(n *tree.Node, s domain.Status) {
	n.SetBoundAttr(domain.AttrStatus, s, s.String())
}

// Instance returns the observed object bound to n.
func Instance(n *tree.Node) (any, bool) {
	a := n.Attr(domain.AttrInstance)
	if a == nil {
		return nil, false
	}
	return a.Tag(), true
}

// InstanceAs returns the observed object bound to n when it is a T.
func InstanceAs[T any](n *tree.Node) (T, bool) {
	v, ok := Instance(n)
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

// MustInstance is like InstanceAs but panics when n holds no T.
func MustInstance[T any](n *tree.Node) T {
	t, ok := InstanceAs[T](n)
	if !ok {
		panic(fmt.Sprintf("shadow: node %s holds no %s", Name(n), reflect.TypeFor[T]()))
	}
	return t
}

// BindInstance records the observed object of n.
func BindInstance(n *tree.Node, instance any) {
	n.SetBoundAttr(domain.AttrInstance, instance, "["+probe.TypeName(reflect.TypeOf(instance))+"]")
}

// Name returns the name attribute of n.
func Name(n *tree.Node) string {
	if a := n.Attr(domain.AttrName); a != nil {
		return a.Value()
	}
	return ""
}

// Property returns the property descriptor of a member node.
func Property(n *tree.Node) (probe.Property, bool) {
	if a := n.Attr(domain.AttrProperty); a != nil {
		p, ok := a.Tag().(probe.Property)
		return p, ok
	}
	return probe.Property{}, false
}

// BindProperty records the property descriptor of a member node.
func BindProperty(n *tree.Node, p probe.Property) {
	n.SetBoundAttr(domain.AttrProperty, p, "["+probe.TypeName(p.Type)+"]")
}

// RuntimeType returns the runtime type recorded when a terminal value's type
// differs from its declared type.
func RuntimeType(n *tree.Node) string {
	if a := n.Attr(domain.AttrRuntimeType); a != nil {
		return a.Value()
	}
	return ""
}

// Callbacks returns the consumer configuration held by the origin of n.
func Callbacks(n *tree.Node) (domain.Callbacks, bool) {
	for cur := n; cur != nil; cur = cur.Parent() {
		if a := cur.Attr(domain.AttrRootConfig); a != nil {
			cb, ok := a.Tag().(domain.Callbacks)
			return cb, ok
		}
	}
	return domain.Callbacks{}, false
}

// AncestorOf returns the nearest node (starting at n itself when includeSelf)
// bound to a T, together with that instance.
func AncestorOf[T any](n *tree.Node, includeSelf bool) (*tree.Node, T, bool) {
	cur := n
	if !includeSelf {
		cur = n.Parent()
	}
	for ; cur != nil; cur = cur.Parent() {
		if t, ok := InstanceAs[T](cur); ok {
			return cur, t, true
		}
	}
	var zero T
	return nil, zero, false
}

// Origin returns the origin node of the tree containing n: the top-most
// ancestor carrying the root configuration, or the root.
func Origin(n *tree.Node) *tree.Node {
	var origin *tree.Node
	for cur := n; cur != nil; cur = cur.Parent() {
		if cur.Attr(domain.AttrRootConfig) != nil {
			origin = cur
		}
	}
	if origin == nil {
		return n.Root()
	}
	return origin
}

// Member returns the immediate member child of n with the given property name.
func Member(n *tree.Node, name string) *tree.Node {
	for _, c := range n.Elements(domain.ElementMember) {
		if Name(c) == name {
			return c
		}
	}
	return nil
}

// Path returns the slash separated names from the origin down to n. Unnamed
// instance slots are rendered by their position, e.g. "Lines/[1]/Price".
func Path(n *tree.Node) string {
	var parts []string
	for cur := n; cur != nil; cur = cur.Parent() {
		name := Name(cur)
		if name == "" || (cur.Parent() != nil && cur.Name() == domain.ElementModel) {
			name = fmt.Sprintf("[%d]", elementIndex(cur))
		}
		parts = append(parts, name)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "/")
}

func elementIndex(n *tree.Node) int {
	p := n.Parent()
	if p == nil {
		return 0
	}
	for i, c := range p.Elements(domain.ElementModel) {
		if c == n {
			return i
		}
	}
	return -1
}

// Find resolves a path produced by Path, starting at the origin root.
func Find(root *tree.Node, path string) (*tree.Node, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) == 0 || parts[0] != Name(root) {
		return nil, false
	}
	cur := root
	for _, part := range parts[1:] {
		var next *tree.Node
		var idx int
		if _, err := fmt.Sscanf(part, "[%d]", &idx); err == nil && strings.HasPrefix(part, "[") {
			elems := cur.Elements(domain.ElementModel)
			if idx >= 0 && idx < len(elems) {
				next = elems[idx]
			}
		} else {
			next = Member(cur, part)
		}
		if next == nil {
			return nil, false
		}
		cur = next
	}
	return cur, true
}
