package shadow

import (
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/tree"
)

// Render returns n and its descendants in the canonical text form, attributes
// in their fixed order.
func Render(n *tree.Node) string {
	return tree.Format(n, tree.FormatOptions{Deep: true, Rank: domain.AttrRank})
}

// Shallow returns n alone, without descendants.
func Shallow(n *tree.Node) string {
	return tree.Format(n, tree.FormatOptions{Rank: domain.AttrRank})
}

// NodeSnapshot is a serializable copy of a shadow subtree.
type NodeSnapshot struct {
	Element     string          `json:"element"`
	Name        string          `json:"name,omitempty"`
	Path        string          `json:"path"`
	Status      string          `json:"status,omitempty"`
	Property    string          `json:"property,omitempty"`
	Instance    string          `json:"instance,omitempty"`
	RuntimeType string          `json:"runtime_type,omitempty"`
	Subscribed  []string        `json:"subscribed,omitempty"`
	Children    []*NodeSnapshot `json:"children,omitempty"`
}

// Snapshot copies n and its descendants.
func Snapshot(n *tree.Node) *NodeSnapshot {
	s := &NodeSnapshot{
		Element:     n.Name(),
		Name:        Name(n),
		Path:        Path(n),
		Status:      Status(n).String(),
		RuntimeType: RuntimeType(n),
	}
	if a := n.Attr(domain.AttrProperty); a != nil {
		s.Property = a.Value()
	}
	if a := n.Attr(domain.AttrInstance); a != nil {
		s.Instance = a.Value()
	}
	for _, key := range domain.HandleAttrs {
		if n.Attr(key) != nil {
			s.Subscribed = append(s.Subscribed, key)
		}
	}
	for _, c := range n.Children() {
		s.Children = append(s.Children, Snapshot(c))
	}
	return s
}

// Walk calls fn for s and its descendants in pre-order, with their depth.
func (s *NodeSnapshot) Walk(fn func(n *NodeSnapshot, depth int)) {
	s.walk(fn, 0)
}

func (s *NodeSnapshot) walk(fn func(n *NodeSnapshot, depth int), depth int) {
	fn(s, depth)
	for _, c := range s.Children {
		c.walk(fn, depth+1)
	}
}
