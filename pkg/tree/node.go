package tree

// Node is an element of an ordered tree. It owns an ordered attribute list and
// an ordered child list, and knows its parent. The zero value is not usable;
// create nodes with New.
//
// Node is not safe for concurrent use.
type Node struct {
	name      string
	attrs     []*Attribute
	children  []*Node
	parent    *Node
	listeners []*listener
	nextID    int
}

// Attribute is a named value attached to a Node. Besides its display text an
// attribute may carry a tag: an arbitrary bound object that is not rendered.
type Attribute struct {
	name   string
	value  string
	tag    any
	parent *Node
}

// Name returns the attribute key.
func (a *Attribute) Name() string { return a.name }

// Value returns the display text.
func (a *Attribute) Value() string { return a.value }

// Tag returns the bound object, or nil for a plain attribute.
func (a *Attribute) Tag() any { return a.tag }

// Parent returns the node holding the attribute, or nil once removed.
func (a *Attribute) Parent() *Node { return a.parent }

// New creates a detached node with the given element name.
func New(name string) *Node {
	return &Node{name: name}
}

// Name returns the element name.
func (n *Node) Name() string { return n.name }

// Parent returns the parent node, or nil for a root or a detached node.
func (n *Node) Parent() *Node { return n.parent }

// Len returns the number of children.
func (n *Node) Len() int { return len(n.children) }

// Child returns the i-th child.
func (n *Node) Child(i int) *Node { return n.children[i] }

// Children returns a snapshot of the child list.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// Elements returns the children whose element name is name.
func (n *Node) Elements(name string) []*Node {
	var out []*Node
	for _, c := range n.children {
		if c.name == name {
			out = append(out, c)
		}
	}
	return out
}

// Index returns the position of n among its siblings, or -1 when detached.
func (n *Node) Index() int {
	if n.parent == nil {
		return -1
	}
	for i, c := range n.parent.children {
		if c == n {
			return i
		}
	}
	return -1
}

// Ancestors returns the parent chain, nearest first.
func (n *Node) Ancestors() []*Node {
	var out []*Node
	for p := n.parent; p != nil; p = p.parent {
		out = append(out, p)
	}
	return out
}

// Root returns the top of the parent chain (n itself when detached).
func (n *Node) Root() *Node {
	r := n
	for r.parent != nil {
		r = r.parent
	}
	return r
}

// DescendantsAndSelf returns n followed by all its descendants in pre-order.
func (n *Node) DescendantsAndSelf() []*Node {
	out := []*Node{n}
	for _, c := range n.children {
		out = append(out, c.DescendantsAndSelf()...)
	}
	return out
}

// Attributes returns a snapshot of the attribute list.
func (n *Node) Attributes() []*Attribute {
	out := make([]*Attribute, len(n.attrs))
	copy(out, n.attrs)
	return out
}

// Attr returns the attribute with the given key, or nil.
func (n *Node) Attr(name string) *Attribute {
	for _, a := range n.attrs {
		if a.name == name {
			return a
		}
	}
	return nil
}

// SetAttr sets a plain text attribute, replacing any previous value.
func (n *Node) SetAttr(name, value string) {
	n.SetBoundAttr(name, nil, value)
}

// SetBoundAttr sets an attribute carrying a bound object and its display text.
// Replacing an existing attribute raises a Value change; creating one raises an Add.
func (n *Node) SetBoundAttr(name string, tag any, text string) {
	if a := n.Attr(name); a != nil {
		raise(Event{Subject: a, Kind: Value, Pre: true}, n)
		a.value = text
		a.tag = tag
		raise(Event{Subject: a, Kind: Value}, n)
		return
	}
	a := &Attribute{name: name, value: text, tag: tag}
	raise(Event{Subject: a, Kind: Add, Pre: true}, n)
	a.parent = n
	n.attrs = append(n.attrs, a)
	raise(Event{Subject: a, Kind: Add}, n)
}

// RemoveAttr removes the attribute with the given key and reports whether it existed.
func (n *Node) RemoveAttr(name string) bool {
	for i, a := range n.attrs {
		if a.name != name {
			continue
		}
		raise(Event{Subject: a, Kind: Remove, Pre: true}, n)
		n.attrs = append(n.attrs[:i:i], n.attrs[i+1:]...)
		a.parent = nil
		raise(Event{Subject: a, Kind: Remove}, n)
		return true
	}
	return false
}

// Add appends child to the child list. A child that already has a parent is
// detached from it first.
func (n *Node) Add(child *Node) {
	n.Insert(len(n.children), child)
}

// Insert places child at position i. Out of range positions are clamped.
func (n *Node) Insert(i int, child *Node) {
	if child == nil || child == n {
		return
	}
	if child.parent != nil {
		child.Remove()
	}
	if i < 0 {
		i = 0
	}
	if i > len(n.children) {
		i = len(n.children)
	}
	raise(Event{Subject: child, Kind: Add, Pre: true}, n)
	n.children = append(n.children, nil)
	copy(n.children[i+1:], n.children[i:])
	n.children[i] = child
	child.parent = n
	raise(Event{Subject: child, Kind: Add}, child)
}

// Remove detaches n from its parent. The pre-phase event is raised while n is
// still attached; the post-phase event is raised on the former parent chain
// after the parent link has been cleared.
func (n *Node) Remove() {
	p := n.parent
	if p == nil {
		return
	}
	raise(Event{Subject: n, Kind: Remove, Pre: true}, n)
	// A listener may already have moved n.
	if n.parent != p {
		return
	}
	for i, c := range p.children {
		if c == n {
			p.children = append(p.children[:i:i], p.children[i+1:]...)
			break
		}
	}
	n.parent = nil
	raise(Event{Subject: n, Kind: Remove}, p)
}

// MoveTo repositions n among its siblings without detaching it. Out of range
// positions are clamped.
func (n *Node) MoveTo(i int) {
	p := n.parent
	if p == nil {
		return
	}
	from := n.Index()
	if i < 0 {
		i = 0
	}
	if i > len(p.children)-1 {
		i = len(p.children) - 1
	}
	if i == from {
		return
	}
	raise(Event{Subject: n, Kind: Move, Pre: true}, n)
	p.children = append(p.children[:from:from], p.children[from+1:]...)
	p.children = append(p.children, nil)
	copy(p.children[i+1:], p.children[i:])
	p.children[i] = n
	raise(Event{Subject: n, Kind: Move}, n)
}

// RemoveChildren detaches every child, one removal at a time.
func (n *Node) RemoveChildren() {
	for _, c := range n.Children() {
		c.Remove()
	}
}
