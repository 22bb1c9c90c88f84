package tree

// ChangeKind classifies a structural change.
type ChangeKind int

const (
	// Add is raised when a child or an attribute is attached.
	Add ChangeKind = iota
	// Remove is raised when a child or an attribute is detached.
	Remove
	// Value is raised when an existing attribute is overwritten.
	Value
	// Move is raised when a child changes position under the same parent.
	Move
)

// String returns the lower-case kind name.
func (k ChangeKind) String() string {
	switch k {
	case Add:
		return "add"
	case Remove:
		return "remove"
	case Value:
		return "value"
	case Move:
		return "move"
	default:
		return "unknown"
	}
}

// Event describes one phase of a structural change. Subject is the *Node or
// *Attribute being changed. Pre is true for the "changing" phase and false for
// the "changed" phase.
type Event struct {
	Subject any
	Kind    ChangeKind
	Pre     bool
}

// Node returns the subject when it is a node.
func (e Event) Node() (*Node, bool) {
	n, ok := e.Subject.(*Node)
	return n, ok
}

// Attribute returns the subject when it is an attribute.
func (e Event) Attribute() (*Attribute, bool) {
	a, ok := e.Subject.(*Attribute)
	return a, ok
}

type listener struct {
	id int
	fn func(Event)
}

// Observe registers fn for every change raised on n or any of its
// descendants. The returned function unregisters it.
func (n *Node) Observe(fn func(Event)) (cancel func()) {
	n.nextID++
	id := n.nextID
	n.listeners = append(n.listeners, &listener{id: id, fn: fn})
	return func() {
		for i, l := range n.listeners {
			if l.id == id {
				n.listeners = append(n.listeners[:i:i], n.listeners[i+1:]...)
				return
			}
		}
	}
}

// raise delivers e to the listeners of from and each of its ancestors,
// nearest first. Listener lists are snapshotted so handlers may mutate the tree.
func raise(e Event, from *Node) {
	for cur := from; cur != nil; cur = cur.parent {
		if len(cur.listeners) == 0 {
			continue
		}
		ls := make([]*listener, len(cur.listeners))
		copy(ls, cur.listeners)
		for _, l := range ls {
			l.fn(e)
		}
	}
}
