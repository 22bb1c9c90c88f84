package tree_test

import (
	"testing"

	"github.com/aretw0/arbor/internal/testutils"
	"github.com/aretw0/arbor/pkg/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNode_Structure(t *testing.T) {
	root := tree.New("model")
	a := tree.New("member")
	b := tree.New("member")
	c := tree.New("model")

	root.Add(a)
	root.Add(b)
	b.Add(c)

	assert.Equal(t, 2, root.Len())
	assert.Same(t, root, a.Parent())
	assert.Same(t, root, c.Root())
	assert.Equal(t, []*tree.Node{b, root}, c.Ancestors())
	assert.Equal(t, []*tree.Node{root, a, b, c}, root.DescendantsAndSelf())
	assert.Equal(t, 1, b.Index())

	t.Run("Insert clamps and reparents", func(t *testing.T) {
		x := tree.New("model")
		root.Insert(1, x)
		assert.Equal(t, 1, x.Index())
		assert.Equal(t, 2, b.Index())

		// Moving c under root detaches it from b.
		root.Insert(99, c)
		assert.Equal(t, 0, b.Len())
		assert.Same(t, root, c.Parent())
		assert.Equal(t, root.Len()-1, c.Index())
	})

	t.Run("Elements filters by name", func(t *testing.T) {
		assert.Len(t, root.Elements("member"), 2)
		assert.Len(t, root.Elements("model"), 2)
	})
}

func TestNode_Attributes(t *testing.T) {
	n := tree.New("member")
	n.SetAttr("name", "Cost")
	n.SetBoundAttr("instance", 42, "[int]")

	require.NotNil(t, n.Attr("instance"))
	assert.Equal(t, 42, n.Attr("instance").Tag())
	assert.Equal(t, "[int]", n.Attr("instance").Value())
	assert.Nil(t, n.Attr("name").Tag())

	n.SetAttr("name", "Price")
	assert.Equal(t, "Price", n.Attr("name").Value())
	assert.Len(t, n.Attributes(), 2)

	attr := n.Attr("instance")
	assert.True(t, n.RemoveAttr("instance"))
	assert.False(t, n.RemoveAttr("instance"))
	assert.Nil(t, attr.Parent())
	assert.Nil(t, n.Attr("instance"))
}

func TestNode_EventPhases(t *testing.T) {
	root := tree.New("model")
	child := tree.New("member")
	grandchild := tree.New("model")
	child.Add(grandchild)

	var events []tree.Event
	var parentsSeen []*tree.Node
	cancel := root.Observe(func(e tree.Event) {
		events = append(events, e)
		if n, ok := e.Node(); ok {
			parentsSeen = append(parentsSeen, n.Parent())
		}
	})

	root.Add(child)
	require.Len(t, events, 2)
	assert.True(t, events[0].Pre)
	assert.Equal(t, tree.Add, events[0].Kind)
	assert.False(t, events[1].Pre)

	events, parentsSeen = nil, nil
	child.Remove()
	require.Len(t, events, 2)
	assert.True(t, events[0].Pre)
	assert.Equal(t, tree.Remove, events[0].Kind)
	assert.Same(t, root, parentsSeen[0], "pre-phase sees the parent")
	assert.False(t, events[1].Pre)
	assert.Nil(t, parentsSeen[1], "post-phase arrives with the parent cleared")

	t.Run("Attribute changes bubble", func(t *testing.T) {
		root.Add(child)
		events = nil
		grandchild.SetAttr("status", "WaitingForValue")
		require.Len(t, events, 2)
		a, ok := events[1].Attribute()
		require.True(t, ok)
		assert.Equal(t, "status", a.Name())
	})

	t.Run("Cancel stops delivery", func(t *testing.T) {
		cancel()
		events = nil
		child.Remove()
		assert.Empty(t, events)
	})
}

func TestFormat(t *testing.T) {
	root := tree.New("model")
	root.SetAttr("status", "PropertyChangeSource")
	root.SetAttr("name", "(Origin)Order")
	m := tree.New("member")
	m.SetAttr("name", `Note "x"`)
	root.Add(m)

	rank := func(name string) int {
		if name == "name" {
			return 0
		}
		return 1
	}

	got := tree.Format(root, tree.FormatOptions{Deep: true, Rank: rank})
	want := "<model name=\"(Origin)Order\" status=\"PropertyChangeSource\">\n" +
		"  <member name=\"Note &quot;x&quot;\" />\n" +
		"</model>"
	assert.Equal(t, want, got)

	shallow := tree.Format(root, tree.FormatOptions{Rank: rank})
	assert.Equal(t, `<model name="(Origin)Order" status="PropertyChangeSource" />`, shallow)
}

func TestNode_MoveTo(t *testing.T) {
	root := tree.New("model")
	a, b, c := tree.New("a"), tree.New("b"), tree.New("c")
	root.Add(a)
	root.Add(b)
	root.Add(c)

	var kinds []tree.ChangeKind
	root.Observe(func(e tree.Event) { kinds = append(kinds, e.Kind) })

	a.MoveTo(2)
	assert.Equal(t, []*tree.Node{b, c, a}, root.Children())
	c.MoveTo(-5)
	assert.Equal(t, []*tree.Node{c, b, a}, root.Children())
	assert.Equal(t, []tree.ChangeKind{tree.Move, tree.Move, tree.Move, tree.Move}, kinds, "moves never raise add or remove")
}

func TestDocComments(t *testing.T) {
	testutils.AssertDocumented(t, ".")
}
