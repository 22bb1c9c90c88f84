package probe_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/aretw0/arbor/internal/testutils"
	"github.com/aretw0/arbor/pkg/observable"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/probe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Level int

type Part struct {
	observable.PropertySource
	Label string
}

type Widget struct {
	observable.PropertySource
	ID      string
	Level   Level
	Payload any
	Part    *Part
	Spare   *Part `arbor:"wait=SpareReady"`
	Secret  string `arbor:"-"`
	Ready   bool   `arbor:"-"`
	Parts   *observable.Collection[*Part]
	private int
}

func (w *Widget) SpareReady() bool { return w.Ready }

type listed struct {
	built *Part
}

func (l *listed) Built() bool { return l.built != nil }

func (l *listed) ShadowProperties() []ports.PropertySpec {
	return []ports.PropertySpec{
		{Name: "Built", Exclude: true},
		{Name: "Item", Type: reflect.TypeFor[*Part](), WaitFor: "Built", Get: func() any { return l.built }},
		{Name: "Loose"},
	}
}

func TestIsTerminal(t *testing.T) {
	cases := []struct {
		name string
		v    any
		want bool
	}{
		{"string", "x", true},
		{"int", 3, true},
		{"enum", Level(2), true},
		{"float", 1.5, true},
		{"struct value", time.Time{}, true},
		{"pointer", &Part{}, false},
		{"slice", []int{1}, false},
		{"map", map[string]int{}, false},
		{"collection", observable.NewCollection[int](), false},
		{"nil", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, probe.IsTerminal(tc.v))
		})
	}

	assert.False(t, probe.IsTerminalType(reflect.TypeFor[any]()), "interface types are never terminal")
}

func TestCapabilities(t *testing.T) {
	w := &Widget{}
	assert.True(t, probe.IsPropertySource(w))
	assert.False(t, probe.IsCollectionSource(w))

	c := observable.NewCollection[*Part]()
	assert.True(t, probe.IsCollectionSource(c))
	assert.False(t, probe.IsPropertySource(c))

	assert.True(t, probe.DeclaresChangeSource(reflect.TypeFor[*Part]()))
	assert.False(t, probe.DeclaresChangeSource(reflect.TypeFor[any]()))
	assert.False(t, probe.DeclaresChangeSource(reflect.TypeFor[string]()))
}

func TestIsAbsent(t *testing.T) {
	var p *Part
	var s []int
	assert.True(t, probe.IsAbsent(nil))
	assert.True(t, probe.IsAbsent(p))
	assert.True(t, probe.IsAbsent(s))
	assert.False(t, probe.IsAbsent(""))
	assert.False(t, probe.IsAbsent(0))
	assert.False(t, probe.IsAbsent(&Part{}))
}

func TestProperties_Reflected(t *testing.T) {
	w := &Widget{Part: &Part{Label: "p"}, Payload: "text"}
	props := probe.Properties(w)

	names := make([]string, len(props))
	for i, p := range props {
		names[i] = p.Name
	}
	assert.Equal(t, []string{"ID", "Level", "Payload", "Part", "Spare", "Parts"}, names)

	byName := map[string]probe.Property{}
	for _, p := range props {
		byName[p.Name] = p
	}
	assert.Equal(t, reflect.TypeFor[any](), byName["Payload"].Type)
	assert.Equal(t, "text", byName["Payload"].Value(w))
	assert.Same(t, w.Part, byName["Part"].Value(w))
	assert.Equal(t, "SpareReady", byName["Spare"].WaitFor)
	assert.True(t, byName["Spare"].Guarded())

	t.Run("Cached per type", func(t *testing.T) {
		again := probe.Properties(&Widget{})
		require.Len(t, again, len(props))
		assert.Equal(t, props[0].Type, again[0].Type)
	})

	t.Run("Non-struct instances have no properties", func(t *testing.T) {
		assert.Empty(t, probe.Properties("x"))
		assert.Empty(t, probe.Properties([]int{1}))
	})
}

func TestProperties_Listed(t *testing.T) {
	l := &listed{}
	props := probe.Properties(l)
	require.Len(t, props, 2)
	assert.Equal(t, "Item", props[0].Name)
	assert.Equal(t, reflect.TypeFor[any](), props[1].Type, "missing type defaults to any")
	assert.Nil(t, props[1].Value(l))

	ok, err := probe.Materialized(l, props[0])
	require.NoError(t, err)
	assert.False(t, ok)

	l.built = &Part{}
	ok, err = probe.Materialized(l, props[0])
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Same(t, l.built, props[0].Value(l))
}

func TestMaterialized(t *testing.T) {
	w := &Widget{}
	var spare probe.Property
	for _, p := range probe.Properties(w) {
		if p.Name == "Spare" {
			spare = p
		}
	}

	ok, err := probe.Materialized(w, spare)
	require.NoError(t, err)
	assert.False(t, ok)

	w.Ready = true
	ok, err = probe.Materialized(w, spare)
	require.NoError(t, err)
	assert.True(t, ok)

	t.Run("Unknown guard is an error", func(t *testing.T) {
		bad := probe.Property{Name: "X", WaitFor: "Nope"}
		_, err := probe.Materialized(w, bad)
		assert.Error(t, err)
	})
}

func TestElements(t *testing.T) {
	a, b := &Part{}, &Part{}
	items, ok := probe.Elements(observable.NewCollection(a, b))
	require.True(t, ok)
	assert.Equal(t, []any{a, b}, items)

	items, ok = probe.Elements([]string{"x", "y"})
	require.True(t, ok)
	assert.Equal(t, []any{"x", "y"}, items)

	_, ok = probe.Elements(&Part{})
	assert.False(t, ok)
}

func TestTypeNames(t *testing.T) {
	assert.Equal(t, "Widget", probe.ShortTypeName(reflect.TypeFor[*Widget]()))
	assert.Equal(t, "probe_test.Widget", probe.TypeName(reflect.TypeFor[*Widget]()))
	assert.Equal(t, "Collection", probe.ShortTypeName(reflect.TypeFor[*observable.Collection[*Part]]()))
	assert.Equal(t, "string", probe.ShortTypeName(reflect.TypeFor[string]()))
}

func TestSame(t *testing.T) {
	a, b := &Part{}, &Part{}
	assert.True(t, probe.Same(a, a))
	assert.False(t, probe.Same(a, b))
	assert.False(t, probe.Same(nil, nil))
	assert.False(t, probe.Same(time.Time{}, time.Time{}), "struct values have no identity")
}

func TestDocComments(t *testing.T) {
	testutils.AssertDocumented(t, ".")
}
