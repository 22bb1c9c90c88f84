package observable_test

import (
	"sync"
	"testing"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/observable"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	observable.PropertySource
	Name string
}

func (i *item) SetName(v string) {
	if i.Name != v {
		i.Name = v
		i.Raise(i, "Name")
	}
}

func TestPropertySource_Contract(t *testing.T) {
	subject := &item{}
	n := 0
	ports.RunPropertyNotifierContract(t, subject, "Name", func() {
		n++
		subject.SetName(string(rune('a' + n)))
	})
	assert.Zero(t, subject.Subscribers(), "contract must leave no handlers behind")
}

func TestCollection_Contract(t *testing.T) {
	c := observable.NewCollection[*item]()
	ports.RunCollectionNotifierContract(t, c, func() {
		c.Add(&item{Name: "x"})
	})
}

func TestCollection_Actions(t *testing.T) {
	a, b, d := &item{Name: "a"}, &item{Name: "b"}, &item{Name: "d"}
	c := observable.NewCollection(a)

	var got []domain.CollectionChangedArgs
	unsubscribe := c.SubscribeCollectionChanged(func(_ any, e domain.CollectionChangedArgs) {
		got = append(got, e)
	})
	defer unsubscribe()

	c.Add(b)
	c.Insert(0, d)
	assert.Equal(t, []*item{d, a, b}, c.Items())

	c.Move(0, 2)
	assert.Equal(t, []*item{a, b, d}, c.Items())

	c.Set(1, d)
	assert.True(t, c.Remove(a))
	assert.False(t, c.Remove(a))
	removed := c.RemoveAt(0)
	c.Clear()

	require.Len(t, got, 7)
	assert.Equal(t, domain.ActionAdd, got[0].Action)
	assert.Equal(t, 1, got[0].NewIndex)
	assert.Equal(t, domain.ActionAdd, got[1].Action)
	assert.Equal(t, 0, got[1].NewIndex)
	assert.Equal(t, domain.ActionMove, got[2].Action)
	assert.Equal(t, 0, got[2].OldIndex)
	assert.Equal(t, 2, got[2].NewIndex)
	assert.Equal(t, domain.ActionReplace, got[3].Action)
	assert.Same(t, b, got[3].OldItems[0])
	assert.Same(t, d, got[3].NewItems[0])
	assert.Equal(t, domain.ActionRemove, got[4].Action)
	assert.Same(t, a, got[4].OldItems[0])
	assert.Same(t, d, removed)
	assert.Equal(t, domain.ActionReset, got[6].Action)
	assert.Zero(t, c.Len())
}

func TestLazy_DoesNotForce(t *testing.T) {
	calls := 0
	l := observable.NewLazy(func() *item {
		calls++
		return &item{Name: "built"}
	})

	var d ports.Deferred = l
	assert.False(t, d.IsMaterialized())
	assert.False(t, d.IsMaterialized())
	assert.Zero(t, calls)

	v := l.Value()
	assert.Equal(t, "built", v.Name)
	assert.True(t, d.IsMaterialized())
	assert.Same(t, v, d.Materialize())
	assert.Equal(t, 1, calls)
}

func TestLazy_ConcurrentProbe(t *testing.T) {
	l := observable.NewLazy(func() int { return 7 })
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = l.IsMaterialized()
			}
		}()
	}
	assert.Equal(t, 7, l.Value())
	wg.Wait()
	assert.True(t, l.IsMaterialized())
}
