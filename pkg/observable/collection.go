package observable

import (
	"reflect"
	"sync"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
)

// Collection is an ordered list that implements ports.Collection and
// ports.CollectionNotifier. Mutations raise their change after the list has
// been updated and outside the internal lock.
type Collection[T any] struct {
	mu       sync.RWMutex
	items    []T
	handlers registry[ports.CollectionChangedHandler]
}

// NewCollection returns a collection holding items.
func NewCollection[T any](items ...T) *Collection[T] {
	c := &Collection[T]{}
	c.items = append(c.items, items...)
	return c
}

// SubscribeCollectionChanged implements ports.CollectionNotifier.
func (c *Collection[T]) SubscribeCollectionChanged(h ports.CollectionChangedHandler) ports.Unsubscribe {
	return c.handlers.add(h)
}

// Len implements ports.Collection.
func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// At implements ports.Collection.
func (c *Collection[T]) At(i int) any {
	return c.Get(i)
}

// Get returns the i-th item.
func (c *Collection[T]) Get(i int) T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.items[i]
}

// Items returns a snapshot of the list.
func (c *Collection[T]) Items() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// Add appends items, raising one Add per item.
func (c *Collection[T]) Add(items ...T) {
	for _, item := range items {
		c.mu.Lock()
		idx := len(c.items)
		c.items = append(c.items, item)
		c.mu.Unlock()
		c.raise(domain.CollectionChangedArgs{Action: domain.ActionAdd, NewItems: []any{item}, NewIndex: idx, OldIndex: -1})
	}
}

// Insert places item at position i.
func (c *Collection[T]) Insert(i int, item T) {
	c.mu.Lock()
	if i < 0 || i > len(c.items) {
		c.mu.Unlock()
		panic("observable: insert index out of range")
	}
	var zero T
	c.items = append(c.items, zero)
	copy(c.items[i+1:], c.items[i:])
	c.items[i] = item
	c.mu.Unlock()
	c.raise(domain.CollectionChangedArgs{Action: domain.ActionAdd, NewItems: []any{item}, NewIndex: i, OldIndex: -1})
}

// RemoveAt removes the item at position i and returns it.
func (c *Collection[T]) RemoveAt(i int) T {
	c.mu.Lock()
	old := c.items[i]
	c.items = append(c.items[:i:i], c.items[i+1:]...)
	c.mu.Unlock()
	c.raise(domain.CollectionChangedArgs{Action: domain.ActionRemove, OldItems: []any{old}, NewIndex: -1, OldIndex: i})
	return old
}

// Remove removes the first item identical to item and reports whether one was found.
func (c *Collection[T]) Remove(item T) bool {
	c.mu.RLock()
	idx := -1
	for i, it := range c.items {
		if same(it, item) {
			idx = i
			break
		}
	}
	c.mu.RUnlock()
	if idx < 0 {
		return false
	}
	c.RemoveAt(idx)
	return true
}

// Set replaces the item at position i.
func (c *Collection[T]) Set(i int, item T) {
	c.mu.Lock()
	old := c.items[i]
	c.items[i] = item
	c.mu.Unlock()
	c.raise(domain.CollectionChangedArgs{
		Action:   domain.ActionReplace,
		NewItems: []any{item},
		OldItems: []any{old},
		NewIndex: i,
		OldIndex: i,
	})
}

// Move relocates the item at from to position to.
func (c *Collection[T]) Move(from, to int) {
	c.mu.Lock()
	item := c.items[from]
	c.items = append(c.items[:from:from], c.items[from+1:]...)
	var zero T
	c.items = append(c.items, zero)
	copy(c.items[to+1:], c.items[to:])
	c.items[to] = item
	c.mu.Unlock()
	c.raise(domain.CollectionChangedArgs{
		Action:   domain.ActionMove,
		NewItems: []any{item},
		OldItems: []any{item},
		NewIndex: to,
		OldIndex: from,
	})
}

// Clear empties the list with a single Reset.
func (c *Collection[T]) Clear() {
	c.mu.Lock()
	c.items = nil
	c.mu.Unlock()
	c.raise(domain.CollectionChangedArgs{Action: domain.ActionReset, NewIndex: -1, OldIndex: -1})
}

func (c *Collection[T]) raise(e domain.CollectionChangedArgs) {
	for _, h := range c.handlers.snapshot() {
		h(c, e)
	}
}

func same(a, b any) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || ta == nil {
		return ta == tb
	}
	if !ta.Comparable() {
		return false
	}
	return a == b
}
