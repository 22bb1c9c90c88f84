package observable

import (
	"sync"
	"sync/atomic"
)

// Lazy is a value computed on first use. It implements ports.Deferred:
// IsMaterialized never runs the factory and is safe from any goroutine.
type Lazy[T any] struct {
	once    sync.Once
	factory func() T
	value   T
	done    atomic.Bool
}

// NewLazy returns a Lazy that runs factory on first access.
func NewLazy[T any](factory func() T) *Lazy[T] {
	return &Lazy[T]{factory: factory}
}

// Value returns the value, running the factory if needed.
func (l *Lazy[T]) Value() T {
	l.once.Do(func() {
		l.value = l.factory()
		l.done.Store(true)
	})
	return l.value
}

// IsMaterialized reports whether the factory has run.
func (l *Lazy[T]) IsMaterialized() bool {
	return l.done.Load()
}

// Materialize implements ports.Deferred.
func (l *Lazy[T]) Materialize() any {
	return l.Value()
}
