package observable

import (
	"sync"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
)

// PropertySource implements ports.PropertyNotifier. Embed it in a struct and
// call Raise from the setters:
//
//	type Line struct {
//		observable.PropertySource
//		Qty int
//	}
//
//	func (l *Line) SetQty(v int) {
//		if l.Qty != v {
//			l.Qty = v
//			l.Raise(l, "Qty")
//		}
//	}
//
// The zero value is ready to use. Handlers run synchronously on the raising goroutine.
type PropertySource struct {
	handlers registry[ports.PropertyChangedHandler]
}

// SubscribePropertyChanged implements ports.PropertyNotifier.
func (s *PropertySource) SubscribePropertyChanged(h ports.PropertyChangedHandler) ports.Unsubscribe {
	return s.handlers.add(h)
}

// Raise notifies every subscriber that property changed on sender.
func (s *PropertySource) Raise(sender any, property string) {
	e := domain.PropertyChangedArgs{PropertyName: property}
	for _, h := range s.handlers.snapshot() {
		h(sender, e)
	}
}

// Subscribers returns the number of live handlers.
func (s *PropertySource) Subscribers() int {
	return s.handlers.len()
}

// registry is a handler list safe for concurrent subscribe and raise.
type registry[H any] struct {
	mu      sync.Mutex
	nextID  int
	entries []entry[H]
}

type entry[H any] struct {
	id int
	h  H
}

func (r *registry[H]) add(h H) ports.Unsubscribe {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	id := r.nextID
	r.entries = append(r.entries, entry[H]{id: id, h: h})

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			for i, e := range r.entries {
				if e.id == id {
					r.entries = append(r.entries[:i:i], r.entries[i+1:]...)
					return
				}
			}
		})
	}
}

func (r *registry[H]) snapshot() []H {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]H, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.h
	}
	return out
}

func (r *registry[H]) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
