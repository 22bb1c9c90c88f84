// Package notify turns engine callbacks into serializable notifications and
// fans them out to live subscribers such as SSE streams or a Redis relay.
package notify

import (
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/probe"
	"github.com/aretw0/arbor/pkg/shadow"
)

// Kind is the category of a notification.
type Kind string

// Notification kinds, one per consumer callback.
const (
	KindProperty   Kind = "property"
	KindCollection Kind = "collection"
)

// Notification is a detached record of one consumer callback.
type Notification struct {
	Kind      Kind      `json:"kind"`
	Path      string    `json:"path"`
	Sender    string    `json:"sender,omitempty"`
	Property  string    `json:"property,omitempty"`
	Action    string    `json:"action,omitempty"`
	Status    string    `json:"status,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// FromProperty records a property-changed callback.
func FromProperty(sender any, e domain.PropertyChangedEvent) Notification {
	n := Notification{
		Kind:      KindProperty,
		Sender:    senderName(sender),
		Property:  e.PropertyName,
		Timestamp: time.Now(),
	}
	if e.Context != nil {
		n.Path = shadow.Path(e.Context)
		n.Status = shadow.Status(e.Context).String()
	}
	return n
}

// FromCollection records a collection-changed callback.
func FromCollection(sender any, e domain.CollectionChangedEvent) Notification {
	n := Notification{
		Kind:      KindCollection,
		Sender:    senderName(sender),
		Action:    e.Action.String(),
		Timestamp: time.Now(),
	}
	if e.Context != nil {
		n.Path = shadow.Path(e.Context)
		n.Status = shadow.Status(e.Context).String()
	}
	return n
}

func senderName(sender any) string {
	if probe.IsAbsent(sender) {
		return ""
	}
	return probe.TypeName(reflect.TypeOf(sender))
}

// DefaultBuffer is the per-subscriber channel capacity.
const DefaultBuffer = 16

// Hub fans notifications out to subscribers. Slow subscribers lose messages
// rather than block the engine.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[chan Notification]struct{}
	buffer      int
	logger      *slog.Logger
	closed      bool
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithBuffer sets the per-subscriber channel capacity.
func WithBuffer(n int) HubOption {
	return func(h *Hub) {
		if n > 0 {
			h.buffer = n
		}
	}
}

// WithLogger sets the logger used to report dropped messages.
func WithLogger(l *slog.Logger) HubOption {
	return func(h *Hub) {
		h.logger = l
	}
}

// NewHub creates a Hub with a buffer of DefaultBuffer messages per
// subscriber, logging through slog.Default unless configured otherwise.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		subscribers: make(map[chan Notification]struct{}),
		buffer:      DefaultBuffer,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscribe returns a channel receiving every later broadcast, and a cancel
// function that closes it. On a closed hub the channel is already closed.
func (h *Hub) Subscribe() (<-chan Notification, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Notification, h.buffer)
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	h.subscribers[ch] = struct{}{}

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subscribers[ch]; ok {
			delete(h.subscribers, ch)
			close(ch)
		}
	}
}

// Broadcast delivers n to every subscriber without blocking.
func (h *Hub) Broadcast(n Notification) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subscribers {
		select {
		case ch <- n:
		default:
			h.logger.Warn("Subscriber buffer full, dropping notification", "path", n.Path, "kind", n.Kind)
		}
	}
}

// Len returns the number of live subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Close ends every subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for ch := range h.subscribers {
		close(ch)
		delete(h.subscribers, ch)
	}
}

// PropertyFunc returns a property-changed callback broadcasting to h and then
// calling next, if any.
func (h *Hub) PropertyFunc(next domain.PropertyChangedFunc) domain.PropertyChangedFunc {
	return func(sender any, e domain.PropertyChangedEvent) {
		h.Broadcast(FromProperty(sender, e))
		if next != nil {
			next(sender, e)
		}
	}
}

// CollectionFunc is the collection-changed counterpart of PropertyFunc.
func (h *Hub) CollectionFunc(next domain.CollectionChangedFunc) domain.CollectionChangedFunc {
	return func(sender any, e domain.CollectionChangedEvent) {
		h.Broadcast(FromCollection(sender, e))
		if next != nil {
			next(sender, e)
		}
	}
}
