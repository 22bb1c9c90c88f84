package domain

import (
	"context"
	"time"

	"github.com/aretw0/arbor/pkg/tree"
)

// PropertyChangedArgs is raised by an observed object when one of its properties changes.
type PropertyChangedArgs struct {
	PropertyName string
}

// CollectionAction enumerates collection mutations.
type CollectionAction int

// Collection mutations, as reported by a CollectionNotifier.
const (
	ActionAdd CollectionAction = iota
	ActionRemove
	ActionReplace
	ActionMove
	ActionReset
)

// String returns the lower-case action name.
func (a CollectionAction) String() string {
	switch a {
	case ActionAdd:
		return "add"
	case ActionRemove:
		return "remove"
	case ActionReplace:
		return "replace"
	case ActionMove:
		return "move"
	case ActionReset:
		return "reset"
	default:
		return "unknown"
	}
}

// CollectionChangedArgs is raised by an observed collection.
// Indexes are -1 when not applicable.
type CollectionChangedArgs struct {
	Action   CollectionAction
	NewItems []any
	OldItems []any
	NewIndex int
	OldIndex int
}

// PropertyChangedEvent is delivered to the consumer. Context is the shadow
// node of the property that changed.
type PropertyChangedEvent struct {
	PropertyName string
	Context      *tree.Node
}

// CollectionChangedEvent is delivered to the consumer. Context is the shadow
// node of the collection.
type CollectionChangedEvent struct {
	CollectionChangedArgs
	Context *tree.Node
}

// StructuralChangeEvent forwards a shadow tree change to the consumer.
// FormerParent is set on the post-phase of a removal.
type StructuralChangeEvent struct {
	Kind         tree.ChangeKind
	IsChanging   bool
	Subject      any
	FormerParent *tree.Node
}

// PropertyChangedFunc receives property notifications from any depth of the graph.
// sender is the observed object that raised the change.
type PropertyChangedFunc func(sender any, e PropertyChangedEvent)

// CollectionChangedFunc receives collection notifications from any depth of the graph.
type CollectionChangedFunc func(sender any, e CollectionChangedEvent)

// StructuralChangeFunc receives shadow tree changes. sender is the shadow node
// the change was observed on.
type StructuralChangeFunc func(sender any, e StructuralChangeEvent)

// Callbacks is the consumer configuration held by the origin node.
type Callbacks struct {
	OnPropertyChanged   PropertyChangedFunc
	OnCollectionChanged CollectionChangedFunc
	OnStructuralChange  StructuralChangeFunc
}

// Validate checks the callback combination accepted at attach time.
func (c Callbacks) Validate() error {
	if c.OnPropertyChanged == nil && c.OnCollectionChanged == nil {
		return ErrNoCallbacks
	}
	if c.OnPropertyChanged == nil {
		return ErrPropertyCallbackRequired
	}
	return nil
}

// EventType defines the category of a diagnostic event.
type EventType string

// Diagnostic event types reported through Hooks.
const (
	EventSubscribe   EventType = "subscribe"
	EventUnsubscribe EventType = "unsubscribe"
	EventRefresh     EventType = "refresh"
	EventNotify      EventType = "notify"
	EventWatch       EventType = "watch"
	EventWatchDone   EventType = "watch_done"
	EventAnomaly     EventType = "anomaly"
)

// SubscriptionKind tells which capability a handle belongs to.
type SubscriptionKind string

// Subscription kinds, one per capability handle attribute.
const (
	PropertySubscription   SubscriptionKind = "property"
	CollectionSubscription SubscriptionKind = "collection"
	DeferredSubscription   SubscriptionKind = "deferred"
)

// EventBase contains common fields for all diagnostic events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// SubscriptionEvent reports a handler attached to or revoked from an observed instance.
type SubscriptionEvent struct {
	EventBase
	Handle   string           `json:"handle"`
	Kind     SubscriptionKind `json:"kind"`
	Node     *tree.Node       `json:"-"`
	Instance any              `json:"-"`
}

// RefreshEvent reports a narrow refresh of one shadow node.
type RefreshEvent struct {
	EventBase
	Duration time.Duration `json:"duration"`
	Node     *tree.Node    `json:"-"`
}

// NotifyEvent reports a notification forwarded to the consumer.
type NotifyEvent struct {
	EventBase
	Kind     SubscriptionKind `json:"kind"`
	Property string           `json:"property,omitempty"`
	Node     *tree.Node       `json:"-"`
}

// AnomalyEvent reports an invariant violation or a teardown inconsistency.
// Anomalies are diagnostics and never reach the consumer callbacks.
type AnomalyEvent struct {
	EventBase
	Err  error      `json:"-"`
	Node *tree.Node `json:"-"`
}

// Hooks defines callbacks for engine observability.
type Hooks struct {
	OnSubscribe   func(context.Context, *SubscriptionEvent)
	OnUnsubscribe func(context.Context, *SubscriptionEvent)
	OnRefresh     func(context.Context, *RefreshEvent)
	OnNotify      func(context.Context, *NotifyEvent)
	OnAnomaly     func(context.Context, *AnomalyEvent)
	// OnPending reports the size of the pending-removal registry after each change.
	OnPending func(context.Context, int)
	// OnWatching reports the number of live deferred-value watches after each change.
	OnWatching func(context.Context, int)
}

// Merge returns hooks that call h and then other for every event.
func (h Hooks) Merge(other Hooks) Hooks {
	return Hooks{
		OnSubscribe:   chain(h.OnSubscribe, other.OnSubscribe),
		OnUnsubscribe: chain(h.OnUnsubscribe, other.OnUnsubscribe),
		OnRefresh:     chain(h.OnRefresh, other.OnRefresh),
		OnNotify:      chain(h.OnNotify, other.OnNotify),
		OnAnomaly:     chain(h.OnAnomaly, other.OnAnomaly),
		OnPending:     chain(h.OnPending, other.OnPending),
		OnWatching:    chain(h.OnWatching, other.OnWatching),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
