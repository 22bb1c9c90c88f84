package runtime

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/probe"
	"github.com/aretw0/arbor/pkg/shadow"
	"github.com/aretw0/arbor/pkg/tree"
	"github.com/google/uuid"
)

// subscription is the revocable token bound to a handle attribute.
type subscription struct {
	id       uuid.UUID
	kind     domain.SubscriptionKind
	instance any
	cancel   func()
	revoked  atomic.Bool
}

// revoke cancels the token. It reports false when it was already revoked.
func (s *subscription) revoke() bool {
	if s.revoked.Swap(true) {
		return false
	}
	if s.cancel != nil {
		s.cancel()
	}
	return true
}

var handleAttrs = map[domain.SubscriptionKind]struct{ key, text string }{
	domain.PropertySubscription:   {domain.AttrOnPC, "[OnPC]"},
	domain.CollectionSubscription: {domain.AttrOnCC, "[OnCC]"},
	domain.DeferredSubscription:   {domain.AttrDeferred, "[Deferred]"},
}

func subscriptionAt(n *tree.Node, key string) (*subscription, bool) {
	a := n.Attr(key)
	if a == nil {
		return nil, false
	}
	s, ok := a.Tag().(*subscription)
	return s, ok
}

// bind records sub on n and reports it.
func (e *Engine) bind(n *tree.Node, sub *subscription) {
	h := handleAttrs[sub.kind]
	n.SetBoundAttr(h.key, sub, h.text)

	typ := domain.EventSubscribe
	if sub.kind == domain.DeferredSubscription {
		typ = domain.EventWatch
	}
	e.logger.Debug("Subscribed", "kind", sub.kind, "handle", sub.id, "node", shadow.Path(n))
	if e.hooks.OnSubscribe != nil {
		e.hooks.OnSubscribe(e.ctx, &domain.SubscriptionEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: typ},
			Handle:    sub.id.String(),
			Kind:      sub.kind,
			Node:      n,
			Instance:  sub.instance,
		})
	}
}

// subscribeProperty attaches the property handler unless n already holds one
// for the same instance.
func (e *Engine) subscribeProperty(n *tree.Node, pn ports.PropertyNotifier) {
	if current, ok := subscriptionAt(n, domain.AttrOnPC); ok {
		if probe.Same(current.instance, pn) {
			return
		}
		e.revokeAttr(n, domain.AttrOnPC, domain.EventUnsubscribe)
	}

	sub := &subscription{id: uuid.New(), kind: domain.PropertySubscription, instance: pn}
	sub.cancel = pn.SubscribePropertyChanged(func(sender any, args domain.PropertyChangedArgs) {
		e.queue.Do(func() {
			if sub.revoked.Load() || e.closed.Load() {
				return
			}
			e.handlePropertyChanged(n, sender, args)
		})
	})
	e.bind(n, sub)
}

// subscribeCollection attaches the collection handler unless n already holds
// one for the same instance.
func (e *Engine) subscribeCollection(n *tree.Node, cn ports.CollectionNotifier) {
	if current, ok := subscriptionAt(n, domain.AttrOnCC); ok {
		if probe.Same(current.instance, cn) {
			return
		}
		e.revokeAttr(n, domain.AttrOnCC, domain.EventUnsubscribe)
	}

	sub := &subscription{id: uuid.New(), kind: domain.CollectionSubscription, instance: cn}
	sub.cancel = cn.SubscribeCollectionChanged(func(sender any, args domain.CollectionChangedArgs) {
		e.queue.Do(func() {
			if sub.revoked.Load() || e.closed.Load() {
				return
			}
			e.handleCollectionChanged(n, sender, args)
		})
	})
	e.bind(n, sub)
}

// watch starts polling d for materialization on behalf of member. It reports
// true when d is already materialized, in which case nothing is watched.
func (e *Engine) watch(member *tree.Node, d ports.Deferred) bool {
	key := probe.Identity(d)
	if key == nil {
		key = member
	}
	sub := &subscription{id: uuid.New(), kind: domain.DeferredSubscription, instance: d}
	ready, cancel := e.poller.Watch(key, d.IsMaterialized, func() {
		e.queue.Do(func() {
			e.materialized(member, sub, d)
		})
	})
	if ready {
		cancel()
		return true
	}
	sub.cancel = cancel
	e.bind(member, sub)
	return false
}

// materialized re-enters the property-change pipeline for a watched member.
func (e *Engine) materialized(member *tree.Node, sub *subscription, d ports.Deferred) {
	if sub.revoked.Load() || e.closed.Load() {
		return
	}
	e.revokeAttr(member, domain.AttrDeferred, domain.EventWatchDone)

	if err := e.refresh(member, d.Materialize()); err != nil {
		e.anomaly(slog.LevelError, member, err)
	}
	var owner any
	if parent := member.Parent(); parent != nil {
		owner, _ = shadow.Instance(parent)
	}
	e.notifyProperty(owner, member, shadow.Name(member))
}

// handlePropertyChanged refreshes the member named by args and forwards the
// change. Events for properties n does not mirror were bubbled from deeper
// objects and are ignored.
func (e *Engine) handlePropertyChanged(n *tree.Node, sender any, args domain.PropertyChangedArgs) {
	child := shadow.Member(n, args.PropertyName)
	if child == nil {
		return
	}

	p, _ := shadow.Property(child)
	if !probe.IsTerminalType(p.Type) {
		owner, _ := shadow.Instance(n)
		var value any
		ready, err := probe.Materialized(owner, p)
		if err != nil {
			e.anomaly(slog.LevelError, child, err)
		} else if ready {
			value = p.Value(owner)
		}
		if err := e.refresh(child, value); err != nil {
			e.anomaly(slog.LevelError, child, err)
		}
	}

	e.notifyProperty(sender, child, args.PropertyName)
}

func (e *Engine) notifyProperty(sender any, child *tree.Node, property string) {
	cb, ok := shadow.Callbacks(child)
	if !ok || cb.OnPropertyChanged == nil {
		return
	}
	cb.OnPropertyChanged(sender, domain.PropertyChangedEvent{PropertyName: property, Context: child})
	if e.hooks.OnNotify != nil {
		e.hooks.OnNotify(e.ctx, &domain.NotifyEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventNotify},
			Kind:      domain.PropertySubscription,
			Property:  property,
			Node:      child,
		})
	}
}

// handleCollectionChanged applies a collection mutation to the instance slots
// of n and forwards it.
func (e *Engine) handleCollectionChanged(n *tree.Node, sender any, args domain.CollectionChangedArgs) {
	switch args.Action {
	case domain.ActionAdd:
		e.insertItems(n, args.NewIndex, args.NewItems)
	case domain.ActionRemove:
		e.removeItems(n, args.OldIndex, args.OldItems)
	case domain.ActionReplace:
		e.removeItems(n, args.OldIndex, args.OldItems)
		e.insertItems(n, args.NewIndex, args.NewItems)
	case domain.ActionMove:
		e.moveItem(n, args.OldIndex, args.NewIndex)
	case domain.ActionReset:
		for _, c := range n.Elements(domain.ElementModel) {
			c.Remove()
		}
		if instance, ok := shadow.Instance(n); ok {
			if items, ok := probe.Elements(instance); ok {
				e.insertItems(n, -1, items)
			}
		}
	}

	cb, ok := shadow.Callbacks(n)
	if !ok || cb.OnCollectionChanged == nil {
		return
	}
	cb.OnCollectionChanged(sender, domain.CollectionChangedEvent{CollectionChangedArgs: args, Context: n})
	if e.hooks.OnNotify != nil {
		e.hooks.OnNotify(e.ctx, &domain.NotifyEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventNotify},
			Kind:      domain.CollectionSubscription,
			Node:      n,
		})
	}
}

// insertItems places one instance slot per item at its true position, after
// the member children. Items without a valid index are appended.
func (e *Engine) insertItems(n *tree.Node, index int, items []any) {
	members := len(n.Elements(domain.ElementMember))
	for i, item := range items {
		child, err := e.element(item)
		if err != nil {
			e.anomaly(slog.LevelError, n, err)
			continue
		}
		elems := len(n.Elements(domain.ElementModel))
		if index < 0 || index+i > elems {
			n.Add(child)
			continue
		}
		n.Insert(members+index+i, child)
	}
}

// removeItems removes the instance slot bound to each item, falling back to
// the reported index for items with no identity.
func (e *Engine) removeItems(n *tree.Node, index int, items []any) {
	for _, item := range items {
		elems := n.Elements(domain.ElementModel)
		var target *tree.Node
		for _, c := range elems {
			if instance, ok := shadow.Instance(c); ok && probe.Same(instance, item) {
				target = c
				break
			}
		}
		if target == nil && index >= 0 && index < len(elems) {
			target = elems[index]
		}
		if target == nil {
			e.anomaly(slog.LevelWarn, n, domain.ErrUnknownCollectionItem)
			continue
		}
		target.Remove()
	}
}

func (e *Engine) moveItem(n *tree.Node, from, to int) {
	elems := n.Elements(domain.ElementModel)
	if from < 0 || from >= len(elems) || to < 0 || to >= len(elems) {
		e.anomaly(slog.LevelWarn, n, domain.ErrUnknownCollectionItem)
		return
	}
	members := len(n.Elements(domain.ElementMember))
	elems[from].MoveTo(members + to)
}
