package runtime

import (
	"log/slog"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/shadow"
	"github.com/aretw0/arbor/pkg/tree"
)

// onTreeEvent observes the origin. Node removals drive teardown: the
// pre-phase records the parent and revokes the departing subtree while its
// links are intact; the post-phase recovers the parent and sweeps leftovers.
// Every event is forwarded to the structural-change callback.
func (e *Engine) onTreeEvent(ev tree.Event) {
	n, isNode := ev.Node()
	if !isNode || ev.Kind != tree.Remove {
		e.forward(ev, nil)
		return
	}

	if ev.Pre {
		e.forward(ev, nil)
		e.pending.record(n, n.Parent())
		e.revokeSubtree(n)
		return
	}

	parent, ok := e.pending.resolve(n)
	if !ok {
		e.anomaly(slog.LevelWarn, n, domain.ErrMissedRemovalPhase)
	}
	e.revokeSubtree(n)
	e.forward(ev, parent)
}

func (e *Engine) forward(ev tree.Event, formerParent *tree.Node) {
	if e.callbacks.OnStructuralChange == nil {
		return
	}
	e.callbacks.OnStructuralChange(e.origin, domain.StructuralChangeEvent{
		Kind:         ev.Kind,
		IsChanging:   ev.Pre,
		Subject:      ev.Subject,
		FormerParent: formerParent,
	})
}

// revokeSubtree revokes every token of n and its descendants, outer first.
func (e *Engine) revokeSubtree(n *tree.Node) {
	for _, d := range n.DescendantsAndSelf() {
		e.revokeNode(d)
	}
}

func (e *Engine) revokeNode(n *tree.Node) {
	for _, key := range domain.HandleAttrs {
		e.revokeAttr(n, key, domain.EventUnsubscribe)
	}
}

// revokeAttr removes the token stored under key and cancels it. Each token
// is reported exactly once.
func (e *Engine) revokeAttr(n *tree.Node, key string, typ domain.EventType) bool {
	sub, ok := subscriptionAt(n, key)
	if !ok {
		return false
	}
	n.RemoveAttr(key)
	if !sub.revoke() {
		return false
	}

	e.logger.Debug("Unsubscribed", "kind", sub.kind, "handle", sub.id, "node", shadow.Path(n))
	if e.hooks.OnUnsubscribe != nil {
		e.hooks.OnUnsubscribe(e.ctx, &domain.SubscriptionEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: typ},
			Handle:    sub.id.String(),
			Kind:      sub.kind,
			Node:      n,
			Instance:  sub.instance,
		})
	}
	return true
}
