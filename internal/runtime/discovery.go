package runtime

import (
	"fmt"
	"log/slog"
	"reflect"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/probe"
	"github.com/aretw0/arbor/pkg/shadow"
	"github.com/aretw0/arbor/pkg/tree"
)

// discover mirrors instance into node: capability status, subscriptions,
// one member per eligible property and one instance slot per element.
func (e *Engine) discover(instance any, node *tree.Node) error {
	if node.Parent() == nil {
		node.SetAttr(domain.AttrName, domain.OriginPrefix+probe.ShortTypeName(reflect.TypeOf(instance)))
	}

	if probe.IsTerminal(instance) {
		if p, ok := shadow.Property(node); ok {
			if rt := reflect.TypeOf(instance); rt != p.Type {
				node.SetAttr(domain.AttrRuntimeType, probe.TypeName(rt))
			}
		}
		shadow.SetStatus(node, domain.NoObservableMembers)
		return nil
	}

	if prev, ok := shadow.Instance(node); !ok || !probe.Same(prev, instance) {
		shadow.BindInstance(node, instance)
	}

	pn, isProperty := instance.(ports.PropertyNotifier)
	cn, isCollection := instance.(ports.CollectionNotifier)
	var status domain.Status
	if isProperty {
		status |= domain.PropertyChangeSource
	}
	if isCollection {
		status |= domain.CollectionChangeSource
	}
	if status == 0 {
		status = domain.NoChangeCapability
	}
	shadow.SetStatus(node, status)

	if isProperty {
		e.subscribeProperty(node, pn)
	}
	if isCollection {
		e.subscribeCollection(node, cn)
	}

	node.RemoveChildren()

	for _, p := range probe.Properties(instance) {
		member := tree.New(domain.ElementMember)
		member.SetAttr(domain.AttrName, p.Name)
		shadow.BindProperty(member, p)
		node.Add(member)
		if err := e.populate(instance, member, p); err != nil {
			return err
		}
	}

	if items, ok := probe.Elements(instance); ok {
		for _, item := range items {
			child, err := e.element(item)
			if err != nil {
				return err
			}
			node.Add(child)
		}
	}
	return nil
}

// populate fills a fresh member node from its owner, without invoking a
// guarded getter whose guard reports false.
func (e *Engine) populate(owner any, member *tree.Node, p probe.Property) error {
	ready, err := probe.Materialized(owner, p)
	if err != nil {
		e.logger.Error("Invalid materialization guard", "error", err, "node", shadow.Path(member))
		return fmt.Errorf("%s: %w", probe.TypeName(reflect.TypeOf(owner)), err)
	}
	if !ready {
		shadow.SetStatus(member, domain.WaitingForValue)
		return nil
	}
	return e.assign(owner, member, p, p.Value(owner))
}

// assign mirrors value into a member node that has no status yet.
func (e *Engine) assign(owner any, member *tree.Node, p probe.Property, value any) error {
	if probe.IsAbsent(value) {
		if !p.Guarded() && probe.DeclaresChangeSource(p.Type) && !probe.IsPropertySource(owner) {
			return fmt.Errorf("%s.%s: %w", probe.TypeName(reflect.TypeOf(owner)), p.Name, domain.ErrUnreachableInvalidation)
		}
		shadow.SetStatus(member, domain.WaitingForValue)
		return nil
	}

	if d, ok := probe.AsDeferred(value); ok {
		if !e.watch(member, d) {
			shadow.SetStatus(member, domain.WaitingForValue)
			return nil
		}
		value = d.Materialize()
		if probe.IsAbsent(value) {
			shadow.SetStatus(member, domain.WaitingForValue)
			return nil
		}
	}
	return e.discover(value, member)
}

// element discovers one collection item into a detached instance slot.
func (e *Engine) element(item any) (*tree.Node, error) {
	child := tree.New(domain.ElementModel)
	if probe.IsAbsent(item) {
		shadow.SetStatus(child, domain.WaitingForValue)
		return child, nil
	}
	if err := e.discover(item, child); err != nil {
		// A detached slot is not observed, so nothing else revokes it.
		e.revokeSubtree(child)
		return nil, err
	}
	return child, nil
}

// refresh rebuilds node for value. name and property are kept; everything
// else, including the subscriptions of node and its descendants, is replaced.
func (e *Engine) refresh(node *tree.Node, value any) error {
	start := time.Now()

	if prev, ok := shadow.Instance(node); ok && !probe.IsAbsent(value) && probe.Same(prev, value) {
		e.anomaly(slog.LevelError, node, domain.ErrSameInstance)
	}

	e.revokeNode(node)
	node.RemoveChildren()
	for _, key := range []string{domain.AttrStatus, domain.AttrInstance, domain.AttrRuntimeType} {
		node.RemoveAttr(key)
	}

	var err error
	p, isMember := shadow.Property(node)
	switch {
	case isMember:
		var owner any
		if parent := node.Parent(); parent != nil {
			owner, _ = shadow.Instance(parent)
		}
		err = e.assign(owner, node, p, value)
	case probe.IsAbsent(value):
		shadow.SetStatus(node, domain.WaitingForValue)
	default:
		err = e.discover(value, node)
	}

	elapsed := time.Since(start)
	if e.hooks.OnRefresh != nil {
		e.hooks.OnRefresh(e.ctx, &domain.RefreshEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventRefresh},
			Duration:  elapsed,
			Node:      node,
		})
	}
	e.logger.Debug("Node refreshed", "node", shadow.Path(node), "status", shadow.Status(node), "duration", elapsed)
	return err
}
