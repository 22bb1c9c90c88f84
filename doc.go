/*
Package arbor mirrors a live object graph into a "shadow tree" and keeps the
mirror in sync as the graph mutates.

For every reachable value the shadow tree records whether and how it can report
changes. A consumer registers its callbacks once and then receives uniform
notifications from any depth of the graph, each carrying the shadow node of
the change, from which ancestors and the origin can be navigated.

# Concept

Observed objects opt in to change reporting through two capabilities defined in
pkg/ports: property change (PropertyNotifier) and collection change
(CollectionNotifier). The pkg/observable package provides embeddable
implementations. Values that implement neither are still mirrored, and values
of basic kinds are recorded as leaves.

	<model name="(Origin)Order" status="PropertyChangeSource" instance="[shop.Order]" onpc="[OnPC]" rootconfig="[RootConfig]">
	  <member name="Lines" status="CollectionChangeSource" property="[observable.Collection[*shop.Line]]" ...>
	    <model name="(Origin)Line" status="PropertyChangeSource" ...>

When a property changes only the affected member is rebuilt. When a collection
changes only the affected instance slots are added, removed or moved. When a
subtree leaves the tree every subscription it held is released exactly once.

# Markers

Struct fields are mirrored in declaration order. Two tags refine them:

	Secret string `arbor:"-"`             // never mirrored
	Cache  *Stats `arbor:"wait=HasCache"` // not read until HasCache() (or field HasCache) is true

Deferred values (ports.Deferred, e.g. observable.Lazy) are never forced: the
engine polls their materialized state and refreshes the slot once they are
realized.

# Usage

	order := shop.NewOrder()
	engine, err := arbor.Attach(order, func(sender any, e domain.PropertyChangedEvent) {
		fmt.Println("changed:", shadow.Path(e.Context))
	}, arbor.WithLogger(logging.New(slog.LevelDebug)))
	if err != nil {
		log.Fatal(err)
	}
	defer engine.Close()

	order.Lines.Get(0).Price.SetAmount(42) // changed: (Origin)Order/Lines/[0]/Price/Amount
*/
package arbor
