// Package runtime implements the discovery and synchronization engine.
//
// An Engine walks an object graph into a shadow tree (see pkg/tree and
// pkg/shadow), subscribes to every instance that can announce changes, and
// keeps the tree in sync: property changes refresh only the affected member,
// collection changes add, remove or move instance slots, and removed subtrees
// release their subscriptions exactly once. Deferred values are watched by a
// Poller without being evaluated.
//
// Every mutation runs on a per-engine dispatch queue, so a callback may
// change the graph again without corrupting the tree.
package runtime
