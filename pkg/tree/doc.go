/*
Package tree provides the ordered, observable tree used as the shadow of an
object graph.

A Node has an element name, an ordered list of attributes (each optionally
bound to an arbitrary object), an ordered list of children and a parent
back-reference. Every structural change is raised in two phases, "changing"
then "changed", and delivered to listeners registered with Observe on the
changed node or any of its ancestors.

Removal is the interesting case: the pre-phase is delivered while the departing
node is still attached, the post-phase after its parent link has been cleared,
so listeners that need the former parent in the post-phase must remember it.
*/
package tree
