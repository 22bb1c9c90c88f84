/*
Package shadow gives typed access to the attributes the engine records on
shadow tree nodes: capability status, bound instance, property descriptor,
runtime type and the consumer callbacks held by the origin.

It also provides the navigation consumers use from inside a callback, such as
AncestorOf to reach the owning element of a changed field, Origin, Path/Find,
and the canonical Render/Shallow text forms.
*/
package shadow
