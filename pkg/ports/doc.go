/*
Package ports defines the capabilities an observed object graph may expose to
the arbor engine.

None of them is mandatory: an object that implements nothing is still mirrored,
it simply never reports changes.

# Key Interfaces

  - PropertyNotifier: announces property changes by name.
  - CollectionNotifier: announces collection membership changes.
  - Collection: exposes ordered elements to be mirrored as children.
  - Deferred: a lazily computed slot that can be watched without being forced.
  - PropertyLister: an explicit property table, used instead of struct reflection.

The package also ships contract suites (RunPropertyNotifierContract,
RunCollectionNotifierContract) that implementations can run from their tests.
*/
package ports
