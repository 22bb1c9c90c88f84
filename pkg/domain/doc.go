/*
Package domain contains the vocabulary shared by the arbor engine, its adapters
and its consumers.

It defines the capability Status flags and attribute keys recorded on shadow
nodes, the change arguments raised by observed objects, the events delivered to
consumer callbacks, the diagnostic Hooks, and the sentinel errors. This package
holds no engine logic and performs no I/O.

# Key Types

  - Status: capability flags of a shadow node (PropertyChangeSource, WaitingForValue, ...).
  - PropertyChangedArgs / CollectionChangedArgs: what observed objects raise.
  - PropertyChangedEvent / CollectionChangedEvent / StructuralChangeEvent: what consumers receive.
  - Callbacks: the consumer configuration bound to the origin node.
  - Hooks: diagnostics for subscriptions, refreshes, notifications and anomalies.
*/
package domain
