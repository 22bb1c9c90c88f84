/*
Package observability provides monitoring for the arbor engine.

Metrics turns the engine's diagnostic hooks into Prometheus collectors held on a
private registry: subscriptions attached and revoked, notifications forwarded,
refresh durations, anomalies, and the sizes of the pending-removal registry and
of the deferred-value poller. Handler exposes the registry over HTTP.
*/
package observability
