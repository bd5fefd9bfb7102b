/*
Package ports defines the driven ports (interfaces) for the Strata engine.

These interfaces decouple the core from external implementations, allowing a
machine to consume events from and publish committed states to any host bus.

# Key Interfaces

  - EventSource: delivers events one at a time, in arrival order.
  - ObserverSink: receives the committed state after each processed event.
  - DiagnosticSink: receives errors the engine cannot propagate inline
    (hook failures, per-event errors on the asynchronous submit path).
  - Metrics: instrumentation hooks for event processing.
*/
package ports
