package ports

import (
	"context"
	"time"

	"github.com/stratafsm/strata/pkg/domain"
)

// EventSource delivers events to a machine in arrival order. The returned
// channel is closed when the source is exhausted or the context is done.
type EventSource interface {
	Events(ctx context.Context) (<-chan domain.Event, error)
}

// ObserverSink receives the committed state once per commit, in commit
// order. A publish error does not affect the commit; the engine routes it to
// the diagnostic sink.
type ObserverSink interface {
	Publish(ctx context.Context, state domain.Value) error
}

// DiagnosticSink receives errors raised outside a synchronous call path:
// hook failures, and per-event errors from the fire-and-forget submit.
type DiagnosticSink interface {
	Report(ctx context.Context, err error)
}

// Metrics receives instrumentation callbacks from the engine. All methods
// must be safe for concurrent use.
type Metrics interface {
	// EventProcessed fires after an event is fully resolved.
	EventProcessed()
	// TransitionCommitted fires after a new state value is committed.
	TransitionCommitted()
	// RuleFailed fires when a rule body returns an error.
	RuleFailed()
	// HookFailed fires when a lifecycle hook fails or panics.
	HookFailed()
	// EvaluationObserved records the duration of one evaluation pass.
	EvaluationObserved(d time.Duration)
}
