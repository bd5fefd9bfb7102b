package memory

import (
	"context"
	"sync"

	"github.com/stratafsm/strata/pkg/domain"
	"github.com/stratafsm/strata/pkg/ports"
)

var (
	_ ports.ObserverSink   = (*StateRecorder)(nil)
	_ ports.DiagnosticSink = (*DiagnosticRecorder)(nil)
)

// StateRecorder implements ports.ObserverSink by recording every committed
// state in order. Safe for concurrent use.
type StateRecorder struct {
	mu     sync.Mutex
	states []domain.Value
}

// NewStateRecorder creates an empty recorder.
func NewStateRecorder() *StateRecorder {
	return &StateRecorder{}
}

// Publish implements ports.ObserverSink.
func (r *StateRecorder) Publish(_ context.Context, state domain.Value) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, state)
	return nil
}

// States returns a copy of the recorded states, in commit order.
func (r *StateRecorder) States() []domain.Value {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Value, len(r.states))
	copy(out, r.states)
	return out
}

// Last returns the most recent committed state, if any.
func (r *StateRecorder) Last() (domain.Value, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.states) == 0 {
		return domain.Value{}, false
	}
	return r.states[len(r.states)-1], true
}

// DiagnosticRecorder implements ports.DiagnosticSink by collecting reported
// errors. Safe for concurrent use.
type DiagnosticRecorder struct {
	mu   sync.Mutex
	errs []error
}

// NewDiagnosticRecorder creates an empty recorder.
func NewDiagnosticRecorder() *DiagnosticRecorder {
	return &DiagnosticRecorder{}
}

// Report implements ports.DiagnosticSink.
func (r *DiagnosticRecorder) Report(_ context.Context, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

// Errors returns a copy of the reported errors, in report order.
func (r *DiagnosticRecorder) Errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]error, len(r.errs))
	copy(out, r.errs)
	return out
}
