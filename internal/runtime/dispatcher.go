package runtime

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/stratafsm/strata/pkg/domain"
	"github.com/stratafsm/strata/pkg/ports"
)

// invocation is one scheduled hook call.
type invocation struct {
	kind  domain.HookKind
	owner domain.StateID
	call  func(ctx context.Context) error
}

// Dispatcher computes the ordered set of exit/change/enter hooks for a
// committed transition and schedules them without awaiting completion.
//
// All hooks for one outcome run on a single goroutine in the documented
// order (exits leaf-first, then changes, then enters root-first); the engine
// itself never waits for them. A hook failure or panic is isolated per
// invocation, wrapped in HookError and routed to the diagnostic sink; it
// never blocks the commit or the other hooks.
type Dispatcher struct {
	reg     *Registry
	diag    ports.DiagnosticSink
	metrics ports.Metrics
	logger  *slog.Logger
}

// NewDispatcher creates a dispatcher over a frozen registry.
func NewDispatcher(reg *Registry, diag ports.DiagnosticSink, metrics ports.Metrics, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{reg: reg, diag: diag, metrics: metrics, logger: logger}
}

// EnterInitial fires the initial-entry sequence: every level of the initial
// state's ancestry is entered root-most first. No exit or change hooks fire.
func (d *Dispatcher) EnterInitial(ctx context.Context, initial domain.Value) {
	anc := d.reg.AncestryOf(initial.Type)

	var invs []invocation
	for i := len(anc) - 1; i >= 0; i-- {
		invs = d.appendEnter(invs, anc[i], initial)
	}
	d.schedule(ctx, invs)
}

// Fire diffs the two ancestries and schedules the resulting hooks.
// The caller guarantees old and new are genuinely different values.
func (d *Dispatcher) Fire(ctx context.Context, oldState, newState domain.Value) {
	oldAnc := d.reg.AncestryOf(oldState.Type)
	newAnc := d.reg.AncestryOf(newState.Type)

	oldSet := make(map[domain.StateID]bool, len(oldAnc))
	for _, id := range oldAnc {
		oldSet[id] = true
	}
	newSet := make(map[domain.StateID]bool, len(newAnc))
	for _, id := range newAnc {
		newSet[id] = true
	}

	var invs []invocation

	// Exit every old level not retained by the new state, leaf-most first.
	for _, id := range oldAnc {
		if newSet[id] {
			continue
		}
		invs = d.appendExit(invs, id, oldState)
	}

	// Same concrete type with a different payload: every ancestry level is
	// retained and observes the payload change, leaf-most first.
	if oldState.Type == newState.Type {
		for _, id := range oldAnc {
			invs = d.appendChange(invs, id, oldState, newState)
		}
	}

	// Enter every new level the old state was not already in, root-most
	// first (outer state entered before inner state).
	for i := len(newAnc) - 1; i >= 0; i-- {
		id := newAnc[i]
		if oldSet[id] {
			continue
		}
		invs = d.appendEnter(invs, id, newState)
	}

	d.schedule(ctx, invs)
}

func (d *Dispatcher) appendEnter(invs []invocation, id domain.StateID, state domain.Value) []invocation {
	for _, h := range d.reg.EnterHooks(id) {
		h := h
		invs = append(invs, invocation{kind: domain.HookEnter, owner: id, call: func(ctx context.Context) error {
			return h(ctx, state)
		}})
	}
	return invs
}

func (d *Dispatcher) appendExit(invs []invocation, id domain.StateID, state domain.Value) []invocation {
	for _, h := range d.reg.ExitHooks(id) {
		h := h
		invs = append(invs, invocation{kind: domain.HookExit, owner: id, call: func(ctx context.Context) error {
			return h(ctx, state)
		}})
	}
	return invs
}

func (d *Dispatcher) appendChange(invs []invocation, id domain.StateID, oldState, newState domain.Value) []invocation {
	for _, h := range d.reg.ChangeHooks(id) {
		h := h
		invs = append(invs, invocation{kind: domain.HookChange, owner: id, call: func(ctx context.Context) error {
			return h(ctx, oldState, newState)
		}})
	}
	return invs
}

// schedule hands the ordered invocations to a dispatch goroutine. By the
// time schedule returns, hook firing for this outcome is fully scheduled;
// execution proceeds independently of the event loop.
func (d *Dispatcher) schedule(ctx context.Context, invs []invocation) {
	if len(invs) == 0 {
		return
	}
	go func() {
		for _, inv := range invs {
			d.invoke(ctx, inv)
		}
	}()
}

// invoke runs one hook, converting an error or panic into a HookError on
// the diagnostic sink.
func (d *Dispatcher) invoke(ctx context.Context, inv invocation) {
	defer func() {
		if rec := recover(); rec != nil {
			d.report(ctx, inv, fmt.Errorf("panic: %v", rec))
		}
	}()

	if err := inv.call(ctx); err != nil {
		d.report(ctx, inv, err)
	}
}

func (d *Dispatcher) report(ctx context.Context, inv invocation, err error) {
	hookErr := &domain.HookError{Kind: inv.kind, State: inv.owner, Err: err}
	d.logger.Warn("hook failed", "kind", inv.kind, "state", inv.owner, "error", err)
	d.metrics.HookFailed()
	d.diag.Report(ctx, hookErr)
}
