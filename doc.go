/*
Package strata is a hierarchical, event-driven state-machine runtime.

Given a tree of declared states, a set of guarded transition rules per state
and lifecycle side-effect hooks, a machine consumes a sequential stream of
events and deterministically computes the next state, invoking side effects
in a well-defined order.

# Concept

States form an explicit tree: a nested ("inner") state inherits the
transition rules of its ancestors and shadows them naturally, since its own
rules are tried first. A state value is a declared state type plus an opaque
payload compared by value; two values with the same type and equal payloads
are indistinguishable to observers.

Rules are matched polymorphically against the runtime type of the incoming
event and evaluated strictly sequentially: the first rule resolving to a new
state wins. Lifecycle hooks (enter, change, exit) fire in ancestry order and
are never awaited by the engine.

# Usage

	machine, err := strata.New(func(b *strata.Builder) {
		b.Declare("Idle", func(s *strata.StateConfig) {
			strata.On(s, func(ctx context.Context, ev StartPressed, cur domain.Value) (domain.Outcome, error) {
				return domain.Goto(domain.NewValue("Running", 0)), nil
			})
		})
		b.Declare("Running", func(s *strata.StateConfig) {
			s.OnEnter(func(ctx context.Context, state domain.Value) error {
				log.Println("running", state.Payload)
				return nil
			})
		})
	})
	if err != nil {
		log.Fatal(err)
	}

	if err := machine.Start(ctx, domain.NewValue("Idle", nil)); err != nil {
		log.Fatal(err)
	}
	machine.Submit(StartPressed{})

Construction is the only time declaration may happen; once a machine exists
its registry is immutable. Events are processed one at a time, in strict
arrival order, on a single worker per machine instance. Independent machine
instances share no mutable state and may run concurrently.
*/
package strata
