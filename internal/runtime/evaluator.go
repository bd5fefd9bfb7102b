package runtime

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/stratafsm/strata/pkg/domain"
)

// eventName renders an event's dynamic type for log lines.
func eventName(ev domain.Event) string {
	return fmt.Sprintf("%T", ev)
}

// Result is the resolved outcome of one evaluation pass.
// When Changed is false the machine's state is left untouched: either no
// candidate matched anywhere in the ancestry chain, or a candidate resolved
// to a value equal to the current one.
type Result struct {
	Changed bool
	Next    domain.Value
}

// Evaluator performs the sequential candidate search over the rules visible
// from the current state's type.
type Evaluator struct {
	reg    *Registry
	logger *slog.Logger
}

// NewEvaluator creates an evaluator over a frozen registry.
func NewEvaluator(reg *Registry, logger *slog.Logger) *Evaluator {
	return &Evaluator{reg: reg, logger: logger}
}

// Evaluate tries the candidate rules in order: the concrete state's own
// rules first, then each ancestor's, registration order within a level.
// Each body is awaited before the next candidate is tried; two bodies never
// run concurrently. The first Matched outcome short-circuits the search.
func (e *Evaluator) Evaluate(ctx context.Context, current domain.Value, ev domain.Event) (Result, error) {
	for _, ref := range e.reg.RulesFor(current.Type) {
		if !ref.Rule.Matches(ev) {
			continue
		}

		out, err := ref.Rule.Apply(ctx, ev, current)
		if err != nil {
			return Result{}, &domain.RuleError{State: ref.Owner, Event: ev, Err: err}
		}

		next, ok := out.Matched()
		if !ok {
			continue
		}

		if next.Equal(current) {
			// A match occurred, so the search stops, but the resolved value
			// is indistinguishable from the current one: no commit, no hooks.
			e.logger.Debug("rule resolved to current value", "state", current.Type, "owner", ref.Owner, "event", eventName(ev))
			return Result{Changed: false, Next: current}, nil
		}

		e.logger.Debug("rule matched", "state", current.Type, "owner", ref.Owner, "event", eventName(ev), "next", next.Type)
		return Result{Changed: true, Next: next}, nil
	}

	e.logger.Debug("no rule matched", "state", current.Type, "event", eventName(ev))
	return Result{Changed: false, Next: current}, nil
}
