package domain

import (
	"context"
	"reflect"
)

// Event is any value submitted to a machine. Rules declare the Go type of
// the events they match; matching is polymorphic over the event's runtime
// type (a rule declared on an interface type matches every implementation).
type Event any

// Outcome is the tagged result of a rule body: either a transition to a new
// state value (Goto) or an explicit "no match" (NoMatch). A tagged result is
// used instead of a nilable return so that "no transition" is never confused
// with a transition to a state carrying a nil payload.
type Outcome struct {
	matched bool
	value   Value
}

// Goto produces a matched outcome carrying the next state value.
func Goto(next Value) Outcome {
	return Outcome{matched: true, value: next}
}

// NoMatch produces the outcome signalling that the rule did not apply and
// the next candidate should be tried.
func NoMatch() Outcome {
	return Outcome{}
}

// Matched unpacks the outcome. The returned value is only meaningful when
// ok is true.
func (o Outcome) Matched() (next Value, ok bool) {
	return o.value, o.matched
}

// RuleFunc is the body of a transition rule. It receives the triggering
// event and the machine's current state and resolves to an Outcome. The body
// may block (for example on I/O or on the context) before resolving; the
// evaluator waits for it and never runs two bodies concurrently.
type RuleFunc func(ctx context.Context, ev Event, current Value) (Outcome, error)

// Rule is a transition rule owned by exactly one declaring state type.
// Rules keep their registration order; the order is significant.
type Rule struct {
	// EventType is the declared Go type this rule matches.
	EventType reflect.Type

	// Apply is the rule body.
	Apply RuleFunc
}

// Matches reports whether the event's runtime type satisfies the rule's
// declared event type, either exactly or through interface assignability.
func (r Rule) Matches(ev Event) bool {
	if ev == nil || r.EventType == nil {
		return false
	}
	return reflect.TypeOf(ev).AssignableTo(r.EventType)
}

// EventTypeOf resolves the reflect.Type for a type parameter, preserving
// interface types (reflect.TypeOf on an interface value would yield the
// dynamic type instead).
func EventTypeOf[E Event]() reflect.Type {
	return reflect.TypeOf((*E)(nil)).Elem()
}
