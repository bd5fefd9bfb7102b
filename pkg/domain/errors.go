package domain

import "fmt"

// DuplicateStateError reports a state type declared more than once.
// Declaration errors are fatal to machine construction.
type DuplicateStateError struct {
	State StateID
}

func (e *DuplicateStateError) Error() string {
	return fmt.Sprintf("state %q already declared", e.State)
}

// UnknownParentError reports a child declared under a parent that was not
// declared first. Declaration is a depth-first tree-building operation:
// parents must exist before their children.
type UnknownParentError struct {
	State  StateID
	Parent StateID
}

func (e *UnknownParentError) Error() string {
	return fmt.Sprintf("state %q references undeclared parent %q", e.State, e.Parent)
}

// InvalidStateError reports a state value whose type was never declared.
// Raised when committing a rule result with an undeclared type, or when
// starting a machine with an undeclared initial state.
type InvalidStateError struct {
	State StateID
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("state %q is not declared", e.State)
}

// RuleError reports a rule body that failed internally. The event it was
// processing caused no transition; the machine stays live.
type RuleError struct {
	State StateID
	Event Event
	Err   error
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("rule on state %q failed for event %T: %v", e.State, e.Event, e.Err)
}

func (e *RuleError) Unwrap() error { return e.Err }

// HookError reports a lifecycle hook that failed or panicked. Hooks are
// fire-and-forget, so the failure never blocks or reverts a commit; it is
// routed to the machine's diagnostic sink instead.
type HookError struct {
	Kind  HookKind
	State StateID
	Err   error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("%s hook on state %q failed: %v", e.Kind, e.State, e.Err)
}

func (e *HookError) Unwrap() error { return e.Err }
