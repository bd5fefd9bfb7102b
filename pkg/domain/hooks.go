package domain

import "context"

// HookKind identifies the lifecycle moment a hook is bound to.
type HookKind string

const (
	HookEnter  HookKind = "enter"
	HookChange HookKind = "change"
	HookExit   HookKind = "exit"
)

// EnterHook fires after a state type is entered. It receives the committed
// state value.
type EnterHook func(ctx context.Context, state Value) error

// ChangeHook fires when a state type is retained across a transition but the
// payload changed. It receives the old and the committed new value.
type ChangeHook func(ctx context.Context, oldState, newState Value) error

// ExitHook fires when a state type is left. It receives the value that was
// current before the transition.
type ExitHook func(ctx context.Context, state Value) error
