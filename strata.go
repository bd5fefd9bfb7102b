package strata

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/stratafsm/strata/internal/logging"
	"github.com/stratafsm/strata/internal/runtime"
	"github.com/stratafsm/strata/pkg/domain"
	"github.com/stratafsm/strata/pkg/ports"
)

// Version is the library version, reported by the CLI.
const Version = "0.1.0"

// Option defines a functional option for configuring a Machine.
type Option func(*config)

type config struct {
	logger      *slog.Logger
	observer    ports.ObserverSink
	diagnostics ports.DiagnosticSink
	metrics     ports.Metrics
	queueSize   int
}

// WithLogger sets the machine's logger. Defaults to a no-op logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithObserver sets the sink receiving each committed state, in commit order.
func WithObserver(sink ports.ObserverSink) Option {
	return func(c *config) {
		c.observer = sink
	}
}

// WithDiagnostics sets the sink receiving hook failures and per-event errors
// from the asynchronous submit path. Defaults to logging at warn level.
func WithDiagnostics(sink ports.DiagnosticSink) Option {
	return func(c *config) {
		c.diagnostics = sink
	}
}

// WithMetrics plugs in an instrumentation implementation, for example
// observability.NewMetrics.
func WithMetrics(m ports.Metrics) Option {
	return func(c *config) {
		c.metrics = m
	}
}

// WithQueueSize sets the event queue buffer size.
func WithQueueSize(n int) Option {
	return func(c *config) {
		c.queueSize = n
	}
}

// Builder declares the state tree during machine construction.
type Builder struct {
	reg *runtime.Registry
	err error
}

// Declare adds a root-level state type and runs its configuration callback.
// Declaration errors (duplicate states, unknown parents) are collected and
// surfaced by New; the first error wins and construction fails.
func (b *Builder) Declare(id domain.StateID, configure func(*StateConfig)) {
	b.declare(id, "", configure)
}

func (b *Builder) declare(id, parent domain.StateID, configure func(*StateConfig)) {
	if b.err != nil {
		return
	}
	node, err := b.reg.Declare(id, parent)
	if err != nil {
		b.err = err
		return
	}
	if configure != nil {
		configure(&StateConfig{builder: b, node: node})
	}
}

// StateConfig configures one declared state type: its transition rules, its
// lifecycle hooks and its child states.
type StateConfig struct {
	builder *Builder
	node    *runtime.Node
}

// ID returns the state type being configured.
func (s *StateConfig) ID() domain.StateID { return s.node.ID() }

// Declare adds a child state under this one. Parents are always declared
// before their children, so the tree is built depth-first and can never
// contain a cycle.
func (s *StateConfig) Declare(id domain.StateID, configure func(*StateConfig)) {
	s.builder.declare(id, s.node.ID(), configure)
}

// OnEvent registers an untyped transition rule matching the given event
// type. Most callers should prefer the typed On helper; OnEvent exists for
// dynamically built machines (e.g. charts) where the event type is not
// known at compile time.
func (s *StateConfig) OnEvent(eventType reflect.Type, body domain.RuleFunc) {
	s.node.AddRule(eventType, body)
}

// OnEnter registers an enter hook. Multiple hooks fire in registration order.
func (s *StateConfig) OnEnter(h domain.EnterHook) { s.node.OnEnter(h) }

// OnChange registers a change hook, fired when this state type is retained
// across a transition whose payload changed.
func (s *StateConfig) OnChange(h domain.ChangeHook) { s.node.OnChange(h) }

// OnExit registers an exit hook.
func (s *StateConfig) OnExit(h domain.ExitHook) { s.node.OnExit(h) }

// On registers a typed transition rule on a state. The rule matches events
// whose runtime type is assignable to E, so declaring an interface type
// matches every implementation. Returning domain.NoMatch passes the event
// to the next candidate rule.
func On[E domain.Event](s *StateConfig, body func(ctx context.Context, ev E, current domain.Value) (domain.Outcome, error)) {
	s.OnEvent(domain.EventTypeOf[E](), func(ctx context.Context, ev domain.Event, current domain.Value) (domain.Outcome, error) {
		typed, ok := ev.(E)
		if !ok {
			return domain.NoMatch(), nil
		}
		return body(ctx, typed, current)
	})
}

// Machine is a runnable state-machine instance. Construction happens in New;
// after that the declared tree is immutable and only the event-processing
// protocol mutates the current state.
type Machine struct {
	ctrl *runtime.Controller
}

// New builds a machine from a declaration callback. Declaration is
// construction-time only: the callback runs exactly once, and any
// DuplicateStateError or UnknownParentError raised inside it is fatal.
func New(declare func(*Builder), opts ...Option) (*Machine, error) {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = logging.NewNop()
	}

	b := &Builder{reg: runtime.NewRegistry()}
	if declare != nil {
		declare(b)
	}
	if b.err != nil {
		return nil, fmt.Errorf("invalid declaration: %w", b.err)
	}
	if b.reg.Len() == 0 {
		return nil, fmt.Errorf("no states declared")
	}

	ctrl := runtime.NewController(b.reg, runtime.Config{
		Logger:      cfg.logger,
		Observer:    cfg.observer,
		Diagnostics: cfg.diagnostics,
		Metrics:     cfg.metrics,
		QueueSize:   cfg.queueSize,
	})

	return &Machine{ctrl: ctrl}, nil
}

// Start commits the caller-supplied initial state, fires its entry sequence
// (every ancestry level, root-most first) and begins accepting events.
// It fails with InvalidStateError if the initial type was never declared.
func (m *Machine) Start(ctx context.Context, initial domain.Value) error {
	return m.ctrl.Start(ctx, initial)
}

// Submit enqueues an event for asynchronous processing. Events are processed
// one at a time, in strict arrival order; per-event failures are routed to
// the diagnostic sink.
func (m *Machine) Submit(ev domain.Event) {
	m.ctrl.Submit(ev)
}

// SubmitSync enqueues an event and waits for it to be fully resolved,
// returning its per-event error (RuleError, InvalidStateError, or nil).
func (m *Machine) SubmitSync(ctx context.Context, ev domain.Event) error {
	return m.ctrl.SubmitSync(ctx, ev)
}

// Current returns the machine's current state value.
func (m *Machine) Current() domain.Value {
	return m.ctrl.Current()
}

// Attach subscribes the machine to an event source; delivered events flow
// through the same ordered queue as Submit. The subscription is released
// when the machine stops.
func (m *Machine) Attach(source ports.EventSource) error {
	return m.ctrl.Attach(source)
}

// Stop releases the event-source subscriptions and stops accepting events.
// An in-flight rule body observes cancellation through its context; the
// engine does not force-kill it.
func (m *Machine) Stop() error {
	return m.ctrl.Stop()
}
