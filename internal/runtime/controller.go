package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/stratafsm/strata/pkg/domain"
	"github.com/stratafsm/strata/pkg/ports"
)

// ErrNotStarted is returned when events are submitted before Start.
var ErrNotStarted = errors.New("machine not started")

// defaultQueueSize is the event queue buffer used when no size is configured.
const defaultQueueSize = 64

// submission is one queued event; done is nil on the fire-and-forget path.
type submission struct {
	event domain.Event
	done  chan error
}

// Config carries the controller's collaborators. Nil fields fall back to
// no-op implementations.
type Config struct {
	Logger      *slog.Logger
	Observer    ports.ObserverSink
	Diagnostics ports.DiagnosticSink
	Metrics     ports.Metrics
	QueueSize   int
}

// Controller owns the machine's current state and serializes event
// processing: at most one event is being evaluated at a time, in strict
// arrival order. The current-state cell is mutated only here, after a
// committed transition.
type Controller struct {
	reg      *Registry
	eval     *Evaluator
	disp     *Dispatcher
	logger   *slog.Logger
	observer ports.ObserverSink
	diag     ports.DiagnosticSink
	metrics  ports.Metrics

	events chan submission

	mu      sync.RWMutex
	current domain.Value
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewController wires the evaluator and dispatcher over a registry.
// The registry is frozen here; declaration is over once a controller exists.
func NewController(reg *Registry, cfg Config) *Controller {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Observer == nil {
		cfg.Observer = nopObserver{}
	}
	if cfg.Diagnostics == nil {
		cfg.Diagnostics = logDiagnostics{logger: cfg.Logger}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = nopMetrics{}
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}

	reg.Freeze()

	return &Controller{
		reg:      reg,
		eval:     NewEvaluator(reg, cfg.Logger),
		disp:     NewDispatcher(reg, cfg.Diagnostics, cfg.Metrics, cfg.Logger),
		logger:   cfg.Logger,
		observer: cfg.Observer,
		diag:     cfg.Diagnostics,
		metrics:  cfg.Metrics,
		events:   make(chan submission, cfg.QueueSize),
	}
}

// Start validates and commits the initial state, fires its entry sequence
// and begins accepting events. An undeclared initial type is fatal.
func (c *Controller) Start(ctx context.Context, initial domain.Value) error {
	if !c.reg.Declared(initial.Type) {
		return &domain.InvalidStateError{State: initial.Type}
	}

	c.mu.Lock()
	if c.ctx != nil {
		c.mu.Unlock()
		return errors.New("machine already started")
	}
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.current = initial
	runCtx := c.ctx
	c.mu.Unlock()

	c.logger.Debug("machine starting", "initial", initial.Type)
	c.disp.EnterInitial(runCtx, initial)
	c.publish(runCtx, initial)

	go c.loop(runCtx)
	return nil
}

// Stop releases the event loop and any attached sources. In-flight rule
// bodies observe cancellation through their context; the engine does not
// force-kill them.
func (c *Controller) Stop() error {
	c.mu.RLock()
	cancel := c.cancel
	c.mu.RUnlock()
	if cancel != nil {
		cancel()
	}
	return nil
}

// Current returns the machine's current state value.
func (c *Controller) Current() domain.Value {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Submit enqueues an event for asynchronous processing. Per-event failures
// (rule errors, undeclared result types) are routed to the diagnostic sink.
func (c *Controller) Submit(ev domain.Event) {
	ctx := c.runCtx()
	if ctx == nil {
		c.logger.Warn("event submitted before start, dropping", "event", eventName(ev))
		return
	}
	select {
	case c.events <- submission{event: ev}:
	case <-ctx.Done():
		c.logger.Warn("machine stopped, dropping event", "event", eventName(ev))
	}
}

// SubmitSync enqueues an event and waits for it to be fully resolved,
// returning its per-event error. Ordering relative to Submit is preserved:
// both paths share the same queue.
func (c *Controller) SubmitSync(ctx context.Context, ev domain.Event) error {
	runCtx := c.runCtx()
	if runCtx == nil {
		return ErrNotStarted
	}

	done := make(chan error, 1)
	select {
	case c.events <- submission{event: ev, done: done}:
	case <-runCtx.Done():
		return runCtx.Err()
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-done:
		return err
	case <-runCtx.Done():
		return runCtx.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Attach drains an event source into the queue until the machine stops or
// the source's channel closes.
func (c *Controller) Attach(source ports.EventSource) error {
	runCtx := c.runCtx()
	if runCtx == nil {
		return ErrNotStarted
	}

	ch, err := source.Events(runCtx)
	if err != nil {
		return fmt.Errorf("attach event source: %w", err)
	}

	go func() {
		for {
			select {
			case <-runCtx.Done():
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				c.Submit(ev)
			}
		}
	}()
	return nil
}

func (c *Controller) runCtx() context.Context {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ctx
}

// loop is the single worker: one event is fully resolved before the next
// begins.
func (c *Controller) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case sub := <-c.events:
			c.process(ctx, sub)
		}
	}
}

func (c *Controller) process(ctx context.Context, sub submission) {
	current := c.Current()

	began := time.Now()
	res, err := c.eval.Evaluate(ctx, current, sub.event)
	c.metrics.EvaluationObserved(time.Since(began))
	c.metrics.EventProcessed()

	if err != nil {
		c.metrics.RuleFailed()
		c.resolve(ctx, sub, err)
		return
	}

	if !res.Changed {
		c.resolve(ctx, sub, nil)
		return
	}

	if !c.reg.Declared(res.Next.Type) {
		c.resolve(ctx, sub, &domain.InvalidStateError{State: res.Next.Type})
		return
	}

	c.mu.Lock()
	c.current = res.Next
	c.mu.Unlock()

	c.logger.Debug("transition committed", "from", current.Type, "to", res.Next.Type, "event", eventName(sub.event))
	c.disp.Fire(ctx, current, res.Next)
	c.publish(ctx, res.Next)
	c.metrics.TransitionCommitted()
	c.resolve(ctx, sub, nil)
}

// resolve surfaces the per-event outcome: to the waiting caller on the sync
// path, to the diagnostic sink otherwise.
func (c *Controller) resolve(ctx context.Context, sub submission, err error) {
	if sub.done != nil {
		sub.done <- err
		return
	}
	if err != nil {
		c.diag.Report(ctx, err)
	}
}

func (c *Controller) publish(ctx context.Context, state domain.Value) {
	if err := c.observer.Publish(ctx, state); err != nil {
		c.diag.Report(ctx, fmt.Errorf("publish state %s: %w", state.Type, err))
	}
}

type nopObserver struct{}

func (nopObserver) Publish(context.Context, domain.Value) error { return nil }

type logDiagnostics struct {
	logger *slog.Logger
}

func (d logDiagnostics) Report(_ context.Context, err error) {
	d.logger.Warn("diagnostic", "error", err)
}

type nopMetrics struct{}

func (nopMetrics) EventProcessed()      {}
func (nopMetrics) TransitionCommitted() {}
func (nopMetrics) RuleFailed()          {}
func (nopMetrics) HookFailed()          {}

func (nopMetrics) EvaluationObserved(time.Duration) {}
