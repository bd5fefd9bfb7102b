// Package observability provides Prometheus instrumentation for machines.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/stratafsm/strata/pkg/ports"
)

var _ ports.Metrics = (*Metrics)(nil)

// Metrics implements ports.Metrics on Prometheus collectors. One Metrics
// value may be shared by several machine instances; all methods are safe
// for concurrent use.
type Metrics struct {
	events      prometheus.Counter
	transitions prometheus.Counter
	ruleErrors  prometheus.Counter
	hookErrors  prometheus.Counter
	evaluation  prometheus.Histogram
}

// NewMetrics creates and registers the collectors on the given registerer.
// Pass prometheus.DefaultRegisterer for the process default.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		events: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "strata_events_total",
			Help: "Events fully resolved by the machine.",
		}),
		transitions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "strata_transitions_total",
			Help: "State transitions committed.",
		}),
		ruleErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "strata_rule_errors_total",
			Help: "Rule bodies that failed during evaluation.",
		}),
		hookErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "strata_hook_errors_total",
			Help: "Lifecycle hooks that failed or panicked.",
		}),
		evaluation: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "strata_evaluate_duration_seconds",
			Help:    "Duration of one evaluation pass over the candidate rules.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(m.events, m.transitions, m.ruleErrors, m.hookErrors, m.evaluation)
	return m
}

// EventProcessed implements ports.Metrics.
func (m *Metrics) EventProcessed() { m.events.Inc() }

// TransitionCommitted implements ports.Metrics.
func (m *Metrics) TransitionCommitted() { m.transitions.Inc() }

// RuleFailed implements ports.Metrics.
func (m *Metrics) RuleFailed() { m.ruleErrors.Inc() }

// HookFailed implements ports.Metrics.
func (m *Metrics) HookFailed() { m.hookErrors.Inc() }

// EvaluationObserved implements ports.Metrics.
func (m *Metrics) EvaluationObserved(d time.Duration) {
	m.evaluation.Observe(d.Seconds())
}
