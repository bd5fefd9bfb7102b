package chart

import (
	"context"
	"fmt"

	"github.com/stratafsm/strata"
	"github.com/stratafsm/strata/pkg/domain"
)

// Machine validates the chart and builds a runnable machine from it.
// Transitions become rules matching Signal events by name; the first
// declared transition for a signal wins, own state before ancestors.
func (c *Chart) Machine(opts ...strata.Option) (*strata.Machine, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid chart: %w", err)
	}

	m, err := strata.New(func(b *strata.Builder) {
		for _, def := range c.States {
			declareState(b, nil, def)
		}
	}, opts...)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func declareState(b *strata.Builder, parent *strata.StateConfig, def StateDef) {
	configure := func(s *strata.StateConfig) {
		for _, t := range def.On {
			target := domain.NewValue(domain.StateID(t.To), t.Payload)
			name := t.Signal
			strata.On(s, func(_ context.Context, sig Signal, _ domain.Value) (domain.Outcome, error) {
				if sig.Name != name {
					return domain.NoMatch(), nil
				}
				return domain.Goto(target), nil
			})
		}
		for _, child := range def.Children {
			declareState(b, s, child)
		}
	}

	if parent == nil {
		b.Declare(domain.StateID(def.ID), configure)
		return
	}
	parent.Declare(domain.StateID(def.ID), configure)
}
