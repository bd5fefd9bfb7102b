// Package chart loads declarative machine definitions from YAML.
//
// A chart describes a state tree with literal, signal-driven transitions.
// It covers hosts whose topology is configuration rather than code; rules
// that need logic beyond "signal name X goes to state Y" are declared in Go
// through the strata.Builder instead.
package chart

import (
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/stratafsm/strata/pkg/domain"
)

// TransitionDef is one literal transition: when a Signal with the given
// name arrives, go to the target state carrying the payload literal.
type TransitionDef struct {
	Signal  string `mapstructure:"signal"`
	To      string `mapstructure:"to"`
	Payload any    `mapstructure:"payload"`
}

// StateDef is one node of the declared tree. Children are nested, so a
// chart is parsed depth-first and parents always exist before children.
type StateDef struct {
	ID       string          `mapstructure:"id"`
	On       []TransitionDef `mapstructure:"on"`
	Children []StateDef      `mapstructure:"states"`
}

// InitialDef names the machine's initial state value.
type InitialDef struct {
	State   string `mapstructure:"state"`
	Payload any    `mapstructure:"payload"`
}

// Chart is a parsed machine definition.
type Chart struct {
	Initial InitialDef `mapstructure:"initial"`
	States  []StateDef `mapstructure:"states"`
}

// Parse decodes a YAML document into a Chart. The document is first
// unmarshalled generically and then mapped onto the schema, so unknown keys
// are reported instead of silently dropped.
func Parse(data []byte) (*Chart, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse chart: %w", err)
	}

	var c Chart
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &c,
		ErrorUnused: true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("parse chart: %w", err)
	}
	return &c, nil
}

// Load reads and parses a chart file.
func Load(path string) (*Chart, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load chart: %w", err)
	}
	return Parse(data)
}

// InitialValue returns the chart's initial state value.
func (c *Chart) InitialValue() domain.Value {
	return domain.NewValue(domain.StateID(c.Initial.State), c.Initial.Payload)
}

// Validate checks the chart for structural problems: missing or duplicate
// ids, transitions targeting undeclared states, signals without a name, and
// an undeclared initial state.
func (c *Chart) Validate() error {
	declared := make(map[string]bool)

	var collect func(defs []StateDef) error
	collect = func(defs []StateDef) error {
		for _, def := range defs {
			if def.ID == "" {
				return fmt.Errorf("state with empty id")
			}
			if declared[def.ID] {
				return fmt.Errorf("state %q declared twice", def.ID)
			}
			declared[def.ID] = true
			if err := collect(def.Children); err != nil {
				return err
			}
		}
		return nil
	}
	if err := collect(c.States); err != nil {
		return err
	}

	if len(declared) == 0 {
		return fmt.Errorf("chart declares no states")
	}

	var check func(defs []StateDef) error
	check = func(defs []StateDef) error {
		for _, def := range defs {
			for _, t := range def.On {
				if t.Signal == "" {
					return fmt.Errorf("state %q has a transition without a signal name", def.ID)
				}
				if !declared[t.To] {
					return fmt.Errorf("state %q transitions to undeclared state %q on %q", def.ID, t.To, t.Signal)
				}
			}
			if err := check(def.Children); err != nil {
				return err
			}
		}
		return nil
	}
	if err := check(c.States); err != nil {
		return err
	}

	if c.Initial.State == "" {
		return fmt.Errorf("chart has no initial state")
	}
	if !declared[c.Initial.State] {
		return fmt.Errorf("initial state %q is not declared", c.Initial.State)
	}
	return nil
}
