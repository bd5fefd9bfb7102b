package chart

import (
	"github.com/mitchellh/mapstructure"
)

// Signal is the wire-friendly event type used by chart-driven machines and
// the bus adapters: a name plus an open data map. Rules built from a chart
// match signals by name.
type Signal struct {
	Name string         `json:"name"`
	Data map[string]any `json:"data,omitempty"`
}

// Decode maps the signal's data onto a typed struct using mapstructure
// field tags.
func (s Signal) Decode(out any) error {
	return mapstructure.Decode(s.Data, out)
}
