package domain

import (
	"fmt"
	"reflect"
)

// StateID is the stable identity of a declared state type. It is used for
// declaration lookup, ancestry walks and hook matching.
type StateID string

// Value is a concrete state instance: a declared state type plus its payload.
// The payload is opaque to the engine and compared by value equality only.
type Value struct {
	Type    StateID
	Payload any
}

// NewValue builds a state value for the given type and payload.
func NewValue(id StateID, payload any) Value {
	return Value{Type: id, Payload: payload}
}

// Equal reports whether two state values are the same: type identity matches
// and payloads compare equal by value.
func (v Value) Equal(other Value) bool {
	return v.Type == other.Type && reflect.DeepEqual(v.Payload, other.Payload)
}

// IsZero reports whether the value is the zero Value (no declared type).
func (v Value) IsZero() bool {
	return v.Type == "" && v.Payload == nil
}

func (v Value) String() string {
	if v.Payload == nil {
		return string(v.Type)
	}
	return fmt.Sprintf("%s(%v)", v.Type, v.Payload)
}
