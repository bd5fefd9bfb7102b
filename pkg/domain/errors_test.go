package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessages(t *testing.T) {
	assert.EqualError(t, &DuplicateStateError{State: "Idle"}, `state "Idle" already declared`)
	assert.EqualError(t, &UnknownParentError{State: "Running", Parent: "Started"}, `state "Running" references undeclared parent "Started"`)
	assert.EqualError(t, &InvalidStateError{State: "Ghost"}, `state "Ghost" is not declared`)
}

func TestRuleErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := &RuleError{State: "Idle", Event: struct{}{}, Err: cause}
	assert.ErrorIs(t, err, cause)

	var ruleErr *RuleError
	assert.True(t, errors.As(fmt.Errorf("processing: %w", err), &ruleErr))
	assert.Equal(t, StateID("Idle"), ruleErr.State)
}

func TestHookErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := &HookError{Kind: HookEnter, State: "Running", Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "enter hook")
	assert.Contains(t, err.Error(), "Running")
}
