package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type startPressed struct{}

type tick struct{ n int }

type command interface{ isCommand() }

type pauseCommand struct{}

func (pauseCommand) isCommand() {}

func TestRuleMatches(t *testing.T) {
	t.Run("exact type", func(t *testing.T) {
		r := Rule{EventType: EventTypeOf[startPressed]()}
		assert.True(t, r.Matches(startPressed{}))
		assert.False(t, r.Matches(tick{n: 1}))
	})

	t.Run("interface supertype", func(t *testing.T) {
		r := Rule{EventType: EventTypeOf[command]()}
		assert.True(t, r.Matches(pauseCommand{}))
		assert.False(t, r.Matches(startPressed{}))
	})

	t.Run("nil event never matches", func(t *testing.T) {
		r := Rule{EventType: EventTypeOf[startPressed]()}
		assert.False(t, r.Matches(nil))
	})
}

func TestOutcome(t *testing.T) {
	t.Run("goto carries the value", func(t *testing.T) {
		next, ok := Goto(NewValue("Running", 0)).Matched()
		assert.True(t, ok)
		assert.Equal(t, NewValue("Running", 0), next)
	})

	t.Run("no match is not confused with nil payload", func(t *testing.T) {
		_, ok := NoMatch().Matched()
		assert.False(t, ok)

		next, ok := Goto(NewValue("Running", nil)).Matched()
		assert.True(t, ok)
		assert.Nil(t, next.Payload)
	})
}

func TestEventTypeOfPreservesInterfaces(t *testing.T) {
	typ := EventTypeOf[command]()
	assert.Equal(t, "command", typ.Name())
	assert.True(t, typ.Kind().String() == "interface")
}
