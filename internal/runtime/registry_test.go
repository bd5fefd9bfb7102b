package runtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratafsm/strata/pkg/domain"
)

func noopRule(ctx context.Context, ev domain.Event, cur domain.Value) (domain.Outcome, error) {
	return domain.NoMatch(), nil
}

type someEvent struct{}

func TestRegistryDeclare(t *testing.T) {
	t.Run("duplicate state", func(t *testing.T) {
		reg := NewRegistry()
		_, err := reg.Declare("Idle", "")
		require.NoError(t, err)

		_, err = reg.Declare("Idle", "")
		var dup *domain.DuplicateStateError
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, domain.StateID("Idle"), dup.State)
	})

	t.Run("unknown parent", func(t *testing.T) {
		reg := NewRegistry()
		_, err := reg.Declare("Running", "Started")
		var unknown *domain.UnknownParentError
		require.ErrorAs(t, err, &unknown)
		assert.Equal(t, domain.StateID("Started"), unknown.Parent)
	})

	t.Run("parent declared first succeeds", func(t *testing.T) {
		reg := NewRegistry()
		_, err := reg.Declare("Started", "")
		require.NoError(t, err)
		_, err = reg.Declare("Running", "Started")
		require.NoError(t, err)
		assert.True(t, reg.Declared("Running"))
		assert.False(t, reg.Declared("Paused"))
	})
}

func TestRegistryAncestryOf(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Declare("Root", "")
	require.NoError(t, err)
	_, err = reg.Declare("Mid", "Root")
	require.NoError(t, err)
	_, err = reg.Declare("Leaf", "Mid")
	require.NoError(t, err)
	reg.Freeze()

	assert.Equal(t, []domain.StateID{"Leaf", "Mid", "Root"}, reg.AncestryOf("Leaf"))
	assert.Equal(t, []domain.StateID{"Root"}, reg.AncestryOf("Root"))
	assert.Nil(t, reg.AncestryOf("Ghost"))
}

func TestRegistryRulesFor(t *testing.T) {
	reg := NewRegistry()
	root, err := reg.Declare("Root", "")
	require.NoError(t, err)
	leaf, err := reg.Declare("Leaf", "Root")
	require.NoError(t, err)

	eventType := domain.EventTypeOf[someEvent]()
	root.AddRule(eventType, noopRule)
	leaf.AddRule(eventType, noopRule)
	leaf.AddRule(eventType, noopRule)
	reg.Freeze()

	refs := reg.RulesFor("Leaf")
	require.Len(t, refs, 3)
	// Own rules first in registration order, ancestors after.
	assert.Equal(t, domain.StateID("Leaf"), refs[0].Owner)
	assert.Equal(t, domain.StateID("Leaf"), refs[1].Owner)
	assert.Equal(t, domain.StateID("Root"), refs[2].Owner)

	rootRefs := reg.RulesFor("Root")
	require.Len(t, rootRefs, 1)
	assert.Equal(t, domain.StateID("Root"), rootRefs[0].Owner)
}

func TestRegistryHookAccessors(t *testing.T) {
	reg := NewRegistry()
	n, err := reg.Declare("Idle", "")
	require.NoError(t, err)

	n.OnEnter(func(ctx context.Context, state domain.Value) error { return nil })
	n.OnEnter(func(ctx context.Context, state domain.Value) error { return nil })
	n.OnExit(func(ctx context.Context, state domain.Value) error { return nil })
	reg.Freeze()

	assert.Len(t, reg.EnterHooks("Idle"), 2)
	assert.Len(t, reg.ExitHooks("Idle"), 1)
	assert.Empty(t, reg.ChangeHooks("Idle"))
	assert.Empty(t, reg.EnterHooks("Ghost"))
}

func TestRegistryDeclareAfterFreeze(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Declare("Idle", "")
	require.NoError(t, err)
	reg.Freeze()

	_, err = reg.Declare("Late", "")
	assert.Error(t, err)
}
