package runtime

import (
	"reflect"

	"github.com/stratafsm/strata/pkg/domain"
)

// Node is a declared state type in the registry tree. It owns the rules and
// hooks registered on that type, in registration order.
type Node struct {
	id     domain.StateID
	parent *Node

	rules  []domain.Rule
	enter  []domain.EnterHook
	change []domain.ChangeHook
	exit   []domain.ExitHook

	// Computed at freeze time.
	ancestry []domain.StateID
	chain    []RuleRef
}

// ID returns the node's state identity.
func (n *Node) ID() domain.StateID { return n.id }

// AddRule registers a transition rule on the node. The declared event type
// may be a concrete type or an interface.
func (n *Node) AddRule(eventType reflect.Type, body domain.RuleFunc) {
	n.rules = append(n.rules, domain.Rule{EventType: eventType, Apply: body})
}

// OnEnter registers an enter hook on the node.
func (n *Node) OnEnter(h domain.EnterHook) { n.enter = append(n.enter, h) }

// OnChange registers a change hook on the node.
func (n *Node) OnChange(h domain.ChangeHook) { n.change = append(n.change, h) }

// OnExit registers an exit hook on the node.
func (n *Node) OnExit(h domain.ExitHook) { n.exit = append(n.exit, h) }

// RuleRef is a rule paired with the state type that declared it. The owner
// is reported in RuleError so failures name the defining state, which may be
// an ancestor of the state that was current.
type RuleRef struct {
	Owner domain.StateID
	Rule  domain.Rule
}

// Registry stores the declared tree of state types, their transition rules
// and their lifecycle hooks. It is populated during machine construction and
// frozen before the first event; after Freeze it is read-only and safe for
// concurrent reads.
//
// The tree cannot contain cycles by construction: a parent must be declared
// before any of its children, so parent links always point at strictly older
// declarations.
type Registry struct {
	nodes  map[domain.StateID]*Node
	frozen bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{nodes: make(map[domain.StateID]*Node)}
}

// Declare adds a state type to the tree. An empty parent declares a
// root-level state. It fails with DuplicateStateError if the id is already
// declared and with UnknownParentError if the parent is not declared yet.
func (r *Registry) Declare(id, parent domain.StateID) (*Node, error) {
	if r.frozen {
		return nil, &domain.InvalidStateError{State: id}
	}
	if _, exists := r.nodes[id]; exists {
		return nil, &domain.DuplicateStateError{State: id}
	}

	var parentNode *Node
	if parent != "" {
		var ok bool
		parentNode, ok = r.nodes[parent]
		if !ok {
			return nil, &domain.UnknownParentError{State: id, Parent: parent}
		}
	}

	n := &Node{id: id, parent: parentNode}
	r.nodes[id] = n
	return n, nil
}

// Declared reports whether the state type exists in the tree.
func (r *Registry) Declared(id domain.StateID) bool {
	_, ok := r.nodes[id]
	return ok
}

// Len returns the number of declared state types.
func (r *Registry) Len() int { return len(r.nodes) }

// Freeze computes the derived lookup structures and makes the registry
// read-only. Called once, at the end of machine construction.
func (r *Registry) Freeze() {
	if r.frozen {
		return
	}
	for _, n := range r.nodes {
		for cur := n; cur != nil; cur = cur.parent {
			n.ancestry = append(n.ancestry, cur.id)
			for _, rule := range cur.rules {
				n.chain = append(n.chain, RuleRef{Owner: cur.id, Rule: rule})
			}
		}
	}
	r.frozen = true
}

// AncestryOf returns the ordered sequence from the state type up to the
// root of the tree (the state itself first, root last). Returns nil for an
// undeclared type.
func (r *Registry) AncestryOf(id domain.StateID) []domain.StateID {
	n, ok := r.nodes[id]
	if !ok {
		return nil
	}
	return n.ancestry
}

// RulesFor returns the transition rules visible from the state type: its
// own rules first in registration order, then each ancestor's, walking
// towards the root. Inner states therefore shadow their ancestors naturally,
// since their rules are tried first.
func (r *Registry) RulesFor(id domain.StateID) []RuleRef {
	n, ok := r.nodes[id]
	if !ok {
		return nil
	}
	return n.chain
}

// EnterHooks returns the enter hooks declared on the state type itself.
func (r *Registry) EnterHooks(id domain.StateID) []domain.EnterHook {
	if n, ok := r.nodes[id]; ok {
		return n.enter
	}
	return nil
}

// ChangeHooks returns the change hooks declared on the state type itself.
func (r *Registry) ChangeHooks(id domain.StateID) []domain.ChangeHook {
	if n, ok := r.nodes[id]; ok {
		return n.change
	}
	return nil
}

// ExitHooks returns the exit hooks declared on the state type itself.
func (r *Registry) ExitHooks(id domain.StateID) []domain.ExitHook {
	if n, ok := r.nodes[id]; ok {
		return n.exit
	}
	return nil
}
