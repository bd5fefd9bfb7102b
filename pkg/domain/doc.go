/*
Package domain contains the core domain models for the Strata engine.

It defines the fundamental entities of the hierarchical state machine and is
kept pure and free of external dependencies like I/O or transports, following
Hexagonal Architecture principles.

# Key Entities

  - StateID: the stable identity of a declared state type.
  - Value: a concrete state instance (type identity plus payload).
  - Rule: an event-matched function producing the next state or NoMatch.
  - EnterHook / ChangeHook / ExitHook: side-effect callbacks bound to a state type.
  - Outcome: the tagged result of a rule body (Goto or NoMatch).
*/
package domain
