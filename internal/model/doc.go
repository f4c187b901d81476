// Package model holds the behaviour-and-architecture model that traces are
// merged into.
//
// The behaviour side is a list of Scenarios, each owning structurally
// distinct Interactions. An Interaction owns its Participants, Spans and
// Messages and carries the running statistics of every span. The
// architecture side is a StaticGraph of components, interfaces, artifacts
// and nodes with idempotent relationships.
//
// Ownership runs strictly downwards. Upward links (Interaction.Scenario,
// Span.Participant, Participant.ComponentRef) are names, never pointers, so
// the model has no cycles and serializes as a plain tree.
//
// The package does no I/O. Txn provides the undo boundary a merge runs in.
package model
