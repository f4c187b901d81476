package trace

import (
	"fmt"
	"strings"
)

// Kind distinguishes call messages from reply messages.
type Kind string

const (
	// Call is a synchronous call from sender to receiver.
	Call Kind = "call"

	// Reply returns control from sender (the callee) to receiver (the caller).
	Reply Kind = "reply"
)

// EntryName is the identity monitoring tools give the synthetic root
// execution that issues the first call of every trace.
const EntryName = "'Entry'"

// Valid reports whether k is one of the known message kinds.
func (k Kind) Valid() bool {
	return k == Call || k == Reply
}

// Execution identifies one activation of an operation.
//
// Execution is comparable: two messages refer to the same activation iff
// their executions are == equal. EOI and ESS (execution order index and
// execution stack size) keep otherwise-identical activations apart.
type Execution struct {
	// Component is the assembly component identity (the "instance").
	Component string `json:"component" yaml:"component"`

	// ComponentType is the fully-qualified type name of the component.
	ComponentType string `json:"component_type" yaml:"component_type"`

	// Signature is the operation signature, e.g. "getItem(int)".
	Signature string `json:"signature" yaml:"signature"`

	// Container is the execution container (host) the component runs on.
	Container string `json:"container,omitempty" yaml:"container,omitempty"`

	// Allocation is the allocation component identity (deployed unit).
	Allocation string `json:"allocation,omitempty" yaml:"allocation,omitempty"`

	Tin  int64 `json:"tin" yaml:"tin"`
	Tout int64 `json:"tout" yaml:"tout"`
	EOI  int   `json:"eoi,omitempty" yaml:"eoi,omitempty"`
	ESS  int   `json:"ess,omitempty" yaml:"ess,omitempty"`
}

// QualifiedSignature returns the fully-qualified operation signature:
// ComponentType + "." + Signature.
func (e Execution) QualifiedSignature() string {
	return e.ComponentType + "." + e.Signature
}

// Total returns the gross execution time Tout - Tin in nanoseconds.
func (e Execution) Total() int64 {
	return e.Tout - e.Tin
}

// PackageName returns the package part of ComponentType (everything before
// the last dot), or "" for unqualified types.
func (e Execution) PackageName() string {
	if i := strings.LastIndex(e.ComponentType, "."); i >= 0 {
		return e.ComponentType[:i]
	}
	return ""
}

// TypeName returns the simple type name of ComponentType.
func (e Execution) TypeName() string {
	if i := strings.LastIndex(e.ComponentType, "."); i >= 0 {
		return e.ComponentType[i+1:]
	}
	return e.ComponentType
}

// IsEntry reports whether this is the synthetic root execution.
func (e Execution) IsEntry() bool {
	return e.Component == EntryName
}

// Message is one call or reply between two executions.
type Message struct {
	Kind     Kind      `json:"kind" yaml:"kind"`
	Sender   Execution `json:"sender" yaml:"sender"`
	Receiver Execution `json:"receiver" yaml:"receiver"`
}

// Trace is one recorded execution of ordered call/reply events.
type Trace struct {
	ID       int64     `json:"id" yaml:"id"`
	Start    int64     `json:"start" yaml:"start"`
	End      int64     `json:"end" yaml:"end"`
	Messages []Message `json:"messages" yaml:"messages"`
}

// Duration returns End - Start in nanoseconds.
func (t *Trace) Duration() int64 {
	return t.End - t.Start
}

// Validate checks the shape the engine relies on without re-validating
// causal order: at least one message, the first message is a call, and
// every message has a known kind.
func (t *Trace) Validate() error {
	if len(t.Messages) == 0 {
		return fmt.Errorf("trace %d: no messages", t.ID)
	}
	if t.Messages[0].Kind != Call {
		return fmt.Errorf("trace %d: first message must be a call, got %q", t.ID, t.Messages[0].Kind)
	}
	for i, m := range t.Messages {
		if !m.Kind.Valid() {
			return fmt.Errorf("trace %d: message %d: unknown kind %q", t.ID, i, m.Kind)
		}
	}
	return nil
}
