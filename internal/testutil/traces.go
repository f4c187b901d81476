package testutil

import "github.com/roach88/perfmodel/internal/trace"

// DefaultHost is the container and allocation prefix used by Exec.
const DefaultHost = "host-1"

// Exec builds an execution of typ.signature on DefaultHost.
// The component identity equals the type name.
func Exec(typ, signature string, tin, tout int64) trace.Execution {
	return trace.Execution{
		Component:     typ,
		ComponentType: typ,
		Signature:     signature,
		Container:     DefaultHost,
		Allocation:    DefaultHost + "::" + typ,
		Tin:           tin,
		Tout:          tout,
	}
}

// Entry builds the synthetic root execution spanning [tin, tout].
func Entry(tin, tout int64) trace.Execution {
	return trace.Execution{
		Component:     trace.EntryName,
		ComponentType: trace.EntryName,
		Signature:     trace.EntryName,
		Tin:           tin,
		Tout:          tout,
	}
}

// TraceBuilder assembles a trace message by message.
type TraceBuilder struct {
	t trace.Trace
}

// NewTrace starts a trace with the given id and time window.
func NewTrace(id, start, end int64) *TraceBuilder {
	return &TraceBuilder{t: trace.Trace{ID: id, Start: start, End: end}}
}

// Call appends a call from sender to receiver.
func (b *TraceBuilder) Call(sender, receiver trace.Execution) *TraceBuilder {
	b.t.Messages = append(b.t.Messages, trace.Message{Kind: trace.Call, Sender: sender, Receiver: receiver})
	return b
}

// Reply appends a reply from sender (the callee) to receiver (the caller).
func (b *TraceBuilder) Reply(sender, receiver trace.Execution) *TraceBuilder {
	b.t.Messages = append(b.t.Messages, trace.Message{Kind: trace.Reply, Sender: sender, Receiver: receiver})
	return b
}

// Build returns a copy of the assembled trace.
func (b *TraceBuilder) Build() *trace.Trace {
	out := b.t
	out.Messages = append([]trace.Message(nil), b.t.Messages...)
	return &out
}

// SimpleTrace is Entry -> A.foo() -> B.bar() with A in [0,100] and B in
// [20,60] inside a trace window of [0,100]. Net times: B.bar 40, A.foo 60,
// entry 0 (clamped to 1).
func SimpleTrace(id int64) *trace.Trace {
	entry := Entry(0, 100)
	a := Exec("A", "foo()", 0, 100)
	b := Exec("B", "bar()", 20, 60)
	return NewTrace(id, 0, 100).
		Call(entry, a).
		Call(a, b).
		Reply(b, a).
		Reply(a, entry).
		Build()
}

// ShiftedSimpleTrace is SimpleTrace moved by offset nanoseconds.
// The fingerprint is unchanged.
func ShiftedSimpleTrace(id, offset int64) *trace.Trace {
	entry := Entry(offset, offset+100)
	a := Exec("A", "foo()", offset, offset+100)
	b := Exec("B", "bar()", offset+20, offset+60)
	return NewTrace(id, offset, offset+100).
		Call(entry, a).
		Call(a, b).
		Reply(b, a).
		Reply(a, entry).
		Build()
}

// NestedTrace is Entry -> A.a() -> B.b() -> C.c() with the replies in
// order. A spans [0,100], B [10,90], C [30,50].
func NestedTrace(id int64) *trace.Trace {
	entry := Entry(0, 100)
	a := Exec("A", "a()", 0, 100)
	b := Exec("B", "b()", 10, 90)
	c := Exec("C", "c()", 30, 50)
	return NewTrace(id, 0, 100).
		Call(entry, a).
		Call(a, b).
		Call(b, c).
		Reply(c, b).
		Reply(b, a).
		Reply(a, entry).
		Build()
}
