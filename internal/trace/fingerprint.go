package trace

import "strings"

// Representation prefixes shared with the model.
const (
	// SpanPrefix prefixes the representation of an execution span opened by
	// a call message.
	SpanPrefix = "BES-"

	// EntryRepresentation is the representation of the synthetic entry span.
	EntryRepresentation = EntryName

	// EntryIndex is the occurrence index reserved for the entry span.
	EntryIndex = -1
)

// MessageRepresentation returns the structural token for one message:
//
//	Sender--<qualifiedSenderSignature>--Receiver--<qualifiedReceiverSignature>
//
// The token never includes timestamps, trace ids, or instance identities,
// so repeated executions of the same call produce the same token.
func MessageRepresentation(m Message) string {
	var b strings.Builder
	writeRepresentation(&b, m)
	return b.String()
}

// Fingerprint returns the canonical structural signature of t: the
// concatenation of MessageRepresentation over all messages in order.
//
// Two traces merge into the same interaction iff their fingerprints are
// equal. Fingerprint is pure and total.
func Fingerprint(t *Trace) string {
	var b strings.Builder
	for _, m := range t.Messages {
		writeRepresentation(&b, m)
	}
	return b.String()
}

func writeRepresentation(b *strings.Builder, m Message) {
	b.WriteString("Sender--")
	b.WriteString(m.Sender.QualifiedSignature())
	b.WriteString("--Receiver--")
	b.WriteString(m.Receiver.QualifiedSignature())
}

// SpanRepresentation returns the representation of the span a call message
// opens on its receiver.
func SpanRepresentation(messageRepresentation string) string {
	return SpanPrefix + messageRepresentation
}

// InterfaceName returns the interface name of an execution's operation.
// Constructor signatures ("<init>") are renamed after the simple type name.
func InterfaceName(e Execution) string {
	if strings.Contains(e.Signature, "<init>") {
		return strings.ReplaceAll(e.Signature, "<init>", e.TypeName())
	}
	return e.Signature
}

// OperationSpanName returns the span name a component operation refers to.
func OperationSpanName(e Execution) string {
	return SpanPrefix + e.QualifiedSignature()
}
