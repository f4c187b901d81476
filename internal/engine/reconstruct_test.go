package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/perfmodel/internal/model"
	"github.com/roach88/perfmodel/internal/testutil"
	"github.com/roach88/perfmodel/internal/trace"
)

func reconstructFresh(tr *trace.Trace) (*model.Interaction, error) {
	s := model.New().AddScenario("s")
	in := s.AddInteraction(trace.Fingerprint(tr))
	return in, reconstruct(s, in, tr)
}

func TestReconstruct_NestedSpansCloseLIFO(t *testing.T) {
	in, err := reconstructFresh(testutil.NestedTrace(1))
	require.NoError(t, err)

	require.Len(t, in.Spans, 4)
	a, b, c := callSpan(t, in, 0), callSpan(t, in, 1), callSpan(t, in, 2)
	assert.Equal(t, "A", a.Participant)
	assert.Equal(t, 5, a.CloseMessage)
	assert.Equal(t, 4, b.CloseMessage)
	assert.Equal(t, 3, c.CloseMessage, "C closes before B")
	assert.Equal(t, "C.c()", c.Operation)
	assert.Equal(t, trace.SpanPrefix+"Sender--B.b()--Receiver--C.c()", c.Key.Representation)

	entry := in.EntrySpan()
	require.NotNil(t, entry)
	assert.Equal(t, trace.EntryName, entry.Participant)
	assert.Equal(t, 0, entry.OpenMessage)
	assert.Equal(t, 5, entry.CloseMessage)
}

func TestReconstruct_ParticipantsAndMessages(t *testing.T) {
	in, err := reconstructFresh(testutil.SimpleTrace(1))
	require.NoError(t, err)

	names := make([]string, len(in.Participants))
	for i, p := range in.Participants {
		names[i] = p.Name
	}
	assert.Equal(t, []string{trace.EntryName, "A", "B"}, names)
	assert.Equal(t, "'Entry'-s", in.Participant(trace.EntryName).ComponentRef)
	assert.Equal(t, "B", in.Participant("B").ComponentRef)

	require.Len(t, in.Messages, 4)
	call := in.Messages[1]
	assert.Equal(t, trace.Call, call.Kind)
	assert.Equal(t, "A", call.Sender)
	assert.Equal(t, "B", call.Receiver)
	assert.Equal(t, "bar()", call.Label)
	assert.Equal(t, model.SpanKey{Representation: "Sender--A.foo()--Receiver--B.bar()", Index: 1}, call.Key)

	sig, ok := call.Annotations.Get(model.NSReference, model.RefFullQualifiedNameSignature)
	require.True(t, ok)
	assert.Equal(t, "B.bar()", sig)
	assert.Nil(t, in.Messages[3].Annotations, "replies to the entry carry no references")
}

func TestReconstruct_ReplyOutOfOrder(t *testing.T) {
	entry := testutil.Entry(0, 100)
	a := testutil.Exec("A", "a()", 0, 100)
	b := testutil.Exec("B", "b()", 10, 90)
	c := testutil.Exec("C", "c()", 30, 50)
	tr := testutil.NewTrace(1, 0, 100).
		Call(entry, a).
		Call(a, b).
		Call(b, c).
		Reply(b, a).
		Build()

	_, err := reconstructFresh(tr)
	require.Error(t, err)
	assert.True(t, IsStructuralMismatch(err), "got %v", err)
	assert.Contains(t, err.Error(), "still open")
}

func TestReconstruct_ReplyWithoutOpenSpan(t *testing.T) {
	entry := testutil.Entry(0, 100)
	a := testutil.Exec("A", "a()", 0, 100)
	b := testutil.Exec("B", "b()", 10, 90)
	tr := testutil.NewTrace(1, 0, 100).Call(entry, a).Reply(b, a).Build()

	_, err := reconstructFresh(tr)
	assert.True(t, IsStructuralMismatch(err), "got %v", err)
}

func TestReconstruct_UnclosedSpan(t *testing.T) {
	entry := testutil.Entry(0, 100)
	a := testutil.Exec("A", "a()", 0, 100)
	b := testutil.Exec("B", "b()", 10, 90)
	tr := testutil.NewTrace(1, 0, 100).Call(entry, a).Call(a, b).Reply(b, a).Build()

	_, err := reconstructFresh(tr)
	require.Error(t, err)
	assert.True(t, IsStructuralMismatch(err))
	assert.Contains(t, err.Error(), "left open")
}

func TestReconstruct_ReplyToWrongCaller(t *testing.T) {
	entry := testutil.Entry(0, 100)
	a := testutil.Exec("A", "a()", 0, 100)
	x := testutil.Exec("X", "x()", 0, 100)
	tr := testutil.NewTrace(1, 0, 100).Call(entry, a).Reply(a, x).Build()

	_, err := reconstructFresh(tr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not answer")
}

func TestReconstruct_RepeatedCallsGetDistinctSpans(t *testing.T) {
	entry := testutil.Entry(0, 100)
	a := testutil.Exec("A", "a()", 0, 100)
	b1 := testutil.Exec("B", "b()", 10, 20)
	b2 := testutil.Exec("B", "b()", 30, 40)
	tr := testutil.NewTrace(1, 0, 100).
		Call(entry, a).
		Call(a, b1).Reply(b1, a).
		Call(a, b2).Reply(b2, a).
		Reply(a, entry).
		Build()

	in, err := reconstructFresh(tr)
	require.NoError(t, err)

	first, second := callSpan(t, in, 1), callSpan(t, in, 3)
	assert.Equal(t, first.Key.Representation, second.Key.Representation)
	assert.NotEqual(t, first.Key, second.Key, "occurrence index disambiguates")
	assert.Equal(t, 2, first.CloseMessage)
	assert.Equal(t, 4, second.CloseMessage)
}
