package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddScenario_CreatesActorAndMarker(t *testing.T) {
	m := New()
	s := m.AddScenario("checkout")

	assert.Equal(t, "'Entry'-checkout", s.Actor)
	v, ok := s.Annotations.Get(NSGaScenario, "name")
	require.True(t, ok)
	assert.Equal(t, "checkout", v)
	assert.Same(t, s, m.Scenario("checkout"))
	assert.Nil(t, m.Scenario("other"))
}

func TestAddInteraction_NamesByPosition(t *testing.T) {
	s := New().AddScenario("s")
	a := s.AddInteraction("fp-a")
	b := s.AddInteraction("fp-b")

	assert.Equal(t, "Interaction-0", a.Name)
	assert.Equal(t, "Interaction-1", b.Name)
	assert.Equal(t, "s", b.Scenario)
	assert.Equal(t, []*Interaction{b}, s.FindInteractions("fp-b"))
	assert.Empty(t, s.FindInteractions("fp-c"))
}

func TestSpan_RecordAndMean(t *testing.T) {
	sp := &Span{}
	assert.Zero(t, sp.MeanExecTime())

	for _, net := range []int64{60, 80, 100} {
		sp.Record(net)
	}

	assert.Equal(t, int64(3), sp.SampleCount)
	assert.Equal(t, float64(80), sp.MeanExecTime())
}

func TestSpanKey_String(t *testing.T) {
	assert.Equal(t, "'Entry'#-1", EntryKey.String())
	assert.Equal(t, "BES-x#3", SpanKey{Representation: "BES-x", Index: 3}.String())
}

func TestAnnotations_SetGetEntries(t *testing.T) {
	var a Annotations
	a.Set(NSReference, "class", "Foo")
	a.Set(NSReference, "package", "org.x")
	a.Set(NSGaExecHost, "execHost", "true")

	v, ok := a.Get(NSReference, "class")
	require.True(t, ok)
	assert.Equal(t, "Foo", v)
	_, ok = a.Get(NSGaStep, "missing")
	assert.False(t, ok)

	assert.Equal(t, []Annotation{
		{Owner: "o", Namespace: NSGaExecHost, Key: "execHost", Value: "true"},
		{Owner: "o", Namespace: NSReference, Key: "class", Value: "Foo"},
		{Owner: "o", Namespace: NSReference, Key: "package", Value: "org.x"},
	}, a.Entries("o"))
}

func TestStaticGraph_FindOrCreateAndIdempotentEdges(t *testing.T) {
	g := NewStaticGraph()

	c1, created := g.Component("A", "org.A")
	assert.True(t, created)
	c2, created := g.Component("A", "org.A")
	assert.False(t, created)
	assert.Same(t, c1, c2)

	assert.True(t, g.Realize("A", "foo()"))
	assert.False(t, g.Realize("A", "foo()"))
	assert.True(t, g.Use("foo()", "bar()"))
	assert.False(t, g.Use("foo()", "bar()"))
	assert.Len(t, g.Realizations, 1)
	assert.Len(t, g.Usages, 1)

	assert.True(t, c1.AddOperation(Operation{Name: "foo()", Span: "BES-org.A.foo()"}))
	assert.False(t, c1.AddOperation(Operation{Name: "foo()", Span: "BES-org.A.foo()"}))
}

func TestModelClone_IsDeep(t *testing.T) {
	m := New()
	s := m.AddScenario("s")
	in := s.AddInteraction("fp")
	in.AppliedTraceIDs.Add(1)
	in.Spans = append(in.Spans, &Span{Key: EntryKey, SampleCount: 1})
	m.Static.Node("host-1")

	c := m.Clone()
	c.Scenarios[0].Interactions[0].Spans[0].Record(5)
	c.Scenarios[0].Interactions[0].AppliedTraceIDs.Add(2)
	c.Static.Nodes[0].ExecHost = true

	assert.Equal(t, int64(1), in.Spans[0].SampleCount)
	assert.Equal(t, IDSet{1}, in.AppliedTraceIDs)
	assert.False(t, m.Static.Nodes[0].ExecHost)
}

func TestProject_RendersTypedFields(t *testing.T) {
	m := New()
	s := m.AddScenario("s")
	s.Observe(0, 100)
	in := s.AddInteraction("fp")
	in.AppliedTraceIDs.Add(1)
	sp := &Span{Key: EntryKey}
	sp.Record(1)
	in.Spans = append(in.Spans, sp)
	n, _ := m.Static.Node("host-1")
	n.ExecHost = true

	rows := m.Project(2)

	assert.Contains(t, rows, Annotation{Owner: "scenario/s", Namespace: NSGaScenario, Key: "name", Value: "s"})
	assert.Contains(t, rows, Annotation{Owner: "scenario/s", Namespace: NSGaWorkloadEvent, Key: "pattern", Value: "open:0.01"})
	assert.Contains(t, rows, Annotation{Owner: "scenario/s/interaction/Interaction-0", Namespace: NSAppliedIDs, Key: "ids", Value: "1"})
	assert.Contains(t, rows, Annotation{Owner: "scenario/s/interaction/Interaction-0/span/'Entry'#-1", Namespace: NSGaStep, Key: "execTime", Value: "1"})
	assert.Contains(t, rows, Annotation{Owner: "node/host-1", Namespace: NSGaExecHost, Key: "execHost", Value: "true"})
	for _, r := range rows {
		assert.NotEqual(t, StaticOwner, r.Owner, "empty static applied sets are not projected")
	}

	m.Static.StaticApplied.Add("d1")
	rows = m.Project(2)
	assert.Contains(t, rows, Annotation{Owner: StaticOwner, Namespace: NSAppliedIDs, Key: "static", Value: "d1"})
	assert.NotContains(t, rows, Annotation{Owner: StaticOwner, Namespace: NSAppliedIDs, Key: "deployment", Value: ""})
}
