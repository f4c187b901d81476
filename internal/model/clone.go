package model

import "slices"

// Clone returns a deep copy of the model.
func (m *Model) Clone() *Model {
	out := &Model{
		Scenarios: slices.Clone(m.Scenarios),
		Static:    m.Static.Clone(),
	}
	for i, s := range out.Scenarios {
		out.Scenarios[i] = s.Clone()
	}
	return out
}

// Clone returns a deep copy of the scenario.
func (s *Scenario) Clone() *Scenario {
	out := *s
	out.Annotations = s.Annotations.Clone()
	out.Interactions = slices.Clone(s.Interactions)
	for i, in := range out.Interactions {
		out.Interactions[i] = in.Clone()
	}
	return &out
}

// Clone returns a deep copy of the interaction.
func (in *Interaction) Clone() *Interaction {
	out := *in
	out.AppliedTraceIDs = in.AppliedTraceIDs.Clone()

	out.Participants = slices.Clone(in.Participants)
	for i, p := range out.Participants {
		cp := *p
		cp.Annotations = p.Annotations.Clone()
		out.Participants[i] = &cp
	}
	out.Spans = slices.Clone(in.Spans)
	for i, sp := range out.Spans {
		cp := *sp
		out.Spans[i] = &cp
	}
	out.Messages = slices.Clone(in.Messages)
	for i, msg := range out.Messages {
		cp := *msg
		cp.Annotations = msg.Annotations.Clone()
		out.Messages[i] = &cp
	}
	return &out
}

// Clone returns a deep copy of the graph.
func (g *StaticGraph) Clone() *StaticGraph {
	if g == nil {
		return nil
	}
	out := &StaticGraph{
		Components:        slices.Clone(g.Components),
		Interfaces:        slices.Clone(g.Interfaces),
		Artifacts:         slices.Clone(g.Artifacts),
		Nodes:             slices.Clone(g.Nodes),
		Realizations:      slices.Clone(g.Realizations),
		Manifestations:    slices.Clone(g.Manifestations),
		Deployments:       slices.Clone(g.Deployments),
		Usages:            slices.Clone(g.Usages),
		StaticApplied:     g.StaticApplied.Clone(),
		DeploymentApplied: g.DeploymentApplied.Clone(),
	}
	for i, c := range out.Components {
		cp := *c
		cp.Operations = slices.Clone(c.Operations)
		out.Components[i] = &cp
	}
	for i, x := range out.Interfaces {
		cp := *x
		out.Interfaces[i] = &cp
	}
	for i, a := range out.Artifacts {
		cp := *a
		out.Artifacts[i] = &cp
	}
	for i, n := range out.Nodes {
		cp := *n
		out.Nodes[i] = &cp
	}
	return out
}
