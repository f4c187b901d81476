package model

import "strconv"

// Owner ids of the flattened annotation projection.

// ScenarioOwner returns the owner id of a scenario.
func ScenarioOwner(s string) string { return "scenario/" + s }

// InteractionOwner returns the owner id of an interaction.
func InteractionOwner(s, i string) string { return ScenarioOwner(s) + "/interaction/" + i }

// ParticipantOwner returns the owner id of a participant.
func ParticipantOwner(s, i, p string) string { return InteractionOwner(s, i) + "/participant/" + p }

// MessageOwner returns the owner id of a merged message.
func MessageOwner(s, i string, k SpanKey) string {
	return InteractionOwner(s, i) + "/message/" + k.String()
}

// SpanOwner returns the owner id of a span.
func SpanOwner(s, i string, k SpanKey) string { return InteractionOwner(s, i) + "/span/" + k.String() }

// NodeOwner returns the owner id of a deployment node.
func NodeOwner(n string) string { return "node/" + n }

// StaticOwner owns the static-graph applied id sets in the projection.
const StaticOwner = "static"

// Project flattens the model into (owner, namespace, key) -> value rows.
//
// Typed fields are rendered into their historical namespaces
// (Representation, AppliedIds, GaStep, PerformanceInformation,
// GaWorkloadEvent, GaExecHost) next to the reference metadata held in
// Annotations. Rows are ordered by scenario, interaction, then element.
func (m *Model) Project(scale int32) []Annotation {
	var rows []Annotation
	add := func(owner, ns, key, value string) {
		rows = append(rows, Annotation{Owner: owner, Namespace: ns, Key: key, Value: value})
	}

	for _, s := range m.Scenarios {
		owner := ScenarioOwner(s.Name)
		rows = append(rows, s.Annotations.Entries(owner)...)
		add(owner, NSPerformanceInformation, "earliestStart", strconv.FormatInt(s.EarliestStart, 10))
		add(owner, NSPerformanceInformation, "latestEnd", strconv.FormatInt(s.LatestEnd, 10))
		add(owner, NSPerformanceInformation, "totalTraceCount", strconv.FormatInt(s.TotalTraceCount, 10))
		if pattern, err := s.WorkloadPattern(scale); err == nil {
			add(owner, NSGaWorkloadEvent, "pattern", pattern)
		}

		for _, in := range s.Interactions {
			iown := InteractionOwner(s.Name, in.Name)
			add(iown, NSRepresentation, "fingerprint", in.Fingerprint)
			add(iown, NSAppliedIDs, "ids", in.AppliedTraceIDs.String())

			for _, p := range in.Participants {
				rows = append(rows, p.Annotations.Entries(ParticipantOwner(s.Name, in.Name, p.Name))...)
			}
			for _, sp := range in.Spans {
				sown := SpanOwner(s.Name, in.Name, sp.Key)
				add(sown, NSRepresentation, "name", sp.Key.Representation)
				add(sown, NSGaStep, "sampleCount", strconv.FormatInt(sp.SampleCount, 10))
				add(sown, NSGaStep, "sumExecTime", strconv.FormatInt(sp.SumExecTime, 10))
				add(sown, NSGaStep, "execTime", strconv.FormatFloat(sp.MeanExecTime(), 'f', -1, 64))
			}
			for _, msg := range in.Messages {
				rows = append(rows, msg.Annotations.Entries(MessageOwner(s.Name, in.Name, msg.Key))...)
			}
		}
	}

	if g := m.Static; g != nil {
		for _, n := range g.Nodes {
			if n.ExecHost {
				add(NodeOwner(n.Name), NSGaExecHost, "execHost", "true")
			}
		}
		if g.StaticApplied.Len() > 0 {
			add(StaticOwner, NSAppliedIDs, "static", g.StaticApplied.String())
		}
		if g.DeploymentApplied.Len() > 0 {
			add(StaticOwner, NSAppliedIDs, "deployment", g.DeploymentApplied.String())
		}
	}
	return rows
}
