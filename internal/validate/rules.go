package validate

import (
	"fmt"

	"github.com/roach88/perfmodel/internal/model"
)

// checkRules runs the cross-reference rules over m.
// Returns all errors found (does not fail-fast).
func checkRules(m *model.Model) []ValidationError {
	var errs []ValidationError
	add := func(code, field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...), Code: code})
	}

	components := make(map[string]bool)
	if m.Static != nil {
		for _, c := range m.Static.Components {
			components[c.Name] = true
		}
	}

	scenarioNames := make(map[string]bool)
	for i, s := range m.Scenarios {
		sf := fmt.Sprintf("scenarios[%d]", i)
		if scenarioNames[s.Name] {
			add(ErrDuplicateScenario, sf+".name", "duplicate scenario name: %q", s.Name)
		}
		scenarioNames[s.Name] = true

		var applied int64
		fingerprints := make(map[string]string)
		names := make(map[string]bool)
		for j, in := range s.Interactions {
			f := fmt.Sprintf("%s.interactions[%d]", sf, j)
			applied += int64(in.AppliedTraceIDs.Len())

			if in.Scenario != s.Name {
				add(ErrMissingOwnership, f+".scenario",
					"interaction %s is owned by %q but names %q", in.Name, s.Name, in.Scenario)
			}
			if names[in.Name] {
				add(ErrDuplicateInteraction, f+".name", "duplicate interaction name: %q", in.Name)
			}
			names[in.Name] = true
			if prev, ok := fingerprints[in.Fingerprint]; ok {
				add(ErrDuplicateFingerprint, f+".fingerprint",
					"interactions %s and %s share a fingerprint", prev, in.Name)
			}
			fingerprints[in.Fingerprint] = in.Name

			errs = append(errs, checkInteraction(f, s, in, components)...)
		}

		if applied != s.TotalTraceCount {
			add(ErrTraceCount, sf+".total_trace_count",
				"total trace count %d, but interactions hold %d applied ids", s.TotalTraceCount, applied)
		}
	}

	if m.Static != nil {
		errs = append(errs, checkStatic(m.Static)...)
	}
	return errs
}

func checkInteraction(f string, s *model.Scenario, in *model.Interaction, components map[string]bool) []ValidationError {
	var errs []ValidationError
	add := func(code, field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: f + "." + field, Message: fmt.Sprintf(format, args...), Code: code})
	}

	if !isIDSet(in.AppliedTraceIDs) {
		add(ErrAppliedIDs, "applied_trace_ids", "applied ids %s are not sorted and unique", in.AppliedTraceIDs)
	}

	participants := make(map[string]bool)
	for k, p := range in.Participants {
		participants[p.Name] = true
		if p.ComponentRef != s.Actor && !components[p.ComponentRef] {
			add(ErrUnknownComponent, fmt.Sprintf("participants[%d].component_ref", k),
				"participant %s references unknown component %q", p.Name, p.ComponentRef)
		}
	}

	samples := int64(in.AppliedTraceIDs.Len())
	for k, sp := range in.Spans {
		field := fmt.Sprintf("spans[%d]", k)
		if sp.SampleCount != samples {
			add(ErrSampleCount, field+".sample_count",
				"span %s has %d samples, interaction has %d applied ids", sp.Key, sp.SampleCount, samples)
		}
		if sp.SumExecTime < 0 {
			add(ErrNegativeExecTime, field+".sum_exec_time", "span %s has negative sum %d", sp.Key, sp.SumExecTime)
		}
		if sp.CloseMessage < sp.OpenMessage {
			add(ErrUnclosedSpan, field+".close_message",
				"span %s opened at %d never closed (close %d)", sp.Key, sp.OpenMessage, sp.CloseMessage)
		}
		if !participants[sp.Participant] {
			add(ErrUnknownParticipant, field+".participant", "span %s runs on unknown participant %q", sp.Key, sp.Participant)
		}
	}
	if len(in.Spans) > 0 && in.EntrySpan() == nil {
		add(ErrMissingEntrySpan, "spans", "interaction %s has no entry span", in.Name)
	}

	for k, msg := range in.Messages {
		for _, name := range [2]string{msg.Sender, msg.Receiver} {
			if !participants[name] {
				add(ErrUnknownParticipant, fmt.Sprintf("messages[%d]", k),
					"message %s references unknown participant %q", msg.Key, name)
			}
		}
	}
	return errs
}

func checkStatic(g *model.StaticGraph) []ValidationError {
	var errs []ValidationError
	add := func(code, field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: "static." + field, Message: fmt.Sprintf(format, args...), Code: code})
	}

	index := func(kind string, names []string) map[string]bool {
		set := make(map[string]bool, len(names))
		for i, n := range names {
			if set[n] {
				add(ErrDuplicateStaticEntry, fmt.Sprintf("%s[%d]", kind, i), "duplicate %s %q", kind, n)
			}
			set[n] = true
		}
		return set
	}
	components := index("components", mapNames(g.Components, func(c *model.Component) string { return c.Name }))
	interfaces := index("interfaces", mapNames(g.Interfaces, func(x *model.Interface) string { return x.Name }))
	artifacts := index("artifacts", mapNames(g.Artifacts, func(a *model.Artifact) string { return a.Name }))
	nodes := index("nodes", mapNames(g.Nodes, func(n *model.Node) string { return n.Name }))

	edges := []struct {
		kind     string
		edges    []model.Edge
		from, to map[string]bool
	}{
		{"realizations", g.Realizations, components, interfaces},
		{"manifestations", g.Manifestations, artifacts, components},
		{"deployments", g.Deployments, nodes, artifacts},
		{"usages", g.Usages, interfaces, interfaces},
	}
	for _, set := range edges {
		for i, e := range set.edges {
			if !set.from[e.From] || !set.to[e.To] {
				add(ErrDanglingStaticEdge, fmt.Sprintf("%s[%d]", set.kind, i),
					"edge %s -> %s references a missing element", e.From, e.To)
			}
		}
	}

	if !isKeySet(g.StaticApplied) {
		add(ErrAppliedIDs, "static_applied", "applied keys %s are not sorted and unique", g.StaticApplied)
	}
	if !isKeySet(g.DeploymentApplied) {
		add(ErrAppliedIDs, "deployment_applied", "applied keys %s are not sorted and unique", g.DeploymentApplied)
	}
	return errs
}

func mapNames[T any](items []T, name func(T) string) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = name(it)
	}
	return out
}

// isIDSet reports whether ids is strictly increasing.
func isIDSet(ids model.IDSet) bool {
	for i := 1; i < len(ids); i++ {
		if ids[i] <= ids[i-1] {
			return false
		}
	}
	return true
}

// isKeySet is isIDSet for string keys.
func isKeySet(keys model.KeySet) bool {
	for i := 1; i < len(keys); i++ {
		if keys[i] <= keys[i-1] {
			return false
		}
	}
	return true
}
