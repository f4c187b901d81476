package model

// Txn is the undo boundary around one trace merge.
//
// A merge only ever touches one scenario (its scalar fields, one existing
// interaction, or one appended interaction) and the static graph. Begin
// snapshots the scenario, TrackStatic snapshots the static graph on demand,
// and Rollback puts both back in place so that pointers held by callers
// stay valid.
type Txn struct {
	m *Model

	scenarios []*Scenario // m.Scenarios at Begin

	scenario *Scenario // nil if the scenario did not exist
	saved    Scenario  // shallow snapshot of *scenario

	tracked []tracked
	static  *StaticGraph // nil until TrackStatic
	done    bool
}

type tracked struct {
	live  *Interaction
	saved *Interaction
}

// Begin opens an undo boundary for a merge into scenario name.
func Begin(m *Model, name string) *Txn {
	t := &Txn{
		m:         m,
		scenarios: m.Scenarios,
	}
	if s := m.Scenario(name); s != nil {
		t.scenario = s
		t.saved = *s
		t.saved.Annotations = s.Annotations.Clone()
	}
	return t
}

// Track snapshots an existing interaction before it is mutated.
// Interactions created inside the boundary need no tracking.
func (t *Txn) Track(in *Interaction) {
	if t.scenario == nil || !containsInteraction(t.saved.Interactions, in) {
		return
	}
	for _, tr := range t.tracked {
		if tr.live == in {
			return
		}
	}
	t.tracked = append(t.tracked, tracked{live: in, saved: in.Clone()})
}

// TrackStatic snapshots the static graph before it is mutated. Merges
// that leave the graph alone never pay for the copy.
func (t *Txn) TrackStatic() {
	if t.static == nil {
		t.static = t.m.Static.Clone()
	}
}

// Commit closes the boundary and keeps all changes.
func (t *Txn) Commit() {
	t.done = true
}

// Rollback restores the state captured by Begin and Track. It is a no-op
// after Commit or a previous Rollback.
func (t *Txn) Rollback() {
	if t.done {
		return
	}
	t.done = true

	for _, tr := range t.tracked {
		*tr.live = *tr.saved
	}
	if t.scenario != nil {
		if extra := t.scenario.Interactions; len(extra) > len(t.saved.Interactions) {
			clear(extra[len(t.saved.Interactions):])
		}
		*t.scenario = t.saved
	}
	if len(t.m.Scenarios) > len(t.scenarios) {
		clear(t.m.Scenarios[len(t.scenarios):])
	}
	t.m.Scenarios = t.scenarios
	if t.static != nil {
		t.m.Static = t.static
	}
}

func containsInteraction(list []*Interaction, in *Interaction) bool {
	for _, x := range list {
		if x == in {
			return true
		}
	}
	return false
}
