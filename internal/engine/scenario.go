package engine

import (
	"github.com/roach88/perfmodel/internal/model"
)

// scenarioIndex resolves the scenario and interaction a trace merges into.
type scenarioIndex struct {
	m *model.Model
}

// getOrCreate returns the interaction of scenario name with fingerprint fp,
// creating the scenario and interaction as needed. created reports whether
// the interaction is new and still needs reconstruction.
func (x scenarioIndex) getOrCreate(traceID int64, name, fp string) (*model.Scenario, *model.Interaction, bool, error) {
	s := x.m.Scenario(name)
	if s == nil {
		s = x.m.AddScenario(name)
	}

	found := s.FindInteractions(fp)
	switch len(found) {
	case 0:
		return s, s.AddInteraction(fp), true, nil
	case 1:
		in := found[0]
		if in.Scenario != s.Name {
			return nil, nil, false, missingOwnership(traceID, in.Name,
				"interaction owned by %q found under scenario %q", in.Scenario, s.Name)
		}
		return s, in, false, nil
	default:
		err := structuralMismatch(traceID, name,
			"%d interactions share one fingerprint", len(found))
		err.Fingerprint = fp
		return nil, nil, false, err
	}
}
