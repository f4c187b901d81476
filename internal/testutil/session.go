package testutil

// FixedSessionGenerator returns the same merge-session id every time so that
// merge logs and golden snapshots are byte-identical across runs.
//
// It satisfies engine.SessionIDGenerator.
type FixedSessionGenerator struct {
	id string
}

// NewFixedSessionGenerator creates a generator for id.
// If id is empty, Generate returns "test-session-default".
func NewFixedSessionGenerator(id string) *FixedSessionGenerator {
	if id == "" {
		id = "test-session-default"
	}
	return &FixedSessionGenerator{id: id}
}

// Generate returns the fixed session id.
func (g *FixedSessionGenerator) Generate() string {
	return g.id
}
