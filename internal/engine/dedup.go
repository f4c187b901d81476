package engine

import "github.com/roach88/perfmodel/internal/model"

// dedupGuard enforces at-most-once application of a trace id to one
// partition of the model.
type dedupGuard struct {
	applied *model.IDSet
}

// seen reports whether id was already applied.
func (g dedupGuard) seen(id int64) bool {
	return g.applied.Contains(id)
}

// mark records id. It must only be called after the partition has been
// fully updated for id.
func (g dedupGuard) mark(id int64) {
	g.applied.Add(id)
}

// shapeGuard enforces at-most-once application of a trace shape, keyed by
// fingerprint digest, to one view of the static graph.
type shapeGuard struct {
	applied *model.KeySet
}

func (g shapeGuard) seen(key string) bool {
	return g.applied.Contains(key)
}

func (g shapeGuard) mark(key string) {
	g.applied.Add(key)
}
