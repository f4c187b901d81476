package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/roach88/perfmodel/internal/engine"
	"github.com/roach88/perfmodel/internal/model"
)

// Memory is an in-process model store and merge log with the same
// semantics as Store. Models and traces are copied on the way in and out,
// so callers never share state with it.
type Memory struct {
	mu      sync.Mutex
	model   *model.Model
	records []engine.Record
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// Load returns a copy of the saved model, or an empty model.
func (s *Memory) Load(context.Context) (*model.Model, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.model == nil {
		return model.New(), nil
	}
	return s.model.Clone(), nil
}

// Save replaces the saved model with a copy of m.
func (s *Memory) Save(_ context.Context, m *model.Model) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.model = m.Clone()
	return nil
}

// Record appends rec to the log.
func (s *Memory) Record(_ context.Context, rec engine.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.Trace == nil {
		return fmt.Errorf("record merge %d: no trace", rec.Seq)
	}
	for _, r := range s.records {
		if r.Seq == rec.Seq {
			return fmt.Errorf("record merge %d: seq already logged", rec.Seq)
		}
	}

	t := *rec.Trace
	t.Messages = slices.Clone(t.Messages)
	rec.Trace = &t
	s.records = append(s.records, rec)
	return nil
}

// ReadMergeLog returns the logged merges in seq order.
func (s *Memory) ReadMergeLog(context.Context) ([]engine.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := slices.Clone(s.records)
	slices.SortFunc(out, func(a, b engine.Record) int {
		switch {
		case a.Seq < b.Seq:
			return -1
		case a.Seq > b.Seq:
			return 1
		}
		return 0
	})
	return out, nil
}

// LastSeq returns the highest logged seq, or 0.
func (s *Memory) LastSeq(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var last int64
	for _, r := range s.records {
		last = max(last, r.Seq)
	}
	return last, nil
}
