package engine

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/perfmodel/internal/model"
	"github.com/roach88/perfmodel/internal/testutil"
	"github.com/roach88/perfmodel/internal/trace"
)

// newTestSession returns a session with a fixed id and deterministic clock.
func newTestSession(opts ...Option) *Session {
	base := []Option{
		WithSessionIDGenerator(testutil.NewFixedSessionGenerator("")),
		WithClock(testutil.NewDeterministicClock()),
	}
	return NewSession(nil, append(base, opts...)...)
}

// callSpan returns the span opened by the call at message position i.
func callSpan(t *testing.T, in *model.Interaction, i int) *model.Span {
	t.Helper()
	for _, sp := range in.Spans {
		if sp.Key.Index == i {
			return sp
		}
	}
	require.Failf(t, "span not found", "no span opened at message %d", i)
	return nil
}

// singleCall is Entry -> A.x() where A runs for dur nanoseconds.
func singleCall(id, dur int64) *trace.Trace {
	entry := testutil.Entry(0, dur)
	a := testutil.Exec("A", "x()", 0, dur)
	return testutil.NewTrace(id, 0, dur).Call(entry, a).Reply(a, entry).Build()
}

// memoryRecorder collects merge records in memory.
type memoryRecorder struct {
	mu      sync.Mutex
	records []Record
	failOn  int64 // trace id to fail on, 0 for never
}

func (r *memoryRecorder) Record(_ context.Context, rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failOn != 0 && rec.TraceID == r.failOn {
		return errors.New("disk full")
	}
	r.records = append(r.records, rec)
	return nil
}

// memoryStore is a ModelStore over one in-memory model.
type memoryStore struct {
	m     *model.Model
	saves int
}

func (s *memoryStore) Load(context.Context) (*model.Model, error) {
	if s.m == nil {
		return model.New(), nil
	}
	return s.m.Clone(), nil
}

func (s *memoryStore) Save(_ context.Context, m *model.Model) error {
	s.m = m.Clone()
	s.saves++
	return nil
}

// countingValidator fails once err is set.
type countingValidator struct {
	calls int
	err   error
}

func (v *countingValidator) Validate(context.Context, *model.Model) error {
	v.calls++
	return v.err
}
