package validate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/perfmodel/internal/engine"
	"github.com/roach88/perfmodel/internal/model"
	"github.com/roach88/perfmodel/internal/testutil"
)

// mergedModel merges simple and nested traces into two scenarios.
func mergedModel(t *testing.T) *model.Model {
	t.Helper()
	ctx := context.Background()
	sess := engine.NewSession(nil)
	for id := int64(1); id <= 3; id++ {
		_, err := sess.Merge(ctx, "checkout", testutil.ShiftedSimpleTrace(id, id*100))
		require.NoError(t, err)
	}
	_, err := sess.Merge(ctx, "browse", testutil.NestedTrace(4))
	require.NoError(t, err)
	return sess.Model()
}

func codes(errs []ValidationError) []string {
	var out []string
	for _, e := range errs {
		out = append(out, e.Code)
	}
	return out
}

func TestValidator_AcceptsMergedModel(t *testing.T) {
	v, err := New()
	require.NoError(t, err)

	assert.Empty(t, v.Check(mergedModel(t)))
	assert.Empty(t, v.Check(model.New()))
	assert.NoError(t, v.Validate(context.Background(), mergedModel(t)))
}

func TestValidator_Rules(t *testing.T) {
	tests := []struct {
		name    string
		corrupt func(m *model.Model)
		code    string
	}{
		{
			name: "interaction names the wrong scenario",
			corrupt: func(m *model.Model) {
				m.Scenario("checkout").Interactions[0].Scenario = "browse"
			},
			code: ErrMissingOwnership,
		},
		{
			name: "duplicate scenario",
			corrupt: func(m *model.Model) {
				m.Scenarios = append(m.Scenarios, m.Scenario("browse").Clone())
			},
			code: ErrDuplicateScenario,
		},
		{
			name: "duplicate fingerprint",
			corrupt: func(m *model.Model) {
				s := m.Scenario("checkout")
				dup := s.Interactions[0].Clone()
				dup.Name = "Interaction-1"
				s.Interactions = append(s.Interactions, dup)
			},
			code: ErrDuplicateFingerprint,
		},
		{
			name: "span sample count drifts from applied ids",
			corrupt: func(m *model.Model) {
				m.Scenario("checkout").Interactions[0].Spans[1].SampleCount++
			},
			code: ErrSampleCount,
		},
		{
			name: "negative exec time",
			corrupt: func(m *model.Model) {
				m.Scenario("checkout").Interactions[0].Spans[0].SumExecTime = -1
			},
			code: ErrNegativeExecTime,
		},
		{
			name: "trace count drifts from applied ids",
			corrupt: func(m *model.Model) {
				m.Scenario("browse").TotalTraceCount = 7
			},
			code: ErrTraceCount,
		},
		{
			name: "unsorted applied ids",
			corrupt: func(m *model.Model) {
				in := m.Scenario("checkout").Interactions[0]
				in.AppliedTraceIDs = model.IDSet{3, 1, 2}
			},
			code: ErrAppliedIDs,
		},
		{
			name: "unsorted static applied keys",
			corrupt: func(m *model.Model) {
				m.Static.StaticApplied = model.KeySet{"b", "a"}
			},
			code: ErrAppliedIDs,
		},
		{
			name: "unclosed span",
			corrupt: func(m *model.Model) {
				m.Scenario("browse").Interactions[0].Spans[1].CloseMessage = -1
			},
			code: ErrUnclosedSpan,
		},
		{
			name: "span on unknown participant",
			corrupt: func(m *model.Model) {
				m.Scenario("browse").Interactions[0].Spans[1].Participant = "ghost"
			},
			code: ErrUnknownParticipant,
		},
		{
			name: "missing entry span",
			corrupt: func(m *model.Model) {
				in := m.Scenario("browse").Interactions[0]
				for _, sp := range in.Spans {
					if sp.Key == model.EntryKey {
						sp.Key.Index = 99
					}
				}
			},
			code: ErrMissingEntrySpan,
		},
		{
			name: "participant references unknown component",
			corrupt: func(m *model.Model) {
				m.Scenario("browse").Interactions[0].Participants[1].ComponentRef = "Nowhere"
			},
			code: ErrUnknownComponent,
		},
		{
			name: "dangling static edge",
			corrupt: func(m *model.Model) {
				m.Static.Usages = append(m.Static.Usages, model.Edge{From: "x()", To: "y()"})
			},
			code: ErrDanglingStaticEdge,
		},
		{
			name: "duplicate static element",
			corrupt: func(m *model.Model) {
				m.Static.Nodes = append(m.Static.Nodes, &model.Node{Name: testutil.DefaultHost})
			},
			code: ErrDuplicateStaticEntry,
		},
	}

	v := MustNew()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := mergedModel(t)
			tt.corrupt(m)

			errs := v.Check(m)
			require.NotEmpty(t, errs)
			assert.Contains(t, codes(errs), tt.code)
		})
	}
}

func TestValidator_Schema(t *testing.T) {
	tests := []struct {
		name    string
		corrupt func(m *model.Model)
		field   string
	}{
		{
			name: "actor does not match scenario",
			corrupt: func(m *model.Model) {
				m.Scenario("checkout").Actor = "someone"
			},
			field: "actor",
		},
		{
			name: "interaction name format",
			corrupt: func(m *model.Model) {
				m.Scenario("checkout").Interactions[0].Name = "first"
			},
			field: "name",
		},
		{
			name: "message kind",
			corrupt: func(m *model.Model) {
				m.Scenario("checkout").Interactions[0].Messages[0].Kind = "return"
			},
			field: "kind",
		},
		{
			name: "latest end before earliest start",
			corrupt: func(m *model.Model) {
				s := m.Scenario("checkout")
				s.LatestEnd = s.EarliestStart - 1
			},
			field: "latest_end",
		},
	}

	v := MustNew()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := mergedModel(t)
			tt.corrupt(m)

			var schemaErrs []ValidationError
			for _, e := range v.Check(m) {
				if e.Code == ErrSchema {
					schemaErrs = append(schemaErrs, e)
				}
			}
			require.NotEmpty(t, schemaErrs)
			assert.Contains(t, schemaErrs[0].Field, tt.field)
		})
	}
}

func TestValidator_ValidateReturnsError(t *testing.T) {
	m := mergedModel(t)
	m.Scenario("browse").TotalTraceCount = 0

	err := MustNew().Validate(context.Background(), m)
	require.Error(t, err)

	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, codes(verr.Errors), ErrTraceCount)
	assert.Contains(t, err.Error(), "invalid model")
}

func TestValidator_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, MustNew().Validate(ctx, model.New()), context.Canceled)
}

// A session opened with the validator refuses a corrupted stored model.
func TestValidator_GuardsSessionOpen(t *testing.T) {
	m := mergedModel(t)
	m.Scenario("checkout").Interactions[0].Spans[0].SampleCount = 0

	_, err := engine.Open(context.Background(), staticStore{m}, engine.WithValidator(MustNew()))
	require.Error(t, err)
	var verr *Error
	assert.True(t, errors.As(err, &verr))
}

type staticStore struct{ m *model.Model }

func (s staticStore) Load(context.Context) (*model.Model, error) { return s.m, nil }
func (s staticStore) Save(context.Context, *model.Model) error   { return nil }

// Trace ids restart with every monitoring run. A new shape arriving under
// a reused id still contributes its components, so the model stays valid.
func TestValidator_AcceptsModelAfterReusedTraceIDs(t *testing.T) {
	ctx := context.Background()
	sess, err := engine.Open(ctx, staticStore{model.New()}, engine.WithValidator(MustNew()))
	require.NoError(t, err)

	_, err = sess.Merge(ctx, "checkout", testutil.SimpleTrace(1))
	require.NoError(t, err)
	res, err := sess.Merge(ctx, "checkout", testutil.NestedTrace(1))
	require.NoError(t, err)
	assert.True(t, res.Created())
	assert.True(t, res.StaticApplied)
	assert.True(t, res.DeploymentApplied)

	res, err = sess.Merge(ctx, "checkout", testutil.SimpleTrace(7))
	require.NoError(t, err)
	assert.False(t, res.StaticApplied, "known shape adds no architecture facts")
	assert.False(t, res.DeploymentApplied)

	assert.NotNil(t, sess.Model().Static.FindComponent("C"))
	assert.NoError(t, sess.Close(ctx))
}
