package model

import (
	"testing"

	"github.com/cockroachdb/apd/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenArrivalRate_TwoTracesOverHundredNanos(t *testing.T) {
	s := &Scenario{Name: "checkout"}
	s.Observe(0, 100)
	s.Observe(0, 100)

	rate, err := s.OpenArrivalRate(DefaultRateScale)
	require.NoError(t, err)

	assert.Zero(t, rate.Cmp(apd.New(2, -2)), "rate = %s", rate)
	assert.Equal(t, "0.02000000000000000000", rate.Text('f'))
}

func TestOpenArrivalRate_RoundsHalfUp(t *testing.T) {
	s := &Scenario{TotalTraceCount: 2, EarliestStart: 0, LatestEnd: 3}

	rate, err := s.OpenArrivalRate(2)
	require.NoError(t, err)
	assert.Equal(t, "0.67", rate.Text('f'))

	s = &Scenario{TotalTraceCount: 1, EarliestStart: 0, LatestEnd: 8}
	rate, err = s.OpenArrivalRate(2)
	require.NoError(t, err)
	assert.Equal(t, "0.13", rate.Text('f'), "0.125 rounds half-up")
}

func TestOpenArrivalRate_Undefined(t *testing.T) {
	_, err := (&Scenario{}).OpenArrivalRate(DefaultRateScale)
	assert.ErrorIs(t, err, ErrUndefinedArrivalRate)

	s := &Scenario{}
	s.Observe(50, 50)
	_, err = s.OpenArrivalRate(DefaultRateScale)
	assert.ErrorIs(t, err, ErrUndefinedArrivalRate)
}

func TestWorkloadPattern(t *testing.T) {
	s := &Scenario{TotalTraceCount: 1, EarliestStart: 10, LatestEnd: 14}

	p, err := s.WorkloadPattern(3)
	require.NoError(t, err)
	assert.Equal(t, "open:0.250", p)
}

func TestObserve_WidensWindow(t *testing.T) {
	s := &Scenario{}
	s.Observe(100, 200)
	s.Observe(50, 150)
	s.Observe(120, 300)

	assert.Equal(t, int64(50), s.EarliestStart)
	assert.Equal(t, int64(300), s.LatestEnd)
	assert.Equal(t, int64(3), s.TotalTraceCount)
}
