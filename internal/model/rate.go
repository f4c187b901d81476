package model

import (
	"errors"

	"github.com/cockroachdb/apd/v3"
)

// DefaultRateScale is the number of fractional digits of an arrival rate.
const DefaultRateScale = 20

// ErrUndefinedArrivalRate is returned when a scenario has no traces or no
// elapsed time between its earliest start and latest end.
var ErrUndefinedArrivalRate = errors.New("arrival rate undefined: no elapsed time")

// OpenArrivalRate returns TotalTraceCount / (LatestEnd - EarliestStart) in
// traces per nanosecond, rounded half-up to scale fractional digits.
func (s *Scenario) OpenArrivalRate(scale int32) (*apd.Decimal, error) {
	elapsed := s.LatestEnd - s.EarliestStart
	if s.TotalTraceCount == 0 || elapsed <= 0 {
		return nil, ErrUndefinedArrivalRate
	}

	ctx := apd.BaseContext.WithPrecision(uint32(40 + scale))
	ctx.Rounding = apd.RoundHalfUp

	var rate apd.Decimal
	if _, err := ctx.Quo(&rate, apd.New(s.TotalTraceCount, 0), apd.New(elapsed, 0)); err != nil {
		return nil, err
	}
	if _, err := ctx.Quantize(&rate, &rate, -scale); err != nil {
		return nil, err
	}
	return &rate, nil
}

// WorkloadPattern renders the open workload pattern "open:<rate>".
func (s *Scenario) WorkloadPattern(scale int32) (string, error) {
	rate, err := s.OpenArrivalRate(scale)
	if err != nil {
		return "", err
	}
	return "open:" + rate.Text('f'), nil
}
