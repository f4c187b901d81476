package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/perfmodel/internal/digest"
	"github.com/roach88/perfmodel/internal/engine"
	"github.com/roach88/perfmodel/internal/model"
	"github.com/roach88/perfmodel/internal/store"
	"github.com/roach88/perfmodel/internal/testutil"
	"github.com/roach88/perfmodel/internal/validate"
)

// Harness is the test execution engine.
// It runs scenarios with a fixed session id and a deterministic clock.
type Harness struct {
	store     *store.Store
	session   *engine.Session
	validator *validate.Validator
	clock     *testutil.DeterministicClock
	logger    *slog.Logger
	clamp     bool
	rateScale int32
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
//  1. Open an in-memory store and a session over it
//  2. Merge every step and check its expect clause
//  3. Close the session, which validates and saves the model
//  4. Load the model back and replay the merge log against it
//  5. Evaluate assertions against the loaded model
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	rateScale := scenario.RateScale
	if rateScale == 0 {
		rateScale = model.DefaultRateScale
	}
	clamp := true
	if scenario.ClampZeroEntry != nil {
		clamp = *scenario.ClampZeroEntry
	}

	st, err := store.Open(":memory:", store.WithRateScale(rateScale))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	validator, err := validate.New(validate.WithRateScale(rateScale))
	if err != nil {
		return nil, fmt.Errorf("failed to create validator: %w", err)
	}

	clock := testutil.NewDeterministicClock()
	sess, err := engine.Open(ctx, st,
		engine.WithRecorder(st),
		engine.WithValidator(validator),
		engine.WithClock(clock),
		engine.WithSessionIDGenerator(testutil.NewFixedSessionGenerator(scenario.SessionID)),
		engine.WithClampZeroEntry(clamp),
		engine.WithRateScale(rateScale),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}

	h := &Harness{
		store:     st,
		session:   sess,
		validator: validator,
		clock:     clock,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
		clamp:     clamp,
		rateScale: rateScale,
	}

	result := NewResult()
	if err := h.executeMerges(ctx, scenario.Merges, result); err != nil {
		return nil, fmt.Errorf("failed to execute merges: %w", err)
	}

	if err := sess.Close(ctx); err != nil {
		return nil, fmt.Errorf("failed to close session: %w", err)
	}

	m, err := st.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load model: %w", err)
	}
	result.Model = m

	if err := h.checkReplay(ctx, m, result); err != nil {
		return nil, fmt.Errorf("failed to replay merge log: %w", err)
	}

	actx := &AssertionContext{
		Model:     m,
		Log:       result.Log,
		Validator: validator,
		RateScale: rateScale,
		Ctx:       ctx,
	}
	for _, errMsg := range EvaluateAssertions(scenario.Assertions, actx) {
		result.AddError(errMsg)
	}
	return result, nil
}

// executeMerges runs all merge steps and validates expect clauses.
//
// A failing merge is not a harness error: it is logged with its error code
// and compared against the step's expect clause.
func (h *Harness) executeMerges(ctx context.Context, steps []MergeStep, result *Result) error {
	for i, step := range steps {
		traces, err := step.traces()
		if err != nil {
			return fmt.Errorf("merge step %d: %w", i, err)
		}

		for _, t := range traces {
			res, err := h.session.Merge(ctx, step.Scenario, t)
			ev := MergeEvent{
				Seq:         res.Seq,
				Scenario:    step.Scenario,
				TraceID:     t.ID,
				Outcome:     string(res.Outcome),
				Interaction: res.Interaction,
			}
			if err != nil {
				var me *engine.MergeError
				if !errors.As(err, &me) {
					return fmt.Errorf("merge step %d: trace %d: %w", i, t.ID, err)
				}
				ev.Seq = 0
				ev.Interaction = ""
				ev.ErrorCode = string(me.Code)
			}
			result.AddMerge(ev)

			if msg := checkExpect(i, step.Expect, ev); msg != "" {
				result.AddError(msg)
			}

			h.logger.Info("merge step completed",
				"step", i,
				"scenario", step.Scenario,
				"trace_id", t.ID,
				"outcome", ev.Outcome,
				"error_code", ev.ErrorCode,
			)
		}
	}
	return nil
}

// checkExpect compares a merge against the step's expect clause.
// Without a clause every merge must succeed.
func checkExpect(step int, expect *ExpectClause, ev MergeEvent) string {
	if expect == nil || expect.Error == "" {
		if ev.ErrorCode != "" {
			return fmt.Sprintf("merge step %d: trace %d: unexpected error %s", step, ev.TraceID, ev.ErrorCode)
		}
	}
	if expect == nil {
		return ""
	}

	switch {
	case expect.Error != "" && ev.ErrorCode != expect.Error:
		return fmt.Sprintf("merge step %d: trace %d: expected error %s, got %q",
			step, ev.TraceID, expect.Error, ev.ErrorCode)
	case expect.Outcome != "" && ev.Outcome != expect.Outcome:
		return fmt.Sprintf("merge step %d: trace %d: expected outcome %s, got %s",
			step, ev.TraceID, expect.Outcome, ev.Outcome)
	case expect.Interaction != "" && ev.Interaction != expect.Interaction:
		return fmt.Sprintf("merge step %d: trace %d: expected interaction %s, got %q",
			step, ev.TraceID, expect.Interaction, ev.Interaction)
	}
	return ""
}

// checkReplay replays the stored merge log and compares the rebuilt model
// with the one loaded from the store.
func (h *Harness) checkReplay(ctx context.Context, m *model.Model, result *Result) error {
	records, err := h.store.ReadMergeLog(ctx)
	if err != nil {
		return err
	}
	report, err := engine.Replay(ctx, records,
		engine.WithSessionIDGenerator(testutil.NewFixedSessionGenerator("replay")),
		engine.WithClampZeroEntry(h.clamp),
		engine.WithRateScale(h.rateScale),
	)
	if err != nil {
		return err
	}
	for _, mm := range report.Mismatches {
		result.AddError(fmt.Sprintf("replay: seq %d: %s logged %s, replayed %s",
			mm.Seq, mm.Field, mm.Logged, mm.Replay))
	}

	want, err := digest.Model(m)
	if err != nil {
		return err
	}
	got, err := digest.Model(report.Model)
	if err != nil {
		return err
	}
	if want != got {
		result.AddError(fmt.Sprintf("replay: model digest %s, stored %s", got, want))
	}
	return nil
}
