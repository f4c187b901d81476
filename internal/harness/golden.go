package harness

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/perfmodel/internal/digest"
	"github.com/roach88/perfmodel/internal/model"
)

// Snapshot captures the merge log and model statistics of a scenario run.
// It holds no digests or timestamps of the run itself, so snapshots stay
// stable when hashing or storage details change.
type Snapshot struct {
	ScenarioName string             `json:"scenario_name"`
	SessionID    string             `json:"session_id,omitempty"`
	Log          []MergeEvent       `json:"log"`
	Scenarios    []ScenarioSnapshot `json:"scenarios"`
}

// ScenarioSnapshot is the statistics of one model scenario.
type ScenarioSnapshot struct {
	Name            string                `json:"name"`
	EarliestStart   int64                 `json:"earliest_start"`
	LatestEnd       int64                 `json:"latest_end"`
	TotalTraceCount int64                 `json:"total_trace_count"`
	Interactions    []InteractionSnapshot `json:"interactions"`
}

// InteractionSnapshot is the statistics of one interaction.
type InteractionSnapshot struct {
	Name            string         `json:"name"`
	AppliedTraceIDs []int64        `json:"applied_trace_ids"`
	Spans           []SpanSnapshot `json:"spans"`
}

// SpanSnapshot is the running statistics of one span.
type SpanSnapshot struct {
	Operation   string `json:"operation"`
	SampleCount int64  `json:"sample_count"`
	SumExecTime int64  `json:"sum_exec_time"`
}

// NewSnapshot builds the snapshot of a run.
func NewSnapshot(name, sessionID string, result *Result) Snapshot {
	s := Snapshot{
		ScenarioName: name,
		SessionID:    sessionID,
		Log:          result.Log,
		Scenarios:    []ScenarioSnapshot{},
	}
	if result.Model == nil {
		return s
	}
	for _, sc := range result.Model.Scenarios {
		s.Scenarios = append(s.Scenarios, scenarioSnapshot(sc))
	}
	return s
}

func scenarioSnapshot(sc *model.Scenario) ScenarioSnapshot {
	ss := ScenarioSnapshot{
		Name:            sc.Name,
		EarliestStart:   sc.EarliestStart,
		LatestEnd:       sc.LatestEnd,
		TotalTraceCount: sc.TotalTraceCount,
		Interactions:    []InteractionSnapshot{},
	}
	for _, in := range sc.Interactions {
		is := InteractionSnapshot{
			Name:            in.Name,
			AppliedTraceIDs: append([]int64{}, in.AppliedTraceIDs...),
			Spans:           []SpanSnapshot{},
		}
		for _, sp := range in.Spans {
			is.Spans = append(is.Spans, SpanSnapshot{
				Operation:   sp.Operation,
				SampleCount: sp.SampleCount,
				SumExecTime: sp.SumExecTime,
			})
		}
		ss.Interactions = append(ss.Interactions, is)
	}
	return ss
}

// Marshal renders the snapshot as indented canonical JSON with a trailing
// newline. Keys are sorted, so the output is byte-stable.
func (s Snapshot) Marshal() ([]byte, error) {
	canonical, err := digest.Canonical(s)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, canonical, "", "  "); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	return result, assertSnapshot(t, scenario.Name, NewSnapshot(scenario.Name, scenario.SessionID, result))
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()
	return assertSnapshot(t, scenarioName, NewSnapshot(scenarioName, "", result))
}

func assertSnapshot(t *testing.T, name string, snapshot Snapshot) error {
	t.Helper()

	data, err := snapshot.Marshal()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
