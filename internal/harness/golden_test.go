package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/perfmodel/internal/testutil"
)

// First run with -update to regenerate golden files:
//
//	go test ./internal/harness -run TestRunWithGolden -update
func TestRunWithGolden_CheckoutMerge(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata/scenarios", "checkout_merge.yaml"))
	require.NoError(t, err)

	result, err := RunWithGolden(t, scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestAssertGolden_FromResult(t *testing.T) {
	scenario := &Scenario{
		Name: "single_trace",
		Merges: []MergeStep{
			{Scenario: "checkout", Trace: testutil.SimpleTrace(1)},
		},
		Assertions: []Assertion{{Type: AssertModelValid}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	require.NoError(t, AssertGolden(t, "single_trace", result))
}

func TestSnapshot_MarshalIsCanonical(t *testing.T) {
	result := NewResult()
	result.AddMerge(MergeEvent{Seq: 1, Scenario: "s", TraceID: 1, Outcome: "created", Interaction: "Interaction-0"})

	data, err := NewSnapshot("tiny", "", result).Marshal()
	require.NoError(t, err)

	want := `{
  "log": [
    {
      "interaction": "Interaction-0",
      "outcome": "created",
      "scenario": "s",
      "seq": 1,
      "trace_id": 1
    }
  ],
  "scenario_name": "tiny",
  "scenarios": []
}
`
	assert.Equal(t, want, string(data))
}

func TestSnapshot_Deterministic(t *testing.T) {
	scenario := &Scenario{
		Name: "snapshot_determinism",
		Merges: []MergeStep{
			{Scenario: "checkout", Trace: testutil.NestedTrace(1)},
		},
		Assertions: []Assertion{{Type: AssertModelValid}},
	}

	var outputs []string
	for range 3 {
		result, err := Run(scenario)
		require.NoError(t, err)
		data, err := NewSnapshot(scenario.Name, "", result).Marshal()
		require.NoError(t, err)
		outputs = append(outputs, string(data))
	}
	assert.Equal(t, outputs[0], outputs[1])
	assert.Equal(t, outputs[1], outputs[2])
}
