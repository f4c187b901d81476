// Package harness provides conformance testing for the merge engine.
//
// A scenario merges a fixed sequence of traces into a fresh store and
// checks the resulting model. Scenarios are YAML files:
//
//	name: nested_calls
//	description: "What this scenario validates"
//	session_id: fixed-session
//	merges:
//	  - scenario: checkout
//	    file: traces/nested.yaml
//	    expect:
//	      outcome: created
//	  - scenario: checkout
//	    trace: { id: 2, start: 0, end: 100, messages: [...] }
//	    expect:
//	      error: STRUCTURAL_MISMATCH
//	assertions:
//	  - type: interaction_count
//	    scenario: checkout
//	    count: 1
//	  - type: span_stats
//	    scenario: checkout
//	    operation: B.b()
//	    samples: 1
//	    sum: 40
//
// # Assertion Types
//
//   - interaction_count: number of interactions in a scenario
//   - applied_ids: trace ids merged into an interaction
//   - span_stats: sample count, sum and mean of the span for an operation
//   - arrival_rate: open arrival rate of a scenario
//   - static_contains: a component, interface, artifact or node exists
//   - static_edge: a realize, manifest, deploy or use edge exists
//   - outcome_count: number of merges with an outcome
//   - model_valid: the model passes the validator
//
// # Deterministic Testing
//
// Every run uses a fixed session id, a deterministic logical clock and an
// in-memory SQLite store. The model the assertions see is the one loaded
// back from the store after the session closed, and the merge log is
// replayed and compared against it, so each scenario also exercises
// persistence and replay.
//
// Golden snapshots (testdata/golden/<name>.golden) capture the merge log
// and the statistics of the final model as canonical JSON.
package harness
