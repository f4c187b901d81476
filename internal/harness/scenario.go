package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/perfmodel/internal/codec"
	"github.com/roach88/perfmodel/internal/trace"
)

// Scenario defines a conformance test scenario.
// Scenarios merge a fixed sequence of traces and assert on the resulting
// model and merge log.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// SessionID is an optional fixed session id for deterministic tests.
	// If empty, defaults to "test-session-default".
	SessionID string `yaml:"session_id,omitempty"`

	// ClampZeroEntry overrides the zero entry-time clamp. Nil means on.
	ClampZeroEntry *bool `yaml:"clamp_zero_entry,omitempty"`

	// RateScale overrides the arrival-rate scale. Zero means the default.
	RateScale int32 `yaml:"rate_scale,omitempty"`

	// Merges lists the traces to merge, in order.
	Merges []MergeStep `yaml:"merges"`

	// Assertions validate the final model and merge log.
	Assertions []Assertion `yaml:"assertions"`
}

// MergeStep merges the traces of one file, or one inline trace, into a
// scenario.
type MergeStep struct {
	// Scenario is the model scenario the traces are merged into.
	Scenario string `yaml:"scenario"`

	// File is a trace file. Relative paths are resolved against the
	// scenario file's directory.
	File string `yaml:"file,omitempty"`

	// Trace is an inline trace.
	Trace *trace.Trace `yaml:"trace,omitempty"`

	// Expect applies to every trace of the step.
	// If nil, every merge is expected to succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected merge result.
type ExpectClause struct {
	// Outcome is created, merged or duplicate.
	Outcome string `yaml:"outcome,omitempty"`

	// Error is the expected merge error code, e.g. STRUCTURAL_MISMATCH.
	Error string `yaml:"error,omitempty"`

	// Interaction is the expected interaction name.
	Interaction string `yaml:"interaction,omitempty"`
}

// Assertion validates the final model or merge log.
type Assertion struct {
	// Type specifies the assertion type, one of the Assert* constants.
	Type string `yaml:"type"`

	Scenario    string `yaml:"scenario,omitempty"`
	Interaction string `yaml:"interaction,omitempty"`

	// Operation selects a span by qualified signature (span_stats).
	Operation string `yaml:"operation,omitempty"`

	// Count is the expected number (interaction_count, outcome_count).
	Count int `yaml:"count,omitempty"`

	// Outcome is the merge outcome counted (outcome_count).
	Outcome string `yaml:"outcome,omitempty"`

	// Expected span statistics (span_stats). Mean is a decimal string.
	Samples int64  `yaml:"samples,omitempty"`
	Sum     int64  `yaml:"sum,omitempty"`
	Mean    string `yaml:"mean,omitempty"`

	// Rate is the expected arrival rate (arrival_rate).
	Rate string `yaml:"rate,omitempty"`

	// IDs are the expected applied trace ids (applied_ids).
	IDs []int64 `yaml:"ids,omitempty"`

	// Kind is the element kind (static_contains) or edge kind (static_edge).
	Kind string `yaml:"kind,omitempty"`
	Name string `yaml:"name,omitempty"`
	From string `yaml:"from,omitempty"`
	To   string `yaml:"to,omitempty"`
}

// Assertion type constants.
const (
	AssertInteractionCount = "interaction_count"
	AssertAppliedIDs       = "applied_ids"
	AssertSpanStats        = "span_stats"
	AssertArrivalRate      = "arrival_rate"
	AssertStaticContains   = "static_contains"
	AssertStaticEdge       = "static_edge"
	AssertOutcomeCount     = "outcome_count"
	AssertModelValid       = "model_valid"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// Trace file paths are resolved against the scenario file's directory.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving trace file paths relative to the provided base path.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	for i, step := range scenario.Merges {
		if step.File != "" && !filepath.IsAbs(step.File) && basePath != "" {
			scenario.Merges[i].File = filepath.Join(basePath, step.File)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// traces returns the traces a step merges.
func (s MergeStep) traces() ([]*trace.Trace, error) {
	if s.Trace != nil {
		if err := s.Trace.Validate(); err != nil {
			return nil, err
		}
		return []*trace.Trace{s.Trace}, nil
	}
	return codec.DecodeTraceFile(s.File)
}

// validateScenario checks required fields and assertion shapes.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Merges) == 0 {
		return fmt.Errorf("merges list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	if s.RateScale < 0 {
		return fmt.Errorf("rate_scale must be non-negative")
	}

	for i, step := range s.Merges {
		if step.Scenario == "" {
			return fmt.Errorf("merges[%d]: scenario is required", i)
		}
		if (step.File == "") == (step.Trace == nil) {
			return fmt.Errorf("merges[%d]: exactly one of file or trace is required", i)
		}
		if step.File != "" {
			if _, err := os.Stat(step.File); os.IsNotExist(err) {
				return fmt.Errorf("merges[%d]: trace file not found: %s", i, step.File)
			}
		}
		if e := step.Expect; e != nil {
			if e.Outcome != "" && e.Error != "" {
				return fmt.Errorf("merges[%d].expect: outcome and error are exclusive", i)
			}
			if e.Outcome == "" && e.Error == "" && e.Interaction == "" {
				return fmt.Errorf("merges[%d].expect: outcome, error or interaction is required", i)
			}
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	needScenario := func() error {
		if a.Scenario == "" {
			return fmt.Errorf("assertions[%d]: scenario is required for %s", index, a.Type)
		}
		return nil
	}

	switch a.Type {
	case AssertInteractionCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
		return needScenario()
	case AssertAppliedIDs:
		if a.Interaction == "" {
			return fmt.Errorf("assertions[%d]: interaction is required for applied_ids", index)
		}
		return needScenario()
	case AssertSpanStats:
		if a.Operation == "" {
			return fmt.Errorf("assertions[%d]: operation is required for span_stats", index)
		}
		return needScenario()
	case AssertArrivalRate:
		if a.Rate == "" {
			return fmt.Errorf("assertions[%d]: rate is required for arrival_rate", index)
		}
		return needScenario()
	case AssertStaticContains:
		if a.Kind == "" || a.Name == "" {
			return fmt.Errorf("assertions[%d]: kind and name are required for static_contains", index)
		}
	case AssertStaticEdge:
		if a.Kind == "" || a.From == "" || a.To == "" {
			return fmt.Errorf("assertions[%d]: kind, from and to are required for static_edge", index)
		}
	case AssertOutcomeCount:
		if a.Outcome == "" {
			return fmt.Errorf("assertions[%d]: outcome is required for outcome_count", index)
		}
	case AssertModelValid:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
