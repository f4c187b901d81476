package model

import (
	"fmt"

	"github.com/roach88/perfmodel/internal/trace"
)

// Model is the root of the merged graph.
type Model struct {
	Scenarios []*Scenario  `json:"scenarios" yaml:"scenarios"`
	Static    *StaticGraph `json:"static" yaml:"static"`
}

// New returns an empty model.
func New() *Model {
	return &Model{Static: NewStaticGraph()}
}

// Scenario returns the scenario named name, or nil.
func (m *Model) Scenario(name string) *Scenario {
	for _, s := range m.Scenarios {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// AddScenario appends a new empty scenario. The caller checks that name is
// not already taken.
func (m *Model) AddScenario(name string) *Scenario {
	s := &Scenario{
		Name:  name,
		Actor: ActorName(name),
	}
	s.Annotations.Set(NSGaScenario, "name", name)
	m.Scenarios = append(m.Scenarios, s)
	return s
}

// ActorName returns the name of the entry actor of a scenario.
func ActorName(scenario string) string {
	return trace.EntryName + "-" + scenario
}

// Scenario groups the structurally distinct interactions of one use case.
//
// EarliestStart and LatestEnd are meaningful only once TotalTraceCount > 0.
type Scenario struct {
	Name            string         `json:"name" yaml:"name"`
	Actor           string         `json:"actor" yaml:"actor"`
	Interactions    []*Interaction `json:"interactions" yaml:"interactions"`
	EarliestStart   int64          `json:"earliest_start" yaml:"earliest_start"`
	LatestEnd       int64          `json:"latest_end" yaml:"latest_end"`
	TotalTraceCount int64          `json:"total_trace_count" yaml:"total_trace_count"`
	Annotations     Annotations    `json:"annotations,omitempty" yaml:"annotations,omitempty"`
}

// FindInteractions returns every interaction whose fingerprint is fp.
// More than one result means the model is already inconsistent.
func (s *Scenario) FindInteractions(fp string) []*Interaction {
	var out []*Interaction
	for _, in := range s.Interactions {
		if in.Fingerprint == fp {
			out = append(out, in)
		}
	}
	return out
}

// AddInteraction appends a new empty interaction owned by s.
func (s *Scenario) AddInteraction(fp string) *Interaction {
	in := &Interaction{
		Name:        fmt.Sprintf("Interaction-%d", len(s.Interactions)),
		Scenario:    s.Name,
		Fingerprint: fp,
	}
	s.Interactions = append(s.Interactions, in)
	return in
}

// Observe widens the observed time window and counts one more trace.
func (s *Scenario) Observe(start, end int64) {
	if s.TotalTraceCount == 0 {
		s.EarliestStart, s.LatestEnd = start, end
	} else {
		s.EarliestStart = min(s.EarliestStart, start)
		s.LatestEnd = max(s.LatestEnd, end)
	}
	s.TotalTraceCount++
}

// Interaction is one structurally distinct behaviour pattern. All traces
// with the same fingerprint share it.
type Interaction struct {
	Name string `json:"name" yaml:"name"`

	// Scenario is the name of the owning scenario.
	Scenario string `json:"scenario" yaml:"scenario"`

	Fingerprint     string           `json:"fingerprint" yaml:"fingerprint"`
	AppliedTraceIDs IDSet            `json:"applied_trace_ids" yaml:"applied_trace_ids"`
	Participants    []*Participant   `json:"participants" yaml:"participants"`
	Spans           []*Span          `json:"spans" yaml:"spans"`
	Messages        []*MergedMessage `json:"messages" yaml:"messages"`
}

// Participant returns the participant named name, or nil.
func (in *Interaction) Participant(name string) *Participant {
	for _, p := range in.Participants {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Span returns the span with key k, or nil.
func (in *Interaction) Span(k SpanKey) *Span {
	for _, sp := range in.Spans {
		if sp.Key == k {
			return sp
		}
	}
	return nil
}

// EntrySpan returns the synthetic entry span, or nil before reconstruction.
func (in *Interaction) EntrySpan() *Span {
	return in.Span(EntryKey)
}

// SpanIndex maps every span key to its span.
func (in *Interaction) SpanIndex() map[SpanKey]*Span {
	idx := make(map[SpanKey]*Span, len(in.Spans))
	for _, sp := range in.Spans {
		idx[sp.Key] = sp
	}
	return idx
}

// Participant is one component instance active within an interaction.
type Participant struct {
	Name string `json:"name" yaml:"name"`

	// ComponentRef names the static-graph component this participant
	// represents, or the scenario actor for the entry participant.
	ComponentRef string `json:"component_ref" yaml:"component_ref"`

	Annotations Annotations `json:"annotations,omitempty" yaml:"annotations,omitempty"`
}

// SpanKey identifies a span within an interaction.
type SpanKey struct {
	Representation string `json:"representation" yaml:"representation"`

	// Index is the position of the opening message, or trace.EntryIndex.
	Index int `json:"index" yaml:"index"`
}

// EntryKey is the key of the synthetic entry span.
var EntryKey = SpanKey{Representation: trace.EntryRepresentation, Index: trace.EntryIndex}

// String renders the key as "<representation>#<index>".
func (k SpanKey) String() string {
	return fmt.Sprintf("%s#%d", k.Representation, k.Index)
}

// Span is a modeled operation activation with running statistics.
type Span struct {
	Key SpanKey `json:"key" yaml:"key"`

	// Participant is the name of the participant the span runs on.
	Participant string `json:"participant" yaml:"participant"`

	// Operation is the qualified signature of the activation.
	Operation string `json:"operation" yaml:"operation"`

	OpenMessage  int `json:"open_message" yaml:"open_message"`
	CloseMessage int `json:"close_message" yaml:"close_message"`

	SampleCount int64 `json:"sample_count" yaml:"sample_count"`
	SumExecTime int64 `json:"sum_exec_time" yaml:"sum_exec_time"`
}

// Record adds one net-time sample.
func (sp *Span) Record(net int64) {
	sp.SumExecTime += net
	sp.SampleCount++
}

// MeanExecTime returns SumExecTime / SampleCount, or 0 with no samples.
func (sp *Span) MeanExecTime() float64 {
	if sp.SampleCount == 0 {
		return 0
	}
	return float64(sp.SumExecTime) / float64(sp.SampleCount)
}

// MergedMessage is one call or reply of an interaction.
type MergedMessage struct {
	Key      SpanKey    `json:"key" yaml:"key"`
	Kind     trace.Kind `json:"kind" yaml:"kind"`
	Sender   string     `json:"sender" yaml:"sender"`
	Receiver string     `json:"receiver" yaml:"receiver"`

	// Label is the interface name of the receiving operation.
	Label string `json:"label" yaml:"label"`

	Annotations Annotations `json:"annotations,omitempty" yaml:"annotations,omitempty"`
}
