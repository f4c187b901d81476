package codec

import (
	"errors"
	"fmt"
	"io"

	"github.com/cockroachdb/apd/v3"

	"github.com/roach88/perfmodel/internal/digest"
	"github.com/roach88/perfmodel/internal/model"
)

// ExportVersion is the version of the export view layout.
const ExportVersion = "1"

// meanScale is the number of fractional digits of exported mean times.
const meanScale = 3

// ModelView is the exported form of a model.
type ModelView struct {
	Version   string             `json:"version" yaml:"version"`
	Digest    string             `json:"digest" yaml:"digest"`
	Scenarios []ScenarioView     `json:"scenarios" yaml:"scenarios"`
	Static    *model.StaticGraph `json:"static" yaml:"static"`
}

// ScenarioView is one exported scenario. ArrivalRate and WorkloadPattern
// are empty while the rate is undefined.
type ScenarioView struct {
	Name            string            `json:"name" yaml:"name"`
	Actor           string            `json:"actor" yaml:"actor"`
	EarliestStart   int64             `json:"earliest_start" yaml:"earliest_start"`
	LatestEnd       int64             `json:"latest_end" yaml:"latest_end"`
	TotalTraceCount int64             `json:"total_trace_count" yaml:"total_trace_count"`
	ArrivalRate     string            `json:"arrival_rate,omitempty" yaml:"arrival_rate,omitempty"`
	WorkloadPattern string            `json:"workload_pattern,omitempty" yaml:"workload_pattern,omitempty"`
	Interactions    []InteractionView `json:"interactions" yaml:"interactions"`
}

// InteractionView is one exported interaction.
type InteractionView struct {
	Name              string            `json:"name" yaml:"name"`
	Fingerprint       string            `json:"fingerprint" yaml:"fingerprint"`
	FingerprintDigest string            `json:"fingerprint_digest" yaml:"fingerprint_digest"`
	AppliedTraceIDs   []int64           `json:"applied_trace_ids" yaml:"applied_trace_ids"`
	Participants      []ParticipantView `json:"participants" yaml:"participants"`
	Spans             []SpanView        `json:"spans" yaml:"spans"`
	Messages          []MessageView     `json:"messages" yaml:"messages"`
}

type ParticipantView struct {
	Name         string `json:"name" yaml:"name"`
	ComponentRef string `json:"component_ref" yaml:"component_ref"`
}

// SpanView is one exported span. MeanExecTime is a decimal string in
// nanoseconds, rounded half-up.
type SpanView struct {
	Key          string `json:"key" yaml:"key"`
	Participant  string `json:"participant" yaml:"participant"`
	Operation    string `json:"operation" yaml:"operation"`
	OpenMessage  int    `json:"open_message" yaml:"open_message"`
	CloseMessage int    `json:"close_message" yaml:"close_message"`
	SampleCount  int64  `json:"sample_count" yaml:"sample_count"`
	SumExecTime  int64  `json:"sum_exec_time" yaml:"sum_exec_time"`
	MeanExecTime string `json:"mean_exec_time" yaml:"mean_exec_time"`
}

type MessageView struct {
	Index    int    `json:"index" yaml:"index"`
	Kind     string `json:"kind" yaml:"kind"`
	Sender   string `json:"sender" yaml:"sender"`
	Receiver string `json:"receiver" yaml:"receiver"`
	Label    string `json:"label" yaml:"label"`
}

// NewModelView builds the export view of m. scale is the arrival-rate
// scale.
func NewModelView(m *model.Model, scale int32) (*ModelView, error) {
	d, err := digest.Model(m)
	if err != nil {
		return nil, fmt.Errorf("export model: %w", err)
	}
	v := &ModelView{
		Version:   ExportVersion,
		Digest:    d,
		Scenarios: make([]ScenarioView, 0, len(m.Scenarios)),
		Static:    m.Static,
	}
	for _, s := range m.Scenarios {
		sv, err := scenarioView(s, scale)
		if err != nil {
			return nil, fmt.Errorf("export scenario %s: %w", s.Name, err)
		}
		v.Scenarios = append(v.Scenarios, sv)
	}
	return v, nil
}

// EncodeModel writes the export view of m to w.
func EncodeModel(w io.Writer, m *model.Model, scale int32, format Format) error {
	v, err := NewModelView(m, scale)
	if err != nil {
		return err
	}
	if err := encode(w, v, format); err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	return nil
}

func scenarioView(s *model.Scenario, scale int32) (ScenarioView, error) {
	sv := ScenarioView{
		Name:            s.Name,
		Actor:           s.Actor,
		EarliestStart:   s.EarliestStart,
		LatestEnd:       s.LatestEnd,
		TotalTraceCount: s.TotalTraceCount,
		Interactions:    make([]InteractionView, 0, len(s.Interactions)),
	}
	rate, err := s.OpenArrivalRate(scale)
	switch {
	case errors.Is(err, model.ErrUndefinedArrivalRate):
	case err != nil:
		return sv, err
	default:
		sv.ArrivalRate = rate.Text('f')
		sv.WorkloadPattern = "open:" + sv.ArrivalRate
	}

	for _, in := range s.Interactions {
		iv, err := interactionView(in)
		if err != nil {
			return sv, fmt.Errorf("%s: %w", in.Name, err)
		}
		sv.Interactions = append(sv.Interactions, iv)
	}
	return sv, nil
}

func interactionView(in *model.Interaction) (InteractionView, error) {
	iv := InteractionView{
		Name:              in.Name,
		Fingerprint:       in.Fingerprint,
		FingerprintDigest: digest.Fingerprint(in.Fingerprint),
		AppliedTraceIDs:   append([]int64{}, in.AppliedTraceIDs...),
		Participants:      make([]ParticipantView, 0, len(in.Participants)),
		Spans:             make([]SpanView, 0, len(in.Spans)),
		Messages:          make([]MessageView, 0, len(in.Messages)),
	}
	for _, p := range in.Participants {
		iv.Participants = append(iv.Participants, ParticipantView{Name: p.Name, ComponentRef: p.ComponentRef})
	}
	for _, sp := range in.Spans {
		mean, err := meanExecTime(sp)
		if err != nil {
			return iv, fmt.Errorf("span %s: %w", sp.Key, err)
		}
		iv.Spans = append(iv.Spans, SpanView{
			Key:          sp.Key.String(),
			Participant:  sp.Participant,
			Operation:    sp.Operation,
			OpenMessage:  sp.OpenMessage,
			CloseMessage: sp.CloseMessage,
			SampleCount:  sp.SampleCount,
			SumExecTime:  sp.SumExecTime,
			MeanExecTime: mean,
		})
	}
	for _, msg := range in.Messages {
		iv.Messages = append(iv.Messages, MessageView{
			Index:    msg.Key.Index,
			Kind:     string(msg.Kind),
			Sender:   msg.Sender,
			Receiver: msg.Receiver,
			Label:    msg.Label,
		})
	}
	return iv, nil
}

// meanExecTime renders SumExecTime / SampleCount with meanScale digits.
func meanExecTime(sp *model.Span) (string, error) {
	if sp.SampleCount == 0 {
		return "0", nil
	}
	ctx := apd.BaseContext.WithPrecision(40)
	ctx.Rounding = apd.RoundHalfUp

	var mean apd.Decimal
	if _, err := ctx.Quo(&mean, apd.New(sp.SumExecTime, 0), apd.New(sp.SampleCount, 0)); err != nil {
		return "", err
	}
	if _, err := ctx.Quantize(&mean, &mean, -meanScale); err != nil {
		return "", err
	}
	return mean.Text('f'), nil
}
