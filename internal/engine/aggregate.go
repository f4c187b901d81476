package engine

import (
	"log/slog"

	"github.com/roach88/perfmodel/internal/model"
	"github.com/roach88/perfmodel/internal/trace"
)

// aggregator folds the net execution times of one trace into the running
// statistics of an interaction and its scenario.
type aggregator struct {
	clampZeroEntry bool
}

type sample struct {
	span *model.Span
	net  int64
}

// applyTrace merges t into in. It returns applied=false when t.ID was
// already merged. Every net time is computed and checked before anything
// is mutated.
func (a aggregator) applyTrace(s *model.Scenario, in *model.Interaction, t *trace.Trace, fp string) (bool, error) {
	if fp != in.Fingerprint {
		err := structuralMismatch(t.ID, in.Name, "fingerprint does not match interaction")
		err.Fingerprint = fp
		return false, err
	}
	if in.Scenario != s.Name {
		return false, missingOwnership(t.ID, in.Name, "interaction is not owned by scenario %q", s.Name)
	}

	guard := dedupGuard{applied: &in.AppliedTraceIDs}
	if guard.seen(t.ID) {
		slog.Info("duplicate trace skipped",
			"trace_id", t.ID,
			"scenario", s.Name,
			"interaction", in.Name,
		)
		return false, nil
	}

	samples, err := a.netTimes(in, t)
	if err != nil {
		return false, err
	}

	for _, smp := range samples {
		smp.span.Record(smp.net)
	}
	s.Observe(t.Start, t.End)
	guard.mark(t.ID)
	return true, nil
}

func (a aggregator) netTimes(in *model.Interaction, t *trace.Trace) ([]sample, error) {
	children := make(map[trace.Execution]int64)
	for _, msg := range t.Messages {
		if msg.Kind == trace.Call {
			children[msg.Sender] += msg.Receiver.Total()
		}
	}

	idx := in.SpanIndex()
	samples := make([]sample, 0, len(t.Messages)/2+1)
	for i, msg := range t.Messages {
		if msg.Kind != trace.Call {
			continue
		}
		key := model.SpanKey{
			Representation: trace.SpanRepresentation(trace.MessageRepresentation(msg)),
			Index:          i,
		}
		total := msg.Receiver.Total()
		child := children[msg.Receiver]
		net := total - child
		if net < 0 {
			return nil, negativeDuration(t.ID, key.String(), total, child, net)
		}
		span, ok := idx[key]
		if !ok {
			return nil, structuralMismatch(t.ID, key.String(), "no span for call message %d", i)
		}
		samples = append(samples, sample{span: span, net: net})
	}

	first := t.Messages[0].Receiver.Total()
	entryNet := t.Duration() - first
	if entryNet < 0 {
		return nil, negativeDuration(t.ID, model.EntryKey.String(), t.Duration(), first, entryNet)
	}
	if entryNet == 0 && a.clampZeroEntry {
		entryNet = 1
	}
	entry, ok := idx[model.EntryKey]
	if !ok {
		return nil, structuralMismatch(t.ID, model.EntryKey.String(), "interaction has no entry span")
	}
	return append(samples, sample{span: entry, net: entryNet}), nil
}
