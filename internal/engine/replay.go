package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/perfmodel/internal/digest"
	"github.com/roach88/perfmodel/internal/model"
)

// Replay and idempotency
//
// A merge log holds every trace a model was built from, in seq order,
// together with the outcome and fingerprint digest observed at the time.
// Replaying the log into an empty model goes through the ordinary Merge
// path. Because merges are deterministic and duplicate trace ids are
// no-ops, the replayed model must equal the stored one; any difference
// means the stored model was changed outside the engine or the merge
// semantics drifted.

// ReplayMismatch is one record whose replay disagreed with the log.
type ReplayMismatch struct {
	Seq     int64  `json:"seq"`
	TraceID int64  `json:"trace_id"`
	Field   string `json:"field"`
	Logged  string `json:"logged"`
	Replay  string `json:"replayed"`
}

// ReplayReport summarizes a replay.
type ReplayReport struct {
	Model      *model.Model     `json:"-"`
	Records    int              `json:"records"`
	Mismatches []ReplayMismatch `json:"mismatches,omitempty"`
}

// OK reports whether every record replayed as logged.
func (r *ReplayReport) OK() bool { return len(r.Mismatches) == 0 }

// Replay re-merges records, in the order given, into an empty model.
// opts configure the replay session; a recorder must not be passed.
func Replay(ctx context.Context, records []Record, opts ...Option) (*ReplayReport, error) {
	sess := NewSession(nil, opts...)
	report := &ReplayReport{Records: len(records)}

	for _, rec := range records {
		if rec.Trace == nil {
			return nil, fmt.Errorf("record %d: no trace", rec.Seq)
		}
		res, err := sess.Merge(ctx, rec.Scenario, rec.Trace)
		if err != nil {
			return nil, fmt.Errorf("replay record %d: %w", rec.Seq, err)
		}

		if res.Outcome != rec.Outcome {
			report.Mismatches = append(report.Mismatches, ReplayMismatch{
				Seq: rec.Seq, TraceID: rec.TraceID, Field: "outcome",
				Logged: string(rec.Outcome), Replay: string(res.Outcome),
			})
		}
		if d := digest.Fingerprint(res.Fingerprint); d != rec.FingerprintDigest {
			report.Mismatches = append(report.Mismatches, ReplayMismatch{
				Seq: rec.Seq, TraceID: rec.TraceID, Field: "fingerprint_digest",
				Logged: rec.FingerprintDigest, Replay: d,
			})
		}
	}

	report.Model = sess.Model()
	slog.Info("replay finished",
		"records", report.Records,
		"mismatches", len(report.Mismatches),
	)
	return report, nil
}
