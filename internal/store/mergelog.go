package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/perfmodel/internal/engine"
)

// Record appends rec to the merge log. The trace is stored in canonical
// JSON so identical traces are byte-identical in the log.
//
// A seq that is already logged is rejected; the caller seeds its clock
// from LastSeq.
func (s *Store) Record(ctx context.Context, rec engine.Record) error {
	traceJSON, err := marshalTrace(rec.Trace)
	if err != nil {
		return fmt.Errorf("record merge %d: %w", rec.Seq, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO merge_log (seq, session_id, scenario, trace_id, fingerprint_digest, outcome, trace_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.Seq, rec.SessionID, rec.Scenario, rec.TraceID, rec.FingerprintDigest,
		string(rec.Outcome), traceJSON)
	if err != nil {
		return fmt.Errorf("record merge %d: %w", rec.Seq, err)
	}
	return nil
}

// ReadMergeLog returns every logged merge in seq order.
func (s *Store) ReadMergeLog(ctx context.Context) ([]engine.Record, error) {
	return s.queryMergeLog(ctx, `
		SELECT seq, session_id, scenario, trace_id, fingerprint_digest, outcome, trace_json
		FROM merge_log ORDER BY seq ASC
	`)
}

// ReadSessionLog returns the merges logged by one session in seq order.
func (s *Store) ReadSessionLog(ctx context.Context, sessionID string) ([]engine.Record, error) {
	return s.queryMergeLog(ctx, `
		SELECT seq, session_id, scenario, trace_id, fingerprint_digest, outcome, trace_json
		FROM merge_log WHERE session_id = ? ORDER BY seq ASC
	`, sessionID)
}

// LastSeq returns the highest logged seq, or 0 for an empty log.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM merge_log`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq.Int64, nil
}

func (s *Store) queryMergeLog(ctx context.Context, query string, args ...any) ([]engine.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("read merge log: %w", err)
	}
	defer rows.Close()

	var records []engine.Record
	for rows.Next() {
		var rec engine.Record
		var outcome, traceJSON string
		if err := rows.Scan(&rec.Seq, &rec.SessionID, &rec.Scenario, &rec.TraceID,
			&rec.FingerprintDigest, &outcome, &traceJSON); err != nil {
			return nil, fmt.Errorf("scan merge log: %w", err)
		}
		rec.Outcome = engine.Outcome(outcome)

		t, err := unmarshalTrace(traceJSON)
		if err != nil {
			return nil, fmt.Errorf("merge %d: %w", rec.Seq, err)
		}
		rec.Trace = t
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read merge log: %w", err)
	}
	return records, nil
}
