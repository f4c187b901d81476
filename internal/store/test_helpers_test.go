package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"slices"
	"testing"

	"github.com/roach88/perfmodel/internal/engine"
	"github.com/roach88/perfmodel/internal/model"
	"github.com/roach88/perfmodel/internal/testutil"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// buildTestModel merges a few traces across two scenarios so every table
// has rows.
func buildTestModel(t *testing.T) *model.Model {
	t.Helper()
	ctx := context.Background()
	sess := engine.NewSession(nil,
		engine.WithSessionIDGenerator(testutil.NewFixedSessionGenerator("")),
		engine.WithClock(testutil.NewDeterministicClock()),
	)

	merges := []struct {
		scenario string
		id       int64
		nested   bool
	}{
		{"checkout", 1, false},
		{"checkout", 2, false},
		{"checkout", 3, true},
		{"browse", 4, true},
	}
	for _, m := range merges {
		tr := testutil.SimpleTrace(m.id)
		if m.nested {
			tr = testutil.NestedTrace(m.id)
		}
		if _, err := sess.Merge(ctx, m.scenario, tr); err != nil {
			t.Fatalf("Merge(%s, %d) failed: %v", m.scenario, m.id, err)
		}
	}
	return sess.Model()
}

// testRecord returns a merge-log record for a simple trace.
func testRecord(seq, traceID int64, outcome engine.Outcome) engine.Record {
	return engine.Record{
		Seq:               seq,
		SessionID:         "test-session",
		Scenario:          "checkout",
		TraceID:           traceID,
		FingerprintDigest: "digest",
		Outcome:           outcome,
		Trace:             testutil.SimpleTrace(traceID),
	}
}

// getTableColumns returns all column names for a table.
func getTableColumns(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()
	rows, err := db.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		t.Fatalf("failed to get table info: %v", err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var cid, notnull, pk int
		var name, ctype string
		var dfltValue sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			t.Fatalf("failed to scan column info: %v", err)
		}
		columns = append(columns, name)
	}
	return columns
}

// getTableIndexes returns all index names for a table.
func getTableIndexes(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()

	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='index' AND tbl_name=?", table)
	if err != nil {
		t.Fatalf("failed to get indexes for %q: %v", table, err)
	}
	defer rows.Close()

	var indexes []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("failed to scan index name: %v", err)
		}
		indexes = append(indexes, name)
	}
	return indexes
}

func contains(list []string, s string) bool {
	return slices.Contains(list, s)
}
