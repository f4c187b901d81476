// Package store provides SQLite-backed durable storage for merged
// performance models and the merge log they were built from.
//
// The store holds two kinds of data:
//   - Model tables: one snapshot of the model, rewritten in full by Save
//   - merge_log: append-only record of every merge, keyed by seq
//
// # Critical Patterns
//
// Atomic snapshots
//   - Save clears and rewrites every model table in one transaction
//   - A failed Save leaves the previous snapshot intact
//
// Logical identity and time
//   - merge_log ordering uses seq INTEGER (logical clock), never timestamps
//   - Traces are stored as RFC 8785 canonical JSON for deterministic replay
//
// Deterministic query results
//   - Every list is stored with an explicit position and read ORDER BY it
//   - A loaded model is deep-equal to the saved one
//
// Annotations projection
//   - The annotations table is the flattened (owner, namespace, key) view
//     of the model produced by model.Project
//   - Only the Reference and GaScenario namespaces are read back; the
//     rest are recomputed from typed columns
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Memory offers the same contract without SQLite for tests and dry runs.
package store
