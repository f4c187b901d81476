// Package trace defines the reconstructed execution traces consumed by the
// merge engine and the structural fingerprint that identifies them.
//
// A Trace is an ordered list of call and reply messages between executions.
// Order is significant and assumed causally correct; nesting is implicit in
// that order and is recovered later by the engine.
//
// This package imports nothing internal. The engine, codec, and store
// packages build on it.
//
// Key constraints:
//   - Traces are immutable once received
//   - Timestamps are int64 nanoseconds
//   - Fingerprints never depend on timestamps, trace ids, or instance data
//   - All JSON/YAML tags use snake_case
package trace
