// Package codec reads trace files and writes model exports.
//
// Trace files hold already-reconstructed traces in JSON or YAML. A file is
// a stream of documents; each document is either one trace or a
// {"traces": [...]} batch. Every decoded trace is shape-checked with
// trace.Validate before it is returned.
//
// Model exports are a read-only view of the merged model with derived
// statistics (mean net execution time, open arrival rate) filled in. The
// view is what the CUE validator checks and what golden files snapshot.
package codec
