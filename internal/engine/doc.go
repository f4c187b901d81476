// Package engine merges execution traces into a performance model.
//
// Per trace, Session.Merge runs:
//
//  1. Fingerprint the trace (package trace)
//  2. Find or create the scenario and the interaction with that fingerprint
//  3. For a new interaction, reconstruct participants, messages and nested
//     spans from the flat call/reply list
//  4. Unless the trace id was already applied, compute per-call net
//     execution times and fold them into the span statistics
//  5. Merge components, interfaces, artifacts and nodes into the static
//     graph, deduplicated by fingerprint digest per view
//  6. Append a merge-log record, if a recorder is configured
//
// SINGLE WRITER:
// The steps above are a chain of dependent find-or-create reads and
// writes. Session serializes merges with one mutex; producers that want
// asynchronous ingestion Enqueue traces and let Run drain them on one
// goroutine.
//
// ATOMICITY:
// Every merge runs inside a model.Txn. Any error (a MergeError from the
// engine or a recorder failure) rolls the model back to its pre-merge
// state before Merge returns.
//
// Errors are typed: IsStructuralMismatch, IsNegativeDuration and
// IsMissingOwnership classify them. A duplicate trace id is not an error;
// it yields OutcomeDuplicate.
package engine
