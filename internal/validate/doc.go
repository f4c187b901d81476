// Package validate checks merged models for structural consistency.
//
// Two layers run on every check:
//   - Schema: the exported model view is unified with an embedded CUE
//     schema (field shapes, name formats, closed spans, non-negative
//     statistics)
//   - Rules: cross-reference checks CUE cannot express (ownership,
//     fingerprint uniqueness, sample counts, dangling references)
//
// Validator implements the engine's validation boundary and is run when a
// session opens a stored model and before it saves one.
package validate
