// Package digest produces stable content digests for fingerprints and
// persisted models.
//
// Digests are SHA-256 over canonical JSON (RFC 8785 key order, NFC strings,
// integers only) with a versioned domain prefix. The merge log stores
// fingerprint digests so replay can detect drift, and model digests let
// two stores be compared without diffing their contents.
package digest
