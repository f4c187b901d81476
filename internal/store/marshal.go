package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/perfmodel/internal/digest"
	"github.com/roach88/perfmodel/internal/trace"
)

// marshalTrace converts a trace to canonical JSON TEXT for storage.
// Uses RFC 8785 canonical JSON so the same trace always stores the same
// bytes.
func marshalTrace(t *trace.Trace) (string, error) {
	if t == nil {
		return "", fmt.Errorf("marshal trace: nil trace")
	}
	data, err := digest.Canonical(t)
	if err != nil {
		return "", fmt.Errorf("marshal trace: %w", err)
	}
	return string(data), nil
}

// unmarshalTrace parses stored trace JSON.
func unmarshalTrace(data string) (*trace.Trace, error) {
	var t trace.Trace
	if err := json.Unmarshal([]byte(data), &t); err != nil {
		return nil, fmt.Errorf("unmarshal trace: %w", err)
	}
	return &t, nil
}
