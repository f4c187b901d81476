package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/perfmodel/internal/trace"
)

// traceDocument is one document of a trace file. Either Traces is set or
// the document itself is a single trace.
type traceDocument struct {
	Traces []*trace.Trace `json:"traces" yaml:"traces"`

	trace.Trace `yaml:",inline"`
}

// batch returns the traces the document holds.
func (d *traceDocument) batch() []*trace.Trace {
	if d.Traces != nil {
		return d.Traces
	}
	t := d.Trace
	return []*trace.Trace{&t}
}

// DecodeTraces reads every trace in r. Traces are returned in file order.
func DecodeTraces(r io.Reader, format Format) ([]*trace.Trace, error) {
	var next func(*traceDocument) error
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		next = func(d *traceDocument) error { return dec.Decode(d) }
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		next = func(d *traceDocument) error { return dec.Decode(d) }
	default:
		return nil, fmt.Errorf("decode traces: unsupported format %q", format)
	}

	var out []*trace.Trace
	for doc := 1; ; doc++ {
		var d traceDocument
		err := next(&d)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode traces: document %d: %w", doc, err)
		}
		for _, t := range d.batch() {
			if err := t.Validate(); err != nil {
				return nil, fmt.Errorf("decode traces: document %d: %w", doc, err)
			}
			out = append(out, t)
		}
	}
	return out, nil
}

// DecodeTraceFile reads a trace file, inferring the format from its
// extension.
func DecodeTraceFile(path string) ([]*trace.Trace, error) {
	format, ok := FormatFromPath(path)
	if !ok {
		return nil, fmt.Errorf("%s: not a trace file (want .json, .yaml or .yml)", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	traces, err := DecodeTraces(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return traces, nil
}

// EncodeTraces writes traces as a single {"traces": [...]} document.
func EncodeTraces(w io.Writer, traces []*trace.Trace, format Format) error {
	doc := struct {
		Traces []*trace.Trace `json:"traces" yaml:"traces"`
	}{Traces: traces}
	return encode(w, doc, format)
}

func encode(w io.Writer, v any, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}
