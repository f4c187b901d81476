package codec

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/perfmodel/internal/testutil"
	"github.com/roach88/perfmodel/internal/trace"
)

const singleJSON = `{
  "id": 7,
  "start": 0,
  "end": 100,
  "messages": [
    {"kind": "call",
     "sender": {"component": "'Entry'", "component_type": "'Entry'", "signature": "'Entry'", "tin": 0, "tout": 100},
     "receiver": {"component": "A", "component_type": "shop.A", "signature": "foo()", "container": "host-1", "tin": 0, "tout": 100}},
    {"kind": "reply",
     "sender": {"component": "A", "component_type": "shop.A", "signature": "foo()", "container": "host-1", "tin": 0, "tout": 100},
     "receiver": {"component": "'Entry'", "component_type": "'Entry'", "signature": "'Entry'", "tin": 0, "tout": 100}}
  ]
}`

const batchYAML = `traces:
  - id: 1
    start: 0
    end: 10
    messages:
      - kind: call
        sender: {component: "'Entry'", component_type: "'Entry'", signature: "'Entry'", tin: 0, tout: 10}
        receiver: {component: A, component_type: A, signature: x(), tin: 0, tout: 10}
      - kind: reply
        sender: {component: A, component_type: A, signature: x(), tin: 0, tout: 10}
        receiver: {component: "'Entry'", component_type: "'Entry'", signature: "'Entry'", tin: 0, tout: 10}
---
id: 2
start: 5
end: 15
messages:
  - kind: call
    sender: {component: "'Entry'", component_type: "'Entry'", signature: "'Entry'", tin: 5, tout: 15}
    receiver: {component: A, component_type: A, signature: x(), tin: 5, tout: 15}
  - kind: reply
    sender: {component: A, component_type: A, signature: x(), tin: 5, tout: 15}
    receiver: {component: "'Entry'", component_type: "'Entry'", signature: "'Entry'", tin: 5, tout: 15}
`

func TestDecodeTraces_SingleJSON(t *testing.T) {
	traces, err := DecodeTraces(strings.NewReader(singleJSON), FormatJSON)
	require.NoError(t, err)
	require.Len(t, traces, 1)

	tr := traces[0]
	assert.Equal(t, int64(7), tr.ID)
	assert.Equal(t, int64(100), tr.Duration())
	require.Len(t, tr.Messages, 2)
	assert.Equal(t, trace.Call, tr.Messages[0].Kind)
	assert.True(t, tr.Messages[0].Sender.IsEntry())
	assert.Equal(t, "shop.A.foo()", tr.Messages[0].Receiver.QualifiedSignature())
	assert.Equal(t, "host-1", tr.Messages[0].Receiver.Container)
}

func TestDecodeTraces_YAMLDocumentsAndBatches(t *testing.T) {
	traces, err := DecodeTraces(strings.NewReader(batchYAML), FormatYAML)
	require.NoError(t, err)
	require.Len(t, traces, 2)
	assert.Equal(t, int64(1), traces[0].ID)
	assert.Equal(t, int64(2), traces[1].ID)
	assert.Equal(t, trace.Fingerprint(traces[0]), trace.Fingerprint(traces[1]))
}

func TestDecodeTraces_JSONStream(t *testing.T) {
	stream := singleJSON + "\n" + strings.Replace(singleJSON, `"id": 7`, `"id": 8`, 1)

	traces, err := DecodeTraces(strings.NewReader(stream), FormatJSON)
	require.NoError(t, err)
	require.Len(t, traces, 2)
	assert.Equal(t, int64(8), traces[1].ID)
}

func TestDecodeTraces_Errors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		format Format
		errMsg string
	}{
		{
			name:   "unknown field",
			input:  `{"id": 1, "messages": [], "bogus": true}`,
			format: FormatJSON,
			errMsg: "bogus",
		},
		{
			name:   "no messages",
			input:  `{"id": 3, "start": 0, "end": 1, "messages": []}`,
			format: FormatJSON,
			errMsg: "no messages",
		},
		{
			name:   "starts with reply",
			input:  "id: 4\nmessages:\n  - kind: reply\n",
			format: FormatYAML,
			errMsg: "first message must be a call",
		},
		{
			name:   "unknown kind",
			input:  "id: 5\nmessages:\n  - kind: call\n  - kind: return\n",
			format: FormatYAML,
			errMsg: "unknown kind",
		},
		{
			name:   "unsupported format",
			input:  "",
			format: Format("xml"),
			errMsg: "unsupported format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeTraces(strings.NewReader(tt.input), tt.format)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestEncodeTraces_DecodesBack(t *testing.T) {
	for _, format := range []Format{FormatJSON, FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			in := []*trace.Trace{testutil.SimpleTrace(1), testutil.NestedTrace(2)}

			var buf bytes.Buffer
			require.NoError(t, EncodeTraces(&buf, in, format))

			out, err := DecodeTraces(&buf, format)
			require.NoError(t, err)
			assert.Equal(t, in, out)
		})
	}
}

func TestDecodeTraceFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "traces.yml")
	require.NoError(t, os.WriteFile(path, []byte(batchYAML), 0o644))

	traces, err := DecodeTraceFile(path)
	require.NoError(t, err)
	assert.Len(t, traces, 2)

	_, err = DecodeTraceFile(filepath.Join(dir, "traces.txt"))
	assert.ErrorContains(t, err, "not a trace file")
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{"JSON", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"yml", FormatYAML, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestFormatFromPath(t *testing.T) {
	f, ok := FormatFromPath("a/b/TRACE.YAML")
	assert.True(t, ok)
	assert.Equal(t, FormatYAML, f)

	_, ok = FormatFromPath("notes.md")
	assert.False(t, ok)
}
