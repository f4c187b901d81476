package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/perfmodel/internal/codec"
	"github.com/roach88/perfmodel/internal/testutil"
	"github.com/roach88/perfmodel/internal/trace"
)

// testEnv is an isolated workspace: a config file, a database path and a
// directory for trace files.
type testEnv struct {
	dir    string
	db     string
	config string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", dir)

	env := &testEnv{
		dir:    dir,
		db:     filepath.Join(dir, "model.db"),
		config: filepath.Join(dir, "perfmodel.yaml"),
	}
	env.writeConfig(t, "scenario:\n  default: checkout\nlog:\n  level: warn\n")
	return env
}

func (e *testEnv) writeConfig(t *testing.T, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(e.config, []byte(content), 0o644))
}

// writeTraces writes traces to name under the env directory. The format
// follows the file extension.
func (e *testEnv) writeTraces(t *testing.T, name string, traces ...*trace.Trace) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))

	format, ok := codec.FormatFromPath(path)
	require.True(t, ok, "not a trace file name: %s", name)

	var buf bytes.Buffer
	require.NoError(t, codec.EncodeTraces(&buf, traces, format))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

// run executes the root command with --config and --db set, and returns
// stdout and stderr.
func (e *testEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", e.config, "--db", e.db}, args...))
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// misnestedTrace replies to the entry while A's call to B is still open.
func misnestedTrace(id int64) *trace.Trace {
	entry := testutil.Entry(0, 100)
	a := testutil.Exec("A", "foo()", 0, 100)
	b := testutil.Exec("B", "bar()", 20, 60)
	return testutil.NewTrace(id, 0, 100).
		Call(entry, a).
		Call(a, b).
		Reply(a, entry).
		Reply(b, a).
		Build()
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
