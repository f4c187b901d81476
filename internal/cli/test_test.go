package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const harnessScenarios = "../harness/testdata/scenarios"

func TestTestCommandMissingArgs(t *testing.T) {
	env := newTestEnv(t)
	_, _, err := env.run(t, "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	env := newTestEnv(t)
	_, _, err := env.run(t, "test", filepath.Join(env.dir, "missing"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommandEmptyScenariosDir(t *testing.T) {
	env := newTestEnv(t)
	dir := filepath.Join(env.dir, "scenarios")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	out, _, err := env.run(t, "test", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")

	out, _, err = env.run(t, "--format", "json", "test", dir)
	require.NoError(t, err)
	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 0, resp.Data.Total)
}

func TestTestCommandRunsHarnessScenarios(t *testing.T) {
	env := newTestEnv(t)
	out, _, err := env.run(t, "test", harnessScenarios, "--golden-dir", filepath.Join(env.dir, "golden"))
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ checkout_merge")
	assert.Contains(t, out, "✓ structural_mismatch")
	assert.Contains(t, out, "Test Summary: 2 passed, 0 failed, 2 total")
}

func TestTestCommandFilter(t *testing.T) {
	env := newTestEnv(t)
	out, _, err := env.run(t, "--format", "json", "test", harnessScenarios,
		"--filter", "structural*", "--golden-dir", filepath.Join(env.dir, "golden"))
	require.NoError(t, err)

	var resp struct {
		Data TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Scenarios, 1)
	assert.Equal(t, "structural_mismatch", resp.Data.Scenarios[0].Name)
	assert.True(t, resp.Data.Scenarios[0].Pass)
}

func TestTestCommandGoldenUpdateAndCompare(t *testing.T) {
	env := newTestEnv(t)
	goldenDir := filepath.Join(env.dir, "golden")
	args := []string{"test", harnessScenarios, "--filter", "checkout*", "--golden-dir", goldenDir}

	_, _, err := env.run(t, append(args, "--update")...)
	require.NoError(t, err)
	goldenPath := filepath.Join(goldenDir, "checkout_merge.golden")
	require.FileExists(t, goldenPath)

	// The regenerated snapshot matches the harness package's own golden.
	written, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	expected, err := os.ReadFile("../harness/testdata/golden/checkout_merge.golden")
	require.NoError(t, err)
	assert.Equal(t, string(expected), string(written))

	_, _, err = env.run(t, args...)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(goldenPath, []byte("{}\n"), 0o644))
	out, _, err := env.run(t, args...)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "does not match golden file")
}

func TestTestCommandFailingScenario(t *testing.T) {
	env := newTestEnv(t)
	dir := filepath.Join(env.dir, "scenarios")
	nested, err := filepath.Abs("../harness/testdata/traces/nested.yaml")
	require.NoError(t, err)
	writeFile(t, filepath.Join(dir, "wrong.yaml"), `name: wrong
merges:
  - scenario: checkout
    file: `+nested+`
assertions:
  - type: interaction_count
    scenario: checkout
    count: 3
`)

	out, _, err := env.run(t, "--format", "json", "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeTestFailed, resp.Error.Code)
	assert.Equal(t, 1, resp.Data.Failed)
	require.NotEmpty(t, resp.Data.Scenarios[0].Errors)
	assert.Contains(t, resp.Data.Scenarios[0].Errors[0], "interaction_count")
}

func TestTestCommandLoadError(t *testing.T) {
	env := newTestEnv(t)
	dir := filepath.Join(env.dir, "scenarios")
	writeFile(t, filepath.Join(dir, "broken.yaml"), "name: broken\n")

	out, _, err := env.run(t, "test", dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, "failed to load scenario")
}

func TestFindScenarioFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.yaml"), "")
	writeFile(t, filepath.Join(dir, "b.yml"), "")
	writeFile(t, filepath.Join(dir, "notes.txt"), "")
	writeFile(t, filepath.Join(dir, "traces", "t.yaml"), "")

	files, err := findScenarioFiles(dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.yaml"), filepath.Join(dir, "b.yml")}, files)

	files, err = findScenarioFiles(dir, "b*")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "b.yml")}, files)

	_, err = findScenarioFiles(dir, "[")
	require.Error(t, err)
}
