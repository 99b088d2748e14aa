package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scenariosDir = filepath.Join("testdata", "scenarios")

func executeTest(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewTestCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// copyScenario copies a scenario file into dir.
func copyScenario(t *testing.T, name, dir string) {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(scenariosDir, name+".yaml"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".yaml"), data, 0644))
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, err := executeTest(t, "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	_, err := executeTest(t, "text", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommandEmptyDir(t *testing.T) {
	output, err := executeTest(t, "text", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, output, "No scenarios found.")
}

func TestTestCommandPasses(t *testing.T) {
	output, err := executeTest(t, "text", scenariosDir)
	require.NoError(t, err)

	assert.Contains(t, output, "✓ person")
	assert.Contains(t, output, "✓ missing")
	assert.Contains(t, output, "Test Summary: 2 passed, 0 failed, 2 total")
	assert.Contains(t, output, "✓ All scenarios passed")
}

func TestTestCommandJSON(t *testing.T) {
	output, err := executeTest(t, "json", scenariosDir)
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, 2, resp.Data.Passed)

	require.Len(t, resp.Data.Scenarios, 2)
	assert.Equal(t, "missing", resp.Data.Scenarios[0].Name)
	assert.Equal(t, "MISSING_DATA", resp.Data.Scenarios[0].Code)
	assert.Equal(t, "person", resp.Data.Scenarios[1].Name)
	assert.Empty(t, resp.Data.Scenarios[1].Code)
}

func TestTestCommandFilter(t *testing.T) {
	output, err := executeTest(t, "text", scenariosDir, "--filter", "miss*")
	require.NoError(t, err)

	assert.Contains(t, output, "✓ missing")
	assert.NotContains(t, output, "✓ person")
	assert.Contains(t, output, "1 total")
}

func TestTestCommandInvalidFilter(t *testing.T) {
	_, err := executeTest(t, "text", scenariosDir, "--filter", "[")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommandUpdate(t *testing.T) {
	dir := t.TempDir()
	copyScenario(t, "person", dir)

	output, err := executeTest(t, "text", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, output, "✓ person (golden updated)")

	data, err := os.ReadFile(filepath.Join(dir, "golden", "person.golden"))
	require.NoError(t, err)
	assert.Equal(t, `{"scenario":"person","value":{"name":"Alice"}}`, string(data))

	// The regenerated golden file now matches.
	_, err = executeTest(t, "text", dir)
	require.NoError(t, err)
}

func TestTestCommandGoldenMismatch(t *testing.T) {
	dir := t.TempDir()
	copyScenario(t, "person", dir)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "golden"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "golden", "person.golden"), []byte(`{"scenario":"person","value":{"name":"Bob"}}`), 0644))

	output, err := executeTest(t, "text", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, output, "✗ person")
	assert.Contains(t, output, "golden file mismatch")
	assert.Contains(t, output, "Test Summary: 0 passed, 1 failed, 1 total")
}

func TestTestCommandFailingScenario(t *testing.T) {
	dir := t.TempDir()
	scenario := `name: wrong
description: Expects a value the data does not hold
layouts: |
  layouts: "https://example.org/layouts/Text": {kind: "string", input: 1, resource: "?0"}
datasets: []
layout: https://example.org/layouts/Text
inputs: ["_:x"]
expect:
  value: hello
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wrong.yaml"), []byte(scenario), 0644))

	output, err := executeTest(t, "json", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "E_TEST_FAILED", resp.Error.Code)
	require.Len(t, resp.Data.Scenarios, 1)
	assert.False(t, resp.Data.Scenarios[0].Pass)
	assert.NotEmpty(t, resp.Data.Scenarios[0].Errors)
}

func TestTestCommandLoadError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("name: broken\nbogus: true\n"), 0644))

	output, err := executeTest(t, "text", dir)
	require.Error(t, err)
	assert.Contains(t, output, "✗ broken.yaml")
	assert.Contains(t, output, "failed to load scenario")
}

func TestFindScenarioFiles(t *testing.T) {
	files, err := findScenarioFiles(scenariosDir, "")
	require.NoError(t, err)
	assert.Len(t, files, 2)

	files, err = findScenarioFiles(scenariosDir, "person")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(scenariosDir, "person.yaml")}, files)
}

func TestGoldenFilePath(t *testing.T) {
	assert.Equal(t, filepath.Join("a", "golden", "b.golden"), goldenFilePath(filepath.Join("a", "b.yaml")))
}
