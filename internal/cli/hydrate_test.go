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

func executeHydrate(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewHydrateCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func personArgs(extra ...string) []string {
	return append([]string{"--layouts", personLayouts, "--layout", personIRI}, extra...)
}

func TestHydrate_Text(t *testing.T) {
	output, err := executeHydrate(t, "text", personArgs("--dataset", peopleData, "https://example.org/alice")...)
	require.NoError(t, err)
	assert.Equal(t, `{"age":42,"name":"Alice"}`+"\n", output)
}

func TestHydrate_JSON(t *testing.T) {
	output, err := executeHydrate(t, "json", personArgs("--dataset", peopleData, "https://example.org/alice")...)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, map[string]any{"age": float64(42), "name": "Alice"}, resp.Data)
}

func TestHydrate_BlankInput(t *testing.T) {
	output, err := executeHydrate(t, "text", personArgs("--dataset", peopleData, "_:carol")...)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"Carol"}`+"\n", output)
}

func TestHydrate_SeveralDatasetsScopeBlankNodes(t *testing.T) {
	// _:carol of the second file is a different node.
	output, err := executeHydrate(t, "text", personArgs("--dataset", peopleData, "--dataset", moreData, "_:doc1-carol")...)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"Carol"}`+"\n", output)

	_, err = executeHydrate(t, "text", personArgs("--dataset", peopleData, "--dataset", moreData, "_:doc2-carol")...)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestHydrate_MissingData(t *testing.T) {
	output, err := executeHydrate(t, "text", personArgs("--dataset", peopleData, "https://example.org/dave")...)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, output, "Error [MISSING_DATA]")
}

func TestHydrate_MissingDataJSON(t *testing.T) {
	output, err := executeHydrate(t, "json", personArgs("--dataset", peopleData, "https://example.org/dave")...)
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "MISSING_DATA", resp.Error.Code)
}

func TestHydrate_InputCount(t *testing.T) {
	output, err := executeHydrate(t, "text", personArgs("--dataset", peopleData)...)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, output, "Error [INVALID_INPUT_COUNT]")
}

func TestHydrate_InvalidLayouts(t *testing.T) {
	output, err := executeHydrate(t, "text",
		"--layouts", invalidLayouts, "--layout", "https://example.org/layouts/Tags",
		"--dataset", peopleData, "https://example.org/alice")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, output, "Error [E201]")
}

func TestHydrate_CommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code string
	}{
		{"no dataset", personArgs("https://example.org/alice"), ErrCodeBadArgument},
		{"undeclared layout", []string{"--layouts", personLayouts, "--layout", "https://example.org/layouts/Nope", "--dataset", peopleData, "https://example.org/alice"}, ErrCodeBadArgument},
		{"negative limit", personArgs("--dataset", peopleData, "--max-depth", "-1", "https://example.org/alice"), ErrCodeBadArgument},
		{"missing dataset file", personArgs("--dataset", "/nonexistent.nq", "https://example.org/alice"), ErrCodeDataset},
		{"missing layouts", []string{"--layouts", "/nonexistent", "--layout", personIRI, "--dataset", peopleData, "https://example.org/alice"}, ErrCodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executeHydrate(t, "text", tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.code)
		})
	}
}

func TestHydrate_RequiredFlags(t *testing.T) {
	_, err := executeHydrate(t, "text", "--dataset", peopleData, "https://example.org/alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestHydrate_OutputFile(t *testing.T) {
	outFile := filepath.Join(t.TempDir(), "alice.json")

	_, err := executeHydrate(t, "text", personArgs("--dataset", peopleData, "-o", outFile, "https://example.org/alice")...)
	require.NoError(t, err)

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)
	assert.Equal(t, `{"age":42,"name":"Alice"}`, string(data))
}

func TestHydrate_Store(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "people.db")

	_, err := executeImport(t, "text", "--db", dbPath, "--keep-labels", peopleData)
	require.NoError(t, err)

	output, err := executeHydrate(t, "text", personArgs("--db", dbPath, "_:carol")...)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"Carol"}`+"\n", output)

	output, err = executeHydrate(t, "text", personArgs("--db", dbPath, "https://example.org/alice")...)
	require.NoError(t, err)
	assert.Equal(t, `{"age":42,"name":"Alice"}`+"\n", output)
}

func TestHydrate_StoreWithDataset(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "people.db")

	output, err := executeHydrate(t, "text", personArgs("--db", dbPath, "--dataset", peopleData, "https://example.org/alice")...)
	require.NoError(t, err)
	assert.Equal(t, `{"age":42,"name":"Alice"}`+"\n", output)
}
