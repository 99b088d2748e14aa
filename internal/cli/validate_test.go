package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeValidate(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestValidateValidLayouts(t *testing.T) {
	output, err := executeValidate(t, "text", personLayouts)
	require.NoError(t, err)
	assert.Contains(t, output, "✓ 3 layout(s) valid")
}

func TestValidateValidLayoutsJSON(t *testing.T) {
	output, err := executeValidate(t, "json", personLayouts)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, data["valid"])
	assert.Equal(t, float64(3), data["layouts"])
}

func TestValidateDirectory(t *testing.T) {
	output, err := executeValidate(t, "text", splitLayouts)
	require.NoError(t, err)
	assert.Contains(t, output, "✓ 2 layout(s) valid")
}

func TestValidateRecursiveLayoutWarns(t *testing.T) {
	output, err := executeValidate(t, "text", recursiveLayouts)
	require.NoError(t, err)
	assert.Contains(t, output, "✓ 2 layout(s) valid")
	assert.Contains(t, output, "warning: Self-recursive layout: "+personIRI)
}

func TestValidateInvalidLayouts(t *testing.T) {
	output, err := executeValidate(t, "text", invalidLayouts)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "validation failed with 1 error(s)")
	assert.Contains(t, output, "✗ Validation failed")
	assert.Contains(t, output, "E201")
}

func TestValidateInvalidLayoutsJSON(t *testing.T) {
	output, err := executeValidate(t, "json", invalidLayouts)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E201", resp.Error.Code)
}

func TestValidateNonExistentPath(t *testing.T) {
	output, err := executeValidate(t, "text", "/nonexistent/directory/path")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "E005") // ErrCodeNotFound
	assert.Contains(t, output, "not found")
}

func TestValidateEmptyDirectory(t *testing.T) {
	_, err := executeValidate(t, "text", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "E003")
}

func TestValidateMalformed(t *testing.T) {
	_, err := executeValidate(t, "text", malformedLayouts)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "E006")
}

func TestValidateMissingArgs(t *testing.T) {
	_, err := executeValidate(t, "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}
