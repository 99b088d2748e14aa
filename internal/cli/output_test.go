package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeResponse(t *testing.T, buf *bytes.Buffer) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	return resp
}

func TestOutputFormatter_JSON(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		buf := &bytes.Buffer{}
		f := &OutputFormatter{Format: "json", Writer: buf}

		require.NoError(t, f.Success(map[string]any{"name": "Alice"}))

		resp := decodeResponse(t, buf)
		assert.Equal(t, "ok", resp.Status)
		assert.Nil(t, resp.Error)
		assert.Equal(t, map[string]any{"name": "Alice"}, resp.Data)
	})

	t.Run("error", func(t *testing.T) {
		buf := &bytes.Buffer{}
		f := &OutputFormatter{Format: "json", Writer: buf}

		require.NoError(t, f.Error("MISSING_DATA", "no solution for field name", []string{"name"}))

		resp := decodeResponse(t, buf)
		assert.Equal(t, "error", resp.Status)
		assert.Nil(t, resp.Data)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "MISSING_DATA", resp.Error.Code)
		assert.Equal(t, "no solution for field name", resp.Error.Message)
		assert.Equal(t, []any{"name"}, resp.Error.Details)
	})

	t.Run("one document per line", func(t *testing.T) {
		buf := &bytes.Buffer{}
		f := &OutputFormatter{Format: "json", Writer: buf}

		require.NoError(t, f.Success(1))
		require.NoError(t, f.Success(2))
		assert.Equal(t, "{\"status\":\"ok\",\"data\":1}\n{\"status\":\"ok\",\"data\":2}\n", buf.String())
	})
}

func TestOutputFormatter_Text(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		write   func(*OutputFormatter) error
		want    string
	}{
		{
			name:  "success",
			write: func(f *OutputFormatter) error { return f.Success(`{"name":"Alice"}`) },
			want:  "{\"name\":\"Alice\"}\n",
		},
		{
			name:  "error hides details",
			write: func(f *OutputFormatter) error { return f.Error("E201", "unknown layout", "Person.friend") },
			want:  "Error [E201]: unknown layout\n",
		},
		{
			name:    "verbose error shows details",
			verbose: true,
			write:   func(f *OutputFormatter) error { return f.Error("E201", "unknown layout", "Person.friend") },
			want:    "Error [E201]: unknown layout\nDetails: Person.friend\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			f := &OutputFormatter{Format: "text", Writer: buf, Verbose: tt.verbose}
			require.NoError(t, tt.write(f))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestOutputFormatter_Fail(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: buf}

	err := f.Fail(ExitCommandError, ErrCodeNotFound, "layouts not found: missing.cue")

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, ExitCommandError, exitErr.Code)
	assert.Equal(t, "E005: layouts not found: missing.cue", exitErr.Error())

	resp := decodeResponse(t, buf)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	for _, verbose := range []bool{false, true} {
		stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
		f := &OutputFormatter{Format: "json", Writer: stdout, ErrWriter: stderr, Verbose: verbose}

		f.VerboseLog("Loaded %d statement(s) from %s", 6, "people.nq")

		assert.Empty(t, stdout.String(), "diagnostics never reach stdout")
		if verbose {
			assert.Equal(t, "Loaded 6 statement(s) from people.nq\n", stderr.String())
		} else {
			assert.Empty(t, stderr.String())
		}
	}
}

func TestOutputFormatter_VerboseLogFallsBackToWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: buf, Verbose: true}

	f.VerboseLog("Hydrating %s", "Person")
	assert.Equal(t, "Hydrating Person\n", buf.String())
}

func TestOutputFormatter_Logger(t *testing.T) {
	stderr := &bytes.Buffer{}

	quiet := &OutputFormatter{Format: "json", Writer: &bytes.Buffer{}, ErrWriter: stderr}
	quiet.Logger().Debug("hydrating layout", "depth", 0)
	assert.Empty(t, stderr.String(), "debug records need --verbose")

	verbose := &OutputFormatter{Format: "json", Writer: &bytes.Buffer{}, ErrWriter: stderr, Verbose: true}
	verbose.Logger().Debug("hydrating layout", "depth", 0)
	assert.Contains(t, stderr.String(), "hydrating layout")
	assert.Contains(t, stderr.String(), "depth=0")
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitCommandError, GetExitCode(errors.New(`unknown flag: --bogus`)))
	assert.Equal(t, ExitFailure, GetExitCode(NewExitError(ExitFailure, "validation failed with 1 error(s)")))

	wrapped := fmt.Errorf("hydrate: %w", WrapExitError(ExitFailure, "hydration failed", errors.New("MISSING_DATA")))
	assert.Equal(t, ExitFailure, GetExitCode(wrapped))
	assert.Equal(t, "hydrate: hydration failed: MISSING_DATA", wrapped.Error())
}
