package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spruceid/treeldr-sub002/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool
	Filter string // glob over scenario file names, without extension
}

// ScenarioResult is the outcome of one scenario file.
type ScenarioResult struct {
	Name string `json:"name"`
	Pass bool   `json:"pass"`
	// Code is the hydration or validation error code the scenario ended
	// with; empty when it produced a value or could not run.
	Code   string   `json:"code,omitempty"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult aggregates a test run.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

func (r *TestResult) add(s ScenarioResult) {
	r.Scenarios = append(r.Scenarios, s)
	r.Total++
	if s.Pass {
		r.Passed++
	} else {
		r.Failed++
	}
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run hydration scenarios",
		Long: `Run every YAML hydration scenario under a directory.

Each scenario declares its layouts, its datasets and the expected
outcome. When <scenarios-dir>/golden/<name>.golden exists, the canonical
JSON of the outcome must also match it byte for byte.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (missing directory, bad filter)`,
		Example: `  treeldr test ./scenarios
  treeldr test ./scenarios --filter "person-*"
  treeldr test ./scenarios --update`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "rewrite golden files from the current outcomes")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "only run scenarios whose file name matches this glob")

	return cmd
}

func runTests(ctx context.Context, opts *TestOptions, dir string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return NewExitError(ExitCommandError, "scenarios directory not found: "+dir)
	}
	if _, err := filepath.Match(opts.Filter, ""); err != nil {
		return WrapExitError(ExitCommandError, "invalid filter pattern", err)
	}

	files, err := findScenarioFiles(dir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	r := &scenarioRunner{
		opts:  opts,
		out:   cmd.OutOrStdout(),
		diag:  cmd.ErrOrStderr(),
		quiet: opts.Format == "json",
	}
	result := TestResult{Scenarios: []ScenarioResult{}}
	for _, file := range files {
		result.add(r.run(ctx, file))
	}

	if opts.Format == "json" {
		return outputTestJSON(r.out, result)
	}
	return outputTestText(r.out, result)
}

// findScenarioFiles lists the .yaml and .yml files under dir in lexical
// order, keeping those whose base name matches filter.
func findScenarioFiles(dir, filter string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			ok, err := filepath.Match(filter, strings.TrimSuffix(d.Name(), ext))
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !ok {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	return files, err
}

// scenarioRunner runs scenario files and prints one line per scenario in
// text mode.
type scenarioRunner struct {
	opts  *TestOptions
	out   io.Writer
	diag  io.Writer
	quiet bool
}

func (r *scenarioRunner) fail(name, code string, errs ...string) ScenarioResult {
	if !r.quiet {
		fmt.Fprintf(r.out, "✗ %s\n", name)
		for _, e := range errs {
			fmt.Fprintf(r.out, "  %s\n", e)
		}
	}
	return ScenarioResult{Name: name, Code: code, Errors: errs}
}

func (r *scenarioRunner) pass(name, code, note string) ScenarioResult {
	if !r.quiet {
		fmt.Fprintf(r.out, "✓ %s%s\n", name, note)
	}
	return ScenarioResult{Name: name, Pass: true, Code: code}
}

func (r *scenarioRunner) run(ctx context.Context, file string) ScenarioResult {
	scenario, err := harness.LoadScenario(file)
	if err != nil {
		return r.fail(filepath.Base(file), "", fmt.Sprintf("failed to load scenario: %v", err))
	}
	if r.opts.Verbose {
		fmt.Fprintf(r.diag, "Running scenario %s: %s\n", scenario.Name, scenario.Description)
	}

	result, err := harness.RunContext(ctx, scenario)
	if err != nil {
		return r.fail(scenario.Name, "", fmt.Sprintf("execution failed: %v", err))
	}
	code := result.ErrorCode

	snapshot := &harness.Snapshot{
		ScenarioName: scenario.Name,
		Value:        result.Value,
		ErrorCode:    result.ErrorCode,
	}
	note, err := r.golden(snapshot, goldenFilePath(file))
	if err != nil {
		return r.fail(scenario.Name, code, err.Error())
	}
	if !result.Pass {
		return r.fail(scenario.Name, code, result.Errors...)
	}
	return r.pass(scenario.Name, code, note)
}

// golden writes the snapshot in update mode, otherwise compares it with
// the golden file when there is one.
func (r *scenarioRunner) golden(snapshot *harness.Snapshot, path string) (string, error) {
	data, err := snapshot.Marshal()
	if err != nil {
		return "", fmt.Errorf("failed to marshal outcome: %w", err)
	}

	if r.opts.Update {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return "", fmt.Errorf("failed to create golden directory: %w", err)
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return "", fmt.Errorf("failed to write golden file: %w", err)
		}
		return " (golden updated)", nil
	}

	want, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "", nil
	case err != nil:
		return "", fmt.Errorf("failed to read golden file: %w", err)
	case !bytes.Equal(want, data):
		return "", errors.New("golden file mismatch (run with --update to regenerate)")
	}
	return "", nil
}

// goldenFilePath maps dir/name.yaml to dir/golden/name.golden.
func goldenFilePath(scenarioFile string) string {
	base := filepath.Base(scenarioFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(scenarioFile), "golden", name+".golden")
}

func outputTestJSON(w io.Writer, result TestResult) error {
	resp := CLIResponse{Status: "ok", Data: result}
	if result.Failed > 0 {
		resp.Status = "error"
		resp.Error = &CLIError{
			Code:    "E_TEST_FAILED",
			Message: fmt.Sprintf("%d scenario(s) failed", result.Failed),
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		return err
	}
	if result.Failed > 0 {
		return NewExitError(ExitFailure, resp.Error.Message)
	}
	return nil
}

func outputTestText(w io.Writer, result TestResult) error {
	if result.Total == 0 {
		fmt.Fprintln(w, "No scenarios found.")
		return nil
	}

	fmt.Fprintf(w, "\nTest Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	fmt.Fprintln(w, "✓ All scenarios passed")
	return nil
}
