package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/spruceid/treeldr-sub002/internal/layout"
	"github.com/spruceid/treeldr-sub002/internal/rdf"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// LayoutSummary describes one compiled layout.
type LayoutSummary struct {
	IRI        string   `json:"iri"`
	Kind       string   `json:"kind"`
	Input      uint32   `json:"input"`
	Intro      uint32   `json:"intro"`
	Patterns   int      `json:"patterns"`
	References []string `json:"references,omitempty"`
}

// CompilationResult holds the compiled layouts.
type CompilationResult struct {
	Layouts []LayoutSummary `json:"layouts"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <layouts>",
		Short: "Compile CUE layouts and summarize them",
		Long: `Compile CUE layout definitions.

The compiler decodes the "layouts" struct of a .cue file or package
directory and lists each layout with its kind, its arity and the layouts
it references.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	loadResult, err := LoadLayouts(path, rdf.NewInterpretation())
	if err != nil {
		return outputCompileError(formatter, err)
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, path)

	result := summarize(loadResult.Registry)

	// Write to file if --output specified
	if opts.Output != "" {
		if err := writeSummaryToFile(result, opts.Output); err != nil {
			return outputCompileError(formatter, &LoadError{Code: ErrCodeWriteFailed, Message: fmt.Sprintf("writing output file: %v", err)})
		}
	}

	return outputCompileSuccess(formatter, result, opts.Output)
}

// summarize lists the layouts of reg in declaration order.
func summarize(reg *layout.Registry) *CompilationResult {
	result := &CompilationResult{Layouts: make([]LayoutSummary, 0, reg.Len())}
	for _, ref := range reg.Refs() {
		l, _ := reg.Get(ref)
		s := LayoutSummary{IRI: reg.Name(ref), Kind: l.Kind().String()}
		if hdr, ok := layout.HeaderOf(l); ok {
			s.Input = hdr.Input
			s.Intro = hdr.Intro
			s.Patterns = len(hdr.Dataset)
		}
		for _, f := range layout.Children(l) {
			name := reg.Name(f.Layout)
			if !slices.Contains(s.References, name) {
				s.References = append(s.References, name)
			}
		}
		result.Layouts = append(result.Layouts, s)
	}
	return result
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	// Human-readable text output
	fmt.Fprintf(formatter.Writer, "✓ Compiled %d layout(s)\n\n", len(result.Layouts))

	for _, l := range result.Layouts {
		fmt.Fprintf(formatter.Writer, "  %s: %s, %d input(s)\n", l.IRI, l.Kind, l.Input)
		for _, ref := range l.References {
			fmt.Fprintf(formatter.Writer, "    → %s\n", ref)
		}
	}

	if outputFile != "" {
		fmt.Fprintf(formatter.Writer, "\nWrote layout summary to %s\n", outputFile)
	}

	return nil
}

// outputCompileError outputs a compilation error.
func outputCompileError(formatter *OutputFormatter, err error) error {
	code := loadErrorCode(err)
	_ = formatter.Error(code, err.Error(), nil)
	// Compilation errors are command-level errors (exit code 2)
	return WrapExitError(ExitCommandError, "compilation failed", err)
}

// writeSummaryToFile writes the compilation result to a file as indented JSON.
func writeSummaryToFile(result *CompilationResult, filename string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	return nil
}
