package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spruceid/treeldr-sub002/internal/compiler"
	"github.com/spruceid/treeldr-sub002/internal/format"
	"github.com/spruceid/treeldr-sub002/internal/harness"
	"github.com/spruceid/treeldr-sub002/internal/hydrate"
	"github.com/spruceid/treeldr-sub002/internal/layout"
	"github.com/spruceid/treeldr-sub002/internal/rdf"
	"github.com/spruceid/treeldr-sub002/internal/store"
)

// HydrateOptions holds flags for the hydrate command.
type HydrateOptions struct {
	*RootOptions
	Layouts       string   // CUE file or directory
	Layout        string   // layout IRI
	Datasets      []string // N-Quads files
	DBPath        string   // SQLite store, instead of an in-memory dataset
	Graph         string   // current graph, empty for the default graph
	MaxListLength int
	MaxDepth      int
	Output        string // output file path
}

// dataset is what the hydrate command reads from: an in-memory dataset or
// a SQLite store.
type dataset interface {
	rdf.Interner
	rdf.ReverseInterpretation
	rdf.PatternMatchingDataset

	load(ctx context.Context, path, prefix string) (int, error)
	Close() error
}

type memoryDataset struct {
	*rdf.Interpretation
	*rdf.Dataset
}

func (d *memoryDataset) load(_ context.Context, path, prefix string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return rdf.Load(d.Interpretation, d.Dataset, f, rdf.WithBlankPrefix(prefix))
}

func (d *memoryDataset) Close() error { return nil }

type storeDataset struct {
	*store.Store
}

func (d *storeDataset) load(ctx context.Context, path, prefix string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return d.Import(ctx, f, store.WithBlankPrefix(prefix))
}

// NewHydrateCommand creates the hydrate command.
func NewHydrateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HydrateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "hydrate [inputs...]",
		Short: "Hydrate a tree value from RDF",
		Long: `Hydrate a tree value from an RDF dataset using a layout.

Inputs are IRIs or "_:label" blank nodes, one per layout input. The
dataset is read from N-Quads files, from a SQLite store, or both: with
--db, the --dataset files are imported into the store first.

A single dataset file keeps its blank node labels so inputs can name
them. Several files are scoped "doc1-", "doc2-", ... in order.

Exit codes:
  0 - Value hydrated
  1 - Hydration or layout validation failed
  2 - Command error (invalid paths, malformed input, etc.)

Examples:
  treeldr hydrate --layouts ./layouts --layout https://example.org/layouts/Person \
      --dataset people.nq https://example.org/alice
  treeldr hydrate --layouts person.cue --layout https://example.org/layouts/Person \
      --db people.db --format json _:b0`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHydrate(cmd.Context(), opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Layouts, "layouts", "", "CUE layouts file or directory (required)")
	cmd.Flags().StringVar(&opts.Layout, "layout", "", "IRI of the layout to hydrate (required)")
	cmd.Flags().StringArrayVar(&opts.Datasets, "dataset", nil, "N-Quads dataset file (repeatable)")
	cmd.Flags().StringVar(&opts.DBPath, "db", "", "SQLite store to read from")
	cmd.Flags().StringVar(&opts.Graph, "graph", "", "current graph (default graph if empty)")
	cmd.Flags().IntVar(&opts.MaxListLength, "max-list-length", 0, "maximum ordered list length (0 for no limit)")
	cmd.Flags().IntVar(&opts.MaxDepth, "max-depth", 0, "maximum layout nesting depth (0 for the default)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")
	_ = cmd.MarkFlagRequired("layouts")
	_ = cmd.MarkFlagRequired("layout")

	return cmd
}

func runHydrate(ctx context.Context, opts *HydrateOptions, args []string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if len(opts.Datasets) == 0 && opts.DBPath == "" {
		return formatter.Fail(ExitCommandError, ErrCodeBadArgument, "a --dataset or --db is required")
	}
	if opts.MaxListLength < 0 || opts.MaxDepth < 0 {
		return formatter.Fail(ExitCommandError, ErrCodeBadArgument, "--max-list-length and --max-depth must be non-negative")
	}

	ds, err := openDataset(opts.DBPath)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDataset, err.Error())
	}
	defer ds.Close()

	for i, path := range opts.Datasets {
		prefix := ""
		if len(opts.Datasets) > 1 {
			prefix = fmt.Sprintf("doc%d-", i+1)
		}
		n, err := ds.load(ctx, path, prefix)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeDataset, fmt.Sprintf("loading %s: %v", path, err))
		}
		formatter.VerboseLog("Loaded %d statement(s) from %s", n, path)
	}

	loadResult, err := LoadLayouts(opts.Layouts, ds)
	if err != nil {
		return formatter.Fail(ExitCommandError, loadErrorCode(err), err.Error())
	}
	reg := loadResult.Registry

	if errs := compiler.Validate(reg); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		_ = formatter.Error(errs[0].Code, strings.Join(msgs, "; "), errs)
		return NewExitError(ExitFailure, fmt.Sprintf("layout validation failed with %d error(s)", len(errs)))
	}

	ref, ok := findLayout(reg, opts.Layout)
	if !ok {
		return formatter.Fail(ExitCommandError, ErrCodeBadArgument, fmt.Sprintf("layout %s is not declared", opts.Layout))
	}

	inputs := make([]rdf.Resource, len(args))
	for i, arg := range args {
		if inputs[i], err = ds.InternTerm(harness.ParseTerm(arg)); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeDataset, fmt.Sprintf("input %s: %v", arg, err))
		}
	}

	graph := rdf.NoResource
	if opts.Graph != "" {
		if graph, err = ds.InternTerm(harness.ParseTerm(opts.Graph)); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeDataset, fmt.Sprintf("graph %s: %v", opts.Graph, err))
		}
	}

	hydrateOpts := []hydrate.Option{hydrate.WithLogger(formatter.Logger())}
	if opts.MaxListLength > 0 {
		hydrateOpts = append(hydrateOpts, hydrate.WithMaxListLength(opts.MaxListLength))
	}
	if opts.MaxDepth > 0 {
		hydrateOpts = append(hydrateOpts, hydrate.WithMaxDepth(opts.MaxDepth))
	}

	formatter.VerboseLog("Hydrating %s with %d input(s)", opts.Layout, len(inputs))
	value, err := hydrate.HydrateWith(ds, reg, ds, graph, ref, inputs, hydrateOpts...)
	if err != nil {
		code, ok := hydrate.CodeOf(err)
		if !ok {
			return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error())
		}
		_ = formatter.Error(string(code), err.Error(), nil)
		return WrapExitError(ExitFailure, "hydration failed", err)
	}

	data, err := format.MarshalCanonical(value)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, fmt.Sprintf("encoding value: %v", err))
	}
	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, data, 0644); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err))
		}
		formatter.VerboseLog("Wrote value to %s", opts.Output)
	}

	if formatter.Format == "json" {
		tree, err := format.ToAny(value)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeGeneric, fmt.Sprintf("encoding value: %v", err))
		}
		return formatter.Success(tree)
	}
	return formatter.Success(string(data))
}

func openDataset(dbPath string) (dataset, error) {
	if dbPath == "" {
		return &memoryDataset{Interpretation: rdf.NewInterpretation(), Dataset: rdf.NewDataset()}, nil
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	return &storeDataset{Store: st}, nil
}

// findLayout returns the layout declared with the given IRI.
func findLayout(reg *layout.Registry, iri string) (layout.Ref, bool) {
	for _, ref := range reg.Refs() {
		if reg.Name(ref) == iri {
			return ref, true
		}
	}
	return 0, false
}
