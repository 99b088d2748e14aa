package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/spruceid/treeldr-sub002/internal/store"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	DBPath     string
	KeepLabels bool
}

// ImportResult reports the statements read per file.
type ImportResult struct {
	Files []ImportedFile `json:"files"`
	Quads int            `json:"quads"` // quads in the store after import
}

// ImportedFile is one imported N-Quads file.
type ImportedFile struct {
	Path       string `json:"path"`
	Statements int    `json:"statements"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <files...>",
		Short: "Import N-Quads files into a SQLite store",
		Long: `Import N-Quads files into a SQLite store.

Each file gets a fresh blank node scope: its labels are prefixed with a
UUID so blank nodes of different files never merge. Use --keep-labels to
store labels as written.

Examples:
  treeldr import --db people.db people.nq
  treeldr import --db people.db --keep-labels fixtures.nq`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DBPath, "db", "", "SQLite store path (required)")
	cmd.Flags().BoolVar(&opts.KeepLabels, "keep-labels", false, "keep blank node labels as written")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runImport(ctx context.Context, opts *ImportOptions, files []string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	st, err := store.Open(opts.DBPath)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDataset, err.Error())
	}
	defer st.Close()

	var importOpts []store.ImportOption
	if opts.KeepLabels {
		importOpts = append(importOpts, store.WithBlankPrefix(""))
	}

	result := ImportResult{Files: make([]ImportedFile, 0, len(files))}
	for _, path := range files {
		n, err := importFile(ctx, st, path, importOpts)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeDataset, fmt.Sprintf("importing %s: %v", path, err))
		}
		formatter.VerboseLog("Imported %d statement(s) from %s", n, path)
		result.Files = append(result.Files, ImportedFile{Path: path, Statements: n})
	}

	if result.Quads, err = st.Len(ctx); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDataset, err.Error())
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	for _, f := range result.Files {
		fmt.Fprintf(formatter.Writer, "✓ %s: %d statement(s)\n", f.Path, f.Statements)
	}
	fmt.Fprintf(formatter.Writer, "%d quad(s) in %s\n", result.Quads, opts.DBPath)
	return nil
}

func importFile(ctx context.Context, st *store.Store, path string, opts []store.ImportOption) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return st.Import(ctx, f, opts...)
}
