package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

// Version is reported by --version. Release builds set it with
// -ldflags "-X github.com/spruceid/treeldr-sub002/internal/cli.Version=...".
var Version = "dev"

// RootOptions are the persistent flags shared by every subcommand.
type RootOptions struct {
	Verbose bool
	Format  string
}

// ValidFormats are the accepted --format values.
var ValidFormats = []string{"text", "json"}

// NewRootCommand builds the treeldr command tree.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "treeldr",
		Short:   "Tree layouts for linked data",
		Version: Version,
		Long: `Hydrate tree values from RDF datasets using layouts.

Layouts are declared in CUE and describe how resources of a dataset map
to records, lists, variants and literals.`,
		Example: `  treeldr validate ./layouts
  treeldr hydrate --layouts ./layouts --layout https://example.org/layouts/Person \
      --dataset people.nq https://example.org/alice
  treeldr import --db people.db people.nq
  treeldr test ./scenarios`,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "log progress and hydration traces to stderr")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")

	for _, sub := range []func(*RootOptions) *cobra.Command{
		NewCompileCommand,
		NewValidateCommand,
		NewHydrateCommand,
		NewImportCommand,
		NewTestCommand,
	} {
		cmd.AddCommand(sub(opts))
	}

	return cmd
}

func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
