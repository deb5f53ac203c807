package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Config  string // settings file, optional
	Catalog string // overrides the configured catalog path
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the jsonfilter CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "jsonfilter",
		Short: "Compile JsonLogic filters into queries and predicates",
		Long: `jsonfilter compiles JsonLogic filter documents against entity metadata.

A filter becomes either a parameterized query-text fragment for a remote
query engine or an in-memory predicate over records. Metadata comes from a
YAML or CUE catalog; reference lists may be served from a SQLite store.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "settings file (YAML)")
	cmd.PersistentFlags().StringVar(&opts.Catalog, "catalog", "", "metadata catalog (YAML or CUE)")

	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewQuickSearchCommand(opts))
	cmd.AddCommand(NewEvalCommand(opts))
	cmd.AddCommand(NewRefsCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
