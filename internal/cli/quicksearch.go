package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/jsonfilter/internal/compiler"
	"github.com/roach88/jsonfilter/internal/queryir"
)

// QuickSearchOptions holds flags for the quicksearch command.
type QuickSearchOptions struct {
	*RootOptions
	Entity     string
	Text       string
	Properties []string
}

// NewQuickSearchCommand creates the quicksearch command.
func NewQuickSearchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QuickSearchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "quicksearch",
		Short: "Build a free-text search filter over properties",
		Long: `Build a quick search filter: the search text is matched against each
listed property and the matches are combined with "or".

Text properties match by substring, entity references by the display name
of the referenced entity, and category or bit flag properties by the text
of their reference list items. Audit properties and unmapped properties are
skipped.

Examples:
  jsonfilter quicksearch --catalog crm.yaml --entity Person --text nor -p FirstName -p AreaLevel1`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuickSearch(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Entity, "entity", "e", "", "root entity type")
	cmd.Flags().StringVarP(&opts.Text, "text", "t", "", "search text")
	cmd.Flags().StringSliceVarP(&opts.Properties, "property", "p", nil, "property path to search (repeatable)")
	_ = cmd.MarkFlagRequired("entity")

	return cmd
}

func runQuickSearch(opts *QuickSearchOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	env, err := loadEnvironment(opts.RootOptions, cmd.ErrOrStderr())
	if err != nil {
		return formatter.Fail(ErrCodeConfig, err)
	}
	defer env.Close()

	tree, err := env.quickSearch().Build(opts.Entity, opts.Text, opts.Properties)
	if err != nil {
		return formatter.Fail(ErrCodeGeneric, err)
	}
	if tree == nil {
		formatter.VerboseLog("Empty search text, no filter applied")
		tree = queryir.True
	}

	compiled, err := env.compiler().Emit(tree, compiler.ModeQueryText)
	if err != nil {
		return formatter.Fail(ErrCodeGeneric, err)
	}
	return outputQuery(formatter, newQueryOutput(compiled.Query, tree, nil))
}
