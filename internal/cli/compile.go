package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/jsonfilter/internal/compiler"
	"github.com/roach88/jsonfilter/internal/queryir"
	"github.com/roach88/jsonfilter/internal/querytext"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Entity string // root entity type
	Filter string // filter file, "-" for stdin, empty for no filter
}

// QueryOutput is the rendered result of compile and quicksearch.
type QueryOutput struct {
	Query    string        `json:"query"`
	Params   []ParamOutput `json:"params"`
	Inline   string        `json:"inline"`
	Tree     string        `json:"tree"`
	Warnings []string      `json:"warnings,omitempty"`
}

// ParamOutput is one placeholder rendered as a query literal.
type ParamOutput struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile a filter to parameterized query text",
		Long: `Compile a JsonLogic filter document against the catalog and print the
query-text fragment with its parameter table.

An empty, null or {} filter compiles to the always-true condition.

Examples:
  jsonfilter compile --catalog crm.yaml --entity Person --filter filter.json
  echo '{"==":[{"var":"Age"},42]}' | jsonfilter compile --catalog crm.yaml --entity Person --filter -`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Entity, "entity", "e", "", "root entity type")
	cmd.Flags().StringVarP(&opts.Filter, "filter", "f", "", `filter file ("-" reads stdin)`)
	_ = cmd.MarkFlagRequired("entity")

	return cmd
}

func runCompile(opts *CompileOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	filter, err := readInput(opts.Filter, cmd.InOrStdin())
	if err != nil {
		return formatter.Fail(ErrCodeInput, err)
	}

	env, err := loadEnvironment(opts.RootOptions, cmd.ErrOrStderr())
	if err != nil {
		return formatter.Fail(ErrCodeConfig, err)
	}
	defer env.Close()

	formatter.VerboseLog("Compiling filter for %s against %s", opts.Entity, env.cfg.Catalog)

	compiled, err := env.compiler().Compile(compiler.Request{
		RootType: opts.Entity,
		Filter:   filter,
	}, compiler.ModeQueryText)
	if err != nil {
		return formatter.Fail(ErrCodeGeneric, err)
	}

	return outputQuery(formatter, newQueryOutput(compiled.Query, compiled.Tree, compiled.Warnings))
}

// readInput reads a file, stdin for "-", or nothing for "".
func readInput(path string, stdin io.Reader) ([]byte, error) {
	switch path {
	case "":
		return nil, nil
	case "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		return data, nil
	}
}

func newQueryOutput(q querytext.Query, tree queryir.Node, warnings []string) QueryOutput {
	out := QueryOutput{
		Query:    q.Text,
		Params:   make([]ParamOutput, len(q.Params)),
		Inline:   q.Inline(),
		Tree:     queryir.Format(tree),
		Warnings: warnings,
	}
	for i, p := range q.Params {
		out.Params[i] = ParamOutput{Name: p.Name, Value: querytext.Literal(p.Value)}
	}
	return out
}

// outputQuery prints the query, then one line per parameter. Warnings go
// to the diagnostic writer in text mode.
func outputQuery(formatter *OutputFormatter, out QueryOutput) error {
	if formatter.Format == "json" {
		return formatter.Success(out)
	}

	w := formatter.Writer
	fmt.Fprintln(w, out.Query)
	for _, p := range out.Params {
		fmt.Fprintf(w, "  :%s = %s\n", p.Name, p.Value)
	}
	for _, warning := range out.Warnings {
		fmt.Fprintf(formatter.GetErrWriter(), "warning: %s\n", warning)
	}
	formatter.VerboseLog("Tree: %s", out.Tree)
	formatter.VerboseLog("Inline: %s", out.Inline)
	return nil
}
