package cli

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/jsonfilter/internal/compiler"
	"github.com/roach88/jsonfilter/internal/predicate"
)

// EvalOptions holds flags for the eval command.
type EvalOptions struct {
	*RootOptions
	Entity      string
	Filter      string
	Records     string
	ShowRecords bool
}

// EvalOutput lists the records matched by a filter.
type EvalOutput struct {
	Matches []int            `json:"matches"`
	Total   int              `json:"total"`
	Records []map[string]any `json:"records,omitempty"`
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate a filter against records",
		Long: `Compile a filter to an in-memory predicate and apply it to a JSON array of
records. Prints the zero-based indices of the matching records.

Entity references may be stored as nested objects or as bare ids.

Examples:
  jsonfilter eval --catalog crm.yaml --entity Person --filter f.json --records people.json
  jsonfilter eval --catalog crm.yaml --entity Person --filter f.json --records people.json --show-records`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Entity, "entity", "e", "", "root entity type")
	cmd.Flags().StringVarP(&opts.Filter, "filter", "f", "", `filter file ("-" reads stdin)`)
	cmd.Flags().StringVarP(&opts.Records, "records", "r", "", `records file, a JSON array ("-" reads stdin)`)
	cmd.Flags().BoolVar(&opts.ShowRecords, "show-records", false, "print the matching records")
	_ = cmd.MarkFlagRequired("entity")
	_ = cmd.MarkFlagRequired("records")

	return cmd
}

func runEval(opts *EvalOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if opts.Filter == "-" && opts.Records == "-" {
		return formatter.Fail(ErrCodeInput, fmt.Errorf("filter and records cannot both be read from stdin"))
	}
	filter, err := readInput(opts.Filter, cmd.InOrStdin())
	if err != nil {
		return formatter.Fail(ErrCodeInput, err)
	}
	data, err := readInput(opts.Records, cmd.InOrStdin())
	if err != nil {
		return formatter.Fail(ErrCodeInput, err)
	}
	records, err := decodeRecords(data)
	if err != nil {
		return formatter.Fail(ErrCodeInput, err)
	}

	env, err := loadEnvironment(opts.RootOptions, cmd.ErrOrStderr())
	if err != nil {
		return formatter.Fail(ErrCodeConfig, err)
	}
	defer env.Close()

	compiled, err := env.compiler().Compile(compiler.Request{
		RootType: opts.Entity,
		Filter:   filter,
	}, compiler.ModePredicate)
	if err != nil {
		return formatter.Fail(ErrCodeGeneric, err)
	}
	for _, warning := range compiled.Warnings {
		fmt.Fprintf(formatter.GetErrWriter(), "warning: %s\n", warning)
	}

	out := EvalOutput{Matches: []int{}, Total: len(records)}
	for i, rec := range records {
		if compiled.Predicate(predicate.MapRecord(rec)) {
			out.Matches = append(out.Matches, i)
			if opts.ShowRecords {
				out.Records = append(out.Records, rec)
			}
		}
	}
	formatter.VerboseLog("%d of %d record(s) matched", len(out.Matches), out.Total)

	if formatter.Format == "json" {
		return formatter.Success(out)
	}
	for i, idx := range out.Matches {
		if !opts.ShowRecords {
			fmt.Fprintln(formatter.Writer, idx)
			continue
		}
		line, err := json.Marshal(out.Records[i])
		if err != nil {
			return formatter.Fail(ErrCodeGeneric, err)
		}
		fmt.Fprintf(formatter.Writer, "%d\t%s\n", idx, line)
	}
	return nil
}

// decodeRecords parses a JSON array of objects, keeping numbers as
// json.Number so integer ids survive intact.
func decodeRecords(data []byte) ([]map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var records []map[string]any
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("decoding records: %w", err)
	}
	return records, nil
}
