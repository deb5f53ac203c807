package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/jsonfilter/internal/config"
	"github.com/roach88/jsonfilter/internal/metadata"
	"github.com/roach88/jsonfilter/internal/store"
)

// RefsOptions holds flags for the refs commands.
type RefsOptions struct {
	*RootOptions
	DB string // store path, defaults to the configured reference_db
}

// RefListOutput is one stored reference list.
type RefListOutput struct {
	ID    string          `json:"id"`
	Items []RefItemOutput `json:"items"`
}

// RefItemOutput is one reference list item.
type RefItemOutput struct {
	Code  int64  `json:"code"`
	Order int    `json:"order"`
	Text  string `json:"text"`
}

// NewRefsCommand creates the refs command group.
func NewRefsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RefsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "refs",
		Short: "Manage the SQLite reference list store",
		Long: `Manage the SQLite store that serves category and bit flag reference lists.

When reference_db is configured, filter commands read reference lists from
the store instead of the catalog.`,
	}
	cmd.PersistentFlags().StringVar(&opts.DB, "db", "", "reference list store path (defaults to reference_db)")

	cmd.AddCommand(newRefsImportCommand(opts))
	cmd.AddCommand(newRefsListCommand(opts))
	return cmd
}

func newRefsImportCommand(opts *RefsOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import [catalog]",
		Short: "Write the catalog's reference lists to the store",
		Long: `Write every reference list of a catalog to the store, replacing stored
lists with the same id. The catalog defaults to the configured one.

Examples:
  jsonfilter refs import --db refs.db crm.yaml`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalogPath := ""
			if len(args) == 1 {
				catalogPath = args[0]
			}
			return runRefsImport(opts, catalogPath, cmd)
		},
	}
}

func newRefsListCommand(opts *RefsOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "Print the stored reference lists",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRefsList(opts, cmd)
		},
	}
}

// resolveRefs fills the store and catalog paths from settings.
func resolveRefs(opts *RefsOptions, catalogPath string) (dbPath, catalog string, err error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return "", "", err
	}
	dbPath = opts.DB
	if dbPath == "" {
		dbPath = cfg.ReferenceDB
	}
	if dbPath == "" {
		return "", "", fmt.Errorf("no store configured: pass --db or set %s_REFERENCE_DB", config.EnvPrefix)
	}
	catalog = catalogPath
	if catalog == "" {
		catalog = opts.Catalog
	}
	if catalog == "" {
		catalog = cfg.Catalog
	}
	return dbPath, catalog, nil
}

func runRefsImport(opts *RefsOptions, catalogPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	dbPath, catalogPath, err := resolveRefs(opts, catalogPath)
	if err != nil {
		return formatter.Fail(ErrCodeConfig, err)
	}
	if catalogPath == "" {
		return formatter.Fail(ErrCodeConfig, fmt.Errorf("no catalog given"))
	}

	catalog, err := metadata.LoadCatalog(catalogPath)
	if err != nil {
		return formatter.Fail(ErrCodeConfig, err)
	}

	s, err := store.Open(dbPath)
	if err != nil {
		return formatter.Fail(ErrCodeStore, err)
	}
	defer s.Close()

	n, err := s.ImportCatalog(cmd.Context(), catalog)
	if err != nil {
		return formatter.Fail(ErrCodeStore, err)
	}
	for _, id := range catalog.ListIDs() {
		formatter.VerboseLog("Imported %s", id)
	}

	if formatter.Format == "json" {
		return formatter.Success(map[string]any{"imported": n, "db": dbPath})
	}
	fmt.Fprintf(formatter.Writer, "✓ Imported %d reference list(s) into %s\n", n, dbPath)
	return nil
}

func runRefsList(opts *RefsOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	dbPath, _, err := resolveRefs(opts, "")
	if err != nil {
		return formatter.Fail(ErrCodeConfig, err)
	}

	s, err := store.Open(dbPath)
	if err != nil {
		return formatter.Fail(ErrCodeStore, err)
	}
	defer s.Close()

	ids, err := s.ListIDs(cmd.Context())
	if err != nil {
		return formatter.Fail(ErrCodeStore, err)
	}

	lists := make([]RefListOutput, 0, len(ids))
	for _, id := range ids {
		items, _, err := s.ListItems(cmd.Context(), id)
		if err != nil {
			return formatter.Fail(ErrCodeStore, err)
		}
		out := RefListOutput{ID: id.String(), Items: make([]RefItemOutput, len(items))}
		for i, item := range items {
			out.Items[i] = RefItemOutput{Code: item.Code, Order: item.OrderIndex, Text: item.Text}
		}
		lists = append(lists, out)
	}

	if formatter.Format == "json" {
		return formatter.Success(lists)
	}
	if len(lists) == 0 {
		fmt.Fprintln(formatter.Writer, "No reference lists stored.")
		return nil
	}
	for _, l := range lists {
		fmt.Fprintf(formatter.Writer, "%s (%d item(s))\n", l.ID, len(l.Items))
		for _, item := range l.Items {
			fmt.Fprintf(formatter.Writer, "  %d\t%s\n", item.Code, item.Text)
		}
	}
	return nil
}
