package harness

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/jsonfilter/internal/compiler"
	"github.com/roach88/jsonfilter/internal/filtererr"
	"github.com/roach88/jsonfilter/internal/metadata"
	"github.com/roach88/jsonfilter/internal/predicate"
	"github.com/roach88/jsonfilter/internal/queryir"
	"github.com/roach88/jsonfilter/internal/querytext"
	"github.com/roach88/jsonfilter/internal/quicksearch"
	"github.com/roach88/jsonfilter/internal/resolve"
)

// errorCodeOther marks a rejected case whose error is not a filter error.
const errorCodeOther = "ERROR"

// Harness compiles the cases of one scenario.
type Harness struct {
	compiler *compiler.Compiler
	search   *quicksearch.Builder
	records  []predicate.Record
	rootType string
}

// Option configures a Harness.
type Option func(*options)

type options struct {
	lists  metadata.ReferenceListSource
	logger *slog.Logger
}

// WithReferenceLists replaces the catalog's reference lists, e.g. with a
// SQLite store.
func WithReferenceLists(lists metadata.ReferenceListSource) Option {
	return func(o *options) {
		o.lists = lists
	}
}

// WithLogger sets the logger passed to the compiler.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Run loads the scenario catalog, compiles every case and checks its
// expectations. An error is returned only when the scenario itself cannot
// run; failed expectations are reported in the Result.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	h, err := New(scenario, opts...)
	if err != nil {
		return nil, err
	}

	result := NewResult()
	for _, c := range scenario.Cases {
		cr := h.RunCase(c)
		result.Cases = append(result.Cases, cr)
		for _, failure := range checkCase(c, cr) {
			result.AddError(fmt.Sprintf("%s: %s", c.Name, failure))
		}
	}
	return result, nil
}

// New prepares a harness for scenario.
func New(scenario *Scenario, opts ...Option) (*Harness, error) {
	o := options{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&o)
	}

	catalog, err := metadata.LoadCatalog(scenario.Catalog)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	lists := o.lists
	if lists == nil {
		lists = catalog
	}
	cache := metadata.NewCache(catalog, lists, metadata.WithLogger(o.logger))

	var aliases resolve.AliasResolver
	if len(scenario.Aliases) > 0 {
		aliases = resolve.AliasMap(scenario.Aliases)
	}

	records := make([]predicate.Record, len(scenario.Records))
	for i, rec := range scenario.Records {
		records[i] = predicate.MapRecord(rec)
	}

	return &Harness{
		compiler: compiler.New(cache, cache, compiler.Options{
			EntityAlias: scenario.EntityAlias,
			Aliases:     aliases,
			Logger:      o.logger,
		}),
		search:   quicksearch.New(cache, cache, aliases, quicksearch.WithLogger(o.logger)),
		records:  records,
		rootType: scenario.RootType,
	}, nil
}

// RunCase compiles one case. Compile failures are recorded in the result.
func (h *Harness) RunCase(c Case) CaseResult {
	result := CaseResult{Name: c.Name}

	tree, warnings, err := h.build(c)
	if err != nil {
		result.Error = errorCode(err)
		result.Message = err.Error()
		return result
	}
	result.Tree = queryir.Format(tree)
	result.Warnings = warnings

	query, err := h.compiler.Emit(tree, compiler.ModeQueryText)
	if err != nil {
		result.Error = errorCode(err)
		result.Message = err.Error()
		return result
	}
	result.Query = query.Query.Text
	result.Inline = query.Query.Inline()
	for _, p := range query.Query.Params {
		result.Params = append(result.Params, querytext.Literal(p.Value))
	}

	if len(h.records) == 0 {
		return result
	}
	pred, err := h.compiler.Emit(tree, compiler.ModePredicate)
	if err != nil {
		result.Error = errorCode(err)
		result.Message = err.Error()
		return result
	}
	result.Matches = []int{}
	for i, rec := range h.records {
		if pred.Predicate(rec) {
			result.Matches = append(result.Matches, i)
		}
	}
	return result
}

func (h *Harness) build(c Case) (queryir.Node, []string, error) {
	if c.QuickSearch != nil {
		tree, err := h.search.Build(h.rootType, c.QuickSearch.Text, c.QuickSearch.Paths)
		if err != nil {
			return nil, nil, err
		}
		if tree == nil {
			tree = queryir.True
		}
		return tree, nil, nil
	}

	filter, err := c.FilterJSON()
	if err != nil {
		return nil, nil, err
	}
	built, err := h.compiler.Build(compiler.Request{RootType: h.rootType, Filter: filter})
	if err != nil {
		return nil, nil, err
	}
	return built.Tree, built.Warnings, nil
}

func errorCode(err error) string {
	var fe *filtererr.Error
	if errors.As(err, &fe) {
		return string(fe.Code)
	}
	return errorCodeOther
}
