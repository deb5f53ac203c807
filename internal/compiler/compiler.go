// Package compiler compiles JsonLogic filter documents into an in-memory
// predicate or a parameterized query-text fragment.
//
// A compile runs in three stages: parse the document into an AST, resolve
// every var path and apply the per-type rules to build a queryir tree, then
// hand the tree to one emitter. Both targets are built from the same tree.
package compiler

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/jsonfilter/internal/ast"
	"github.com/roach88/jsonfilter/internal/metadata"
	"github.com/roach88/jsonfilter/internal/predicate"
	"github.com/roach88/jsonfilter/internal/queryir"
	"github.com/roach88/jsonfilter/internal/querytext"
	"github.com/roach88/jsonfilter/internal/resolve"
)

// DefaultEntityAlias prefixes every path in query text.
const DefaultEntityAlias = "ent"

// Mode selects the compile target.
type Mode int

const (
	ModePredicate Mode = iota
	ModeQueryText
)

func (m Mode) String() string {
	switch m {
	case ModePredicate:
		return "predicate"
	case ModeQueryText:
		return "query"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Options configures a Compiler.
type Options struct {
	// EntityAlias is the query-text alias of the root entity.
	// Defaults to DefaultEntityAlias.
	EntityAlias string

	// Aliases is used when a Request carries none.
	Aliases resolve.AliasResolver

	// Logger receives debug output. Nil discards.
	Logger *slog.Logger
}

// Compiler compiles filters against one metadata provider.
//
// A Compiler holds no per-call state; Compile may be called concurrently.
type Compiler struct {
	meta     metadata.Provider
	dispatch *Dispatcher
	alias    string
	aliases  resolve.AliasResolver
	logger   *slog.Logger
}

// New creates a compiler. lists may be nil when no bit flag literal needs
// decomposition.
func New(meta metadata.Provider, lists metadata.ReferenceListSource, opts Options) *Compiler {
	c := &Compiler{
		meta:     meta,
		dispatch: NewDispatcher(lists),
		alias:    opts.EntityAlias,
		aliases:  opts.Aliases,
		logger:   opts.Logger,
	}
	if c.alias == "" {
		c.alias = DefaultEntityAlias
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c
}

// Dispatcher returns the type dispatcher used by the compiler.
func (c *Compiler) Dispatcher() *Dispatcher {
	return c.dispatch
}

// Request is one compile call.
type Request struct {
	// RootType is the entity type var paths start from.
	RootType string

	// Filter is the JsonLogic document. Empty, null and {} mean no filter.
	Filter []byte

	// Aliases overrides the compiler's alias resolver for this call.
	Aliases resolve.AliasResolver
}

// Built is the result of the build stage.
type Built struct {
	// Tree is the compiled filter. It is queryir.True when the document
	// carries no filter.
	Tree queryir.Node

	// Warnings lists ambiguous constructs that were compiled with a
	// documented fallback.
	Warnings []string
}

// CompiledFilter is the output of Compile.
type CompiledFilter struct {
	Mode Mode

	// Predicate is set in ModePredicate.
	Predicate predicate.Func

	// Query is set in ModeQueryText.
	Query querytext.Query

	Tree     queryir.Node
	Warnings []string
}

// Build parses and converts a filter into IR without emitting it.
func (c *Compiler) Build(req Request) (Built, error) {
	node, err := ast.Parse(req.Filter)
	if err != nil {
		return Built{}, err
	}
	return c.BuildNode(req.RootType, node, req.Aliases)
}

// BuildNode converts an already parsed filter. A nil node means no filter.
func (c *Compiler) BuildNode(rootType string, node ast.Node, aliases resolve.AliasResolver) (Built, error) {
	if node == nil {
		return Built{Tree: queryir.True}, nil
	}
	if aliases == nil {
		aliases = c.aliases
	}

	cv := &conversion{
		rootType: rootType,
		resolver: resolve.New(c.meta, aliases),
		dispatch: c.dispatch,
	}
	tree, err := cv.node(node)
	if err != nil {
		c.logger.Debug("filter rejected", slog.String("root_type", rootType), slog.Any("error", err))
		return Built{}, err
	}
	if result := queryir.Validate(tree); !result.Valid {
		return Built{}, fmt.Errorf("compiler produced an invalid tree: %v", result.Problems)
	}
	for _, w := range cv.warnings {
		c.logger.Warn("filter compiled with fallback", slog.String("root_type", rootType), slog.String("warning", w))
	}
	return Built{Tree: tree, Warnings: cv.warnings}, nil
}

// Compile builds a filter and emits it for mode.
func (c *Compiler) Compile(req Request, mode Mode) (*CompiledFilter, error) {
	built, err := c.Build(req)
	if err != nil {
		return nil, err
	}
	compiled, err := c.Emit(built.Tree, mode)
	if err != nil {
		return nil, err
	}
	compiled.Warnings = built.Warnings
	c.logger.Debug("filter compiled",
		slog.String("root_type", req.RootType),
		slog.String("mode", mode.String()),
		slog.String("tree", queryir.Format(built.Tree)),
	)
	return compiled, nil
}

// Emit converts an IR tree into the requested target.
func (c *Compiler) Emit(tree queryir.Node, mode Mode) (*CompiledFilter, error) {
	out := &CompiledFilter{Mode: mode, Tree: tree}
	switch mode {
	case ModePredicate:
		fn, err := predicate.Emit(tree)
		if err != nil {
			return nil, err
		}
		out.Predicate = fn
	case ModeQueryText:
		q, err := querytext.Emit(tree, c.alias)
		if err != nil {
			return nil, err
		}
		out.Query = q
	default:
		return nil, fmt.Errorf("unknown compile mode %s", mode)
	}
	return out, nil
}
