// Package quicksearch builds a filter tree that matches a free-text search
// against a list of properties.
//
// Each searchable property contributes one disjunct:
//   - Text: contains the search text
//   - EntityReference: the referenced entity's display-name property
//     contains the search text
//   - Category: equals one of the reference list codes whose item text
//     contains the search text
//   - BitFlagSet: has any of the flags whose item text contains the search
//     text
//
// Other general types, unmapped properties and audit references are skipped.
package quicksearch

import (
	"io"
	"log/slog"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/jsonfilter/internal/compiler"
	"github.com/roach88/jsonfilter/internal/filtererr"
	"github.com/roach88/jsonfilter/internal/ir"
	"github.com/roach88/jsonfilter/internal/metadata"
	"github.com/roach88/jsonfilter/internal/queryir"
	"github.com/roach88/jsonfilter/internal/resolve"
)

// auditProperties are bookkeeping references excluded from quick search.
var auditProperties = []string{"CreatorUser", "LastModifierUser", "InactivationUser"}

// Builder builds quick-search trees. It is safe for concurrent use when its
// sources are.
type Builder struct {
	meta     metadata.Provider
	lists    metadata.ReferenceListSource
	resolver *resolve.Resolver
	dispatch *compiler.Dispatcher
	logger   *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger used to report skipped paths.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		b.logger = logger
	}
}

// New creates a builder. aliases may be nil.
func New(meta metadata.Provider, lists metadata.ReferenceListSource, aliases resolve.AliasResolver, opts ...Option) *Builder {
	b := &Builder{
		meta:     meta,
		lists:    lists,
		resolver: resolve.New(meta, aliases),
		dispatch: compiler.NewDispatcher(lists),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build returns the OR of every searchable path's match against searchText.
// A blank search text means no filter and returns nil. When no path can
// take part the result is queryir.False.
//
// Paths that do not resolve are skipped; metadata failures are returned.
func (b *Builder) Build(rootType, searchText string, paths []string) (queryir.Node, error) {
	search := norm.NFC.String(strings.TrimSpace(searchText))
	if search == "" {
		return nil, nil
	}

	var nodes []queryir.Node
	for _, path := range paths {
		node, err := b.path(rootType, search, path)
		if err != nil {
			return nil, err
		}
		if node != nil {
			nodes = append(nodes, node)
		}
	}
	if len(nodes) == 0 {
		return queryir.False, nil
	}
	return queryir.Or{Nodes: nodes}, nil
}

// path builds the disjunct for one path, or nil when it is skipped.
func (b *Builder) path(rootType, search, path string) (queryir.Node, error) {
	desc, err := b.resolver.Resolve(rootType, path)
	if err != nil {
		if filtererr.IsUnmappedPath(err) {
			b.skip(path, "unresolved")
			return nil, nil
		}
		return nil, err
	}
	if !desc.Property.Mapped {
		b.skip(path, "not mapped")
		return nil, nil
	}
	if isAudit(desc.Property.Name) {
		b.skip(path, "audit property")
		return nil, nil
	}

	switch desc.Type() {
	case metadata.TypeText:
		return b.dispatch.Build(compiler.Contains, desc, ir.IRString(search))
	case metadata.TypeEntityReference:
		return b.displayName(rootType, search, desc)
	case metadata.TypeCategory, metadata.TypeBitFlagSet:
		return b.listItems(search, desc)
	default:
		b.skip(path, "type "+desc.Type().String())
		return nil, nil
	}
}

// displayName searches the display-name property of the referenced entity.
func (b *Builder) displayName(rootType, search string, desc resolve.Descriptor) (queryir.Node, error) {
	name, ok, err := b.meta.DisplayNameProperty(desc.Property.ReferencedType)
	if err != nil {
		return nil, err
	}
	if !ok {
		b.skip(desc.RawPath, "referenced entity has no display name")
		return nil, nil
	}

	display, err := b.resolver.Resolve(rootType, desc.Child(name))
	if err != nil {
		if filtererr.IsUnmappedPath(err) {
			b.skip(desc.RawPath, "display name unresolved")
			return nil, nil
		}
		return nil, err
	}
	if display.Type() != metadata.TypeText || !display.Property.Mapped {
		b.skip(desc.RawPath, "display name is not a mapped text property")
		return nil, nil
	}
	return b.dispatch.Build(compiler.Contains, display, ir.IRString(search))
}

// listItems matches the reference list items whose text contains search.
func (b *Builder) listItems(search string, desc resolve.Descriptor) (queryir.Node, error) {
	items, err := metadata.Items(b.lists, desc.Category())
	if err != nil {
		return nil, err
	}

	needle := cases.Fold().String(search)
	var codes ir.IRArray
	for _, item := range items {
		if strings.Contains(cases.Fold().String(item.Text), needle) {
			codes = append(codes, ir.NewIRNumber(item.Code))
		}
	}
	if len(codes) == 0 {
		return nil, nil
	}
	return b.dispatch.Build(compiler.Member, desc, codes)
}

func (b *Builder) skip(path, reason string) {
	b.logger.Debug("quick search skipped path", slog.String("path", path), slog.String("reason", reason))
}

func isAudit(name string) bool {
	for _, audit := range auditProperties {
		if strings.EqualFold(name, audit) {
			return true
		}
	}
	return false
}
