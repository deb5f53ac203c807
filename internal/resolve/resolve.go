// Package resolve turns dot-notation var paths into validated property
// descriptors by walking entity metadata.
package resolve

import (
	"fmt"
	"strings"

	"github.com/roach88/jsonfilter/internal/filtererr"
	"github.com/roach88/jsonfilter/internal/metadata"
)

// AliasResolver maps a logical field name to a physical dot-path.
type AliasResolver interface {
	ResolveAlias(name string) (path string, ok bool)
}

// AliasMap is an AliasResolver backed by a map.
type AliasMap map[string]string

// ResolveAlias implements AliasResolver.
func (m AliasMap) ResolveAlias(name string) (string, bool) {
	path, ok := m[name]
	return path, ok
}

// Descriptor is a resolved var path.
type Descriptor struct {
	// RawPath is the path as written in the filter.
	RawPath string

	// PhysicalPath is the dot-path after alias substitution.
	PhysicalPath string

	// RootType is the entity type the path starts from.
	RootType string

	// Segments are the PhysicalPath segments.
	Segments []string

	// OwnerType is the entity type declaring the terminal property.
	OwnerType string

	// Property is the terminal property.
	Property metadata.PropertyInfo
}

// Type returns the general type of the terminal property.
func (d Descriptor) Type() metadata.GeneralType {
	return d.Property.Type
}

// Category returns the reference list of a Category or BitFlagSet property.
func (d Descriptor) Category() metadata.CategoryID {
	if d.Property.Category == nil {
		return metadata.CategoryID{}
	}
	return *d.Property.Category
}

// Child returns the path to a property of the entity referenced by d.
func (d Descriptor) Child(name string) string {
	return d.PhysicalPath + "." + name
}

// Resolver resolves var paths against a metadata provider.
//
// A Resolver holds no mutable state and is safe for concurrent use when its
// provider and aliases are.
type Resolver struct {
	meta    metadata.Provider
	aliases AliasResolver
}

// New creates a resolver. aliases may be nil.
func New(meta metadata.Provider, aliases AliasResolver) *Resolver {
	return &Resolver{meta: meta, aliases: aliases}
}

// Resolve resolves rawPath starting at rootType.
//
// An alias is substituted exactly once; the substituted path is not looked up
// as an alias again. Unknown segments and non-terminal segments that are not
// entity references fail with UNMAPPED_PATH.
func (r *Resolver) Resolve(rootType, rawPath string) (Descriptor, error) {
	physical := rawPath
	if r.aliases != nil {
		if target, ok := r.aliases.ResolveAlias(rawPath); ok {
			physical = target
		}
	}

	segments := strings.Split(physical, ".")
	for _, seg := range segments {
		if seg == "" {
			return Descriptor{}, filtererr.Unmapped(rawPath, "empty segment in path %q", physical)
		}
	}

	current := rootType
	var info metadata.PropertyInfo
	for i, seg := range segments {
		prop, ok, err := r.meta.Property(current, seg)
		if err != nil {
			return Descriptor{}, fmt.Errorf("resolve %s.%s: %w", current, seg, err)
		}
		if !ok {
			return Descriptor{}, filtererr.Unmapped(rawPath, "%s has no property %q", current, seg)
		}
		if i == len(segments)-1 {
			info = prop
			break
		}
		if prop.Type != metadata.TypeEntityReference {
			return Descriptor{}, filtererr.Unmapped(rawPath, "%s.%s is %s, not an entity reference", current, seg, prop.Type)
		}
		if prop.ReferencedType == "" {
			return Descriptor{}, filtererr.Configurationf("entity reference %s.%s has no referenced type", current, seg)
		}
		current = prop.ReferencedType
	}

	switch info.Type {
	case metadata.TypeCategory, metadata.TypeBitFlagSet:
		if info.Category == nil {
			return Descriptor{}, filtererr.Configurationf("%s property %s.%s has no reference list", info.Type, current, info.Name)
		}
	case metadata.TypeEntityReference:
		if info.ReferencedType == "" {
			return Descriptor{}, filtererr.Configurationf("entity reference %s.%s has no referenced type", current, info.Name)
		}
	case metadata.TypeUnknown:
		return Descriptor{}, filtererr.Configurationf("property %s.%s has no general type", current, info.Name)
	}

	return Descriptor{
		RawPath:      rawPath,
		PhysicalPath: physical,
		RootType:     rootType,
		Segments:     segments,
		OwnerType:    current,
		Property:     info,
	}, nil
}
