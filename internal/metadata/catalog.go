package metadata

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

// Catalog is a static metadata provider and reference list source loaded
// from a YAML or CUE document.
//
// Example (YAML):
//
//	entities:
//	  Person:
//	    display_name: FullName
//	    properties:
//	      FirstName: {type: text}
//	      Age: {type: numeric, numeric: int32}
//	      Status: {type: category, list: Crm.PersonStatus}
//	      Address: {type: entity, entity: Address, id: guid}
//	reference_lists:
//	  - namespace: Crm
//	    name: PersonStatus
//	    items:
//	      - {code: 1, order: 1, text: Active}
//
// A Catalog must be compiled (Compile, or any Parse/Load function) before use.
type Catalog struct {
	Entities       map[string]EntityDef `yaml:"entities" json:"entities"`
	ReferenceLists []ReferenceListDef   `yaml:"reference_lists" json:"reference_lists"`

	props   map[string]map[string]PropertyInfo
	display map[string]string
	lists   map[CategoryID][]ReferenceListItem
}

// EntityDef describes one entity type.
type EntityDef struct {
	DisplayName string                 `yaml:"display_name" json:"display_name"`
	Properties  map[string]PropertyDef `yaml:"properties" json:"properties"`
}

// PropertyDef describes one property in catalog syntax.
type PropertyDef struct {
	Type    string `yaml:"type" json:"type"`
	Numeric string `yaml:"numeric,omitempty" json:"numeric,omitempty"`
	List    string `yaml:"list,omitempty" json:"list,omitempty"`
	Entity  string `yaml:"entity,omitempty" json:"entity,omitempty"`
	ID      string `yaml:"id,omitempty" json:"id,omitempty"`
	Mapped  *bool  `yaml:"mapped,omitempty" json:"mapped,omitempty"`
}

// ReferenceListDef describes a reference list in catalog syntax.
type ReferenceListDef struct {
	Namespace string    `yaml:"namespace" json:"namespace"`
	Name      string    `yaml:"name" json:"name"`
	Items     []ItemDef `yaml:"items" json:"items"`
}

// ItemDef describes a reference list item in catalog syntax.
type ItemDef struct {
	Code  int64  `yaml:"code" json:"code"`
	Order int    `yaml:"order" json:"order"`
	Text  string `yaml:"text" json:"text"`
}

// ParseCatalogYAML parses and compiles a YAML catalog document.
func ParseCatalogYAML(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog yaml: %w", err)
	}
	if err := c.Compile(); err != nil {
		return nil, err
	}
	return &c, nil
}

// ParseCatalogCUE evaluates a CUE catalog document, requires it to be
// concrete, and compiles it.
func ParseCatalogCUE(data []byte) (*Catalog, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data)
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("parse catalog cue: %w", err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("validate catalog cue: %w", err)
	}

	var c Catalog
	if err := v.Decode(&c); err != nil {
		return nil, fmt.Errorf("decode catalog cue: %w", err)
	}
	if err := c.Compile(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadCatalog reads a catalog file. Files ending in .cue are evaluated as
// CUE; anything else is parsed as YAML (which includes JSON).
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".cue") {
		return ParseCatalogCUE(data)
	}
	return ParseCatalogYAML(data)
}

// Compile validates the definitions and builds the lookup indexes.
func (c *Catalog) Compile() error {
	props := make(map[string]map[string]PropertyInfo, len(c.Entities))
	display := make(map[string]string, len(c.Entities))

	for entityName, entity := range c.Entities {
		infos := make(map[string]PropertyInfo, len(entity.Properties))
		for propName, def := range entity.Properties {
			info, err := def.info(propName)
			if err != nil {
				return fmt.Errorf("catalog %s.%s: %w", entityName, propName, err)
			}
			if info.Type == TypeEntityReference {
				if _, ok := c.Entities[info.ReferencedType]; !ok {
					return fmt.Errorf("catalog %s.%s: referenced entity %q is not defined", entityName, propName, info.ReferencedType)
				}
			}
			infos[propName] = info
		}
		if entity.DisplayName != "" {
			if _, ok := infos[entity.DisplayName]; !ok {
				return fmt.Errorf("catalog %s: display_name %q is not a property", entityName, entity.DisplayName)
			}
			display[entityName] = entity.DisplayName
		}
		props[entityName] = infos
	}

	lists := make(map[CategoryID][]ReferenceListItem, len(c.ReferenceLists))
	for _, def := range c.ReferenceLists {
		id := CategoryID{Namespace: def.Namespace, Name: def.Name}
		if def.Name == "" {
			return fmt.Errorf("catalog reference list without name in namespace %q", def.Namespace)
		}
		if _, dup := lists[id]; dup {
			return fmt.Errorf("catalog reference list %s defined twice", id)
		}
		items := make([]ReferenceListItem, len(def.Items))
		for i, item := range def.Items {
			items[i] = ReferenceListItem{Code: item.Code, OrderIndex: item.Order, Text: item.Text}
		}
		SortItems(items)
		lists[id] = items
	}

	c.props = props
	c.display = display
	c.lists = lists
	return nil
}

// info converts a definition to PropertyInfo.
func (d PropertyDef) info(name string) (PropertyInfo, error) {
	t, err := ParseGeneralType(d.Type)
	if err != nil {
		return PropertyInfo{}, err
	}
	info := PropertyInfo{Name: name, Type: t, Mapped: true}
	if d.Mapped != nil {
		info.Mapped = *d.Mapped
	}

	switch t {
	case TypeNumeric:
		if info.Numeric, err = ParseNumericKind(d.Numeric); err != nil {
			return PropertyInfo{}, err
		}
	case TypeCategory, TypeBitFlagSet:
		if d.List != "" {
			id, err := ParseCategoryID(d.List)
			if err != nil {
				return PropertyInfo{}, err
			}
			info.Category = &id
		}
	case TypeEntityReference:
		if d.Entity == "" {
			return PropertyInfo{}, fmt.Errorf("entity reference without entity type")
		}
		info.ReferencedType = d.Entity
		if info.IDKind, err = ParseIDKind(d.ID); err != nil {
			return PropertyInfo{}, err
		}
	}
	return info, nil
}

// Property implements Provider.
func (c *Catalog) Property(entityType, name string) (PropertyInfo, bool, error) {
	if c.props == nil {
		return PropertyInfo{}, false, fmt.Errorf("catalog is not compiled")
	}
	info, ok := c.props[entityType][name]
	return info, ok, nil
}

// DisplayNameProperty implements Provider.
func (c *Catalog) DisplayNameProperty(entityType string) (string, bool, error) {
	if c.props == nil {
		return "", false, fmt.Errorf("catalog is not compiled")
	}
	name, ok := c.display[entityType]
	return name, ok, nil
}

// ReferenceListItems implements ReferenceListSource.
func (c *Catalog) ReferenceListItems(id CategoryID) ([]ReferenceListItem, bool, error) {
	if c.props == nil {
		return nil, false, fmt.Errorf("catalog is not compiled")
	}
	items, ok := c.lists[id]
	return items, ok, nil
}

// ListIDs returns the ids of all reference lists in a stable order.
func (c *Catalog) ListIDs() []CategoryID {
	ids := make([]CategoryID, 0, len(c.lists))
	for id := range c.lists {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].String() < ids[j].String()
	})
	return ids
}

// SortItems orders items by OrderIndex, then Code.
func SortItems(items []ReferenceListItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].OrderIndex != items[j].OrderIndex {
			return items[i].OrderIndex < items[j].OrderIndex
		}
		return items[i].Code < items[j].Code
	})
}
