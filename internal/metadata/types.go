package metadata

import (
	"fmt"
	"strings"
)

// GeneralType is the compiler's classification of a property, independent of
// its storage representation.
type GeneralType int

const (
	TypeUnknown GeneralType = iota
	TypeText
	TypeNumeric
	TypeBoolean
	TypeDate
	TypeTime
	TypeDateTime
	TypeCategory
	TypeBitFlagSet
	TypeEntityReference
)

var generalTypeNames = map[GeneralType]string{
	TypeUnknown:         "unknown",
	TypeText:            "text",
	TypeNumeric:         "numeric",
	TypeBoolean:         "boolean",
	TypeDate:            "date",
	TypeTime:            "time",
	TypeDateTime:        "datetime",
	TypeCategory:        "category",
	TypeBitFlagSet:      "bitflags",
	TypeEntityReference: "entity",
}

// String returns the lower-case name used in catalog documents.
func (t GeneralType) String() string {
	if name, ok := generalTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("GeneralType(%d)", int(t))
}

// ParseGeneralType parses a catalog type name (case-insensitive).
func ParseGeneralType(s string) (GeneralType, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for t, n := range generalTypeNames {
		if t != TypeUnknown && n == name {
			return t, nil
		}
	}
	return TypeUnknown, fmt.Errorf("unknown general type %q", s)
}

// NumericKind is the exact storage width of a Numeric property.
type NumericKind int

const (
	// NumericDouble is the default when a catalog does not say otherwise.
	NumericDouble NumericKind = iota
	NumericInt32
	NumericInt64
	NumericFloat
	NumericDecimal
)

var numericKindNames = map[NumericKind]string{
	NumericDouble:  "double",
	NumericInt32:   "int32",
	NumericInt64:   "int64",
	NumericFloat:   "float",
	NumericDecimal: "decimal",
}

func (k NumericKind) String() string {
	if name, ok := numericKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("NumericKind(%d)", int(k))
}

// IsInteger reports whether the kind stores whole numbers.
func (k NumericKind) IsInteger() bool {
	return k == NumericInt32 || k == NumericInt64
}

// ParseNumericKind parses a catalog numeric width name. Empty means double.
func ParseNumericKind(s string) (NumericKind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return NumericDouble, nil
	}
	for k, n := range numericKindNames {
		if n == name {
			return k, nil
		}
	}
	return NumericDouble, fmt.Errorf("unknown numeric kind %q", s)
}

// IDKind is the identifier type of a referenced entity.
type IDKind int

const (
	IDGuid IDKind = iota
	IDInt64
	IDString
)

var idKindNames = map[IDKind]string{
	IDGuid:   "guid",
	IDInt64:  "int64",
	IDString: "string",
}

func (k IDKind) String() string {
	if name, ok := idKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("IDKind(%d)", int(k))
}

// ParseIDKind parses a catalog id kind name. Empty means guid.
func ParseIDKind(s string) (IDKind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return IDGuid, nil
	}
	for k, n := range idKindNames {
		if n == name {
			return k, nil
		}
	}
	return IDGuid, fmt.Errorf("unknown id kind %q", s)
}

// CategoryID identifies a reference list.
type CategoryID struct {
	Namespace string
	Name      string
}

// String renders the id as "Namespace.Name".
func (c CategoryID) String() string {
	if c.Namespace == "" {
		return c.Name
	}
	return c.Namespace + "." + c.Name
}

// ParseCategoryID splits "Namespace.Name" at the last dot.
func ParseCategoryID(s string) (CategoryID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return CategoryID{}, fmt.Errorf("empty reference list id")
	}
	idx := strings.LastIndex(s, ".")
	if idx < 0 {
		return CategoryID{Name: s}, nil
	}
	if idx == 0 || idx == len(s)-1 {
		return CategoryID{}, fmt.Errorf("malformed reference list id %q", s)
	}
	return CategoryID{Namespace: s[:idx], Name: s[idx+1:]}, nil
}

// PropertyInfo describes a single property of an entity type.
type PropertyInfo struct {
	// Name is the property name as used in var paths.
	Name string

	// Type is the general data type.
	Type GeneralType

	// Numeric is the storage width for Numeric properties.
	Numeric NumericKind

	// Category identifies the reference list for Category and BitFlagSet
	// properties. Nil otherwise.
	Category *CategoryID

	// ReferencedType is the entity type of an EntityReference property.
	ReferencedType string

	// IDKind is the identifier type of the referenced entity.
	IDKind IDKind

	// Mapped is false for derived/computed properties that are not stored.
	Mapped bool
}

// ReferenceListItem is one entry of a reference list.
type ReferenceListItem struct {
	Code       int64
	OrderIndex int
	Text       string
}

// Provider supplies entity property metadata.
type Provider interface {
	// Property returns the property of entityType named name.
	// ok is false when the entity type or property is unknown.
	Property(entityType, name string) (info PropertyInfo, ok bool, err error)

	// DisplayNameProperty returns the name of the property used to display
	// entities of entityType. ok is false when the type has none.
	DisplayNameProperty(entityType string) (name string, ok bool, err error)
}

// ReferenceListSource supplies reference list items.
type ReferenceListSource interface {
	// ReferenceListItems returns the items of a list ordered by OrderIndex.
	// ok is false when the list is unknown.
	ReferenceListItems(id CategoryID) (items []ReferenceListItem, ok bool, err error)
}
