package predicate

import (
	"reflect"
	"strings"

	goreflect "github.com/goccy/go-reflect"
)

// TagName is the struct tag that renames a field for path lookups.
const TagName = "jsonfilter"

// Record is a candidate object a predicate is evaluated against.
type Record interface {
	// Field returns the value of the named member. ok is false when the
	// record has no such member.
	Field(name string) (value any, ok bool)
}

// MapRecord is a Record backed by a decoded JSON object.
type MapRecord map[string]any

// Field implements Record.
func (m MapRecord) Field(name string) (any, bool) {
	v, ok := m[name]
	return v, ok
}

// StructRecord is a Record backed by a struct. Fields are matched by their
// `jsonfilter` tag, or by name when untagged. Unexported fields and fields
// tagged "-" are invisible.
type StructRecord struct {
	v goreflect.Value
}

// Field implements Record.
func (s StructRecord) Field(name string) (any, bool) {
	typ := s.v.Type()
	for n := 0; n < s.v.NumField(); n++ {
		field := typ.Field(n)
		if field.PkgPath != "" {
			continue
		}
		key := field.Name
		if tag, ok := field.Tag.Lookup(TagName); ok {
			if tag == "-" {
				continue
			}
			if tag != "" {
				key = tag
			}
		}
		if key == name {
			return s.v.Field(n).Interface(), true
		}
	}
	return nil, false
}

// AsRecord adapts v to a Record. Maps with string keys and structs (or
// pointers to either) are supported. Nil pointers and other values are not
// records.
func AsRecord(v any) (Record, bool) {
	switch rec := v.(type) {
	case nil:
		return nil, false
	case Record:
		return rec, true
	case map[string]any:
		return MapRecord(rec), true
	}

	r := goreflect.ValueNoEscapeOf(v)
	k := r.Kind()
	for k == goreflect.Interface || k == reflect.Pointer {
		if r.IsNil() {
			return nil, false
		}
		r = r.Elem()
		k = r.Kind()
	}

	switch k {
	case goreflect.Struct:
		if r.Type() == timeType {
			return nil, false
		}
		return StructRecord{v: r}, true
	case goreflect.Map:
		if r.IsNil() || r.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		m := make(MapRecord, r.Len())
		for _, key := range r.MapKeys() {
			m[key.String()] = r.MapIndex(key).Interface()
		}
		return m, true
	}
	return nil, false
}

// Lookup reads a dot-path off rec, following nested records as plain member
// access. Missing members and nil hops yield nil.
//
// A trailing "Id" segment applied to a value that is not a record returns the
// value itself, so entity references may be stored either as nested objects
// or as bare ids.
func Lookup(rec Record, path string) any {
	return lookup(rec, strings.Split(path, "."))
}

func lookup(rec Record, segments []string) any {
	var current any = rec
	for i, seg := range segments {
		current = deref(current)
		r, ok := AsRecord(current)
		if !ok {
			if current != nil && i == len(segments)-1 && seg == "Id" {
				return current
			}
			return nil
		}
		v, ok := r.Field(seg)
		if !ok {
			return nil
		}
		current = v
	}
	return deref(current)
}

// deref unwraps pointers; a nil pointer is nil.
func deref(v any) any {
	switch v.(type) {
	case nil:
		return nil
	case Record:
		return v
	}
	r := goreflect.ValueNoEscapeOf(v)
	if r.Kind() != reflect.Pointer {
		return v
	}
	for r.Kind() == reflect.Pointer {
		if r.IsNil() {
			return nil
		}
		r = r.Elem()
	}
	return r.Interface()
}
