// Package predicate emits a compiled filter as an in-memory predicate over
// records.
//
// Null semantics follow the query-text target: a comparison against a
// missing or null value is false, except isNull, notContains (the negation of
// contains) and anything under Not. Text equality is exact; contains,
// startsWith and endsWith ignore case.
package predicate

import (
	"cmp"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"
	"golang.org/x/text/cases"

	"github.com/roach88/jsonfilter/internal/metadata"
	"github.com/roach88/jsonfilter/internal/queryir"
)

// Func evaluates a compiled filter against one record.
type Func func(Record) bool

// Matches adapts v with AsRecord and evaluates f. Values that are not
// records never match.
func (f Func) Matches(v any) bool {
	rec, ok := AsRecord(v)
	if !ok {
		return false
	}
	return f(rec)
}

// Emit builds the predicate for tree. All literal conversions happen here,
// once; the returned Func only reads records. It is safe for concurrent use.
func Emit(tree queryir.Node) (Func, error) {
	if tree == nil {
		return nil, fmt.Errorf("cannot emit nil filter")
	}
	return emit(tree)
}

func emit(n queryir.Node) (Func, error) {
	switch node := n.(type) {
	case queryir.Comparison:
		return comparison(node)
	case queryir.And:
		children, err := emitAll(node.Nodes)
		if err != nil {
			return nil, err
		}
		return func(r Record) bool {
			for _, child := range children {
				if !child(r) {
					return false
				}
			}
			return true
		}, nil
	case queryir.Or:
		children, err := emitAll(node.Nodes)
		if err != nil {
			return nil, err
		}
		return func(r Record) bool {
			for _, child := range children {
				if child(r) {
					return true
				}
			}
			return false
		}, nil
	case queryir.Not:
		inner, err := emit(node.Node)
		if err != nil {
			return nil, err
		}
		return func(r Record) bool { return !inner(r) }, nil
	case queryir.Const:
		v := node.Value
		return func(Record) bool { return v }, nil
	default:
		return nil, fmt.Errorf("unsupported filter node: %T", n)
	}
}

func emitAll(nodes []queryir.Node) ([]Func, error) {
	out := make([]Func, len(nodes))
	for i, n := range nodes {
		f, err := emit(n)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

func comparison(c queryir.Comparison) (Func, error) {
	path := strings.Split(c.Path, ".")
	read := func(r Record) any { return lookup(r, path) }

	switch c.Op {
	case queryir.OpIsNull:
		return func(r Record) bool { return read(r) == nil }, nil
	case queryir.OpIsNotNull:
		return func(r Record) bool { return read(r) != nil }, nil
	case queryir.OpContains, queryir.OpNotContains, queryir.OpStartsWith, queryir.OpEndsWith:
		return textMatch(c, read)
	case queryir.OpBitAnyOf:
		flag, ok := c.Value.(int64)
		if !ok {
			return nil, fmt.Errorf("bitAnyOf on %s needs an int64 flag, got %T", c.Path, c.Value)
		}
		return func(r Record) bool {
			v, ok := asInt64(read(r))
			return ok && v&flag != 0
		}, nil
	}

	compare, err := comparer(c)
	if err != nil {
		return nil, err
	}
	test, err := ordering(c.Op)
	if err != nil {
		return nil, err
	}
	return func(r Record) bool {
		v := read(r)
		if v == nil {
			return false
		}
		result, ok := compare(v)
		return ok && test(result)
	}, nil
}

// ordering maps an operator to a test on a three-way comparison result.
func ordering(op queryir.Op) (func(int) bool, error) {
	switch op {
	case queryir.OpEq:
		return func(c int) bool { return c == 0 }, nil
	case queryir.OpNe:
		return func(c int) bool { return c != 0 }, nil
	case queryir.OpLt:
		return func(c int) bool { return c < 0 }, nil
	case queryir.OpLte:
		return func(c int) bool { return c <= 0 }, nil
	case queryir.OpGt:
		return func(c int) bool { return c > 0 }, nil
	case queryir.OpGte:
		return func(c int) bool { return c >= 0 }, nil
	default:
		return nil, fmt.Errorf("unsupported operator %q", op)
	}
}

func textMatch(c queryir.Comparison, read func(Record) any) (Func, error) {
	lit, ok := c.Value.(string)
	if !ok {
		return nil, fmt.Errorf("%s on %s needs a string, got %T", c.Op, c.Path, c.Value)
	}
	needle := fold(lit)

	var match func(string) bool
	switch c.Op {
	case queryir.OpStartsWith:
		match = func(s string) bool { return strings.HasPrefix(s, needle) }
	case queryir.OpEndsWith:
		match = func(s string) bool { return strings.HasSuffix(s, needle) }
	default:
		match = func(s string) bool { return strings.Contains(s, needle) }
	}

	hit := func(r Record) bool {
		s, ok := asString(read(r))
		return ok && match(fold(s))
	}
	if c.Op == queryir.OpNotContains {
		return func(r Record) bool { return !hit(r) }, nil
	}
	return hit, nil
}

// fold returns the case-folded form of s. A Caser is stateful, so each call
// gets its own.
func fold(s string) string {
	return cases.Fold().String(s)
}

// comparer returns a three-way comparison of a record value against the
// literal, in the literal's representation.
func comparer(c queryir.Comparison) (func(any) (int, bool), error) {
	switch lit := c.Value.(type) {
	case string:
		if c.Type == metadata.TypeEntityReference || c.Type == metadata.TypeText || c.Type == metadata.TypeUnknown {
			return func(v any) (int, bool) {
				s, ok := asString(v)
				return strings.Compare(s, lit), ok
			}, nil
		}
	case bool:
		return func(v any) (int, bool) {
			b, ok := asBool(v)
			if b == lit {
				return 0, ok
			}
			return 1, ok
		}, nil
	case int32:
		return intComparer(int64(lit)), nil
	case int64:
		return intComparer(lit), nil
	case float32:
		return func(v any) (int, bool) {
			f, ok := asFloat64(v)
			return cmp.Compare(float32(f), lit), ok
		}, nil
	case float64:
		return func(v any) (int, bool) {
			f, ok := asFloat64(v)
			return cmp.Compare(f, lit), ok
		}, nil
	case time.Time:
		read := asTime
		if c.Type == metadata.TypeDate {
			read = asDate
		}
		return func(v any) (int, bool) {
			t, ok := read(v)
			return t.Compare(lit), ok
		}, nil
	case time.Duration:
		return func(v any) (int, bool) {
			d, ok := asTimeOfDay(v)
			return cmp.Compare(d, lit), ok
		}, nil
	case uuid.UUID:
		return func(v any) (int, bool) {
			id, ok := asUUID(v)
			if id == lit {
				return 0, ok
			}
			return strings.Compare(id.String(), lit.String()), ok
		}, nil
	case *apd.Decimal:
		if lit == nil {
			break
		}
		return func(v any) (int, bool) {
			d, ok := asDecimal(v)
			if !ok {
				return 0, false
			}
			return d.Cmp(lit), true
		}, nil
	}
	return nil, fmt.Errorf("unsupported %s value %T on %s", c.Type, c.Value, c.Path)
}

func intComparer(lit int64) func(any) (int, bool) {
	return func(v any) (int, bool) {
		i, ok := asInt64(v)
		return cmp.Compare(i, lit), ok
	}
}
