package queryir

import (
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"

	"github.com/roach88/jsonfilter/internal/metadata"
)

// ValidationResult lists structural problems found in a tree.
type ValidationResult struct {
	// Valid is true when Problems is empty.
	Valid bool

	// Problems describes each violation, in traversal order.
	Problems []string
}

// Validate checks that a tree is well formed:
//   - no nil children, Not always has a child
//   - every comparison has a path and a known operator
//   - isNull/isNotNull carry no value, every other operator carries one
//   - the value's Go type matches the comparison's general type
//   - text operators only appear on Text, bitAnyOf only on BitFlagSet
//
// Validate is a pure function with no side effects.
func Validate(n Node) ValidationResult {
	v := &validator{problems: []string{}}
	v.validate(n, "root")
	return ValidationResult{
		Valid:    len(v.problems) == 0,
		Problems: v.problems,
	}
}

type validator struct {
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) validate(n Node, at string) {
	if n == nil {
		v.addProblem("%s: nil node", at)
		return
	}

	switch node := n.(type) {
	case Comparison:
		v.validateComparison(node, at)
	case And:
		for i, child := range node.Nodes {
			v.validate(child, fmt.Sprintf("%s.and[%d]", at, i))
		}
	case Or:
		for i, child := range node.Nodes {
			v.validate(child, fmt.Sprintf("%s.or[%d]", at, i))
		}
	case Not:
		v.validate(node.Node, at+".not")
	case Const:
	default:
		v.addProblem("%s: unknown node type %T", at, n)
	}
}

func (v *validator) validateComparison(c Comparison, at string) {
	if c.Path == "" {
		v.addProblem("%s: comparison without path", at)
	}
	if !c.Op.Valid() {
		v.addProblem("%s: unknown operator %q", at, c.Op)
		return
	}
	if !c.Op.HasValue() {
		if c.Value != nil {
			v.addProblem("%s: %s on %s carries a value", at, c.Op, c.Path)
		}
		return
	}
	if c.Value == nil {
		v.addProblem("%s: %s on %s has no value", at, c.Op, c.Path)
		return
	}

	if c.Op.IsText() && c.Type != metadata.TypeText && c.Type != metadata.TypeUnknown {
		v.addProblem("%s: %s on %s property %s", at, c.Op, c.Type, c.Path)
	}
	if c.Op == OpBitAnyOf && c.Type != metadata.TypeBitFlagSet {
		v.addProblem("%s: bitAnyOf on %s property %s", at, c.Type, c.Path)
	}
	if !valueMatches(c.Type, c.Value) {
		v.addProblem("%s: %T value for %s property %s", at, c.Value, c.Type, c.Path)
	}
}

// valueMatches reports whether value has a Go type valid for typ.
func valueMatches(typ metadata.GeneralType, value any) bool {
	switch typ {
	case metadata.TypeText:
		_, ok := value.(string)
		return ok
	case metadata.TypeNumeric:
		switch value.(type) {
		case int32, int64, float32, float64, *apd.Decimal:
			return true
		}
		return false
	case metadata.TypeBoolean:
		_, ok := value.(bool)
		return ok
	case metadata.TypeDate, metadata.TypeDateTime:
		_, ok := value.(time.Time)
		return ok
	case metadata.TypeTime:
		switch value.(type) {
		case time.Duration, time.Time:
			return true
		}
		return false
	case metadata.TypeCategory, metadata.TypeBitFlagSet:
		_, ok := value.(int64)
		return ok
	case metadata.TypeEntityReference:
		switch value.(type) {
		case uuid.UUID, int64, string:
			return true
		}
		return false
	default:
		return true
	}
}

// Format renders a tree in a compact prefix notation for logs and
// diagnostics, e.g. `or(eq(Status, 1), eq(Status, 2))`.
func Format(n Node) string {
	var b strings.Builder
	format(&b, n)
	return b.String()
}

func format(b *strings.Builder, n Node) {
	switch node := n.(type) {
	case nil:
		b.WriteString("<nil>")
	case Comparison:
		b.WriteString(string(node.Op))
		b.WriteByte('(')
		b.WriteString(node.Path)
		if node.Op.HasValue() {
			b.WriteString(", ")
			b.WriteString(FormatValue(node.Value))
		}
		b.WriteByte(')')
	case And:
		formatGroup(b, "and", node.Nodes)
	case Or:
		formatGroup(b, "or", node.Nodes)
	case Not:
		b.WriteString("not(")
		format(b, node.Node)
		b.WriteByte(')')
	case Const:
		if node.Value {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	default:
		fmt.Fprintf(b, "%T", n)
	}
}

func formatGroup(b *strings.Builder, name string, nodes []Node) {
	b.WriteString(name)
	b.WriteByte('(')
	for i, child := range nodes {
		if i > 0 {
			b.WriteString(", ")
		}
		format(b, child)
	}
	b.WriteByte(')')
}

// FormatValue renders a comparison value for display.
func FormatValue(value any) string {
	switch v := value.(type) {
	case string:
		return fmt.Sprintf("%q", v)
	case time.Time:
		return v.UTC().Format("2006-01-02 15:04:05.000")
	case time.Duration:
		return formatTimeOfDay(v)
	case *apd.Decimal:
		return v.Text('f')
	case uuid.UUID:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

func formatTimeOfDay(d time.Duration) string {
	ms := d.Milliseconds()
	return fmt.Sprintf("%02d:%02d:%02d.%03d", ms/3600000, ms/60000%60, ms/1000%60, ms%1000)
}
