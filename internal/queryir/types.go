package queryir

import "github.com/roach88/jsonfilter/internal/metadata"

// Node is one node of a compiled filter.
//
// This is a sealed interface - only types in this package implement it.
// Node types:
//   - Comparison: a single test of one property against at most one value
//   - And: all children must be true (empty = always true)
//   - Or: at least one child must be true (empty = always false)
//   - Not: negation of exactly one child
//   - Const: constant true or false
type Node interface {
	queryNode() // Marker method - seals interface to this package
}

// Op is a comparison operator.
type Op string

const (
	OpEq          Op = "eq"
	OpNe          Op = "ne"
	OpLt          Op = "lt"
	OpLte         Op = "lte"
	OpGt          Op = "gt"
	OpGte         Op = "gte"
	OpContains    Op = "contains"
	OpNotContains Op = "notContains"
	OpStartsWith  Op = "startsWith"
	OpEndsWith    Op = "endsWith"
	OpIsNull      Op = "isNull"
	OpIsNotNull   Op = "isNotNull"
	OpBitAnyOf    Op = "bitAnyOf"
)

// HasValue reports whether comparisons with op carry a value.
func (op Op) HasValue() bool {
	return op != OpIsNull && op != OpIsNotNull
}

// IsText reports whether op is a substring/prefix/suffix test.
func (op Op) IsText() bool {
	switch op {
	case OpContains, OpNotContains, OpStartsWith, OpEndsWith:
		return true
	}
	return false
}

// Valid reports whether op is a known operator.
func (op Op) Valid() bool {
	switch op {
	case OpEq, OpNe, OpLt, OpLte, OpGt, OpGte,
		OpContains, OpNotContains, OpStartsWith, OpEndsWith,
		OpIsNull, OpIsNotNull, OpBitAnyOf:
		return true
	}
	return false
}

// Comparison tests the property at Path.
//
// Path is the physical dot-path from the root entity. For entity references
// it already ends in ".Id".
//
// Example:
//
//	Comparison{Path: "CreationTime", Op: OpGte, Value: time.Date(...), Type: metadata.TypeDateTime}
//
// renders as
//
//	ent.CreationTime >= :par1
type Comparison struct {
	Path    string
	Op      Op
	Value   any
	Type    metadata.GeneralType
	Numeric metadata.NumericKind
}

func (Comparison) queryNode() {}

// And is a conjunction evaluated in order.
type And struct {
	Nodes []Node
}

func (And) queryNode() {}

// Or is a disjunction evaluated in order. Order is preserved by emitters.
type Or struct {
	Nodes []Node
}

func (Or) queryNode() {}

// Not negates Node.
type Not struct {
	Node Node
}

func (Not) queryNode() {}

// Const is a constant predicate. Const{false} is "matches nothing", which is
// different from having no filter at all.
type Const struct {
	Value bool
}

func (Const) queryNode() {}

// True and False are the constant predicates.
var (
	True  = Const{Value: true}
	False = Const{Value: false}
)

// Negate returns the negation of n, simplifying where the IR has a direct
// opposite:
//
//	not(isNull)      = isNotNull
//	not(isNotNull)   = isNull
//	not(contains)    = notContains
//	not(notContains) = contains
//	not(not x)       = x
//	not(const b)     = const !b
//
// Everything else is wrapped in Not.
func Negate(n Node) Node {
	switch node := n.(type) {
	case Comparison:
		switch node.Op {
		case OpIsNull:
			node.Op = OpIsNotNull
			return node
		case OpIsNotNull:
			node.Op = OpIsNull
			return node
		case OpContains:
			node.Op = OpNotContains
			return node
		case OpNotContains:
			node.Op = OpContains
			return node
		}
	case Not:
		return node.Node
	case Const:
		return Const{Value: !node.Value}
	}
	return Not{Node: n}
}

// Walk calls fn for every node in depth-first, left-to-right order. fn
// returning false skips the node's children.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch node := n.(type) {
	case And:
		for _, child := range node.Nodes {
			Walk(child, fn)
		}
	case Or:
		for _, child := range node.Nodes {
			Walk(child, fn)
		}
	case Not:
		Walk(node.Node, fn)
	}
}

// CountValues returns the number of comparison values in the tree, which is
// the number of parameters the query-text emitter produces.
func CountValues(n Node) int {
	count := 0
	Walk(n, func(node Node) bool {
		if c, ok := node.(Comparison); ok && c.Op.HasValue() {
			count++
		}
		return true
	})
	return count
}
