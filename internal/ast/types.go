package ast

import "github.com/roach88/jsonfilter/internal/ir"

// Node represents one parsed filter node.
//
// This is a sealed interface - only types in this package implement it.
// Node types:
//   - Var: a bare variable reference, treated as a not-null check
//   - Compare: an operator applied to var/literal operands
//   - Logical: and/or/not over child nodes
type Node interface {
	filterNode() // Marker method - seals interface to this package
}

// Operand is an argument of a Compare node: either a Var or a Literal.
type Operand interface {
	operand()
}

// Var is a dot-notation reference to a property of the root entity.
type Var struct {
	Path string
}

func (Var) filterNode() {}
func (Var) operand()    {}

// Literal is any JSON scalar or array in operand position.
type Literal struct {
	Value ir.IRValue
}

func (Literal) operand() {}

// CompareOp names a comparison operator as written in the filter JSON.
type CompareOp string

const (
	OpEqual        CompareOp = "=="
	OpNotEqual     CompareOp = "!="
	OpLess         CompareOp = "<"
	OpLessEqual    CompareOp = "<="
	OpGreater      CompareOp = ">"
	OpGreaterEqual CompareOp = ">="
	OpIn           CompareOp = "in"
	OpStartsWith   CompareOp = "startsWith"
	OpEndsWith     CompareOp = "endsWith"
)

// IsRelational reports whether op is one of <, <=, >, >=.
func (op CompareOp) IsRelational() bool {
	switch op {
	case OpLess, OpLessEqual, OpGreater, OpGreaterEqual:
		return true
	}
	return false
}

// Mirror returns the operator with its operands swapped, so that
// `a op b` equals `b op.Mirror() a`.
func (op CompareOp) Mirror() CompareOp {
	switch op {
	case OpLess:
		return OpGreater
	case OpLessEqual:
		return OpGreaterEqual
	case OpGreater:
		return OpLess
	case OpGreaterEqual:
		return OpLessEqual
	default:
		return op
	}
}

// Compare applies Op to Operands.
type Compare struct {
	Op       CompareOp
	Operands []Operand
}

func (Compare) filterNode() {}

// IsRange reports whether the node has the three-operand between shape
// `[lower, var, upper]`. The wrapping operator is irrelevant.
func (c Compare) IsRange() bool {
	if len(c.Operands) != 3 {
		return false
	}
	_, ok := c.Operands[1].(Var)
	return ok
}

// LogicalOp names a logical combinator.
type LogicalOp string

const (
	OpAnd LogicalOp = "and"
	OpOr  LogicalOp = "or"
	OpNot LogicalOp = "!"
)

// Logical combines child nodes. Not always has exactly one child.
type Logical struct {
	Op       LogicalOp
	Children []Node
}

func (Logical) filterNode() {}
