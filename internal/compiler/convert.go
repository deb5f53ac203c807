package compiler

import (
	"fmt"

	"github.com/roach88/jsonfilter/internal/ast"
	"github.com/roach88/jsonfilter/internal/filtererr"
	"github.com/roach88/jsonfilter/internal/ir"
	"github.com/roach88/jsonfilter/internal/queryir"
	"github.com/roach88/jsonfilter/internal/resolve"
)

// conversion is the per-call state of one compile. It is never shared.
type conversion struct {
	rootType string
	resolver *resolve.Resolver
	dispatch *Dispatcher
	warnings []string
}

var compareOps = map[ast.CompareOp]Operation{
	ast.OpEqual:        Equal,
	ast.OpNotEqual:     NotEqual,
	ast.OpLess:         Less,
	ast.OpLessEqual:    LessEqual,
	ast.OpGreater:      Greater,
	ast.OpGreaterEqual: GreaterEqual,
	ast.OpStartsWith:   StartsWith,
	ast.OpEndsWith:     EndsWith,
}

func (cv *conversion) warnf(format string, args ...any) {
	cv.warnings = append(cv.warnings, fmt.Sprintf(format, args...))
}

// node converts one AST node bottom-up.
func (cv *conversion) node(n ast.Node) (queryir.Node, error) {
	switch node := n.(type) {
	case ast.Var:
		// A bare var is a presence test.
		desc, err := cv.resolver.Resolve(cv.rootType, node.Path)
		if err != nil {
			return nil, err
		}
		return leaf(desc, queryir.OpIsNotNull, nil), nil
	case ast.Logical:
		return cv.logical(node)
	case ast.Compare:
		return cv.compare(node)
	default:
		return nil, filtererr.Parsef("unsupported node %T", n)
	}
}

func (cv *conversion) logical(l ast.Logical) (queryir.Node, error) {
	children := make([]queryir.Node, 0, len(l.Children))
	for _, child := range l.Children {
		c, err := cv.node(child)
		if err != nil {
			return nil, err
		}
		children = append(children, c)
	}

	switch l.Op {
	case ast.OpAnd:
		if len(children) == 0 {
			return queryir.True, nil
		}
		return queryir.And{Nodes: children}, nil
	case ast.OpOr:
		if len(children) == 0 {
			return queryir.False, nil
		}
		return queryir.Or{Nodes: children}, nil
	case ast.OpNot:
		if len(children) != 1 {
			return nil, filtererr.Parsef("! expects exactly one argument, got %d", len(children))
		}
		return queryir.Negate(children[0]), nil
	default:
		return nil, filtererr.Parsef("unknown logical operator %q", l.Op)
	}
}

func (cv *conversion) compare(c ast.Compare) (queryir.Node, error) {
	operands := c.Operands
	if len(operands) == 3 {
		if c.IsRange() {
			return cv.between(c)
		}
		cv.warnf("%s: middle operand of a three-operand comparison is not a var; using the first two operands and ignoring %s",
			c.Op, describeOperand(operands[2]))
		operands = operands[:2]
	}
	if len(operands) != 2 {
		return nil, filtererr.Parsef("%s expects 2 operands, got %d", c.Op, len(operands))
	}

	left, right := operands[0], operands[1]
	leftVar, leftIsVar := left.(ast.Var)
	rightVar, rightIsVar := right.(ast.Var)

	if c.Op == ast.OpIn {
		switch {
		case leftIsVar && rightIsVar:
			return nil, filtererr.Mismatch(string(c.Op), leftVar.Path, "cannot compare var %s with var %s", leftVar.Path, rightVar.Path)
		case leftIsVar:
			return cv.dispatchOn(Member, leftVar, right.(ast.Literal).Value)
		case rightIsVar:
			return cv.dispatchOn(Contains, rightVar, left.(ast.Literal).Value)
		default:
			return nil, filtererr.Mismatch(string(c.Op), "", "comparison needs a var operand")
		}
	}

	op, ok := compareOps[c.Op]
	if !ok {
		return nil, filtererr.Parsef("unknown operator %q", c.Op)
	}

	switch {
	case leftIsVar && rightIsVar:
		return nil, filtererr.Mismatch(string(c.Op), leftVar.Path, "cannot compare var %s with var %s", leftVar.Path, rightVar.Path)
	case leftIsVar:
		return cv.dispatchOn(op, leftVar, right.(ast.Literal).Value)
	case rightIsVar:
		if op == StartsWith || op == EndsWith {
			return nil, filtererr.Mismatch(string(c.Op), rightVar.Path, "%s expects the var as first operand", c.Op)
		}
		return cv.dispatchOn(compareOps[c.Op.Mirror()], rightVar, left.(ast.Literal).Value)
	default:
		return nil, filtererr.Mismatch(string(c.Op), "", "comparison needs a var operand")
	}
}

// between compiles `[lower, var, upper]` as `var >= lower and var <= upper`,
// whatever operator wraps it.
func (cv *conversion) between(c ast.Compare) (queryir.Node, error) {
	v := c.Operands[1].(ast.Var)
	lower, lowerOK := c.Operands[0].(ast.Literal)
	upper, upperOK := c.Operands[2].(ast.Literal)
	if !lowerOK || !upperOK {
		return nil, filtererr.Mismatch(string(c.Op), v.Path, "range bounds must be literals")
	}

	desc, err := cv.resolver.Resolve(cv.rootType, v.Path)
	if err != nil {
		return nil, err
	}
	from, err := cv.dispatch.Build(GreaterEqual, desc, lower.Value)
	if err != nil {
		return nil, err
	}
	to, err := cv.dispatch.Build(LessEqual, desc, upper.Value)
	if err != nil {
		return nil, err
	}
	return queryir.And{Nodes: []queryir.Node{from, to}}, nil
}

func (cv *conversion) dispatchOn(op Operation, v ast.Var, value ir.IRValue) (queryir.Node, error) {
	desc, err := cv.resolver.Resolve(cv.rootType, v.Path)
	if err != nil {
		return nil, err
	}
	return cv.dispatch.Build(op, desc, value)
}

func describeOperand(o ast.Operand) string {
	switch op := o.(type) {
	case ast.Var:
		return "var " + op.Path
	case ast.Literal:
		return ir.Format(op.Value)
	default:
		return fmt.Sprintf("%T", o)
	}
}
