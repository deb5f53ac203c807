// Package querytext emits a compiled filter as a parameterized query-text
// fragment for a remote query engine.
//
// CRITICAL: Values are never interpolated. Every literal occurrence gets its
// own placeholder (:par1, :par2, ...) numbered in depth-first, left-to-right
// order, even when the same value appears twice.
package querytext

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/jsonfilter/internal/queryir"
)

// ParamPrefix is the placeholder name prefix.
const ParamPrefix = "par"

// Param is one placeholder and its value.
type Param struct {
	Name  string
	Value any
}

// Query is a filter fragment plus its ordered parameter table.
type Query struct {
	Text   string
	Params []Param
}

// Values returns the parameter values in placeholder order.
func (q Query) Values() []any {
	values := make([]any, len(q.Params))
	for i, p := range q.Params {
		values[i] = p.Value
	}
	return values
}

// NamedArgs returns the parameters as database/sql named arguments.
func (q Query) NamedArgs() []any {
	args := make([]any, len(q.Params))
	for i, p := range q.Params {
		args[i] = sql.Named(p.Name, p.Value)
	}
	return args
}

// Emit renders tree with alias prefixing every path.
//
// And/Or groups render each child in parentheses: `(a) and (b)`. Any other
// root is wrapped once so the result can always be embedded after WHERE.
func Emit(tree queryir.Node, alias string) (Query, error) {
	if tree == nil {
		return Query{}, fmt.Errorf("cannot emit nil filter")
	}
	e := &emitter{alias: alias}
	text, err := e.expr(tree)
	if err != nil {
		return Query{}, err
	}
	if !isGroup(tree) {
		text = "(" + text + ")"
	}
	return Query{Text: text, Params: e.params}, nil
}

// emitter accumulates parameters during one traversal.
type emitter struct {
	alias  string
	params []Param
}

func isGroup(n queryir.Node) bool {
	switch node := n.(type) {
	case queryir.And:
		return len(node.Nodes) > 0
	case queryir.Or:
		return len(node.Nodes) > 0
	}
	return false
}

func (e *emitter) expr(n queryir.Node) (string, error) {
	switch node := n.(type) {
	case queryir.Comparison:
		return e.comparison(node)
	case queryir.And:
		if len(node.Nodes) == 0 {
			return "1 = 1", nil
		}
		return e.group(node.Nodes, " and ")
	case queryir.Or:
		if len(node.Nodes) == 0 {
			return "1 = 0", nil
		}
		return e.group(node.Nodes, " or ")
	case queryir.Not:
		inner, err := e.expr(node.Node)
		if err != nil {
			return "", err
		}
		return "not (" + inner + ")", nil
	case queryir.Const:
		if node.Value {
			return "1 = 1", nil
		}
		return "1 = 0", nil
	default:
		return "", fmt.Errorf("unsupported filter node: %T", n)
	}
}

func (e *emitter) group(nodes []queryir.Node, sep string) (string, error) {
	parts := make([]string, len(nodes))
	for i, child := range nodes {
		text, err := e.expr(child)
		if err != nil {
			return "", err
		}
		parts[i] = "(" + text + ")"
	}
	return strings.Join(parts, sep), nil
}

// placeholder registers value and returns its placeholder.
func (e *emitter) placeholder(value any) string {
	name := ParamPrefix + strconv.Itoa(len(e.params)+1)
	e.params = append(e.params, Param{Name: name, Value: value})
	return ":" + name
}

func (e *emitter) column(path string) string {
	if e.alias == "" {
		return path
	}
	return e.alias + "." + path
}

func (e *emitter) comparison(c queryir.Comparison) (string, error) {
	col := e.column(c.Path)

	switch c.Op {
	case queryir.OpIsNull:
		return col + " is null", nil
	case queryir.OpIsNotNull:
		return col + " is not null", nil
	}
	if c.Value == nil {
		return "", fmt.Errorf("%s on %s has no value", c.Op, c.Path)
	}

	p := e.placeholder(c.Value)
	switch c.Op {
	case queryir.OpEq:
		return col + " = " + p, nil
	case queryir.OpNe:
		return col + " <> " + p, nil
	case queryir.OpLt:
		return col + " < " + p, nil
	case queryir.OpLte:
		return col + " <= " + p, nil
	case queryir.OpGt:
		return col + " > " + p, nil
	case queryir.OpGte:
		return col + " >= " + p, nil
	case queryir.OpContains:
		return col + " like '%' + " + p + " + '%'", nil
	case queryir.OpNotContains:
		return col + " not like '%' + " + p + " + '%'", nil
	case queryir.OpStartsWith:
		return col + " like " + p + " + '%'", nil
	case queryir.OpEndsWith:
		return col + " like '%' + " + p, nil
	case queryir.OpBitAnyOf:
		return "(" + col + " & " + p + ") <> 0", nil
	default:
		return "", fmt.Errorf("unsupported operator %q", c.Op)
	}
}
