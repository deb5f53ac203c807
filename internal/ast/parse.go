package ast

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/jsonfilter/internal/filtererr"
	"github.com/roach88/jsonfilter/internal/ir"
)

// Parse parses a JsonLogic filter document into an AST.
//
// Empty input, whitespace, `null` and `{}` mean "no filter" and return a nil
// Node without error. Any other failure is a PARSE_ERROR; no partial AST is
// ever returned.
func Parse(data []byte) (Node, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, filtererr.WrapParse(err, "invalid JSON")
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, filtererr.Parsef("unexpected data after filter document")
	}

	if raw == nil {
		return nil, nil
	}
	if m, ok := raw.(map[string]any); ok && len(m) == 0 {
		return nil, nil
	}

	return FromAny(raw)
}

// FromAny builds an AST from an already decoded JSON document
// (encoding/json output, preferably decoded with UseNumber).
func FromAny(raw any) (Node, error) {
	p := &parser{}
	return p.parseNode(raw)
}

type parser struct{}

// parseNode parses a value in node position: `{ "<op>": args }`.
func (p *parser) parseNode(raw any) (Node, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, filtererr.Parsef("expected an operator object, got %s", describe(raw))
	}
	if len(obj) != 1 {
		return nil, filtererr.Parsef("operator object must have exactly one key, got %d", len(obj))
	}

	var key string
	var args any
	for k, v := range obj {
		key, args = k, v
	}

	switch key {
	case "var":
		v, err := parseVar(args)
		if err != nil {
			return nil, err
		}
		return v, nil
	case string(OpAnd), string(OpOr):
		return p.parseGroup(LogicalOp(key), args)
	case string(OpNot):
		child, err := p.parseUnary(key, args)
		if err != nil {
			return nil, err
		}
		return Logical{Op: OpNot, Children: []Node{child}}, nil
	case "!!":
		child, err := p.parseUnary(key, args)
		if err != nil {
			return nil, err
		}
		inner := Logical{Op: OpNot, Children: []Node{child}}
		return Logical{Op: OpNot, Children: []Node{inner}}, nil
	case string(OpEqual), "===":
		return p.parseCompare(OpEqual, args, 2, 3)
	case string(OpNotEqual), "!==":
		return p.parseCompare(OpNotEqual, args, 2, 3)
	case string(OpLess), string(OpLessEqual), string(OpGreater), string(OpGreaterEqual):
		return p.parseCompare(CompareOp(key), args, 2, 3)
	case string(OpIn), string(OpStartsWith), string(OpEndsWith):
		return p.parseCompare(CompareOp(key), args, 2, 2)
	default:
		return nil, filtererr.Parsef("unknown operator %q", key)
	}
}

// parseVar parses the argument of a var node: "path" or ["path"].
func parseVar(args any) (Var, error) {
	if list, ok := args.([]any); ok {
		if len(list) != 1 {
			return Var{}, filtererr.Parsef("var expects exactly one path, got %d arguments", len(list))
		}
		args = list[0]
	}
	path, ok := args.(string)
	if !ok || path == "" {
		return Var{}, filtererr.Parsef("var path must be a non-empty string, got %s", describe(args))
	}
	return Var{Path: path}, nil
}

// parseGroup parses and/or with any number of children.
func (p *parser) parseGroup(op LogicalOp, args any) (Node, error) {
	list, ok := args.([]any)
	if !ok {
		return nil, filtererr.Parsef("%s expects an array of nodes, got %s", op, describe(args))
	}
	children := make([]Node, 0, len(list))
	for i, item := range list {
		child, err := p.parseNode(item)
		if err != nil {
			return nil, wrapAt(err, string(op), i)
		}
		children = append(children, child)
	}
	return Logical{Op: op, Children: children}, nil
}

// parseUnary parses the single child of ! and !!, either as a bare node or a
// one-element array.
func (p *parser) parseUnary(key string, args any) (Node, error) {
	if list, ok := args.([]any); ok {
		if len(list) != 1 {
			return nil, filtererr.Parsef("%s expects exactly one argument, got %d", key, len(list))
		}
		args = list[0]
	}
	child, err := p.parseNode(args)
	if err != nil {
		return nil, wrapAt(err, key, 0)
	}
	return child, nil
}

// parseCompare parses a comparison with between minArgs and maxArgs operands.
func (p *parser) parseCompare(op CompareOp, args any, minArgs, maxArgs int) (Node, error) {
	list, ok := args.([]any)
	if !ok {
		return nil, filtererr.Parsef("%s expects an array of operands, got %s", op, describe(args))
	}
	if len(list) < minArgs || len(list) > maxArgs {
		if minArgs == maxArgs {
			return nil, filtererr.Parsef("%s expects %d operands, got %d", op, minArgs, len(list))
		}
		return nil, filtererr.Parsef("%s expects %d to %d operands, got %d", op, minArgs, maxArgs, len(list))
	}

	operands := make([]Operand, 0, len(list))
	for i, item := range list {
		operand, err := parseOperand(item)
		if err != nil {
			return nil, wrapAt(err, string(op), i)
		}
		operands = append(operands, operand)
	}
	return Compare{Op: op, Operands: operands}, nil
}

// parseOperand parses a var reference or a literal.
func parseOperand(raw any) (Operand, error) {
	if obj, ok := raw.(map[string]any); ok {
		if len(obj) == 1 {
			if args, ok := obj["var"]; ok {
				v, err := parseVar(args)
				if err != nil {
					return nil, err
				}
				return v, nil
			}
		}
		return nil, filtererr.Parsef("nested expressions are not supported as comparison operands")
	}
	value, err := ir.FromAny(raw)
	if err != nil {
		return nil, filtererr.WrapParse(err, "invalid literal")
	}
	return Literal{Value: value}, nil
}

// wrapAt prefixes a parse error message with the argument location.
func wrapAt(err error, op string, index int) error {
	var fe *filtererr.Error
	if !errors.As(err, &fe) {
		return err
	}
	return &filtererr.Error{
		Code:    fe.Code,
		Message: fmt.Sprintf("%s[%d]: %s", op, index, fe.Message),
		Path:    fe.Path,
		Op:      fe.Op,
		Err:     fe.Err,
	}
}

// describe names the JSON type of raw for error messages.
func describe(raw any) string {
	switch raw.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number, float64:
		return "number"
	default:
		return "unsupported value"
	}
}
