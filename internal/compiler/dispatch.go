package compiler

import (
	"fmt"

	"github.com/roach88/jsonfilter/internal/filtererr"
	"github.com/roach88/jsonfilter/internal/ir"
	"github.com/roach88/jsonfilter/internal/metadata"
	"github.com/roach88/jsonfilter/internal/queryir"
	"github.com/roach88/jsonfilter/internal/resolve"
)

// Operation is a comparison requested of the type dispatcher, after the
// filter's operand order has been normalized to (var, literal).
type Operation int

const (
	Equal Operation = iota
	NotEqual
	Less
	LessEqual
	Greater
	GreaterEqual

	// Contains tests whether the property contains the literal as a
	// substring.
	Contains
	StartsWith
	EndsWith

	// Member tests whether the property equals any element of an array
	// literal. For bit flag sets a scalar literal is decomposed into the
	// reference list flags it contains.
	Member
)

var operationNames = [...]string{
	Equal:        "==",
	NotEqual:     "!=",
	Less:         "<",
	LessEqual:    "<=",
	Greater:      ">",
	GreaterEqual: ">=",
	Contains:     "in",
	StartsWith:   "startsWith",
	EndsWith:     "endsWith",
	Member:       "in",
}

// String returns the filter operator the operation came from.
func (o Operation) String() string {
	if int(o) >= 0 && int(o) < len(operationNames) {
		return operationNames[o]
	}
	return fmt.Sprintf("Operation(%d)", int(o))
}

// relational maps the ordered operations to IR operators.
var relational = map[Operation]queryir.Op{
	Equal:        queryir.OpEq,
	NotEqual:     queryir.OpNe,
	Less:         queryir.OpLt,
	LessEqual:    queryir.OpLte,
	Greater:      queryir.OpGt,
	GreaterEqual: queryir.OpGte,
}

// Dispatcher applies the per-general-type comparison rules.
//
// Build is pure apart from reference list lookups, which go through the
// configured source (usually a metadata.Cache).
type Dispatcher struct {
	lists metadata.ReferenceListSource
}

// NewDispatcher creates a dispatcher. lists is only consulted when a scalar
// bit flag literal has to be decomposed.
func NewDispatcher(lists metadata.ReferenceListSource) *Dispatcher {
	return &Dispatcher{lists: lists}
}

// Build compiles `desc op value` into IR.
//
// A null literal turns == and != into isNull and isNotNull checks on every
// type. Other combinations follow the rules of the property's general type;
// unsupported ones fail with TYPE_MISMATCH.
func (d *Dispatcher) Build(op Operation, desc resolve.Descriptor, value ir.IRValue) (queryir.Node, error) {
	if _, isNull := value.(ir.IRNull); isNull {
		return nullCheck(op, desc)
	}

	switch desc.Type() {
	case metadata.TypeText:
		return d.text(op, desc, value)
	case metadata.TypeNumeric:
		return d.scalar(op, desc, value, func(v ir.IRValue) (any, error) {
			return coerceNumeric(op.String(), desc, v)
		})
	case metadata.TypeBoolean:
		if op != Equal && op != NotEqual {
			return nil, unsupported(op, desc)
		}
		b, err := coerceBool(op.String(), desc, value)
		if err != nil {
			return nil, err
		}
		return leaf(desc, relational[op], b), nil
	case metadata.TypeCategory:
		return d.scalar(op, desc, value, func(v ir.IRValue) (any, error) {
			return coerceCode(op.String(), desc, v)
		})
	case metadata.TypeBitFlagSet:
		return d.bitFlags(op, desc, value)
	case metadata.TypeEntityReference:
		idDesc := desc
		idDesc.PhysicalPath = desc.Child("Id")
		return d.scalar(op, idDesc, value, func(v ir.IRValue) (any, error) {
			return coerceID(op.String(), desc, v)
		})
	case metadata.TypeDate, metadata.TypeTime, metadata.TypeDateTime:
		return d.temporal(op, desc, value)
	default:
		return nil, filtererr.Configurationf("property %s has unsupported general type %s", desc.RawPath, desc.Type())
	}
}

func nullCheck(op Operation, desc resolve.Descriptor) (queryir.Node, error) {
	switch op {
	case Equal:
		return leaf(desc, queryir.OpIsNull, nil), nil
	case NotEqual:
		return leaf(desc, queryir.OpIsNotNull, nil), nil
	}
	return nil, filtererr.Mismatch(op.String(), desc.RawPath, "null can only be compared with == or !=")
}

// text handles Text properties.
func (d *Dispatcher) text(op Operation, desc resolve.Descriptor, value ir.IRValue) (queryir.Node, error) {
	var irOp queryir.Op
	switch op {
	case Equal, NotEqual:
		irOp = relational[op]
	case Contains:
		irOp = queryir.OpContains
	case StartsWith:
		irOp = queryir.OpStartsWith
	case EndsWith:
		irOp = queryir.OpEndsWith
	case Member:
		return d.member(desc, value, func(elem ir.IRValue) (queryir.Node, error) {
			return d.text(Equal, desc, elem)
		})
	default:
		return nil, unsupported(op, desc)
	}

	if _, isNull := value.(ir.IRNull); isNull {
		return nullCheck(op, desc)
	}
	s, err := coerceText(op.String(), desc, value)
	if err != nil {
		return nil, err
	}
	return leaf(desc, irOp, s), nil
}

// scalar handles types compared by value: Numeric, Category and entity ids.
func (d *Dispatcher) scalar(op Operation, desc resolve.Descriptor, value ir.IRValue, coerce func(ir.IRValue) (any, error)) (queryir.Node, error) {
	if op == Member {
		return d.member(desc, value, func(elem ir.IRValue) (queryir.Node, error) {
			if _, isNull := elem.(ir.IRNull); isNull {
				return nullCheck(Equal, desc)
			}
			v, err := coerce(elem)
			if err != nil {
				return nil, err
			}
			return leaf(desc, queryir.OpEq, v), nil
		})
	}

	irOp, ok := relational[op]
	if !ok {
		return nil, unsupported(op, desc)
	}
	v, err := coerce(value)
	if err != nil {
		return nil, err
	}
	return leaf(desc, irOp, v), nil
}

// member expands `desc in [v1..vn]` into an order-preserving Or of one node
// per element. An empty array matches nothing.
func (d *Dispatcher) member(desc resolve.Descriptor, value ir.IRValue, build func(ir.IRValue) (queryir.Node, error)) (queryir.Node, error) {
	arr, ok := value.(ir.IRArray)
	if !ok {
		return nil, filtererr.Mismatch(Member.String(), desc.RawPath, "membership test needs an array literal, got %s", ir.TypeName(value))
	}
	if len(arr) == 0 {
		return queryir.False, nil
	}
	nodes := make([]queryir.Node, 0, len(arr))
	for i, elem := range arr {
		if _, nested := elem.(ir.IRArray); nested {
			return nil, filtererr.Mismatch(Member.String(), desc.RawPath, "element %d is a nested array", i)
		}
		node, err := build(elem)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return queryir.Or{Nodes: nodes}, nil
}

// bitFlags handles BitFlagSet properties. Only membership is supported:
// every flag becomes a bitAnyOf test.
func (d *Dispatcher) bitFlags(op Operation, desc resolve.Descriptor, value ir.IRValue) (queryir.Node, error) {
	if op != Member {
		return nil, unsupported(op, desc)
	}
	if _, isArray := value.(ir.IRArray); isArray {
		return d.member(desc, value, func(elem ir.IRValue) (queryir.Node, error) {
			flag, err := coerceCode(op.String(), desc, elem)
			if err != nil {
				return nil, err
			}
			return leaf(desc, queryir.OpBitAnyOf, flag), nil
		})
	}

	combined, err := coerceCode(op.String(), desc, value)
	if err != nil {
		return nil, err
	}
	items, err := metadata.Items(d.lists, desc.Category())
	if err != nil {
		return nil, err
	}

	var nodes []queryir.Node
	for _, item := range items {
		if item.Code != 0 && combined&item.Code == item.Code {
			nodes = append(nodes, leaf(desc, queryir.OpBitAnyOf, item.Code))
		}
	}
	if len(nodes) == 0 {
		return leaf(desc, queryir.OpBitAnyOf, combined), nil
	}
	return queryir.Or{Nodes: nodes}, nil
}

// temporal handles Date, Time and DateTime properties by widening the
// literal to its day or minute.
func (d *Dispatcher) temporal(op Operation, desc resolve.Descriptor, value ir.IRValue) (queryir.Node, error) {
	if _, ok := relational[op]; !ok {
		return nil, unsupported(op, desc)
	}
	w, err := temporalWindow(op.String(), desc, value)
	if err != nil {
		return nil, err
	}

	switch op {
	case Equal:
		return queryir.And{Nodes: []queryir.Node{
			leaf(desc, queryir.OpGte, w.floor),
			leaf(desc, queryir.OpLte, w.ceil),
		}}, nil
	case NotEqual:
		return queryir.Or{Nodes: []queryir.Node{
			leaf(desc, queryir.OpLt, w.floor),
			leaf(desc, queryir.OpGt, w.ceil),
		}}, nil
	case Less:
		return leaf(desc, queryir.OpLt, w.floor), nil
	case GreaterEqual:
		return leaf(desc, queryir.OpGte, w.floor), nil
	case LessEqual:
		return leaf(desc, queryir.OpLte, w.ceil), nil
	default:
		return leaf(desc, queryir.OpGt, w.ceil), nil
	}
}

func leaf(desc resolve.Descriptor, op queryir.Op, value any) queryir.Comparison {
	return queryir.Comparison{
		Path:    desc.PhysicalPath,
		Op:      op,
		Value:   value,
		Type:    desc.Type(),
		Numeric: desc.Property.Numeric,
	}
}

func unsupported(op Operation, desc resolve.Descriptor) error {
	return filtererr.Mismatch(op.String(), desc.RawPath, "operator %s is not supported on %s properties", op, desc.Type())
}
