package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/jsonfilter/internal/metadata"
)

func text(path string, op Op, value any) Comparison {
	return Comparison{Path: path, Op: op, Value: value, Type: metadata.TypeText}
}

func TestNegate(t *testing.T) {
	isNull := Comparison{Path: "FirstName", Op: OpIsNull, Type: metadata.TypeText}
	isNotNull := Comparison{Path: "FirstName", Op: OpIsNotNull, Type: metadata.TypeText}
	eq := text("FirstName", OpEq, "Bob")

	tests := []struct {
		name string
		in   Node
		want Node
	}{
		{name: "is null", in: isNull, want: isNotNull},
		{name: "is not null", in: isNotNull, want: isNull},
		{name: "contains", in: text("FirstName", OpContains, "o"), want: text("FirstName", OpNotContains, "o")},
		{name: "not contains", in: text("FirstName", OpNotContains, "o"), want: text("FirstName", OpContains, "o")},
		{name: "double negation", in: Not{Node: eq}, want: eq},
		{name: "const", in: True, want: False},
		{name: "eq wrapped", in: eq, want: Not{Node: eq}},
		{name: "group wrapped", in: And{Nodes: []Node{eq}}, want: Not{Node: And{Nodes: []Node{eq}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Negate(tt.in))
		})
	}
}

func TestWalkOrder(t *testing.T) {
	tree := And{Nodes: []Node{
		text("A", OpEq, "1"),
		Or{Nodes: []Node{text("B", OpEq, "2"), Not{Node: text("C", OpEq, "3")}}},
		Comparison{Path: "D", Op: OpIsNull, Type: metadata.TypeText},
	}}

	var paths []string
	Walk(tree, func(n Node) bool {
		if c, ok := n.(Comparison); ok {
			paths = append(paths, c.Path)
		}
		return true
	})
	assert.Equal(t, []string{"A", "B", "C", "D"}, paths)
	assert.Equal(t, 3, CountValues(tree))
}

func TestWalkSkipChildren(t *testing.T) {
	tree := Or{Nodes: []Node{Not{Node: text("A", OpEq, "1")}, text("B", OpEq, "2")}}

	visited := 0
	Walk(tree, func(n Node) bool {
		visited++
		_, isNot := n.(Not)
		return !isNot
	})
	assert.Equal(t, 3, visited)
}

func TestOpHasValue(t *testing.T) {
	assert.False(t, OpIsNull.HasValue())
	assert.False(t, OpIsNotNull.HasValue())
	assert.True(t, OpBitAnyOf.HasValue())
	assert.True(t, OpStartsWith.IsText())
	assert.False(t, OpEq.IsText())
	assert.False(t, Op("between").Valid())
}
