package queryir

import (
	"testing"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/roach88/jsonfilter/internal/metadata"
)

func TestValidate_Valid(t *testing.T) {
	day := time.Date(2022, 8, 1, 0, 0, 0, 0, time.UTC)
	tree := And{Nodes: []Node{
		text("FirstName", OpStartsWith, "Bo"),
		Comparison{Path: "Age", Op: OpGt, Value: int32(30), Type: metadata.TypeNumeric, Numeric: metadata.NumericInt32},
		Comparison{Path: "Salary", Op: OpEq, Value: apd.New(15, -1), Type: metadata.TypeNumeric, Numeric: metadata.NumericDecimal},
		Comparison{Path: "BirthDate", Op: OpGte, Value: day, Type: metadata.TypeDate},
		Comparison{Path: "PreferredContactTime", Op: OpLt, Value: 9 * time.Hour, Type: metadata.TypeTime},
		Or{Nodes: []Node{
			Comparison{Path: "Status", Op: OpEq, Value: int64(1), Type: metadata.TypeCategory},
			Comparison{Path: "Permissions", Op: OpBitAnyOf, Value: int64(4), Type: metadata.TypeBitFlagSet},
		}},
		Not{Node: Comparison{Path: "AreaLevel1.Id", Op: OpEq, Value: uuid.Nil, Type: metadata.TypeEntityReference}},
		Comparison{Path: "Manager", Op: OpIsNotNull, Type: metadata.TypeEntityReference},
		False,
	}}

	result := Validate(tree)
	assert.True(t, result.Valid, "problems: %v", result.Problems)
	assert.Empty(t, result.Problems)
}

func TestValidate_Problems(t *testing.T) {
	tests := []struct {
		name string
		node Node
	}{
		{name: "nil root", node: nil},
		{name: "nil child", node: Or{Nodes: []Node{nil}}},
		{name: "nil not", node: Not{}},
		{name: "missing path", node: text("", OpEq, "x")},
		{name: "unknown op", node: text("A", Op("between"), "x")},
		{name: "missing value", node: text("A", OpEq, nil)},
		{name: "null check with value", node: text("A", OpIsNull, "x")},
		{name: "text op on numeric", node: Comparison{Path: "Age", Op: OpContains, Value: int32(1), Type: metadata.TypeNumeric}},
		{name: "bitAnyOf on category", node: Comparison{Path: "Status", Op: OpBitAnyOf, Value: int64(1), Type: metadata.TypeCategory}},
		{name: "wrong value type", node: Comparison{Path: "IsLocked", Op: OpEq, Value: "yes", Type: metadata.TypeBoolean}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Validate(tt.node)
			assert.False(t, result.Valid)
			assert.Len(t, result.Problems, 1)
		})
	}
}

func TestFormat(t *testing.T) {
	tree := And{Nodes: []Node{
		Or{Nodes: []Node{
			Comparison{Path: "Status", Op: OpEq, Value: int64(1), Type: metadata.TypeCategory},
			Comparison{Path: "Status", Op: OpEq, Value: int64(2), Type: metadata.TypeCategory},
		}},
		Not{Node: text("FirstName", OpEq, "Bob")},
		Comparison{Path: "LastName", Op: OpIsNull, Type: metadata.TypeText},
		Comparison{Path: "CreationTime", Op: OpLte, Value: time.Date(2022, 8, 4, 16, 47, 59, 999_000_000, time.UTC), Type: metadata.TypeDateTime},
		Comparison{Path: "PreferredContactTime", Op: OpGte, Value: 9*time.Hour + 30*time.Minute, Type: metadata.TypeTime},
		True,
	}}

	assert.Equal(t,
		`and(or(eq(Status, 1), eq(Status, 2)), not(eq(FirstName, "Bob")), isNull(LastName), lte(CreationTime, 2022-08-04 16:47:59.999), gte(PreferredContactTime, 09:30:00.000), true)`,
		Format(tree))
}
