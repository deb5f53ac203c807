package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGeneralType(t *testing.T) {
	for _, typ := range []GeneralType{
		TypeText, TypeNumeric, TypeBoolean, TypeDate, TypeTime,
		TypeDateTime, TypeCategory, TypeBitFlagSet, TypeEntityReference,
	} {
		t.Run(typ.String(), func(t *testing.T) {
			got, err := ParseGeneralType(typ.String())
			require.NoError(t, err)
			assert.Equal(t, typ, got)
		})
	}

	got, err := ParseGeneralType("  DateTime ")
	require.NoError(t, err)
	assert.Equal(t, TypeDateTime, got)

	_, err = ParseGeneralType("unknown")
	assert.Error(t, err)
	_, err = ParseGeneralType("blob")
	assert.Error(t, err)
}

func TestParseNumericKind(t *testing.T) {
	kind, err := ParseNumericKind("")
	require.NoError(t, err)
	assert.Equal(t, NumericDouble, kind)

	kind, err = ParseNumericKind("Int64")
	require.NoError(t, err)
	assert.Equal(t, NumericInt64, kind)
	assert.True(t, kind.IsInteger())

	kind, err = ParseNumericKind("decimal")
	require.NoError(t, err)
	assert.False(t, kind.IsInteger())

	_, err = ParseNumericKind("int128")
	assert.Error(t, err)
}

func TestParseIDKind(t *testing.T) {
	kind, err := ParseIDKind("")
	require.NoError(t, err)
	assert.Equal(t, IDGuid, kind)

	kind, err = ParseIDKind("string")
	require.NoError(t, err)
	assert.Equal(t, IDString, kind)

	_, err = ParseIDKind("uuid")
	assert.Error(t, err)
}

func TestParseCategoryID(t *testing.T) {
	tests := []struct {
		in      string
		want    CategoryID
		wantErr bool
	}{
		{in: "Crm.PersonStatus", want: CategoryID{Namespace: "Crm", Name: "PersonStatus"}},
		{in: "Acme.Crm.PersonStatus", want: CategoryID{Namespace: "Acme.Crm", Name: "PersonStatus"}},
		{in: "Status", want: CategoryID{Name: "Status"}},
		{in: "", wantErr: true},
		{in: ".Status", wantErr: true},
		{in: "Crm.", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCategoryID(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		})
	}
}
