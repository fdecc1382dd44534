package tuple

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heapstore/pkg/primitives"
	"heapstore/pkg/types"
)

func mustDesc(t *testing.T, fieldTypes []types.Type, names []string) *TupleDescription {
	t.Helper()
	td, err := NewTupleDesc(fieldTypes, names)
	require.NoError(t, err)
	return td
}

func TestNewTupleDesc_Validation(t *testing.T) {
	_, err := NewTupleDesc(nil, nil)
	assert.Error(t, err)

	_, err = NewTupleDesc([]types.Type{types.IntType}, []string{"a", "b"})
	assert.Error(t, err)

	_, err = NewTupleDesc([]types.Type{types.Type(99)}, nil)
	assert.Error(t, err)
}

func TestTupleDescription_Size(t *testing.T) {
	tests := []struct {
		name   string
		schema string
		want   int
	}{
		{"five ints", "int,int,int,int,int", 20},
		{"int and string", "int,string", 136},
		{"single string", "string", 132},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			td, err := ParseSchema(tt.schema)
			require.NoError(t, err)
			assert.Equal(t, tt.want, td.Size())
		})
	}

	_, err := ParseSchema("int,blob")
	assert.Error(t, err)
}

func TestTupleDescription_Equals(t *testing.T) {
	a := mustDesc(t, []types.Type{types.IntType, types.StringType}, []string{"id", "name"})
	b := mustDesc(t, []types.Type{types.IntType, types.StringType}, nil)
	c := mustDesc(t, []types.Type{types.StringType, types.IntType}, nil)

	assert.True(t, a.Equals(b), "names are not compared")
	assert.False(t, a.Equals(c))
	assert.False(t, a.Equals(nil))
}

func TestTupleDescription_FieldNameToIndex(t *testing.T) {
	td := mustDesc(t, []types.Type{types.IntType, types.StringType}, []string{"id", "name"})

	idx, err := td.FieldNameToIndex("name")
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	_, err = td.FieldNameToIndex("missing")
	assert.Error(t, err)

	unnamed := mustDesc(t, []types.Type{types.IntType}, nil)
	_, err = unnamed.FieldNameToIndex("")
	assert.Error(t, err)
}

func TestCombine(t *testing.T) {
	a := mustDesc(t, []types.Type{types.IntType}, []string{"id"})
	b := mustDesc(t, []types.Type{types.StringType}, nil)

	c := Combine(a, b)
	require.NotNil(t, c)
	assert.Equal(t, []types.Type{types.IntType, types.StringType}, c.Types)
	assert.Equal(t, []string{"id", ""}, c.FieldNames)
	assert.Equal(t, "INT_TYPE(id),STRING_TYPE(null)", c.String())
	assert.Same(t, a, Combine(a, nil))
}

func TestTuple_SerializeParse(t *testing.T) {
	td := mustDesc(t, []types.Type{types.IntType, types.StringType}, nil)
	tup, err := FromFields(td, types.NewIntField(42), types.NewStringField("hello"))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, tup.Serialize(&buf))
	assert.Equal(t, td.Size(), buf.Len())

	parsed, err := Parse(&buf, td)
	require.NoError(t, err)
	assert.True(t, tup.Equals(parsed))
	assert.Equal(t, "42\thello", parsed.String())
}

func TestTuple_Copy(t *testing.T) {
	td := mustDesc(t, []types.Type{types.IntType, types.StringType}, nil)
	tup, err := FromFields(td, types.NewIntField(1), types.NewStringField("a"))
	require.NoError(t, err)
	tup.RecordID = NewRecordID(primitives.NewPageID(1, 0), 3)

	c := tup.Copy()
	assert.True(t, tup.Equals(c))
	assert.Equal(t, tup.RecordID, c.RecordID)
	assert.NotSame(t, tup.RecordID, c.RecordID)

	require.NoError(t, c.SetField(0, types.NewIntField(2)))
	c.RecordID.Slot = 4
	assert.Equal(t, "1\ta", tup.String())
	assert.Equal(t, primitives.SlotID(3), tup.RecordID.Slot)
}

func TestTuple_SetFieldErrors(t *testing.T) {
	td := mustDesc(t, []types.Type{types.IntType}, nil)
	tup := NewTuple(td)

	assert.Error(t, tup.SetField(1, types.NewIntField(1)))
	assert.Error(t, tup.SetField(0, types.NewStringField("x")))
	assert.Error(t, tup.Serialize(&bytes.Buffer{}), "unset field")

	_, err := FromFields(td)
	assert.Error(t, err)
}

func TestRecordID_Equals(t *testing.T) {
	pid := primitives.NewPageID(1, 2)
	a := NewRecordID(pid, 3)

	assert.True(t, a.Equals(NewRecordID(pid, 3)))
	assert.False(t, a.Equals(NewRecordID(pid, 4)))
	assert.False(t, a.Equals(nil))
	assert.Equal(t, "RecordID(page=PageID(table=1, page=2), slot=3)", a.String())
}
