package types

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestType_Size(t *testing.T) {
	assert.Equal(t, 4, IntType.Size())
	assert.Equal(t, 132, StringType.Size())
	assert.Equal(t, 0, Type(42).Size())
}

func TestParseType(t *testing.T) {
	tests := []struct {
		in      string
		want    Type
		wantErr bool
	}{
		{"int", IntType, false},
		{" INT ", IntType, false},
		{"string", StringType, false},
		{"float", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseType(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIntField_Encoding(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewIntField(-2).Serialize(&buf))
	assert.Equal(t, []byte{0xff, 0xff, 0xff, 0xfe}, buf.Bytes())

	f, err := ParseField(&buf, IntType)
	require.NoError(t, err)
	assert.True(t, f.Equals(NewIntField(-2)))
	assert.Equal(t, "-2", f.String())
}

func TestStringField_Encoding(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewStringField("abc").Serialize(&buf))

	raw := buf.Bytes()
	require.Len(t, raw, StringType.Size())
	assert.Equal(t, []byte{0, 0, 0, 3, 'a', 'b', 'c'}, raw[:7])
	assert.Equal(t, make([]byte, StringMaxLen-3), raw[7:])

	f, err := ParseField(bytes.NewReader(raw), StringType)
	require.NoError(t, err)
	assert.Equal(t, "abc", f.String())
}

func TestStringField_Truncates(t *testing.T) {
	long := strings.Repeat("x", StringMaxLen+10)
	f := NewStringField(long)
	assert.Len(t, f.Value, StringMaxLen)
}

func TestParseField_ShortInput(t *testing.T) {
	_, err := ParseField(bytes.NewReader([]byte{1, 2}), IntType)
	assert.Error(t, err)

	_, err = ParseField(bytes.NewReader(nil), Type(9))
	assert.Error(t, err)
}

func TestFieldFromString(t *testing.T) {
	f, err := FieldFromString(IntType, "17")
	require.NoError(t, err)
	assert.True(t, f.Equals(NewIntField(17)))

	_, err = FieldFromString(IntType, "nope")
	assert.Error(t, err)

	f, err = FieldFromString(StringType, "hi")
	require.NoError(t, err)
	assert.False(t, f.Equals(NewIntField(0)))
}
