package types

import (
	"encoding/binary"
	"io"
)

// StringField represents a fixed-width string field. On disk it is a 4-byte
// big-endian length followed by StringMaxLen bytes of zero-padded payload.
type StringField struct {
	Value string
}

// NewStringField creates a new StringField. Values longer than StringMaxLen
// bytes are truncated.
func NewStringField(value string) *StringField {
	if len(value) > StringMaxLen {
		value = value[:StringMaxLen]
	}
	return &StringField{Value: value}
}

// Serialize writes the string field to the provided writer in binary format.
// The serialization format consists of:
//  1. 4 bytes for the actual string length (big-endian uint32)
//  2. The string bytes
//  3. Padding bytes up to StringMaxLen
func (s *StringField) Serialize(w io.Writer) error {
	length := min(len(s.Value), StringMaxLen)

	buf := make([]byte, stringSize)
	binary.BigEndian.PutUint32(buf[:4], uint32(length)) // #nosec G115
	copy(buf[4:], s.Value[:length])

	_, err := w.Write(buf)
	return err
}

func (s *StringField) Type() Type {
	return StringType
}

func (s *StringField) String() string {
	return s.Value
}

func (s *StringField) Equals(other Field) bool {
	o, ok := other.(*StringField)
	if !ok {
		return false
	}
	return s.Value == o.Value
}
