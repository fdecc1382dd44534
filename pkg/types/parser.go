package types

import (
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
)

// ParseField reads one field of the given type from r. It is the inverse of
// Field.Serialize and consumes exactly fieldType.Size() bytes on success.
func ParseField(r io.Reader, fieldType Type) (Field, error) {
	switch fieldType {
	case IntType:
		return parseIntField(r)
	case StringType:
		return parseStringField(r)
	default:
		return nil, fmt.Errorf("unsupported field type: %v", fieldType)
	}
}

func parseIntField(r io.Reader) (*IntField, error) {
	buf := make([]byte, intSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return NewIntField(int32(binary.BigEndian.Uint32(buf))), nil // #nosec G115
}

// parseStringField reads the length prefix and the full padded payload. A
// length larger than StringMaxLen is clamped since the format is trusted.
func parseStringField(r io.Reader) (*StringField, error) {
	buf := make([]byte, stringSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}

	length := min(int(binary.BigEndian.Uint32(buf[:4])), StringMaxLen)
	return &StringField{Value: string(buf[4 : 4+length])}, nil
}

// FieldFromString builds a field of type t from its textual form.
func FieldFromString(t Type, s string) (Field, error) {
	switch t {
	case IntType:
		v, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid int value %q: %w", s, err)
		}
		return NewIntField(int32(v)), nil
	case StringType:
		return NewStringField(s), nil
	default:
		return nil, fmt.Errorf("unsupported field type: %v", t)
	}
}
