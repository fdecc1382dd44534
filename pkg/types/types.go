package types

import (
	"fmt"
	"strings"
)

// Type identifies a fixed-width field encoding.
type Type int

const (
	IntType Type = iota
	StringType
)

// StringMaxLen is the number of payload bytes reserved for every string
// field. Longer values are truncated on construction.
const StringMaxLen = 128

const (
	intSize    = 4
	stringSize = 4 + StringMaxLen
)

// Size returns the on-page width of a field of this type in bytes, or 0 for
// an unknown type.
func (t Type) Size() int {
	switch t {
	case IntType:
		return intSize
	case StringType:
		return stringSize
	default:
		return 0
	}
}

// String returns a string representation of the type
func (t Type) String() string {
	switch t {
	case IntType:
		return "INT_TYPE"
	case StringType:
		return "STRING_TYPE"
	default:
		return "UNKNOWN_TYPE"
	}
}

// ParseType maps a schema keyword ("int", "string") to its Type.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "int", "int32", "integer":
		return IntType, nil
	case "string", "str", "text":
		return StringType, nil
	default:
		return 0, fmt.Errorf("unknown field type %q", s)
	}
}
