package types

import "io"

// Field is one value of a tuple. Every implementation serializes to exactly
// Type().Size() bytes.
type Field interface {
	Serialize(w io.Writer) error

	Type() Type

	String() string

	Equals(other Field) bool
}
