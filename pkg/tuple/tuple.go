package tuple

import (
	"fmt"
	"io"
	"strings"

	"heapstore/pkg/types"
)

// Tuple represents a row of data in the database
type Tuple struct {
	TupleDesc *TupleDescription // Schema of this tuple
	fields    []types.Field     // The actual field values
	RecordID  *RecordID         // Where this tuple is stored (nil until stored)
}

// NewTuple creates a new tuple with the given schema
func NewTuple(td *TupleDescription) *Tuple {
	return &Tuple{
		TupleDesc: td,
		fields:    make([]types.Field, td.NumFields()),
	}
}

// FromFields builds a tuple and sets every field in order.
func FromFields(td *TupleDescription, fields ...types.Field) (*Tuple, error) {
	if len(fields) != td.NumFields() {
		return nil, fmt.Errorf("expected %d fields, got %d", td.NumFields(), len(fields))
	}

	t := NewTuple(td)
	for i, f := range fields {
		if err := t.SetField(i, f); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *Tuple) SetField(i int, field types.Field) error {
	if i < 0 || i >= len(t.fields) {
		return fmt.Errorf("field index %d out of bounds [0, %d)", i, len(t.fields))
	}

	expectedType := t.TupleDesc.Types[i]
	if field.Type() != expectedType {
		return fmt.Errorf("field type mismatch: expected %v, got %v",
			expectedType, field.Type())
	}

	t.fields[i] = field
	return nil
}

// GetField returns the value of the ith field
func (t *Tuple) GetField(i int) (types.Field, error) {
	if i < 0 || i >= len(t.fields) {
		return nil, fmt.Errorf("field index %d out of bounds [0, %d)", i, len(t.fields))
	}
	return t.fields[i], nil
}

// Copy returns a tuple with the same layout, fields and RecordID. Fields are
// immutable values, so the copy shares them.
func (t *Tuple) Copy() *Tuple {
	c := &Tuple{
		TupleDesc: t.TupleDesc,
		fields:    make([]types.Field, len(t.fields)),
	}
	copy(c.fields, t.fields)
	if t.RecordID != nil {
		rid := *t.RecordID
		c.RecordID = &rid
	}
	return c
}

// Serialize writes every field in order. All fields must be set.
func (t *Tuple) Serialize(w io.Writer) error {
	for i, f := range t.fields {
		if f == nil {
			return fmt.Errorf("field %d is not set", i)
		}
		if err := f.Serialize(w); err != nil {
			return fmt.Errorf("failed to serialize field %d: %w", i, err)
		}
	}
	return nil
}

// Parse reads one tuple of layout td from r.
func Parse(r io.Reader, td *TupleDescription) (*Tuple, error) {
	t := NewTuple(td)
	for i, fieldType := range td.Types {
		f, err := types.ParseField(r, fieldType)
		if err != nil {
			return nil, fmt.Errorf("failed to parse field %d: %w", i, err)
		}
		t.fields[i] = f
	}
	return t, nil
}

// Equals compares field values only; RecordIDs are ignored.
func (t *Tuple) Equals(other *Tuple) bool {
	if other == nil || len(t.fields) != len(other.fields) {
		return false
	}
	for i, f := range t.fields {
		o := other.fields[i]
		if f == nil || o == nil {
			if f != o {
				return false
			}
			continue
		}
		if !f.Equals(o) {
			return false
		}
	}
	return true
}

// String returns the fields separated by tabs, with "null" for unset fields.
func (t *Tuple) String() string {
	parts := make([]string, 0, len(t.fields))
	for _, field := range t.fields {
		if field != nil {
			parts = append(parts, field.String())
		} else {
			parts = append(parts, "null")
		}
	}
	return strings.Join(parts, "\t")
}
