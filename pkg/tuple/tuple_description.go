package tuple

import (
	"fmt"
	"strings"

	"heapstore/pkg/types"
)

// TupleDescription describes the schema of a tuple: the type and optional
// name of every field in order. Its Size is the fixed on-page width of every
// tuple that conforms to it.
type TupleDescription struct {
	// Types contains the data type of each field in order
	Types []types.Type
	// FieldNames contains the name of each field (optional, may be nil)
	FieldNames []string
}

// NewTupleDesc creates a new TupleDescription given field types and optional field names.
// If fieldNames is nil, fields will have no names.
func NewTupleDesc(fieldTypes []types.Type, fieldNames []string) (*TupleDescription, error) {
	if len(fieldTypes) < 1 {
		return nil, fmt.Errorf("must provide at least one field type")
	}

	for i, t := range fieldTypes {
		if t.Size() == 0 {
			return nil, fmt.Errorf("field %d has unknown type %v", i, t)
		}
	}

	typesCopy := make([]types.Type, len(fieldTypes))
	copy(typesCopy, fieldTypes)

	var namesCopy []string
	if fieldNames != nil {
		if len(fieldNames) != len(fieldTypes) {
			return nil, fmt.Errorf("field names length (%d) must match field types length (%d)",
				len(fieldNames), len(fieldTypes))
		}
		namesCopy = make([]string, len(fieldNames))
		copy(namesCopy, fieldNames)
	}

	return &TupleDescription{
		Types:      typesCopy,
		FieldNames: namesCopy,
	}, nil
}

// ParseSchema builds an unnamed descriptor from a comma separated list of
// type keywords such as "int,int,string".
func ParseSchema(schema string) (*TupleDescription, error) {
	parts := strings.Split(schema, ",")
	fieldTypes := make([]types.Type, 0, len(parts))
	for _, p := range parts {
		t, err := types.ParseType(p)
		if err != nil {
			return nil, err
		}
		fieldTypes = append(fieldTypes, t)
	}
	return NewTupleDesc(fieldTypes, nil)
}

func (td *TupleDescription) NumFields() int {
	return len(td.Types)
}

// GetFieldName returns the name of the ith field, or "" if fields are unnamed.
func (td *TupleDescription) GetFieldName(i int) (string, error) {
	if i < 0 || i >= len(td.Types) {
		return "", fmt.Errorf("field index %d out of bounds [0, %d)", i, len(td.Types))
	}

	if td.FieldNames == nil {
		return "", nil
	}

	return td.FieldNames[i], nil
}

func (td *TupleDescription) TypeAtIndex(i int) (types.Type, error) {
	if i < 0 || i >= len(td.Types) {
		return 0, fmt.Errorf("field index %d out of bounds [0, %d)", i, len(td.Types))
	}
	return td.Types[i], nil
}

// Size returns the width in bytes of tuples described by td.
func (td *TupleDescription) Size() int {
	size := 0
	for _, fieldType := range td.Types {
		size += fieldType.Size()
	}
	return size
}

// Equals reports whether two descriptors are layout compatible, i.e. their
// field width sequences match. Field names are not compared.
func (td *TupleDescription) Equals(other *TupleDescription) bool {
	if other == nil {
		return false
	}

	if len(td.Types) != len(other.Types) {
		return false
	}

	for i, fieldType := range td.Types {
		if fieldType.Size() != other.Types[i].Size() {
			return false
		}
	}
	return true
}

// String returns "Type1(name1),Type2(name2),...", using "null" for unnamed fields.
func (td *TupleDescription) String() string {
	parts := make([]string, 0, len(td.Types))

	for i, fieldType := range td.Types {
		fieldName := "null"
		if td.FieldNames != nil && td.FieldNames[i] != "" {
			fieldName = td.FieldNames[i]
		}
		parts = append(parts, fmt.Sprintf("%s(%s)", fieldType.String(), fieldName))
	}

	return strings.Join(parts, ",")
}

// FieldNameToIndex finds the first field with the given name. The search is
// case-sensitive.
func (td *TupleDescription) FieldNameToIndex(fieldName string) (int, error) {
	for i, name := range td.FieldNames {
		if name == fieldName {
			return i, nil
		}
	}
	return -1, fmt.Errorf("column %s not found", fieldName)
}

// Combine merges two TupleDescriptions into one holding all fields of td1
// followed by all fields of td2. A nil argument yields the other descriptor.
func Combine(td1, td2 *TupleDescription) *TupleDescription {
	if td1 == nil {
		return td2
	}
	if td2 == nil {
		return td1
	}

	newTypes := make([]types.Type, 0, len(td1.Types)+len(td2.Types))
	newTypes = append(newTypes, td1.Types...)
	newTypes = append(newTypes, td2.Types...)

	var newFieldNames []string
	if td1.FieldNames != nil || td2.FieldNames != nil {
		newFieldNames = make([]string, 0, len(newTypes))
		newFieldNames = appendNames(newFieldNames, td1)
		newFieldNames = appendNames(newFieldNames, td2)
	}

	return &TupleDescription{Types: newTypes, FieldNames: newFieldNames}
}

func appendNames(dst []string, td *TupleDescription) []string {
	if td.FieldNames != nil {
		return append(dst, td.FieldNames...)
	}
	return append(dst, make([]string, len(td.Types))...)
}
