package tables

import (
	"fmt"

	"heapstore/pkg/primitives"
	"heapstore/pkg/storage/page"
	"heapstore/pkg/tuple"
)

// TableInfo holds metadata about a table
type TableInfo struct {
	File      page.DbFile             // The file storing the table data
	Name      string                  // The table name
	TupleDesc *tuple.TupleDescription // Schema of the table
}

// NewTableInfo creates a new table info instance
func NewTableInfo(file page.DbFile, name string) *TableInfo {
	return &TableInfo{
		File:      file,
		Name:      name,
		TupleDesc: file.GetTupleDesc(),
	}
}

// GetID returns the table's unique identifier
func (ti *TableInfo) GetID() primitives.TableID {
	return ti.File.GetID()
}

func (ti *TableInfo) String() string {
	return fmt.Sprintf("Table(%s, id=%d, schema=%s)", ti.Name, ti.GetID(), ti.TupleDesc)
}
