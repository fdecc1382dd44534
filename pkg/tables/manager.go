// Package tables maps table ids to the files and layouts that store them.
// The buffer pool resolves every page it loads through a TableManager.
package tables

import (
	"slices"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"heapstore/pkg/dberror"
	"heapstore/pkg/logging"
	"heapstore/pkg/primitives"
	"heapstore/pkg/storage/page"
	"heapstore/pkg/tuple"
)

const componentTableManager = "TableManager"

type TableManager struct {
	nameToTable map[string]*TableInfo
	idToTable   map[primitives.TableID]*TableInfo
	mutex       sync.RWMutex
}

func NewTableManager() *TableManager {
	return &TableManager{
		nameToTable: make(map[string]*TableInfo),
		idToTable:   make(map[primitives.TableID]*TableInfo),
	}
}

// AddTable registers f under name, replacing any existing table with the
// same name or ID.
func (tm *TableManager) AddTable(f page.DbFile, name string) error {
	if f == nil {
		return dberror.IllegalState("AddTable", componentTableManager, "file cannot be nil")
	}
	if name == "" {
		return dberror.IllegalState("AddTable", componentTableManager, "table name cannot be empty")
	}

	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	tableInfo := NewTableInfo(f, name)
	tid := f.GetID()

	if t, exists := tm.nameToTable[name]; exists {
		delete(tm.idToTable, t.GetID())
	}
	if t, exists := tm.idToTable[tid]; exists {
		delete(tm.nameToTable, t.Name)
	}

	tm.nameToTable[name] = tableInfo
	tm.idToTable[tid] = tableInfo

	logging.WithTable(tid, name).Debug("table registered",
		zap.Stringer("schema", tableInfo.TupleDesc))
	return nil
}

// GetTableID returns the ID of the table with the specified name
func (tm *TableManager) GetTableID(name string) (primitives.TableID, error) {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	tableInfo, exists := tm.nameToTable[name]
	if !exists {
		return primitives.InvalidTableID, dberror.IllegalState("GetTableID", componentTableManager,
			"table '%s' not found", name)
	}
	return tableInfo.GetID(), nil
}

// GetTableName returns the name of the table with the specified ID
func (tm *TableManager) GetTableName(tableID primitives.TableID) (string, error) {
	ti, err := tm.lookup("GetTableName", tableID)
	if err != nil {
		return "", err
	}
	return ti.Name, nil
}

// GetTupleDesc returns the schema for the table with the specified ID
func (tm *TableManager) GetTupleDesc(tableID primitives.TableID) (*tuple.TupleDescription, error) {
	ti, err := tm.lookup("GetTupleDesc", tableID)
	if err != nil {
		return nil, err
	}
	return ti.TupleDesc, nil
}

// GetDbFile returns the DbFile for the table with the specified ID
func (tm *TableManager) GetDbFile(tableID primitives.TableID) (page.DbFile, error) {
	ti, err := tm.lookup("GetDbFile", tableID)
	if err != nil {
		return nil, err
	}
	return ti.File, nil
}

func (tm *TableManager) lookup(op string, tableID primitives.TableID) (*TableInfo, error) {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	ti, exists := tm.idToTable[tableID]
	if !exists {
		return nil, dberror.IllegalState(op, componentTableManager, "table with ID %d not found", tableID)
	}
	return ti, nil
}

// TableIDs returns the registered table ids in ascending order.
func (tm *TableManager) TableIDs() []primitives.TableID {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	ids := make([]primitives.TableID, 0, len(tm.idToTable))
	for id := range tm.idToTable {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// GetAllTableNames returns a slice of all table names in the catalog
func (tm *TableManager) GetAllTableNames() []string {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	names := make([]string, 0, len(tm.nameToTable))
	for name := range tm.nameToTable {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ValidateIntegrity checks that the name and id indexes agree.
func (tm *TableManager) ValidateIntegrity() error {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	if len(tm.nameToTable) != len(tm.idToTable) {
		return dberror.IllegalState("ValidateIntegrity", componentTableManager, "map size mismatch")
	}

	for name, table := range tm.nameToTable {
		if t, exists := tm.idToTable[table.GetID()]; !exists || t != table {
			return dberror.IllegalState("ValidateIntegrity", componentTableManager,
				"table %s missing from ID map", name)
		}
	}
	return nil
}

// Close closes every registered file and empties the catalog. All files are
// closed even when some fail; the failures are combined.
func (tm *TableManager) Close() error {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	var err error
	for _, tableInfo := range tm.idToTable {
		err = multierr.Append(err, tableInfo.File.Close())
	}

	tm.nameToTable = make(map[string]*TableInfo)
	tm.idToTable = make(map[primitives.TableID]*TableInfo)
	return err
}
