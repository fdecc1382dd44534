package tables

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"heapstore/pkg/dberror"
	"heapstore/pkg/logging"
	"heapstore/pkg/primitives"
	"heapstore/pkg/storage/page"
	"heapstore/pkg/tuple"
	"heapstore/pkg/types"
)

func init() {
	logging.InitNop()
}

// mockDbFile implements page.DbFile for testing
type mockDbFile struct {
	id        primitives.TableID
	tupleDesc *tuple.TupleDescription
	closed    bool
	closeErr  error
}

func newMockDbFile(t *testing.T, id primitives.TableID, fieldTypes []types.Type, fieldNames []string) *mockDbFile {
	t.Helper()
	td, err := tuple.NewTupleDesc(fieldTypes, fieldNames)
	require.NoError(t, err)
	return &mockDbFile{id: id, tupleDesc: td}
}

func (m *mockDbFile) ReadPage(primitives.PageID) (page.Page, error) { return nil, nil }
func (m *mockDbFile) WritePage(page.Page) error                    { return nil }
func (m *mockDbFile) NumPages() (primitives.PageNumber, error)     { return 0, nil }

func (m *mockDbFile) InsertTuple(page.PageFetcher, primitives.TransactionID, *tuple.Tuple) ([]page.Page, error) {
	return nil, nil
}

func (m *mockDbFile) DeleteTuple(page.PageFetcher, primitives.TransactionID, *tuple.Tuple) (page.Page, error) {
	return nil, nil
}

func (m *mockDbFile) Iterator(page.PageFetcher, primitives.TransactionID) page.DbFileIterator {
	return nil
}

func (m *mockDbFile) GetID() primitives.TableID              { return m.id }
func (m *mockDbFile) GetTupleDesc() *tuple.TupleDescription { return m.tupleDesc }

func (m *mockDbFile) Close() error {
	m.closed = true
	return m.closeErr
}

func usersFile(t *testing.T, id primitives.TableID) *mockDbFile {
	return newMockDbFile(t, id, []types.Type{types.IntType, types.StringType}, []string{"id", "name"})
}

func TestTableManager_AddAndLookup(t *testing.T) {
	tm := NewTableManager()
	f := usersFile(t, 7)

	require.NoError(t, tm.AddTable(f, "users"))

	id, err := tm.GetTableID("users")
	require.NoError(t, err)
	assert.Equal(t, primitives.TableID(7), id)

	name, err := tm.GetTableName(7)
	require.NoError(t, err)
	assert.Equal(t, "users", name)

	td, err := tm.GetTupleDesc(7)
	require.NoError(t, err)
	assert.Same(t, f.tupleDesc, td)

	got, err := tm.GetDbFile(7)
	require.NoError(t, err)
	assert.Same(t, f, got)

	assert.NoError(t, tm.ValidateIntegrity())
}

func TestTableManager_AddTable_Errors(t *testing.T) {
	tm := NewTableManager()

	err := tm.AddTable(nil, "users")
	assert.True(t, dberror.IsIllegalState(err))

	err = tm.AddTable(usersFile(t, 1), "")
	assert.True(t, dberror.IsIllegalState(err))
}

func TestTableManager_Replacement(t *testing.T) {
	tests := []struct {
		name      string
		secondID  primitives.TableID
		second    string
		wantNames []string
		wantIDs   []primitives.TableID
	}{
		{"same name new id", 2, "users", []string{"users"}, []primitives.TableID{2}},
		{"same id new name", 1, "people", []string{"people"}, []primitives.TableID{1}},
		{"distinct", 2, "orders", []string{"orders", "users"}, []primitives.TableID{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tm := NewTableManager()
			require.NoError(t, tm.AddTable(usersFile(t, 1), "users"))
			require.NoError(t, tm.AddTable(usersFile(t, tt.secondID), tt.second))

			assert.Equal(t, tt.wantNames, tm.GetAllTableNames())
			assert.Equal(t, tt.wantIDs, tm.TableIDs())
			assert.NoError(t, tm.ValidateIntegrity())
		})
	}
}

func TestTableManager_UnknownTable(t *testing.T) {
	tm := NewTableManager()

	_, err := tm.GetTableID("missing")
	assert.True(t, dberror.IsIllegalState(err))

	_, err = tm.GetDbFile(42)
	assert.True(t, dberror.IsIllegalState(err))

	_, err = tm.GetTupleDesc(42)
	assert.Error(t, err)

	_, err = tm.GetTableName(42)
	assert.Error(t, err)
}

func TestTableManager_Close(t *testing.T) {
	tm := NewTableManager()
	a := usersFile(t, 1)
	b := usersFile(t, 2)
	b.closeErr = errors.New("disk gone")

	require.NoError(t, tm.AddTable(a, "a"))
	require.NoError(t, tm.AddTable(b, "b"))

	err := tm.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk gone")
	assert.True(t, a.closed)
	assert.True(t, b.closed)
	assert.Empty(t, tm.TableIDs())
}

func TestTableManager_ConcurrentOperations(t *testing.T) {
	tm := NewTableManager()

	files := make([]*mockDbFile, 20)
	for i := range files {
		files[i] = usersFile(t, primitives.TableID(i+1))
	}

	var g errgroup.Group
	for _, f := range files {
		g.Go(func() error {
			id := f.GetID()
			if err := tm.AddTable(f, fmt.Sprintf("t%d", id)); err != nil {
				return err
			}
			_, err := tm.GetDbFile(id)
			return err
		})
	}
	require.NoError(t, g.Wait())

	assert.Len(t, tm.TableIDs(), 20)
	assert.NoError(t, tm.ValidateIntegrity())
}
