package heap

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"heapstore/pkg/logging"
	"heapstore/pkg/primitives"
	"heapstore/pkg/storage/page"
	"heapstore/pkg/tuple"
	"heapstore/pkg/types"
)

func init() {
	logging.InitNop()
}

// directFetcher serves pages straight from the file and keeps them resident,
// so edits made through one fetch are seen by the next.
type directFetcher struct {
	mu    sync.Mutex
	file  *HeapFile
	pages map[primitives.PageID]page.Page
	perms []primitives.Permissions
}

func newDirectFetcher(file *HeapFile) *directFetcher {
	return &directFetcher{file: file, pages: make(map[primitives.PageID]page.Page)}
}

func (f *directFetcher) GetPage(_ primitives.TransactionID, pid primitives.PageID, perm primitives.Permissions) (page.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.perms = append(f.perms, perm)
	if p, ok := f.pages[pid]; ok {
		return p, nil
	}
	p, err := f.file.ReadPage(pid)
	if err != nil {
		return nil, err
	}
	f.pages[pid] = p
	return p, nil
}

func (f *directFetcher) heapPage(t *testing.T, pageNo primitives.PageNumber) *HeapPage {
	t.Helper()
	p, ok := f.pages[primitives.NewPageID(f.file.GetID(), pageNo)]
	require.True(t, ok, "page %d not resident", pageNo)
	return p.(*HeapPage)
}

// intDesc returns a layout of n int fields (4n bytes wide).
func intDesc(t *testing.T, n int) *tuple.TupleDescription {
	t.Helper()
	fieldTypes := make([]types.Type, n)
	for i := range fieldTypes {
		fieldTypes[i] = types.IntType
	}
	td, err := tuple.NewTupleDesc(fieldTypes, nil)
	require.NoError(t, err)
	return td
}

func intTuple(t *testing.T, td *tuple.TupleDescription, first int32) *tuple.Tuple {
	t.Helper()
	tup := tuple.NewTuple(td)
	for i := 0; i < td.NumFields(); i++ {
		require.NoError(t, tup.SetField(i, types.NewIntField(first+int32(i))))
	}
	return tup
}

func newTestHeapFile(t *testing.T, td *tuple.TupleDescription, pageSize int) *HeapFile {
	t.Helper()
	path := primitives.Filepath(t.TempDir()).Join("table.dat")
	hf, err := OpenHeapFile(path, td, pageSize)
	require.NoError(t, err)
	t.Cleanup(func() { _ = hf.Close() })
	return hf
}
