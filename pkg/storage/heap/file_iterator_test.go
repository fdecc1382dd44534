package heap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heapstore/pkg/dberror"
	"heapstore/pkg/primitives"
	"heapstore/pkg/storage/page"
)

func drain(t *testing.T, it page.DbFileIterator) int {
	t.Helper()
	n := 0
	for {
		hasNext, err := it.HasNext()
		require.NoError(t, err)
		if !hasNext {
			return n
		}
		_, err = it.Next()
		require.NoError(t, err)
		n++
	}
}

func TestHeapFileIterator_Lifecycle(t *testing.T) {
	td := intDesc(t, 2)
	hf := newTestHeapFile(t, td, 64)
	fetcher := newDirectFetcher(hf)
	tid := primitives.NewTransactionID()

	for i := 0; i < 12; i++ {
		_, err := hf.InsertTuple(fetcher, tid, intTuple(t, td, int32(i)))
		require.NoError(t, err)
	}

	it := hf.Iterator(fetcher, tid)

	_, err := it.HasNext()
	assert.True(t, dberror.IsIllegalState(err), "not opened")
	assert.True(t, dberror.IsIllegalState(it.Rewind()))

	require.NoError(t, it.Open())
	assert.True(t, dberror.IsIllegalState(it.Open()), "already open")

	fetcher.perms = nil
	assert.Equal(t, 12, drain(t, it))
	for _, perm := range fetcher.perms {
		assert.Equal(t, primitives.ReadOnly, perm)
	}

	_, err = it.Next()
	assert.True(t, dberror.IsIllegalState(err), "exhausted")

	require.NoError(t, it.Rewind())
	assert.Equal(t, 12, drain(t, it))

	require.NoError(t, it.Close())
	_, err = it.HasNext()
	assert.True(t, dberror.IsIllegalState(err), "closed")

	require.NoError(t, it.Open())
	assert.Equal(t, 12, drain(t, it))
	require.NoError(t, it.Close())
}

func TestHeapFileIterator_SkipsEmptyPages(t *testing.T) {
	td := intDesc(t, 2)
	hf := newTestHeapFile(t, td, 64)
	fetcher := newDirectFetcher(hf)
	tid := primitives.NewTransactionID()

	for i := 0; i < 3; i++ {
		_, err := hf.AllocateNewPage()
		require.NoError(t, err)
	}

	it := hf.Iterator(fetcher, tid)
	require.NoError(t, it.Open())
	assert.Equal(t, 0, drain(t, it))

	_, err := hf.InsertTuple(fetcher, tid, intTuple(t, td, 1))
	require.NoError(t, err)
	require.NoError(t, it.Rewind())
	assert.Equal(t, 1, drain(t, it))
}
