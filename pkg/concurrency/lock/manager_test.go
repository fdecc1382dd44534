package lock

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"heapstore/pkg/dberror"
	"heapstore/pkg/logging"
	"heapstore/pkg/primitives"
)

func init() {
	logging.InitNop()
}

func newTxns(n int) []primitives.TransactionID {
	tids := make([]primitives.TransactionID, n)
	for i := range tids {
		tids[i] = primitives.NewTransactionID()
	}
	return tids
}

// acquireAsync starts Acquire in a goroutine and returns a channel that
// receives its result.
func acquireAsync(lm *LockManager, tid primitives.TransactionID, pid primitives.PageID, lt LockType) <-chan error {
	done := make(chan error, 1)
	go func() { done <- lm.Acquire(tid, pid, lt) }()
	return done
}

func assertPending(t *testing.T, done <-chan error) {
	t.Helper()
	select {
	case err := <-done:
		t.Fatalf("request should still be waiting, got %v", err)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestLockManager_SharedCompatibility(t *testing.T) {
	lm := NewLockManager(2 * time.Second)
	pid := primitives.NewPageID(1, 0)
	tids := newTxns(3)

	require.NoError(t, lm.Acquire(tids[0], pid, SharedLock))
	require.NoError(t, lm.Acquire(tids[1], pid, SharedLock))
	assert.True(t, lm.Holds(tids[0], pid))
	assert.True(t, lm.Holds(tids[1], pid))
	assert.False(t, lm.IsExclusivelyLocked(pid))

	done := acquireAsync(lm, tids[2], pid, ExclusiveLock)
	assertPending(t, done)

	lm.Release(tids[0], pid)
	assertPending(t, done)

	lm.Release(tids[1], pid)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("exclusive request was not granted after shared locks were released")
	}

	assert.True(t, lm.IsExclusivelyLocked(pid))
	mode, ok := lm.HeldLockType(tids[2], pid)
	require.True(t, ok)
	assert.Equal(t, ExclusiveLock, mode)
}

func TestLockManager_SelfCompatibility(t *testing.T) {
	lm := NewLockManager(100 * time.Millisecond)
	tid := primitives.NewTransactionID()

	shared := primitives.NewPageID(1, 0)
	require.NoError(t, lm.Acquire(tid, shared, SharedLock))
	require.NoError(t, lm.Acquire(tid, shared, SharedLock))
	require.NoError(t, lm.Acquire(tid, shared, ExclusiveLock), "sole shared holder upgrades")
	require.NoError(t, lm.Acquire(tid, shared, SharedLock))

	mode, _ := lm.HeldLockType(tid, shared)
	assert.Equal(t, ExclusiveLock, mode, "shared request does not downgrade")

	exclusive := primitives.NewPageID(1, 1)
	require.NoError(t, lm.Acquire(tid, exclusive, ExclusiveLock))
	require.NoError(t, lm.Acquire(tid, exclusive, ExclusiveLock))
	require.NoError(t, lm.Acquire(tid, exclusive, SharedLock))

	assert.Equal(t, []primitives.PageID{shared, exclusive}, lm.LockedPages(tid))
}

func TestLockManager_UpgradeRefusedWithOtherReaders(t *testing.T) {
	lm := NewLockManager(100 * time.Millisecond)
	pid := primitives.NewPageID(2, 7)
	tids := newTxns(2)

	require.NoError(t, lm.Acquire(tids[0], pid, SharedLock))
	require.NoError(t, lm.Acquire(tids[1], pid, SharedLock))

	err := lm.Acquire(tids[0], pid, ExclusiveLock)
	assert.True(t, dberror.IsTransactionAborted(err))

	mode, ok := lm.HeldLockType(tids[0], pid)
	require.True(t, ok, "shared lock survives the failed upgrade")
	assert.Equal(t, SharedLock, mode)
}

func TestLockManager_ExclusiveBlocksShared(t *testing.T) {
	lm := NewLockManager(time.Second)
	pid := primitives.NewPageID(1, 3)
	tids := newTxns(2)

	require.NoError(t, lm.Acquire(tids[0], pid, ExclusiveLock))
	done := acquireAsync(lm, tids[1], pid, SharedLock)
	assertPending(t, done)

	assert.Equal(t, []primitives.PageID{pid}, lm.ReleaseAll(tids[0]))
	require.NoError(t, <-done)
	assert.True(t, lm.Holds(tids[1], pid))
}

func TestLockManager_TimeoutAbort(t *testing.T) {
	timeout := 100 * time.Millisecond
	lm := NewLockManager(timeout)
	pid := primitives.NewPageID(1, 0)
	tids := newTxns(2)

	require.NoError(t, lm.Acquire(tids[0], pid, ExclusiveLock))

	start := time.Now()
	err := lm.Acquire(tids[1], pid, SharedLock)
	require.Error(t, err)
	assert.True(t, dberror.IsTransactionAborted(err))
	assert.GreaterOrEqual(t, time.Since(start), timeout)
	assert.False(t, lm.Holds(tids[1], pid))
}

func TestLockManager_AbortUnblocksCompetitor(t *testing.T) {
	lm := NewLockManager(300 * time.Millisecond)
	a := primitives.NewPageID(1, 0)
	b := primitives.NewPageID(1, 1)
	tids := newTxns(2)

	require.NoError(t, lm.Acquire(tids[0], a, ExclusiveLock))
	require.NoError(t, lm.Acquire(tids[1], b, ExclusiveLock))

	var g errgroup.Group
	var firstAborted, secondGranted atomic.Bool

	// tids[1] waits first, so its deadline fires first.
	g.Go(func() error {
		err := lm.Acquire(tids[1], a, ExclusiveLock)
		if dberror.IsTransactionAborted(err) {
			firstAborted.Store(true)
			lm.ReleaseAll(tids[1])
			return nil
		}
		return err
	})
	g.Go(func() error {
		time.Sleep(100 * time.Millisecond)
		if err := lm.Acquire(tids[0], b, ExclusiveLock); err != nil {
			return err
		}
		secondGranted.Store(true)
		return nil
	})

	require.NoError(t, g.Wait())
	assert.True(t, firstAborted.Load())
	assert.True(t, secondGranted.Load())
	assert.True(t, lm.Holds(tids[0], b))
}

func TestLockManager_ReleaseSemantics(t *testing.T) {
	lm := NewLockManager(0)
	assert.Equal(t, DefaultTimeout, lm.Timeout())

	pid := primitives.NewPageID(5, 5)
	tid := primitives.NewTransactionID()

	lm.Release(tid, pid)
	assert.Empty(t, lm.ReleaseAll(tid))

	require.NoError(t, lm.Acquire(tid, pid, SharedLock))
	assert.True(t, lm.IsLocked(pid))
	lm.Release(tid, pid)
	lm.Release(tid, pid)
	assert.False(t, lm.IsLocked(pid))
	assert.False(t, lm.Holds(tid, pid))
	assert.True(t, lm.lockTable.isEmpty(), "empty entries are removed")

	err := lm.Acquire(primitives.TransactionID{}, pid, SharedLock)
	assert.True(t, dberror.IsIllegalState(err))
}

func TestLockManager_ExclusiveIsMutuallyExclusive(t *testing.T) {
	lm := NewLockManager(5 * time.Second)
	pages := []primitives.PageID{primitives.NewPageID(1, 0), primitives.NewPageID(1, 1)}
	inside := make([]atomic.Int32, len(pages))

	var g errgroup.Group
	for w := 0; w < 8; w++ {
		g.Go(func() error {
			for i := 0; i < 20; i++ {
				tid := primitives.NewTransactionID()
				idx := (w + i) % len(pages)
				if err := lm.Acquire(tid, pages[idx], ExclusiveLock); err != nil {
					return err
				}
				if n := inside[idx].Add(1); n != 1 {
					t.Errorf("%d holders inside page %d", n, idx)
				}
				inside[idx].Add(-1)
				lm.ReleaseAll(tid)
			}
			return nil
		})
	}

	require.NoError(t, g.Wait())
	assert.True(t, lm.lockTable.isEmpty())
}
