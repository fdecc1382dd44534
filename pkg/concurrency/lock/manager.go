package lock

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"heapstore/pkg/dberror"
	"heapstore/pkg/logging"
	"heapstore/pkg/primitives"
)

const componentLockManager = "LockManager"

// DefaultTimeout is how long Acquire waits before giving up and aborting.
const DefaultTimeout = 750 * time.Millisecond

// LockManager manages page-level locks for database transactions.
// Deadlocks are resolved only by the acquisition timeout: a request that
// cannot be granted within the wait window fails with TransactionAborted.
type LockManager struct {
	mutex     sync.Mutex
	lockTable *LockTable
	timeout   time.Duration

	// changed is closed and replaced whenever a lock is released, waking
	// every waiter so it can retry.
	changed chan struct{}
}

// NewLockManager creates a lock manager with the given wait window. A
// non-positive timeout selects DefaultTimeout.
func NewLockManager(timeout time.Duration) *LockManager {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &LockManager{
		lockTable: NewLockTable(),
		timeout:   timeout,
		changed:   make(chan struct{}),
	}
}

func (lm *LockManager) Timeout() time.Duration {
	return lm.timeout
}

// Acquire blocks until tid holds lockType on pid or the wait window runs
// out. Waiting happens outside the mutex; each release wakes the waiter
// for another attempt.
func (lm *LockManager) Acquire(tid primitives.TransactionID, pid primitives.PageID, lockType LockType) error {
	if !tid.IsValid() {
		return dberror.IllegalState("Acquire", componentLockManager, "invalid transaction id")
	}

	var deadline *time.Timer
	for {
		lm.mutex.Lock()
		if lm.lockTable.tryGrant(tid, pid, lockType) {
			lm.mutex.Unlock()
			return nil
		}
		wake := lm.changed
		lm.mutex.Unlock()

		if deadline == nil {
			deadline = time.NewTimer(lm.timeout)
			defer deadline.Stop()
		}

		select {
		case <-wake:
		case <-deadline.C:
			logging.WithLock(tid, pid).Warn("lock wait timed out",
				zap.Stringer("mode", lockType),
				zap.Duration("timeout", lm.timeout))
			return dberror.TransactionAborted("Acquire", componentLockManager,
				"%s timed out waiting for %s lock on %s", tid, lockType, pid)
		}
	}
}

// Release drops tid's lock on pid. Releasing a lock that is not held is a
// no-op.
func (lm *LockManager) Release(tid primitives.TransactionID, pid primitives.PageID) {
	lm.mutex.Lock()
	defer lm.mutex.Unlock()

	if lm.lockTable.ReleaseLock(tid, pid) {
		lm.notifyLocked()
	}
}

// ReleaseAll drops every lock held by tid and returns the pages it held.
func (lm *LockManager) ReleaseAll(tid primitives.TransactionID) []primitives.PageID {
	lm.mutex.Lock()
	defer lm.mutex.Unlock()

	pages := lm.lockTable.ReleaseAllLocks(tid)
	if len(pages) > 0 {
		lm.notifyLocked()
	}
	return pages
}

func (lm *LockManager) notifyLocked() {
	close(lm.changed)
	lm.changed = make(chan struct{})
}

// Holds reports whether tid holds a shared or exclusive lock on pid.
func (lm *LockManager) Holds(tid primitives.TransactionID, pid primitives.PageID) bool {
	lm.mutex.Lock()
	defer lm.mutex.Unlock()

	_, ok := lm.lockTable.HeldLockType(tid, pid)
	return ok
}

// HeldLockType returns the mode tid holds on pid.
func (lm *LockManager) HeldLockType(tid primitives.TransactionID, pid primitives.PageID) (LockType, bool) {
	lm.mutex.Lock()
	defer lm.mutex.Unlock()
	return lm.lockTable.HeldLockType(tid, pid)
}

// LockedPages lists the pages tid holds locks on, in page order.
func (lm *LockManager) LockedPages(tid primitives.TransactionID) []primitives.PageID {
	lm.mutex.Lock()
	defer lm.mutex.Unlock()
	return lm.lockTable.LockedPages(tid)
}

// IsLocked checks if any locks are currently held on a page.
func (lm *LockManager) IsLocked(pid primitives.PageID) bool {
	lm.mutex.Lock()
	defer lm.mutex.Unlock()
	return lm.lockTable.IsPageLocked(pid)
}

func (lm *LockManager) IsExclusivelyLocked(pid primitives.PageID) bool {
	lm.mutex.Lock()
	defer lm.mutex.Unlock()
	return lm.lockTable.IsExclusivelyLocked(pid)
}
