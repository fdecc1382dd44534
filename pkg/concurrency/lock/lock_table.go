package lock

import (
	"slices"

	"heapstore/pkg/primitives"
)

// LockTable records who holds which lock. Per page it keeps the set of
// shared holders and the exclusive owner, and per transaction the pages it
// holds with the strongest mode. It is not synchronized; LockManager guards
// it with its mutex.
type LockTable struct {
	shared           map[primitives.PageID]map[primitives.TransactionID]struct{}
	exclusive        map[primitives.PageID]primitives.TransactionID
	transactionLocks map[primitives.TransactionID]map[primitives.PageID]LockType
}

func NewLockTable() *LockTable {
	return &LockTable{
		shared:           make(map[primitives.PageID]map[primitives.TransactionID]struct{}),
		exclusive:        make(map[primitives.PageID]primitives.TransactionID),
		transactionLocks: make(map[primitives.TransactionID]map[primitives.PageID]LockType),
	}
}

// HeldLockType returns the mode tid holds on pid, if any.
func (lt *LockTable) HeldLockType(tid primitives.TransactionID, pid primitives.PageID) (LockType, bool) {
	mode, ok := lt.transactionLocks[tid][pid]
	return mode, ok
}

// exclusiveOwner returns the exclusive holder of pid, if any.
func (lt *LockTable) exclusiveOwner(pid primitives.PageID) (primitives.TransactionID, bool) {
	owner, ok := lt.exclusive[pid]
	return owner, ok
}

func (lt *LockTable) sharedHolders(pid primitives.PageID) map[primitives.TransactionID]struct{} {
	return lt.shared[pid]
}

func (lt *LockTable) addShared(tid primitives.TransactionID, pid primitives.PageID) {
	addToSet(lt.shared, pid, tid, struct{}{})
	addToSet(lt.transactionLocks, tid, pid, SharedLock)
}

// setExclusive makes tid the exclusive owner of pid. A shared lock tid held
// on pid is absorbed by the exclusive one.
func (lt *LockTable) setExclusive(tid primitives.TransactionID, pid primitives.PageID) {
	deleteFromSet(lt.shared, pid, tid)
	lt.exclusive[pid] = tid
	addToSet(lt.transactionLocks, tid, pid, ExclusiveLock)
}

// ReleaseLock drops whatever tid holds on pid. It reports whether anything
// was held.
func (lt *LockTable) ReleaseLock(tid primitives.TransactionID, pid primitives.PageID) bool {
	released := deleteFromSet(lt.shared, pid, tid)

	if owner, ok := lt.exclusive[pid]; ok && owner == tid {
		delete(lt.exclusive, pid)
		released = true
	}

	deleteFromSet(lt.transactionLocks, tid, pid)
	return released
}

// ReleaseAllLocks drops every lock of tid and returns the affected pages in
// page order.
func (lt *LockTable) ReleaseAllLocks(tid primitives.TransactionID) []primitives.PageID {
	pages := lt.LockedPages(tid)
	for _, pid := range pages {
		lt.ReleaseLock(tid, pid)
	}
	return pages
}

// LockedPages returns the pages tid holds any lock on, in page order.
func (lt *LockTable) LockedPages(tid primitives.TransactionID) []primitives.PageID {
	held := lt.transactionLocks[tid]
	pages := make([]primitives.PageID, 0, len(held))
	for pid := range held {
		pages = append(pages, pid)
	}
	slices.SortFunc(pages, func(a, b primitives.PageID) int {
		switch {
		case a.Less(b):
			return -1
		case b.Less(a):
			return 1
		default:
			return 0
		}
	})
	return pages
}

func (lt *LockTable) IsPageLocked(pid primitives.PageID) bool {
	_, x := lt.exclusive[pid]
	return x || len(lt.shared[pid]) > 0
}

func (lt *LockTable) IsExclusivelyLocked(pid primitives.PageID) bool {
	_, x := lt.exclusive[pid]
	return x
}

// isEmpty reports whether no lock is recorded at all.
func (lt *LockTable) isEmpty() bool {
	return len(lt.shared) == 0 && len(lt.exclusive) == 0 && len(lt.transactionLocks) == 0
}
