package lock

import "heapstore/pkg/primitives"

// tryGrant applies the compatibility rules and records the lock if they
// allow it. It never blocks.
//
// Shared is granted unless another transaction owns the page exclusively.
// Exclusive is granted when tid already owns it, or when nobody owns it
// exclusively and tid is the only shared holder (or there is none). In the
// latter case tid's shared lock is upgraded in place.
func (lt *LockTable) tryGrant(tid primitives.TransactionID, pid primitives.PageID, lockType LockType) bool {
	owner, hasOwner := lt.exclusiveOwner(pid)

	if lockType == SharedLock {
		if hasOwner {
			return owner == tid
		}
		lt.addShared(tid, pid)
		return true
	}

	if hasOwner {
		return owner == tid
	}

	for holder := range lt.sharedHolders(pid) {
		if holder != tid {
			return false
		}
	}

	lt.setExclusive(tid, pid)
	return true
}
