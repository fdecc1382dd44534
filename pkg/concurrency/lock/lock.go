package lock

import "heapstore/pkg/primitives"

type LockType int

const (
	SharedLock LockType = iota
	ExclusiveLock
)

func (lt LockType) String() string {
	switch lt {
	case SharedLock:
		return "SHARED"
	case ExclusiveLock:
		return "EXCLUSIVE"
	default:
		return "UNKNOWN"
	}
}

// LockTypeFor maps a page permission to the lock it requires.
func LockTypeFor(perm primitives.Permissions) LockType {
	if perm == primitives.ReadWrite {
		return ExclusiveLock
	}
	return SharedLock
}
