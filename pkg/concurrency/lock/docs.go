// Package lock implements page-level strict two-phase locking for
// heapstore's buffer pool.
//
// # Overview
//
// A transaction acquires the locks it needs while it runs and releases them
// all at once when it commits or aborts. The buffer pool calls
// [LockManager.ReleaseAll] at that single point; nothing releases a lock
// earlier.
//
// Two lock modes are supported:
//
//   - [SharedLock]: required to read a page; compatible with other shared locks.
//   - [ExclusiveLock]: required to write a page; incompatible with every
//     lock held by another transaction.
//
// A transaction that is the only shared holder of a page may upgrade to
// exclusive in place. While other shared holders exist the upgrade request
// waits like any other conflicting request.
//
// # Components
//
//   - [LockTable]: per page the shared holder set and the exclusive owner,
//     per transaction the pages it holds. Empty entries are removed.
//   - [LockManager]: guards the table with one mutex and implements the
//     blocking [LockManager.Acquire].
//
// # Waiting and Deadlocks
//
// A request that cannot be granted waits on a notification channel that is
// closed on every release, with a deadline timer running alongside. When the
// deadline fires first the request fails with a TransactionAborted error and
// the caller must roll back. There is no wait-for graph: a slow but not
// deadlocked transaction can be aborted too.
//
// # Invariants
//
//   - An exclusive owner, when present, is unique.
//   - A page is never held exclusively by one transaction and shared by another.
//   - The mutex is never held while waiting.
package lock
