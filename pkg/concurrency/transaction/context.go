package transaction

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/tidwall/btree"

	"heapstore/pkg/primitives"
)

// TransactionStatus represents the current state of a transaction
type TransactionStatus int

const (
	TxActive TransactionStatus = iota
	TxCommitting
	TxAborting
	TxCommitted
	TxAborted
)

func (ts TransactionStatus) String() string {
	switch ts {
	case TxActive:
		return "ACTIVE"
	case TxCommitting:
		return "COMMITTING"
	case TxAborting:
		return "ABORTING"
	case TxCommitted:
		return "COMMITTED"
	case TxAborted:
		return "ABORTED"
	default:
		return "UNKNOWN"
	}
}

// IsTerminal reports whether no further transition is possible.
func (ts TransactionStatus) IsTerminal() bool {
	return ts == TxCommitted || ts == TxAborted
}

// validTransitions is the lifecycle state machine. A committing transaction
// may still end ABORTED when its flush fails.
var validTransitions = map[TransactionStatus][]TransactionStatus{
	TxActive:     {TxCommitting, TxAborting},
	TxCommitting: {TxCommitted, TxAborted},
	TxAborting:   {TxAborted},
}

type TransactionStats struct {
	PagesRead     int
	PagesWritten  int
	TuplesWritten int
	TuplesDeleted int
	LockedPages   int
	DirtyPages    int
}

// TransactionContext encapsulates all state for a single transaction.
//
// lockedPages is the transaction's lock guard: every page it was granted
// is recorded here and the whole set is released once, when the
// transaction terminates.
type TransactionContext struct {
	// Identity
	ID primitives.TransactionID

	// Lifecycle state
	status    TransactionStatus
	startTime time.Time
	endTime   time.Time
	mutex     sync.RWMutex

	// Maps PageID to the strongest permission granted so far
	lockedPages map[primitives.PageID]primitives.Permissions
	// Pages this transaction has modified, ordered by PageID
	dirtyPages *btree.BTreeG[primitives.PageID]

	// Statistics
	pagesRead     int
	pagesWritten  int
	tuplesWritten int
	tuplesDeleted int
}

func NewTransactionContext(tid primitives.TransactionID) *TransactionContext {
	return &TransactionContext{
		ID:          tid,
		status:      TxActive,
		startTime:   time.Now(),
		lockedPages: make(map[primitives.PageID]primitives.Permissions),
		dirtyPages:  btree.NewBTreeG[primitives.PageID](primitives.PageID.Less),
	}
}

// IsActive returns true if the transaction is still active
func (tc *TransactionContext) IsActive() bool {
	tc.mutex.RLock()
	defer tc.mutex.RUnlock()
	return tc.status == TxActive
}

func (tc *TransactionContext) GetStatus() TransactionStatus {
	tc.mutex.RLock()
	defer tc.mutex.RUnlock()
	return tc.status
}

// Transition moves the transaction from one status to another. It fails if
// the current status is not from or the move is not part of the lifecycle.
func (tc *TransactionContext) Transition(from, to TransactionStatus) error {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()

	if tc.status != from {
		return fmt.Errorf("transaction %s is %s, not %s", tc.ID, tc.status, from)
	}
	if !slices.Contains(validTransitions[from], to) {
		return fmt.Errorf("transaction %s cannot move from %s to %s", tc.ID, from, to)
	}

	tc.status = to
	if to.IsTerminal() {
		tc.endTime = time.Now()
	}
	return nil
}

// RecordPageAccess records that this transaction has been granted a page
func (tc *TransactionContext) RecordPageAccess(pid primitives.PageID, perm primitives.Permissions) {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()

	existing, exists := tc.lockedPages[pid]
	if exists && existing == primitives.ReadWrite {
		return
	}

	tc.lockedPages[pid] = perm
	if !exists {
		tc.pagesRead++
	}
}

// MarkPageDirty marks a page as dirty (modified) by this transaction
func (tc *TransactionContext) MarkPageDirty(pid primitives.PageID) {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()

	if _, replaced := tc.dirtyPages.Set(pid); !replaced {
		tc.pagesWritten++
	}
}

// GetDirtyPages returns the dirty pages in PageID order.
func (tc *TransactionContext) GetDirtyPages() []primitives.PageID {
	tc.mutex.RLock()
	defer tc.mutex.RUnlock()

	pages := make([]primitives.PageID, 0, tc.dirtyPages.Len())
	tc.dirtyPages.Scan(func(pid primitives.PageID) bool {
		pages = append(pages, pid)
		return true
	})
	return pages
}

// ClearDirtyPage forgets one dirty page, e.g. after it was flushed.
func (tc *TransactionContext) ClearDirtyPage(pid primitives.PageID) {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()
	tc.dirtyPages.Delete(pid)
}

// GetLockedPages returns the pages this transaction was granted, in PageID order.
func (tc *TransactionContext) GetLockedPages() []primitives.PageID {
	tc.mutex.RLock()
	defer tc.mutex.RUnlock()

	pages := make([]primitives.PageID, 0, len(tc.lockedPages))
	for pid := range tc.lockedPages {
		pages = append(pages, pid)
	}
	slices.SortFunc(pages, comparePageIDs)
	return pages
}

func (tc *TransactionContext) GetPagePermission(pid primitives.PageID) (perm primitives.Permissions, exists bool) {
	tc.mutex.RLock()
	defer tc.mutex.RUnlock()
	perm, exists = tc.lockedPages[pid]
	return
}

// ReleaseLockedPages empties the lock guard and returns what it held. The
// buffer pool calls it exactly once, at termination.
func (tc *TransactionContext) ReleaseLockedPages() int {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()

	n := len(tc.lockedPages)
	clear(tc.lockedPages)
	return n
}

// RecordTupleWrite increments the tuples written counter
func (tc *TransactionContext) RecordTupleWrite() {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()
	tc.tuplesWritten++
}

// RecordTupleDelete increments the tuples deleted counter
func (tc *TransactionContext) RecordTupleDelete() {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()
	tc.tuplesDeleted++
}

// GetStatistics returns a snapshot of transaction statistics
func (tc *TransactionContext) GetStatistics() TransactionStats {
	tc.mutex.RLock()
	defer tc.mutex.RUnlock()

	return TransactionStats{
		PagesRead:     tc.pagesRead,
		PagesWritten:  tc.pagesWritten,
		TuplesWritten: tc.tuplesWritten,
		TuplesDeleted: tc.tuplesDeleted,
		LockedPages:   len(tc.lockedPages),
		DirtyPages:    tc.dirtyPages.Len(),
	}
}

// Duration returns how long the transaction has been running
func (tc *TransactionContext) Duration() time.Duration {
	tc.mutex.RLock()
	defer tc.mutex.RUnlock()
	return tc.durationLocked()
}

func (tc *TransactionContext) durationLocked() time.Duration {
	endTime := tc.endTime
	if endTime.IsZero() {
		endTime = time.Now()
	}
	return endTime.Sub(tc.startTime)
}

// String returns a string representation of the transaction context
func (tc *TransactionContext) String() string {
	tc.mutex.RLock()
	defer tc.mutex.RUnlock()

	return fmt.Sprintf("Transaction %s [Status=%s, Duration=%v, Dirty=%d, Locked=%d]",
		tc.ID, tc.status, tc.durationLocked(),
		tc.dirtyPages.Len(), len(tc.lockedPages))
}

func comparePageIDs(a, b primitives.PageID) int {
	switch {
	case a.Less(b):
		return -1
	case b.Less(a):
		return 1
	default:
		return 0
	}
}
