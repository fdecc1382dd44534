// Package memory implements the buffer pool: the bounded page cache through
// which every transactional page access flows.
//
// The pool runs a no-steal policy. A page dirtied by a live transaction
// never leaves memory before that transaction ends, so abort only has to
// re-read the affected pages from storage. Commit forces the transaction's
// dirty pages to disk before its locks are released.
package memory

import (
	"sync"
	"sync/atomic"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"heapstore/pkg/concurrency/lock"
	"heapstore/pkg/concurrency/transaction"
	"heapstore/pkg/dberror"
	"heapstore/pkg/logging"
	"heapstore/pkg/primitives"
	"heapstore/pkg/storage/page"
	"heapstore/pkg/tuple"
)

const componentBufferPool = "BufferPool"

// DefaultMaxPages is the page budget used when none is configured.
const DefaultMaxPages = 50

// FileResolver finds the file that stores a table.
type FileResolver interface {
	GetDbFile(tableID primitives.TableID) (page.DbFile, error)
}

// Stats is a point-in-time view of the pool.
type Stats struct {
	Hits               uint64
	Misses             uint64
	Evictions          uint64
	Resident           int
	Dirty              int
	Capacity           int
	ActiveTransactions int
}

// BufferPool caches up to maxPages pages and hands them out under page
// locks. It implements page.PageFetcher, so files route their page reads
// through it.
type BufferPool struct {
	maxPages    int
	resolver    FileResolver
	lockManager *lock.LockManager
	registry    *transaction.TransactionRegistry

	// mutex guards cache; page bytes are guarded by the page locks.
	mutex sync.Mutex
	cache PageCache

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

var _ page.PageFetcher = (*BufferPool)(nil)

// NewBufferPool creates a pool holding at most maxPages pages. A
// non-positive maxPages selects DefaultMaxPages.
func NewBufferPool(maxPages int, resolver FileResolver, lockManager *lock.LockManager) *BufferPool {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	return &BufferPool{
		maxPages:    maxPages,
		resolver:    resolver,
		lockManager: lockManager,
		registry:    transaction.NewTransactionRegistry(),
		cache:       NewLRUPageCache(),
	}
}

// Begin starts a transaction and returns its id.
func (bp *BufferPool) Begin() primitives.TransactionID {
	ctx := bp.registry.Begin()
	logging.WithTx(ctx.ID).Debug("transaction started")
	return ctx.ID
}

// GetPage returns the page pid on behalf of tid, holding a shared lock for
// ReadOnly and an exclusive lock for ReadWrite. The call blocks while the
// lock is unavailable and fails with TransactionAborted once the lock wait
// times out; the caller must then complete tid with commit=false.
//
// While a page stays resident every call returns the same instance.
func (bp *BufferPool) GetPage(tid primitives.TransactionID, pid primitives.PageID, perm primitives.Permissions) (page.Page, error) {
	ctx, err := bp.activeContext("GetPage", tid)
	if err != nil {
		return nil, err
	}

	if held, ok := ctx.GetPagePermission(pid); !ok || (held == primitives.ReadOnly && perm == primitives.ReadWrite) {
		if err := bp.lockManager.Acquire(tid, pid, lock.LockTypeFor(perm)); err != nil {
			return nil, err
		}
		// The transaction may have been completed while this call waited; its
		// locks were then already released and this one would never be.
		if status := ctx.GetStatus(); status != transaction.TxActive {
			bp.lockManager.Release(tid, pid)
			return nil, dberror.IllegalState("GetPage", componentBufferPool, "%s is %s", tid, status)
		}
		ctx.RecordPageAccess(pid, perm)
	}

	bp.mutex.Lock()
	defer bp.mutex.Unlock()

	if p, ok := bp.cache.Get(pid); ok {
		bp.hits.Add(1)
		return p, nil
	}
	bp.misses.Add(1)

	file, err := bp.resolver.GetDbFile(pid.TableID)
	if err != nil {
		return nil, err
	}

	if bp.cache.Size() >= bp.maxPages {
		if err := bp.evictLocked(); err != nil {
			return nil, err
		}
	}

	p, err := file.ReadPage(pid)
	if err != nil {
		return nil, err
	}
	bp.cache.Put(pid, p)

	logging.WithPage(pid).Debug("page loaded",
		zap.Int64("tx_id", tid.ID()),
		zap.Stringer("perm", perm))
	return p, nil
}

// evictLocked drops the least recently used clean page. Dirty pages are
// never written early. A clean page may be evicted while locked: its bytes
// equal the durable image, and the next GetPage reloads it.
func (bp *BufferPool) evictLocked() error {
	for _, pid := range bp.cache.GetAll() {
		p, _ := bp.cache.Peek(pid)
		if _, dirty := p.IsDirty(); dirty {
			continue
		}

		bp.cache.Remove(pid)
		bp.evictions.Add(1)
		logging.WithPage(pid).Debug("page evicted")
		return nil
	}

	return dberror.BufferPoolFull("GetPage", componentBufferPool,
		"all %d resident pages are dirty", bp.cache.Size())
}

// InsertTuple adds t to tableID within tid and marks every page the file
// modified as dirtied by tid.
func (bp *BufferPool) InsertTuple(tid primitives.TransactionID, tableID primitives.TableID, t *tuple.Tuple) error {
	ctx, err := bp.activeContext("InsertTuple", tid)
	if err != nil {
		return err
	}

	file, err := bp.resolver.GetDbFile(tableID)
	if err != nil {
		return err
	}

	pages, err := file.InsertTuple(bp, tid, t)
	if err != nil {
		return err
	}

	bp.markDirty(ctx, pages...)
	ctx.RecordTupleWrite()
	return nil
}

// DeleteTuple removes t, located by its record id, within tid.
func (bp *BufferPool) DeleteTuple(tid primitives.TransactionID, t *tuple.Tuple) error {
	ctx, err := bp.activeContext("DeleteTuple", tid)
	if err != nil {
		return err
	}
	if t == nil || t.RecordID == nil {
		return dberror.IllegalState("DeleteTuple", componentBufferPool, "tuple has no record id")
	}

	file, err := bp.resolver.GetDbFile(t.RecordID.PageID.TableID)
	if err != nil {
		return err
	}

	p, err := file.DeleteTuple(bp, tid, t)
	if err != nil {
		return err
	}

	bp.markDirty(ctx, p)
	ctx.RecordTupleDelete()
	return nil
}

func (bp *BufferPool) markDirty(ctx *transaction.TransactionContext, pages ...page.Page) {
	bp.mutex.Lock()
	defer bp.mutex.Unlock()

	for _, p := range pages {
		pid := p.GetID()
		p.MarkDirty(true, ctx.ID)
		if _, resident := bp.cache.Peek(pid); !resident && bp.cache.Size() >= bp.maxPages {
			// A dirty page cannot be dropped, so it goes back in even when
			// nothing clean is left to make room for it.
			if err := bp.evictLocked(); err != nil {
				logging.WithError(err).Warn("buffer pool over capacity", zap.Stringer("page", pid))
			}
		}
		bp.cache.Put(pid, p)
		ctx.MarkPageDirty(pid)
	}
}

// TransactionComplete ends tid. On commit the dirty pages are written in
// page order; on abort they are replaced by their durable images. Either
// way every lock tid holds is released afterwards.
//
// It must be called exactly once per transaction; later calls fail with
// IllegalState. When a commit cannot write a page the commit fails with
// StorageFault and the transaction ends aborted: pages already written are
// overwritten with the images they had before the commit started.
func (bp *BufferPool) TransactionComplete(tid primitives.TransactionID, commit bool) error {
	ctx, err := bp.registry.Get(tid)
	if err != nil {
		return dberror.IllegalState("TransactionComplete", componentBufferPool,
			"%s is unknown or already completed", tid)
	}

	from, to := transaction.TxAborting, transaction.TxAborted
	if commit {
		from, to = transaction.TxCommitting, transaction.TxCommitted
	}
	if err := ctx.Transition(transaction.TxActive, from); err != nil {
		return dberror.IllegalState("TransactionComplete", componentBufferPool, "%s", err)
	}

	dirty := ctx.GetDirtyPages()
	var result error
	if commit {
		result = bp.flushTransaction(ctx, dirty)
		if result != nil {
			to = transaction.TxAborted
		}
	} else {
		bp.rollback(dirty)
	}

	logging.WithTx(tid).Debug("releasing locks", zap.Stringers("pages", ctx.GetLockedPages()))
	released := bp.lockManager.ReleaseAll(tid)
	ctx.ReleaseLockedPages()

	if err := ctx.Transition(from, to); err != nil {
		result = multierr.Append(result, err)
	}
	bp.registry.Remove(tid)

	log := logging.WithTx(tid).With(
		zap.Int("dirty_pages", len(dirty)),
		zap.Int("locks_released", len(released)),
		zap.Duration("duration", ctx.Duration()))
	switch {
	case result != nil:
		log.Error("commit failed, transaction aborted", zap.Error(result))
	case commit:
		log.Info("transaction committed")
	default:
		log.Info("transaction aborted")
	}
	return result
}

func (bp *BufferPool) flushTransaction(ctx *transaction.TransactionContext, dirty []primitives.PageID) error {
	before := make([]page.Page, len(dirty))
	for i, pid := range dirty {
		img, err := bp.readDurable(pid)
		if err != nil {
			bp.rollback(dirty)
			return dberror.StorageFault(err, "TransactionComplete", componentBufferPool,
				"commit of %s could not read %s", ctx.ID, pid)
		}
		before[i] = img
	}

	for i, pid := range dirty {
		err := bp.FlushPage(pid)
		if err == nil {
			ctx.ClearDirtyPage(pid)
			continue
		}

		restoreErr := bp.restoreDurable(before[:i])
		bp.reinstate(before)
		if restoreErr != nil {
			return dberror.StorageFault(multierr.Combine(err, restoreErr), "TransactionComplete", componentBufferPool,
				"commit of %s failed writing %s and could not undo %d written pages", ctx.ID, pid, i)
		}
		return dberror.StorageFault(err, "TransactionComplete", componentBufferPool,
			"commit of %s failed writing %s", ctx.ID, pid)
	}
	return nil
}

// restoreDurable writes back images taken before a commit began writing.
func (bp *BufferPool) restoreDurable(images []page.Page) error {
	bp.mutex.Lock()
	defer bp.mutex.Unlock()

	var err error
	for _, img := range images {
		file, ferr := bp.resolver.GetDbFile(img.GetID().TableID)
		if ferr != nil {
			err = multierr.Append(err, ferr)
			continue
		}
		err = multierr.Append(err, file.WritePage(img))
	}
	return err
}

// reinstate puts pre-commit images in place of the resident pages.
func (bp *BufferPool) reinstate(images []page.Page) {
	bp.mutex.Lock()
	defer bp.mutex.Unlock()

	for _, img := range images {
		if _, ok := bp.cache.Peek(img.GetID()); ok {
			bp.cache.Put(img.GetID(), img)
		}
	}
}

// rollback replaces each resident page with a fresh read from storage. A
// page that cannot be re-read is dropped so the next access loads it.
func (bp *BufferPool) rollback(pids []primitives.PageID) {
	bp.mutex.Lock()
	defer bp.mutex.Unlock()

	for _, pid := range pids {
		if _, ok := bp.cache.Peek(pid); !ok {
			continue
		}

		fresh, err := bp.readDurable(pid)
		if err != nil {
			logging.WithError(err).Warn("dropping page that could not be restored",
				zap.Stringer("page", pid))
			bp.cache.Remove(pid)
			continue
		}
		bp.cache.Put(pid, fresh)
	}
}

func (bp *BufferPool) readDurable(pid primitives.PageID) (page.Page, error) {
	file, err := bp.resolver.GetDbFile(pid.TableID)
	if err != nil {
		return nil, err
	}
	return file.ReadPage(pid)
}

// HoldsLock reports whether tid holds any lock on pid.
func (bp *BufferPool) HoldsLock(tid primitives.TransactionID, pid primitives.PageID) bool {
	return bp.lockManager.Holds(tid, pid)
}

// FlushPage writes pid to storage if it is resident and dirty, then marks
// it clean. It ignores locks; commit is the transactional path.
func (bp *BufferPool) FlushPage(pid primitives.PageID) error {
	bp.mutex.Lock()
	defer bp.mutex.Unlock()
	return bp.flushLocked(pid)
}

func (bp *BufferPool) flushLocked(pid primitives.PageID) error {
	p, ok := bp.cache.Peek(pid)
	if !ok {
		return nil
	}
	if _, dirty := p.IsDirty(); !dirty {
		return nil
	}

	file, err := bp.resolver.GetDbFile(pid.TableID)
	if err != nil {
		return err
	}
	if err := file.WritePage(p); err != nil {
		return err
	}
	p.MarkDirty(false, primitives.TransactionID{})
	return nil
}

// FlushAllPages writes every dirty resident page. Flushing pages of a live
// transaction breaks its atomicity, so this is meant for shutdown.
func (bp *BufferPool) FlushAllPages() error {
	bp.mutex.Lock()
	defer bp.mutex.Unlock()

	var err error
	for _, pid := range bp.cache.GetAll() {
		err = multierr.Append(err, bp.flushLocked(pid))
	}
	return err
}

// DiscardPage drops pid from the cache without writing it.
func (bp *BufferPool) DiscardPage(pid primitives.PageID) {
	bp.mutex.Lock()
	defer bp.mutex.Unlock()
	bp.cache.Remove(pid)
}

func (bp *BufferPool) Stats() Stats {
	bp.mutex.Lock()
	defer bp.mutex.Unlock()

	dirty := 0
	for _, pid := range bp.cache.GetAll() {
		p, _ := bp.cache.Peek(pid)
		if _, d := p.IsDirty(); d {
			dirty++
		}
	}

	return Stats{
		Hits:               bp.hits.Load(),
		Misses:             bp.misses.Load(),
		Evictions:          bp.evictions.Load(),
		Resident:           bp.cache.Size(),
		Dirty:              dirty,
		Capacity:           bp.maxPages,
		ActiveTransactions: bp.registry.Count(),
	}
}

// Close aborts every transaction still running, writes any remaining dirty
// page and empties the cache.
func (bp *BufferPool) Close() error {
	var err error
	for _, ctx := range bp.registry.GetActive() {
		err = multierr.Append(err, bp.TransactionComplete(ctx.ID, false))
	}
	err = multierr.Append(err, bp.FlushAllPages())

	bp.mutex.Lock()
	bp.cache.Clear()
	bp.mutex.Unlock()

	logging.WithComponent(componentBufferPool).Info("buffer pool closed")
	return err
}

func (bp *BufferPool) activeContext(op string, tid primitives.TransactionID) (*transaction.TransactionContext, error) {
	ctx, err := bp.registry.Get(tid)
	if err != nil {
		return nil, dberror.IllegalState(op, componentBufferPool, "%s is unknown or already completed", tid)
	}
	if status := ctx.GetStatus(); status != transaction.TxActive {
		return nil, dberror.IllegalState(op, componentBufferPool, "%s is %s", tid, status)
	}
	return ctx, nil
}
