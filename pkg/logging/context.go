package logging

import (
	"go.uber.org/zap"

	"heapstore/pkg/primitives"
)

// WithTx creates a logger with transaction context.
//
// Example:
//
//	log := logging.WithTx(tid)
//	log.Info("commit", zap.Int("dirty_pages", n))
func WithTx(tid primitives.TransactionID) *zap.Logger {
	return GetLogger().With(zap.Int64("tx_id", tid.ID()))
}

// WithTable creates a logger with table context.
func WithTable(tableID primitives.TableID, tableName string) *zap.Logger {
	return GetLogger().With(zap.Uint64("table_id", tableID.AsUint64()), zap.String("table", tableName))
}

// WithPage creates a logger with page context.
// Useful for buffer pool and storage operations.
//
// Example:
//
//	log := logging.WithPage(pid)
//	log.Debug("page evicted")
func WithPage(pid primitives.PageID) *zap.Logger {
	return GetLogger().With(zap.Uint64("table_id", pid.TableID.AsUint64()), zap.Uint64("page_no", uint64(pid.PageNo)))
}

// WithLock creates a logger with lock context.
//
// Example:
//
//	log := logging.WithLock(tid, pid)
//	log.Warn("lock wait timed out", zap.Stringer("mode", mode))
func WithLock(tid primitives.TransactionID, pid primitives.PageID) *zap.Logger {
	return WithPage(pid).With(zap.Int64("tx_id", tid.ID()))
}

// WithComponent creates a logger with component/subsystem context.
func WithComponent(component string) *zap.Logger {
	return GetLogger().With(zap.String("component", component))
}

// WithError creates a logger with error context.
func WithError(err error) *zap.Logger {
	return GetLogger().With(zap.Error(err))
}
