package main

import (
	"go.uber.org/multierr"

	"heapstore/pkg/concurrency/lock"
	"heapstore/pkg/memory"
	"heapstore/pkg/primitives"
	"heapstore/pkg/storage/heap"
	"heapstore/pkg/tables"
	"heapstore/pkg/tuple"
)

// store wires one heap file to a buffer pool the way an embedding engine
// would.
type store struct {
	file   *heap.HeapFile
	tables *tables.TableManager
	pool   *memory.BufferPool
}

func openStore(path primitives.Filepath, td *tuple.TupleDescription) (*store, error) {
	hf, err := heap.OpenHeapFile(path, td, cfg.Storage.PageSize)
	if err != nil {
		return nil, err
	}

	tm := tables.NewTableManager()
	if err := tm.AddTable(hf, path.Base()); err != nil {
		_ = hf.Close()
		return nil, err
	}

	lm := lock.NewLockManager(cfg.Lock.Timeout.Duration)
	return &store{
		file:   hf,
		tables: tm,
		pool:   memory.NewBufferPool(cfg.BufferPool.MaxPages, tm, lm),
	}, nil
}

// count scans the file in its own transaction.
func (s *store) count() (int, error) {
	tid := s.pool.Begin()
	n, err := s.countIn(tid)
	if err != nil {
		_ = s.pool.TransactionComplete(tid, false)
		return 0, err
	}
	return n, s.pool.TransactionComplete(tid, true)
}

func (s *store) countIn(tid primitives.TransactionID) (int, error) {
	it := s.file.Iterator(s.pool, tid)
	if err := it.Open(); err != nil {
		return 0, err
	}
	defer it.Close()

	n := 0
	for {
		ok, err := it.HasNext()
		if err != nil {
			return 0, err
		}
		if !ok {
			return n, nil
		}
		if _, err := it.Next(); err != nil {
			return 0, err
		}
		n++
	}
}

func (s *store) Close() error {
	return multierr.Append(s.pool.Close(), s.tables.Close())
}
