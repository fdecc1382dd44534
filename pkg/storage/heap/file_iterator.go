package heap

import (
	"heapstore/pkg/dberror"
	"heapstore/pkg/primitives"
	"heapstore/pkg/storage/page"
	"heapstore/pkg/tuple"
)

const componentIterator = "HeapFileIterator"

type iteratorState int

const (
	iterCreated iteratorState = iota
	iterOpen
	iterClosed
)

// HeapFileIterator provides iteration over all tuples in a HeapFile.
// Pages are fetched ReadOnly one at a time; only the tuples of the current
// page are held.
type HeapFileIterator struct {
	file     *HeapFile
	fetcher  page.PageFetcher
	tid      primitives.TransactionID
	state    iteratorState
	nextPage primitives.PageNumber
	current  []*tuple.Tuple
	pos      int
}

// NewHeapFileIterator creates a new iterator for the given HeapFile
func NewHeapFileIterator(file *HeapFile, fetcher page.PageFetcher, tid primitives.TransactionID) *HeapFileIterator {
	return &HeapFileIterator{
		file:    file,
		fetcher: fetcher,
		tid:     tid,
	}
}

// Open positions the iterator before the first tuple. Opening an already
// open iterator is an error; a closed one may be opened again.
func (it *HeapFileIterator) Open() error {
	if it.state == iterOpen {
		return dberror.IllegalState("Open", componentIterator, "iterator is already open")
	}
	it.state = iterOpen
	it.reset()
	return nil
}

// HasNext returns true if there are more tuples
func (it *HeapFileIterator) HasNext() (bool, error) {
	if err := it.checkOpen("HasNext"); err != nil {
		return false, err
	}

	for it.pos >= len(it.current) {
		numPages, err := it.file.NumPages()
		if err != nil {
			return false, err
		}
		if it.nextPage >= numPages {
			return false, nil
		}

		hp, err := it.file.fetch(it.fetcher, it.tid, it.nextPage, primitives.ReadOnly)
		if err != nil {
			return false, err
		}
		it.current = hp.GetTuples()
		it.pos = 0
		it.nextPage++
	}
	return true, nil
}

// Next returns the next tuple
func (it *HeapFileIterator) Next() (*tuple.Tuple, error) {
	hasNext, err := it.HasNext()
	if err != nil {
		return nil, err
	}
	if !hasNext {
		return nil, dberror.IllegalState("Next", componentIterator, "no more tuples")
	}

	t := it.current[it.pos]
	it.pos++
	return t, nil
}

// Rewind restarts the iteration at page 0.
func (it *HeapFileIterator) Rewind() error {
	if err := it.checkOpen("Rewind"); err != nil {
		return err
	}
	it.reset()
	return nil
}

// Close releases iterator resources
func (it *HeapFileIterator) Close() error {
	it.state = iterClosed
	it.current = nil
	return nil
}

func (it *HeapFileIterator) reset() {
	it.nextPage = 0
	it.current = nil
	it.pos = 0
}

func (it *HeapFileIterator) checkOpen(op string) error {
	switch it.state {
	case iterOpen:
		return nil
	case iterClosed:
		return dberror.IllegalState(op, componentIterator, "iterator is closed")
	default:
		return dberror.IllegalState(op, componentIterator, "iterator not opened")
	}
}
