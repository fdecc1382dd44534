package page

import (
	"heapstore/pkg/primitives"
	"heapstore/pkg/tuple"
)

// DbFileIterator walks every tuple stored in a file.
type DbFileIterator interface {
	// Open prepares the iterator for use
	Open() error

	// HasNext returns true if there are more tuples available
	HasNext() (bool, error)

	// Next returns the next tuple in the iteration
	Next() (*tuple.Tuple, error)

	// Rewind resets the iterator to the beginning
	Rewind() error

	// Close releases any resources held by the iterator
	Close() error
}

// DbFile represents a database file that stores tuples and provides operations for
// reading, writing, and managing data pages.
type DbFile interface {
	// ReadPage reads a page straight from storage, bypassing any cache.
	ReadPage(pid primitives.PageID) (Page, error)

	// WritePage persists a page at its position in the file.
	WritePage(p Page) error

	// NumPages returns the number of pages currently in the file.
	NumPages() (primitives.PageNumber, error)

	// InsertTuple stores t in the first page with a free slot and returns
	// the pages it modified.
	InsertTuple(fetcher PageFetcher, tid primitives.TransactionID, t *tuple.Tuple) ([]Page, error)

	// DeleteTuple frees the slot named by t.RecordID and returns the page.
	DeleteTuple(fetcher PageFetcher, tid primitives.TransactionID, t *tuple.Tuple) (Page, error)

	// Iterator returns an unopened iterator over all tuples of the file.
	Iterator(fetcher PageFetcher, tid primitives.TransactionID) DbFileIterator

	// GetID returns the unique identifier of the database file.
	GetID() primitives.TableID

	// GetTupleDesc returns the tuple description associated with the database file.
	GetTupleDesc() *tuple.TupleDescription

	// Close releases any resources held by the database file.
	Close() error
}
